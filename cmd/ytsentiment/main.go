package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spacesedan/ytsentiment/config"
	"github.com/spacesedan/ytsentiment/internal/clients"
	"github.com/spacesedan/ytsentiment/internal/logging"
	"github.com/spacesedan/ytsentiment/internal/processing"
	"github.com/spacesedan/ytsentiment/internal/sentiment"
)

func main() {
	config.LoadEnv(config.Env())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	root := &cobra.Command{
		Use:           "ytsentiment",
		Short:         "Classify the sentiment of YouTube video comments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(cfg), newServeCmd(cfg))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildPipeline(cfg config.Config) (*processing.Pipeline, *sentiment.Classifier, error) {
	classifier, err := sentiment.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	fetcherOpts := []clients.YouTubeOption{clients.WithTimeout(cfg.YouTubeTimeout)}
	if cfg.YouTubeEndpoint != "" {
		fetcherOpts = append(fetcherOpts, clients.WithEndpoint(cfg.YouTubeEndpoint))
	}

	pipeline := processing.NewPipeline(
		processing.YouTubeFetcherFactory(fetcherOpts...),
		classifier,
		processing.WithBatchSize(cfg.BatchSize),
		processing.WithWorkers(cfg.Workers),
		processing.WithDefaultLimit(cfg.CommentLimit),
	)
	return pipeline, classifier, nil
}

// closeClassifier releases the model and logs a failure under component.
func closeClassifier(c io.Closer, component string) {
	if err := c.Close(); err != nil {
		slog.Warn("["+component+"] Failed to release model", slog.String("error", err.Error()))
	}
}
