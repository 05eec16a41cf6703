package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spacesedan/ytsentiment/config"
	"github.com/spacesedan/ytsentiment/internal/api"
	"github.com/spacesedan/ytsentiment/internal/monitoring"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg config.Config) *cobra.Command {
	addr := cfg.HTTPAddr

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pipeline, classifier, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer closeClassifier(classifier, "Serve")

			// Load eagerly so the first request does not pay for it. A failed
			// load is reported per request.
			if err := classifier.EnsureLoaded(ctx); err != nil {
				slog.Error("[Serve] Model failed to load", slog.String("error", err.Error()))
			}

			monitor := monitoring.NewClassifierMonitor(classifier, monitoring.HEALTHCHECK_INTERVAL)
			go monitor.Run(ctx)

			handler := api.NewHandler(pipeline, monitor, cfg.YouTubeAPIKey,
				api.WithMaxLimit(cfg.MaxCommentLimit))

			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("[Serve] Listening", slog.String("addr", addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("[Serve] Shutting down server gracefully...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", addr, "listen address")
	return cmd
}
