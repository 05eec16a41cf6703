package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/spacesedan/ytsentiment/config"
	"github.com/spacesedan/ytsentiment/internal/export"
	"github.com/spacesedan/ytsentiment/internal/models"
	"github.com/spacesedan/ytsentiment/internal/processing"
	"github.com/spacesedan/ytsentiment/internal/sentiment"
)

const commentPreviewRunes = 80

func newAnalyzeCmd(cfg config.Config) *cobra.Command {
	var (
		videoURL string
		apiKey   string
		limit    int
		csvPath  string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch and classify the comments of one video",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipeline, classifier, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer closeClassifier(classifier, "Analyze")

			result, err := pipeline.Run(cmd.Context(), apiKey, videoURL, limit)
			if err != nil {
				return fmt.Errorf("%s (%w)", processing.UserMessage(err), err)
			}

			out := cmd.OutOrStdout()
			if result.Summary.IsEmpty() {
				fmt.Fprintln(out, "No comments were found for this video.")
				return nil
			}

			renderRecords(cmd, result.Records)
			fmt.Fprintln(out, "\nSentiment Summary")
			for _, line := range export.SummaryLines(result.Summary) {
				fmt.Fprintln(out, line)
			}
			if note := export.UnclassifiedNote(result.Summary); note != "" {
				fmt.Fprintln(out, note)
			}

			if csvPath != "" {
				data, err := export.CSVBytes(result.Records)
				if err != nil {
					return err
				}
				if err := os.WriteFile(csvPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", csvPath, err)
				}
				fmt.Fprintf(out, "\nResults written to %s\n", csvPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&videoURL, "url", "", "YouTube video URL (https://www.youtube.com/watch?v=...)")
	cmd.Flags().StringVar(&apiKey, "api-key", cfg.YouTubeAPIKey, "YouTube Data API key (defaults to YOUTUBE_API_KEY)")
	cmd.Flags().IntVar(&limit, "limit", cfg.CommentLimit, "maximum number of comments to fetch")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write results to this CSV file")

	return cmd
}

func renderRecords(cmd *cobra.Command, records []models.ClassifiedComment) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Comment", "Sentiment", "Confidence (%)"})
	for i, r := range records {
		preview := strings.Join(strings.Fields(r.Comment), " ")
		if short := sentiment.Truncate(preview, commentPreviewRunes); short != preview {
			preview = short + "…"
		}
		t.AppendRow(table.Row{i + 1, preview, r.Label, export.FormatConfidence(r.Confidence)})
	}
	t.Render()
}
