package processing

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/ytsentiment/internal/clients"
	"github.com/spacesedan/ytsentiment/internal/models"
	"github.com/spacesedan/ytsentiment/internal/sentiment"
	"github.com/spacesedan/ytsentiment/internal/utils"
)

type CommentFetcher interface {
	FetchComments(ctx context.Context, videoID string, limit int) ([]string, error)
}

// FetcherFactory builds a fetcher bound to one API credential.
type FetcherFactory func(ctx context.Context, apiKey string) (CommentFetcher, error)

type SentimentClassifier interface {
	EnsureLoaded(ctx context.Context) error
	ClassifyBatch(texts []string) []sentiment.Outcome
}

// YouTubeFetcherFactory returns a factory that creates a Data API client per
// credential.
func YouTubeFetcherFactory(opts ...clients.YouTubeOption) FetcherFactory {
	return func(ctx context.Context, apiKey string) (CommentFetcher, error) {
		return clients.NewYouTubeClient(ctx, apiKey, opts...)
	}
}

type Pipeline struct {
	newFetcher   FetcherFactory
	classifier   SentimentClassifier
	batchSize    int
	workers      int
	defaultLimit int
}

type Option func(*Pipeline)

func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithDefaultLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.defaultLimit = n
		}
	}
}

func NewPipeline(newFetcher FetcherFactory, classifier SentimentClassifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		newFetcher:   newFetcher,
		classifier:   classifier,
		batchSize:    utils.BATCH_SIZE,
		workers:      1,
		defaultLimit: clients.YOUTUBE_DEFAULT_LIMIT,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches up to limit comments for the video in rawURL, classifies them
// and summarizes the labels. A limit of zero or less uses the pipeline
// default. Fetch errors abort the run; per-comment classification failures
// are recorded through the fallback policy.
func (p *Pipeline) Run(ctx context.Context, apiKey, rawURL string, limit int) (*models.AnalysisResult, error) {
	runID := uuid.NewString()
	logger := slog.With(slog.String("run_id", runID))
	start := time.Now()

	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrMissingURL
	}
	videoID, err := ExtractVideoID(strings.TrimSpace(rawURL))
	if err != nil {
		logger.Warn("[Pipeline] Rejected video URL", slog.String("url", rawURL))
		return nil, err
	}
	if limit <= 0 {
		limit = p.defaultLimit
	}

	logger.Info("[Pipeline] Starting analysis",
		slog.String("video_id", videoID),
		slog.Int("limit", limit))

	comments, err := p.fetch(ctx, apiKey, videoID, limit)
	if err != nil {
		logger.Error("[Pipeline] Fetch failed",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
		return nil, err
	}

	result := &models.AnalysisResult{
		RunID:   runID,
		VideoID: videoID,
		Records: []models.ClassifiedComment{},
		Summary: models.SentimentSummary{Entries: []models.SummaryEntry{}},
	}
	if len(comments) == 0 {
		logger.Info("[Pipeline] No comments returned, skipping classification",
			slog.String("video_id", videoID))
		return result, nil
	}

	if err := p.classifier.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	records, err := p.classifyAll(ctx, comments)
	if err != nil {
		return nil, err
	}
	result.Records = records
	result.Summary = Summarize(records)

	logger.Info("[Pipeline] Analysis complete",
		slog.String("video_id", videoID),
		slog.Int("comments", len(records)),
		slog.Int("unclassified", result.Summary.Unclassified),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

// fetch runs the fetch stage. Errors outside the fetch taxonomy are reported
// as unexpected responses unless the run itself was canceled.
func (p *Pipeline) fetch(ctx context.Context, apiKey, videoID string, limit int) ([]string, error) {
	fetcher, err := p.newFetcher(ctx, apiKey)
	if err == nil {
		var comments []string
		if comments, err = fetcher.FetchComments(ctx, videoID, limit); err == nil {
			return comments, nil
		}
	}
	if clients.IsFetchError(err) || ctx.Err() != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", clients.ErrUnexpectedResponse, err)
}

type indexedComment struct {
	index int
	text  string
}

// classifyAll classifies comments in batches on a bounded number of workers.
// Each record lands at its comment's index, so output order matches input
// order whatever the worker count.
func (p *Pipeline) classifyAll(ctx context.Context, comments []string) ([]models.ClassifiedComment, error) {
	records := make([]models.ClassifiedComment, len(comments))
	buffer := utils.NewBatchBuffer[indexedComment](p.batchSize)

	var g errgroup.Group
	g.SetLimit(p.workers)

	dispatch := func(batch []indexedComment) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.text
			}
			outcomes := p.classifier.ClassifyBatch(texts)
			for i, c := range batch {
				records[c.index] = ApplyFallback(c.text, outcomes[i])
			}
			return nil
		})
	}

	for i, comment := range comments {
		buffer.Add(indexedComment{index: i, text: NormalizeComment(comment)})
		if buffer.Full() {
			dispatch(buffer.GetAndClear())
		}
	}
	if batch := buffer.GetAndClear(); batch != nil {
		dispatch(batch)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// ApplyFallback turns an outcome into a record. A failed outcome becomes a
// Neutral record with zero confidence, flagged as unclassified.
func ApplyFallback(comment string, outcome sentiment.Outcome) models.ClassifiedComment {
	if outcome.OK() {
		return models.ClassifiedComment{
			Comment:    comment,
			Label:      outcome.Label,
			Confidence: outcome.Confidence,
		}
	}

	slog.Warn("[Pipeline] Comment could not be classified, defaulting to Neutral",
		slog.String("error", outcome.Err.Error()))
	return models.ClassifiedComment{
		Comment:       comment,
		Label:         models.LabelNeutral,
		Confidence:    0,
		Unclassified:  true,
		FailureReason: outcome.Err.Error(),
	}
}

// NormalizeComment unescapes HTML entities and trims surrounding whitespace.
func NormalizeComment(comment string) string {
	return strings.TrimSpace(html.UnescapeString(comment))
}
