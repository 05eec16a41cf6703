package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type YouTubeClient struct {
	Service *youtube.Service
}

type youTubeOptions struct {
	endpoint string
	timeout  time.Duration
}

type YouTubeOption func(*youTubeOptions)

// WithEndpoint points the client at a different API root, e.g. a proxy or a
// test server.
func WithEndpoint(endpoint string) YouTubeOption {
	return func(o *youTubeOptions) {
		o.endpoint = endpoint
	}
}

func WithTimeout(timeout time.Duration) YouTubeOption {
	return func(o *youTubeOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// NewYouTubeClient builds a Data API client that authenticates every request
// with apiKey.
func NewYouTubeClient(ctx context.Context, apiKey string, opts ...YouTubeOption) (*YouTubeClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: empty api key", ErrAuthentication)
	}

	o := youTubeOptions{timeout: YOUTUBE_DEFAULT_TIMEOUT}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := &http.Client{
		Timeout: o.timeout,
		Transport: &transport.APIKey{
			Key:       apiKey,
			Transport: http.DefaultTransport,
		},
	}

	serviceOpts := []option.ClientOption{
		option.WithHTTPClient(httpClient),
		option.WithUserAgent(USER_AGENT),
	}
	if o.endpoint != "" {
		endpoint := o.endpoint
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		serviceOpts = append(serviceOpts, option.WithEndpoint(endpoint))
	}

	service, err := youtube.NewService(ctx, serviceOpts...)
	if err != nil {
		return nil, fmt.Errorf("[YouTubeClient] failed to create service: %w", err)
	}

	slog.Debug("[YouTubeClient] Initialized client",
		slog.Duration("timeout", o.timeout),
		slog.String("endpoint", service.BasePath))

	return &YouTubeClient{Service: service}, nil
}

// FetchComments returns the display text of up to limit top-level comments
// for videoID, in API order. A limit of zero or less means the default of 50.
// Pages are followed only while the limit is not yet reached; every page is a
// single attempt.
func (yc *YouTubeClient) FetchComments(ctx context.Context, videoID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = YOUTUBE_DEFAULT_LIMIT
	}

	slog.Info("[YouTubeClient] Fetching comment threads",
		slog.String("video_id", videoID),
		slog.Int("limit", limit))
	start := time.Now()

	comments := make([]string, 0, min(limit, YOUTUBE_MAX_PAGE_SIZE))
	pageToken := ""

	for len(comments) < limit {
		pageSize := min(limit-len(comments), YOUTUBE_MAX_PAGE_SIZE)

		call := yc.Service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(int64(pageSize)).
			TextFormat(YOUTUBE_TEXT_FORMAT).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			mapped := classifyYouTubeError(err)
			slog.Error("[YouTubeClient] Comment thread request failed",
				slog.String("video_id", videoID),
				slog.Int("fetched", len(comments)),
				slog.String("error", mapped.Error()))
			return nil, mapped
		}

		for _, item := range resp.Items {
			if len(comments) == limit {
				break
			}
			text, ok := topLevelText(item)
			if !ok {
				slog.Warn("[YouTubeClient] Skipping comment thread without top level snippet",
					slog.String("thread_id", item.Id))
				continue
			}
			comments = append(comments, text)
		}

		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	slog.Info("[YouTubeClient] Fetched comments",
		slog.String("video_id", videoID),
		slog.Int("count", len(comments)),
		slog.Duration("elapsed", time.Since(start)))

	return comments, nil
}

func topLevelText(item *youtube.CommentThread) (string, bool) {
	if item == nil || item.Snippet == nil || item.Snippet.TopLevelComment == nil ||
		item.Snippet.TopLevelComment.Snippet == nil {
		return "", false
	}
	return item.Snippet.TopLevelComment.Snippet.TextDisplay, true
}

// IsFetchError reports whether err belongs to the fetch error taxonomy.
func IsFetchError(err error) bool {
	for _, target := range []error{
		ErrAuthentication, ErrQuotaExceeded, ErrNotFound,
		ErrCommentsDisabled, ErrTransientNetwork, ErrUnexpectedResponse,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
