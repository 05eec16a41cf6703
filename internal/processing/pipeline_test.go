package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/ytsentiment/internal/clients"
	"github.com/spacesedan/ytsentiment/internal/models"
	"github.com/spacesedan/ytsentiment/internal/sentiment"
)

type stubFetcher struct {
	comments []string
	err      error

	mu      sync.Mutex
	videoID string
	limit   int
	calls   int
}

func (s *stubFetcher) FetchComments(_ context.Context, videoID string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.videoID = videoID
	s.limit = limit
	return s.comments, s.err
}

func factoryFor(f *stubFetcher, gotKey *string) FetcherFactory {
	return func(_ context.Context, apiKey string) (CommentFetcher, error) {
		if gotKey != nil {
			*gotKey = apiKey
		}
		return f, nil
	}
}

// keywordClassifier labels by keyword and fails on texts containing "💥".
type keywordClassifier struct {
	loadErr error
	loads   atomic.Int32
	batches atomic.Int32
}

func (k *keywordClassifier) EnsureLoaded(context.Context) error {
	k.loads.Add(1)
	return k.loadErr
}

func (k *keywordClassifier) ClassifyBatch(texts []string) []sentiment.Outcome {
	k.batches.Add(1)
	out := make([]sentiment.Outcome, len(texts))
	for i, text := range texts {
		switch {
		case strings.Contains(text, "💥"):
			out[i] = sentiment.Outcome{Err: errors.New("unexpected output shape")}
		case strings.Contains(text, "love"):
			out[i] = sentiment.Outcome{Label: models.LabelPositive, Confidence: 97.5}
		case strings.Contains(text, "hate"):
			out[i] = sentiment.Outcome{Label: models.LabelNegative, Confidence: 88.12}
		default:
			out[i] = sentiment.Outcome{Label: models.LabelNeutral, Confidence: 61}
		}
	}
	return out
}

func TestRun_ClassifiesAndSummarizes(t *testing.T) {
	fetcher := &stubFetcher{comments: []string{"I love this", "love it", "it is a video", "I hate this"}}
	classifier := &keywordClassifier{}
	var key string
	p := NewPipeline(factoryFor(fetcher, &key), classifier)

	result, err := p.Run(context.Background(), "secret", "https://www.youtube.com/watch?v=abc123", 0)
	require.NoError(t, err)

	assert.Equal(t, "secret", key)
	assert.Equal(t, "abc123", fetcher.videoID)
	assert.Equal(t, clients.YOUTUBE_DEFAULT_LIMIT, fetcher.limit)
	assert.Equal(t, "abc123", result.VideoID)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, result.Records, 4)
	assert.Equal(t, models.ClassifiedComment{Comment: "I love this", Label: models.LabelPositive, Confidence: 97.5}, result.Records[0])
	assert.Equal(t, models.LabelNegative, result.Records[3].Label)

	assert.Equal(t, []models.SummaryEntry{
		{Label: models.LabelPositive, Count: 2, Percentage: 50},
		{Label: models.LabelNeutral, Count: 1, Percentage: 25},
		{Label: models.LabelNegative, Count: 1, Percentage: 25},
	}, result.Summary.Entries)
}

func TestRun_PassesExplicitLimit(t *testing.T) {
	fetcher := &stubFetcher{comments: []string{"ok"}}
	p := NewPipeline(factoryFor(fetcher, nil), &keywordClassifier{})

	_, err := p.Run(context.Background(), "k", "https://www.youtube.com/watch?v=abc123", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, fetcher.limit)
}

func TestRun_InputValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		url  string
		want error
	}{
		{"missing key", "", "https://www.youtube.com/watch?v=abc123", ErrMissingCredential},
		{"blank key", "   ", "https://www.youtube.com/watch?v=abc123", ErrMissingCredential},
		{"missing url", "k", "", ErrMissingURL},
		{"invalid url", "k", "https://example.com/notavideo", ErrInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &stubFetcher{}
			p := NewPipeline(factoryFor(fetcher, nil), &keywordClassifier{})

			result, err := p.Run(context.Background(), tt.key, tt.url, 0)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, result)
			assert.Zero(t, fetcher.calls, "no network access on invalid input")
		})
	}
}

func TestRun_EmptyCommentsShortCircuits(t *testing.T) {
	classifier := &keywordClassifier{}
	p := NewPipeline(factoryFor(&stubFetcher{}, nil), classifier)

	result, err := p.Run(context.Background(), "k", "https://www.youtube.com/watch?v=abc123", 50)
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.True(t, result.Summary.IsEmpty())
	assert.Zero(t, classifier.loads.Load())
	assert.Zero(t, classifier.batches.Load())
}

func TestRun_FetchErrorHaltsBeforeClassification(t *testing.T) {
	for _, fetchErr := range []error{
		clients.ErrAuthentication, clients.ErrQuotaExceeded,
		clients.ErrNotFound, clients.ErrTransientNetwork,
		clients.ErrCommentsDisabled, clients.ErrUnexpectedResponse,
	} {
		t.Run(fetchErr.Error(), func(t *testing.T) {
			classifier := &keywordClassifier{}
			fetcher := &stubFetcher{comments: []string{"partial"}, err: fmt.Errorf("%w: status 403", fetchErr)}
			p := NewPipeline(factoryFor(fetcher, nil), classifier)

			result, err := p.Run(context.Background(), "k", "https://www.youtube.com/watch?v=abc123", 50)
			assert.ErrorIs(t, err, fetchErr)
			assert.Nil(t, result)
			assert.Zero(t, classifier.batches.Load())
		})
	}
}

func TestRun_UntypedFetchErrorIsUnexpected(t *testing.T) {
	classifier := &keywordClassifier{}
	fetcher := &stubFetcher{err: errors.New("decoder exploded")}
	p := NewPipeline(factoryFor(fetcher, nil), classifier)

	_, err := p.Run(context.Background(), "k", "https://www.youtube.com/watch?v=abc123", 0)
	assert.ErrorIs(t, err, clients.ErrUnexpectedResponse)
	assert.Contains(t, err.Error(), "decoder exploded")
	assert.Zero(t, classifier.batches.Load())
}

func TestRun_FetcherConstructionError(t *testing.T) {
	failing := func(context.Context, string) (CommentFetcher, error) {
		return nil, fmt.Errorf("%w: empty api key", clients.ErrAuthentication)
	}
	p := NewPipeline(failing, &keywordClassifier{})

	_, err := p.Run(context.Background(), "k", "https://www.youtube.com/watch?v=abc123", 0)
	assert.ErrorIs(t, err, clients.ErrAuthentication)
	assert.NotErrorIs(t, err, clients.ErrUnexpectedResponse)
}

func TestRun_FallbackForFailedComment(t *testing.T) {
	fetcher := &stubFetcher{comments: []string{"I love this", "💥", "I hate this"}}
	p := NewPipeline(factoryFor(fetcher, nil), &keywordClassifier{})

	result, err := p.Run(context.Background(), "k", "https://www.youtube.com/watch?v=abc123", 0)
	require.NoError(t, err)

	failed := result.Records[1]
	assert.Equal(t, models.LabelNeutral, failed.Label)
	assert.Zero(t, failed.Confidence)
	assert.True(t, failed.Unclassified)
	assert.NotEmpty(t, failed.FailureReason)

	assert.Equal(t, 3, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Unclassified)
}

func TestRun_ModelLoadFailure(t *testing.T) {
	fetcher := &stubFetcher{comments: []string{"hello"}}
	p := NewPipeline(factoryFor(fetcher, nil), &keywordClassifier{loadErr: errors.New("no onnxruntime")})

	_, err := p.Run(context.Background(), "k", "https://www.youtube.com/watch?v=abc123", 0)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	comments := make([]string, 57)
	for i := range comments {
		switch i % 3 {
		case 0:
			comments[i] = fmt.Sprintf("love #%d", i)
		case 1:
			comments[i] = fmt.Sprintf("hate #%d", i)
		default:
			comments[i] = fmt.Sprintf("meh #%d", i)
		}
	}
	url := "https://www.youtube.com/watch?v=abc123"

	sequential := NewPipeline(factoryFor(&stubFetcher{comments: comments}, nil), &keywordClassifier{},
		WithBatchSize(100), WithWorkers(1))
	parallel := NewPipeline(factoryFor(&stubFetcher{comments: comments}, nil), &keywordClassifier{},
		WithBatchSize(4), WithWorkers(6))

	want, err := sequential.Run(context.Background(), "k", url, 0)
	require.NoError(t, err)
	got, err := parallel.Run(context.Background(), "k", url, 0)
	require.NoError(t, err)

	assert.Equal(t, want.Records, got.Records)
	assert.Equal(t, want.Summary, got.Summary)
	for i, r := range got.Records {
		assert.Equal(t, comments[i], r.Comment)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(factoryFor(&stubFetcher{comments: []string{"love"}}, nil), &keywordClassifier{})
	_, err := p.Run(ctx, "k", "https://www.youtube.com/watch?v=abc123", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeComment(t *testing.T) {
	assert.Equal(t, `Tom & Jerry's "best"`, NormalizeComment("  Tom &amp; Jerry&#39;s &quot;best&quot;\n"))
}

func TestUserMessage_Distinct(t *testing.T) {
	errs := []error{
		ErrMissingCredential, ErrInvalidURL, ErrModelUnavailable,
		clients.ErrAuthentication, clients.ErrQuotaExceeded, clients.ErrNotFound,
		clients.ErrCommentsDisabled, clients.ErrTransientNetwork, clients.ErrUnexpectedResponse,
	}
	seen := make(map[string]error)
	for _, err := range errs {
		msg := UserMessage(fmt.Errorf("wrapped: %w", err))
		require.NotEmpty(t, msg)
		if prev, ok := seen[msg]; ok {
			t.Errorf("%v and %v share message %q", prev, err, msg)
		}
		seen[msg] = err
	}
	assert.Empty(t, UserMessage(nil))
}
