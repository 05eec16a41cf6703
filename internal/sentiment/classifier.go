package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spacesedan/ytsentiment/config"
	"github.com/spacesedan/ytsentiment/internal/clients"
	"github.com/spacesedan/ytsentiment/internal/models"
)

// MaxInputRunes is the input bound of the RoBERTa sentiment models. Longer
// comments are cut to this many runes before inference.
const MaxInputRunes = 512

var (
	ErrNotLoaded      = errors.New("classifier model is not loaded")
	ErrUnknownLabel   = errors.New("model returned an unmapped label")
	ErrOutputShape    = errors.New("unexpected model output shape")
	ErrBackendPanic   = errors.New("model backend panicked")
	ErrUnknownBackend = errors.New("unknown sentiment backend")
)

// Outcome is the result of classifying one text. Err is set when the model
// could not produce a usable label; Label and Confidence are then zero.
type Outcome struct {
	Label      models.SentimentLabel
	Confidence float64
	Err        error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// BackendFactory constructs the backend. It runs at most once per Classifier.
type BackendFactory func(ctx context.Context) (Backend, error)

type Classifier struct {
	model   string
	labels  LabelTable
	factory BackendFactory

	once    sync.Once
	backend Backend
	loadErr error
	loaded  atomic.Bool
}

func NewClassifier(model string, factory BackendFactory) (*Classifier, error) {
	labels, err := LabelTableFor(model)
	if err != nil {
		return nil, err
	}
	return &Classifier{model: model, labels: labels, factory: factory}, nil
}

// NewFromConfig picks the backend named by cfg.SentimentBackend. A
// cfg.SentimentLabels table is registered for cfg.SentimentModel first, so
// models without a built-in table can be used.
func NewFromConfig(cfg config.Config) (*Classifier, error) {
	if cfg.SentimentLabels != "" && cfg.SentimentBackend != "vader" {
		table, err := ParseLabelTable(cfg.SentimentLabels)
		if err != nil {
			return nil, err
		}
		if err := RegisterLabelTable(cfg.SentimentModel, table); err != nil {
			return nil, err
		}
	}

	switch cfg.SentimentBackend {
	case "vader":
		return NewClassifier(MODEL_VADER, func(context.Context) (Backend, error) {
			return NewVaderBackend(), nil
		})
	case "hugot":
		return NewClassifier(cfg.SentimentModel, func(context.Context) (Backend, error) {
			return NewHugotBackend(cfg.SentimentModel, cfg.ModelDir, cfg.OnnxFile)
		})
	case "remote":
		return NewClassifier(cfg.SentimentModel, func(context.Context) (Backend, error) {
			opts := []clients.HuggingFaceOption{clients.WithInferenceTimeout(cfg.RemoteTimeout)}
			if cfg.RemoteEndpoint != "" {
				opts = append(opts, clients.WithInferenceEndpoint(cfg.RemoteEndpoint))
			}
			client := clients.NewHuggingFaceClient(cfg.SentimentModel, cfg.RemoteToken, opts...)
			return NewRemoteBackend(client, cfg.RemoteTimeout), nil
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.SentimentBackend)
	}
}

func (c *Classifier) Model() string {
	return c.model
}

func (c *Classifier) Loaded() bool {
	return c.loaded.Load()
}

// EnsureLoaded loads the model on first call. Later calls return the result
// of that first load, including its error.
func (c *Classifier) EnsureLoaded(ctx context.Context) error {
	c.once.Do(func() {
		start := time.Now()
		slog.Info("[Classifier] Loading model", slog.String("model", c.model))

		backend, err := c.factory(ctx)
		if err != nil {
			c.loadErr = fmt.Errorf("failed to load model %s: %w", c.model, err)
			slog.Error("[Classifier] Model load failed",
				slog.String("model", c.model),
				slog.String("error", err.Error()))
			return
		}

		c.backend = backend
		c.loaded.Store(true)
		slog.Info("[Classifier] Model ready",
			slog.String("model", c.model),
			slog.Duration("elapsed", time.Since(start)))
	})
	return c.loadErr
}

func (c *Classifier) Close() error {
	if !c.loaded.Load() {
		return nil
	}
	return c.backend.Close()
}

func (c *Classifier) Classify(text string) Outcome {
	return c.ClassifyBatch([]string{text})[0]
}

// ClassifyBatch classifies texts in one backend call. If the call fails as a
// whole, each text is retried alone so only the offending inputs fail.
func (c *Classifier) ClassifyBatch(texts []string) []Outcome {
	outcomes := make([]Outcome, len(texts))
	if len(texts) == 0 {
		return outcomes
	}
	if !c.loaded.Load() {
		for i := range outcomes {
			outcomes[i] = Outcome{Err: ErrNotLoaded}
		}
		return outcomes
	}

	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = Truncate(text, MaxInputRunes)
	}

	predictions, err := c.predict(inputs)
	if err == nil && len(predictions) != len(inputs) {
		err = fmt.Errorf("%w: %d predictions for %d inputs", ErrOutputShape, len(predictions), len(inputs))
	}
	if err != nil {
		if len(inputs) == 1 {
			outcomes[0] = Outcome{Err: err}
			return outcomes
		}
		slog.Warn("[Classifier] Batch inference failed, classifying individually",
			slog.Int("batch_size", len(inputs)),
			slog.String("error", err.Error()))
		for i, input := range inputs {
			outcomes[i] = c.ClassifyBatch([]string{input})[0]
		}
		return outcomes
	}

	for i, p := range predictions {
		outcomes[i] = c.toOutcome(p)
	}
	return outcomes
}

func (c *Classifier) predict(inputs []string) (predictions []Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[Classifier] Backend panic recovered", slog.Any("panic", r))
			predictions = nil
			err = fmt.Errorf("%w: %v", ErrBackendPanic, r)
		}
	}()
	return c.backend.Predict(inputs)
}

func (c *Classifier) toOutcome(p Prediction) Outcome {
	label, ok := c.labels[p.Label]
	if !ok {
		return Outcome{Err: fmt.Errorf("%w: %q", ErrUnknownLabel, p.Label)}
	}
	if math.IsNaN(p.Score) || p.Score < 0 || p.Score > 1 {
		return Outcome{Err: fmt.Errorf("%w: score %v", ErrOutputShape, p.Score)}
	}
	return Outcome{Label: label, Confidence: RoundPercent(p.Score * 100)}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// RoundPercent rounds to 2 decimal places.
func RoundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
