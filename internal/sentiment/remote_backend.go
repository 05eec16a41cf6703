package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/spacesedan/ytsentiment/internal/clients"
)

// RemoteBackend classifies through a hosted Hugging Face model. It needs no
// local ONNX runtime.
type RemoteBackend struct {
	client  *clients.HuggingFaceClient
	timeout time.Duration
}

func NewRemoteBackend(client *clients.HuggingFaceClient, timeout time.Duration) *RemoteBackend {
	if timeout <= 0 {
		timeout = clients.HF_DEFAULT_TIMEOUT
	}
	return &RemoteBackend{client: client, timeout: timeout}
}

func (b *RemoteBackend) Predict(texts []string) ([]Prediction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	rows, err := b.client.Classify(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(texts) {
		return nil, fmt.Errorf("%w: %d rows for %d inputs", ErrOutputShape, len(rows), len(texts))
	}

	predictions := make([]Prediction, len(rows))
	for i, scores := range rows {
		if len(scores) == 0 {
			continue
		}
		best := scores[0]
		for _, s := range scores[1:] {
			if s.Score > best.Score {
				best = s
			}
		}
		predictions[i] = Prediction{Label: best.Label, Score: best.Score}
	}
	return predictions, nil
}

func (b *RemoteBackend) Close() error {
	return nil
}
