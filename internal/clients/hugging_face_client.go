package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	HF_INFERENCE_ENDPOINT = "https://api-inference.huggingface.co/models/"
	HF_DEFAULT_TIMEOUT    = 60 * time.Second
	MAX_RETRIES           = 3
	INITIAL_BACKOFF       = 500 * time.Millisecond
)

// LabelScore is one class score returned by a text-classification model.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type hfRequest struct {
	Inputs  []string       `json:"inputs"`
	Options map[string]any `json:"options,omitempty"`
}

// HuggingFaceClient calls a hosted text-classification model.
type HuggingFaceClient struct {
	client   *http.Client
	endpoint string
	token    string
	backoff  time.Duration
}

type HuggingFaceOption func(*HuggingFaceClient)

// WithInferenceEndpoint replaces the model URL, e.g. for a dedicated
// inference endpoint.
func WithInferenceEndpoint(endpoint string) HuggingFaceOption {
	return func(h *HuggingFaceClient) {
		h.endpoint = endpoint
	}
}

func WithInferenceTimeout(timeout time.Duration) HuggingFaceOption {
	return func(h *HuggingFaceClient) {
		if timeout > 0 {
			h.client.Timeout = timeout
		}
	}
}

func WithRetryBackoff(backoff time.Duration) HuggingFaceOption {
	return func(h *HuggingFaceClient) {
		h.backoff = backoff
	}
}

func NewHuggingFaceClient(model, token string, opts ...HuggingFaceOption) *HuggingFaceClient {
	h := &HuggingFaceClient{
		client:   &http.Client{Timeout: HF_DEFAULT_TIMEOUT},
		endpoint: HF_INFERENCE_ENDPOINT + model,
		token:    token,
		backoff:  INITIAL_BACKOFF,
	}
	for _, opt := range opts {
		opt(h)
	}

	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.String("endpoint", h.endpoint),
		slog.Duration("timeout", h.client.Timeout))
	return h
}

// Classify returns the class scores for each input, in input order.
func (h *HuggingFaceClient) Classify(ctx context.Context, texts []string) ([][]LabelScore, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:  texts,
		Options: map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	start := time.Now()
	respBody, err := h.doWithRetry(ctx, body)
	if err != nil {
		slog.Error("[HuggingFaceClient] Classification request failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, err
	}

	var rows [][]LabelScore
	if err := json.Unmarshal(respBody, &rows); err != nil {
		// A single input may come back as a flat list.
		var flat []LabelScore
		if len(texts) != 1 || json.Unmarshal(respBody, &flat) != nil {
			slog.Error("[HuggingFaceClient] Failed to unmarshal response",
				slog.String("error", err.Error()),
				getPreview(respBody))
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		rows = [][]LabelScore{flat}
	}

	slog.Debug("[HuggingFaceClient] Classification request successful",
		slog.Int("inputs", len(texts)),
		slog.Duration("elapsed", time.Since(start)))
	return rows, nil
}

// doWithRetry posts body, retrying transport failures and 5xx responses with
// exponential backoff. The request is rebuilt on every attempt.
func (h *HuggingFaceClient) doWithRetry(ctx context.Context, body []byte) ([]byte, error) {
	backoff := h.backoff
	var lastErr error

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		respBody, retry, err := h.post(ctx, body)
		if err == nil {
			return respBody, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", MAX_RETRIES, lastErr)
}

func (h *HuggingFaceClient) post(ctx context.Context, body []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, false, err
		}
		return nil, true, fmt.Errorf("%w: %v", ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: failed to read response: %v", ErrTransientNetwork, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("%w: status code %d", ErrAuthentication, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, fmt.Errorf("%w: status code %d", ErrQuotaExceeded, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status code %d", ErrTransientNetwork, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: status code %d: %s",
			ErrUnexpectedResponse, resp.StatusCode, strings.TrimSpace(string(preview(respBody))))
	}
}

func preview(respBody []byte) []byte {
	if len(respBody) > 50 {
		return respBody[:50]
	}
	return respBody
}

func getPreview(respBody []byte) slog.Attr {
	return slog.String("raw_response", string(preview(respBody)))
}
