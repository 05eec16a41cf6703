package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHFServer(t *testing.T, handler http.HandlerFunc) (*HuggingFaceClient, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewHuggingFaceClient("cardiffnlp/twitter-roberta-base-sentiment", "hf-token",
		WithInferenceEndpoint(srv.URL), WithRetryBackoff(time.Millisecond))
	return client, &calls
}

func TestClassify(t *testing.T) {
	client, calls := newHFServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))

		var req hfRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"great", "awful"}, req.Inputs)

		_, _ = w.Write([]byte(`[
			[{"label":"LABEL_2","score":0.9},{"label":"LABEL_1","score":0.08},{"label":"LABEL_0","score":0.02}],
			[{"label":"LABEL_0","score":0.8},{"label":"LABEL_1","score":0.15},{"label":"LABEL_2","score":0.05}]
		]`))
	})

	rows, err := client.Classify(context.Background(), []string{"great", "awful"})

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, LabelScore{Label: "LABEL_2", Score: 0.9}, rows[0][0])
	assert.Equal(t, LabelScore{Label: "LABEL_0", Score: 0.8}, rows[1][0])
	assert.Equal(t, int32(1), calls.Load())
}

func TestClassify_FlatSingleInput(t *testing.T) {
	client, _ := newHFServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"LABEL_1","score":0.7}]`))
	})

	rows, err := client.Classify(context.Background(), []string{"ok"})

	require.NoError(t, err)
	assert.Equal(t, [][]LabelScore{{{Label: "LABEL_1", Score: 0.7}}}, rows)
}

func TestClassify_RetriesServerErrors(t *testing.T) {
	var n atomic.Int32
	client, calls := newHFServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if n.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[[{"label":"LABEL_1","score":0.6}]]`))
	})

	rows, err := client.Classify(context.Background(), []string{"hm"})

	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClassify_GivesUpAfterRetries(t *testing.T) {
	client, calls := newHFServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Classify(context.Background(), []string{"hm"})

	assert.ErrorIs(t, err, ErrTransientNetwork)
	assert.Equal(t, int32(MAX_RETRIES), calls.Load())
}

func TestClassify_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuthentication},
		{http.StatusForbidden, ErrAuthentication},
		{http.StatusTooManyRequests, ErrQuotaExceeded},
		{http.StatusBadRequest, ErrUnexpectedResponse},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client, calls := newHFServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			})

			_, err := client.Classify(context.Background(), []string{"x"})

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
		})
	}
}

func TestClassify_BadBody(t *testing.T) {
	client, _ := newHFServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Model is loading"}`))
	})

	_, err := client.Classify(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}
