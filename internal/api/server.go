package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spacesedan/ytsentiment/internal/clients"
	"github.com/spacesedan/ytsentiment/internal/export"
	"github.com/spacesedan/ytsentiment/internal/models"
	"github.com/spacesedan/ytsentiment/internal/processing"
)

const (
	API_KEY_HEADER  = "X-YouTube-Api-Key"
	REQUEST_TIMEOUT = 2 * time.Minute
	MAX_BODY_BYTES  = 64 << 10
	MAX_LIMIT       = 500
)

type Analyzer interface {
	Run(ctx context.Context, apiKey, rawURL string, limit int) (*models.AnalysisResult, error)
}

type ModelStatus interface {
	Model() string
	Loaded() bool
}

type AnalyzeRequest struct {
	APIKey string `json:"api_key"`
	URL    string `json:"url"`
	Limit  int    `json:"limit"`
}

type AnalyzeResponse struct {
	VideoID string                     `json:"video_id"`
	Message string                     `json:"message,omitempty"`
	Records []models.ClassifiedComment `json:"records"`
	Summary models.SentimentSummary    `json:"summary"`
	Bullets []string                   `json:"bullets"`
}

type Handler struct {
	analyzer      Analyzer
	status        ModelStatus
	defaultAPIKey string
	maxLimit      int
}

type HandlerOption func(*Handler)

// WithMaxLimit bounds the comment limit a request may ask for.
func WithMaxLimit(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxLimit = n
		}
	}
}

// NewHandler wires the analysis endpoints. defaultAPIKey is used when a
// request carries no key of its own.
func NewHandler(analyzer Analyzer, status ModelStatus, defaultAPIKey string, opts ...HandlerOption) *Handler {
	h := &Handler{analyzer: analyzer, status: status, defaultAPIKey: defaultAPIKey, maxLimit: MAX_LIMIT}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(REQUEST_TIMEOUT))

	r.Get("/healthz", h.Health())
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", h.Analyze())
		r.Post("/analyze.csv", h.AnalyzeCSV())
	})
	return r
}

// HealthReporter is implemented by status sources that check the model periodically.
type HealthReporter interface {
	Healthy() bool
}

// Health handles GET /healthz
func (h *Handler) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{
			"status":       "ok",
			"model":        h.status.Model(),
			"model_loaded": h.status.Loaded(),
		}
		code := http.StatusOK
		if reporter, ok := h.status.(HealthReporter); ok {
			healthy := reporter.Healthy()
			body["model_healthy"] = healthy
			if !healthy {
				body["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, body)
	}
}

// Analyze handles POST /api/analyze
func (h *Handler) Analyze() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := h.run(w, r)
		if !ok {
			return
		}

		resp := AnalyzeResponse{
			VideoID: result.VideoID,
			Records: result.Records,
			Summary: result.Summary,
			Bullets: export.SummaryLines(result.Summary),
		}
		if result.Summary.IsEmpty() {
			resp.Message = "No comments were found for this video."
		} else {
			resp.Message = export.UnclassifiedNote(result.Summary)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// AnalyzeCSV handles POST /api/analyze.csv
func (h *Handler) AnalyzeCSV() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := h.run(w, r)
		if !ok {
			return
		}

		data, err := export.CSVBytes(result.Records)
		if err != nil {
			slog.Error("[API] Failed to build CSV", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to build CSV export")
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.CSV_FILE_NAME+`"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			slog.Warn("[API] Failed to write CSV", slog.String("error", err.Error()))
		}
	}
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*models.AnalysisResult, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MAX_BODY_BYTES)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if req.Limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be at most %d", h.maxLimit))
		return nil, false
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(r.Header.Get(API_KEY_HEADER))
	}
	if apiKey == "" {
		apiKey = h.defaultAPIKey
	}

	result, err := h.analyzer.Run(r.Context(), apiKey, req.URL, req.Limit)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			slog.Error("[API] Analysis failed",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("error", err.Error()))
		}
		writeError(w, code, processing.UserMessage(err))
		return nil, false
	}
	return result, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, processing.ErrMissingCredential),
		errors.Is(err, processing.ErrMissingURL),
		errors.Is(err, processing.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, clients.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, clients.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, clients.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, clients.ErrCommentsDisabled):
		return http.StatusUnprocessableEntity
	case errors.Is(err, processing.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
