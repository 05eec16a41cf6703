package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DEFAULT_ENV             = "dev"
	DEFAULT_COMMENT_LIMIT   = 50
	DEFAULT_MAX_LIMIT       = 500
	DEFAULT_BACKEND         = "hugot"
	DEFAULT_MODEL           = "cardiffnlp/twitter-roberta-base-sentiment"
	DEFAULT_MODEL_DIR       = "./models"
	DEFAULT_BATCH_SIZE      = 10
	DEFAULT_WORKERS         = 1
	DEFAULT_HTTP_ADDR       = ":8080"
	DEFAULT_YOUTUBE_TIMEOUT = 30 * time.Second
	DEFAULT_REMOTE_TIMEOUT  = 60 * time.Second
)

type Config struct {
	Env      string
	LogLevel slog.Level

	YouTubeAPIKey   string
	YouTubeEndpoint string
	YouTubeTimeout  time.Duration
	CommentLimit    int
	MaxCommentLimit int

	SentimentBackend string
	SentimentModel   string
	SentimentLabels  string
	ModelDir         string
	OnnxFile         string
	BatchSize        int
	RemoteEndpoint   string
	RemoteToken      string
	RemoteTimeout    time.Duration
	Workers          int

	HTTPAddr string
}

// Env returns APP_ENV, defaulting to dev.
func Env() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = DEFAULT_ENV
	}
	return env
}

// Load reads the typed configuration from the environment. Call LoadEnv first
// when a .env file should be honoured.
func Load() Config {
	return Config{
		Env:      Env(),
		LogLevel: parseLevel(os.Getenv("LOG_LEVEL")),

		YouTubeAPIKey:   os.Getenv("YOUTUBE_API_KEY"),
		YouTubeEndpoint: os.Getenv("YOUTUBE_ENDPOINT"),
		YouTubeTimeout:  durationEnv("YOUTUBE_TIMEOUT", DEFAULT_YOUTUBE_TIMEOUT),
		CommentLimit:    intEnv("COMMENT_LIMIT", DEFAULT_COMMENT_LIMIT),
		MaxCommentLimit: intEnv("MAX_COMMENT_LIMIT", DEFAULT_MAX_LIMIT),

		SentimentBackend: stringEnv("SENTIMENT_BACKEND", DEFAULT_BACKEND),
		SentimentModel:   stringEnv("SENTIMENT_MODEL", DEFAULT_MODEL),
		SentimentLabels:  os.Getenv("SENTIMENT_LABELS"),
		ModelDir:         stringEnv("MODEL_DIR", DEFAULT_MODEL_DIR),
		OnnxFile:         os.Getenv("ONNX_FILE"),
		BatchSize:        intEnv("CLASSIFY_BATCH_SIZE", DEFAULT_BATCH_SIZE),
		RemoteEndpoint:   os.Getenv("SENTIMENT_ENDPOINT"),
		RemoteToken:      os.Getenv("HF_API_TOKEN"),
		RemoteTimeout:    durationEnv("SENTIMENT_TIMEOUT", DEFAULT_REMOTE_TIMEOUT),
		Workers:          intEnv("CLASSIFY_WORKERS", DEFAULT_WORKERS),

		HTTPAddr: stringEnv("HTTP_ADDR", DEFAULT_HTTP_ADDR),
	}
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("[Config] Invalid integer, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int("default", fallback))
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("[Config] Invalid duration, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Duration("default", fallback))
		return fallback
	}
	return v
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
