package sentiment

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const hugotPipelineName = "commentSentimentPipeline"

// HugotBackend runs a Hugging Face text-classification model through ONNX
// Runtime.
type HugotBackend struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

func NewHugotBackend(modelName, modelDir, onnxFile string) (*HugotBackend, error) {
	modelPath, err := ensureModel(modelName, modelDir, onnxFile)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	session, err := hugot.NewORTSession()
	if err != nil {
		slog.Error("[HugotBackend] Failed to initialize Hugot session",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to initialize hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath:    modelPath,
		Name:         hugotPipelineName,
		OnnxFilename: onnxFile,
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		slog.Error("[HugotBackend] Failed to initialize classification pipeline",
			slog.String("model", modelName),
			slog.String("error", err.Error()))
		if destroyErr := session.Destroy(); destroyErr != nil {
			slog.Warn("[HugotBackend] Failed to destroy session",
				slog.String("error", destroyErr.Error()))
		}
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	slog.Info("[HugotBackend] Model loaded",
		slog.String("model", modelName),
		slog.String("path", modelPath),
		slog.Duration("elapsed", time.Since(start)))

	return &HugotBackend{session: session, pipeline: pipeline}, nil
}

// ensureModel returns the local model directory, downloading the model the
// first time it is needed.
func ensureModel(modelName, modelDir, onnxFile string) (string, error) {
	if info, err := os.Stat(modelName); err == nil && info.IsDir() {
		return modelName, nil
	}

	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		slog.Info("[HugotBackend] Using existing model", slog.String("path", modelPath))
		return modelPath, nil
	}

	slog.Info("[HugotBackend] Model not found, downloading...",
		slog.String("model", modelName))
	opts := hugot.NewDownloadOptions()
	if onnxFile != "" {
		opts.OnnxFilePath = onnxFile
	}
	downloaded, err := hugot.DownloadModel(modelName, modelDir, opts)
	if err != nil {
		slog.Error("[HugotBackend] Failed to download model",
			slog.String("model", modelName),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to download model %s: %w", modelName, err)
	}
	slog.Info("[HugotBackend] Model downloaded successfully", slog.String("path", downloaded))
	return downloaded, nil
}

func (b *HugotBackend) Predict(texts []string) ([]Prediction, error) {
	output, err := b.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, err
	}

	predictions := make([]Prediction, 0, len(output.ClassificationOutputs))
	for _, classes := range output.ClassificationOutputs {
		if len(classes) == 0 {
			// An empty row surfaces as an unknown label for that input only.
			predictions = append(predictions, Prediction{})
			continue
		}
		best := classes[0]
		for _, c := range classes[1:] {
			if c.Score > best.Score {
				best = c
			}
		}
		predictions = append(predictions, Prediction{Label: best.Label, Score: float64(best.Score)})
	}
	return predictions, nil
}

func (b *HugotBackend) Close() error {
	if b.session == nil {
		return nil
	}
	return b.session.Destroy()
}
