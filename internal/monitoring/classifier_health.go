package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/ytsentiment/internal/sentiment"
)

const (
	HEALTHCHECK_INTERVAL = 15 * time.Second
	PROBE_TEXT           = "This video was great, thanks for sharing!"
)

// Probe is the part of the classifier the monitor exercises.
type Probe interface {
	Model() string
	Loaded() bool
	Classify(text string) sentiment.Outcome
}

// ClassifierMonitor periodically classifies a fixed text and remembers
// whether the model answered with a usable outcome.
type ClassifierMonitor struct {
	probe    Probe
	interval time.Duration
	healthy  atomic.Bool
}

func NewClassifierMonitor(probe Probe, interval time.Duration) *ClassifierMonitor {
	if interval <= 0 {
		interval = HEALTHCHECK_INTERVAL
	}
	return &ClassifierMonitor{probe: probe, interval: interval}
}

func (m *ClassifierMonitor) Model() string { return m.probe.Model() }
func (m *ClassifierMonitor) Loaded() bool  { return m.probe.Loaded() }
func (m *ClassifierMonitor) Healthy() bool { return m.healthy.Load() }

// Check runs one probe and records the result.
func (m *ClassifierMonitor) Check() bool {
	if !m.probe.Loaded() {
		m.healthy.Store(false)
		return false
	}

	outcome := m.probe.Classify(PROBE_TEXT)
	m.healthy.Store(outcome.OK())
	if !outcome.OK() {
		slog.Warn("[HealthCheck] Classifier is unhealthy",
			slog.String("model", m.probe.Model()),
			slog.String("error", outcome.Err.Error()))
	}
	return outcome.OK()
}

// Run checks once immediately and then on every tick until ctx is done.
func (m *ClassifierMonitor) Run(ctx context.Context) {
	m.Check()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check()
		}
	}
}
