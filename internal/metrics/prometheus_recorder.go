package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	buildDuration *prom.HistogramVec
	stepDuration  *prom.HistogramVec
	buildOutcome  *prom.CounterVec
	purgedBytes   *prom.CounterVec
	retries       *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the pre-build metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "prebuild",
		Name:      "build_duration_seconds",
		Help:      "Total pre-build duration per target",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"target"})
	pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "prebuild",
		Name:      "step_duration_seconds",
		Help:      "Duration of individual pre-build steps",
		Buckets:   prom.DefBuckets,
	}, []string{"step"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "prebuild",
		Name:      "build_outcomes_total",
		Help:      "Pre-build outcomes by final status",
	}, []string{"target", "outcome"})
	pr.purgedBytes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "prebuild",
		Name:      "purged_bytes_total",
		Help:      "Bytes of stale artifacts removed",
	}, []string{"target"})
	pr.retries = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "prebuild",
		Name:      "build_retries_total",
		Help:      "Build command re-invocations after a failure",
	}, []string{"target"})
	reg.MustRegister(pr.buildDuration, pr.stepDuration, pr.buildOutcome, pr.purgedBytes, pr.retries)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(target string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(target string, outcome OutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(target, string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPurgedBytes(target string, n int64) {
	if p == nil || p.purgedBytes == nil || n <= 0 {
		return
	}
	p.purgedBytes.WithLabelValues(target).Add(float64(n))
}

func (p *PrometheusRecorder) IncBuildRetry(target string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(target).Inc()
}

// Registry exposes the underlying registry for gathering.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

// WriteTextfile writes all registered metrics to path in the text exposition
// format, atomically, for the node_exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
