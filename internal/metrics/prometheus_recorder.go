package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stepDuration  *prom.HistogramVec
	stepResults   *prom.CounterVec
	buildOutcome  *prom.CounterVec
	buildDuration prom.Histogram
	hookCounts    *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "pubctl",
		Name:      "step_duration_seconds",
		Help:      "Duration of individual lifecycle steps",
		Buckets:   prom.DefBuckets,
	}, []string{"step"})
	pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "pubctl",
		Name:      "step_results_total",
		Help:      "Lifecycle step result counts by outcome",
	}, []string{"step", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "pubctl",
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "pubctl",
		Name:      "build_duration_seconds",
		Help:      "Total build duration as reported by the generator",
		Buckets:   prom.DefBuckets,
	})
	pr.hookCounts = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "pubctl",
		Name:      "hooks",
		Help:      "Registered hook counts by validity",
	}, []string{"validity"})
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.buildOutcome, pr.buildDuration, pr.hookCounts)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, success bool) {
	if p == nil || p.stepResults == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	p.stepResults.WithLabelValues(step, result).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome OutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetHookCounts(valid, invalid int) {
	if p == nil || p.hookCounts == nil {
		return
	}
	p.hookCounts.WithLabelValues("valid").Set(float64(valid))
	p.hookCounts.WithLabelValues("invalid").Set(float64(invalid))
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

// WriteTextfile exports all gathered metrics in the Prometheus text exposition
// format to the given path (node-exporter textfile collector convention).
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.registry == nil {
		return nil
	}
	families, err := p.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics textfile: %w", err)
	}
	defer f.Close()
	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return fmt.Errorf("encode metric family %q: %w", fam.GetName(), err)
		}
	}
	return nil
}
