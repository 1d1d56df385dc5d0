// Package report parses the external site generator's machine-readable build
// report so the build-finalize step can derive metrics and health status from
// it. The schema matches the generator's build-report.json output.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"git.home.luguber.info/inful/pubctl/internal/metrics"
)

// BuildReport is the parsed generator report. Unknown fields are ignored so
// newer generators with additive schemas keep working.
type BuildReport struct {
	SchemaVersion int       `json:"schema_version"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Errors        []string  `json:"errors"`
	Warnings      []string  `json:"warnings"`
	RenderedPages int       `json:"rendered_pages"`
	Outcome       string    `json:"outcome"`
}

// ParseFile reads and decodes a build report from disk.
func ParseFile(path string) (*BuildReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read build report: %w", err)
	}
	var r BuildReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode build report %q: %w", path, err)
	}
	return &r, nil
}

// Duration returns the wall-clock build time recorded by the generator.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() || r.Start.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// OutcomeLabel maps the report outcome onto the metrics label set. A report
// with no explicit outcome derives it from the error and warning counts.
func (r *BuildReport) OutcomeLabel() metrics.OutcomeLabel {
	switch r.Outcome {
	case "success":
		return metrics.OutcomeSuccess
	case "warning":
		return metrics.OutcomeWarning
	case "failed", "canceled":
		return metrics.OutcomeFailed
	}
	if len(r.Errors) > 0 {
		return metrics.OutcomeFailed
	}
	if len(r.Warnings) > 0 {
		return metrics.OutcomeWarning
	}
	return metrics.OutcomeSuccess
}

// Record forwards the report's observations to a metrics recorder.
func (r *BuildReport) Record(rec metrics.Recorder) {
	rec.IncBuildOutcome(r.OutcomeLabel())
	if d := r.Duration(); d > 0 {
		rec.ObserveBuildDuration(d)
	}
}
