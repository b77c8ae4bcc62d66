package validator

import (
	"time"
)

// Verdicts.
const (
	VerdictPass             = "pass"
	VerdictPassWithWarnings = "pass_with_warnings"
	VerdictFail             = "fail"
)

// LayerResult is the outcome of one validation layer. Passed means the layer
// produced no error-severity findings; it is independent of the mode.
type LayerResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Findings []Finding     `json:"findings,omitempty"`
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
	Duration time.Duration `json:"duration_ns"`

	// RuleCoveragePct and FailureCoveragePct are populated by the coverage
	// layer only.
	RuleCoveragePct    *float64 `json:"rule_coverage_pct,omitempty"`
	FailureCoveragePct *float64 `json:"failure_coverage_pct,omitempty"`
}

func newLayerResult(name string, findings []Finding, started time.Time) LayerResult {
	res := LayerResult{
		Name:     name,
		Findings: findings,
		Duration: time.Since(started),
	}
	for _, f := range findings {
		if f.IsError() {
			res.Errors++
		} else {
			res.Warnings++
		}
	}
	res.Passed = res.Errors == 0
	return res
}

// Report is the aggregated result of a validation run. The findings and the
// per-layer summaries are identical across modes; only Verdict (and the
// blocking count backing it) depends on Mode.
type Report struct {
	RunID     string        `json:"run_id"`
	Skill     string        `json:"skill,omitempty"`
	Version   string        `json:"version,omitempty"`
	Source    string        `json:"source,omitempty"`
	Mode      Mode          `json:"mode"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Layers    []LayerResult `json:"layers"`
	Verdict   string        `json:"verdict"`
	Blocking  int           `json:"blocking"`
	Errors    int           `json:"errors"`
	Warnings  int           `json:"warnings"`
}

// Findings returns every finding of every layer, in layer execution order.
func (r *Report) Findings() []Finding {
	var all []Finding
	for _, layer := range r.Layers {
		all = append(all, layer.Findings...)
	}
	return all
}

// Layer returns the named layer result, or nil if the layer did not run.
func (r *Report) Layer(name string) *LayerResult {
	for i := range r.Layers {
		if r.Layers[i].Name == name {
			return &r.Layers[i]
		}
	}
	return nil
}

// CountsByCode tallies findings per code across all layers.
func (r *Report) CountsByCode() map[string]int {
	counts := map[string]int{}
	for _, f := range r.Findings() {
		counts[f.Code]++
	}
	return counts
}

// Failed reports whether the run's verdict is fail.
func (r *Report) Failed() bool {
	return r.Verdict == VerdictFail
}

// finish computes totals and the verdict under the report's mode.
func (r *Report) finish(started time.Time) {
	r.Duration = time.Since(started)
	r.Blocking = 0
	r.Errors = 0
	r.Warnings = 0

	total := 0
	for _, layer := range r.Layers {
		r.Errors += layer.Errors
		r.Warnings += layer.Warnings
		for _, f := range layer.Findings {
			total++
			if Blocks(f, r.Mode) {
				r.Blocking++
			}
		}
	}

	switch {
	case r.Blocking > 0:
		r.Verdict = VerdictFail
	case total > 0:
		r.Verdict = VerdictPassWithWarnings
	default:
		r.Verdict = VerdictPass
	}
}
