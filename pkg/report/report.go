// Package report renders validation reports as text, markdown or JSON and
// computes the derived scores (coverage percentages, severity-weighted
// quality score) that the raw layer results do not carry.
package report

import (
	"time"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/validator"
)

// Quality score penalties per finding severity. The score starts at 100
// and never drops below zero.
const (
	errorPenalty   = 10
	warningPenalty = 3
)

// Scores aggregates the numbers shown in report summaries.
type Scores struct {
	RuleCoveragePct    float64        `json:"rule_coverage_pct"`
	FailureCoveragePct float64        `json:"failure_coverage_pct"`
	QualityScore       float64        `json:"quality_score"`
	CategoryCounts     map[string]int `json:"category_counts,omitempty"`
}

// Compute derives scores from a finished report. Coverage percentages come
// from the coverage layer; runs that aborted before it report zero. The
// quality score weighs the quality layer's findings by severity.
func Compute(rep *validator.Report) Scores {
	scores := Scores{
		QualityScore:   100,
		CategoryCounts: map[string]int{},
	}

	if cov := rep.Layer(validator.LayerCoverage); cov != nil {
		if cov.RuleCoveragePct != nil {
			scores.RuleCoveragePct = *cov.RuleCoveragePct
		}
		if cov.FailureCoveragePct != nil {
			scores.FailureCoveragePct = *cov.FailureCoveragePct
		}
	}

	if quality := rep.Layer(validator.LayerQuality); quality != nil {
		for _, f := range quality.Findings {
			if f.Category != "" {
				scores.CategoryCounts[f.Category]++
			}
			if f.IsError() {
				scores.QualityScore -= errorPenalty
			} else {
				scores.QualityScore -= warningPenalty
			}
		}
	}
	if scores.QualityScore < 0 {
		scores.QualityScore = 0
	}
	return scores
}

// History summarizes earlier validation runs of the same skill, attached to
// a report when diary evidence is requested.
type History struct {
	Runs        int       `json:"runs"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	LastVerdict string    `json:"last_verdict,omitempty"`
	LastRunAt   time.Time `json:"last_run_at"`
}

// Payload is the renderable unit: the full validation report, its derived
// scores and optional run history. The same payload backs every output
// format, so text, markdown and JSON never disagree.
type Payload struct {
	*validator.Report
	Scores  Scores   `json:"scores"`
	History *History `json:"history,omitempty"`
}

// NewPayload computes scores for a report. Attach History by setting the
// field on the returned value.
func NewPayload(rep *validator.Report) Payload {
	return Payload{Report: rep, Scores: Compute(rep)}
}

// Renderer turns payloads into report documents. The zero options render
// English using the built-in message catalog.
type Renderer struct {
	catalog *i18n.Catalog
	locale  string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCatalog uses a workspace message catalog instead of the built-ins.
func WithCatalog(catalog *i18n.Catalog) Option {
	return func(r *Renderer) {
		if catalog != nil {
			r.catalog = catalog
		}
	}
}

// WithLocale sets the report locale.
func WithLocale(locale string) Option {
	return func(r *Renderer) {
		if locale != "" {
			r.locale = locale
		}
	}
}

// NewRenderer constructs a renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		catalog: i18n.NewCatalog(""),
		locale:  i18n.DefaultLocale,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) msg(key string, args i18n.Args) string {
	return r.catalog.Get(r.locale, key, args)
}
