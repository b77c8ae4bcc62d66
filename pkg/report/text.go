package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/validator"
)

// Text renders the payload for terminal output. Coloring is left to the
// caller; the renderer emits plain text.
func (r *Renderer) Text(p Payload) string {
	var b strings.Builder

	b.WriteString(r.msg("report.verdict."+p.Verdict, nil))
	if p.Skill != "" {
		b.WriteString(": " + p.Skill)
		if p.Version != "" {
			b.WriteString(" " + p.Version)
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Run %s (%s mode)\n\n", p.RunID, p.Mode)

	for _, layer := range p.Layers {
		title := r.msg("report.layer."+layer.Name, nil)
		if len(layer.Findings) == 0 {
			fmt.Fprintf(&b, "%s: %s\n", title, r.msg("report.no_findings", nil))
			continue
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, f := range layer.Findings {
			fmt.Fprintf(&b, "  %s\n", f.String())
		}
	}

	b.WriteString("\n" + r.msg("report.summary.title", nil) + "\n")
	fmt.Fprintf(&b, "  %s\n", r.msg("report.summary.errors", i18n.Args{"count": p.Errors}))
	fmt.Fprintf(&b, "  %s\n", r.msg("report.summary.warnings", i18n.Args{"count": p.Warnings}))
	if p.Layer(validator.LayerCoverage) != nil {
		fmt.Fprintf(&b, "  %s\n", r.msg("report.summary.rule_coverage",
			i18n.Args{"pct": formatPct(p.Scores.RuleCoveragePct)}))
		fmt.Fprintf(&b, "  %s\n", r.msg("report.summary.failure_coverage",
			i18n.Args{"pct": formatPct(p.Scores.FailureCoveragePct)}))
	}
	fmt.Fprintf(&b, "  %s\n", r.msg("report.summary.quality_score",
		i18n.Args{"score": formatPct(p.Scores.QualityScore)}))
	fmt.Fprintf(&b, "  %s\n", r.msg("report.summary.duration",
		i18n.Args{"duration": p.Duration.Round(time.Millisecond)}))

	if p.History != nil {
		b.WriteString("\n" + r.msg("diary.title", nil) + "\n")
		if p.History.Runs == 0 {
			fmt.Fprintf(&b, "  %s\n", r.msg("diary.no_runs", nil))
		} else {
			fmt.Fprintf(&b, "  %s\n", r.msg("diary.runs", i18n.Args{"count": p.History.Runs}))
			fmt.Fprintf(&b, "  %s\n", r.msg("diary.passes", i18n.Args{"count": p.History.Passed}))
			fmt.Fprintf(&b, "  %s\n", r.msg("diary.failures", i18n.Args{"count": p.History.Failed}))
		}
	}

	return b.String()
}

// formatPct renders a percentage or score without a trailing ".0" for
// whole numbers.
func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
