package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/validator"
)

// JSON renders the payload as indented JSON.
func (r *Renderer) JSON(p Payload) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode report")
	}
	return data, nil
}

// Markdown renders the payload as a standalone markdown document with one
// section per layer plus scores and optional history.
func (r *Renderer) Markdown(p Payload) string {
	var b strings.Builder

	title := "Validation Report"
	if p.Skill != "" {
		title += ": " + p.Skill
		if p.Version != "" {
			title += " " + p.Version
		}
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**%s**\n\n", r.msg("report.verdict."+p.Verdict, nil))

	fmt.Fprintf(&b, "- Run ID: `%s`\n", p.RunID)
	fmt.Fprintf(&b, "- Mode: %s\n", p.Mode)
	if p.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", p.Source)
	}
	fmt.Fprintf(&b, "- %s\n", r.msg("report.summary.errors", i18n.Args{"count": p.Errors}))
	fmt.Fprintf(&b, "- %s\n", r.msg("report.summary.warnings", i18n.Args{"count": p.Warnings}))
	fmt.Fprintf(&b, "- %s\n", r.msg("report.summary.duration",
		i18n.Args{"duration": p.Duration.Round(time.Millisecond)}))
	b.WriteString("\n")

	for _, layer := range p.Layers {
		fmt.Fprintf(&b, "## %s\n\n", r.msg("report.layer."+layer.Name, nil))
		if len(layer.Findings) == 0 {
			fmt.Fprintf(&b, "%s\n\n", r.msg("report.no_findings", nil))
			continue
		}
		b.WriteString("| Severity | Code | Path | Line | Message |\n")
		b.WriteString("|----------|------|------|------|---------|\n")
		for _, f := range layer.Findings {
			line := ""
			if f.Line > 0 {
				line = fmt.Sprintf("%d", f.Line)
			}
			message := f.Message
			if f.Suggestion != "" {
				message += " " + r.msg("report.suggestion", i18n.Args{"fix": f.Suggestion})
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				f.Severity, f.Code, cell(f.Path), line, cell(message))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Scores\n\n")
	if p.Layer(validator.LayerCoverage) != nil {
		fmt.Fprintf(&b, "- %s\n", r.msg("report.summary.rule_coverage",
			i18n.Args{"pct": formatPct(p.Scores.RuleCoveragePct)}))
		fmt.Fprintf(&b, "- %s\n", r.msg("report.summary.failure_coverage",
			i18n.Args{"pct": formatPct(p.Scores.FailureCoveragePct)}))
	}
	fmt.Fprintf(&b, "- %s\n", r.msg("report.summary.quality_score",
		i18n.Args{"score": formatPct(p.Scores.QualityScore)}))
	for _, entry := range sortedCounts(p.Scores.CategoryCounts) {
		fmt.Fprintf(&b, "- %s: %d\n", entry.category, entry.count)
	}
	b.WriteString("\n")

	if p.History != nil {
		fmt.Fprintf(&b, "## %s\n\n", r.msg("diary.title", nil))
		if p.History.Runs == 0 {
			fmt.Fprintf(&b, "%s\n", r.msg("diary.no_runs", nil))
		} else {
			fmt.Fprintf(&b, "- %s\n", r.msg("diary.runs", i18n.Args{"count": p.History.Runs}))
			fmt.Fprintf(&b, "- %s\n", r.msg("diary.passes", i18n.Args{"count": p.History.Passed}))
			fmt.Fprintf(&b, "- %s\n", r.msg("diary.failures", i18n.Args{"count": p.History.Failed}))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// cell escapes pipes so finding text cannot break the markdown table.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

type categoryCount struct {
	category string
	count    int
}

func sortedCounts(counts map[string]int) []categoryCount {
	entries := make([]categoryCount, 0, len(counts))
	for category, count := range counts {
		entries = append(entries, categoryCount{category, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].category < entries[j].category
	})
	return entries
}
