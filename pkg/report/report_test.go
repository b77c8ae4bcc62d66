package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/validator"
)

func sampleReport() *validator.Report {
	rulePct := 100.0
	failurePct := 50.0
	return &validator.Report{
		RunID:    "run-123",
		Skill:    "summarize-changelog",
		Version:  "1.4.0",
		Source:   "skills/summarize-changelog/spec.yaml",
		Mode:     validator.ModeBasic,
		Duration: 12 * time.Millisecond,
		Verdict:  validator.VerdictPassWithWarnings,
		Warnings: 2,
		Layers: []validator.LayerResult{
			{Name: validator.LayerSchema, Passed: true},
			{Name: validator.LayerQuality, Passed: true, Warnings: 2, Findings: []validator.Finding{
				{
					Layer: validator.LayerQuality, Code: validator.CodeQualityWarning,
					Severity: validator.SeverityWarning, Path: "steps[0].action",
					Category: "VAGUE_ACTION", Line: 33, Column: 13,
					Message:    `Vague action "handle"`,
					Suggestion: "Say what handling means here",
				},
				{
					Layer: validator.LayerQuality, Code: validator.CodeQualityWarning,
					Severity: validator.SeverityWarning, Path: "skill.purpose",
					Category: "HEDGE_WORDS", Line: 5, Column: 3,
					Message:    `Hedge word "might"`,
					Suggestion: "State the definite outcome",
				},
			}},
			{Name: validator.LayerCoverage, Passed: true, RuleCoveragePct: &rulePct, FailureCoveragePct: &failurePct},
			{Name: validator.LayerConsistency, Passed: true},
			{Name: validator.LayerCompliance, Passed: true},
		},
	}
}

func TestComputeScores(t *testing.T) {
	scores := Compute(sampleReport())

	assert.Equal(t, 100.0, scores.RuleCoveragePct)
	assert.Equal(t, 50.0, scores.FailureCoveragePct)
	assert.Equal(t, 94.0, scores.QualityScore, "two warnings cost three points each")
	assert.Equal(t, map[string]int{"VAGUE_ACTION": 1, "HEDGE_WORDS": 1}, scores.CategoryCounts)
}

func TestComputeScoresFloorsAtZero(t *testing.T) {
	rep := sampleReport()
	var findings []validator.Finding
	for i := 0; i < 11; i++ {
		findings = append(findings, validator.Finding{
			Layer: validator.LayerQuality, Code: validator.CodeQualityWarning,
			Severity: validator.SeverityError, Category: "WEAK_VERBS",
		})
	}
	rep.Layers[1].Findings = findings

	scores := Compute(rep)
	assert.Equal(t, 0.0, scores.QualityScore)
	assert.Equal(t, 11, scores.CategoryCounts["WEAK_VERBS"])
}

func TestComputeScoresWithoutCoverageLayer(t *testing.T) {
	rep := &validator.Report{
		Verdict: validator.VerdictFail,
		Layers: []validator.LayerResult{
			{Name: validator.LayerSchema, Findings: []validator.Finding{
				{Layer: validator.LayerSchema, Code: validator.CodeMalformedDocument,
					Severity: validator.SeverityError, Message: "Document is not valid YAML"},
			}},
		},
	}

	scores := Compute(rep)
	assert.Equal(t, 0.0, scores.RuleCoveragePct)
	assert.Equal(t, 0.0, scores.FailureCoveragePct)
	assert.Equal(t, 100.0, scores.QualityScore)
	assert.Empty(t, scores.CategoryCounts)
}

func TestTextRendering(t *testing.T) {
	out := NewRenderer().Text(NewPayload(sampleReport()))

	assert.Contains(t, out, "Validation PASSED with warnings: summarize-changelog 1.4.0")
	assert.Contains(t, out, "Run run-123 (basic mode)")
	assert.Contains(t, out, "Schema Validation: No findings")
	assert.Contains(t, out, "Quality Analysis:")
	assert.Contains(t, out, "[quality] WARNING QUALITY_WARNING at steps[0].action (line 33)")
	assert.Contains(t, out, "Errors: 0")
	assert.Contains(t, out, "Warnings: 2")
	assert.Contains(t, out, "Rule Coverage: 100%")
	assert.Contains(t, out, "Failure Coverage: 50%")
	assert.Contains(t, out, "Quality Score: 94/100")
	assert.Contains(t, out, "Completed in 12ms")
	assert.NotContains(t, out, "Validation History")
}

func TestTextChineseLocale(t *testing.T) {
	out := NewRenderer(WithLocale(i18n.LocaleChinese)).Text(NewPayload(sampleReport()))

	assert.Contains(t, out, "验证通过（有警告）: summarize-changelog 1.4.0")
	assert.Contains(t, out, "质量分析:")
	assert.Contains(t, out, "规则覆盖率: 100%")
}

func TestTextHistory(t *testing.T) {
	payload := NewPayload(sampleReport())
	payload.History = &History{Runs: 3, Passed: 2, Failed: 1, LastVerdict: "pass"}

	out := NewRenderer().Text(payload)

	assert.Contains(t, out, "Validation History")
	assert.Contains(t, out, "Runs: 3")
	assert.Contains(t, out, "Passed: 2")
	assert.Contains(t, out, "Failed: 1")
}

func TestTextHistoryWithoutRuns(t *testing.T) {
	payload := NewPayload(sampleReport())
	payload.History = &History{}

	out := NewRenderer().Text(payload)
	assert.Contains(t, out, "No recorded runs")
}

func TestMarkdownRendering(t *testing.T) {
	out := NewRenderer().Markdown(NewPayload(sampleReport()))

	assert.Contains(t, out, "# Validation Report: summarize-changelog 1.4.0")
	assert.Contains(t, out, "**Validation PASSED with warnings**")
	assert.Contains(t, out, "- Run ID: `run-123`")
	assert.Contains(t, out, "## Quality Analysis")
	assert.Contains(t, out, "| Severity | Code | Path | Line | Message |")
	assert.Contains(t, out, `| warning | QUALITY_WARNING | steps[0].action | 33 | Vague action "handle" Suggestion: Say what handling means here |`)
	assert.Contains(t, out, "## Scores")
	assert.Contains(t, out, "- HEDGE_WORDS: 1")
	assert.Contains(t, out, "- VAGUE_ACTION: 1")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	rep := sampleReport()
	rep.Layers[1].Findings[0].Message = "either | or"
	rep.Layers[1].Findings[0].Suggestion = ""

	out := NewRenderer().Markdown(NewPayload(rep))
	assert.Contains(t, out, `either \| or`)
}

func TestJSONPayload(t *testing.T) {
	data, err := NewRenderer().JSON(NewPayload(sampleReport()))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "run-123", decoded["run_id"])
	assert.Equal(t, "pass_with_warnings", decoded["verdict"])
	assert.NotContains(t, decoded, "history")

	scores, ok := decoded["scores"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 94.0, scores["quality_score"])
	assert.Equal(t, 100.0, scores["rule_coverage_pct"])

	layers, ok := decoded["layers"].([]any)
	require.True(t, ok)
	assert.Len(t, layers, 5)
}

func TestRendererWithWorkspaceCatalog(t *testing.T) {
	dir := t.TempDir()
	override := "report:\n  verdict:\n    pass_with_warnings: \"Custom verdict\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte(override), 0o644))

	renderer := NewRenderer(WithCatalog(i18n.NewCatalog(dir)))
	out := renderer.Text(NewPayload(sampleReport()))

	assert.Contains(t, out, "Custom verdict: summarize-changelog")
}