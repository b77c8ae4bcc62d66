package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillspec/pkg/policy"
)

func mustParsePolicy(t *testing.T, source string) *policy.Set {
	t.Helper()
	set, err := policy.Parse([]byte(source))
	require.NoError(t, err)
	return set
}

func TestComplianceLayerNoPolicies(t *testing.T) {
	findings := runComplianceLayer(mustParse(t, cleanDocYAML), nil, CoverageStats{RulePct: 100, FailurePct: 100})
	assert.Empty(t, findings)
}

func TestComplianceLayerViolations(t *testing.T) {
	set := mustParsePolicy(t, `policy:
  name: docs-platform-baseline
  version: 1.0.0
rules:
  - id: min_edge_cases
    require: counts.edge_cases >= 3
    severity: warning
    message: Document at least three edge cases.
  - id: no_bash_steps
    forbid: contains(steps.tools, "Bash")
  - id: full_rule_coverage
    require: coverage.rule_pct >= 100
`)

	findings := runComplianceLayer(mustParse(t, cleanDocYAML), []*policy.Set{set},
		CoverageStats{RulePct: 100, FailurePct: 100})

	require.Len(t, findings, 1)
	assert.Equal(t, LayerCompliance, findings[0].Layer)
	assert.Equal(t, CodeComplianceViolation, findings[0].Code)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
	assert.Equal(t, "docs-platform-baseline: min_edge_cases", findings[0].Path)
	assert.Equal(t, "Document at least three edge cases.", findings[0].Message)
}

func TestComplianceLayerDefaultMessageAndSeverity(t *testing.T) {
	set := mustParsePolicy(t, `policy:
  name: ops-baseline
rules:
  - id: enough_steps
    require: counts.steps >= 5
`)

	findings := runComplianceLayer(mustParse(t, cleanDocYAML), []*policy.Set{set}, CoverageStats{})

	require.Len(t, findings, 1)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.Equal(t, "required condition does not hold: counts.steps >= 5", findings[0].Message)
}

func TestComplianceLayerUsesCoverageStats(t *testing.T) {
	set := mustParsePolicy(t, `policy:
  name: coverage-floor
rules:
  - id: failure_coverage_floor
    require: coverage.failure_pct >= 80
`)

	findings := runComplianceLayer(mustParse(t, cleanDocYAML), []*policy.Set{set},
		CoverageStats{RulePct: 100, FailurePct: 50})

	require.Len(t, findings, 1)
	assert.Equal(t, "coverage-floor: failure_coverage_floor", findings[0].Path)

	findings = runComplianceLayer(mustParse(t, cleanDocYAML), []*policy.Set{set},
		CoverageStats{RulePct: 100, FailurePct: 100})
	assert.Empty(t, findings)
}

func TestComplianceLayerBrokenPolicyScopedAndSkipped(t *testing.T) {
	set := mustParsePolicy(t, `policy:
  version: 1.0.0
rules:
  - id: broken_rule
    require: len(
`)

	findings := runComplianceLayer(mustParse(t, cleanDocYAML), []*policy.Set{set}, CoverageStats{})

	require.Len(t, findings, 2)
	assert.Equal(t, CodeSchemaError, findings[0].Code)
	assert.Equal(t, "policy: policy.name", findings[0].Path)
	assert.Equal(t, SeverityError, findings[0].Severity)

	assert.Equal(t, CodeExpressionSyntaxError, findings[1].Code)
	assert.Equal(t, "policy: rules[0].require", findings[1].Path)

	for _, f := range findings {
		assert.NotEqual(t, CodeMalformedDocument, f.Code,
			"policy problems never abort the document run")
		assert.NotEqual(t, CodeComplianceViolation, f.Code,
			"a broken set is not evaluated")
	}
}

func TestComplianceLayerEvalFaults(t *testing.T) {
	set := mustParsePolicy(t, `policy:
  name: review-policy
rules:
  - id: needs_reviewers
    require: counts.reviewers > 0
`)

	findings := runComplianceLayer(mustParse(t, cleanDocYAML), []*policy.Set{set}, CoverageStats{})

	require.Len(t, findings, 1)
	assert.Equal(t, CodeTypeMismatch, findings[0].Code)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
	assert.Equal(t, "review-policy: needs_reviewers.require", findings[0].Path)
	assert.Contains(t, findings[0].Message, "Rule not evaluated:")
}

func TestComplianceLayerMultiplePolicySets(t *testing.T) {
	first := mustParsePolicy(t, `policy:
  name: baseline
rules:
  - id: enough_inputs
    require: counts.inputs >= 1
`)
	second := mustParsePolicy(t, `policy:
  name: hardening
rules:
  - id: no_write_steps
    forbid: contains(steps.tools, "Write")
    severity: warning
`)

	findings := runComplianceLayer(mustParse(t, cleanDocYAML),
		[]*policy.Set{first, second}, CoverageStats{})

	require.Len(t, findings, 1, "baseline passes, hardening flags the Write step")
	assert.Equal(t, "hardening: no_write_steps", findings[0].Path)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
}
