package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillspec/pkg/tools"
)

func TestConsistencyLayerCleanDocument(t *testing.T) {
	findings := runConsistencyLayer(mustParse(t, cleanDocYAML), tools.NewRegistry())
	assert.Empty(t, findings)
}

func TestConsistencyLayerForwardReference(t *testing.T) {
	doc := mustParse(t, `steps:
  - id: b
    action: Combine the partial outputs.
    based_on: [a_output]
  - id: a
    action: Produce the first partial output.
`)
	findings := runConsistencyLayer(doc, tools.NewRegistry())

	require.Len(t, findings, 1)
	assert.Equal(t, CodeConsistencyError, findings[0].Code)
	assert.Equal(t, SeverityError, findings[0].Severity, "forward references are never warnings")
	assert.Equal(t, "steps[0].based_on", findings[0].Path)
	assert.Contains(t, findings[0].Message, "Step 'b' depends on 'a_output'")
	assert.Contains(t, findings[0].Message, "not available at this point")
}

func TestConsistencyLayerSelfReference(t *testing.T) {
	doc := mustParse(t, strings.Replace(cleanDocYAML,
		"  - id: read_changelog\n    action: Read the changelog into memory.\n    tool: Read",
		"  - id: read_changelog\n    action: Read the changelog into memory.\n    tool: Read\n    based_on: [read_changelog_output]", 1))
	findings := runConsistencyLayer(doc, tools.NewRegistry())

	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "Step 'read_changelog' depends on 'read_changelog_output'")
}

func TestConsistencyLayerBasedOnSources(t *testing.T) {
	tests := []struct {
		name string
		dep  string
	}{
		{"earlier step artifact", "read_changelog_output"},
		{"earlier step id", "read_changelog"},
		{"declared input", "changelog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, strings.Replace(cleanDocYAML,
				"based_on: [read_changelog_output]", "based_on: ["+tt.dep+"]", 1))
			findings := runConsistencyLayer(doc, tools.NewRegistry())
			assert.Empty(t, findings)
		})
	}
}

func TestConsistencyLayerUndeclaredExpressionRoot(t *testing.T) {
	doc := mustParse(t, strings.Replace(cleanDocYAML,
		"- len(changelog) > 0", "- len(commits) > 0", 1))
	findings := runConsistencyLayer(doc, tools.NewRegistry())

	require.Len(t, findings, 1)
	assert.Equal(t, CodeConsistencyError, findings[0].Code)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.Equal(t, "preconditions[0]", findings[0].Path)
	assert.Contains(t, findings[0].Message, "undeclared variable 'commits'")
	assert.Contains(t, findings[0].Suggestion, "Declare 'commits'")
	assert.Greater(t, findings[0].Line, 0)
	assert.Greater(t, findings[0].Column, 0)
}

func TestConsistencyLayerBuiltinRoots(t *testing.T) {
	for _, expr := range []string{"now > 0", `env != ""`, `this.mode == "fast"`} {
		doc := mustParse(t, strings.Replace(cleanDocYAML,
			"- len(changelog) > 0", "- "+expr, 1))
		findings := runConsistencyLayer(doc, tools.NewRegistry())
		assert.Empty(t, findings, "expression %q", expr)
	}
}

func TestConsistencyLayerSkipsUnparseableExpressions(t *testing.T) {
	// syntax problems belong to the schema layer
	doc := mustParse(t, strings.Replace(cleanDocYAML,
		"- len(changelog) > 0", "- len(changelog", 1))
	findings := runConsistencyLayer(doc, tools.NewRegistry())
	assert.Empty(t, findings)
}

func TestConsistencyLayerStepArtifactsAreDeclaredRoots(t *testing.T) {
	doc := mustParse(t, strings.Replace(cleanDocYAML,
		"detection: is_empty(changelog)", "detection: is_empty(notes_file)", 1))
	findings := runConsistencyLayer(doc, tools.NewRegistry())
	assert.Empty(t, findings, "produces names are valid expression roots")
}

func TestConsistencyLayerUnknownToolWarns(t *testing.T) {
	doc := mustParse(t, strings.Replace(cleanDocYAML, "tool: Write", "tool: Wrlte", 1))
	findings := runConsistencyLayer(doc, tools.NewRegistry())

	require.Len(t, findings, 1)
	assert.Equal(t, SeverityWarning, findings[0].Severity, "unknown tools never block")
	assert.Equal(t, "steps[1].tool", findings[0].Path)
	assert.Contains(t, findings[0].Message, `binds unknown tool "Wrlte"`)
	assert.Equal(t, `Did you mean "Write"?`, findings[0].Suggestion)
}

func TestConsistencyLayerWorksWithExternalSkill(t *testing.T) {
	doc := mustParse(t, strings.Replace(cleanDocYAML,
		"- skill: Read", "- skill: extract-api-contract", 1))
	findings := runConsistencyLayer(doc, tools.NewRegistry())

	require.Len(t, findings, 1)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
	assert.Equal(t, "context.works_with[0]", findings[0].Path)
	assert.Contains(t, findings[0].Message, "external skill")
	assert.Empty(t, findings[0].Suggestion, "nothing close in the registry")
}
