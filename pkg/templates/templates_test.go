package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillspec/pkg/i18n"
)

func TestRenderBuiltinSpec(t *testing.T) {
	p, err := NewProcessor()
	require.NoError(t, err)

	out, err := p.Render(context.Background(), SpecTemplate, DefaultData("summarize-changelog"))
	require.NoError(t, err)

	assert.Contains(t, out, `name: "summarize-changelog"`)
	assert.Contains(t, out, `version: "1.0.0"`)
	assert.Contains(t, out, `owner: "TODO-team-name"`)
	assert.Contains(t, out, `spec_version: "skill-spec/1.0"`)

	// The scaffold must at least be well-formed YAML.
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	for _, section := range []string{
		"skill", "inputs", "preconditions", "non_goals",
		"decision_rules", "steps", "output_contract", "failure_modes", "edge_cases",
	} {
		assert.Contains(t, doc, section)
	}
}

func TestRenderBuiltinCompanion(t *testing.T) {
	p, err := NewProcessor()
	require.NoError(t, err)

	out, err := p.Render(context.Background(), CompanionTemplate, DefaultData("summarize-changelog"))
	require.NoError(t, err)

	assert.Contains(t, out, "name: summarize-changelog")
	assert.Contains(t, out, "# summarize-changelog")
	assert.Contains(t, out, "## Purpose")
	assert.Contains(t, out, "## Output Contract")
	assert.Contains(t, out, "## Failure Modes")
}

func TestRenderCompanionChineseHeadings(t *testing.T) {
	p, err := NewProcessor(WithLocale(i18n.LocaleChinese))
	require.NoError(t, err)

	out, err := p.Render(context.Background(), CompanionTemplate, DefaultData("summarize-changelog"))
	require.NoError(t, err)

	assert.Contains(t, out, "## 目的")
	assert.Contains(t, out, "## 输出契约")
	assert.NotContains(t, out, "## Purpose")
}

func TestRenderWorkspaceOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, SpecTemplate),
		[]byte("skill:\n  name: {{.Name}}\n"),
		0o644,
	))

	p, err := NewProcessor(WithTemplateDirs(dir))
	require.NoError(t, err)

	out, err := p.Render(context.Background(), SpecTemplate, DefaultData("my-skill"))
	require.NoError(t, err)
	assert.Equal(t, "skill:\n  name: my-skill\n", out)

	// Templates absent from the override directory still resolve to built-ins.
	out, err = p.Render(context.Background(), CompanionTemplate, DefaultData("my-skill"))
	require.NoError(t, err)
	assert.Contains(t, out, "## Purpose")
}

func TestRenderUnknownTemplate(t *testing.T) {
	p, err := NewProcessor()
	require.NoError(t, err)

	_, err = p.Render(context.Background(), "bogus.yaml", DefaultData("my-skill"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRenderMalformedTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, SpecTemplate),
		[]byte("name: {{.Unclosed\n"),
		0o644,
	))

	p, err := NewProcessor(WithTemplateDirs(dir))
	require.NoError(t, err)

	_, err = p.Render(context.Background(), SpecTemplate, DefaultData("my-skill"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}

func TestWithTemplateDirsRequiresDirs(t *testing.T) {
	_, err := NewProcessor(WithTemplateDirs())
	require.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SpecTemplate), []byte("x"), 0o644))

	p, err := NewProcessor(WithTemplateDirs(dir))
	require.NoError(t, err)

	assert.Equal(t, []string{CompanionTemplate, "notes.md", SpecTemplate}, p.List())
}

func TestListBuiltinsOnly(t *testing.T) {
	p, err := NewProcessor()
	require.NoError(t, err)

	assert.Equal(t, []string{CompanionTemplate, SpecTemplate}, p.List())
}
