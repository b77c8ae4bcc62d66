package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillspec/pkg/expr"
	"github.com/jingkaihe/skillspec/pkg/skill"
)

func TestResolveConfigValidate(t *testing.T) {
	tests := []struct {
		name          string
		config        *ResolveConfig
		expectedError string
	}{
		{
			name:   "text format",
			config: &ResolveConfig{Format: "text"},
		},
		{
			name:   "json format",
			config: &ResolveConfig{Format: "json"},
		},
		{
			name:          "unknown format",
			config:        &ResolveConfig{Format: "yaml"},
			expectedError: "invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseInputAssignments(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []string
		expected expr.Env
	}{
		{
			name:     "plain string",
			inputs:   []string{"format=pdf"},
			expected: expr.Env{"format": "pdf"},
		},
		{
			name:     "number",
			inputs:   []string{"count=3"},
			expected: expr.Env{"count": float64(3)},
		},
		{
			name:     "boolean",
			inputs:   []string{"dry_run=true"},
			expected: expr.Env{"dry_run": true},
		},
		{
			name:     "json list",
			inputs:   []string{`tags=["a","b"]`},
			expected: expr.Env{"tags": []any{"a", "b"}},
		},
		{
			name:     "quoted string keeps spaces",
			inputs:   []string{`message="hello world"`},
			expected: expr.Env{"message": "hello world"},
		},
		{
			name:     "value containing equals",
			inputs:   []string{"query=a=b"},
			expected: expr.Env{"query": "a=b"},
		},
		{
			name:     "multiple assignments",
			inputs:   []string{"format=pdf", "count=2"},
			expected: expr.Env{"format": "pdf", "count": float64(2)},
		},
		{
			name:     "no assignments",
			inputs:   nil,
			expected: expr.Env{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := parseInputAssignments(tt.inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, env)
		})
	}
}

func TestParseInputAssignmentsErrors(t *testing.T) {
	for _, input := range []string{"no-equals", "=value"} {
		_, err := parseInputAssignments([]string{input})
		assert.Error(t, err, input)
		assert.Contains(t, err.Error(), "name=value")
	}
}

func TestSeedInputDefaults(t *testing.T) {
	doc, err := skill.Parse([]byte(`
skill:
  name: render-report
  version: 1.0.0
  purpose: Render a report
inputs:
  - name: format
    type: string
    default: html
  - name: count
    type: number
`))
	require.NoError(t, err)

	env := expr.Env{"count": 5}
	seedInputDefaults(doc, env)

	assert.Equal(t, "html", env["format"])
	assert.Equal(t, 5, env["count"], "explicit values are not overridden")
	assert.Len(t, env, 2)
}

func TestIndentBlock(t *testing.T) {
	assert.Equal(t, "  a\n  b\n", indentBlock("a\nb\n", "  "))
	assert.Equal(t, "  a\n\n  b\n", indentBlock("a\n\nb", "  "), "blank lines stay blank")
}
