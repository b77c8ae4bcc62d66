package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "literal true", source: "true"},
		{name: "literal number", source: "42"},
		{name: "negative number", source: "-3.5 < 0"},
		{name: "single quoted string", source: "status == 'ACTIVE'"},
		{name: "double quoted string", source: `status == "ACTIVE"`},
		{name: "dotted path", source: "user.profile.name == 'alice'"},
		{name: "not", source: "not is_null(input)"},
		{name: "double not", source: "not not ready"},
		{name: "and or precedence", source: "a == 1 and b == 2 or c == 3"},
		{name: "parenthesized", source: "(a == 1 or b == 2) and c == 3"},
		{name: "symbolic aliases", source: "a == 1 && b == 2 || !c"},
		{name: "uppercase keywords", source: "a == 1 AND b == 2 OR NOT c"},
		{name: "len call", source: "len(input) == 0"},
		{name: "contains call", source: "contains(tags, 'urgent')"},
		{name: "matches call", source: "matches(name, '^[a-z]+$')"},
		{name: "nested calls", source: "len(user.tags) > 0 and not is_empty(user.name)"},
		{name: "null literal", source: "owner == null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.source, e.Source())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
		wantCol int
	}{
		{name: "empty", source: "", wantMsg: "expected a value", wantCol: 1},
		{name: "single equals", source: "a = 1", wantMsg: `did you mean "=="`, wantCol: 3},
		{name: "dangling operator", source: "a ==", wantMsg: "expected a value", wantCol: 5},
		{name: "chained comparison", source: "1 < a < 3", wantMsg: "chained comparisons", wantCol: 7},
		{name: "unknown function", source: "frob(x)", wantMsg: `unknown function "frob"`, wantCol: 1},
		{name: "wrong arity", source: "len(a, b)", wantMsg: "len expects 1 argument(s), got 2", wantCol: 1},
		{name: "missing paren", source: "len(a", wantMsg: `expected ")"`, wantCol: 6},
		{name: "unterminated string", source: "name == 'abc", wantMsg: "unterminated string", wantCol: 9},
		{name: "bad escape", source: `name == 'a\q'`, wantMsg: "unknown escape", wantCol: 9},
		{name: "trailing garbage", source: "a == 1 b", wantMsg: "unexpected", wantCol: 8},
		{name: "lone ampersand", source: "a & b", wantMsg: `did you mean "&&"`, wantCol: 3},
		{name: "path missing segment", source: "user.", wantMsg: `an identifier after "."`, wantCol: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			require.Error(t, err)

			var synErr *SyntaxError
			require.ErrorAs(t, err, &synErr)
			assert.Contains(t, synErr.Message, tt.wantMsg)
			assert.Equal(t, 1, synErr.Pos.Line)
			assert.Equal(t, tt.wantCol, synErr.Pos.Column)
		})
	}
}

func TestParseMultilinePosition(t *testing.T) {
	_, err := Parse("a == 1 and\nb ==")

	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Equal(t, 2, synErr.Pos.Line)
	assert.Equal(t, 5, synErr.Pos.Column)
}

func TestVariables(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{name: "single path", source: "input == ''", want: []string{"input"}},
		{name: "dotted path reports root", source: "user.profile.name == 'x'", want: []string{"user"}},
		{name: "function args", source: "len(items) > 0 and contains(tags, label)", want: []string{"items", "label", "tags"}},
		{name: "duplicates collapse", source: "a == 1 or a == 2 or b == 3", want: []string{"a", "b"}},
		{name: "no variables", source: "1 < 2", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Variables())
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	const source = "len(user.tags) > 2 and not is_empty(user.name)"

	first, err := Parse(source)
	require.NoError(t, err)
	second, err := Parse(source)
	require.NoError(t, err)

	assert.Equal(t, first.Variables(), second.Variables())

	env := Env{"user": map[string]any{"tags": []any{"a", "b", "c"}, "name": "n"}}
	firstResult, firstFaults := first.EvalBool(env)
	secondResult, secondFaults := second.EvalBool(env)
	assert.Equal(t, firstResult, secondResult)
	assert.Equal(t, firstFaults, secondFaults)
}
