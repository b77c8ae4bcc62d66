package skill

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillspec/pkg/expr"
)

func mustParseDoc(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Empty(t, doc.Issues())
	return doc
}

func TestResolveFirstMatch(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  _config:
    match_strategy: first_match
  rules:
    - id: empty_input
      priority: 10
      when: "len(input) == 0"
      then:
        status: REJECTED
        code: EMPTY_INPUT
    - id: fallback
      is_default: true
      then:
        status: ACCEPTED
`)

	res, err := Resolve(doc, expr.Env{"input": ""})
	require.NoError(t, err)

	require.Len(t, res.Fired, 1)
	assert.Equal(t, "empty_input", res.Fired[0].ID)
	assert.False(t, res.UsedDefault)
	assert.Empty(t, res.Faults)

	outcome, ok := res.Outcome()
	require.True(t, ok)
	assert.Equal(t, "REJECTED", outcome.Status)
	assert.Equal(t, "EMPTY_INPUT", outcome.Code)
}

func TestResolveFirstMatchChecksHigherPriorityFirst(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  _config:
    match_strategy: first_match
  rules:
    - id: declared_first
      priority: 1
      when: "size > 0"
      then:
        status: ACCEPTED
        code: LOW
    - id: declared_second
      priority: 9
      when: "size > 0"
      then:
        status: ACCEPTED
        code: HIGH
`)

	res, err := Resolve(doc, expr.Env{"size": int64(3)})
	require.NoError(t, err)

	require.Len(t, res.Fired, 1)
	assert.Equal(t, "declared_second", res.Fired[0].ID)
	assert.Equal(t, []string{"declared_second", "declared_first"}, res.Considered)
}

func TestResolveFirstMatchTieGoesToDeclarationOrder(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  rules:
    - id: first
      priority: 5
      when: "size > 0"
      then:
        status: ACCEPTED
    - id: second
      priority: 5
      when: "size > 0"
      then:
        status: REJECTED
`)

	res, err := Resolve(doc, expr.Env{"size": int64(1)})
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.Equal(t, "first", res.Fired[0].ID)
	assert.Empty(t, res.Conflicts)
}

func TestResolveDefaultFires(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  rules:
    - id: empty_input
      when: "len(input) == 0"
      then:
        status: REJECTED
    - id: fallback
      is_default: true
      then:
        status: ACCEPTED
`)

	res, err := Resolve(doc, expr.Env{"input": "hello"})
	require.NoError(t, err)

	assert.True(t, res.UsedDefault)
	require.Len(t, res.Fired, 1)
	assert.Equal(t, "fallback", res.Fired[0].ID)
	assert.Equal(t, []string{"empty_input"}, res.Considered)
	assert.Empty(t, res.Matched)
}

func TestResolvePriorityPicksTopTier(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  _config:
    match_strategy: priority
    conflict_resolution: error
  rules:
    - id: low
      priority: 1
      when: "size > 0"
      then:
        status: ACCEPTED
        code: LOW
    - id: high
      priority: 9
      when: "size > 0"
      then:
        status: ACCEPTED
        code: HIGH
`)

	res, err := Resolve(doc, expr.Env{"size": int64(3)})
	require.NoError(t, err)

	require.Len(t, res.Fired, 1)
	assert.Equal(t, "high", res.Fired[0].ID)
	assert.Equal(t, []string{"high", "low"}, res.Matched)
	assert.Empty(t, res.Conflicts)
}

func TestResolvePriorityAmbiguity(t *testing.T) {
	docFor := func(resolution string) *Document {
		return mustParseDoc(t, fmt.Sprintf(`decision_rules:
  _config:
    match_strategy: priority
    conflict_resolution: %s
  rules:
    - id: reject
      priority: 5
      when: "size > 0"
      then:
        status: REJECTED
    - id: accept
      priority: 5
      when: "size > 0"
      then:
        status: ACCEPTED
    - id: below_tier
      priority: 1
      when: "size > 0"
      then:
        status: ACCEPTED
`, resolution))
	}
	env := expr.Env{"size": int64(1)}

	t.Run("error", func(t *testing.T) {
		res, err := Resolve(docFor("error"), env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ambiguous rule match")

		require.Len(t, res.Conflicts, 1)
		assert.Equal(t, "reject", res.Conflicts[0].Winner)
		assert.Equal(t, []string{"reject", "accept"}, res.Conflicts[0].RuleIDs)
		require.Len(t, res.Fired, 1)
		assert.Equal(t, "reject", res.Fired[0].ID)
	})

	t.Run("warn", func(t *testing.T) {
		res, err := Resolve(docFor("warn"), env)
		require.NoError(t, err)
		require.Len(t, res.Conflicts, 1)
		assert.Equal(t, ConflictWarn, res.Conflicts[0].Resolution)
		require.Len(t, res.Fired, 1)
		assert.Equal(t, "reject", res.Fired[0].ID)
	})

	t.Run("first_wins", func(t *testing.T) {
		res, err := Resolve(docFor("first_wins"), env)
		require.NoError(t, err)
		assert.Empty(t, res.Conflicts)
		require.Len(t, res.Fired, 1)
		assert.Equal(t, "reject", res.Fired[0].ID)
	})
}

func TestResolveAllMatch(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  _config:
    match_strategy: all_match
  rules:
    - id: a
      priority: 1
      when: "size > 0"
      then:
        status: ACCEPTED
        code: A
    - id: b
      priority: 5
      when: "size > 0"
      then:
        status: ACCEPTED
        code: B
    - id: c
      priority: 3
      when: "size > 3"
      then:
        status: ACCEPTED
        code: C
`)

	res, err := Resolve(doc, expr.Env{"size": int64(2)})
	require.NoError(t, err)

	var fired []string
	for _, rule := range res.Fired {
		fired = append(fired, rule.ID)
	}
	assert.Equal(t, []string{"b", "a"}, fired)
	assert.Empty(t, res.Conflicts)
}

func TestResolveFaultTreatedAsNoMatch(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  rules:
    - id: broken
      when: "missing_var == 1"
      then:
        status: REJECTED
    - id: fallback
      is_default: true
      then:
        status: ACCEPTED
`)

	res, err := Resolve(doc, expr.Env{})
	require.NoError(t, err)

	assert.True(t, res.UsedDefault)
	require.Len(t, res.Faults, 1)
	assert.Equal(t, "broken", res.Faults[0].RuleID)
	require.NotEmpty(t, res.Faults[0].Faults)
	assert.Contains(t, res.Faults[0].Faults[0].Message, "missing_var")
}

func TestResolveParseErrorSkipsRule(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  rules:
    - id: broken
      when: "len("
      then:
        status: REJECTED
    - id: fallback
      is_default: true
      then:
        status: ACCEPTED
`)

	res, err := Resolve(doc, expr.Env{})
	require.NoError(t, err)

	assert.True(t, res.UsedDefault)
	require.Len(t, res.Faults, 1)
	assert.Equal(t, "broken", res.Faults[0].RuleID)
	assert.NotEmpty(t, res.Faults[0].Error)
}

func TestResolveNoDefaultNoMatch(t *testing.T) {
	doc := mustParseDoc(t, `decision_rules:
  rules:
    - id: never
      when: "size > 100"
      then:
        status: ACCEPTED
`)

	_, err := Resolve(doc, expr.Env{"size": int64(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default rule")
}
