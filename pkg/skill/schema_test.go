package skill

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchemaShape(t *testing.T) {
	data, err := json.Marshal(JSONSchema())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "object", raw["type"])
	assert.Equal(t, false, raw["additionalProperties"])

	props, ok := raw["properties"].(map[string]any)
	require.True(t, ok, "schema has no properties")
	for _, key := range []string{
		"skill", "inputs", "preconditions", "non_goals", "decision_rules",
		"steps", "output_contract", "failure_modes", "edge_cases", "context",
	} {
		assert.Contains(t, props, key)
	}
}

func TestJSONSchemaDecisionRulesKeys(t *testing.T) {
	data, err := json.Marshal(JSONSchema())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	props := raw["properties"].(map[string]any)
	dr, ok := props["decision_rules"].(map[string]any)
	require.True(t, ok, "decision_rules missing from schema")

	drProps, ok := dr["properties"].(map[string]any)
	require.True(t, ok, "decision_rules has no properties")
	assert.Contains(t, drProps, "_config")
	assert.Contains(t, drProps, "rules")
}
