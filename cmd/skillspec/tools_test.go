package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillspec/pkg/tools"
)

func TestRenderToolListTable(t *testing.T) {
	var buf bytes.Buffer
	registry := tools.NewRegistry()

	renderToolListTable(&buf, registry.All())

	out := buf.String()
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Read(file_path, [offset], [limit])")
	assert.Contains(t, out, "Bash")
	assert.Contains(t, out, "NotebookEdit")
}

func TestRenderToolListJSON(t *testing.T) {
	var buf bytes.Buffer
	registry := tools.NewRegistry()

	require.NoError(t, renderToolListJSON(&buf, registry.ByCategory(tools.CategoryWeb)))

	var decoded struct {
		Tools []tools.Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Tools, 2)
	assert.Equal(t, "WebFetch", decoded.Tools[0].Name)
	assert.Equal(t, "WebSearch", decoded.Tools[1].Name)
}
