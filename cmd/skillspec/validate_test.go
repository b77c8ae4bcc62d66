package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillspec/pkg/workspace"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestValidateConfigValidate(t *testing.T) {
	tests := []struct {
		name          string
		config        *ValidateConfig
		expectedError string
	}{
		{
			name:   "text format",
			config: &ValidateConfig{Format: "text"},
		},
		{
			name:   "json format",
			config: &ValidateConfig{Format: "json"},
		},
		{
			name:          "unknown format",
			config:        &ValidateConfig{Format: "xml"},
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

func TestCollectDocumentsWorkspaceDefaults(t *testing.T) {
	ws := workspace.New(t.TempDir())
	draftSpec := filepath.Join(ws.DraftsDir(), "draft-skill", "spec.yaml")
	liveSpec := filepath.Join(ws.SkillsDir(), "live-skill", "spec.yaml")
	writeTestFile(t, draftSpec, "skill: {}\n")
	writeTestFile(t, liveSpec, "skill: {}\n")
	writeTestFile(t, filepath.Join(ws.DraftsDir(), "draft-skill", "notes.yaml"), "ignored: true\n")

	paths, err := collectDocuments(ws, nil, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, draftSpec)
	assert.Contains(t, paths, liveSpec)
}

func TestCollectDocumentsEmptyWorkspace(t *testing.T) {
	ws := workspace.New(t.TempDir())

	paths, err := collectDocuments(ws, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestCollectDocumentsExplicitArgs(t *testing.T) {
	tmp := t.TempDir()
	ws := workspace.New(tmp)
	docs := filepath.Join(tmp, "docs")
	writeTestFile(t, filepath.Join(docs, "alpha.skill.yaml"), "skill: {}\n")
	writeTestFile(t, filepath.Join(docs, "notes.yaml"), "ignored: true\n")

	paths, err := collectDocuments(ws, []string{docs}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(docs, "alpha.skill.yaml")}, paths)
}

func TestCollectDocumentsIncludeOverride(t *testing.T) {
	tmp := t.TempDir()
	ws := workspace.New(tmp)
	docs := filepath.Join(tmp, "docs")
	writeTestFile(t, filepath.Join(docs, "alpha.skill.yaml"), "skill: {}\n")
	writeTestFile(t, filepath.Join(docs, "notes.yaml"), "ignored: true\n")

	paths, err := collectDocuments(ws, []string{docs}, []string{"*.yaml"})
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestCollectDocumentsMissingArg(t *testing.T) {
	ws := workspace.New(t.TempDir())

	_, err := collectDocuments(ws, []string{filepath.Join(ws.Root, "nope")}, nil)
	assert.Error(t, err)
}
