package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()

	tool, ok := registry.Get("Read")
	require.True(t, ok)
	assert.Equal(t, CategoryFileSystem, tool.Category)
	assert.True(t, tool.SandboxSafe)
	assert.False(t, tool.RequiresApproval)

	t.Run("alias resolves", func(t *testing.T) {
		tool, ok := registry.Get("Shell")
		require.True(t, ok)
		assert.Equal(t, "Bash", tool.Name)
	})

	t.Run("lookup is case sensitive", func(t *testing.T) {
		_, ok := registry.Get("read")
		assert.False(t, ok)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, ok := registry.Get("Teleport")
		assert.False(t, ok)
	})
}

func TestRegistryExtraTools(t *testing.T) {
	registry := NewRegistry(Tool{
		Name:        "DeployService",
		Category:    CategoryExecution,
		Description: "Deploy the service to staging",
	})

	tool, ok := registry.Get("DeployService")
	require.True(t, ok)
	assert.Equal(t, CategoryExecution, tool.Category)

	t.Run("extra overrides standard", func(t *testing.T) {
		registry := NewRegistry(Tool{Name: "Read", Category: CategoryMCP, Description: "custom"})
		tool, ok := registry.Get("Read")
		require.True(t, ok)
		assert.Equal(t, CategoryMCP, tool.Category)
	})
}

func TestRegistrySuggest(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		name string
		want string
	}{
		{name: "read", want: "Read"},
		{name: "Raed", want: "Read"},
		{name: "Bsh", want: "Bash"},
		{name: "shell", want: "Bash"},
		{name: "CompletelyUnrelated", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, registry.Suggest(tt.name))
		})
	}
}

func TestValidateBinding(t *testing.T) {
	registry := NewRegistry()

	t.Run("valid binding", func(t *testing.T) {
		problems := registry.ValidateBinding("Read", map[string]any{"file_path": "/tmp/x"})
		assert.Empty(t, problems)
	})

	t.Run("bare binding without params", func(t *testing.T) {
		problems := registry.ValidateBinding("Glob", map[string]any{"pattern": "**/*.go"})
		assert.Empty(t, problems)
	})

	t.Run("missing required parameter", func(t *testing.T) {
		problems := registry.ValidateBinding("Write", map[string]any{"file_path": "/tmp/x"})
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], `missing required parameter "content"`)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		problems := registry.ValidateBinding("Read", map[string]any{
			"file_path": "/tmp/x",
			"recursive": true,
		})
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], `unknown parameter "recursive"`)
	})

	t.Run("unknown tool suggests", func(t *testing.T) {
		problems := registry.ValidateBinding("Raed", nil)
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], `did you mean "Read"`)
	})
}

func TestSignature(t *testing.T) {
	registry := NewRegistry()

	tool, ok := registry.Get("Read")
	require.True(t, ok)
	assert.Equal(t, "Read(file_path, [offset], [limit])", tool.Signature())

	tool, ok = registry.Get("TodoWrite")
	require.True(t, ok)
	assert.Equal(t, "TodoWrite(todos)", tool.Signature())
}

func TestByCategoryAndNames(t *testing.T) {
	registry := NewRegistry()

	fs := registry.ByCategory(CategoryFileSystem)
	require.Len(t, fs, 3)
	assert.Equal(t, "Read", fs[0].Name)

	names := registry.Names()
	assert.Contains(t, names, "Bash")
	assert.Contains(t, names, "NotebookEdit")
	assert.Len(t, names, 12)
}

func TestAllowedToolsString(t *testing.T) {
	assert.Equal(t, "Read Grep Bash", AllowedToolsString([]string{"Read", "Grep", "Bash"}))
}
