// Package tools defines the standard tool registry that skill steps bind
// to. The registry covers the tools available in common agent environments,
// organized by category, with parameter definitions for binding validation.
package tools

import (
	"fmt"
	"sort"
	"strings"
)

// Category groups related tools.
type Category string

const (
	CategoryFileSystem  Category = "file_system"
	CategorySearch      Category = "search"
	CategoryExecution   Category = "execution"
	CategoryWeb         Category = "web"
	CategoryInteraction Category = "interaction"
	CategoryNotebook    Category = "notebook"
	CategoryMCP         Category = "mcp"
)

// Param is one parameter of a tool.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Tool is a standard tool definition.
type Tool struct {
	Name             string   `json:"name"`
	Category         Category `json:"category"`
	Description      string   `json:"description"`
	Params           []Param  `json:"params,omitempty"`
	Returns          string   `json:"returns,omitempty"`
	RequiresApproval bool     `json:"requires_approval"`
	SandboxSafe      bool     `json:"sandbox_safe"`
	Aliases          []string `json:"aliases,omitempty"`
}

// Signature renders a human-readable call shape like
// "Read(file_path, [offset], [limit])".
func (t Tool) Signature() string {
	var parts []string
	for _, p := range t.Params {
		if p.Required {
			parts = append(parts, p.Name)
		}
	}
	for _, p := range t.Params {
		if !p.Required {
			parts = append(parts, "["+p.Name+"]")
		}
	}
	return fmt.Sprintf("%s(%s)", t.Name, strings.Join(parts, ", "))
}

// Standard returns the built-in tool definitions in display order.
func Standard() []Tool {
	return []Tool{
		{
			Name:        "Read",
			Category:    CategoryFileSystem,
			Description: "Read contents of a file from the local filesystem",
			Params: []Param{
				{Name: "file_path", Type: "string", Required: true, Description: "Absolute path to the file"},
				{Name: "offset", Type: "number", Description: "Line number to start reading from"},
				{Name: "limit", Type: "number", Description: "Number of lines to read"},
			},
			Returns:     "File contents with line numbers",
			SandboxSafe: true,
		},
		{
			Name:        "Write",
			Category:    CategoryFileSystem,
			Description: "Write content to a file, creating or overwriting",
			Params: []Param{
				{Name: "file_path", Type: "string", Required: true, Description: "Absolute path to the file"},
				{Name: "content", Type: "string", Required: true, Description: "Content to write"},
			},
			Returns:          "Success confirmation",
			RequiresApproval: true,
			SandboxSafe:      true,
		},
		{
			Name:        "Edit",
			Category:    CategoryFileSystem,
			Description: "Perform exact string replacements in a file",
			Params: []Param{
				{Name: "file_path", Type: "string", Required: true, Description: "Absolute path to the file"},
				{Name: "old_string", Type: "string", Required: true, Description: "Text to replace"},
				{Name: "new_string", Type: "string", Required: true, Description: "Replacement text"},
				{Name: "replace_all", Type: "boolean", Description: "Replace all occurrences", Default: false},
			},
			Returns:          "Updated file contents",
			RequiresApproval: true,
			SandboxSafe:      true,
		},
		{
			Name:        "Glob",
			Category:    CategorySearch,
			Description: "Find files matching a glob pattern",
			Params: []Param{
				{Name: "pattern", Type: "string", Required: true, Description: "Glob pattern (e.g., '**/*.go')"},
				{Name: "path", Type: "string", Description: "Directory to search in"},
			},
			Returns:     "List of matching file paths",
			SandboxSafe: true,
		},
		{
			Name:        "Grep",
			Category:    CategorySearch,
			Description: "Search file contents using regex patterns",
			Params: []Param{
				{Name: "pattern", Type: "string", Required: true, Description: "Regex pattern to search"},
				{Name: "path", Type: "string", Description: "File or directory to search"},
				{Name: "glob", Type: "string", Description: "Filter files by glob pattern"},
				{Name: "output_mode", Type: "string", Description: "content, files_with_matches, or count"},
			},
			Returns:     "Search results",
			SandboxSafe: true,
		},
		{
			Name:        "Bash",
			Category:    CategoryExecution,
			Description: "Execute shell commands",
			Params: []Param{
				{Name: "command", Type: "string", Required: true, Description: "Command to execute"},
				{Name: "timeout", Type: "number", Description: "Timeout in milliseconds"},
				{Name: "description", Type: "string", Description: "Description of what this command does"},
			},
			Returns:          "Command output (stdout/stderr)",
			RequiresApproval: true,
			Aliases:          []string{"Shell", "Command"},
		},
		{
			Name:        "Task",
			Category:    CategoryExecution,
			Description: "Launch a sub-agent to handle complex tasks",
			Params: []Param{
				{Name: "prompt", Type: "string", Required: true, Description: "Task description for the agent"},
				{Name: "subagent_type", Type: "string", Required: true, Description: "Type of agent to use"},
				{Name: "description", Type: "string", Required: true, Description: "Short description of the task"},
			},
			Returns:     "Agent execution result",
			SandboxSafe: true,
		},
		{
			Name:        "WebFetch",
			Category:    CategoryWeb,
			Description: "Fetch and process content from a URL",
			Params: []Param{
				{Name: "url", Type: "string", Required: true, Description: "URL to fetch"},
				{Name: "prompt", Type: "string", Required: true, Description: "Prompt to process the content"},
			},
			Returns:     "Processed web content",
			SandboxSafe: true,
		},
		{
			Name:        "WebSearch",
			Category:    CategoryWeb,
			Description: "Search the web and return results",
			Params: []Param{
				{Name: "query", Type: "string", Required: true, Description: "Search query"},
				{Name: "allowed_domains", Type: "array", Description: "Domains to include"},
				{Name: "blocked_domains", Type: "array", Description: "Domains to exclude"},
			},
			Returns:     "Search results with links",
			SandboxSafe: true,
		},
		{
			Name:        "AskUserQuestion",
			Category:    CategoryInteraction,
			Description: "Ask the user a question with options",
			Params: []Param{
				{Name: "questions", Type: "array", Required: true, Description: "Questions with options"},
			},
			Returns:     "User's answers",
			SandboxSafe: true,
		},
		{
			Name:        "TodoWrite",
			Category:    CategoryInteraction,
			Description: "Manage a structured task list",
			Params: []Param{
				{Name: "todos", Type: "array", Required: true, Description: "List of todo items"},
			},
			Returns:     "Updated todo list",
			SandboxSafe: true,
		},
		{
			Name:        "NotebookEdit",
			Category:    CategoryNotebook,
			Description: "Edit Jupyter notebook cells",
			Params: []Param{
				{Name: "notebook_path", Type: "string", Required: true, Description: "Path to notebook"},
				{Name: "new_source", Type: "string", Required: true, Description: "New cell content"},
				{Name: "cell_id", Type: "string", Description: "Cell ID to edit"},
				{Name: "edit_mode", Type: "string", Description: "replace, insert, or delete"},
			},
			Returns:          "Updated notebook",
			RequiresApproval: true,
			SandboxSafe:      true,
		},
	}
}

// Registry resolves tool names to definitions, including aliases and any
// extra tools a document declares.
type Registry struct {
	tools  []Tool
	byName map[string]int
}

// NewRegistry builds a registry over the standard tools plus any extras.
// Extras with a name already registered override the standard definition.
func NewRegistry(extra ...Tool) *Registry {
	r := &Registry{byName: map[string]int{}}
	for _, tool := range Standard() {
		r.add(tool)
	}
	for _, tool := range extra {
		r.add(tool)
	}
	return r
}

func (r *Registry) add(tool Tool) {
	if idx, ok := r.byName[strings.ToLower(tool.Name)]; ok {
		r.tools[idx] = tool
		return
	}
	r.tools = append(r.tools, tool)
	idx := len(r.tools) - 1
	r.byName[strings.ToLower(tool.Name)] = idx
	for _, alias := range tool.Aliases {
		r.byName[strings.ToLower(alias)] = idx
	}
}

// Get resolves a tool by exact name or alias, case-sensitively.
func (r *Registry) Get(name string) (Tool, bool) {
	idx, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return Tool{}, false
	}
	tool := r.tools[idx]
	if tool.Name == name {
		return tool, true
	}
	for _, alias := range tool.Aliases {
		if alias == name {
			return tool, true
		}
	}
	return Tool{}, false
}

// All returns every registered tool in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// ByCategory returns the registered tools of one category.
func (r *Registry) ByCategory(category Category) []Tool {
	var out []Tool
	for _, tool := range r.tools {
		if tool.Category == category {
			out = append(out, tool)
		}
	}
	return out
}

// Names returns every registered tool name, sorted.
func (r *Registry) Names() []string {
	var names []string
	for _, tool := range r.tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

// Suggest returns the closest registered tool name for a misspelled
// binding, or "" when nothing is close. Case errors and small typos are
// suggested.
func (r *Registry) Suggest(name string) string {
	if idx, ok := r.byName[strings.ToLower(name)]; ok {
		return r.tools[idx].Name
	}

	lower := strings.ToLower(name)
	best, bestDist := "", 3
	for _, tool := range r.tools {
		if d := editDistance(lower, strings.ToLower(tool.Name)); d < bestDist {
			best, bestDist = tool.Name, d
		}
	}
	return best
}

// ValidateBinding checks a tool binding and its parameters against the
// registry. Returned strings are human-readable problems; empty means
// valid.
func (r *Registry) ValidateBinding(name string, params map[string]any) []string {
	tool, ok := r.Get(name)
	if !ok {
		msg := fmt.Sprintf("unknown tool %q", name)
		if suggestion := r.Suggest(name); suggestion != "" {
			msg = fmt.Sprintf("unknown tool %q (did you mean %q?)", name, suggestion)
		}
		return []string{msg}
	}

	var problems []string
	for _, param := range tool.Params {
		if param.Required {
			if _, ok := params[param.Name]; !ok {
				problems = append(problems,
					fmt.Sprintf("missing required parameter %q for tool %q", param.Name, tool.Name))
			}
		}
	}

	known := make(map[string]bool, len(tool.Params))
	for _, param := range tool.Params {
		known[param.Name] = true
	}
	var extras []string
	for name := range params {
		if !known[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, extra := range extras {
		problems = append(problems,
			fmt.Sprintf("unknown parameter %q for tool %q", extra, tool.Name))
	}
	return problems
}

// AllowedToolsString formats a tool list for the SKILL.md allowed-tools
// frontmatter field.
func AllowedToolsString(names []string) string {
	return strings.Join(names, " ")
}

// editDistance is a plain Levenshtein distance over bytes, small enough for
// registry-sized lookups.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
