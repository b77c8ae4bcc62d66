package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifierShapes(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) bool
		value string
		want  bool
	}{
		{"kebab simple", IsKebabCase, "extract-api-contract", true},
		{"kebab single word", IsKebabCase, "extract", true},
		{"kebab leading digit", IsKebabCase, "2fast-parser", false},
		{"kebab digits after letter", IsKebabCase, "parser-v2", true},
		{"kebab uppercase", IsKebabCase, "Extract-API", false},
		{"kebab trailing dash", IsKebabCase, "extract-", false},
		{"kebab underscore", IsKebabCase, "extract_api", false},
		{"kebab empty", IsKebabCase, "", false},

		{"snake simple", IsSnakeCase, "service_docs", true},
		{"snake single", IsSnakeCase, "input", true},
		{"snake trailing underscore", IsSnakeCase, "input_", true},
		{"snake leading digit", IsSnakeCase, "2fast", false},
		{"snake uppercase", IsSnakeCase, "Input", false},
		{"snake dash", IsSnakeCase, "service-docs", false},

		{"upper snake simple", IsUpperSnakeCase, "EMPTY_INPUT", true},
		{"upper snake single", IsUpperSnakeCase, "TIMEOUT", true},
		{"upper snake digits", IsUpperSnakeCase, "HTTP_500", true},
		{"upper snake lowercase", IsUpperSnakeCase, "empty_input", false},
		{"upper snake leading digit", IsUpperSnakeCase, "500_ERROR", false},

		{"semver simple", IsSemver, "1.2.0", true},
		{"semver zeros", IsSemver, "0.0.1", true},
		{"semver two parts", IsSemver, "1.2", false},
		{"semver prefix", IsSemver, "v1.2.0", false},
		{"semver suffix", IsSemver, "1.2.0-beta", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.value))
		})
	}
}

func TestToKebabCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Extract API Contract", "extract-api-contract"},
		{"summarize_changelog", "summarize-changelog"},
		{"already-kebab", "already-kebab"},
		{"  padded  name  ", "padded-name"},
		{"Mixed/Separators_and Spaces", "mixed-separators-and-spaces"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToKebabCase(tt.in), "input %q", tt.in)
	}
}
