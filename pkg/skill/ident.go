package skill

import (
	"regexp"
	"strings"
)

// Identifier shapes used across the document model. Skill names and tags are
// kebab-case, input/rule/step ids are snake_case, status and failure codes
// are UPPER_SNAKE_CASE and versions follow MAJOR.MINOR.PATCH.
var (
	kebabCasePattern      = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
	snakeCasePattern      = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	upperSnakeCasePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	semverPattern         = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// IsKebabCase reports whether s is a valid kebab-case identifier.
func IsKebabCase(s string) bool {
	return kebabCasePattern.MatchString(s)
}

// IsSnakeCase reports whether s is a valid snake_case identifier.
func IsSnakeCase(s string) bool {
	return snakeCasePattern.MatchString(s)
}

// IsUpperSnakeCase reports whether s is a valid UPPER_SNAKE_CASE code.
func IsUpperSnakeCase(s string) bool {
	return upperSnakeCasePattern.MatchString(s)
}

// IsSemver reports whether s is a MAJOR.MINOR.PATCH version.
func IsSemver(s string) bool {
	return semverPattern.MatchString(s)
}

var nonKebabRun = regexp.MustCompile(`[^a-z0-9]+`)

// ToKebabCase normalizes an arbitrary name into a kebab-case identifier:
// "Extract API Contract" becomes "extract-api-contract".
func ToKebabCase(s string) string {
	s = nonKebabRun.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
