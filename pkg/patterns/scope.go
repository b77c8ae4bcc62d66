package patterns

import (
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scope priorities attached to scanned fields. Low-priority scopes only
// surface error-severity findings.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ScopeField names a document path to scan. Paths use `[*]` wildcards for
// list elements, e.g. "steps[*].action".
type ScopeField struct {
	Path     string `yaml:"path" json:"path"`
	Priority string `yaml:"priority,omitempty" json:"priority,omitempty"`

	matcher glob.Glob
}

// Allows reports whether a finding of the given severity should surface for
// this scope.
func (f ScopeField) Allows(severity string) bool {
	if f.Priority == PriorityLow {
		return severity == SeverityError
	}
	return true
}

// ScopePath names a document path excluded from scanning.
type ScopePath struct {
	Path string `yaml:"path" json:"path"`

	matcher glob.Glob
}

// IgnoreRule is a regex for text regions stripped before matching, such as
// fenced code blocks.
type IgnoreRule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Thresholds bound how many findings a document may carry before the
// quality layer flags it.
type Thresholds struct {
	MaxErrors   int `yaml:"max_errors" json:"max_errors"`
	MaxWarnings int `yaml:"max_warnings" json:"max_warnings"`
}

// ScanScope configures which fields the quality scanner looks at and which
// text regions it skips.
type ScanScope struct {
	ScannedFields  []ScopeField `yaml:"scanned_fields" json:"scanned_fields"`
	IgnoredFields  []ScopePath  `yaml:"ignored_fields,omitempty" json:"ignored_fields,omitempty"`
	IgnorePatterns []IgnoreRule `yaml:"ignore_patterns,omitempty" json:"ignore_patterns,omitempty"`
	Thresholds     Thresholds   `yaml:"thresholds" json:"thresholds"`
}

// ScopeFileName is the scan scope configuration file inside a patterns
// directory.
const ScopeFileName = "scan_scope.yaml"

// DefaultScanScope returns the scope used when no scan_scope.yaml is
// configured.
func DefaultScanScope() *ScanScope {
	return &ScanScope{
		ScannedFields: []ScopeField{
			{Path: "steps[*].action", Priority: PriorityHigh},
			{Path: "skill.purpose", Priority: PriorityHigh},
			{Path: "inputs[*].description", Priority: PriorityMedium},
			{Path: "edge_cases[*].handling", Priority: PriorityMedium},
			{Path: "failure_modes[*].recovery", Priority: PriorityLow},
		},
		IgnoredFields: []ScopePath{
			{Path: "spec_version"},
			{Path: "skill.name"},
			{Path: "skill.version"},
		},
		IgnorePatterns: []IgnoreRule{
			{Pattern: "```[\\s\\S]*?```", Type: "regex"},
			{Pattern: "`[^`]+`", Type: "regex"},
		},
		Thresholds: Thresholds{MaxErrors: 0, MaxWarnings: 10},
	}
}

// LoadScanScope reads a scan_scope.yaml file.
func LoadScanScope(path string) (*ScanScope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scan scope %s", path)
	}
	var scope ScanScope
	if err := yaml.Unmarshal(data, &scope); err != nil {
		return nil, errors.Wrapf(err, "failed to parse scan scope %s", path)
	}
	if err := scope.compile(); err != nil {
		return nil, errors.Wrapf(err, "scan scope %s", path)
	}
	return &scope, nil
}

// Match reports whether path is in scope and with which scope entry.
// Ignored paths never match; with no scanned_fields configured, every
// non-ignored path is scanned at medium priority.
func (s *ScanScope) Match(path string) (ScopeField, bool) {
	if err := s.compile(); err != nil {
		return ScopeField{}, false
	}

	normalized := normalizeFieldPath(path)
	for _, ignored := range s.IgnoredFields {
		if ignored.matcher.Match(normalized) {
			return ScopeField{}, false
		}
	}
	for _, field := range s.ScannedFields {
		if field.matcher.Match(normalized) {
			return field, true
		}
	}
	if len(s.ScannedFields) == 0 {
		return ScopeField{Path: path, Priority: PriorityMedium}, true
	}
	return ScopeField{}, false
}

func (s *ScanScope) compile() error {
	for i := range s.ScannedFields {
		if s.ScannedFields[i].matcher != nil {
			continue
		}
		m, err := glob.Compile(normalizeFieldPath(s.ScannedFields[i].Path), '.')
		if err != nil {
			return errors.Wrapf(err, "invalid scope path %q", s.ScannedFields[i].Path)
		}
		s.ScannedFields[i].matcher = m
	}
	for i := range s.IgnoredFields {
		if s.IgnoredFields[i].matcher != nil {
			continue
		}
		m, err := glob.Compile(normalizeFieldPath(s.IgnoredFields[i].Path), '.')
		if err != nil {
			return errors.Wrapf(err, "invalid ignored path %q", s.IgnoredFields[i].Path)
		}
		s.IgnoredFields[i].matcher = m
	}
	return nil
}

// normalizeFieldPath rewrites bracket indexing to dot segments so the glob
// separator applies: "steps[2].action" becomes "steps.2.action" and
// "steps[*].action" becomes "steps.*.action".
func normalizeFieldPath(path string) string {
	var b strings.Builder
	for _, r := range path {
		switch r {
		case '[':
			b.WriteByte('.')
		case ']':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
