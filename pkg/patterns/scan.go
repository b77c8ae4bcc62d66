package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Violation is one occurrence of a forbidden pattern in a scanned field.
type Violation struct {
	Path     string `json:"path"`
	Pattern  string `json:"pattern"`
	Matched  string `json:"matched"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Context  string `json:"context,omitempty"`
	Fix      string `json:"fix,omitempty"`
	Priority string `json:"priority,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

func (v Violation) String() string {
	loc := "[" + v.Path + "]"
	if v.Line > 0 {
		loc = fmt.Sprintf("[%s:%d]", v.Path, v.Line)
	}
	return fmt.Sprintf("%s [%s] %s: Found %q (pattern: %s). Fix: %s",
		loc, strings.ToUpper(v.Severity), v.Category, v.Matched, v.Pattern, v.Fix)
}

// Summary aggregates violations for a layer report.
type Summary struct {
	ByCategory map[string]int `json:"by_category"`
	Errors     int            `json:"errors"`
	Warnings   int            `json:"warnings"`
}

// Tally computes the per-category and per-severity counts of a violation
// list.
func Tally(violations []Violation) Summary {
	summary := Summary{ByCategory: map[string]int{}}
	for _, v := range violations {
		summary.ByCategory[v.Category]++
		switch v.Severity {
		case SeverityError:
			summary.Errors++
		case SeverityWarning:
			summary.Warnings++
		}
	}
	return summary
}

// Scanner matches a pattern set against located document fields, honoring a
// scan scope.
type Scanner struct {
	set    *Set
	scope  *ScanScope
	ignore []*regexp.Regexp
}

// Option configures a Scanner.
type Option func(*Scanner) error

// WithSet uses an explicit pattern set.
func WithSet(set *Set) Option {
	return func(s *Scanner) error {
		s.set = set
		return nil
	}
}

// WithLocales resolves the pattern set for the given locales from dir
// (falling back to the built-ins per locale). An empty dir always uses the
// built-ins.
func WithLocales(dir string, locales ...string) Option {
	return func(s *Scanner) error {
		set, err := Load(dir, locales...)
		if err != nil {
			return err
		}
		s.set = set
		return nil
	}
}

// WithScope uses an explicit scan scope.
func WithScope(scope *ScanScope) Option {
	return func(s *Scanner) error {
		s.scope = scope
		return nil
	}
}

// WithScopeFile loads the scan scope from a scan_scope.yaml file.
func WithScopeFile(path string) Option {
	return func(s *Scanner) error {
		scope, err := LoadScanScope(path)
		if err != nil {
			return err
		}
		s.scope = scope
		return nil
	}
}

// NewScanner builds a scanner. Without options it scans with the built-in
// English set over the default scope.
func NewScanner(opts ...Option) (*Scanner, error) {
	s := &Scanner{}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.set == nil {
		set, err := Builtin(LocaleEnglish)
		if err != nil {
			return nil, err
		}
		s.set = set
	}
	if s.scope == nil {
		s.scope = DefaultScanScope()
	}
	if err := s.set.Compile(); err != nil {
		return nil, err
	}
	for _, rule := range s.scope.IgnorePatterns {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			// invalid ignore rules are skipped, not fatal
			continue
		}
		s.ignore = append(s.ignore, re)
	}
	return s, nil
}

// Set returns the active pattern set.
func (s *Scanner) Set() *Set {
	return s.set
}

// Scope returns the active scan scope.
func (s *Scanner) Scope() *ScanScope {
	return s.scope
}

// ScanField scans one located document field. Fields outside the scan scope
// yield nothing. line and column locate the field's text in its source
// file; every occurrence of every pattern is reported.
func (s *Scanner) ScanField(path, text string, line, column int) []Violation {
	scopeField, ok := s.scope.Match(path)
	if !ok {
		return nil
	}
	return s.scan(path, text, line, column, scopeField)
}

// ScanText scans free text without scope filtering, for markdown bodies and
// ad hoc checks.
func (s *Scanner) ScanText(name, text string) []Violation {
	return s.scan(name, text, 1, 1, ScopeField{})
}

func (s *Scanner) scan(path, text string, baseLine, baseCol int, scope ScopeField) []Violation {
	masked := s.mask(text)

	type located struct {
		Violation
		start int
	}
	var found []located
	for i := range s.set.Patterns {
		p := &s.set.Patterns[i]
		if !scope.Allows(p.Severity) {
			continue
		}
		for _, m := range p.FindAll(masked) {
			line, col := locate(text, m.Start, baseLine, baseCol)
			found = append(found, located{
				start: m.Start,
				Violation: Violation{
					Path:     path,
					Pattern:  p.Pattern,
					Matched:  m.Text,
					Category: p.Category,
					Severity: p.Severity,
					Context:  p.Context,
					Fix:      p.Fix,
					Priority: scope.Priority,
					Line:     line,
					Column:   col,
				},
			})
		}
	}

	// report in text order, not pattern order
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].start < found[j].start
	})
	out := make([]Violation, len(found))
	for i, f := range found {
		out[i] = f.Violation
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mask blanks ignore regions (code blocks, inline code) in place of
// removing them, so match offsets keep pointing into the original text.
func (s *Scanner) mask(text string) string {
	if len(s.ignore) == 0 {
		return text
	}
	b := []byte(text)
	for _, re := range s.ignore {
		for _, loc := range re.FindAllIndex(b, -1) {
			for i := loc[0]; i < loc[1]; i++ {
				if b[i] != '\n' {
					b[i] = ' '
				}
			}
		}
	}
	return string(b)
}

func locate(text string, offset, baseLine, baseCol int) (int, int) {
	before := text[:offset]
	line := baseLine + strings.Count(before, "\n")
	if idx := strings.LastIndexByte(before, '\n'); idx >= 0 {
		return line, utf8.RuneCountInString(before[idx+1:]) + 1
	}
	return line, baseCol + utf8.RuneCountInString(before)
}
