// Package patterns implements forbidden-phrase detection for skill prose.
//
// A pattern set holds locale-specific phrases that make instructions vague
// or non-deterministic ("as needed", "try to", 酌情). The scanner matches
// every occurrence in the scanned fields and reports the category, the
// offending text and a suggested fix.
package patterns

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Violation categories.
const (
	CategoryVagueCondition    = "VAGUE_CONDITION"
	CategoryVagueAction       = "VAGUE_ACTION"
	CategoryVagueDegree       = "VAGUE_DEGREE"
	CategoryHedgeWords        = "HEDGE_WORDS"
	CategoryWeakVerbs         = "WEAK_VERBS"
	CategoryVagueLanguage     = "VAGUE_LANGUAGE"
	CategoryIncompleteContent = "INCOMPLETE_CONTENT"
	CategoryEmptySection      = "EMPTY_SECTION"
)

// Pattern severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Pattern is one forbidden phrase. Non-regex patterns match
// case-insensitively on word boundaries where the phrase allows it (phrases
// starting or ending with non-ASCII text fall back to plain substring
// matching). Regex patterns are compiled case-insensitively and searched.
type Pattern struct {
	Pattern  string `yaml:"pattern" json:"pattern"`
	Category string `yaml:"category" json:"category"`
	Severity string `yaml:"severity" json:"severity"`
	Context  string `yaml:"context,omitempty" json:"context,omitempty"`
	Fix      string `yaml:"fix,omitempty" json:"fix,omitempty"`
	IsRegex  bool   `yaml:"regex,omitempty" json:"regex,omitempty"`

	re *regexp.Regexp
}

// Match is one occurrence of the pattern within a text.
type Match struct {
	Text  string
	Start int
	End   int
}

func (p *Pattern) compile() error {
	if p.re != nil {
		return nil
	}
	source := p.Pattern
	if !p.IsRegex {
		source = regexp.QuoteMeta(p.Pattern)
		if startsWithWordChar(p.Pattern) {
			source = `\b` + source
		}
		if endsWithWordChar(p.Pattern) {
			source += `\b`
		}
	}
	re, err := regexp.Compile("(?i)" + source)
	if err != nil {
		return errors.Wrapf(err, "invalid pattern %q", p.Pattern)
	}
	p.re = re
	return nil
}

// FindAll returns every occurrence of the pattern in text, in order. Offsets
// are byte offsets into text.
func (p *Pattern) FindAll(text string) []Match {
	if p.re == nil {
		if err := p.compile(); err != nil {
			return nil
		}
	}
	var matches []Match
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		matches = append(matches, Match{
			Text:  text[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		})
	}
	return matches
}

func startsWithWordChar(s string) bool {
	if s == "" {
		return false
	}
	return isASCIIWordChar(s[0])
}

func endsWithWordChar(s string) bool {
	if s == "" {
		return false
	}
	return isASCIIWordChar(s[len(s)-1])
}

func isASCIIWordChar(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

// Set is a named collection of patterns for one locale (or the union of
// several).
type Set struct {
	Locale   string    `yaml:"locale" json:"locale"`
	Patterns []Pattern `yaml:"patterns" json:"patterns"`
}

// Compile prepares every pattern in the set. An invalid regex fails the
// whole set.
func (s *Set) Compile() error {
	for i := range s.Patterns {
		if err := s.Patterns[i].compile(); err != nil {
			return err
		}
	}
	return nil
}

// Merge returns a set combining the receiver with other. The merged locale
// is "union" when the locales differ.
func (s *Set) Merge(other *Set) *Set {
	merged := &Set{Locale: s.Locale}
	if other.Locale != s.Locale {
		merged.Locale = LocaleUnion
	}
	merged.Patterns = append(merged.Patterns, s.Patterns...)
	merged.Patterns = append(merged.Patterns, other.Patterns...)
	return merged
}

// Supported locales for built-in pattern sets.
const (
	LocaleEnglish = "en"
	LocaleChinese = "zh"
	LocaleUnion   = "union"
)

// Builtin returns the built-in pattern set for a locale. LocaleUnion
// combines every built-in set.
func Builtin(locale string) (*Set, error) {
	switch locale {
	case LocaleEnglish, "":
		return builtinEnglish(), nil
	case LocaleChinese:
		return builtinChinese(), nil
	case LocaleUnion:
		return builtinEnglish().Merge(builtinChinese()), nil
	default:
		return nil, errors.Errorf("no built-in pattern set for locale %q", locale)
	}
}

func builtinEnglish() *Set {
	return &Set{
		Locale: LocaleEnglish,
		Patterns: []Pattern{
			{Pattern: "as needed", Category: CategoryVagueCondition, Severity: SeverityError,
				Context: "instruction", Fix: "Replace with an explicit condition"},
			{Pattern: "if appropriate", Category: CategoryVagueCondition, Severity: SeverityError,
				Context: "instruction", Fix: "Define what 'appropriate' means"},
			{Pattern: "when necessary", Category: CategoryVagueCondition, Severity: SeverityError,
				Context: "instruction", Fix: "State the exact condition"},
			{Pattern: "as required", Category: CategoryVagueCondition, Severity: SeverityError,
				Context: "instruction", Fix: "Name the requirement explicitly"},

			{Pattern: "try to", Category: CategoryWeakVerbs, Severity: SeverityError,
				Context: "action", Fix: "Remove 'try to' and state the definite action"},
			{Pattern: "attempt to", Category: CategoryWeakVerbs, Severity: SeverityError,
				Context: "action", Fix: "State the definite action"},

			{Pattern: `\bhelp\b`, Category: CategoryVagueAction, Severity: SeverityError,
				Context: "action", Fix: "Replace with the specific action", IsRegex: true},
			{Pattern: "assist", Category: CategoryVagueAction, Severity: SeverityError,
				Context: "action", Fix: "Replace with the specific action"},
			{Pattern: "handle", Category: CategoryVagueAction, Severity: SeverityWarning,
				Context: "action", Fix: "Say what handling means here"},
			{Pattern: "process accordingly", Category: CategoryVagueAction, Severity: SeverityError,
				Context: "action", Fix: "Describe the exact processing"},
			{Pattern: "deal with", Category: CategoryVagueAction, Severity: SeverityError,
				Context: "action", Fix: "Describe the exact action taken"},

			{Pattern: "generally", Category: CategoryVagueDegree, Severity: SeverityWarning,
				Context: "any", Fix: "Remove or specify the exact cases"},
			{Pattern: "typically", Category: CategoryVagueDegree, Severity: SeverityWarning,
				Context: "any", Fix: "Remove or specify the exact cases"},
			{Pattern: "usually", Category: CategoryVagueDegree, Severity: SeverityWarning,
				Context: "any", Fix: "Remove or specify the exact cases"},
			{Pattern: "often", Category: CategoryVagueDegree, Severity: SeverityWarning,
				Context: "any", Fix: "Remove or specify the exact cases"},
			{Pattern: "sometimes", Category: CategoryVagueDegree, Severity: SeverityWarning,
				Context: "any", Fix: "Remove or specify the exact cases"},

			{Pattern: `\bmight\b`, Category: CategoryHedgeWords, Severity: SeverityWarning,
				Context: "any", Fix: "State the definite outcome", IsRegex: true},
			{Pattern: `\bcould\b`, Category: CategoryHedgeWords, Severity: SeverityWarning,
				Context: "any", Fix: "State the definite outcome", IsRegex: true},
			{Pattern: "per best practice", Category: CategoryHedgeWords, Severity: SeverityWarning,
				Context: "any", Fix: "Name the practice and why it applies"},
			{Pattern: "as a best practice", Category: CategoryHedgeWords, Severity: SeverityWarning,
				Context: "any", Fix: "Name the practice and why it applies"},
			{Pattern: "should probably", Category: CategoryHedgeWords, Severity: SeverityWarning,
				Context: "any", Fix: "Decide and state the behavior"},
			{Pattern: "it is recommended", Category: CategoryHedgeWords, Severity: SeverityWarning,
				Context: "any", Fix: "State the behavior directly"},
		},
	}
}

func builtinChinese() *Set {
	return &Set{
		Locale: LocaleChinese,
		Patterns: []Pattern{
			{Pattern: "酌情", Category: CategoryVagueCondition, Severity: SeverityError,
				Context: "instruction", Fix: "Replace with an explicit condition"},
			{Pattern: "适当", Category: CategoryVagueCondition, Severity: SeverityError,
				Context: "instruction", Fix: "Define the exact criteria"},
			{Pattern: "必要时", Category: CategoryVagueCondition, Severity: SeverityError,
				Context: "instruction", Fix: "State the exact condition"},
			{Pattern: "尽量", Category: CategoryWeakVerbs, Severity: SeverityError,
				Context: "action", Fix: "State the definite action"},
			{Pattern: "一般来说", Category: CategoryVagueDegree, Severity: SeverityWarning,
				Context: "any", Fix: "Remove or specify the exact cases"},
			{Pattern: "可能", Category: CategoryHedgeWords, Severity: SeverityWarning,
				Context: "any", Fix: "State the definite outcome"},
		},
	}
}

// RelaxedMarkdown returns the reduced pattern set applied to SKILL.md
// bodies. Placeholder markers are errors; vague language is only a warning
// in documentation prose.
func RelaxedMarkdown() *Set {
	return &Set{
		Locale: LocaleEnglish,
		Patterns: []Pattern{
			{Pattern: "TODO", Category: CategoryIncompleteContent, Severity: SeverityError,
				Context: "any", Fix: "Complete the TODO item"},
			{Pattern: "TBD", Category: CategoryIncompleteContent, Severity: SeverityError,
				Context: "any", Fix: "Determine and specify the content"},
			{Pattern: "FIXME", Category: CategoryIncompleteContent, Severity: SeverityError,
				Context: "any", Fix: "Fix the issue before publishing"},
			{Pattern: "as needed", Category: CategoryVagueLanguage, Severity: SeverityWarning,
				Context: "instruction", Fix: "Consider being more specific"},
			{Pattern: "if appropriate", Category: CategoryVagueLanguage, Severity: SeverityWarning,
				Context: "instruction", Fix: "Consider defining the criteria"},
			{Pattern: `##\s+\w+\s*\n\s*\n##`, Category: CategoryEmptySection, Severity: SeverityWarning,
				Context: "structure", Fix: "Add content to the section", IsRegex: true},
		},
	}
}

// packFileName is the per-locale pattern pack naming convention inside a
// patterns directory.
func packFileName(locale string) string {
	return fmt.Sprintf("forbidden_patterns_%s.yaml", locale)
}

// LoadPack reads one pattern pack file. The file holds an optional locale
// plus a patterns list; missing severities default to warning.
func LoadPack(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read pattern pack %s", path)
	}
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, errors.Wrapf(err, "failed to parse pattern pack %s", path)
	}
	if set.Locale == "" {
		set.Locale = localeFromFileName(path)
	}
	for i := range set.Patterns {
		if set.Patterns[i].Severity == "" {
			set.Patterns[i].Severity = SeverityWarning
		}
		if set.Patterns[i].Context == "" {
			set.Patterns[i].Context = "any"
		}
		if set.Patterns[i].Fix == "" {
			set.Patterns[i].Fix = "Review and revise"
		}
	}
	if err := set.Compile(); err != nil {
		return nil, errors.Wrapf(err, "pattern pack %s", path)
	}
	return &set, nil
}

// Load resolves the active pattern set for the given locales. When dir
// contains a pack file for a locale it overrides the built-in set for that
// locale; locales without a pack fall back to the built-ins. Multiple
// locales are merged.
func Load(dir string, locales ...string) (*Set, error) {
	if len(locales) == 0 {
		locales = []string{LocaleEnglish}
	}

	var combined *Set
	for _, locale := range locales {
		set, err := loadLocale(dir, locale)
		if err != nil {
			return nil, err
		}
		if combined == nil {
			combined = set
		} else {
			combined = combined.Merge(set)
		}
	}
	if err := combined.Compile(); err != nil {
		return nil, err
	}
	return combined, nil
}

func loadLocale(dir, locale string) (*Set, error) {
	if locale == LocaleUnion {
		en, err := loadLocale(dir, LocaleEnglish)
		if err != nil {
			return nil, err
		}
		zh, err := loadLocale(dir, LocaleChinese)
		if err != nil {
			return nil, err
		}
		return en.Merge(zh), nil
	}

	if dir != "" {
		path := filepath.Join(dir, packFileName(locale))
		if _, err := os.Stat(path); err == nil {
			return LoadPack(path)
		}
	}
	return Builtin(locale)
}

func localeFromFileName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.LastIndex(base, "_"); idx >= 0 {
		return base[idx+1:]
	}
	return LocaleEnglish
}
