// Package policy loads organization compliance policies and evaluates them
// against skill documents. Policy rules share the expression grammar of
// decision rules but run over document facts (counts, declared names,
// coverage figures) rather than a runtime environment.
package policy

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillspec/pkg/expr"
	"github.com/jingkaihe/skillspec/pkg/skill"
)

// Severities a policy rule may declare.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Meta identifies a policy set.
type Meta struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Rule is one compliance rule. Exactly one of Require and Forbid must be
// set: a rule with Require is violated when the expression is false, a rule
// with Forbid is violated when it is true. AppliesTo gates the rule; empty
// means always.
type Rule struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	AppliesTo   string `yaml:"applies_to,omitempty" json:"applies_to,omitempty"`
	Require     string `yaml:"require,omitempty" json:"require,omitempty"`
	Forbid      string `yaml:"forbid,omitempty" json:"forbid,omitempty"`
	Severity    string `yaml:"severity,omitempty" json:"severity,omitempty"`
	Message     string `yaml:"message,omitempty" json:"message,omitempty"`
}

// Set is a loaded policy file.
type Set struct {
	Policy Meta   `yaml:"policy" json:"policy"`
	Rules  []Rule `yaml:"rules" json:"rules"`

	source string
}

// Source returns the file the set was loaded from, if any.
func (s *Set) Source() string {
	return s.source
}

// Parse decodes a policy document. Unknown fields are rejected so typos in
// policy files surface instead of silently disabling rules.
func Parse(data []byte) (*Set, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "malformed policy file")
	}
	if raw == nil {
		return nil, errors.New("malformed policy file: empty document")
	}

	var set Set
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &set,
		TagName:     "yaml",
		ErrorUnused: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build policy decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "malformed policy file")
	}

	for i := range set.Rules {
		if set.Rules[i].Severity == "" {
			set.Rules[i].Severity = SeverityError
		}
	}
	return &set, nil
}

// Load reads and parses a policy file from disk.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read policy %s", path)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "policy %s", path)
	}
	set.source = path
	return set, nil
}

// Issue is a problem with the policy set itself (not with a validated
// document).
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Syntax  bool   `json:"syntax,omitempty"`
}

// Check validates the policy set's own shape: rule ids, severities, the
// require/forbid contract and expression syntax.
func (s *Set) Check() []Issue {
	var issues []Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if s.Policy.Name == "" {
		add("policy.name", "policy name is required")
	}

	seen := map[string]bool{}
	for i, rule := range s.Rules {
		path := fmt.Sprintf("rules[%d]", i)

		switch {
		case rule.ID == "":
			add(path+".id", "rule id is required")
		case !skill.IsSnakeCase(rule.ID):
			add(path+".id", "rule id %q must be snake_case", rule.ID)
		case seen[rule.ID]:
			add(path+".id", "duplicate rule id %q", rule.ID)
		default:
			seen[rule.ID] = true
		}

		if rule.Require == "" && rule.Forbid == "" {
			add(path, "rule must declare require or forbid")
		}
		if rule.Require != "" && rule.Forbid != "" {
			add(path, "rule cannot declare both require and forbid")
		}
		if rule.Severity != SeverityError && rule.Severity != SeverityWarning {
			add(path+".severity", "severity must be error or warning, got %q", rule.Severity)
		}

		for field, source := range map[string]string{
			"applies_to": rule.AppliesTo,
			"require":    rule.Require,
			"forbid":     rule.Forbid,
		} {
			if source == "" {
				continue
			}
			if _, err := expr.Parse(source); err != nil {
				issues = append(issues, Issue{
					Path:    fmt.Sprintf("%s.%s", path, field),
					Message: err.Error(),
					Syntax:  true,
				})
			}
		}
	}
	return issues
}

// Violation is a policy rule a document failed.
type Violation struct {
	RuleID   string `json:"rule_id"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// EvalFault records expression faults hit while evaluating one rule against
// the facts; the rule counts as not violated.
type EvalFault struct {
	RuleID string       `json:"rule_id"`
	Field  string       `json:"field"`
	Faults []expr.Fault `json:"faults"`
}

// Evaluate runs every rule against a document-fact environment. Rules whose
// applies_to is false are skipped; expression faults suppress the rule and
// are returned for diagnostic reporting.
func (s *Set) Evaluate(env expr.Env) ([]Violation, []EvalFault) {
	var violations []Violation
	var faults []EvalFault

	record := func(rule Rule, field string, fs []expr.Fault) {
		faults = append(faults, EvalFault{RuleID: rule.ID, Field: field, Faults: fs})
	}

	for _, rule := range s.Rules {
		if rule.AppliesTo != "" {
			parsed, err := expr.Parse(rule.AppliesTo)
			if err != nil {
				continue // surfaced by Check
			}
			applies, fs := parsed.EvalBool(env)
			if len(fs) > 0 {
				record(rule, "applies_to", fs)
				continue
			}
			if !applies {
				continue
			}
		}

		violated := false
		switch {
		case rule.Require != "":
			parsed, err := expr.Parse(rule.Require)
			if err != nil {
				continue
			}
			holds, fs := parsed.EvalBool(env)
			if len(fs) > 0 {
				record(rule, "require", fs)
				continue
			}
			violated = !holds
		case rule.Forbid != "":
			parsed, err := expr.Parse(rule.Forbid)
			if err != nil {
				continue
			}
			holds, fs := parsed.EvalBool(env)
			if len(fs) > 0 {
				record(rule, "forbid", fs)
				continue
			}
			violated = holds
		}

		if violated {
			violations = append(violations, Violation{
				RuleID:   rule.ID,
				Message:  violationMessage(rule),
				Severity: rule.Severity,
			})
		}
	}
	return violations, faults
}

func violationMessage(rule Rule) string {
	if rule.Message != "" {
		return rule.Message
	}
	if rule.Require != "" {
		return fmt.Sprintf("required condition does not hold: %s", rule.Require)
	}
	return fmt.Sprintf("forbidden condition holds: %s", rule.Forbid)
}
