// Package skill defines the structured skill document model: a YAML document
// describing an automated capability through its inputs, preconditions,
// decision rules, execution steps, output contract, failure modes and edge
// cases. The package parses documents (including legacy decision_rules
// shapes), serializes them back to canonical YAML and resolves which decision
// rule fires for a given variable environment.
package skill

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MatchStrategy selects how decision rules are matched against an environment.
type MatchStrategy string

const (
	MatchFirstMatch MatchStrategy = "first_match"
	MatchPriority   MatchStrategy = "priority"
	MatchAllMatch   MatchStrategy = "all_match"
)

// ConflictResolution governs what happens when several matching rules would
// produce different outcomes.
type ConflictResolution string

const (
	ConflictError     ConflictResolution = "error"
	ConflictWarn      ConflictResolution = "warn"
	ConflictFirstWins ConflictResolution = "first_wins"
)

// InputTypes are the allowed values for Input.Type.
var InputTypes = []string{"string", "number", "boolean", "list", "object"}

// Categories are the allowed values for Header.Category.
var Categories = []string{
	"documentation", "analysis", "generation", "transformation",
	"validation", "orchestration", "other",
}

// Complexities are the allowed values for Header.Complexity.
var Complexities = []string{"low", "standard", "advanced"}

// Header is the skill identity section.
type Header struct {
	Name       string   `yaml:"name" json:"name"`
	Version    string   `yaml:"version" json:"version"`
	Purpose    string   `yaml:"purpose" json:"purpose"`
	Owner      string   `yaml:"owner,omitempty" json:"owner,omitempty"`
	Tags       []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Category   string   `yaml:"category,omitempty" json:"category,omitempty"`
	Complexity string   `yaml:"complexity,omitempty" json:"complexity,omitempty"`
}

// IsZero reports whether the header carries no field at all.
func (h Header) IsZero() bool {
	return h.Name == "" && h.Version == "" && h.Purpose == "" && h.Owner == "" &&
		len(h.Tags) == 0 && h.Category == "" && h.Complexity == ""
}

// Input declares a single input parameter.
type Input struct {
	Name        string         `yaml:"name" json:"name"`
	Type        string         `yaml:"type" json:"type"`
	Required    *bool          `yaml:"required,omitempty" json:"required,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Default     any            `yaml:"default,omitempty" json:"default,omitempty"`
	Constraints map[string]any `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// IsRequired reports whether the input is required. Inputs default to
// required when the field is omitted.
func (i Input) IsRequired() bool {
	return i.Required == nil || *i.Required
}

// Condition is an expression string. YAML booleans are accepted and
// canonicalized to "true" / "false" so legacy documents keep working.
type Condition string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!str":
		*c = Condition(value.Value)
		return nil
	case "!!bool":
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		if b {
			*c = "true"
		} else {
			*c = "false"
		}
		return nil
	case "!!null":
		*c = ""
		return nil
	}
	return errors.Errorf("line %d: condition must be an expression string, got %s", value.Line, value.Tag)
}

// Outcome is the `then` part of a decision rule. Extra keys are preserved
// for round-tripping.
type Outcome struct {
	Status string         `yaml:"status,omitempty" json:"status,omitempty"`
	Code   string         `yaml:"code,omitempty" json:"code,omitempty"`
	Action string         `yaml:"action,omitempty" json:"action,omitempty"`
	Path   string         `yaml:"path,omitempty" json:"path,omitempty"`
	Log    string         `yaml:"log,omitempty" json:"log,omitempty"`
	Extra  map[string]any `yaml:",inline" json:"extra,omitempty"`
}

// IsZero reports whether the outcome carries no recognized field at all.
func (o Outcome) IsZero() bool {
	return o.Status == "" && o.Code == "" && o.Action == "" && o.Path == "" && o.Log == "" && len(o.Extra) == 0
}

// Equal reports whether two outcomes describe the same result. Identical
// outcomes from different rules are not a conflict.
func (o Outcome) Equal(other Outcome) bool {
	return o.Status == other.Status &&
		o.Code == other.Code &&
		o.Action == other.Action &&
		o.Path == other.Path &&
		o.Log == other.Log
}

// Rule is a single decision rule.
type Rule struct {
	ID        string    `yaml:"id" json:"id"`
	Priority  int       `yaml:"priority" json:"priority"`
	IsDefault bool      `yaml:"is_default,omitempty" json:"is_default,omitempty"`
	When      Condition `yaml:"when,omitempty" json:"when,omitempty"`
	Then      Outcome   `yaml:"then" json:"then"`

	generatedID bool
}

// HasGeneratedID reports whether the rule id was auto-assigned during legacy
// format normalization.
func (r Rule) HasGeneratedID() bool {
	return r.generatedID
}

// RulesConfig is the `_config` block of decision_rules.
type RulesConfig struct {
	MatchStrategy      MatchStrategy      `yaml:"match_strategy,omitempty" json:"match_strategy,omitempty"`
	ConflictResolution ConflictResolution `yaml:"conflict_resolution,omitempty" json:"conflict_resolution,omitempty"`
}

func (c RulesConfig) withDefaults() RulesConfig {
	if c.MatchStrategy == "" {
		c.MatchStrategy = MatchFirstMatch
	}
	if c.ConflictResolution == "" {
		c.ConflictResolution = ConflictError
	}
	return c
}

// DecisionRules holds the rule matching configuration and the rules
// themselves. Three YAML shapes are accepted:
//
//  1. canonical: {_config: {...}, rules: [...]}
//  2. legacy keyed: {_config: {...}, rule_id: {...}, ...} where keys are ids
//  3. legacy list: [{...}, {...}]
//
// Legacy shapes are normalized at parse time; rules without an id get a
// generated one (rule_0, rule_1, ... in document order).
type DecisionRules struct {
	Config RulesConfig `json:"_config"`
	Rules  []Rule      `json:"rules"`

	legacyFormat string
}

// LegacyFormat returns "keyed" or "list" when the document used a legacy
// decision_rules shape, and "" for the canonical one.
func (dr DecisionRules) LegacyFormat() string {
	return dr.legacyFormat
}

// Default returns the default rule and how many rules claim to be it.
func (dr DecisionRules) Default() (*Rule, int) {
	var found *Rule
	count := 0
	for i := range dr.Rules {
		if dr.Rules[i].IsDefault {
			if found == nil {
				found = &dr.Rules[i]
			}
			count++
		}
	}
	return found, count
}

// NonDefault returns the rules that are not the default, in document order.
func (dr DecisionRules) NonDefault() []Rule {
	out := make([]Rule, 0, len(dr.Rules))
	for _, r := range dr.Rules {
		if !r.IsDefault {
			out = append(out, r)
		}
	}
	return out
}

// UnmarshalYAML implements yaml.Unmarshaler, accepting the canonical and
// both legacy shapes.
func (dr *DecisionRules) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var rules []Rule
		if err := value.Decode(&rules); err != nil {
			return err
		}
		dr.Rules = assignGeneratedIDs(rules)
		dr.Config = RulesConfig{}.withDefaults()
		dr.legacyFormat = "list"
		return nil

	case yaml.MappingNode:
		if node := mappingValue(value, "rules"); node != nil {
			var rules []Rule
			if err := node.Decode(&rules); err != nil {
				return err
			}
			dr.Rules = assignGeneratedIDs(rules)
			dr.Config = decodeRulesConfig(value)
			dr.legacyFormat = ""
			return nil
		}

		var rules []Rule
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i].Value
			if key == "_config" {
				continue
			}
			var rule Rule
			if err := value.Content[i+1].Decode(&rule); err != nil {
				return errors.Wrapf(err, "rule %q", key)
			}
			if rule.ID == "" {
				rule.ID = key
			}
			rules = append(rules, rule)
		}
		dr.Rules = rules
		dr.Config = decodeRulesConfig(value)
		dr.legacyFormat = "keyed"
		return nil
	}

	return errors.Errorf("line %d: decision_rules must be a mapping or a list", value.Line)
}

// MarshalYAML implements yaml.Marshaler, always emitting the canonical shape.
func (dr DecisionRules) MarshalYAML() (any, error) {
	type canonical struct {
		Config RulesConfig `yaml:"_config"`
		Rules  []Rule      `yaml:"rules"`
	}
	return canonical{Config: dr.Config.withDefaults(), Rules: dr.Rules}, nil
}

func decodeRulesConfig(mapping *yaml.Node) RulesConfig {
	cfg := RulesConfig{}
	if node := mappingValue(mapping, "_config"); node != nil {
		// best effort; shape problems surface as schema findings
		_ = node.Decode(&cfg)
	}
	return cfg.withDefaults()
}

func assignGeneratedIDs(rules []Rule) []Rule {
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = fmt.Sprintf("rule_%d", i)
			rules[i].generatedID = true
		}
	}
	return rules
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// Step is a single execution step.
type Step struct {
	ID        string    `yaml:"id" json:"id"`
	Action    string    `yaml:"action" json:"action"`
	Tool      string    `yaml:"tool,omitempty" json:"tool,omitempty"`
	BasedOn   []string  `yaml:"based_on,omitempty" json:"based_on,omitempty"`
	Produces  string    `yaml:"produces,omitempty" json:"produces,omitempty"`
	Condition Condition `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// Artifact returns the name this step's output is known by: the produces
// override when present, otherwise "<id>_output".
func (s Step) Artifact() string {
	if s.Produces != "" {
		return s.Produces
	}
	return s.ID + "_output"
}

// ContractField describes one field of the output contract.
type ContractField struct {
	Name          string `yaml:"name" json:"name"`
	Type          string `yaml:"type" json:"type"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
	CoversRule    string `yaml:"covers_rule,omitempty" json:"covers_rule,omitempty"`
	CoversFailure string `yaml:"covers_failure,omitempty" json:"covers_failure,omitempty"`
}

// OutputContract declares the success and failure output shapes.
type OutputContract struct {
	Success []ContractField `yaml:"success" json:"success"`
	Failure []ContractField `yaml:"failure" json:"failure"`
}

// FailureMode is a designed failure scenario.
type FailureMode struct {
	Code        string    `yaml:"code" json:"code"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Detection   Condition `yaml:"detection,omitempty" json:"detection,omitempty"`
	Recovery    string    `yaml:"recovery,omitempty" json:"recovery,omitempty"`
	Retryable   *bool     `yaml:"retryable,omitempty" json:"retryable,omitempty"`
}

// EdgeCase is a boundary condition the skill must handle.
type EdgeCase struct {
	Case          string `yaml:"case" json:"case"`
	Handling      string `yaml:"handling" json:"handling"`
	InputExample  any    `yaml:"input_example,omitempty" json:"input_example,omitempty"`
	CoversRule    string `yaml:"covers_rule,omitempty" json:"covers_rule,omitempty"`
	CoversFailure string `yaml:"covers_failure,omitempty" json:"covers_failure,omitempty"`
}

// SkillRef points at a companion skill or tool. Bare strings are accepted as
// a shorthand for {skill: <name>}.
type SkillRef struct {
	Skill  string `yaml:"skill" json:"skill"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *SkillRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Skill = value.Value
		return nil
	}
	type plain SkillRef
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = SkillRef(p)
	return nil
}

// Scenario is a typical usage scenario.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Trigger     string `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	Description string `yaml:"description" json:"description"`
}

// Context is the optional collaboration section. Extra keys are free-form
// and preserved.
type Context struct {
	WorksWith     []SkillRef     `yaml:"works_with,omitempty" json:"works_with,omitempty"`
	Prerequisites []string       `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	Scenarios     []Scenario     `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`
	Extra         map[string]any `yaml:",inline" json:"extra,omitempty"`
}

// Document is a parsed skill document.
type Document struct {
	SpecVersion    string         `yaml:"spec_version,omitempty" json:"spec_version,omitempty"`
	Skill          Header         `yaml:"skill" json:"skill"`
	Inputs         []Input        `yaml:"inputs" json:"inputs"`
	Preconditions  []string       `yaml:"preconditions" json:"preconditions"`
	NonGoals       []string       `yaml:"non_goals" json:"non_goals"`
	DecisionRules  DecisionRules  `yaml:"decision_rules" json:"decision_rules"`
	Steps          []Step         `yaml:"steps" json:"steps"`
	OutputContract OutputContract `yaml:"output_contract" json:"output_contract"`
	FailureModes   []FailureMode  `yaml:"failure_modes" json:"failure_modes"`
	EdgeCases      []EdgeCase     `yaml:"edge_cases" json:"edge_cases"`
	Context        *Context       `yaml:"context,omitempty" json:"context,omitempty"`

	// Extra holds unknown top-level keys so they survive a round-trip.
	Extra map[string]any `yaml:",inline" json:"-"`

	source   string
	present  map[string]bool
	issues   []Issue
	prose    []Field
	exprs    []Field
	warnings []string
}

// Issue is a structural problem discovered during parsing, surfaced later by
// the schema validation layer.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Field is a located scalar field of the document: its bracketed path (e.g.
// steps[2].action), its text and the position of the value in the source.
type Field struct {
	Path   string `json:"path"`
	Text   string `json:"text"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Source returns the file path the document was loaded from, if any.
func (d *Document) Source() string {
	return d.source
}

// SetSource records where the document was loaded from.
func (d *Document) SetSource(path string) {
	d.source = path
}

// Has reports whether the given top-level section appeared in the source,
// even as an empty value.
func (d *Document) Has(section string) bool {
	return d.present[section]
}

// Issues returns structural problems found while decoding sections.
func (d *Document) Issues() []Issue {
	return d.issues
}

// ProseFields returns the located prose fields eligible for quality scanning.
func (d *Document) ProseFields() []Field {
	return d.prose
}

// ExpressionFields returns the located expression strings: rule conditions,
// preconditions, step conditions and failure detections.
func (d *Document) ExpressionFields() []Field {
	return d.exprs
}

// Warnings returns non-fatal parse notes, such as legacy format usage.
func (d *Document) Warnings() []string {
	return d.warnings
}

// InputNames returns the declared input names in document order.
func (d *Document) InputNames() []string {
	names := make([]string, 0, len(d.Inputs))
	for _, in := range d.Inputs {
		names = append(names, in.Name)
	}
	return names
}

// RuleIDs returns all rule ids in document order.
func (d *Document) RuleIDs() []string {
	ids := make([]string, 0, len(d.DecisionRules.Rules))
	for _, r := range d.DecisionRules.Rules {
		ids = append(ids, r.ID)
	}
	return ids
}

// FailureCodes returns all failure mode codes in document order.
func (d *Document) FailureCodes() []string {
	codes := make([]string, 0, len(d.FailureModes))
	for _, fm := range d.FailureModes {
		codes = append(codes, fm.Code)
	}
	return codes
}
