package validator

import (
	"fmt"
	"strings"

	"github.com/jingkaihe/skillspec/pkg/expr"
	"github.com/jingkaihe/skillspec/pkg/skill"
)

// SpecVersions lists the known document format versions, oldest first.
var SpecVersions = []string{"skill-spec/1.0", "skill-spec/1.1", "skill-spec/1.2"}

// LatestSpecVersion is the version new documents should declare.
const LatestSpecVersion = "skill-spec/1.2"

const (
	maxSkillNameLen = 64
	minPurposeLen   = 10
	maxPurposeLen   = 1024
)

// sectionSuggestions maps a missing required section to a fix hint.
var sectionSuggestions = map[string]string{
	"skill":           "Add a 'skill' section with name, version, purpose, and owner",
	"inputs":          "Add an 'inputs' section with at least one input definition",
	"preconditions":   "Add a 'preconditions' section listing prerequisites",
	"non_goals":       "Add a 'non_goals' section stating what the skill does NOT do",
	"decision_rules":  "Add 'decision_rules' section with explicit conditions",
	"steps":           "Add a 'steps' section with execution flow",
	"output_contract": "Add 'output_contract' with format and schema",
	"failure_modes":   "Add 'failure_modes' section with error definitions",
	"edge_cases":      "Add 'edge_cases' section covering boundary conditions",
}

// schemaLayer validates document structure: required sections, field shapes,
// identifier conventions, rule set integrity and expression syntax.
type schemaLayer struct {
	findings []Finding
}

func runSchemaLayer(doc *skill.Document) []Finding {
	l := &schemaLayer{}
	broken := l.checkParseIssues(doc)
	l.checkSpecVersion(doc)
	l.checkSections(doc, broken)
	l.checkHeader(doc)
	l.checkInputs(doc)
	l.checkProseList(doc, "preconditions", doc.Preconditions)
	l.checkProseList(doc, "non_goals", doc.NonGoals)
	l.checkRules(doc)
	l.checkSteps(doc)
	l.checkContract(doc)
	l.checkFailureModes(doc)
	l.checkEdgeCases(doc)
	l.checkExpressions(doc)
	return l.findings
}

func (l *schemaLayer) err(path, format string, args ...any) *Finding {
	return l.add(SeverityError, path, fmt.Sprintf(format, args...))
}

func (l *schemaLayer) warn(path, format string, args ...any) *Finding {
	return l.add(SeverityWarning, path, fmt.Sprintf(format, args...))
}

func (l *schemaLayer) add(severity, path, message string) *Finding {
	l.findings = append(l.findings, Finding{
		Layer:    LayerSchema,
		Code:     CodeSchemaError,
		Severity: severity,
		Path:     path,
		Message:  message,
	})
	return &l.findings[len(l.findings)-1]
}

// checkParseIssues surfaces section decode problems recorded by the parser
// and returns the set of top-level sections they belong to, so emptiness
// checks do not double-report.
func (l *schemaLayer) checkParseIssues(doc *skill.Document) map[string]bool {
	broken := map[string]bool{}
	for _, issue := range doc.Issues() {
		section := issue.Path
		if i := strings.IndexAny(section, ".["); i >= 0 {
			section = section[:i]
		}
		broken[section] = true

		f := l.err(issue.Path, "%s", issue.Message)
		f.Line = issue.Line
		f.Column = issue.Column
	}
	return broken
}

func (l *schemaLayer) checkSpecVersion(doc *skill.Document) {
	if !doc.Has("spec_version") {
		l.err("spec_version", "Missing required field: spec_version").
			Suggestion = fmt.Sprintf("Add 'spec_version: %q'", LatestSpecVersion)
		return
	}
	for _, v := range SpecVersions {
		if doc.SpecVersion == v {
			return
		}
	}
	l.warn("spec_version", "Unknown spec version: %s", doc.SpecVersion).
		Suggestion = fmt.Sprintf("Use one of %s", strings.Join(SpecVersions, ", "))
}

func (l *schemaLayer) checkSections(doc *skill.Document, broken map[string]bool) {
	for _, section := range skill.RequiredSections {
		if !doc.Has(section) {
			l.err(section, "Missing required section: %s", section).
				Suggestion = sectionSuggestions[section]
			continue
		}
		if broken[section] {
			continue
		}
		if null, empty := sectionState(doc, section); null {
			l.err(section, "Section '%s' is null", section).
				Suggestion = fmt.Sprintf("Provide valid content for '%s'", section)
		} else if empty {
			l.err(section, "Section '%s' is empty", section).
				Suggestion = fmt.Sprintf("Add at least one item to '%s'", section)
		}
	}
}

// sectionState reports whether a present section decoded to a null value or
// an empty collection. List sections distinguish `section:` (null) from
// `section: []` (empty); mapping sections only report empty.
func sectionState(doc *skill.Document, section string) (null, empty bool) {
	switch section {
	case "skill":
		return false, doc.Skill.IsZero()
	case "inputs":
		return doc.Inputs == nil, len(doc.Inputs) == 0
	case "preconditions":
		return doc.Preconditions == nil, len(doc.Preconditions) == 0
	case "non_goals":
		return doc.NonGoals == nil, len(doc.NonGoals) == 0
	case "decision_rules":
		return false, len(doc.DecisionRules.Rules) == 0
	case "steps":
		return doc.Steps == nil, len(doc.Steps) == 0
	case "output_contract":
		return false, len(doc.OutputContract.Success) == 0 && len(doc.OutputContract.Failure) == 0
	case "failure_modes":
		return doc.FailureModes == nil, len(doc.FailureModes) == 0
	case "edge_cases":
		return doc.EdgeCases == nil, len(doc.EdgeCases) == 0
	}
	return false, false
}

func (l *schemaLayer) checkHeader(doc *skill.Document) {
	h := doc.Skill
	if !doc.Has("skill") || h.IsZero() {
		return
	}

	switch {
	case h.Name == "":
		l.err("skill.name", "Skill name is required")
	case !skill.IsKebabCase(h.Name):
		l.warn("skill.name", "Skill name must be kebab-case (e.g., 'extract-api-contract'), got: %s", h.Name).
			Suggestion = fmt.Sprintf("Rename to %q", skill.ToKebabCase(h.Name))
	case len(h.Name) > maxSkillNameLen:
		l.err("skill.name", "Skill name must be 1-%d characters, got: %d", maxSkillNameLen, len(h.Name))
	}

	switch {
	case h.Version == "":
		l.err("skill.version", "Skill version is required")
	case !skill.IsSemver(h.Version):
		l.err("skill.version", "Version must follow semver (e.g., '1.0.0'), got: %s", h.Version)
	}

	switch {
	case h.Purpose == "":
		l.err("skill.purpose", "Skill purpose is required")
	case len(h.Purpose) < minPurposeLen:
		l.err("skill.purpose", "Purpose must be at least %d characters, got: %d", minPurposeLen, len(h.Purpose))
	case len(h.Purpose) > maxPurposeLen:
		l.err("skill.purpose", "Purpose must be at most %d characters, got: %d", maxPurposeLen, len(h.Purpose))
	}

	if h.Category != "" && !contains(skill.Categories, h.Category) {
		l.err("skill.category", "Category must be one of %s, got: %s",
			strings.Join(skill.Categories, ", "), h.Category)
	}
	if h.Complexity != "" && !contains(skill.Complexities, h.Complexity) {
		l.err("skill.complexity", "Complexity must be one of %s, got: %s",
			strings.Join(skill.Complexities, ", "), h.Complexity)
	}
	for i, tag := range h.Tags {
		if !skill.IsKebabCase(tag) {
			l.warn(fmt.Sprintf("skill.tags[%d]", i), "Tag must be kebab-case, got: %s", tag)
		}
	}
}

func (l *schemaLayer) checkInputs(doc *skill.Document) {
	seen := map[string]int{}
	for i, in := range doc.Inputs {
		path := fmt.Sprintf("inputs[%d]", i)
		switch {
		case in.Name == "":
			l.err(path+".name", "Input name is required")
		case !skill.IsSnakeCase(in.Name):
			l.warn(path+".name", "Input name must be snake_case (e.g., 'user_input'), got: %s", in.Name)
		}
		if in.Name != "" {
			if first, dup := seen[in.Name]; dup {
				l.err(path+".name", "Duplicate input name %q (first declared at inputs[%d])", in.Name, first)
			} else {
				seen[in.Name] = i
			}
		}

		switch {
		case in.Type == "":
			l.err(path+".type", "Input type is required").
				Suggestion = fmt.Sprintf("Use one of %s", strings.Join(skill.InputTypes, ", "))
		case !contains(skill.InputTypes, in.Type):
			l.err(path+".type", "Input type must be one of %s, got: %s",
				strings.Join(skill.InputTypes, ", "), in.Type)
		}
	}
}

func (l *schemaLayer) checkProseList(doc *skill.Document, section string, items []string) {
	for i, item := range items {
		if strings.TrimSpace(item) == "" {
			l.err(fmt.Sprintf("%s[%d]", section, i), "Entry must be a non-empty string")
		}
	}
}

func (l *schemaLayer) checkRules(doc *skill.Document) {
	dr := doc.DecisionRules
	if !doc.Has("decision_rules") || len(dr.Rules) == 0 {
		return
	}

	if !validMatchStrategy(dr.Config.MatchStrategy) {
		l.err("decision_rules._config.match_strategy",
			"match_strategy must be first_match, priority or all_match, got: %s", dr.Config.MatchStrategy)
	}
	if !validConflictResolution(dr.Config.ConflictResolution) {
		l.err("decision_rules._config.conflict_resolution",
			"conflict_resolution must be error, warn or first_wins, got: %s", dr.Config.ConflictResolution)
	}

	_, defaults := dr.Default()
	if defaults == 0 {
		f := l.err("decision_rules", "No default rule declared")
		f.Code = CodeMissingDefaultRule
		f.Suggestion = "Mark exactly one fallback rule with 'is_default: true'"
	} else if defaults > 1 {
		f := l.err("decision_rules", "%d rules declare is_default: true, want exactly one", defaults)
		f.Code = CodeMultipleDefaultRules
	}

	seen := map[string]int{}
	for i, rule := range dr.Rules {
		path := fmt.Sprintf("decision_rules.rules[%d]", i)

		switch {
		case rule.ID == "":
			l.err(path+".id", "Rule ID is required")
		case !skill.IsSnakeCase(rule.ID):
			l.warn(path+".id", "Rule ID must be snake_case (e.g., 'rule_validation'), got: %s", rule.ID)
		}
		if rule.ID != "" {
			if first, dup := seen[rule.ID]; dup {
				l.err(path+".id", "Duplicate rule ID %q (first declared at decision_rules.rules[%d])", rule.ID, first)
			} else {
				seen[rule.ID] = i
			}
		}

		if rule.Priority < 0 {
			l.err(path+".priority", "Priority must be >= 0, got: %d", rule.Priority)
		}

		if rule.IsDefault && rule.When != "" {
			l.err(path+".when", "Default rule must not declare a 'when' condition").
				Suggestion = "The default rule fires when no other rule matches"
		}
		if !rule.IsDefault && rule.When == "" {
			l.err(path+".when", "Non-default rule must declare a 'when' condition").
				Suggestion = "Add a 'when' expression or mark the rule 'is_default: true'"
		}

		l.checkOutcome(path+".then", rule.Then)
	}
}

func (l *schemaLayer) checkOutcome(path string, o skill.Outcome) {
	if o.Status == "" && o.Action == "" {
		l.err(path, "Rule outcome must declare a status or an action")
		return
	}
	if o.Status != "" && !skill.IsUpperSnakeCase(o.Status) {
		l.warn(path+".status", "Status must be UPPER_SNAKE_CASE (e.g., 'ACCEPTED'), got: %s", o.Status)
	}
	if o.Code != "" && !skill.IsUpperSnakeCase(o.Code) {
		l.warn(path+".code", "Code must be UPPER_SNAKE_CASE (e.g., 'EMPTY_INPUT'), got: %s", o.Code)
	}
}

func (l *schemaLayer) checkSteps(doc *skill.Document) {
	seen := map[string]int{}
	for i, step := range doc.Steps {
		path := fmt.Sprintf("steps[%d]", i)

		switch {
		case step.ID == "":
			l.err(path+".id", "Step ID is required")
		case !skill.IsSnakeCase(step.ID):
			l.warn(path+".id", "Step ID must be snake_case (e.g., 'validate_input'), got: %s", step.ID)
		}
		if step.ID != "" {
			if first, dup := seen[step.ID]; dup {
				l.err(path+".id", "Duplicate step ID %q (first declared at steps[%d])", step.ID, first)
			} else {
				seen[step.ID] = i
			}
		}

		if strings.TrimSpace(step.Action) == "" {
			l.err(path+".action", "Step action is required")
		}
		if step.Produces != "" && !skill.IsSnakeCase(step.Produces) {
			l.warn(path+".produces", "Artifact name must be snake_case, got: %s", step.Produces)
		}
	}
}

func (l *schemaLayer) checkContract(doc *skill.Document) {
	for _, side := range []struct {
		name   string
		fields []skill.ContractField
	}{
		{"success", doc.OutputContract.Success},
		{"failure", doc.OutputContract.Failure},
	} {
		for i, field := range side.fields {
			path := fmt.Sprintf("output_contract.%s[%d]", side.name, i)
			switch {
			case field.Name == "":
				l.err(path+".name", "Contract field name is required")
			case !skill.IsSnakeCase(field.Name):
				l.warn(path+".name", "Contract field name must be snake_case, got: %s", field.Name)
			}
			if field.Type == "" {
				l.err(path+".type", "Contract field type is required")
			}
		}
	}
}

func (l *schemaLayer) checkFailureModes(doc *skill.Document) {
	seen := map[string]int{}
	for i, fm := range doc.FailureModes {
		path := fmt.Sprintf("failure_modes[%d]", i)
		switch {
		case fm.Code == "":
			l.err(path+".code", "Failure code is required")
		case !skill.IsUpperSnakeCase(fm.Code):
			l.warn(path+".code", "Error code must be UPPER_SNAKE_CASE (e.g., 'EMPTY_INPUT'), got: %s", fm.Code)
		}
		if fm.Code != "" {
			if first, dup := seen[fm.Code]; dup {
				l.err(path+".code", "Duplicate failure code %q (first declared at failure_modes[%d])", fm.Code, first)
			} else {
				seen[fm.Code] = i
			}
		}
	}
}

func (l *schemaLayer) checkEdgeCases(doc *skill.Document) {
	for i, ec := range doc.EdgeCases {
		path := fmt.Sprintf("edge_cases[%d]", i)
		if strings.TrimSpace(ec.Case) == "" {
			l.err(path+".case", "Edge case description is required")
		}
		if strings.TrimSpace(ec.Handling) == "" {
			l.err(path+".handling", "Edge case handling is required")
		}
	}
}

// checkExpressions parses every expression string in the document. Syntax
// failures become EXPRESSION_SYNTAX_ERROR findings at the field's document
// position; the message carries the in-expression position.
func (l *schemaLayer) checkExpressions(doc *skill.Document) {
	for _, field := range doc.ExpressionFields() {
		if _, err := expr.Parse(field.Text); err != nil {
			l.findings = append(l.findings, Finding{
				Layer:    LayerSchema,
				Code:     CodeExpressionSyntaxError,
				Severity: SeverityError,
				Path:     field.Path,
				Message:  fmt.Sprintf("Invalid expression: %s", err),
				Line:     field.Line,
				Column:   field.Column,
			})
		}
	}
}

func validMatchStrategy(s skill.MatchStrategy) bool {
	switch s {
	case skill.MatchFirstMatch, skill.MatchPriority, skill.MatchAllMatch:
		return true
	}
	return false
}

func validConflictResolution(c skill.ConflictResolution) bool {
	switch c {
	case skill.ConflictError, skill.ConflictWarn, skill.ConflictFirstWins:
		return true
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
