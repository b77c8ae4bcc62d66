package skill

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Sections lists the top-level sections of a skill document in canonical
// order. All but context are required.
var Sections = []string{
	"skill", "inputs", "preconditions", "non_goals", "decision_rules",
	"steps", "output_contract", "failure_modes", "edge_cases", "context",
}

// RequiredSections lists the sections that must be present.
var RequiredSections = Sections[:len(Sections)-1]

// Parse parses a skill document from YAML bytes. An error return means the
// document is malformed beyond recovery (unreadable YAML or a non-mapping
// top level). Recoverable section-level problems are recorded on the
// document and surfaced by schema validation.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "malformed document")
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("malformed document: empty document")
	}

	top := root.Content[0]
	if top.Kind == yaml.AliasNode && top.Alias != nil {
		top = top.Alias
	}
	if top.Kind != yaml.MappingNode {
		return nil, errors.Errorf("malformed document: top level must be a mapping, got %s", nodeKindName(top.Kind))
	}

	doc := &Document{present: map[string]bool{}}
	var drNode *yaml.Node

	for i := 0; i+1 < len(top.Content); i += 2 {
		keyNode, valueNode := top.Content[i], top.Content[i+1]
		key := keyNode.Value
		doc.present[key] = true

		switch key {
		case "spec_version":
			doc.decodeSection(valueNode, "spec_version", &doc.SpecVersion)
		case "skill":
			if doc.decodeSection(valueNode, "skill", &doc.Skill) {
				doc.checkKeys(valueNode, "skill",
					"name", "version", "purpose", "owner", "tags", "category", "complexity")
			}
		case "inputs":
			if doc.decodeSection(valueNode, "inputs", &doc.Inputs) {
				doc.checkItemKeys(valueNode, "inputs",
					"name", "type", "required", "description", "default", "constraints")
			}
		case "preconditions":
			doc.decodeSection(valueNode, "preconditions", &doc.Preconditions)
		case "non_goals":
			doc.decodeSection(valueNode, "non_goals", &doc.NonGoals)
		case "decision_rules":
			if doc.decodeSection(valueNode, "decision_rules", &doc.DecisionRules) {
				drNode = valueNode
				doc.checkRuleKeys(valueNode)
			}
		case "steps":
			if doc.decodeSection(valueNode, "steps", &doc.Steps) {
				doc.checkItemKeys(valueNode, "steps",
					"id", "action", "tool", "based_on", "produces", "condition")
			}
		case "output_contract":
			if doc.decodeSection(valueNode, "output_contract", &doc.OutputContract) {
				doc.checkKeys(valueNode, "output_contract", "success", "failure")
				for _, side := range []string{"success", "failure"} {
					if list := mappingValue(valueNode, side); list != nil {
						doc.checkItemKeys(list, "output_contract."+side,
							"name", "type", "description", "covers_rule", "covers_failure")
					}
				}
			}
		case "failure_modes":
			if doc.decodeSection(valueNode, "failure_modes", &doc.FailureModes) {
				doc.checkItemKeys(valueNode, "failure_modes",
					"code", "description", "detection", "recovery", "retryable")
			}
		case "edge_cases":
			if doc.decodeSection(valueNode, "edge_cases", &doc.EdgeCases) {
				doc.checkItemKeys(valueNode, "edge_cases",
					"case", "handling", "input_example", "covers_rule", "covers_failure")
			}
		case "context":
			doc.decodeSection(valueNode, "context", &doc.Context)
		default:
			if doc.Extra == nil {
				doc.Extra = map[string]any{}
			}
			var val any
			if err := valueNode.Decode(&val); err == nil {
				doc.Extra[key] = val
			}
		}
	}

	if format := doc.DecisionRules.LegacyFormat(); format != "" {
		doc.warnings = append(doc.warnings,
			fmt.Sprintf("decision_rules uses the legacy %s format; run \"skillspec migrate\" to normalize", format))
	}
	for _, rule := range doc.DecisionRules.Rules {
		if rule.HasGeneratedID() {
			doc.warnings = append(doc.warnings,
				fmt.Sprintf("rule without id was assigned %q; run \"skillspec migrate\" to persist ids", rule.ID))
		}
	}

	doc.collectFields(top, drNode)
	return doc, nil
}

// ParseFile loads and parses a skill document from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SetSource(path)
	return doc, nil
}

// ToYAML serializes the document back to canonical YAML. Legacy
// decision_rules shapes come out normalized; unknown top-level keys are
// preserved.
func (d *Document) ToYAML() ([]byte, error) {
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize document")
	}
	return out, nil
}

func (d *Document) decodeSection(node *yaml.Node, path string, out any) bool {
	if err := node.Decode(out); err != nil {
		d.issues = append(d.issues, Issue{
			Path:    path,
			Message: compactYAMLError(err),
			Line:    node.Line,
			Column:  node.Column,
		})
		return false
	}
	return true
}

// checkKeys records an issue for every key of a mapping node that is not in
// the allowed set.
func (d *Document) checkKeys(node *yaml.Node, path string, allowed ...string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, key := range allowed {
		allowedSet[key] = true
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		if !allowedSet[keyNode.Value] {
			d.issues = append(d.issues, Issue{
				Path:    path,
				Message: fmt.Sprintf("unknown field %q", keyNode.Value),
				Line:    keyNode.Line,
				Column:  keyNode.Column,
			})
		}
	}
}

// checkItemKeys applies checkKeys to each mapping item of a sequence node.
func (d *Document) checkItemKeys(node *yaml.Node, path string, allowed ...string) {
	if node.Kind != yaml.SequenceNode {
		return
	}
	for i, item := range node.Content {
		d.checkKeys(item, fmt.Sprintf("%s[%d]", path, i), allowed...)
	}
}

// checkRuleKeys validates rule fields across all three decision_rules shapes.
func (d *Document) checkRuleKeys(node *yaml.Node) {
	ruleFields := []string{"id", "priority", "is_default", "when", "then"}
	for i, ruleNode := range ruleNodes(node) {
		d.checkKeys(ruleNode, fmt.Sprintf("decision_rules.rules[%d]", i), ruleFields...)
	}
	if node.Kind == yaml.MappingNode {
		if cfg := mappingValue(node, "_config"); cfg != nil {
			d.checkKeys(cfg, "decision_rules._config", "match_strategy", "conflict_resolution")
		}
	}
}

// ruleNodes returns the YAML nodes of the individual rules in the same order
// the normalized Rules slice uses, for any of the three accepted shapes.
func ruleNodes(node *yaml.Node) []*yaml.Node {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Content
	case yaml.MappingNode:
		if rules := mappingValue(node, "rules"); rules != nil {
			if rules.Kind == yaml.SequenceNode {
				return rules.Content
			}
			return nil
		}
		var out []*yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "_config" {
				continue
			}
			out = append(out, node.Content[i+1])
		}
		return out
	}
	return nil
}

// collectFields gathers the located prose and expression fields used by the
// quality scanner and the schema layer's expression checks.
func (d *Document) collectFields(top, drNode *yaml.Node) {
	if skillNode := mappingValue(top, "skill"); skillNode != nil {
		d.addProse("skill.purpose", mappingValue(skillNode, "purpose"))
	}

	d.eachItem(top, "inputs", func(i int, item *yaml.Node) {
		d.addProse(fmt.Sprintf("inputs[%d].description", i), mappingValue(item, "description"))
	})

	d.eachItem(top, "non_goals", func(i int, item *yaml.Node) {
		d.addProse(fmt.Sprintf("non_goals[%d]", i), item)
	})

	d.eachItem(top, "preconditions", func(i int, item *yaml.Node) {
		d.addExpr(fmt.Sprintf("preconditions[%d]", i), item)
	})

	for i, ruleNode := range ruleNodes(drNode) {
		if ruleNode.Kind != yaml.MappingNode {
			continue
		}
		d.addExpr(fmt.Sprintf("decision_rules.rules[%d].when", i), mappingValue(ruleNode, "when"))
		if then := mappingValue(ruleNode, "then"); then != nil {
			d.addProse(fmt.Sprintf("decision_rules.rules[%d].then.action", i), mappingValue(then, "action"))
		}
	}

	d.eachItem(top, "steps", func(i int, item *yaml.Node) {
		d.addProse(fmt.Sprintf("steps[%d].action", i), mappingValue(item, "action"))
		d.addExpr(fmt.Sprintf("steps[%d].condition", i), mappingValue(item, "condition"))
	})

	d.eachItem(top, "failure_modes", func(i int, item *yaml.Node) {
		d.addProse(fmt.Sprintf("failure_modes[%d].description", i), mappingValue(item, "description"))
		d.addProse(fmt.Sprintf("failure_modes[%d].recovery", i), mappingValue(item, "recovery"))
		d.addExpr(fmt.Sprintf("failure_modes[%d].detection", i), mappingValue(item, "detection"))
	})

	d.eachItem(top, "edge_cases", func(i int, item *yaml.Node) {
		d.addProse(fmt.Sprintf("edge_cases[%d].case", i), mappingValue(item, "case"))
		d.addProse(fmt.Sprintf("edge_cases[%d].handling", i), mappingValue(item, "handling"))
	})
}

func (d *Document) eachItem(top *yaml.Node, section string, fn func(int, *yaml.Node)) {
	node := mappingValue(top, section)
	if node == nil || node.Kind != yaml.SequenceNode {
		return
	}
	for i, item := range node.Content {
		fn(i, item)
	}
}

func (d *Document) addProse(path string, node *yaml.Node) {
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag != "!!str" || node.Value == "" {
		return
	}
	d.prose = append(d.prose, Field{Path: path, Text: node.Value, Line: node.Line, Column: node.Column})
}

func (d *Document) addExpr(path string, node *yaml.Node) {
	if node == nil || node.Kind != yaml.ScalarNode || node.Value == "" {
		return
	}
	// booleans are canonicalized by Condition and still valid expressions
	if node.Tag != "!!str" && node.Tag != "!!bool" {
		return
	}
	d.exprs = append(d.exprs, Field{Path: path, Text: node.Value, Line: node.Line, Column: node.Column})
}

func compactYAMLError(err error) string {
	msg := strings.TrimPrefix(err.Error(), "yaml: unmarshal errors:\n")
	msg = strings.TrimPrefix(msg, "yaml: ")
	lines := strings.Split(msg, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "; ")
}

func nodeKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
