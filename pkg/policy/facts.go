package policy

import (
	"github.com/jingkaihe/skillspec/pkg/expr"
	"github.com/jingkaihe/skillspec/pkg/skill"
)

// Facts captures the document-level figures policies evaluate against.
// Coverage percentages come from the coverage layer; zero values are fine
// when that layer has not run.
type Facts struct {
	RuleCoveragePct    float64
	FailureCoveragePct float64
}

// BuildFacts flattens a skill document into a policy evaluation environment.
// Lists are emitted as []any so the expression builtins (len, contains,
// is_empty) can operate on them.
func BuildFacts(doc *skill.Document, facts Facts) expr.Env {
	_, defaults := doc.DecisionRules.Default()
	cfg := doc.DecisionRules.Config

	return expr.Env{
		"spec_version": doc.SpecVersion,
		"skill": map[string]any{
			"name":       doc.Skill.Name,
			"version":    doc.Skill.Version,
			"purpose":    doc.Skill.Purpose,
			"owner":      doc.Skill.Owner,
			"category":   doc.Skill.Category,
			"complexity": doc.Skill.Complexity,
			"tags":       toAnyList(doc.Skill.Tags),
		},
		"counts": map[string]any{
			"inputs":        len(doc.Inputs),
			"preconditions": len(doc.Preconditions),
			"non_goals":     len(doc.NonGoals),
			"rules":         len(doc.DecisionRules.Rules),
			"steps":         len(doc.Steps),
			"failure_modes": len(doc.FailureModes),
			"edge_cases":    len(doc.EdgeCases),
		},
		"rules": map[string]any{
			"has_default":         defaults > 0,
			"match_strategy":      string(cfg.MatchStrategy),
			"conflict_resolution": string(cfg.ConflictResolution),
			"ids":                 toAnyList(doc.RuleIDs()),
		},
		"steps": map[string]any{
			"tools": toAnyList(stepTools(doc)),
		},
		"inputs": map[string]any{
			"names": toAnyList(doc.InputNames()),
		},
		"failure_modes": map[string]any{
			"codes": toAnyList(doc.FailureCodes()),
		},
		"coverage": map[string]any{
			"rule_pct":    facts.RuleCoveragePct,
			"failure_pct": facts.FailureCoveragePct,
		},
	}
}

// stepTools returns the distinct tools bound by steps, in first-use order.
func stepTools(doc *skill.Document) []string {
	seen := map[string]bool{}
	var tools []string
	for _, step := range doc.Steps {
		if step.Tool == "" || seen[step.Tool] {
			continue
		}
		seen[step.Tool] = true
		tools = append(tools, step.Tool)
	}
	return tools
}

func toAnyList(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
