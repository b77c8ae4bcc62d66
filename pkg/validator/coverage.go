package validator

import (
	"fmt"

	"github.com/jingkaihe/skillspec/pkg/skill"
)

// CoverageStats are the structural coverage scores computed by the coverage
// layer and reused by the compliance facts environment.
type CoverageStats struct {
	RulePct    float64 `json:"rule_pct"`
	FailurePct float64 `json:"failure_pct"`
}

// runCoverageLayer checks the bipartite links between declared behavior and
// declared coverage: every non-default rule wants a covers_rule reference,
// every failure code wants a covers_failure reference. Links come from edge
// cases and output contract fields. Pure identifier-set arithmetic, no
// expression evaluation.
func runCoverageLayer(doc *skill.Document) ([]Finding, CoverageStats) {
	var findings []Finding

	ruleIDs := map[string]bool{}
	for _, r := range doc.DecisionRules.Rules {
		ruleIDs[r.ID] = true
	}
	failureCodes := map[string]bool{}
	for _, fm := range doc.FailureModes {
		failureCodes[fm.Code] = true
	}

	coveredRules := map[string]bool{}
	coveredFailures := map[string]bool{}

	link := func(path, label, rule, failure string) {
		if rule != "" {
			if ruleIDs[rule] {
				coveredRules[rule] = true
			} else {
				findings = append(findings, gap(SeverityError, path,
					fmt.Sprintf("%s references unknown rule: %s", label, rule), ""))
			}
		}
		if failure != "" {
			if failureCodes[failure] {
				coveredFailures[failure] = true
			} else {
				findings = append(findings, gap(SeverityError, path,
					fmt.Sprintf("%s references unknown failure: %s", label, failure), ""))
			}
		}
	}

	for i, ec := range doc.EdgeCases {
		link(fmt.Sprintf("edge_cases[%d]", i),
			fmt.Sprintf("Edge case '%s'", ec.Case), ec.CoversRule, ec.CoversFailure)
	}
	for i, field := range doc.OutputContract.Success {
		link(fmt.Sprintf("output_contract.success[%d]", i),
			fmt.Sprintf("Contract field '%s'", field.Name), field.CoversRule, field.CoversFailure)
	}
	for i, field := range doc.OutputContract.Failure {
		link(fmt.Sprintf("output_contract.failure[%d]", i),
			fmt.Sprintf("Contract field '%s'", field.Name), field.CoversRule, field.CoversFailure)
	}

	nonDefault := doc.DecisionRules.NonDefault()
	for i, rule := range doc.DecisionRules.Rules {
		if rule.IsDefault || coveredRules[rule.ID] {
			continue
		}
		findings = append(findings, gap(SeverityWarning,
			fmt.Sprintf("decision_rules.rules[%d]", i),
			fmt.Sprintf("Rule '%s' is not covered by any edge case or contract field", rule.ID),
			fmt.Sprintf("Add an edge case with 'covers_rule: %s'", rule.ID)))
	}
	for i, fm := range doc.FailureModes {
		if coveredFailures[fm.Code] {
			continue
		}
		findings = append(findings, gap(SeverityWarning,
			fmt.Sprintf("failure_modes[%d]", i),
			fmt.Sprintf("Failure mode '%s' is not covered by any edge case or contract field", fm.Code),
			fmt.Sprintf("Add an edge case with 'covers_failure: %s'", fm.Code)))
	}

	stats := CoverageStats{
		RulePct:    pct(countCovered(nonDefault, coveredRules), len(nonDefault)),
		FailurePct: pct(len(coveredFailures), len(doc.FailureModes)),
	}
	return findings, stats
}

func gap(severity, path, message, suggestion string) Finding {
	return Finding{
		Layer:      LayerCoverage,
		Code:       CodeCoverageGap,
		Severity:   severity,
		Path:       path,
		Message:    message,
		Suggestion: suggestion,
	}
}

func countCovered(rules []skill.Rule, covered map[string]bool) int {
	n := 0
	for _, r := range rules {
		if covered[r.ID] {
			n++
		}
	}
	return n
}

// pct is the covered share as a percentage; full marks when nothing needs
// covering.
func pct(covered, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(covered) / float64(total) * 100
}
