package validator

import (
	"fmt"

	"github.com/jingkaihe/skillspec/pkg/policy"
	"github.com/jingkaihe/skillspec/pkg/skill"
)

// runComplianceLayer evaluates external policy sets against the document
// facts. With no policies loaded the layer passes trivially. Problems with a
// policy file itself (bad shape, bad expression syntax) are findings scoped
// to the policy source, never MALFORMED_DOCUMENT.
func runComplianceLayer(doc *skill.Document, sets []*policy.Set, stats CoverageStats) []Finding {
	var findings []Finding
	env := policy.BuildFacts(doc, policy.Facts{
		RuleCoveragePct:    stats.RulePct,
		FailureCoveragePct: stats.FailurePct,
	})

	for _, set := range sets {
		label := policyLabel(set)

		issues := set.Check()
		for _, issue := range issues {
			code := CodeSchemaError
			if issue.Syntax {
				code = CodeExpressionSyntaxError
			}
			findings = append(findings, Finding{
				Layer:    LayerCompliance,
				Code:     code,
				Severity: SeverityError,
				Path:     fmt.Sprintf("%s: %s", label, issue.Path),
				Message:  issue.Message,
			})
		}
		if len(issues) > 0 {
			// a broken policy set is not evaluated
			continue
		}

		violations, faults := set.Evaluate(env)
		for _, v := range violations {
			findings = append(findings, Finding{
				Layer:    LayerCompliance,
				Code:     CodeComplianceViolation,
				Severity: v.Severity,
				Path:     fmt.Sprintf("%s: %s", label, v.RuleID),
				Message:  v.Message,
			})
		}
		for _, fault := range faults {
			for _, f := range fault.Faults {
				findings = append(findings, Finding{
					Layer:    LayerCompliance,
					Code:     CodeTypeMismatch,
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("%s: %s.%s", label, fault.RuleID, fault.Field),
					Message:  fmt.Sprintf("Rule not evaluated: %s", f.Message),
				})
			}
		}
	}
	return findings
}

func policyLabel(set *policy.Set) string {
	if set.Policy.Name != "" {
		return set.Policy.Name
	}
	if set.Source() != "" {
		return set.Source()
	}
	return "policy"
}
