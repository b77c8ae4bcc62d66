package validator

import (
	"fmt"

	"github.com/jingkaihe/skillspec/pkg/expr"
	"github.com/jingkaihe/skillspec/pkg/skill"
	"github.com/jingkaihe/skillspec/pkg/tools"
)

// builtinRoots are expression roots always available at runtime, beyond the
// document's declared inputs and step artifacts.
var builtinRoots = map[string]bool{
	"context": true,
	"env":     true,
	"output":  true,
	"now":     true,
	"this":    true,
}

// runConsistencyLayer validates cross-references: based_on back-references,
// expression variable roots, works_with registry membership and step tool
// bindings.
func runConsistencyLayer(doc *skill.Document, registry *tools.Registry) []Finding {
	var findings []Finding
	findings = append(findings, checkStepDependencies(doc)...)
	findings = append(findings, checkExpressionRoots(doc)...)
	findings = append(findings, checkToolBindings(doc, registry)...)
	findings = append(findings, checkWorksWith(doc, registry)...)
	return findings
}

// checkStepDependencies walks the steps in declared order, growing the set
// of available names (inputs, then each step's id and artifact after the
// step is checked). Forward and self references can never be in the set.
func checkStepDependencies(doc *skill.Document) []Finding {
	var findings []Finding

	available := map[string]bool{}
	for _, name := range doc.InputNames() {
		available[name] = true
	}

	for i, step := range doc.Steps {
		for _, dep := range step.BasedOn {
			if available[dep] {
				continue
			}
			findings = append(findings, Finding{
				Layer:    LayerConsistency,
				Code:     CodeConsistencyError,
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].based_on", i),
				Message: fmt.Sprintf("Step '%s' depends on '%s' which is not available at this point in the execution flow",
					step.ID, dep),
				Suggestion: "based_on may only reference declared inputs or outputs of earlier steps",
			})
		}
		available[step.ID] = true
		available[step.Artifact()] = true
	}
	return findings
}

// checkExpressionRoots verifies that every root variable referenced by an
// expression is a declared input, a step id or artifact, or a builtin
// runtime root. Unparseable expressions are skipped; the schema layer
// already reports those.
func checkExpressionRoots(doc *skill.Document) []Finding {
	declared := map[string]bool{}
	for _, name := range doc.InputNames() {
		declared[name] = true
	}
	for _, step := range doc.Steps {
		declared[step.ID] = true
		declared[step.Artifact()] = true
	}

	var findings []Finding
	for _, field := range doc.ExpressionFields() {
		parsed, err := expr.Parse(field.Text)
		if err != nil {
			continue
		}
		for _, root := range parsed.Variables() {
			if declared[root] || builtinRoots[root] {
				continue
			}
			findings = append(findings, Finding{
				Layer:      LayerConsistency,
				Code:       CodeConsistencyError,
				Severity:   SeverityError,
				Path:       field.Path,
				Message:    fmt.Sprintf("Expression references undeclared variable '%s'", root),
				Suggestion: fmt.Sprintf("Declare '%s' as an input or produce it from a step", root),
				Line:       field.Line,
				Column:     field.Column,
			})
		}
	}
	return findings
}

// checkToolBindings warns about step tools missing from the registry.
// External skills can legitimately live outside it, so this never errors.
func checkToolBindings(doc *skill.Document, registry *tools.Registry) []Finding {
	var findings []Finding
	for i, step := range doc.Steps {
		if step.Tool == "" {
			continue
		}
		if _, ok := registry.Get(step.Tool); ok {
			continue
		}
		f := Finding{
			Layer:    LayerConsistency,
			Code:     CodeConsistencyError,
			Severity: SeverityWarning,
			Path:     fmt.Sprintf("steps[%d].tool", i),
			Message:  fmt.Sprintf("Step '%s' binds unknown tool %q", step.ID, step.Tool),
		}
		if suggestion := registry.Suggest(step.Tool); suggestion != "" {
			f.Suggestion = fmt.Sprintf("Did you mean %q?", suggestion)
		}
		findings = append(findings, f)
	}
	return findings
}

func checkWorksWith(doc *skill.Document, registry *tools.Registry) []Finding {
	if doc.Context == nil {
		return nil
	}
	var findings []Finding
	for i, ref := range doc.Context.WorksWith {
		if ref.Skill == "" {
			continue
		}
		if _, ok := registry.Get(ref.Skill); ok {
			continue
		}
		f := Finding{
			Layer:    LayerConsistency,
			Code:     CodeConsistencyError,
			Severity: SeverityWarning,
			Path:     fmt.Sprintf("context.works_with[%d]", i),
			Message:  fmt.Sprintf("works_with references %q which is not in the tool registry (may be an external skill)", ref.Skill),
		}
		if suggestion := registry.Suggest(ref.Skill); suggestion != "" {
			f.Suggestion = fmt.Sprintf("Did you mean %q?", suggestion)
		}
		findings = append(findings, f)
	}
	return findings
}
