package validator

import (
	"fmt"

	"github.com/jingkaihe/skillspec/pkg/patterns"
	"github.com/jingkaihe/skillspec/pkg/skill"
)

// runQualityLayer scans the document's prose fields against the forbidden
// pattern set and, when a SKILL.md companion is supplied, applies the relaxed
// documentation checks to it.
func runQualityLayer(doc *skill.Document, scanner *patterns.Scanner, companion *skill.Companion) []Finding {
	var findings []Finding

	for _, field := range doc.ProseFields() {
		for _, v := range scanner.ScanField(field.Path, field.Text, field.Line, field.Column) {
			findings = append(findings, violationFinding(v))
		}
	}

	if companion != nil {
		findings = append(findings, checkCompanion(doc, companion)...)
	}
	return findings
}

func violationFinding(v patterns.Violation) Finding {
	return Finding{
		Layer:      LayerQuality,
		Code:       CodeQualityWarning,
		Severity:   v.Severity,
		Path:       v.Path,
		Message:    fmt.Sprintf("Found %q (pattern: %s)", v.Matched, v.Pattern),
		Suggestion: v.Fix,
		Category:   v.Category,
		Line:       v.Line,
		Column:     v.Column,
	}
}

const maxCompanionDescriptionLen = 1024

// checkCompanion validates a SKILL.md companion: frontmatter identity
// against the document and the relaxed pattern set over the body.
func checkCompanion(doc *skill.Document, companion *skill.Companion) []Finding {
	var findings []Finding
	path := companion.Path()
	if path == "" {
		path = skill.CompanionFileName
	}

	warn := func(category, format string, args ...any) *Finding {
		findings = append(findings, Finding{
			Layer:    LayerQuality,
			Code:     CodeQualityWarning,
			Severity: SeverityWarning,
			Path:     path,
			Message:  fmt.Sprintf(format, args...),
			Category: category,
		})
		return &findings[len(findings)-1]
	}

	if !skill.IsKebabCase(companion.Name) {
		warn("FRONTMATTER", "Companion skill name must be kebab-case, got: %s", companion.Name).
			Suggestion = fmt.Sprintf("Rename to %q", skill.ToKebabCase(companion.Name))
	}
	if doc.Skill.Name != "" && companion.Name != doc.Skill.Name {
		warn("FRONTMATTER", "Companion skill name %q does not match document skill name %q",
			companion.Name, doc.Skill.Name)
	}
	if companion.Version != "" && doc.Skill.Version != "" && companion.Version != doc.Skill.Version {
		warn("FRONTMATTER", "Companion version %q does not match document version %q",
			companion.Version, doc.Skill.Version)
	}
	if len(companion.Description) > maxCompanionDescriptionLen {
		warn("FRONTMATTER", "Companion description must be at most %d characters, got: %d",
			maxCompanionDescriptionLen, len(companion.Description))
	}

	relaxed, err := companionScanner()
	if err != nil {
		return findings
	}
	for _, v := range relaxed.ScanField(path, companion.Body, companion.BodyLine, 1) {
		findings = append(findings, violationFinding(v))
	}
	return findings
}

// companionScanner builds the relaxed scanner for markdown bodies: the
// documentation pattern set, no field scoping, code regions masked.
func companionScanner() (*patterns.Scanner, error) {
	return patterns.NewScanner(
		patterns.WithSet(patterns.RelaxedMarkdown()),
		patterns.WithScope(&patterns.ScanScope{
			IgnorePatterns: []patterns.IgnoreRule{
				{Pattern: "```[\\s\\S]*?```", Type: "regex"},
				{Pattern: "`[^`]+`", Type: "regex"},
			},
		}),
	)
}
