package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillspec/pkg/patterns"
)

func defaultScanner(t *testing.T) *patterns.Scanner {
	t.Helper()
	scanner, err := patterns.NewScanner()
	require.NoError(t, err)
	return scanner
}

func TestQualityLayerCleanDocument(t *testing.T) {
	doc := mustParse(t, cleanDocYAML)
	findings := runQualityLayer(doc, defaultScanner(t), nil)
	assert.Empty(t, findings)
}

func TestQualityLayerVagueStepAction(t *testing.T) {
	doc := mustParse(t, strings.Replace(cleanDocYAML,
		"action: Read the changelog into memory.",
		"action: Try to validate the input if appropriate.", 1))
	findings := runQualityLayer(doc, defaultScanner(t), nil)

	require.Len(t, findings, 2, "one finding per matched phrase")

	assert.Equal(t, LayerQuality, findings[0].Layer)
	assert.Equal(t, CodeQualityWarning, findings[0].Code)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.Equal(t, "steps[0].action", findings[0].Path)
	assert.Equal(t, "WEAK_VERBS", findings[0].Category)
	assert.Contains(t, findings[0].Message, `"Try to"`)
	assert.NotEmpty(t, findings[0].Suggestion)

	assert.Equal(t, "VAGUE_CONDITION", findings[1].Category)
	assert.Equal(t, SeverityError, findings[1].Severity)
	assert.Contains(t, findings[1].Message, `"if appropriate"`)
	assert.Greater(t, findings[1].Column, findings[0].Column, "findings arrive in text order")
}

func TestQualityLayerScopeExcludesUnscannedFields(t *testing.T) {
	// hedge word in a failure description, which is outside the scan scope
	doc := mustParse(t, strings.Replace(cleanDocYAML,
		"description: The changelog text was empty.",
		"description: The changelog might be empty.", 1))
	findings := runQualityLayer(doc, defaultScanner(t), nil)
	assert.Empty(t, findings)
}

func TestQualityLayerLowPriorityScopeKeepsErrorsOnly(t *testing.T) {
	// "usually" is a warning-severity pattern in a low-priority field
	doc := mustParse(t, strings.Replace(cleanDocYAML,
		"recovery: Ask the caller for a non-empty changelog.",
		"recovery: Usually the caller retries with real content.", 1))
	findings := runQualityLayer(doc, defaultScanner(t), nil)
	assert.Empty(t, findings)

	// an error-severity pattern in the same field still surfaces
	doc = mustParse(t, strings.Replace(cleanDocYAML,
		"recovery: Ask the caller for a non-empty changelog.",
		"recovery: Try to recover by asking again.", 1))
	findings = runQualityLayer(doc, defaultScanner(t), nil)
	require.Len(t, findings, 1)
	assert.Equal(t, "WEAK_VERBS", findings[0].Category)
	assert.Equal(t, "failure_modes[0].recovery", findings[0].Path)
}

const companionMarkdown = `---
name: summarize-changelog
description: Turn a raw changelog into concise release notes.
version: 1.4.0
---

# Summarize Changelog

Read the changelog, then write the notes.

TODO finish the walkthrough section.
`

func TestQualityLayerCompanion(t *testing.T) {
	doc := mustParse(t, cleanDocYAML)
	companion := mustParseCompanion(t, companionMarkdown)

	findings := runQualityLayer(doc, defaultScanner(t), companion)
	require.Len(t, findings, 1)
	assert.Equal(t, "INCOMPLETE_CONTENT", findings[0].Category)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.Contains(t, findings[0].Message, `"TODO"`)
	assert.Equal(t, 11, findings[0].Line, "line measured in the full SKILL.md")
}

func TestQualityLayerCompanionNameMismatch(t *testing.T) {
	doc := mustParse(t, cleanDocYAML)
	companion := mustParseCompanion(t, strings.Replace(companionMarkdown,
		"name: summarize-changelog", "name: summarise-changelog", 1))

	findings := runQualityLayer(doc, defaultScanner(t), companion)

	var mismatch *Finding
	for i := range findings {
		if strings.Contains(findings[i].Message, "does not match document skill name") {
			mismatch = &findings[i]
		}
	}
	require.NotNil(t, mismatch)
	assert.Equal(t, SeverityWarning, mismatch.Severity)
	assert.Equal(t, "FRONTMATTER", mismatch.Category)
}

func TestQualityLayerCompanionVersionMismatch(t *testing.T) {
	doc := mustParse(t, cleanDocYAML)
	companion := mustParseCompanion(t, strings.Replace(companionMarkdown,
		"version: 1.4.0", "version: 2.0.0", 1))

	findings := runQualityLayer(doc, defaultScanner(t), companion)
	require.Len(t, findings, 2, "version mismatch plus the TODO marker")
	assert.Contains(t, findings[0].Message, `Companion version "2.0.0"`)
}

func TestQualityLayerCompanionIgnoresCode(t *testing.T) {
	doc := mustParse(t, cleanDocYAML)
	companion := mustParseCompanion(t, strings.Replace(companionMarkdown,
		"TODO finish the walkthrough section.",
		"Run `make TODO` to list open items.", 1))

	findings := runQualityLayer(doc, defaultScanner(t), companion)
	assert.Empty(t, findings, "inline code is not scanned")
}
