// Package validator runs the layered validation pipeline over skill
// documents: schema, quality, coverage, consistency and compliance, in that
// order. Each layer contributes findings to a single report; the verdict is
// computed from the findings under the active mode.
package validator

import (
	"fmt"
	"strings"
)

// Layer names, in execution order.
const (
	LayerSchema      = "schema"
	LayerQuality     = "quality"
	LayerCoverage    = "coverage"
	LayerConsistency = "consistency"
	LayerCompliance  = "compliance"
)

// Layers lists the validation layers in their fixed execution order.
var Layers = []string{LayerSchema, LayerQuality, LayerCoverage, LayerConsistency, LayerCompliance}

// Finding codes. MALFORMED_DOCUMENT is fatal and aborts the pipeline;
// everything else accumulates.
const (
	CodeMalformedDocument     = "MALFORMED_DOCUMENT"
	CodeSchemaError           = "SCHEMA_ERROR"
	CodeMissingDefaultRule    = "MISSING_DEFAULT_RULE"
	CodeMultipleDefaultRules  = "MULTIPLE_DEFAULT_RULES"
	CodeExpressionSyntaxError = "EXPRESSION_SYNTAX_ERROR"
	CodeTypeMismatch          = "TYPE_MISMATCH"
	CodeQualityWarning        = "QUALITY_WARNING"
	CodeCoverageGap           = "COVERAGE_GAP"
	CodeConsistencyError      = "CONSISTENCY_ERROR"
	CodeComplianceViolation   = "COMPLIANCE_VIOLATION"
)

// Finding severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Finding is a single diagnostic produced by a validation layer. Severity is
// intrinsic to the finding; whether it blocks the run depends on the mode
// (see Blocks).
type Finding struct {
	Layer      string `json:"layer"`
	Code       string `json:"code"`
	Severity   string `json:"severity"`
	Path       string `json:"path,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Category   string `json:"category,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
}

// String renders the finding for terminal output:
//
//	[schema] ERROR SCHEMA_ERROR at skill.version: Version must follow semver
func (f Finding) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s", f.Layer, strings.ToUpper(f.Severity), f.Code)
	if f.Path != "" {
		fmt.Fprintf(&b, " at %s", f.Path)
		if f.Line > 0 {
			fmt.Fprintf(&b, " (line %d)", f.Line)
		}
	}
	fmt.Fprintf(&b, ": %s", f.Message)
	if f.Suggestion != "" {
		fmt.Fprintf(&b, " (suggestion: %s)", f.Suggestion)
	}
	return b.String()
}

// IsError reports whether the finding carries error severity.
func (f Finding) IsError() bool {
	return f.Severity == SeverityError
}

// Mode selects which findings block the verdict.
type Mode string

const (
	// ModeBasic blocks only on error-severity findings from the schema and
	// consistency layers.
	ModeBasic Mode = "basic"
	// ModeStrict blocks on every finding of every layer and severity.
	ModeStrict Mode = "strict"
)

// ParseMode validates a mode string, defaulting the empty string to basic.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBasic, ModeStrict:
		return Mode(s), nil
	case "":
		return ModeBasic, nil
	}
	return "", fmt.Errorf("unknown validation mode %q (want basic or strict)", s)
}

// Blocks reports whether the finding counts against the verdict under the
// given mode. The finding set itself never changes with mode; only this
// predicate does. Strict is monotonic over basic: anything that blocks in
// basic blocks in strict.
func Blocks(f Finding, mode Mode) bool {
	if f.Code == CodeMalformedDocument {
		return true
	}
	if mode == ModeStrict {
		return true
	}
	if !f.IsError() {
		return false
	}
	return f.Layer == LayerSchema || f.Layer == LayerConsistency
}
