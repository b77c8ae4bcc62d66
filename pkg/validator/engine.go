package validator

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillspec/pkg/logger"
	"github.com/jingkaihe/skillspec/pkg/patterns"
	"github.com/jingkaihe/skillspec/pkg/policy"
	"github.com/jingkaihe/skillspec/pkg/skill"
	"github.com/jingkaihe/skillspec/pkg/tools"
)

// Engine runs the validation layers in their fixed order and assembles the
// report. Engines are safe for reuse across documents.
type Engine struct {
	mode     Mode
	scanner  *patterns.Scanner
	registry *tools.Registry
	policies []*policy.Set
}

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithMode sets the verdict mode (basic or strict).
func WithMode(mode Mode) EngineOption {
	return func(e *Engine) error {
		e.mode = mode
		return nil
	}
}

// WithScanner uses a custom quality scanner (locale packs, scan scope).
func WithScanner(scanner *patterns.Scanner) EngineOption {
	return func(e *Engine) error {
		e.scanner = scanner
		return nil
	}
}

// WithRegistry uses a custom tool registry for binding checks.
func WithRegistry(registry *tools.Registry) EngineOption {
	return func(e *Engine) error {
		e.registry = registry
		return nil
	}
}

// WithPolicies adds loaded policy sets to the compliance layer.
func WithPolicies(sets ...*policy.Set) EngineOption {
	return func(e *Engine) error {
		e.policies = append(e.policies, sets...)
		return nil
	}
}

// WithPolicyFiles loads policy files into the compliance layer. Every
// unloadable file contributes one error to the aggregate.
func WithPolicyFiles(paths ...string) EngineOption {
	return func(e *Engine) error {
		var merr *multierror.Error
		for _, path := range paths {
			set, err := policy.Load(path)
			if err != nil {
				merr = multierror.Append(merr, err)
				continue
			}
			e.policies = append(e.policies, set)
		}
		return merr.ErrorOrNil()
	}
}

// NewEngine builds an engine. Defaults: basic mode, built-in English
// patterns over the default scan scope, the standard tool registry, no
// policies.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	e := &Engine{mode: ModeBasic}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.scanner == nil {
		scanner, err := patterns.NewScanner()
		if err != nil {
			return nil, errors.Wrap(err, "failed to build quality scanner")
		}
		e.scanner = scanner
	}
	if e.registry == nil {
		e.registry = tools.NewRegistry()
	}
	return e, nil
}

// Mode returns the engine's verdict mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Policies returns the loaded policy sets.
func (e *Engine) Policies() []*policy.Set {
	return e.policies
}

// Validate runs all layers over a parsed document.
func (e *Engine) Validate(ctx context.Context, doc *skill.Document) *Report {
	return e.run(ctx, doc, nil, nil)
}

// ValidateWithCompanion runs all layers, including the SKILL.md companion
// checks in the quality layer. companionErr reports a companion file that
// existed but could not be parsed.
func (e *Engine) ValidateWithCompanion(ctx context.Context, doc *skill.Document, companion *skill.Companion, companionErr error) *Report {
	return e.run(ctx, doc, companion, companionErr)
}

// ValidateFile parses and validates a document from disk. A sibling SKILL.md
// is picked up automatically. Parse failures yield a MALFORMED_DOCUMENT
// report instead of an error so callers always get a report per path.
func (e *Engine) ValidateFile(ctx context.Context, path string) *Report {
	doc, err := skill.ParseFile(path)
	if err != nil {
		return e.MalformedReport(path, err)
	}

	var companion *skill.Companion
	var companionErr error
	companionPath := filepath.Join(filepath.Dir(path), skill.CompanionFileName)
	if _, statErr := os.Stat(companionPath); statErr == nil {
		companion, companionErr = skill.LoadCompanion(companionPath)
	}
	return e.run(ctx, doc, companion, companionErr)
}

// MalformedReport builds the fatal single-finding report for a document that
// could not be parsed at all. Nothing else runs; the verdict is fail in
// every mode.
func (e *Engine) MalformedReport(source string, parseErr error) *Report {
	started := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		Source:    source,
		Mode:      e.mode,
		StartedAt: started,
		Layers: []LayerResult{
			newLayerResult(LayerSchema, []Finding{{
				Layer:      LayerSchema,
				Code:       CodeMalformedDocument,
				Severity:   SeverityError,
				Path:       source,
				Message:    parseErr.Error(),
				Suggestion: "Fix the YAML syntax before validating",
			}}, started),
		},
	}
	report.finish(started)
	return report
}

func (e *Engine) run(ctx context.Context, doc *skill.Document, companion *skill.Companion, companionErr error) *Report {
	started := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		Skill:     doc.Skill.Name,
		Version:   doc.Skill.Version,
		Source:    doc.Source(),
		Mode:      e.mode,
		StartedAt: started,
	}

	log := logger.G(ctx).WithField("skill", doc.Skill.Name).WithField("run_id", report.RunID)

	layerStart := time.Now()
	report.Layers = append(report.Layers,
		newLayerResult(LayerSchema, runSchemaLayer(doc), layerStart))

	layerStart = time.Now()
	quality := runQualityLayer(doc, e.scanner, companion)
	if companionErr != nil {
		quality = append(quality, Finding{
			Layer:    LayerQuality,
			Code:     CodeQualityWarning,
			Severity: SeverityWarning,
			Path:     skill.CompanionFileName,
			Message:  "Companion could not be parsed: " + companionErr.Error(),
			Category: "FRONTMATTER",
		})
	}
	report.Layers = append(report.Layers, newLayerResult(LayerQuality, quality, layerStart))

	layerStart = time.Now()
	coverageFindings, stats := runCoverageLayer(doc)
	coverageResult := newLayerResult(LayerCoverage, coverageFindings, layerStart)
	coverageResult.RuleCoveragePct = &stats.RulePct
	coverageResult.FailureCoveragePct = &stats.FailurePct
	report.Layers = append(report.Layers, coverageResult)

	layerStart = time.Now()
	report.Layers = append(report.Layers,
		newLayerResult(LayerConsistency, runConsistencyLayer(doc, e.registry), layerStart))

	layerStart = time.Now()
	report.Layers = append(report.Layers,
		newLayerResult(LayerCompliance, runComplianceLayer(doc, e.policies, stats), layerStart))

	report.finish(started)
	log.WithField("verdict", report.Verdict).
		WithField("errors", report.Errors).
		WithField("warnings", report.Warnings).
		Debug("validation run complete")
	return report
}
