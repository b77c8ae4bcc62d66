package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/diary"
	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/logger"
	"github.com/jingkaihe/skillspec/pkg/patterns"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/report"
	"github.com/jingkaihe/skillspec/pkg/validator"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	Strict         bool
	Policies       []string
	Format         string
	Locale         string
	PatternsLocale string
	Include        []string
	NoDiary        bool
}

// NewValidateConfig creates a new ValidateConfig with default values
func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		Strict:         false,
		Policies:       []string{},
		Format:         "text",
		Locale:         "",
		PatternsLocale: "",
		Include:        []string{},
		NoDiary:        false,
	}
}

// Validate validates the ValidateConfig and returns an error if invalid
func (c *ValidateConfig) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return errors.Errorf("invalid format: %s, must be text or json", c.Format)
	}
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate [paths...]",
	Short: "Validate skill documents",
	Long: `Validate skill documents with the five-layer pipeline: schema, quality,
coverage, consistency and compliance.

Paths may be document files or directories; directories are searched for
spec.yaml and *.skill.yaml files. Without arguments every document in the
workspace drafts/ and skills/ directories is validated.

Basic mode fails only on structural errors. With --strict every finding
blocks, including warnings.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getValidateConfigFromFlags(cmd)
		runValidateCommand(ctx, config, args)
	},
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().Bool("strict", defaults.Strict, "Fail on warnings as well as errors")
	validateCmd.Flags().StringSlice("policy", defaults.Policies, "Policy file to enforce (repeatable)")
	validateCmd.Flags().String("format", defaults.Format, "Output format: text or json")
	validateCmd.Flags().String("locale", defaults.Locale, "Report locale (en, zh)")
	validateCmd.Flags().String("patterns-locale", defaults.PatternsLocale, "Forbidden pattern set (en, zh, union)")
	validateCmd.Flags().StringSlice("include", defaults.Include, "Discovery glob for directory arguments (repeatable)")
	validateCmd.Flags().Bool("no-diary", defaults.NoDiary, "Skip recording runs in the validation diary")
}

// getValidateConfigFromFlags extracts validate configuration from command flags
func getValidateConfigFromFlags(cmd *cobra.Command) *ValidateConfig {
	config := NewValidateConfig()

	if strict, err := cmd.Flags().GetBool("strict"); err == nil {
		config.Strict = strict
	}
	if policies, err := cmd.Flags().GetStringSlice("policy"); err == nil {
		config.Policies = policies
	}
	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	if locale, err := cmd.Flags().GetString("locale"); err == nil {
		config.Locale = locale
	}
	if patternsLocale, err := cmd.Flags().GetString("patterns-locale"); err == nil {
		config.PatternsLocale = patternsLocale
	}
	if include, err := cmd.Flags().GetStringSlice("include"); err == nil {
		config.Include = include
	}
	if noDiary, err := cmd.Flags().GetBool("no-diary"); err == nil {
		config.NoDiary = noDiary
	}

	return config
}

func runValidateCommand(ctx context.Context, config *ValidateConfig, args []string) {
	if err := config.Validate(); err != nil {
		presenter.Error(err, "Invalid configuration")
		os.Exit(1)
	}

	ws, err := workspace.Find(".")
	if err != nil {
		presenter.Error(err, "Failed to locate workspace")
		os.Exit(1)
	}
	project := ws.LoadProject()

	paths, err := collectDocuments(ws, args, config.Include)
	if err != nil {
		presenter.Error(err, "Failed to collect documents")
		os.Exit(1)
	}
	if len(paths) == 0 {
		presenter.Warning("No skill documents found")
		return
	}

	engine, err := buildEngine(ws, project, config.Strict, config.Policies, config.PatternsLocale)
	if err != nil {
		presenter.Error(err, "Failed to configure validation")
		os.Exit(1)
	}

	var store *diary.Store
	if !config.NoDiary {
		store, err = diary.Open(ctx, ws.DiaryPath())
		if err != nil {
			logger.G(ctx).WithError(err).Warn("validation diary unavailable, runs will not be recorded")
		} else {
			defer store.Close()
		}
	}

	renderer := newWorkspaceRenderer(ws, project, config.Locale)

	var payloads []report.Payload
	failed := 0
	for _, path := range paths {
		rep := engine.ValidateFile(ctx, path)
		if rep.Failed() {
			failed++
		}
		if store != nil {
			if _, err := store.Record(ctx, rep); err != nil {
				logger.G(ctx).WithError(err).Warn("failed to record validation run")
			}
		}
		payloads = append(payloads, report.NewPayload(rep))
	}

	if config.Format == "json" {
		if err := printPayloadsJSON(payloads); err != nil {
			presenter.Error(err, "Failed to render JSON output")
			os.Exit(1)
		}
	} else {
		for _, p := range payloads {
			if len(payloads) > 1 {
				presenter.Section(p.Source)
			}
			fmt.Println(renderer.Text(p))
		}
		if len(payloads) > 1 {
			presenter.Info(fmt.Sprintf("Validated %d documents, %d failed", len(payloads), failed))
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// printPayloadsJSON renders the validation payloads as a single JSON object
func printPayloadsJSON(payloads []report.Payload) error {
	type jsonOutput struct {
		Reports []report.Payload `json:"reports"`
	}

	jsonData, err := json.MarshalIndent(jsonOutput{Reports: payloads}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error generating JSON output")
	}

	fmt.Println(string(jsonData))
	return nil
}

// collectDocuments resolves the documents to validate. Explicit arguments
// are discovered individually; with none the workspace drafts and skills
// directories are searched.
func collectDocuments(ws *workspace.Workspace, args, include []string) ([]string, error) {
	globs := workspace.DefaultDiscoverPatterns
	if len(include) > 0 {
		globs = include
	}

	if len(args) == 0 {
		var found []string
		for _, dir := range []string{ws.DraftsDir(), ws.SkillsDir()} {
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			docs, err := workspace.Discover(dir, globs...)
			if err != nil {
				return nil, err
			}
			found = append(found, docs...)
		}
		return found, nil
	}

	var merr *multierror.Error
	var found []string
	for _, arg := range args {
		docs, err := workspace.Discover(arg, globs...)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		found = append(found, docs...)
	}
	return found, merr.ErrorOrNil()
}

// buildEngine assembles a validation engine from flags and project defaults.
// The project default policy applies in strict mode when no explicit policy
// is given.
func buildEngine(ws *workspace.Workspace, project workspace.Project, strict bool, policies []string, patternsLocale string) (*validator.Engine, error) {
	mode := validator.ModeBasic
	if strict {
		mode = validator.ModeStrict
	}
	opts := []validator.EngineOption{validator.WithMode(mode)}

	locale := patternsLocale
	if locale == "" {
		locale = project.I18n.PatternsLocale
	}
	scannerOpts := []patterns.Option{patterns.WithLocales(ws.PatternsDir(), locale)}
	scopePath := filepath.Join(ws.PatternsDir(), "scan_scope.yaml")
	if _, err := os.Stat(scopePath); err == nil {
		scannerOpts = append(scannerOpts, patterns.WithScopeFile(scopePath))
	}
	scanner, err := patterns.NewScanner(scannerOpts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, validator.WithScanner(scanner))

	if len(policies) == 0 && strict && project.DefaultPolicy != "" {
		defaultPolicy := project.DefaultPolicy
		if !filepath.IsAbs(defaultPolicy) {
			defaultPolicy = filepath.Join(filepath.Dir(ws.ProjectPath()), defaultPolicy)
		}
		policies = []string{defaultPolicy}
	}
	if len(policies) > 0 {
		opts = append(opts, validator.WithPolicyFiles(policies...))
	}

	return validator.NewEngine(opts...)
}

// newWorkspaceRenderer builds a report renderer using the workspace message
// catalog. An explicit locale overrides the project report locale.
func newWorkspaceRenderer(ws *workspace.Workspace, project workspace.Project, locale string) *report.Renderer {
	if locale == "" {
		locale = project.I18n.ReportLocale
	}
	return report.NewRenderer(
		report.WithCatalog(i18n.NewCatalog(ws.MessagesDir())),
		report.WithLocale(locale),
	)
}
