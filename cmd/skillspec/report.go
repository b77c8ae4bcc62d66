package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/diary"
	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/logger"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/report"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// ReportConfig holds configuration for the report command
type ReportConfig struct {
	Strict         bool
	Policies       []string
	Format         string
	Locale         string
	PatternsLocale string
	OutputDir      string
	NoHistory      bool
}

// NewReportConfig creates a new ReportConfig with default values
func NewReportConfig() *ReportConfig {
	return &ReportConfig{
		Strict:         false,
		Policies:       []string{},
		Format:         "text",
		Locale:         "",
		PatternsLocale: "",
		OutputDir:      "",
		NoHistory:      false,
	}
}

// Validate validates the ReportConfig and returns an error if invalid
func (c *ReportConfig) Validate() error {
	switch c.Format {
	case "text", "markdown", "json":
		return nil
	}
	return errors.Errorf("invalid format: %s, must be text, markdown or json", c.Format)
}

var reportCmd = &cobra.Command{
	Use:   "report [skill-or-path]",
	Short: "Render a full validation report for one document",
	Long: `Validate a single document and render the full report: per-layer
findings, coverage percentages, derived scores and recorded run history.

The argument is a skill name looked up in the workspace, or a document
file path. With --output-dir the markdown and JSON reports are written as
files instead of printed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getReportConfigFromFlags(cmd)
		runReportCommand(ctx, config, args[0])
	},
}

func init() {
	defaults := NewReportConfig()
	reportCmd.Flags().Bool("strict", defaults.Strict, "Fail on warnings as well as errors")
	reportCmd.Flags().StringSlice("policy", defaults.Policies, "Policy file to enforce (repeatable)")
	reportCmd.Flags().String("format", defaults.Format, "Output format: text, markdown or json")
	reportCmd.Flags().String("locale", defaults.Locale, "Report locale (en, zh)")
	reportCmd.Flags().String("patterns-locale", defaults.PatternsLocale, "Forbidden pattern set (en, zh, union)")
	reportCmd.Flags().String("output-dir", defaults.OutputDir, "Write markdown and JSON reports into this directory")
	reportCmd.Flags().Bool("no-history", defaults.NoHistory, "Skip attaching recorded run history")
}

// getReportConfigFromFlags extracts report configuration from command flags
func getReportConfigFromFlags(cmd *cobra.Command) *ReportConfig {
	config := NewReportConfig()

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
	if outputDir, err := cmd.Flags().GetString("output-dir"); err == nil {
		config.OutputDir = outputDir
	}
	if noHistory, err := cmd.Flags().GetBool("no-history"); err == nil {
		config.NoHistory = noHistory
	}

	return config
}

func runReportCommand(ctx context.Context, config *ReportConfig, target string) {
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

	path, err := resolveDocument(ws, target)
	if err != nil {
		presenter.Error(err, "Failed to resolve document")
		os.Exit(1)
	}

	engine, err := buildEngine(ws, project, config.Strict, config.Policies, config.PatternsLocale)
	if err != nil {
		presenter.Error(err, "Failed to configure validation")
		os.Exit(1)
	}

	rep := engine.ValidateFile(ctx, path)
	payload := report.NewPayload(rep)

	if !config.NoHistory && rep.Skill != "" {
		payload.History = loadHistory(ctx, ws, rep.Skill)
	}

	renderer := newWorkspaceRenderer(ws, project, config.Locale)

	if config.OutputDir != "" {
		if err := writeReportFiles(ws, project, config, renderer, payload); err != nil {
			presenter.Error(err, "Failed to write report files")
			os.Exit(1)
		}
		presenter.Verdict(rep.Verdict)
		return
	}

	switch config.Format {
	case "markdown":
		fmt.Println(renderer.Markdown(payload))
	case "json":
		jsonData, err := renderer.JSON(payload)
		if err != nil {
			presenter.Error(err, "Failed to render JSON report")
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	default:
		fmt.Println(renderer.Text(payload))
	}
}

// resolveDocument treats target as a file path when it exists, otherwise as
// a skill name looked up in the workspace.
func resolveDocument(ws *workspace.Workspace, target string) (string, error) {
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return target, nil
	}
	return ws.FindSkill(target)
}

// loadHistory reads the diary summary for a skill. A missing diary or a
// read failure yields no history rather than an error.
func loadHistory(ctx context.Context, ws *workspace.Workspace, skillName string) *report.History {
	if _, err := os.Stat(ws.DiaryPath()); err != nil {
		return nil
	}
	store, err := diary.Open(ctx, ws.DiaryPath())
	if err != nil {
		logger.G(ctx).WithError(err).Warn("validation diary unavailable")
		return nil
	}
	defer store.Close()

	summary, err := store.Summarize(ctx, skillName)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("skill", skillName).Warn("failed to summarize run history")
		return nil
	}
	return &report.History{
		Runs:        summary.Runs,
		Passed:      summary.Passed,
		Failed:      summary.Failed,
		LastVerdict: summary.LastVerdict,
		LastRunAt:   summary.LastRunAt,
	}
}

// writeReportFiles writes <name>-report.md and <name>-report.json into the
// output directory.
func writeReportFiles(ws *workspace.Workspace, project workspace.Project, config *ReportConfig, renderer *report.Renderer, payload report.Payload) error {
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", config.OutputDir)
	}

	name := payload.Skill
	if name == "" {
		name = "document"
	}

	mdPath := filepath.Join(config.OutputDir, name+"-report.md")
	if err := os.WriteFile(mdPath, []byte(renderer.Markdown(payload)), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", mdPath)
	}
	presenter.Success(cliMessage(ws, project, config.Locale, "cli.created", i18n.Args{"path": mdPath}))

	jsonData, err := renderer.JSON(payload)
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(config.OutputDir, name+"-report.json")
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", jsonPath)
	}
	presenter.Success(cliMessage(ws, project, config.Locale, "cli.created", i18n.Args{"path": jsonPath}))

	return nil
}
