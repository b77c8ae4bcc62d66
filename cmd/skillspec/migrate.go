package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/logger"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/skill"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// MigrateConfig holds configuration for the migrate command
type MigrateConfig struct {
	DryRun  bool
	Include []string
}

// NewMigrateConfig creates a new MigrateConfig with default values
func NewMigrateConfig() *MigrateConfig {
	return &MigrateConfig{
		DryRun:  false,
		Include: []string{},
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [paths...]",
	Short: "Rewrite legacy decision_rules to the canonical shape",
	Long: `Rewrite documents using a legacy decision_rules shape (keyed mappings or
bare rule lists) to the canonical {_config, rules} form.

Rules without ids get generated ones (rule_0, rule_1, ... in document
order). Rewriting normalizes the whole document layout; comments are not
preserved. Documents already canonical are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getMigrateConfigFromFlags(cmd)
		runMigrateCommand(ctx, config, args)
	},
}

func init() {
	defaults := NewMigrateConfig()
	migrateCmd.Flags().Bool("dry-run", defaults.DryRun, "Show what would be migrated without writing")
	migrateCmd.Flags().StringSlice("include", defaults.Include, "Discovery glob for directory arguments (repeatable)")
}

// getMigrateConfigFromFlags extracts migrate configuration from command flags
func getMigrateConfigFromFlags(cmd *cobra.Command) *MigrateConfig {
	config := NewMigrateConfig()

	if dryRun, err := cmd.Flags().GetBool("dry-run"); err == nil {
		config.DryRun = dryRun
	}
	if include, err := cmd.Flags().GetStringSlice("include"); err == nil {
		config.Include = include
	}

	return config
}

func runMigrateCommand(ctx context.Context, config *MigrateConfig, args []string) {
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

	migrated := 0
	failed := 0
	for _, path := range paths {
		doc, err := skill.ParseFile(path)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to parse %s", path))
			failed++
			continue
		}

		format := doc.DecisionRules.LegacyFormat()
		if format == "" {
			logger.G(ctx).WithField("path", path).Debug("document already canonical")
			continue
		}

		if config.DryRun {
			presenter.Info(fmt.Sprintf("Would migrate %s (%s format)", path, format))
			migrated++
			continue
		}

		data, err := doc.ToYAML()
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to serialize %s", path))
			failed++
			continue
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to write %s", path))
			failed++
			continue
		}
		presenter.Success(cliMessage(ws, project, "", "cli.migrated", i18n.Args{"path": path}))
		migrated++
	}

	switch {
	case config.DryRun:
		presenter.Info(fmt.Sprintf("%d of %d documents would be migrated", migrated, len(paths)))
	case migrated == 0 && failed == 0:
		presenter.Info("All documents already use the canonical shape")
	default:
		presenter.Info(fmt.Sprintf("Migrated %d of %d documents", migrated, len(paths)))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
