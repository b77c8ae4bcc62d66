package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/report"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// PublishConfig holds configuration for the publish command
type PublishConfig struct {
	Force bool
}

// NewPublishConfig creates a new PublishConfig with default values
func NewPublishConfig() *PublishConfig {
	return &PublishConfig{
		Force: false,
	}
}

var publishCmd = &cobra.Command{
	Use:   "publish [name]",
	Short: "Promote a draft into skills/",
	Long: `Move a draft skill into the workspace skills/ directory.

The draft must pass strict validation first; --force skips the gate.
Publishing is a local directory move, nothing leaves the workspace.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getPublishConfigFromFlags(cmd)
		runPublishCommand(ctx, config, args[0])
	},
}

func init() {
	defaults := NewPublishConfig()
	publishCmd.Flags().Bool("force", defaults.Force, "Publish without the strict validation gate")
}

// getPublishConfigFromFlags extracts publish configuration from command flags
func getPublishConfigFromFlags(cmd *cobra.Command) *PublishConfig {
	config := NewPublishConfig()

	if force, err := cmd.Flags().GetBool("force"); err == nil {
		config.Force = force
	}

	return config
}

func runPublishCommand(ctx context.Context, config *PublishConfig, name string) {
	ws, err := workspace.Find(".")
	if err != nil {
		presenter.Error(err, "Failed to locate workspace")
		os.Exit(1)
	}
	project := ws.LoadProject()

	if !config.Force {
		specPath := filepath.Join(ws.DraftsDir(), name, workspace.SpecFileName)
		if _, err := os.Stat(specPath); err != nil {
			presenter.Error(errors.Errorf("skill %q has no %s in drafts", name, workspace.SpecFileName), "Cannot publish")
			os.Exit(1)
		}

		engine, err := buildEngine(ws, project, true, nil, "")
		if err != nil {
			presenter.Error(err, "Failed to configure validation")
			os.Exit(1)
		}

		rep := engine.ValidateFile(ctx, specPath)
		if rep.Failed() {
			renderer := newWorkspaceRenderer(ws, project, "")
			fmt.Println(renderer.Text(report.NewPayload(rep)))
			presenter.Error(errors.Errorf("strict validation failed with %d blocking findings", rep.Blocking), "Cannot publish")
			os.Exit(1)
		}
		presenter.Success("Strict validation passed")
	}

	from, to, err := ws.Publish(name)
	if err != nil {
		presenter.Error(err, "Failed to publish")
		os.Exit(1)
	}

	presenter.Success(cliMessage(ws, project, "", "cli.published", i18n.Args{"name": name}))
	presenter.Info(fmt.Sprintf("Moved %s to %s", from, to))
}
