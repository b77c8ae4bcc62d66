package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

var archiveCmd = &cobra.Command{
	Use:   "archive [name]",
	Short: "Retire a published skill into archive/",
	Long: `Move a published skill into the workspace archive/ directory under a
dated name, freeing the skill name for a replacement.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runArchiveCommand(args[0])
	},
}

func runArchiveCommand(name string) {
	ws, err := workspace.Find(".")
	if err != nil {
		presenter.Error(err, "Failed to locate workspace")
		os.Exit(1)
	}
	project := ws.LoadProject()

	dest, err := ws.Archive(name)
	if err != nil {
		presenter.Error(err, "Failed to archive")
		os.Exit(1)
	}

	presenter.Success(cliMessage(ws, project, "", "cli.archived", i18n.Args{"name": name}))
	presenter.Info(fmt.Sprintf("Moved to %s", dest))
}
