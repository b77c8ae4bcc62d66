package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// ListConfig holds configuration for the list command
type ListConfig struct {
	JSONOutput bool
}

// NewListConfig creates a new ListConfig with default values
func NewListConfig() *ListConfig {
	return &ListConfig{
		JSONOutput: false,
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the skills in the workspace",
	Long:  `List every skill in the workspace, drafts first, with its status and files.`,
	Run: func(cmd *cobra.Command, args []string) {
		config := getListConfigFromFlags(cmd)
		runListCommand(config)
	},
}

func init() {
	defaults := NewListConfig()
	listCmd.Flags().Bool("json", defaults.JSONOutput, "Output in JSON format")
}

// getListConfigFromFlags extracts list configuration from command flags
func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()

	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}

	return config
}

func runListCommand(config *ListConfig) {
	ws, err := workspace.Find(".")
	if err != nil {
		presenter.Error(err, "Failed to locate workspace")
		os.Exit(1)
	}

	infos, err := ws.List()
	if err != nil {
		presenter.Error(err, "Failed to list skills")
		os.Exit(1)
	}

	if config.JSONOutput {
		if err := renderSkillListJSON(os.Stdout, infos); err != nil {
			presenter.Error(err, "Failed to render JSON output")
			os.Exit(1)
		}
		return
	}

	if len(infos) == 0 {
		presenter.Info(fmt.Sprintf("No skills in %s", ws.Root))
		return
	}
	if err := renderSkillListTable(os.Stdout, infos); err != nil {
		presenter.Error(err, "Failed to render skill list")
		os.Exit(1)
	}
}

// skillListEntry is the JSON shape of one listed skill.
type skillListEntry struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	SpecPath     string `json:"spec_path"`
	HasSpec      bool   `json:"has_spec"`
	HasCompanion bool   `json:"has_companion"`
}

func renderSkillListJSON(w io.Writer, infos []workspace.SkillInfo) error {
	type jsonOutput struct {
		Skills []skillListEntry `json:"skills"`
	}

	output := jsonOutput{Skills: []skillListEntry{}}
	for _, info := range infos {
		output.Skills = append(output.Skills, skillListEntry{
			Name:         info.Name,
			Status:       info.Status,
			SpecPath:     info.SpecPath,
			HasSpec:      info.HasSpec,
			HasCompanion: info.HasCompanion,
		})
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error generating JSON output")
	}

	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func renderSkillListTable(w io.Writer, infos []workspace.SkillInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Name\tStatus\tSpec\tCompanion")
	fmt.Fprintln(tw, "----\t------\t----\t---------")

	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			info.Name,
			info.Status,
			yesNo(info.HasSpec),
			yesNo(info.HasCompanion),
		)
	}

	return tw.Flush()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
