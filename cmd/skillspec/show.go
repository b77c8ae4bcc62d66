package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/skill"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// ShowConfig holds configuration for the show command
type ShowConfig struct {
	Format string
}

// NewShowConfig creates a new ShowConfig with default values
func NewShowConfig() *ShowConfig {
	return &ShowConfig{
		Format: "yaml",
	}
}

// Validate validates the ShowConfig and returns an error if invalid
func (c *ShowConfig) Validate() error {
	if c.Format != "yaml" && c.Format != "json" {
		return errors.Errorf("invalid format: %s, must be yaml or json", c.Format)
	}
	return nil
}

var showCmd = &cobra.Command{
	Use:   "show [skill-or-path]",
	Short: "Print a skill document",
	Long: `Print a skill document to stdout. The argument is a skill name looked up
in the workspace, or a document file path.

The yaml format prints the file as written; json parses the document and
prints the canonical model.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getShowConfigFromFlags(cmd)
		runShowCommand(config, args[0])
	},
}

func init() {
	defaults := NewShowConfig()
	showCmd.Flags().String("format", defaults.Format, "Output format: yaml or json")
}

// getShowConfigFromFlags extracts show configuration from command flags
func getShowConfigFromFlags(cmd *cobra.Command) *ShowConfig {
	config := NewShowConfig()

	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}

	return config
}

func runShowCommand(config *ShowConfig, target string) {
	if err := config.Validate(); err != nil {
		presenter.Error(err, "Invalid configuration")
		os.Exit(1)
	}

	ws, err := workspace.Find(".")
	if err != nil {
		presenter.Error(err, "Failed to locate workspace")
		os.Exit(1)
	}

	path, err := resolveDocument(ws, target)
	if err != nil {
		presenter.Error(err, "Failed to resolve document")
		os.Exit(1)
	}

	if config.Format == "json" {
		doc, err := skill.ParseFile(path)
		if err != nil {
			presenter.Error(err, "Failed to parse document")
			os.Exit(1)
		}
		jsonData, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to render JSON output")
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		presenter.Error(err, "Failed to read document")
		os.Exit(1)
	}
	fmt.Print(string(data))
}
