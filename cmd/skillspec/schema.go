package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/skill"
)

// SchemaConfig holds configuration for the schema command
type SchemaConfig struct {
	Output string
}

// NewSchemaConfig creates a new SchemaConfig with default values
func NewSchemaConfig() *SchemaConfig {
	return &SchemaConfig{
		Output: "",
	}
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for skill documents",
	Long: `Print the JSON Schema of the canonical document shape. Editors and CI
pipelines can use it to lint spec.yaml files without running the full
validator.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := getSchemaConfigFromFlags(cmd)
		runSchemaCommand(config)
	},
}

func init() {
	defaults := NewSchemaConfig()
	schemaCmd.Flags().StringP("output", "o", defaults.Output, "Write the schema to a file instead of stdout")
}

// getSchemaConfigFromFlags extracts schema configuration from command flags
func getSchemaConfigFromFlags(cmd *cobra.Command) *SchemaConfig {
	config := NewSchemaConfig()

	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}

	return config
}

func runSchemaCommand(config *SchemaConfig) {
	data, err := json.MarshalIndent(skill.JSONSchema(), "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to render schema")
		os.Exit(1)
	}

	if config.Output != "" {
		if err := os.WriteFile(config.Output, append(data, '\n'), 0o644); err != nil {
			presenter.Error(err, "Failed to write schema")
			os.Exit(1)
		}
		presenter.Success("Wrote " + config.Output)
		return
	}

	fmt.Println(string(data))
}
