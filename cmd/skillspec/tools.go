package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/tools"
)

// ToolsConfig holds configuration for the tools command
type ToolsConfig struct {
	Category   string
	JSONOutput bool
}

// NewToolsConfig creates a new ToolsConfig with default values
func NewToolsConfig() *ToolsConfig {
	return &ToolsConfig{
		Category:   "",
		JSONOutput: false,
	}
}

var toolsCmd = &cobra.Command{
	Use:   "tools [tool-name]",
	Short: "List the standard tools that skill steps can bind to",
	Long: `List the standard tool registry used by binding validation, or show
one tool with its parameters and aliases.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getToolsConfigFromFlags(cmd)
		runToolsCommand(config, args)
	},
}

func init() {
	defaults := NewToolsConfig()
	toolsCmd.Flags().String("category", defaults.Category, "Only list tools of this category")
	toolsCmd.Flags().Bool("json", defaults.JSONOutput, "Output in JSON format")
}

// getToolsConfigFromFlags extracts tools configuration from command flags
func getToolsConfigFromFlags(cmd *cobra.Command) *ToolsConfig {
	config := NewToolsConfig()

	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}

	return config
}

func runToolsCommand(config *ToolsConfig, args []string) {
	registry := tools.NewRegistry()

	if len(args) == 1 {
		showTool(registry, args[0], config.JSONOutput)
		return
	}

	listed := registry.All()
	if config.Category != "" {
		listed = registry.ByCategory(tools.Category(config.Category))
		if len(listed) == 0 {
			presenter.Warning(fmt.Sprintf("No tools in category %q", config.Category))
			return
		}
	}

	if config.JSONOutput {
		if err := renderToolListJSON(os.Stdout, listed); err != nil {
			presenter.Error(err, "Failed to render tool list")
			os.Exit(1)
		}
		return
	}
	renderToolListTable(os.Stdout, listed)
}

func showTool(registry *tools.Registry, name string, jsonOutput bool) {
	tool, ok := registry.Get(name)
	if !ok {
		err := errors.Errorf("unknown tool %q", name)
		if suggestion := registry.Suggest(name); suggestion != "" {
			err = errors.Errorf("unknown tool %q (did you mean %q?)", name, suggestion)
		}
		presenter.Error(err, "Tool not found")
		os.Exit(1)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(tool, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to render tool")
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tool\t%s\n", tool.Name)
	fmt.Fprintf(tw, "Category\t%s\n", tool.Category)
	fmt.Fprintf(tw, "Signature\t%s\n", tool.Signature())
	if tool.Returns != "" {
		fmt.Fprintf(tw, "Returns\t%s\n", tool.Returns)
	}
	fmt.Fprintf(tw, "Sandbox safe\t%s\n", yesNo(tool.SandboxSafe))
	fmt.Fprintf(tw, "Requires approval\t%s\n", yesNo(tool.RequiresApproval))
	if len(tool.Aliases) > 0 {
		fmt.Fprintf(tw, "Aliases\t%s\n", strings.Join(tool.Aliases, ", "))
	}
	tw.Flush()

	if len(tool.Params) > 0 {
		fmt.Println()
		ptw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(ptw, "Param\tType\tRequired\tDescription")
		fmt.Fprintln(ptw, "-----\t----\t--------\t-----------")
		for _, param := range tool.Params {
			fmt.Fprintf(ptw, "%s\t%s\t%s\t%s\n",
				param.Name, param.Type, yesNo(param.Required), param.Description)
		}
		ptw.Flush()
	}
}

type toolListOutput struct {
	Tools []tools.Tool `json:"tools"`
}

func renderToolListJSON(w io.Writer, listed []tools.Tool) error {
	output := toolListOutput{Tools: listed}
	if output.Tools == nil {
		output.Tools = []tools.Tool{}
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal tool list")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderToolListTable(w io.Writer, listed []tools.Tool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Name\tCategory\tSignature\tSandbox\tApproval")
	fmt.Fprintln(tw, "----\t--------\t---------\t-------\t--------")

	for _, tool := range listed {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			tool.Name,
			tool.Category,
			tool.Signature(),
			yesNo(tool.SandboxSafe),
			yesNo(tool.RequiresApproval),
		)
	}

	tw.Flush()
}
