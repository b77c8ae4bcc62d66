package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillspec/pkg/expr"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/skill"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// ResolveConfig holds configuration for the resolve command
type ResolveConfig struct {
	Inputs []string
	Format string
}

// NewResolveConfig creates a new ResolveConfig with default values
func NewResolveConfig() *ResolveConfig {
	return &ResolveConfig{
		Inputs: []string{},
		Format: "text",
	}
}

// Validate validates the ResolveConfig and returns an error if invalid
func (c *ResolveConfig) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return errors.Errorf("invalid format: %s, must be text or json", c.Format)
	}
	return nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [skill-or-path]",
	Short: "Simulate decision rule resolution",
	Long: `Evaluate a document's decision rules against a simulated input
environment and show which rule fires.

Inputs are given as --input name=value pairs. Values are parsed as JSON
(numbers, booleans, lists, objects) and fall back to plain strings.
Inputs with declared defaults are seeded automatically when not given.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getResolveConfigFromFlags(cmd)
		runResolveCommand(config, args[0])
	},
}

func init() {
	defaults := NewResolveConfig()
	resolveCmd.Flags().StringArray("input", defaults.Inputs, "Input value as name=value (repeatable)")
	resolveCmd.Flags().String("format", defaults.Format, "Output format: text or json")
}

// getResolveConfigFromFlags extracts resolve configuration from command flags
func getResolveConfigFromFlags(cmd *cobra.Command) *ResolveConfig {
	config := NewResolveConfig()

	if inputs, err := cmd.Flags().GetStringArray("input"); err == nil {
		config.Inputs = inputs
	}
	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}

	return config
}

func runResolveCommand(config *ResolveConfig, target string) {
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

	doc, err := skill.ParseFile(path)
	if err != nil {
		presenter.Error(err, "Failed to parse document")
		os.Exit(1)
	}

	env, err := parseInputAssignments(config.Inputs)
	if err != nil {
		presenter.Error(err, "Invalid --input value")
		os.Exit(1)
	}
	seedInputDefaults(doc, env)

	res, resErr := skill.Resolve(doc, env)

	if config.Format == "json" {
		jsonData, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to render JSON output")
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
		if resErr != nil {
			presenter.Error(resErr, "Resolution failed")
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Strategy: %s\n", res.Strategy)
	if len(res.Considered) > 0 {
		fmt.Printf("Considered: %s\n", strings.Join(res.Considered, ", "))
	}
	if len(res.Matched) > 0 {
		fmt.Printf("Matched: %s\n", strings.Join(res.Matched, ", "))
	}
	for _, fault := range res.Faults {
		if fault.Error != "" {
			presenter.Warning(fmt.Sprintf("Rule %s: %s", fault.RuleID, fault.Error))
			continue
		}
		for _, f := range fault.Faults {
			presenter.Warning(fmt.Sprintf("Rule %s: %s", fault.RuleID, f.String()))
		}
	}
	for _, conflict := range res.Conflicts {
		presenter.Warning(fmt.Sprintf("Ambiguous match: %s (winner %s)", conflict.Message, conflict.Winner))
	}

	if resErr != nil {
		presenter.Error(resErr, "Resolution failed")
		os.Exit(1)
	}

	for _, rule := range res.Fired {
		header := "Fired: " + rule.ID
		if res.UsedDefault {
			header += " (default)"
		}
		fmt.Println(header)
		outcome, err := yaml.Marshal(rule.Then)
		if err != nil {
			presenter.Error(err, "Failed to render outcome")
			os.Exit(1)
		}
		fmt.Print(indentBlock(string(outcome), "  "))
	}
}

// parseInputAssignments turns name=value pairs into an evaluation
// environment. Values parse as JSON first so numbers, booleans, lists and
// objects come through typed; anything else stays a string.
func parseInputAssignments(inputs []string) (expr.Env, error) {
	env := expr.Env{}
	for _, input := range inputs {
		name, raw, found := strings.Cut(input, "=")
		if !found || name == "" {
			return nil, errors.Errorf("input %q is not in name=value form", input)
		}
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			env[name] = parsed
		} else {
			env[name] = raw
		}
	}
	return env, nil
}

// seedInputDefaults fills declared input defaults into the environment for
// inputs the caller did not set.
func seedInputDefaults(doc *skill.Document, env expr.Env) {
	for _, input := range doc.Inputs {
		if input.Default == nil {
			continue
		}
		if _, ok := env[input.Name]; !ok {
			env[input.Name] = input.Default
		}
	}
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
