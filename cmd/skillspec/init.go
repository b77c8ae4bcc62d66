package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/templates"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// InitConfig holds configuration for the init command
type InitConfig struct {
	Version string
	Owner   string
	Locale  string
}

// NewInitConfig creates a new InitConfig with default values
func NewInitConfig() *InitConfig {
	return &InitConfig{
		Version: "",
		Owner:   "",
		Locale:  "",
	}
}

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Scaffold a new skill draft",
	Long: `Create a new skill draft in the workspace drafts/ directory, scaffolding
spec.yaml and a SKILL.md companion from the templates.

The name must be kebab-case. The workspace directory layout is created on
first use. Scaffolded documents carry TODO placeholders and fail strict
validation until they are filled in.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getInitConfigFromFlags(cmd)
		runInitCommand(ctx, config, args[0])
	},
}

func init() {
	defaults := NewInitConfig()
	initCmd.Flags().String("skill-version", defaults.Version, "Initial document version (default 1.0.0)")
	initCmd.Flags().String("owner", defaults.Owner, "Owning team written into the document header")
	initCmd.Flags().String("locale", defaults.Locale, "Template locale for section headings (en, zh)")
}

// getInitConfigFromFlags extracts init configuration from command flags
func getInitConfigFromFlags(cmd *cobra.Command) *InitConfig {
	config := NewInitConfig()

	if version, err := cmd.Flags().GetString("skill-version"); err == nil {
		config.Version = version
	}
	if owner, err := cmd.Flags().GetString("owner"); err == nil {
		config.Owner = owner
	}
	if locale, err := cmd.Flags().GetString("locale"); err == nil {
		config.Locale = locale
	}

	return config
}

func runInitCommand(ctx context.Context, config *InitConfig, name string) {
	ws, err := workspace.Find(".")
	if err != nil {
		presenter.Error(err, "Failed to locate workspace")
		os.Exit(1)
	}
	project := ws.LoadProject()

	dir, err := ws.CreateDraft(name)
	if err != nil {
		presenter.Error(err, "Failed to create draft")
		os.Exit(1)
	}

	locale := config.Locale
	if locale == "" {
		locale = project.I18n.TemplateLocale
	}
	processor, err := templates.NewProcessor(
		templates.WithTemplateDirs(ws.TemplatesDir()),
		templates.WithCatalog(i18n.NewCatalog(ws.MessagesDir())),
		templates.WithLocale(locale),
	)
	if err != nil {
		presenter.Error(err, "Failed to create template processor")
		os.Exit(1)
	}

	data := templates.DefaultData(name)
	if config.Version != "" {
		data.Version = config.Version
	}
	if config.Owner != "" {
		data.Owner = config.Owner
	}

	for _, tmpl := range []string{templates.SpecTemplate, templates.CompanionTemplate} {
		content, err := processor.Render(ctx, tmpl, data)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to render template %s", tmpl))
			os.Exit(1)
		}
		path := filepath.Join(dir, tmpl)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to write %s", path))
			os.Exit(1)
		}
		presenter.Success(cliMessage(ws, project, config.Locale, "cli.created", i18n.Args{"path": path}))
	}

	presenter.Info("Edit spec.yaml to replace the TODO sections, then run 'skillspec validate'")
}
