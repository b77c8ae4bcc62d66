package workspace

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillspec/pkg/i18n"
)

// Project is the optional project.yaml next to or inside the workspace
// root. It carries project-wide defaults applied by the CLI.
type Project struct {
	// DefaultPolicy is a policy file path resolved relative to the
	// project.yaml location, applied automatically in strict mode.
	DefaultPolicy string `yaml:"default_policy" json:"default_policy,omitempty"`

	// I18n selects locales for reports, content checks, patterns, and
	// templates.
	I18n i18n.Context `yaml:"i18n" json:"i18n"`
}

// DefaultProject returns a project with no policy and default locales.
func DefaultProject() Project {
	return Project{I18n: i18n.DefaultContext()}
}

// LoadProject reads the workspace project.yaml. A missing or malformed
// file yields defaults rather than an error so every command works in a
// bare workspace. Unsupported locale values are normalized away.
func (w *Workspace) LoadProject() Project {
	project := DefaultProject()

	data, err := os.ReadFile(w.ProjectPath())
	if err != nil {
		return project
	}
	if err := yaml.Unmarshal(data, &project); err != nil {
		return DefaultProject()
	}

	project.I18n.Normalize()
	return project
}
