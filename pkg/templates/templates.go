// Package templates renders the scaffolding documents written by `init`:
// a starter spec.yaml and its SKILL.md companion. Workspaces can override
// the built-in templates by dropping same-named files into
// skillspec/templates/. Templates are Go text/template with a `section`
// function resolving localized section headings.
package templates

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/logger"
)

// Data holds the fields substituted into scaffold templates.
type Data struct {
	Name    string
	Version string
	Owner   string
}

// DefaultData returns scaffold data for a new skill, matching the
// placeholder values of the built-in templates.
func DefaultData(name string) Data {
	return Data{
		Name:    name,
		Version: "1.0.0",
		Owner:   "TODO-team-name",
	}
}

// Processor loads and renders templates.
type Processor struct {
	templateDirs []string
	catalog      *i18n.Catalog
	locale       string
}

// Option configures a Processor.
type Option func(*Processor) error

// WithTemplateDirs sets override directories searched before the
// built-in templates, in precedence order.
func WithTemplateDirs(dirs ...string) Option {
	return func(p *Processor) error {
		if len(dirs) == 0 {
			return errors.New("at least one template directory must be specified")
		}
		p.templateDirs = dirs
		return nil
	}
}

// WithCatalog sets the message catalog backing the `section` function.
func WithCatalog(catalog *i18n.Catalog) Option {
	return func(p *Processor) error {
		if catalog != nil {
			p.catalog = catalog
		}
		return nil
	}
}

// WithLocale sets the heading language for the `section` function.
func WithLocale(locale string) Option {
	return func(p *Processor) error {
		if locale != "" {
			p.locale = locale
		}
		return nil
	}
}

// NewProcessor creates a template processor. Without options it renders
// the built-in templates with English headings.
func NewProcessor(opts ...Option) (*Processor, error) {
	p := &Processor{
		catalog: i18n.NewCatalog(""),
		locale:  i18n.DefaultLocale,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply template processor option")
		}
	}
	return p, nil
}

// Render loads the named template from the override directories or the
// built-ins and executes it with data.
func (p *Processor) Render(ctx context.Context, name string, data Data) (string, error) {
	content, source, err := p.loadTemplate(name)
	if err != nil {
		return "", err
	}

	logger.G(ctx).WithField("template", name).WithField("source", source).Debug("Rendering template")

	tmpl, err := template.New(name).Funcs(p.funcMap()).Parse(content)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse template '%s'", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "failed to render template '%s'", name)
	}
	return buf.String(), nil
}

func (p *Processor) loadTemplate(name string) (content, source string, err error) {
	for _, dir := range p.templateDirs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", errors.Wrapf(err, "failed to read template file '%s'", path)
		}
		return string(data), path, nil
	}

	if content, ok := builtinContent(name); ok {
		return content, "builtin", nil
	}
	return "", "", errors.Errorf("template '%s' not found (built-ins: %v, directories: %v)",
		name, builtinNames(), p.templateDirs)
}

func (p *Processor) funcMap() template.FuncMap {
	return template.FuncMap{
		"section": func(key string) string {
			return p.catalog.Get(p.locale, "sections."+key, nil)
		},
	}
}

// List returns the available template names, override directories first.
func (p *Processor) List() []string {
	var names []string
	seen := make(map[string]bool)

	for _, dir := range p.templateDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || seen[entry.Name()] {
				continue
			}
			names = append(names, entry.Name())
			seen[entry.Name()] = true
		}
	}

	for _, name := range builtinNames() {
		if !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	sort.Strings(names)
	return names
}
