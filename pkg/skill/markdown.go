package skill

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	yamlv2 "gopkg.in/yaml.v2"
)

// CompanionFileName is the markdown companion that ships alongside a skill
// document and carries the human-facing instructions.
const CompanionFileName = "SKILL.md"

// Companion is a parsed SKILL.md: YAML frontmatter plus a markdown body.
type Companion struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Version      string         `json:"version,omitempty"`
	AllowedTools []string       `json:"allowed_tools,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
	Body         string         `json:"-"`
	BodyLine     int            `json:"-"`

	path string
}

// companionMeta is the typed frontmatter shape. The frontmatter map is
// round-tripped through yaml.v2 because goldmark-meta produces v2-style
// map[interface{}]interface{} values for nested keys.
type companionMeta struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Version      string   `yaml:"version"`
	AllowedTools []string `yaml:"allowed-tools"`
}

// ParseCompanion parses SKILL.md content: frontmatter with at least name and
// description, then the markdown body.
func ParseCompanion(content []byte) (*Companion, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	raw, err := yamlv2.Marshal(metaData)
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize frontmatter")
	}
	var cm companionMeta
	if err := yamlv2.Unmarshal(raw, &cm); err != nil {
		return nil, errors.Wrap(err, "failed to decode frontmatter")
	}

	if cm.Name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if cm.Description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	body, bodyLine := splitFrontmatter(string(content))

	return &Companion{
		Name:         cm.Name,
		Description:  cm.Description,
		Version:      cm.Version,
		AllowedTools: cm.AllowedTools,
		Meta:         metaData,
		Body:         body,
		BodyLine:     bodyLine,
	}, nil
}

// LoadCompanion reads and parses a SKILL.md file from disk.
func LoadCompanion(path string) (*Companion, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	companion, err := ParseCompanion(content)
	if err != nil {
		return nil, err
	}
	companion.path = path
	return companion, nil
}

// Path returns the file the companion was loaded from, if any.
func (c *Companion) Path() string {
	return c.path
}

// splitFrontmatter strips the leading YAML frontmatter block and returns the
// body together with the 1-based line the body starts on.
func splitFrontmatter(content string) (string, int) {
	if !strings.HasPrefix(content, "---") {
		return content, 1
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "---" {
			continue
		}
		start := i + 1
		for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
			start++
		}
		body := strings.TrimRight(strings.Join(lines[start:], "\n"), "\n\t ")
		return body, start + 1
	}
	return content, 1
}
