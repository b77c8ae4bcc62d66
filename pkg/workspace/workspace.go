// Package workspace manages the skillspec directory layout: drafts/,
// skills/, archive/, patterns/, templates/ under a single root found by
// walking up from the working directory. Skills live as
// <root>/{drafts,skills}/<name>/spec.yaml with an optional SKILL.md
// companion next to the spec.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillspec/pkg/skill"
)

// DirName is the workspace root directory name.
const DirName = "skillspec"

// SpecFileName is the canonical document file inside a skill directory.
const SpecFileName = "spec.yaml"

// Skill statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusUnknown   = "unknown"
)

// Workspace is a skillspec directory tree.
type Workspace struct {
	// Root is the skillspec directory itself, not its parent.
	Root string
}

// New returns a workspace rooted at the given skillspec directory.
func New(root string) *Workspace {
	return &Workspace{Root: root}
}

// Find locates the nearest workspace by walking up from startDir. When no
// skillspec directory exists anywhere above, it falls back to
// startDir/skillspec so callers can create one.
func Find(startDir string) (*Workspace, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", startDir)
	}

	for probe := dir; ; {
		candidate := filepath.Join(probe, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return New(candidate), nil
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	return New(filepath.Join(dir, DirName)), nil
}

func (w *Workspace) DraftsDir() string    { return filepath.Join(w.Root, "drafts") }
func (w *Workspace) SkillsDir() string    { return filepath.Join(w.Root, "skills") }
func (w *Workspace) ArchiveDir() string   { return filepath.Join(w.Root, "archive") }
func (w *Workspace) PatternsDir() string  { return filepath.Join(w.Root, "patterns") }
func (w *Workspace) TemplatesDir() string { return filepath.Join(w.Root, "templates") }

// MessagesDir holds per-locale message catalogs overriding the built-ins.
func (w *Workspace) MessagesDir() string {
	return filepath.Join(w.TemplatesDir(), "messages")
}

// DiaryPath is the validation history database location.
func (w *Workspace) DiaryPath() string {
	return filepath.Join(w.Root, "history.db")
}

// ProjectPath returns the project.yaml location: next to the workspace
// root when present there, otherwise inside it.
func (w *Workspace) ProjectPath() string {
	outside := filepath.Join(filepath.Dir(w.Root), "project.yaml")
	if _, err := os.Stat(outside); err == nil {
		return outside
	}
	return filepath.Join(w.Root, "project.yaml")
}

// EnsureDirs creates the workspace directory layout.
func (w *Workspace) EnsureDirs() error {
	dirs := []string{
		w.DraftsDir(),
		w.SkillsDir(),
		w.ArchiveDir(),
		w.PatternsDir(),
		w.MessagesDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	return nil
}

// FindSkill returns the spec.yaml path for a named skill, checking drafts
// before published skills.
func (w *Workspace) FindSkill(name string) (string, error) {
	for _, dir := range []string{w.DraftsDir(), w.SkillsDir()} {
		path := filepath.Join(dir, name, SpecFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Errorf("skill %q not found in %s", name, w.Root)
}

// Status reports whether a skill is a draft, published, or unknown.
func (w *Workspace) Status(name string) string {
	if _, err := os.Stat(filepath.Join(w.DraftsDir(), name)); err == nil {
		return StatusDraft
	}
	if _, err := os.Stat(filepath.Join(w.SkillsDir(), name)); err == nil {
		return StatusPublished
	}
	return StatusUnknown
}

// SkillInfo describes one skill directory in the workspace.
type SkillInfo struct {
	Name         string
	Status       string
	SpecPath     string
	HasSpec      bool
	HasCompanion bool
}

// List enumerates every skill, drafts first, each group sorted by name.
func (w *Workspace) List() ([]SkillInfo, error) {
	var infos []SkillInfo
	for _, group := range []struct {
		dir    string
		status string
	}{
		{w.DraftsDir(), StatusDraft},
		{w.SkillsDir(), StatusPublished},
	} {
		entries, err := os.ReadDir(group.dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", group.dir)
		}

		var groupInfos []SkillInfo
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			skillDir := filepath.Join(group.dir, entry.Name())
			specPath := filepath.Join(skillDir, SpecFileName)
			info := SkillInfo{
				Name:     entry.Name(),
				Status:   group.status,
				SpecPath: specPath,
			}
			if _, err := os.Stat(specPath); err == nil {
				info.HasSpec = true
			}
			if _, err := os.Stat(filepath.Join(skillDir, skill.CompanionFileName)); err == nil {
				info.HasCompanion = true
			}
			groupInfos = append(groupInfos, info)
		}
		sort.Slice(groupInfos, func(i, j int) bool {
			return groupInfos[i].Name < groupInfos[j].Name
		})
		infos = append(infos, groupInfos...)
	}
	return infos, nil
}

// CreateDraft makes the draft directory for a new skill and returns it.
// The name must be kebab-case and unused in both drafts and skills.
func (w *Workspace) CreateDraft(name string) (string, error) {
	if !skill.IsKebabCase(name) {
		return "", errors.Errorf("invalid skill name %q: must be kebab-case (e.g. extract-api-contract)", name)
	}
	if w.Status(name) != StatusUnknown {
		return "", errors.Errorf("skill %q already exists as %s", name, w.Status(name))
	}
	if err := w.EnsureDirs(); err != nil {
		return "", err
	}

	dir := filepath.Join(w.DraftsDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create draft directory %s", dir)
	}
	return dir, nil
}

// Publish moves a draft into skills/ and returns the source and
// destination directories. The caller is expected to validate first.
func (w *Workspace) Publish(name string) (string, string, error) {
	from := filepath.Join(w.DraftsDir(), name)
	if _, err := os.Stat(from); err != nil {
		return "", "", errors.Errorf("skill %q not found in drafts", name)
	}
	to := filepath.Join(w.SkillsDir(), name)
	if _, err := os.Stat(to); err == nil {
		return "", "", errors.Errorf("skill %q already published; archive it first", name)
	}
	if err := os.MkdirAll(w.SkillsDir(), 0o755); err != nil {
		return "", "", errors.Wrap(err, "failed to create skills directory")
	}
	if err := os.Rename(from, to); err != nil {
		return "", "", errors.Wrapf(err, "failed to publish %s", name)
	}
	return from, to, nil
}

// Archive moves a published skill into archive/ under a dated name and
// returns the destination directory.
func (w *Workspace) Archive(name string) (string, error) {
	from := filepath.Join(w.SkillsDir(), name)
	if _, err := os.Stat(from); err != nil {
		return "", errors.Errorf("skill %q not found in skills", name)
	}
	if err := os.MkdirAll(w.ArchiveDir(), 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create archive directory")
	}

	to := filepath.Join(w.ArchiveDir(), fmt.Sprintf("%s-%s", time.Now().Format("2006-01-02"), name))
	if err := os.Rename(from, to); err != nil {
		return "", errors.Wrapf(err, "failed to archive %s", name)
	}
	return to, nil
}
