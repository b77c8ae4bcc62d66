package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// DefaultDiscoverPatterns match the two recognized document layouts:
// directory-per-skill spec.yaml files and standalone *.skill.yaml files.
var DefaultDiscoverPatterns = []string{
	"**/spec.yaml",
	"**/*.skill.yaml",
}

// Discover walks dir and returns every file matching any of the glob
// patterns, sorted. Patterns use doublestar syntax against slash-separated
// paths relative to dir; with no patterns the defaults apply. Hidden
// directories are skipped.
func Discover(dir string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultDiscoverPatterns
	}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid glob pattern %q", pattern)
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to discover in %s", dir)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var found []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != dir && len(name) > 1 && name[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range patterns {
			ok, err := doublestar.Match(pattern, rel)
			if err != nil {
				return errors.Wrapf(err, "bad pattern %q", pattern)
			}
			if ok {
				found = append(found, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to discover in %s", dir)
	}

	sort.Strings(found)
	return found, nil
}
