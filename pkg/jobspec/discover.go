package jobspec

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns matches the conventional config layout: YAML files at
// the top of the config directory.
var DefaultPatterns = []string{"*.yaml", "*.yml"}

// Discover enumerates job config files under dir matching the given
// doublestar patterns (DefaultPatterns when none are supplied). Results
// are sorted and de-duplicated.
func Discover(dir string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid config pattern: %s", pattern)
		}
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob job configs: %w", err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir discovers and loads every job config under dir, indexed by
// logical job name. Files that fail to parse are reported, not skipped:
// a broken config should be fixed, not silently ignored.
func LoadDir(dir string, patterns ...string) (map[string]*Spec, error) {
	paths, err := Discover(dir, patterns...)
	if err != nil {
		return nil, err
	}

	specs := make(map[string]*Spec, len(paths))
	for _, path := range paths {
		spec, err := Load(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := specs[spec.JobName]; ok && prev != nil {
			return nil, fmt.Errorf("duplicate job_name %q in %s", spec.JobName, path)
		}
		specs[spec.JobName] = spec
	}
	return specs, nil
}
