package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// scenarioExts lists the file extensions treated as scenarios.
var scenarioExts = []string{".yaml", ".yml", ".cue"}

// findScenarioFiles expands each path into scenario files. Files are taken
// as given; directories are walked for scenario extensions. A non-empty
// filter is a glob matched against the file name without extension.
// The result is sorted and free of duplicates.
func findScenarioFiles(paths []string, filter string) ([]string, error) {
	var files []string

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", root))
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := filepath.Ext(path)
			if !slices.Contains(scenarioExts, ext) {
				return nil
			}
			if filter != "" {
				name := strings.TrimSuffix(filepath.Base(path), ext)
				matched, err := filepath.Match(filter, name)
				if err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
				if !matched {
					return nil
				}
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to scan scenarios", err)
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}
