// Package testrun implements the sequential test-run sequence.
//
// Test files are plain files matched by a glob pattern inside the
// project's tests directory. Each file is executed independently by an
// external interpreter, strictly one after another, and the interpreter's
// exit code is the only signal chore interprets: the semantics of the
// test framework inside the files are out of scope.
//
// The runner improves on the wrapper script it replaces in two ways:
// results are aggregated into a summary that maps to the process exit
// code, and the discovery order is deterministic (sorted) instead of
// whatever order the directory listing happens to return.
package testrun

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mmr-tortoise/chore/internal/model"
)

// Discover returns the test files under dir matching pattern, sorted
// lexicographically by their path relative to dir.
//
// The pattern supports doublestar globs, so both flat layouts
// ("*_test.py") and nested ones ("**/*_test.py") work. Matching
// directories are ignored; only regular files are test files.
func Discover(dir, pattern string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("tests directory %s not found", dir), err)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid test file pattern %q", pattern), err)
	}

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		info, statErr := os.Stat(filepath.Join(dir, filepath.FromSlash(match)))
		if statErr != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
	}

	// doublestar returns matches in filesystem order; sort for a
	// stable, reproducible execution order across platforms.
	sort.Strings(files)

	return files, nil
}
