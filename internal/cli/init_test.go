// Package cli — init_test.go contains unit tests for the init command's
// file generation, which is pure filesystem logic and needs no cobra
// plumbing to exercise.
package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/chore/internal/config"
	"github.com/mmr-tortoise/chore/internal/model"
)

// TestRunInit verifies that init writes a starter file that the config
// loader accepts with the documented defaults.
func TestRunInit(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runInit(dir))

	path := filepath.Join(dir, "chore.yaml")
	require.FileExists(t, path)

	// The starter file must round-trip through the loader.
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "docs", cfg.Docs.Output)
	assert.Empty(t, cfg.Docs.Targets)
	assert.Equal(t, "*_test.py", cfg.Tests.Pattern)
}

// TestRunInit_RefusesOverwrite verifies init never clobbers an existing
// configuration, including the alternative file names.
func TestRunInit_RefusesOverwrite(t *testing.T) {
	for _, name := range []string{"chore.yaml", "chore.yml", "chore.json"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			existing := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(existing, []byte("version: 1\n"), 0644))

			err := runInit(dir)
			require.Error(t, err)

			cliErr, ok := err.(*model.CLIError)
			require.True(t, ok)
			assert.Equal(t, model.ExitConfigError, cliErr.Code)

			// The existing file is untouched.
			content, readErr := os.ReadFile(existing)
			require.NoError(t, readErr)
			assert.Equal(t, "version: 1\n", string(content))
		})
	}
}
