package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/chore/internal/model"
)

// writeConfig writes a config file with the given name and content into
// a fresh temp directory and returns its path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad_YAML verifies parsing of a complete chore.yaml.
func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "chore.yaml", `
version: 1
docs:
  output: site
  generator: [pdoc, --html, --output-dir, "{staging}", "{source}"]
  targets:
    - name: cormen-lib
      source: src/cormen_lib
    - name: dalpy
      source: src/dalpy
tests:
  dir: tests
  pattern: "*_test.py"
  interpreter: [python3]
  timeout: 2m
  failFast: true
watch:
  debounce: 250ms
  paths: [src]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "site", cfg.Docs.Output)
	assert.Len(t, cfg.Docs.Targets, 2)
	assert.Equal(t, "cormen-lib", cfg.Docs.Targets[0].Name)
	assert.Equal(t, "src/dalpy", cfg.Docs.Targets[1].Source)
	assert.Equal(t, 2*time.Minute, cfg.Tests.Timeout.Std())
	assert.True(t, cfg.Tests.FailFast)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce.Std())
	assert.Equal(t, filepath.Dir(path), cfg.Root)
}

// TestLoad_JSONC verifies parsing of a chore.json with comments and a
// trailing comma, which the jsonc normalization must tolerate.
func TestLoad_JSONC(t *testing.T) {
	path := writeConfig(t, "chore.json", `{
  // schema version
  "version": 1,
  "docs": {
    "targets": [
      {"name": "dalpy", "source": "src/dalpy"},
    ]
  },
  "tests": {
    "timeout": "90s"
  }
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Docs.Targets, 1)
	assert.Equal(t, "dalpy", cfg.Docs.Targets[0].Name)
	assert.Equal(t, 90*time.Second, cfg.Tests.Timeout.Std())
}

// TestLoad_Defaults verifies that a minimal config is filled in with
// the documented defaults.
func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "chore.yaml", `
docs:
  targets:
    - name: dalpy
      source: src/dalpy
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "docs", cfg.Docs.Output)
	assert.NotEmpty(t, cfg.Docs.Generator, "a default generator argv should be applied when targets exist")
	assert.Equal(t, "tests", cfg.Tests.Dir)
	assert.Equal(t, "*_test.py", cfg.Tests.Pattern)
	assert.Equal(t, []string{"python3"}, cfg.Tests.Interpreter)
	assert.Equal(t, time.Duration(0), cfg.Tests.Timeout.Std())
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce.Std())
}

// TestLoad_ValidationErrors verifies that structural problems are
// rejected with ExitConfigError.
func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "duplicate target names",
			content: `
docs:
  targets:
    - {name: lib, source: src/a}
    - {name: lib, source: src/b}
`,
		},
		{
			name: "invalid target name",
			content: `
docs:
  targets:
    - {name: "my_lib", source: src/a}
`,
		},
		{
			name: "target without source",
			content: `
docs:
  targets:
    - {name: lib}
`,
		},
		{
			name: "unsupported version",
			content: `
version: 2
`,
		},
		{
			name: "invalid glob pattern",
			content: `
tests:
  pattern: "[unclosed"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "chore.yaml", tt.content)
			_, err := Load(path)
			require.Error(t, err)

			cliErr, ok := err.(*model.CLIError)
			require.True(t, ok, "expected a CLIError, got %T", err)
			assert.Equal(t, model.ExitConfigError, cliErr.Code)
		})
	}
}

// TestLoad_MalformedYAML verifies parse errors are wrapped with
// ExitConfigError.
func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "chore.yaml", "docs: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

// TestLocate verifies the upward walk from a nested directory.
func TestLocate(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "deep", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0755))

	configPath := filepath.Join(root, "chore.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\n"), 0644))

	found, err := Locate(nested)
	require.NoError(t, err)
	assert.Equal(t, configPath, found)
}

// TestLocate_PrefersYAML verifies the candidate priority when multiple
// config files exist side by side.
func TestLocate_PrefersYAML(t *testing.T) {
	root := t.TempDir()
	yamlPath := filepath.Join(root, "chore.yaml")
	jsonPath := filepath.Join(root, "chore.json")
	require.NoError(t, os.WriteFile(yamlPath, []byte("version: 1\n"), 0644))
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0644))

	found, err := Locate(root)
	require.NoError(t, err)
	assert.Equal(t, yamlPath, found)
}

// TestLocate_NotFound verifies the error when no config file exists
// anywhere up the tree.
func TestLocate_NotFound(t *testing.T) {
	_, err := Locate(t.TempDir())
	require.Error(t, err)
	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

// TestConfig_Target verifies target lookup by name.
func TestConfig_Target(t *testing.T) {
	cfg := &Config{
		Docs: DocsConfig{
			Targets: []DocsTarget{
				{Name: "a", Source: "src/a"},
				{Name: "b", Source: "src/b"},
			},
		},
	}

	target, ok := cfg.Target("b")
	require.True(t, ok)
	assert.Equal(t, "src/b", target.Source)

	_, ok = cfg.Target("missing")
	assert.False(t, ok)
}
