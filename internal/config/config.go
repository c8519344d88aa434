// Package config loads and validates the chore project configuration.
//
// A project is configured by a single file at its root, either
// chore.yaml (parsed with gopkg.in/yaml.v3) or chore.json. The JSON
// variant allows comments and trailing commas, so this package uses
// github.com/tidwall/jsonc to normalize it before parsing with the
// standard encoding/json library.
//
// The configuration replaces what used to be per-module wrapper scripts:
// each documentation target is one entry under docs.targets, and a single
// code path builds all of them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/chore/internal/model"
)

// candidateNames lists the configuration file names probed by Locate,
// in priority order.
var candidateNames = []string{"chore.yaml", "chore.yml", "chore.json"}

// Duration wraps time.Duration so that configuration files can use
// human-readable values like "30s" or "5m" in both YAML and JSON.
type Duration time.Duration

// UnmarshalYAML parses a duration string from a YAML scalar node.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON parses a duration from a JSON string.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back to its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// MarshalJSON renders the duration back to its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DocsTarget describes one source module to generate documentation for.
type DocsTarget struct {
	// Name identifies the target in CLI arguments and output.
	// Restricted to alphanumerics and hyphens.
	Name string `yaml:"name" json:"name"`

	// Source is the module source directory passed to the generator,
	// relative to the project root.
	Source string `yaml:"source" json:"source"`
}

// DocsConfig configures documentation generation.
type DocsConfig struct {
	// Output is the shared docs root all generated files end up in,
	// relative to the project root. Defaults to "docs".
	Output string `yaml:"output" json:"output"`

	// Generator is the argv template for the external documentation
	// generator. The placeholders {source}, {staging}, and {name} are
	// substituted per target before invocation. The generator is expected
	// to write its output under {staging}; chore relocates it afterwards.
	Generator []string `yaml:"generator" json:"generator"`

	// Targets lists the source modules to document.
	Targets []DocsTarget `yaml:"targets" json:"targets"`
}

// TestsConfig configures the sequential test runner.
type TestsConfig struct {
	// Dir is the directory holding test files, relative to the project
	// root. Defaults to "tests".
	Dir string `yaml:"dir" json:"dir"`

	// Pattern is the glob pattern matching test files within Dir.
	// Defaults to "*_test.py". Supports doublestar globs ("**/*_test.py").
	Pattern string `yaml:"pattern" json:"pattern"`

	// Interpreter is the argv prefix used to execute each test file; the
	// file path is appended as the final argument. Defaults to ["python3"].
	Interpreter []string `yaml:"interpreter" json:"interpreter"`

	// Timeout bounds a single test file invocation. Zero means no limit.
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// FailFast aborts the run after the first failing or erroring file.
	// Remaining files are recorded as skipped.
	FailFast bool `yaml:"failFast" json:"failFast"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is the quiet period after the last filesystem event
	// before a rebuild is triggered. Defaults to 500ms.
	Debounce Duration `yaml:"debounce" json:"debounce"`

	// Paths lists extra directories to watch, beyond the docs target
	// sources and the tests dir, relative to the project root.
	Paths []string `yaml:"paths" json:"paths"`
}

// Config is the root of the chore project configuration.
type Config struct {
	// Version is the configuration schema version. Currently always 1.
	Version int `yaml:"version" json:"version"`

	Docs  DocsConfig  `yaml:"docs" json:"docs"`
	Tests TestsConfig `yaml:"tests" json:"tests"`
	Watch WatchConfig `yaml:"watch" json:"watch"`

	// Root is the absolute path of the directory containing the
	// configuration file. Set by Load, never read from the file itself.
	// All relative paths in the configuration resolve against it.
	Root string `yaml:"-" json:"-"`
}

// Target looks up a documentation target by name.
func (c *Config) Target(name string) (DocsTarget, bool) {
	for _, t := range c.Docs.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return DocsTarget{}, false
}

// OutputDir returns the absolute docs output root.
func (c *Config) OutputDir() string {
	return filepath.Join(c.Root, c.Docs.Output)
}

// TestsDir returns the absolute tests directory.
func (c *Config) TestsDir() string {
	return filepath.Join(c.Root, c.Tests.Dir)
}

// Locate walks up from startDir looking for a configuration file.
// It returns the absolute path of the first candidate found. The walk
// stops at the filesystem root.
//
// This mirrors how tools like git resolve their project root: chore can
// be invoked from any subdirectory of the project.
func Locate(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitConfigError, "failed to resolve start directory", err)
	}

	for {
		for _, name := range candidateNames {
			candidate := filepath.Join(dir, name)
			if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without finding a config file.
			return "", model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("no %s found in %s or any parent directory", strings.Join(candidateNames, ", "), startDir))
		}
		dir = parent
	}
}

// Load reads, parses, validates, and applies defaults to the
// configuration file at path. The format is chosen by file extension:
// .json is parsed as JSONC, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read %s", path), err)
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		// jsonc.ToJSON strips comments and trailing commas in place,
		// producing strict JSON the standard library can parse.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to parse %s", path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to parse %s", path), err)
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to resolve config path", err)
	}
	cfg.Root = filepath.Dir(absPath)

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills in zero-valued fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Docs.Output == "" {
		c.Docs.Output = "docs"
	}
	if len(c.Docs.Generator) == 0 && len(c.Docs.Targets) > 0 {
		// pdoc's HTML mode matches the output-subdirectory contract:
		// it writes into {staging}/<module-name>/, which the relocate
		// step hoists into the docs root.
		c.Docs.Generator = []string{"pdoc", "--html", "--force", "--output-dir", "{staging}", "{source}"}
	}
	if c.Tests.Dir == "" {
		c.Tests.Dir = "tests"
	}
	if c.Tests.Pattern == "" {
		c.Tests.Pattern = "*_test.py"
	}
	if len(c.Tests.Interpreter) == 0 {
		c.Tests.Interpreter = []string{"python3"}
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(500 * time.Millisecond)
	}
}

// validate checks structural constraints the defaults cannot repair.
func (c *Config) validate() error {
	if c.Version != 1 {
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("unsupported config version %d (only version 1 is supported)", c.Version))
	}

	seen := make(map[string]bool)
	for _, target := range c.Docs.Targets {
		if err := model.ValidateTargetName(target.Name); err != nil {
			return model.WrapCLIError(model.ExitConfigError, "invalid docs target", err)
		}
		if seen[target.Name] {
			return model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("duplicate docs target name %q", target.Name))
		}
		seen[target.Name] = true

		if target.Source == "" {
			return model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("docs target %q has no source directory", target.Name))
		}
	}

	if !doublestar.ValidatePattern(c.Tests.Pattern) {
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid tests pattern %q", c.Tests.Pattern))
	}

	if c.Tests.Timeout < 0 {
		return model.NewCLIError(model.ExitConfigError, "tests timeout must not be negative")
	}

	return nil
}
