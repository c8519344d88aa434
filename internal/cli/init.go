// Package cli — init.go implements the "chore init" command, which
// writes a commented starter chore.yaml into the current directory.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/chore/internal/model"
)

// starterConfig is the chore.yaml written by init. The commented-out
// lines document defaults without activating them, so a fresh file
// behaves identically with or without editing.
const starterConfig = `version: 1

docs:
  # Shared root all generated documentation ends up in.
  output: docs
  # Generator argv. {source} and {staging} are substituted per target;
  # the generator should write under {staging}.
  generator: [pdoc, --html, --force, --output-dir, "{staging}", "{source}"]
  targets: []
  #  - name: my-module
  #    source: src/my_module

tests:
  dir: tests
  pattern: "*_test.py"
  interpreter: [python3]
  # timeout: 5m
  # failFast: true

# watch:
#   debounce: 500ms
#   paths: [src]
`

// NewInitCommand creates the "init" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter chore.yaml into the current directory",
		Long: `Write a commented starter configuration file. The command refuses to
overwrite an existing configuration.

Examples:
  chore init`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
			}
			return runInit(cwd)
		},
	}

	return cmd
}

// runInit writes the starter configuration into dir.
func runInit(dir string) error {
	path := filepath.Join(dir, "chore.yaml")

	// Refuse to clobber any existing configuration variant, not just
	// the exact file we would write.
	for _, name := range []string{"chore.yaml", "chore.yml", "chore.json"} {
		existing := filepath.Join(dir, name)
		if _, err := os.Stat(existing); err == nil {
			return model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("%s already exists, refusing to overwrite", existing))
		}
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to write %s", path), err)
	}

	fmt.Fprintf(os.Stdout, "wrote %s\n", path)
	return nil
}
