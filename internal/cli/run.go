// Package cli — run.go implements the "chore run" command, the full
// maintenance pass: build all documentation targets, then run the test
// suite. Documentation failures abort before any test executes, so a
// broken generator never hides behind a long test run.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &testFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build all docs targets, then run the test suite",
		Long: `Run the full maintenance pass: every configured documentation target is
built in order, and if all succeed, the test suite runs.

The exit code reflects the first failure: a generator error exits with
the docs failure code, a failing test suite with the test failure code.

Examples:
  chore run
  chore run --fail-fast`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			// runDocsPass tolerates a project with no docs targets, so a
			// tests-only project can still use the full pass.
			if err := runDocsPass(cmd.Context()); err != nil {
				return err
			}
			return runTest(cmd.Context(), nil, flags)
		},
	}

	// The run command accepts the test-phase flags; docs has none.
	cmd.Flags().BoolVar(&flags.failFast, "fail-fast", false, "Abort the test phase after the first failing file")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", time.Duration(0), "Per-file time limit for the test phase")
	cmd.Flags().StringVar(&flags.container, "container", "", "Run test files inside a disposable container of this image")

	return cmd
}
