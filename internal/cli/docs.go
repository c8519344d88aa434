// Package cli — docs.go implements the "chore docs" command.
//
// The docs command replaces the per-module documentation wrapper scripts:
// for each configured target it invokes the external documentation
// generator into a staging directory, then relocates the generated files
// into the shared docs root.
//
// Orchestration steps per target:
//  1. Preflight the generator binary on PATH
//  2. Run the generator into a fresh staging directory, checking its exit
//  3. Hoist the generator-chosen subdirectory into the docs root
//  4. Remove the staging directory (containment-checked)
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/chore/internal/config"
	"github.com/mmr-tortoise/chore/internal/docs"
	"github.com/mmr-tortoise/chore/internal/model"
)

// NewDocsCommand creates the "docs" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs [target...]",
		Short: "Build documentation for configured targets",
		Long: `Build documentation by invoking the configured generator and relocating
its output into the shared docs root.

With no arguments, all configured targets are built in order. Named
targets restrict the build to those targets.

Examples:
  chore docs
  chore docs cormen-lib
  chore docs --json`,

		// Any number of target names may be given; they are validated
		// against the configuration in runDocs.
		Args: cobra.ArbitraryArgs,

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocs(cmd.Context(), args)
		},
	}

	return cmd
}

// newDocsBuilder creates a Builder wired to the CLI's verbose logger.
func newDocsBuilder(cfg *config.Config) *docs.Builder {
	return docs.NewBuilder(cfg, VerboseLog)
}

// runDocs is the main orchestration function for the docs command.
func runDocs(ctx context.Context, targetNames []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(cfg.Docs.Targets) == 0 {
		return model.NewCLIError(model.ExitConfigError, "no docs targets configured")
	}

	builder := newDocsBuilder(cfg)

	var results []model.DocsResult
	if len(targetNames) == 0 {
		// Build everything, aborting on the first failure.
		results, err = builder.BuildAll(ctx)
	} else {
		// Build only the named targets, in the order given.
		for _, name := range targetNames {
			target, ok := cfg.Target(name)
			if !ok {
				return model.NewCLIError(model.ExitConfigError,
					fmt.Sprintf("unknown docs target %q", name))
			}
			result, buildErr := builder.Build(ctx, target)
			if buildErr != nil {
				err = buildErr
				break
			}
			results = append(results, result)
		}
	}
	if err != nil {
		return err
	}

	return printDocsResults(results)
}

// printDocsResults renders the per-target build results in text or
// JSON format.
func printDocsResults(results []model.DocsResult) error {
	if IsJSONOutput() {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to marshal results", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(os.Stdout, "built %s: %d entries → %s (%s)\n",
			r.Target, r.FilesMoved, r.OutputDir, r.Duration.Round(time.Millisecond))
	}
	return nil
}
