// Package cli — clean.go implements the "chore clean" command.
//
// Clean removes build products: the docs output root, and optionally
// leftover sandbox containers from interrupted containerized test runs.
// Every delete goes through the same containment guard the docs builder
// uses, so a misconfigured output path cannot delete unrelated files.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/chore/internal/docs"
	"github.com/mmr-tortoise/chore/internal/sandbox"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	containers bool // --containers: also remove leftover sandbox containers
}

// NewCleanCommand creates the "clean" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove generated documentation and leftover sandbox containers",
		Long: `Remove the docs output root. With --containers, also remove Docker
containers left behind by interrupted containerized test runs.

Examples:
  chore clean
  chore clean --containers`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.containers, "containers", false, "Also remove leftover sandbox containers")

	return cmd
}

// runClean is the main logic function for the clean command.
func runClean(ctx context.Context, flags *cleanFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	outputDir := cfg.OutputDir()
	if _, statErr := os.Stat(outputDir); statErr == nil {
		// The delete is scoped to the project root: an output path that
		// resolves outside the project is refused, not deleted.
		if err := docs.ScopedRemoveAll(cfg.Root, outputDir); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "removed %s\n", outputDir)
	} else {
		VerboseLog("docs output %s does not exist, nothing to remove", outputDir)
	}

	if !flags.containers {
		return nil
	}

	cli, err := sandbox.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	ids, err := sandbox.ListLeftover(ctx, cli, cfg.Root)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stdout, "no leftover sandbox containers")
		return nil
	}

	if err := sandbox.RemoveLeftover(ctx, cli, ids); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "removed %d sandbox containers\n", len(ids))
	return nil
}
