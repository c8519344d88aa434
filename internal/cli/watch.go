// Package cli — watch.go implements the "chore watch" command.
//
// Watch mode observes the docs target sources, the tests directory, and
// any extra configured paths, and re-runs the maintenance pass after
// changes settle. Failures are printed but do not stop watching; the
// next change triggers a fresh pass.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/chore/internal/watch"
)

// watchFlags holds the flag values for the watch command.
type watchFlags struct {
	noDocs  bool // --no-docs: skip the docs phase on rebuilds
	noTests bool // --no-tests: skip the test phase on rebuilds
}

// NewWatchCommand creates the "watch" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewWatchCommand() *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run docs and tests when project files change",
		Long: `Watch the docs target sources and the tests directory, re-running the
maintenance pass after a burst of changes settles. Press Ctrl-C to stop.

Examples:
  chore watch
  chore watch --no-docs`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noDocs, "no-docs", false, "Skip documentation on rebuilds")
	cmd.Flags().BoolVar(&flags.noTests, "no-tests", false, "Skip tests on rebuilds")

	return cmd
}

// runWatch is the main logic function for the watch command.
func runWatch(ctx context.Context, flags *watchFlags) error {
	if flags.noDocs && flags.noTests {
		return fmt.Errorf("--no-docs and --no-tests together leave nothing to do")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Watch roots: every docs source, the tests dir, and extras.
	roots := make([]string, 0, len(cfg.Docs.Targets)+1+len(cfg.Watch.Paths))
	for _, t := range cfg.Docs.Targets {
		roots = append(roots, filepath.Join(cfg.Root, t.Source))
	}
	roots = append(roots, cfg.TestsDir())
	for _, p := range cfg.Watch.Paths {
		roots = append(roots, filepath.Join(cfg.Root, p))
	}

	// Cancel the watch loop on Ctrl-C / SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rebuild := func() {
		// A rebuild failure is reported and swallowed: watch mode keeps
		// running so the user can fix the problem and save again.
		if !flags.noDocs {
			if err := runDocsPass(ctx); err != nil {
				printError(err.Error(), nil)
				return
			}
		}
		if !flags.noTests {
			if err := runTest(ctx, nil, &testFlags{}); err != nil {
				printError(err.Error(), nil)
			}
		}
	}

	w, err := watch.New(roots, cfg.Watch.Debounce.Std(), rebuild, VerboseLog)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "watching %d roots (Ctrl-C to stop)\n", len(roots))

	// Run one full pass immediately so the watch starts from a known
	// state instead of waiting for the first change.
	rebuild()

	return w.Run(ctx)
}

// runDocsPass builds all configured docs targets. Split out so the
// rebuild closure does not depend on a *cobra.Command.
func runDocsPass(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Docs.Targets) == 0 {
		return nil
	}

	builder := newDocsBuilder(cfg)
	results, err := builder.BuildAll(ctx)
	if err != nil {
		return err
	}
	return printDocsResults(results)
}
