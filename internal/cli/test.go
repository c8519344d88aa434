// Package cli — test.go implements the "chore test" command.
//
// The test command replaces the test-runner wrapper script: it discovers
// test files by glob pattern, invokes the configured interpreter on each
// strictly sequentially with a delimiter line between files, and
// aggregates the results into a summary that maps to the process exit
// code — non-zero when any file failed.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/chore/internal/execx"
	"github.com/mmr-tortoise/chore/internal/model"
	"github.com/mmr-tortoise/chore/internal/sandbox"
	"github.com/mmr-tortoise/chore/internal/testrun"
)

// testFlags holds the flag values for the test command.
// These are bound to cobra flags in NewTestCommand.
type testFlags struct {
	pattern   string        // --pattern: override the configured test file glob
	failFast  bool          // --fail-fast: abort after the first non-passing file
	timeout   time.Duration // --timeout: per-file time limit
	container string        // --container: run files inside this image instead of on the host
	only      string        // --only: restrict result output to one outcome
}

// NewTestCommand creates the "test" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewTestCommand() *cobra.Command {
	flags := &testFlags{}

	cmd := &cobra.Command{
		Use:   "test [file...]",
		Short: "Run test files sequentially and summarize the results",
		Long: `Run each test file through the configured interpreter, one after another,
and print a pass/fail summary. The command exits non-zero if any file
fails, making it safe to use in CI.

With no arguments, files are discovered in the tests directory by the
configured glob pattern. Named files (relative to the tests directory)
restrict the run.

Examples:
  chore test
  chore test arrays_test.py queues_test.py
  chore test --fail-fast --timeout 2m
  chore test --container python:3.12-slim
  chore test --only fail --json`,

		Args: cobra.ArbitraryArgs,

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.pattern, "pattern", "", "Test file glob pattern (default: from config)")
	cmd.Flags().BoolVar(&flags.failFast, "fail-fast", false, "Abort the run after the first failing file")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Per-file time limit (default: from config, 0 = none)")
	cmd.Flags().StringVar(&flags.container, "container", "", "Run each file inside a disposable container of this image")
	cmd.Flags().StringVar(&flags.only, "only", "", "Restrict result output to one outcome (pass, fail, error, skip)")

	return cmd
}

// runTest is the main orchestration function for the test command.
func runTest(ctx context.Context, files []string, flags *testFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags override the configuration where given.
	pattern := cfg.Tests.Pattern
	if flags.pattern != "" {
		pattern = flags.pattern
	}
	timeout := cfg.Tests.Timeout.Std()
	if flags.timeout > 0 {
		timeout = flags.timeout
	}
	failFast := cfg.Tests.FailFast || flags.failFast

	// Validate the outcome filter before any test runs, so a typo fails
	// fast instead of after a long run.
	var only model.Outcome
	if flags.only != "" {
		only, err = model.ParseOutcome(flags.only)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --only value", err)
		}
	}

	testsDir := cfg.TestsDir()

	if len(files) == 0 {
		files, err = testrun.Discover(testsDir, pattern)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("no test files matching %q in %s", pattern, testsDir))
	}
	VerboseLog("Running %d test files from %s", len(files), testsDir)

	executor, cleanup, err := buildExecutor(ctx, cfg.Root, cfg.Tests.Interpreter, flags.container)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := testrun.NewRunner(executor, testrun.Options{
		Dir:      testsDir,
		Timeout:  timeout,
		FailFast: failFast,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	})

	summary, err := runner.Run(ctx, files)
	if err != nil {
		return err
	}

	if err := printSummary(summary, only); err != nil {
		return err
	}

	if !summary.Ok() {
		return model.NewCLIError(model.ExitTestFailure,
			fmt.Sprintf("%d of %d test files did not pass",
				summary.Failed+summary.Errored, summary.Total()))
	}
	return nil
}

// buildExecutor chooses between host and containerized execution.
// The returned cleanup function releases the Docker client when one
// was created; for host execution it is a no-op.
func buildExecutor(ctx context.Context, projectRoot string, interpreter []string, image string) (testrun.Executor, func(), error) {
	if image == "" {
		// Host execution: preflight the interpreter binary so a missing
		// tool fails once with a clear message instead of per file.
		if err := execx.LookPath(interpreter); err != nil {
			return nil, nil, err
		}
		return &testrun.Local{Interpreter: interpreter}, func() {}, nil
	}

	// Container execution: verify the daemon is reachable up front so
	// a stopped Docker fails fast with ExitDockerNotRunning.
	cli, err := sandbox.NewClient()
	if err != nil {
		return nil, nil, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, nil, err
	}
	VerboseLog("Docker daemon reachable; running tests in %s", image)

	executor := &sandbox.Executor{
		Image:       image,
		Interpreter: interpreter,
		ProjectRoot: projectRoot,
	}
	return executor, func() { _ = cli.Close() }, nil
}

// filterResults returns the results matching the given outcome. An
// empty outcome matches everything.
func filterResults(summary *model.Summary, only model.Outcome) []model.TestResult {
	if only == "" {
		return summary.Results
	}
	filtered := make([]model.TestResult, 0, len(summary.Results))
	for _, r := range summary.Results {
		if r.Outcome == only {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// printSummary renders the run summary in text or JSON format. A
// non-empty only restricts the per-file output to that outcome; the
// aggregate counters always reflect the full run.
func printSummary(summary *model.Summary, only model.Outcome) error {
	if IsJSONOutput() {
		out := *summary
		out.Results = filterResults(summary, only)
		data, err := json.MarshalIndent(&out, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to marshal summary", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	if only != "" {
		for _, r := range filterResults(summary, only) {
			fmt.Fprintf(os.Stdout, "%-5s %s\n", strings.ToUpper(r.Outcome.String()), r.File)
		}
		fmt.Fprintln(os.Stdout, summary.String())
		return nil
	}

	// List the non-passing files before the one-line total, the way a
	// human scans for what broke.
	for _, r := range summary.Results {
		switch r.Outcome {
		case model.OutcomeFail:
			fmt.Fprintf(os.Stdout, "FAIL  %s (exit %d)\n", r.File, r.ExitCode)
		case model.OutcomeError:
			fmt.Fprintf(os.Stdout, "ERROR %s: %s\n", r.File, r.Detail)
		}
	}
	fmt.Fprintln(os.Stdout, summary.String())
	return nil
}
