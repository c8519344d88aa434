package testrun

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmr-tortoise/chore/internal/execx"
	"github.com/mmr-tortoise/chore/internal/model"
)

// delimiterWidth is the width of the separator line printed before each
// test file invocation, matching the wrapper script this replaces.
const delimiterWidth = 60

// Executor runs one test file and reports the interpreter's exit code.
// The returned error is reserved for invocations that never produced an
// exit status (unstartable interpreter, timeout kill); a non-zero exit
// is an ordinary result, not an error.
//
// Two implementations exist: Local runs the interpreter directly on the
// host, and sandbox.Executor runs it inside a disposable container.
type Executor interface {
	RunFile(ctx context.Context, dir, file string, stdout, stderr io.Writer) (int, error)
}

// Local executes test files on the host via the configured interpreter argv.
type Local struct {
	// Interpreter is the argv prefix; the test file path is appended.
	Interpreter []string
}

// RunFile invokes the interpreter on one file with output streamed to
// the provided writers.
func (l *Local) RunFile(ctx context.Context, dir, file string, stdout, stderr io.Writer) (int, error) {
	argv := append(append([]string{}, l.Interpreter...), file)
	return execx.Stream(ctx, dir, stdout, stderr, argv...)
}

// Options configures a test run.
type Options struct {
	// Dir is the absolute tests directory files are resolved against.
	Dir string

	// Timeout bounds a single file invocation. Zero means no limit.
	Timeout time.Duration

	// FailFast aborts the run after the first non-passing file; the
	// remaining files are recorded as skipped.
	FailFast bool

	// Stdout and Stderr receive the interpreters' output and the
	// delimiter lines. Defaults to io.Discard when nil, which only
	// happens in tests.
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes a list of test files strictly sequentially and
// aggregates their results.
type Runner struct {
	exec Executor
	opts Options
}

// NewRunner creates a Runner that executes files with the given Executor.
func NewRunner(exec Executor, opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &Runner{exec: exec, opts: opts}
}

// Run executes the given files in order. Each invocation is waited on
// before the next begins; there is no concurrency between test files.
// Exactly one result is recorded per file, including files skipped by
// fail-fast.
//
// The returned error is non-nil only for run-level problems (e.g., a
// cancelled context before any execution); test failures are reported
// through the Summary, never as an error.
func (r *Runner) Run(ctx context.Context, files []string) (*model.Summary, error) {
	start := time.Now()
	summary := &model.Summary{}

	aborted := false
	for _, file := range files {
		if aborted {
			summary.Add(model.TestResult{File: file, Outcome: model.OutcomeSkip})
			continue
		}

		if err := ctx.Err(); err != nil {
			return summary, model.WrapCLIError(model.ExitGeneralError, "test run cancelled", err)
		}

		r.printDelimiter(file)

		result := r.runOne(ctx, file)
		summary.Add(result)

		if r.opts.FailFast && result.Outcome != model.OutcomePass {
			aborted = true
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// runOne executes a single file and classifies the outcome.
func (r *Runner) runOne(ctx context.Context, file string) model.TestResult {
	fileCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	code, err := r.exec.RunFile(fileCtx, r.opts.Dir, file, r.opts.Stdout, r.opts.Stderr)
	duration := time.Since(start)

	if err != nil {
		detail := err.Error()
		if fileCtx.Err() == context.DeadlineExceeded {
			detail = fmt.Sprintf("timed out after %s", r.opts.Timeout)
		}
		return model.TestResult{
			File:     file,
			Outcome:  model.OutcomeError,
			ExitCode: -1,
			Duration: duration,
			Detail:   detail,
		}
	}

	outcome := model.OutcomePass
	if code != 0 {
		outcome = model.OutcomeFail
	}
	return model.TestResult{
		File:     file,
		Outcome:  outcome,
		ExitCode: code,
		Duration: duration,
	}
}

// printDelimiter writes the per-file separator line, e.g.
//
//	------------------------------ arrays_test.py ------------------------------
//
// The file name is embedded so that interleaved interpreter output can
// be attributed to its test file when scanning a long log.
func (r *Runner) printDelimiter(file string) {
	pad := delimiterWidth - len(file) - 2
	if pad < 2 {
		pad = 2
	}
	left := pad / 2
	right := pad - left
	fmt.Fprintf(r.opts.Stdout, "%s %s %s\n",
		strings.Repeat("-", left), file, strings.Repeat("-", right))
}
