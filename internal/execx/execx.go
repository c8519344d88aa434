// Package execx wraps external process invocation for the chore CLI.
//
// Every behavior chore orchestrates lives in external tools: the
// documentation generator and the test interpreter are both black boxes
// resolved from PATH. This package centralizes how those tools are
// invoked so that exit statuses are always checked and failures always
// surface as model.CLIError values with useful diagnostics, instead of
// silently propagating through missing files.
package execx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/chore/internal/model"
)

// Run executes the given argv in dir and returns its stdout on success.
//
// Stdout and stderr are captured separately so that stderr can be folded
// into the error message while stdout is returned to the caller. A
// non-zero exit wraps the failure in a model.CLIError carrying the
// provided exit code, with the trimmed stderr appended for diagnostics.
//
// The context cancels the child process when it expires; exec.CommandContext
// sends SIGKILL on cancellation.
func Run(ctx context.Context, code model.ExitCode, dir string, argv ...string) (string, error) {
	if len(argv) == 0 {
		return "", model.NewCLIError(code, "empty command")
	}

	// #nosec G204 — argv comes from the project configuration, not remote input
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	// Capture stdout and stderr separately so we can include stderr
	// in error messages while returning stdout on success.
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("%s failed", strings.Join(argv, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(code, message, err)
	}

	return stdout.String(), nil
}

// Stream executes the given argv in dir with stdout and stderr connected
// to the provided writers, and reports the child's exit code.
//
// Unlike Run, a non-zero exit is NOT an error here: the test runner needs
// the exit code itself to classify the result, and the child's output has
// already been streamed to the console. The returned error is non-nil only
// when the process could not be started or was killed before exiting on
// its own (e.g., context timeout), in which case the exit code is -1.
func Stream(ctx context.Context, dir string, stdout, stderr io.Writer, argv ...string) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty command")
	}

	// #nosec G204 — argv comes from the project configuration, not remote input
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The process ran and exited non-zero. ExitCode() returns -1
			// when the process was terminated by a signal, which includes
			// context-cancellation kills; report those as start failures
			// so the caller classifies them as errors, not test failures.
			if code := exitErr.ExitCode(); code >= 0 {
				// Surface a context deadline distinctly even when the kill
				// raced with a normal exit.
				if ctxErr := ctx.Err(); ctxErr != nil {
					return -1, ctxErr
				}
				return code, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return -1, ctxErr
			}
			return -1, err
		}
		// Start failure: missing binary, permission error, etc.
		return -1, err
	}

	return 0, nil
}

// LookPath verifies that the first element of argv resolves to an
// executable on PATH. It returns a model.CLIError with ExitToolNotFound
// so a missing generator or interpreter produces a clear, early error
// instead of a confusing per-invocation failure.
func LookPath(argv []string) error {
	if len(argv) == 0 {
		return model.NewCLIError(model.ExitToolNotFound, "empty command")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return model.WrapCLIError(
			model.ExitToolNotFound,
			fmt.Sprintf("required tool %q not found on PATH", argv[0]),
			err,
		)
	}
	return nil
}

// Expand substitutes {placeholder} tokens in each argv element using the
// provided values map. Unknown placeholders are left untouched so that
// literal braces in generator arguments survive.
//
// Example:
//
//	Expand([]string{"pdoc", "--output-dir", "{staging}", "{source}"},
//	       map[string]string{"staging": "/tmp/x", "source": "src/lib"})
//	→ []string{"pdoc", "--output-dir", "/tmp/x", "src/lib"}
func Expand(argv []string, values map[string]string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		expanded := arg
		for key, val := range values {
			expanded = strings.ReplaceAll(expanded, "{"+key+"}", val)
		}
		out[i] = expanded
	}
	return out
}
