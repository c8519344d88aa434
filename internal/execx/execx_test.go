package execx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/chore/internal/model"
)

// TestRun_Success verifies that Run returns captured stdout when the
// command exits with status 0.
func TestRun_Success(t *testing.T) {
	out, err := Run(context.Background(), model.ExitGeneralError, t.TempDir(),
		"sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

// TestRun_Failure verifies that a non-zero exit produces a CLIError
// carrying the requested exit code and the child's stderr output.
func TestRun_Failure(t *testing.T) {
	_, err := Run(context.Background(), model.ExitGeneratorError, t.TempDir(),
		"sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGeneratorError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "boom")
}

// TestRun_EmptyCommand verifies the guard against an empty argv.
func TestRun_EmptyCommand(t *testing.T) {
	_, err := Run(context.Background(), model.ExitGeneralError, t.TempDir())
	assert.Error(t, err)
}

// TestRun_RespectsDir verifies that the command runs in the requested
// working directory.
func TestRun_RespectsDir(t *testing.T) {
	dir := t.TempDir()
	out, err := Run(context.Background(), model.ExitGeneralError, dir, "pwd")
	require.NoError(t, err)
	// On macOS t.TempDir() may live under a symlinked /var; compare suffixes.
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), dirBase(dir)),
		"pwd output %q should end with %q", out, dirBase(dir))
}

// dirBase returns the last path element without importing path/filepath
// into the assertion line.
func dirBase(dir string) string {
	idx := strings.LastIndex(dir, "/")
	return dir[idx+1:]
}

// TestStream_ExitCodes verifies the non-error reporting of child exit
// codes, which the test runner relies on to classify results.
func TestStream_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want int
	}{
		{name: "zero exit", argv: []string{"sh", "-c", "exit 0"}, want: 0},
		{name: "non-zero exit", argv: []string{"sh", "-c", "exit 1"}, want: 1},
		{name: "other exit code", argv: []string{"sh", "-c", "exit 42"}, want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr strings.Builder
			code, err := Stream(context.Background(), t.TempDir(), &stdout, &stderr, tt.argv...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

// TestStream_Output verifies that the child's stdout and stderr reach
// the provided writers.
func TestStream_Output(t *testing.T) {
	var stdout, stderr strings.Builder
	code, err := Stream(context.Background(), t.TempDir(), &stdout, &stderr,
		"sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

// TestStream_StartFailure verifies that an unstartable command reports
// an error with exit code -1 rather than a fake exit status.
func TestStream_StartFailure(t *testing.T) {
	var stdout, stderr strings.Builder
	code, err := Stream(context.Background(), t.TempDir(), &stdout, &stderr,
		"definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
	assert.Equal(t, -1, code)
}

// TestStream_ContextTimeout verifies that a context deadline kills the
// child and surfaces as an error, not as a test failure exit code.
func TestStream_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var stdout, stderr strings.Builder
	code, err := Stream(ctx, t.TempDir(), &stdout, &stderr, "sleep", "10")
	assert.Error(t, err)
	assert.Equal(t, -1, code)
}

// TestLookPath verifies preflight tool resolution.
func TestLookPath(t *testing.T) {
	assert.NoError(t, LookPath([]string{"sh", "-c", "true"}))

	err := LookPath([]string{"definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitToolNotFound, cliErr.Code)

	assert.Error(t, LookPath(nil))
}

// TestExpand verifies placeholder substitution in argv templates.
func TestExpand(t *testing.T) {
	tests := []struct {
		name   string
		argv   []string
		values map[string]string
		want   []string
	}{
		{
			name:   "basic substitution",
			argv:   []string{"pdoc", "--output-dir", "{staging}", "{source}"},
			values: map[string]string{"staging": "/tmp/x", "source": "src/lib"},
			want:   []string{"pdoc", "--output-dir", "/tmp/x", "src/lib"},
		},
		{
			name:   "unknown placeholder left untouched",
			argv:   []string{"tool", "{mystery}"},
			values: map[string]string{"staging": "/tmp/x"},
			want:   []string{"tool", "{mystery}"},
		},
		{
			name:   "multiple occurrences in one element",
			argv:   []string{"{name}-{name}"},
			values: map[string]string{"name": "lib"},
			want:   []string{"lib-lib"},
		},
		{
			name:   "empty argv",
			argv:   nil,
			values: map[string]string{"a": "b"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.argv, tt.values))
		})
	}
}
