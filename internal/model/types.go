package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Outcome represents the result of running a single test file.
// It is derived entirely from the interpreter process:
//
//	exit 0          → OutcomePass
//	exit non-zero   → OutcomeFail
//	failed to start → OutcomeError
//	not executed    → OutcomeSkip (fail-fast aborted the run early)
type Outcome string

const (
	// OutcomePass indicates the interpreter exited with status 0.
	OutcomePass Outcome = "pass"

	// OutcomeFail indicates the interpreter exited with a non-zero status,
	// typically an assertion failure inside the test file.
	OutcomeFail Outcome = "fail"

	// OutcomeError indicates the interpreter process could not be run at
	// all (missing binary, unreadable file, timeout before completion).
	OutcomeError Outcome = "error"

	// OutcomeSkip indicates the file was discovered but never executed,
	// because an earlier failure aborted the run under --fail-fast.
	OutcomeSkip Outcome = "skip"
)

// String returns the string representation of the Outcome.
// This satisfies fmt.Stringer for CLI and JSON output.
func (o Outcome) String() string {
	return string(o)
}

// IsValid checks whether the Outcome is one of the predefined values.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomePass, OutcomeFail, OutcomeError, OutcomeSkip:
		return true
	default:
		return false
	}
}

// ParseOutcome converts a string to an Outcome.
// Returns an error if the string does not match any valid outcome.
func ParseOutcome(s string) (Outcome, error) {
	outcome := Outcome(strings.ToLower(s))
	if !outcome.IsValid() {
		return "", fmt.Errorf("invalid outcome: %q (valid: pass, fail, error, skip)", s)
	}
	return outcome, nil
}

// TestResult holds the outcome of one interpreter invocation against
// one test file. Exactly one TestResult exists per discovered file.
type TestResult struct {
	// File is the test file path, relative to the project root where possible.
	File string `json:"file"`

	// Outcome classifies the invocation result.
	Outcome Outcome `json:"outcome"`

	// ExitCode is the interpreter's exit status. It is -1 when the process
	// could not be started or was killed before exiting on its own.
	ExitCode int `json:"exitCode"`

	// Duration is the wall-clock time of the invocation.
	Duration time.Duration `json:"duration"`

	// Detail carries diagnostic text for error outcomes (e.g., the reason
	// the interpreter could not be started). Empty for ordinary runs, where
	// the interpreter's own output has already gone to the console.
	Detail string `json:"detail,omitempty"`
}

// Summary aggregates the results of a full test run. It is built
// incrementally by the runner and rendered once at the end of the run.
type Summary struct {
	// Results holds the per-file results in execution order.
	Results []TestResult `json:"results"`

	// Passed, Failed, Errored, and Skipped count results by outcome.
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`

	// Duration is the wall-clock time of the entire run.
	Duration time.Duration `json:"duration"`
}

// Add appends a result and updates the outcome counters.
func (s *Summary) Add(r TestResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomePass:
		s.Passed++
	case OutcomeFail:
		s.Failed++
	case OutcomeError:
		s.Errored++
	case OutcomeSkip:
		s.Skipped++
	}
}

// Total returns the number of recorded results, including skipped files.
func (s *Summary) Total() int {
	return len(s.Results)
}

// Ok reports whether the run should map to a zero process exit code.
// Skipped files do not count as failures on their own, but a skip only
// ever happens after a failure, so Ok is false whenever skips exist
// alongside failures.
func (s *Summary) Ok() bool {
	return s.Failed == 0 && s.Errored == 0
}

// String returns a one-line human-readable summary, e.g.
// "5 passed, 1 failed, 0 errored (1.2s)". Skipped files are only
// mentioned when present, to keep the common all-pass line short.
func (s *Summary) String() string {
	line := fmt.Sprintf("%d passed, %d failed, %d errored", s.Passed, s.Failed, s.Errored)
	if s.Skipped > 0 {
		line += fmt.Sprintf(", %d skipped", s.Skipped)
	}
	return fmt.Sprintf("%s (%s)", line, s.Duration.Round(time.Millisecond))
}

// DocsResult holds the outcome of building documentation for one target.
type DocsResult struct {
	// Target is the configured documentation target name.
	Target string `json:"target"`

	// OutputDir is the docs root the generated files were relocated into.
	OutputDir string `json:"outputDir"`

	// FilesMoved is the number of filesystem entries hoisted out of the
	// generator's staging directory into OutputDir.
	FilesMoved int `json:"filesMoved"`

	// Duration is the wall-clock time of generation plus relocation.
	Duration time.Duration `json:"duration"`
}

// targetNameRegex validates documentation target names: alphanumeric and
// hyphens only, starting and ending with an alphanumeric character.
var targetNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateTargetName checks if the given name is a valid documentation
// target name. Target names appear in CLI arguments and output paths,
// so they are restricted to alphanumerics and hyphens.
func ValidateTargetName(name string) error {
	if name == "" {
		return fmt.Errorf("target name must not be empty")
	}
	if !targetNameRegex.MatchString(name) {
		return fmt.Errorf("invalid target name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the project configuration file was not
	// found or could not be parsed/validated.
	ExitConfigError ExitCode = 2

	// ExitGeneratorError indicates the documentation generator exited
	// with a non-zero status or its output could not be relocated.
	ExitGeneratorError ExitCode = 3

	// ExitTestFailure indicates one or more test files failed or errored.
	ExitTestFailure ExitCode = 4

	// ExitToolNotFound indicates a required external tool (generator or
	// interpreter) was not found on PATH.
	ExitToolNotFound ExitCode = 5

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	// Only relevant when running tests with --container.
	ExitDockerNotRunning ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
