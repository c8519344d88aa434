// Package model defines the domain types and value objects for the
// chore CLI.
//
// This package contains pure data structures with no external
// dependencies. All entities (TestResult, Summary, DocsResult) are
// transient: they describe the outcome of a single maintenance pass
// and nothing is persisted between runs.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
