// Package cli — list.go implements the "chore list" command.
//
// The list command shows what a maintenance pass would operate on: the
// configured documentation targets with their source directories, and
// the test files currently matched by the discovery pattern, in the
// order they would run.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/chore/internal/model"
	"github.com/mmr-tortoise/chore/internal/testrun"
)

// listOutput is the JSON shape of the list command's output.
type listOutput struct {
	Targets   []listTarget `json:"targets"`
	TestsDir  string       `json:"testsDir"`
	Pattern   string       `json:"pattern"`
	TestFiles []string     `json:"testFiles"`
}

// listTarget describes one documentation target in list output.
type listTarget struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show configured docs targets and discovered test files",
		Long: `Show the documentation targets from the configuration and the test files
the discovery pattern currently matches, in execution order.

Examples:
  chore list
  chore list --json`,

		// No positional arguments are required for the list command.
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}

	return cmd
}

// runList is the main logic function for the list command.
func runList() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := listOutput{
		Targets:  make([]listTarget, 0, len(cfg.Docs.Targets)),
		TestsDir: cfg.Tests.Dir,
		Pattern:  cfg.Tests.Pattern,
	}
	for _, t := range cfg.Docs.Targets {
		out.Targets = append(out.Targets, listTarget{Name: t.Name, Source: t.Source})
	}

	// Discovery failure (e.g., missing tests dir) is not fatal to list:
	// a project may configure docs only. Report the absence instead.
	files, discoverErr := testrun.Discover(cfg.TestsDir(), cfg.Tests.Pattern)
	if discoverErr != nil {
		VerboseLog("test discovery skipped: %v", discoverErr)
	}
	out.TestFiles = files

	if IsJSONOutput() {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to marshal list output", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	printListText(out)
	return nil
}

// printListText renders the list output as human-readable text.
func printListText(out listOutput) {
	if len(out.Targets) == 0 {
		fmt.Fprintln(os.Stdout, "docs: no targets configured")
	} else {
		fmt.Fprintln(os.Stdout, "docs targets:")
		for _, t := range out.Targets {
			fmt.Fprintf(os.Stdout, "  %-20s %s\n", t.Name, t.Source)
		}
	}

	fmt.Fprintf(os.Stdout, "tests (%s in %s):\n", out.Pattern, out.TestsDir)
	if len(out.TestFiles) == 0 {
		fmt.Fprintln(os.Stdout, "  no matching files")
		return
	}
	for _, f := range out.TestFiles {
		fmt.Fprintf(os.Stdout, "  %s\n", f)
	}
}
