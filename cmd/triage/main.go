// Command triage runs the moderation and eligibility rules offline against a
// YAML export, for operators reviewing a backlog without the service running.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "triage",
		Short:         "Offline review triage and eligibility checks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		flagsCommand(),
		eligibleCommand(),
		tiersCommand(),
		importCommand(),
	)
	return root
}

// requireInput validates the --input flag shared by the file-based commands.
func requireInput(path string) error {
	if path == "" {
		return errors.New("--input is required")
	}
	return nil
}
