package cmd

import (
	"github.com/spf13/cobra"

	"scadtest.dev/pkg/scadtest/internal/domain"
)

var listOnlyFlag string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [suite]",
		Short: "List the tests of a suite",
		Long:  "List every test of the suite with its output kind and what it renders.\n\n" + suiteHelp,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.List(cmd.Context(), domain.ListArgs{
				Suite: suitePath(args),
				Only:  listOnlyFlag,
			})
		},
	}

	cmd.Flags().StringVar(&listOnlyFlag, onlyFlagName, "", "regular expression selecting test ids")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
