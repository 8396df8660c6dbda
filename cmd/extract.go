package cmd

import (
	"github.com/spf13/cobra"

	"scadtest.dev/pkg/scadtest/internal/domain"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// extractCmd represents the extract command.
var extractCmd = newExtractCmd()

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <module> <file>",
		Short: "Print the definition of a module",
		Long: `Locate "module <name>(...) {" in a design file and print the module as it
would be written into a generated test file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Extract(cmd.Context(), domain.ExtractArgs{
				Module: args[0],
				File:   m.Path(args[1]),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
