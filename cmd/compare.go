package cmd

import (
	"github.com/spf13/cobra"

	"scadtest.dev/pkg/scadtest/internal/domain"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// compareCmd represents the compare command.
var compareCmd = newCompareCmd()

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <expected> <actual>",
		Short: "Compare two STL or two SVG files",
		Long: `Compare two artifacts the way the test runner does. STL meshes are equal when
they contain the same facets in any order; SVG files must be byte-identical.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Compare(cmd.Context(), domain.CompareArgs{
				Expected: m.Path(args[0]),
				Actual:   m.Path(args[1]),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
