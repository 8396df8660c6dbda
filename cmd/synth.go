package cmd

import (
	"github.com/spf13/cobra"

	"scadtest.dev/pkg/scadtest/internal/domain"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// synthCmd represents the synth command.
var synthCmd = newSynthCmd()

func newSynthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "synth <suite> <test-id>",
		Short: "Print the generated test file of a module test",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Synthesize(cmd.Context(), domain.SynthArgs{
				Suite:  m.Path(args[0]),
				TestID: args[1],
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(synthCmd)
}
