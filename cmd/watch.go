package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scadtest.dev/pkg/scadtest/internal/domain"
)

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [suite]",
		Short: "Rerun the suite whenever a source file changes",
		Long: `Run the suite, then watch the manifest and every design, constants and
parameter file it references. Each change reruns the suite. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindRunFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return workflow.Watch(ctx, domain.WatchArgs{RunArgs: runArgs(args)})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
