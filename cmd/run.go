package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scadtest.dev/pkg/scadtest/internal/domain"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

var runParallelFlag int
var runKeepFlag bool
var runUpdateFlag bool
var runOnlyFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [suite]",
		Short: "Run the test suite",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindRunFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Run(cmd.Context(), runArgs(args))
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", defaultRunParallel, "number of tests rendered in parallel")
	cmd.Flags().BoolVar(&runKeepFlag, keepFlagName, false, "keep scratch directories of passing tests")
	cmd.Flags().BoolVar(&runUpdateFlag, updateFlagName, false, "overwrite expected fixtures with the rendered output")
	cmd.Flags().StringVar(&runOnlyFlag, onlyFlagName, "", "regular expression selecting test ids")
}

// bindRunFlags ties the run flags of the executing command to their config
// keys. run and watch share the keys, so binding happens per invocation.
func bindRunFlags(cmd *cobra.Command) error {
	bindings := map[string]string{
		runParallelFlagName: runParallelConfigKey,
		keepFlagName:        runKeepConfigKey,
		updateFlagName:      runUpdateConfigKey,
	}

	for flagName, key := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	return nil
}

func runArgs(args []string) domain.RunArgs {
	return domain.RunArgs{
		Suite:       suitePath(args),
		Reports:     m.Path(viper.GetString(reportsConfigKey)),
		ExpectedDir: m.Path(viper.GetString(expectedDirKey)),
		ScratchRoot: m.Path(viper.GetString(scratchDirKey)),
		Threads:     viper.GetInt(runParallelConfigKey),
		Keep:        viper.GetBool(runKeepConfigKey),
		Update:      viper.GetBool(runUpdateConfigKey),
		Only:        runOnlyFlag,
	}
}
