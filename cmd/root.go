// Package cmd provides the root command and CLI setup for scadtest.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	"scadtest.dev/pkg/scadtest/internal/controller"
	"scadtest.dev/pkg/scadtest/internal/domain"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var suiteStore adapter.SuiteStore
var reportStore adapter.ReportStore
var extractor domain.Extractor
var comparator domain.Comparator
var workflow domain.Workflow
var ui controller.UI

// reportsDirFlag is a root-level flag shared by commands that read/write reports.
var reportsDirFlag string

var logFileFlag string
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize dependencies that do not depend on configuration.
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	suiteStore = adapter.NewSuiteStore()
	reportStore = adapter.NewReportStore()
	extractor = domain.NewExtractor(fsAdapter)
	comparator = domain.NewComparator(fsAdapter)
}

// setupWorkflow builds the workflow from the loaded configuration. It keeps
// a workflow that is already set.
func setupWorkflow(cmd *cobra.Command) {
	if workflow != nil {
		return
	}

	ui = controller.NewUI(cmd.Root(), controller.IsTTY(os.Stdout))

	renderer := adapter.NewLocalRendererAdapter(
		adapter.WithExecutable(viper.GetString(rendererPathKey)),
		adapter.WithBaseArgs(viper.GetStringSlice(rendererArgsKey)...),
		adapter.WithTimeout(rendererTimeout()),
	)

	loader := domain.NewSuiteLoader(suiteStore, fsAdapter, extractor, viper.GetStringSlice(integrationDefaultArgKey))

	workflow = domain.NewWorkflow(
		fsAdapter,
		reportStore,
		renderer,
		adapter.NewFSNotifyWatcher(watchDebounce()),
		ui,
		loader,
		domain.NewOrchestrator(fsAdapter, renderer, comparator),
		extractor,
		comparator,
	)
}

const suiteHelp = `The suite manifest defaults to the "suite" config key (tests/suite.yaml).
Fixtures live in <paths.expected>/<test-id>.stl|.svg unless the manifest sets
expected_dir.`

const rootLongDescription = `scadtest renders OpenSCAD designs and compares the results with expected
fixtures. Module tests extract a single module from a source file and render it
in isolation; integration tests render a whole design with variable overrides.

` + suiteHelp

const runLongDescription = `Run every test of the suite (or those matching --only) and save the reports.
The command fails when any test fails. Scratch directories of failed tests are
kept for inspection.

` + suiteHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "scadtest",
		Short:        "OpenSCAD test harness",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogger(logFileFlag, viper.GetBool(logVerboseKey))
			setupWorkflow(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&reportsDirFlag, reportsFlagName, defaultReportsDir, "directory for test reports")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(reportsFlagName), reportsConfigKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, "", "log file (default from log.filename)")

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// suitePath returns the manifest named on the command line or the configured one.
func suitePath(args []string) m.Path {
	if len(args) > 0 && args[0] != "" {
		return m.Path(args[0])
	}

	return m.Path(viper.GetString(suiteConfigKey))
}
