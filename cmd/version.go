package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scadtest.dev/pkg/scadtest/internal/adapter"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, the Go version and the renderer that would be used.",
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				cmd.Println("version: unknown")
			} else {
				cmd.Println("tool version\t", info.Main.Version)
				cmd.Println("go version\t", info.GoVersion)
			}

			cmd.Println("renderer\t", rendererDescription(viper.GetString(rendererPathKey)))
		},
	}
}

// rendererDescription resolves the renderer executable or explains why it cannot.
func rendererDescription(override string) string {
	platform, err := adapter.HostPlatform()
	if err != nil {
		return err.Error()
	}

	path, err := adapter.ResolveRenderer(platform, override)
	if err != nil {
		return "not found (" + err.Error() + ")"
	}

	return path
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
