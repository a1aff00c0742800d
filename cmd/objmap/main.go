package main

import (
	"os"

	"github.com/spf13/cobra"
)

const appName = "objmap"

// set at build time
var version = "dev"

func main() {
	var configDir string

	root := &cobra.Command{
		Use:          appName,
		Short:        "Map session server for the object map",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding "+configFileHint)

	root.AddCommand(serveCmd(&configDir))
	root.AddCommand(searchCmd(&configDir))
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print objmap version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}
