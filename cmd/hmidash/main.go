package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "hmidash",
		Short:        "Conflict event clustering and Knox analysis around humanitarian military interventions",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "hmidash.yaml", "Project config file")
	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(linkageCmd())
	root.AddCommand(clusterCmd())
	root.AddCommand(interventionCmd())
	root.AddCommand(knoxCmd())
	root.AddCommand(monthlyCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
