package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the objectquelc CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objectquelc",
		Short: "objectquelc compiles and inspects ObjectQuel queries",
		Long: `objectquelc is a command-line front end for the ObjectQuel compiler:
it compiles queries against an entity metadata document, prints their
token stream, and exposes Prometheus metrics for a running instance.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newCompileCmd())
	cmd.AddCommand(newTokensCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeMetricsCmd())

	return cmd
}
