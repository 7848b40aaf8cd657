package main

import (
	"github.com/spf13/cobra"
)

// Version information set at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the objectquelc version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("objectquelc %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}
