package main

import (
	"github.com/spf13/cobra"

	"github.com/relaywave/balance-proxy/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("balance-proxy %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
