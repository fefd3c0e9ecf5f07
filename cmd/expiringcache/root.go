package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set via -ldflags "-X main.Version=...".
var Version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "expiringcache",
		Short: "Time-expiring in-memory cache",
		Long: `expiringcache demonstrates an in-memory key-value cache whose entries
expire a fixed TTL after they are written.

Expired entries are hidden from reads immediately and reclaimed by a
background sweep that runs once per TTL.`,
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "expiringcache version: %s\n", Version)
		},
	})
	return rootCmd
}
