package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "descobre",
	Short: "Music catalog search server backed by Spotify",
	Long: `descobre serves a localized web interface for searching the Spotify
catalog and browsing artist profiles, top tracks and discographies.

It authenticates with the client-credentials flow, caches catalog
responses with per-data-type freshness windows, and prefetches the next
result page as the user approaches the end of the current one.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
