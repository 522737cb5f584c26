package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the stackbridge application.
var rootCmd = &cobra.Command{
	Use:   "stackbridge",
	Short: "Bridge between a developer portal and Stack Overflow for Teams",
	Long: `stackbridge serves a small HTTP API in front of a Stack Overflow for
Teams instance. It handles the OAuth authorization flow (with a manual
token fallback), keeps the access token in a signed browser cookie, and
serves question and search lists through a page cache that maps small
display pages onto the upstream API's larger pages.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "stackbridge version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
