package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"boorudl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	noColor    bool
	quiet      bool
)

// rootCmd downloads every post matching the tags
var rootCmd = &cobra.Command{
	Use:   "boorudl [flags] [tag...]",
	Short: "Download all images matching a tag search from Gelbooru or Rule34",
	Long: `boorudl pages through a booru search API 100 posts at a time and downloads
every file it finds into an output directory.

Pages are fetched until one comes back empty. The files of each page are
downloaded concurrently; a failed download is logged and skipped.

The API key and user id are read from credentials.json:
  {"api_key": "...", "user_id": "..."}`,
	Example: `  # Download everything tagged cat from Gelbooru
  boorudl --tags cat

  # Several tags, from Rule34, into ./out with 10 parallel downloads
  boorudl --source rule34 --tags cat dog --output ./out --parallel 10

  # Resume from page 12, excluding a tag
  boorudl --tags cat --page 12 --exclude-tags dog`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Configure(cmd.OutOrStdout(), noColor)
		if quiet {
			ui.SetQuietMode(true)
		}
	},
	RunE: runDownload,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.boorudl.yaml or ~/.config/boorudl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	// Version template
	rootCmd.SetVersionTemplate(`boorudl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
