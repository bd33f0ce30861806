package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"boorudl/pkg/config"
	"boorudl/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage boorudl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (BOORUDL_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file with all available options set to their defaults.

The file is created as '.boorudl.yaml' in the current directory unless a
different path is given with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

If the credentials file can be read, its api_key is shown masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and credentials",
	Long: `Validate the configuration and check that a download run could start.

This command checks:
  - YAML syntax and value ranges
  - The credentials file exists and has api_key and user_id
  - The output directory can be created`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".boorudl.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to overwrite)", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "1. Put your api_key and user_id in credentials.json")
	fmt.Fprintln(cmd.OutOrStdout(), "2. Run 'boorudl config validate' to check the configuration")
	fmt.Fprintln(cmd.OutOrStdout(), "3. Start downloading with 'boorudl --tags <tag>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	if creds, err := config.LoadCredentials(cfg.Booru.CredentialsFile); err == nil {
		masked := creds.Masked()
		fmt.Fprintf(out, "\ncredentials (%s):\n  api_key: %s\n  user_id: %s\n", cfg.Booru.CredentialsFile, masked.APIKey, masked.UserID)
	} else {
		ui.PrintWarning("Credentials not loaded", err)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var problems []string
	var warnings []string

	if _, err := config.LoadCredentials(cfg.Booru.CredentialsFile); err != nil {
		problems = append(problems, err.Error())
	}
	if err := os.MkdirAll(cfg.Download.OutputDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if err := cfg.ValidateSearch(); err != nil {
		warnings = append(warnings, "no tags configured; pass them with --tags")
	}

	out := cmd.OutOrStdout()
	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return fmt.Errorf("configuration is invalid (%d errors)", len(problems))
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Source", cfg.Booru.Source)
	ui.PrintInfo("Output directory", cfg.Download.OutputDirectory)
	ui.PrintInfo("Parallel downloads", fmt.Sprintf("%d", cfg.Download.Parallel))
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
