// Package commands implements the telebox CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/cmd/telebox/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "telebox",
	Short: "Telebox - Telegram-backed file storage gateway",
	Long: `Telebox stores uploaded files in a Telegram chat through the Bot API and
serves them back by handle, applying whitelist, blocklist and moderation
policy from a record store.

Use "telebox [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/telebox/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(config.Cmd)
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}
