package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Create a configuration file with default values and a freshly generated
JWT secret.

Examples:
  # Create config at the default location
  telebox init

  # Create config at a custom location
  telebox init --config /etc/telebox/config.yaml

  # Overwrite an existing config
  telebox init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	var err error
	if path != "" {
		err = config.InitConfigToPath(path, initForce)
	} else {
		path, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Set telegram.bot_token and telegram.chat_id (or TELEBOX_TELEGRAM_BOT_TOKEN / TELEBOX_TELEGRAM_CHAT_ID)")
	fmt.Fprintln(out, "  2. Optionally enable the records API: telebox admin hash-password")
	fmt.Fprintln(out, "  3. Start the gateway: telebox start")
	return nil
}
