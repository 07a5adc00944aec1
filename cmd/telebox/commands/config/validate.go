package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the Telebox configuration file.

Checks syntax, required fields and value ranges, then warns about settings
that leave features disabled.

Examples:
  telebox config validate
  telebox config validate --config /etc/telebox/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file: %s\n", path)
	fmt.Fprintln(out, "Validation: OK")

	if warnings := Warnings(cfg); len(warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Server port:     %d\n", cfg.Server.Port)
	fmt.Fprintf(out, "  Record store:    %s\n", cfg.Store.Type)
	fmt.Fprintf(out, "  Whitelist mode:  %t\n", cfg.Policy.WhitelistMode)
	fmt.Fprintf(out, "  Max upload:      %s\n", cfg.Upload.MaxSize)
	fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}

// Warnings lists valid settings that disable features.
func Warnings(cfg *config.Config) []string {
	var w []string
	if cfg.Telegram.BotToken == "" {
		w = append(w, "telegram.bot_token not set - uploads fail and retrievals use the legacy host")
	}
	if cfg.Store.Type == "none" {
		w = append(w, "store.type is none - retrievals skip whitelist and block policy")
	}
	if cfg.Store.Type == "memory" {
		w = append(w, "store.type is memory - records are lost on restart")
	}
	if cfg.Moderation.APIKey == "" {
		w = append(w, "moderation.api_key not set - images are not rated")
	}
	if !cfg.Admin.Enabled() {
		w = append(w, "admin.password_hash or admin.jwt_secret not set - records API disabled")
	}
	return w
}
