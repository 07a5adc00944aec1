package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/internal/cli/output"
	"github.com/marmos91/telebox/pkg/config"
)

var (
	showOutput  string
	showSecrets bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after defaults and TELEBOX_* overrides.

Secrets are masked unless --show-secrets is given.

Examples:
  telebox config show
  telebox config show --output json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print tokens and secrets in clear")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(configPath(cmd))
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if !showSecrets {
		maskSecrets(cfg)
	}

	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, cfg)
	}
	return output.PrintYAML(os.Stdout, cfg)
}

const mask = "********"

func maskSecrets(cfg *config.Config) {
	for _, s := range []*string{
		&cfg.Telegram.BotToken,
		&cfg.Moderation.APIKey,
		&cfg.Admin.PasswordHash,
		&cfg.Admin.JWTSecret,
	} {
		if *s != "" {
			*s = mask
		}
	}
	for _, section := range []map[string]any{cfg.Store.Postgres, cfg.Store.Redis, cfg.Store.SQL} {
		for _, key := range []string{"password", "dsn"} {
			if v, ok := section[key].(string); ok && v != "" {
				section[key] = mask
			}
		}
	}
}
