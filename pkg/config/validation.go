package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/telebox/internal/telemetry"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required when telegram.bot_token is set")
	}

	if cfg.Telemetry.Profiling.Enabled {
		for _, name := range cfg.Telemetry.Profiling.ProfileTypes {
			if !telemetry.ValidProfileType(name) {
				return fmt.Errorf("telemetry.profiling.profile_types: unknown profile type %q", name)
			}
		}
	}

	if cfg.Admin.PasswordHash != "" && cfg.Admin.JWTSecret == "" {
		return errors.New("admin.jwt_secret is required when admin.password_hash is set")
	}
	if cfg.Admin.PasswordHash != "" && !strings.HasPrefix(cfg.Admin.PasswordHash, "$2") {
		return errors.New("admin.password_hash must be a bcrypt hash")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Server.Port {
		return fmt.Errorf("metrics.port %d collides with server.port", cfg.Metrics.Port)
	}
	return nil
}

// formatValidationErrors joins field errors as "Field: failed 'tag' (param)".
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed '%s' validation", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
