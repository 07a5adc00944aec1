package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/marmos91/telebox/internal/logger"
)

// Watch reloads the file at path whenever it changes and passes the new
// configuration to onChange. Invalid edits are logged and skipped, keeping
// the previous configuration in effect. Only settings the caller applies
// at runtime (whitelist mode, log level) take effect without a restart.
func Watch(path string, onChange func(*Config)) error {
	if path == "" {
		return fmt.Errorf("watch requires a config file path")
	}

	v := viper.New()
	setupViper(v, path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logger.Warn("Ignoring invalid configuration change", "path", e.Name, logger.Err(err))
			return
		}
		logger.Info("Configuration reloaded", "path", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
