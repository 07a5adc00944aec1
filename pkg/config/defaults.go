package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/telebox/internal/bytesize"
	"github.com/marmos91/telebox/pkg/moderation"
	"github.com/marmos91/telebox/pkg/retrieval"
	"github.com/marmos91/telebox/pkg/telegram"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	cfg.Server.ApplyDefaults()
	applyTelegramDefaults(&cfg.Telegram)
	applyPathCacheDefaults(&cfg.PathCache)
	applyModerationDefaults(&cfg.Moderation)
	applyPolicyDefaults(&cfg.Policy)
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 20 * bytesize.MiB
	}
	applyStoreDefaults(&cfg.Store)
	applyAdminDefaults(&cfg.Admin)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyTelegramDefaults(cfg *telegram.Config) {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = telegram.DefaultAPIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.LegacyBaseURL == "" {
		cfg.LegacyBaseURL = retrieval.DefaultLegacyBaseURL
	}
}

func applyPathCacheDefaults(cfg *telegram.CacheConfig) {
	if cfg.Size == 0 {
		cfg.Size = 4096
	}
	// Bot API download links stay valid for at least one hour
	if cfg.TTL == 0 {
		cfg.TTL = 50 * time.Minute
	}
}

func applyModerationDefaults(cfg *moderation.Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = moderation.DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = moderation.DefaultTimeout
	}
}

func applyPolicyDefaults(cfg *PolicyConfig) {
	if cfg.BlockImageURL == "" {
		cfg.BlockImageURL = retrieval.DefaultBlockImageURL
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	switch cfg.Type {
	case "badger":
		if cfg.Badger == nil {
			cfg.Badger = map[string]any{}
		}
		if _, ok := cfg.Badger["path"]; !ok {
			cfg.Badger["path"] = filepath.Join(getConfigDir(), "records")
		}
	case "sql":
		if cfg.SQL == nil {
			cfg.SQL = map[string]any{}
		}
		if _, ok := cfg.SQL["path"]; !ok {
			cfg.SQL["path"] = filepath.Join(getConfigDir(), "telebox.db")
		}
	}
}

func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Username == "" {
		cfg.Username = "admin"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
}

// GetDefaultConfig returns a Config with all defaults applied. The bot
// token and chat id stay empty; uploads and Bot API lookups are disabled
// until they are set.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
