package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/telebox/internal/bytesize"
	"github.com/marmos91/telebox/pkg/api"
	"github.com/marmos91/telebox/pkg/moderation"
	"github.com/marmos91/telebox/pkg/telegram"
)

// Config is the Telebox configuration.
//
// Sources, highest precedence first:
//  1. CLI flags
//  2. Environment variables (TELEBOX_*)
//  3. Configuration file (YAML)
//  4. Default values
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Server configures the gateway HTTP server
	Server api.APIConfig `mapstructure:"server" yaml:"server"`

	// Telegram holds the bot credential, destination chat and endpoints
	Telegram telegram.Config `mapstructure:"telegram" yaml:"telegram"`

	// PathCache memoizes getFile lookups
	PathCache telegram.CacheConfig `mapstructure:"path_cache" yaml:"path_cache"`

	// Moderation configures on-demand image rating. No API key disables it.
	Moderation moderation.Config `mapstructure:"moderation" yaml:"moderation"`

	Policy PolicyConfig `mapstructure:"policy" yaml:"policy"`
	Upload UploadConfig `mapstructure:"upload" yaml:"upload"`

	// Store selects the record store backend
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Admin protects the records API
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	// Enabled turns on OTLP trace export. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector (host:port). Default: localhost:4317
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	// Insecure disables TLS to the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces kept, 0.0 to 1.0. Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL. Default: http://localhost:4040
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	// ProfileTypes lists the profiles to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint. Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// PolicyConfig holds the retrieval access switches.
type PolicyConfig struct {
	// WhitelistMode redirects every handle not explicitly whitelisted.
	// Reloaded without restart when the config file changes.
	WhitelistMode bool `mapstructure:"whitelist_mode" yaml:"whitelist_mode"`

	// BlockImageURL replaces blocked files embedded in other pages
	BlockImageURL string `mapstructure:"block_image_url" validate:"omitempty,url" yaml:"block_image_url"`
}

// UploadConfig limits uploads.
type UploadConfig struct {
	// MaxSize caps the multipart body of POST /upload. Default: 20Mi
	MaxSize bytesize.ByteSize `mapstructure:"max_size" yaml:"max_size"`
}

// StoreConfig selects and configures the record store. Only the section
// matching Type is read.
type StoreConfig struct {
	// Type is one of none, memory, badger, postgres, sql, redis. Default: memory
	Type string `mapstructure:"type" validate:"required,oneof=none memory badger postgres sql redis" yaml:"type"`

	Badger   map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
	Postgres map[string]any `mapstructure:"postgres" yaml:"postgres,omitempty"`
	SQL      map[string]any `mapstructure:"sql" yaml:"sql,omitempty"`
	Redis    map[string]any `mapstructure:"redis" yaml:"redis,omitempty"`
}

// AdminConfig configures the administrator of the records API. The API is
// mounted only when both PasswordHash and JWTSecret are set.
type AdminConfig struct {
	// Username defaults to "admin"
	Username string `mapstructure:"username" yaml:"username"`

	// PasswordHash is the bcrypt hash of the admin password.
	// Generate one with: telebox admin hash-password
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash,omitempty"`

	// JWTSecret signs access tokens. At least 32 characters.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32" yaml:"jwt_secret,omitempty"`

	// TokenTTL is the access token lifetime. Default: 1h
	TokenTTL time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// Enabled reports whether the records API can be served.
func (c AdminConfig) Enabled() bool {
	return c.PasswordHash != "" && c.JWTSecret != ""
}

// Load loads configuration from file, environment, and defaults.
// An empty configPath searches the default location. A missing file yields
// the defaults with environment overrides applied.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load with instructions when the config file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  telebox init\n\n"+
				"Or specify a custom config file:\n"+
				"  telebox <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  telebox init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML with owner-only permissions, since it may
// hold the bot token and secrets.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment variables and the config file location.
// Environment variables use the TELEBOX_ prefix with '.' replaced by '_',
// e.g. TELEBOX_TELEGRAM_BOT_TOKEN.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("TELEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v, "", reflect.TypeOf(Config{}))

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// bindEnvKeys registers every leaf key of t so AutomaticEnv also applies to
// keys missing from the config file.
func bindEnvKeys(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		switch f.Type.Kind() {
		case reflect.Struct:
			bindEnvKeys(v, key, f.Type)
			continue
		case reflect.Map:
			continue
		}
		_ = v.BindEnv(key)
	}
}

// readConfigFile reports whether a config file was read. A missing file is
// not an error.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks combines the decode hooks for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook converts strings like "20Mi" and plain numbers to
// bytesize.ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" to time.Duration. Raw
// numbers are nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/telebox, ~/.config/telebox, or "."
// when no home directory is known.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "telebox")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "telebox")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
