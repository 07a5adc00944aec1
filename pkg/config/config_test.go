package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/telebox/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"

telegram:
  bot_token: "123:abc"
  chat_id: "-100200"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Telegram.BotToken != "123:abc" || cfg.Telegram.ChatID != "-100200" {
		t.Errorf("Telegram credentials not loaded: %+v", cfg.Telegram)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("Expected default store type 'memory', got %q", cfg.Store.Type)
	}
	if cfg.Upload.MaxSize != 20*bytesize.MiB {
		t.Errorf("Expected default upload max size 20Mi, got %v", cfg.Upload.MaxSize)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_CustomTypes(t *testing.T) {
	configPath := writeConfig(t, `
upload:
  max_size: 5Mi
server:
  read_timeout: 15s
  public_url: "https://img.example.com"
path_cache:
  enabled: true
  ttl: 10m
policy:
  whitelist_mode: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Upload.MaxSize != 5*bytesize.MiB {
		t.Errorf("Expected 5Mi, got %v", cfg.Upload.MaxSize)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Expected read_timeout 15s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.PublicURL != "https://img.example.com" {
		t.Errorf("Expected public_url, got %q", cfg.Server.PublicURL)
	}
	if !cfg.PathCache.Enabled || cfg.PathCache.TTL != 10*time.Minute {
		t.Errorf("Unexpected path cache config: %+v", cfg.PathCache)
	}
	if !cfg.Policy.WhitelistMode {
		t.Error("Expected whitelist_mode to be true")
	}
}

func TestLoad_StoreSection(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, `
store:
  type: badger
  badger:
    path: "`+yamlSafePath(dir)+`/records"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Store.Type != "badger" {
		t.Fatalf("Expected store type badger, got %q", cfg.Store.Type)
	}
	if got := cfg.Store.Badger["path"]; got != yamlSafePath(dir)+"/records" {
		t.Errorf("Expected badger path to be kept, got %v", got)
	}
}

func TestLoad_InvalidStoreType(t *testing.T) {
	configPath := writeConfig(t, `
store:
  type: dynamo
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown store type")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Telegram.APIBaseURL != "https://api.telegram.org" {
		t.Errorf("Expected Bot API base URL, got %q", cfg.Telegram.APIBaseURL)
	}
	if cfg.Telegram.LegacyBaseURL != "https://telegra.ph" {
		t.Errorf("Expected legacy base URL, got %q", cfg.Telegram.LegacyBaseURL)
	}
	if cfg.Admin.Enabled() {
		t.Error("Expected admin API to be disabled by default")
	}
}

func TestConfigExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if DefaultConfigExists() {
		t.Error("Expected no config in an empty config dir")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	if path == "" {
		t.Fatal("Expected non-empty default config path")
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()
	if filepath.Base(dir) != "telebox" {
		t.Errorf("Expected directory name 'telebox', got %q", filepath.Base(dir))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("TELEBOX_LOGGING_LEVEL", "ERROR")
	t.Setenv("TELEBOX_SERVER_PORT", "9191")
	t.Setenv("TELEBOX_TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEBOX_TELEGRAM_CHAT_ID", "-42")

	configPath := writeConfig(t, `
logging:
  level: "INFO"
server:
  port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Expected port 9191 from env var, got %d", cfg.Server.Port)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("Expected bot token from env var, got %q", cfg.Telegram.BotToken)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.Policy.WhitelistMode = true
	cfg.Upload.MaxSize = 3 * bytesize.MiB

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config not written: %v", err)
	}
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("Expected owner-only permissions, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if !loaded.Policy.WhitelistMode || loaded.Upload.MaxSize != 3*bytesize.MiB {
		t.Errorf("Saved values not preserved: %+v %+v", loaded.Policy, loaded.Upload)
	}
}
