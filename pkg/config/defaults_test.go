package config

import (
	"testing"
	"time"

	"github.com/marmos91/telebox/internal/bytesize"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output stdout, got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Gateway(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telegram.Timeout != 60*time.Second {
		t.Errorf("Expected telegram timeout 60s, got %v", cfg.Telegram.Timeout)
	}
	if cfg.Moderation.Timeout != 5*time.Second {
		t.Errorf("Expected moderation timeout 5s, got %v", cfg.Moderation.Timeout)
	}
	if cfg.Policy.BlockImageURL == "" {
		t.Error("Expected default block image URL")
	}
	if cfg.PathCache.Size != 4096 {
		t.Errorf("Expected path cache size 4096, got %d", cfg.PathCache.Size)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("Expected request timeout 30s, got %v", cfg.Server.RequestTimeout)
	}
}

func TestApplyDefaults_StorePaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &Config{Store: StoreConfig{Type: "sql"}}
	ApplyDefaults(cfg)

	if p, _ := cfg.Store.SQL["path"].(string); p == "" {
		t.Error("Expected default sqlite path")
	}

	cfg = &Config{Store: StoreConfig{Type: "badger", Badger: map[string]any{"path": "/data/records"}}}
	ApplyDefaults(cfg)
	if cfg.Store.Badger["path"] != "/data/records" {
		t.Errorf("Expected explicit badger path to be kept, got %v", cfg.Store.Badger["path"])
	}
}

func TestApplyDefaults_Admin(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Admin.Username != "admin" {
		t.Errorf("Expected admin username 'admin', got %q", cfg.Admin.Username)
	}
	if cfg.Admin.TokenTTL != time.Hour {
		t.Errorf("Expected token TTL 1h, got %v", cfg.Admin.TokenTTL)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		ShutdownTimeout: 5 * time.Second,
		Upload:          UploadConfig{MaxSize: bytesize.MiB},
		Store:           StoreConfig{Type: "none"},
	}
	cfg.Server.Port = 3000
	cfg.Metrics.Port = 9999
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Upload.MaxSize != bytesize.MiB {
		t.Errorf("Expected upload max size 1Mi, got %v", cfg.Upload.MaxSize)
	}
	if cfg.Store.Type != "none" {
		t.Errorf("Expected store type none, got %q", cfg.Store.Type)
	}
	if cfg.Server.Port != 3000 || cfg.Metrics.Port != 9999 {
		t.Errorf("Expected explicit ports to be kept, got %d/%d", cfg.Server.Port, cfg.Metrics.Port)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Default config should be valid, got: %v", err)
	}
}
