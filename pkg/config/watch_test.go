package config

import (
	"os"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "policy:\n  whitelist_mode: false\n")

	changes := make(chan *Config, 4)
	if err := Watch(path, func(cfg *Config) { changes <- cfg }); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("policy:\n  whitelist_mode: true\nlogging:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Policy.WhitelistMode && cfg.Logging.Level == "DEBUG" {
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for config reload")
		}
	}
}

func TestWatch_RequiresPath(t *testing.T) {
	if err := Watch("", func(*Config) {}); err == nil {
		t.Fatal("Expected error for empty path")
	}
}
