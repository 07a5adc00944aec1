package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{Host: "db", Database: "telebox", User: "telebox"}
	cfg.ApplyDefaults()

	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "prefer", cfg.SSLMode)
	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, int32(1), cfg.MinConns)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		c := Config{Host: "db", Database: "telebox", User: "telebox"}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing host", func(c *Config) { c.Host = "" }},
		{"missing database", func(c *Config) { c.Database = "" }},
		{"missing user", func(c *Config) { c.User = "" }},
		{"min above max", func(c *Config) { c.MinConns = 20 }},
		{"bad ssl mode", func(c *Config) { c.SSLMode = "sometimes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConnectionString(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, Database: "tb", User: "u", Password: "p", SSLMode: "disable", ConnectTimeout: 3 * time.Second}
	assert.Equal(t, "host=db port=5433 dbname=tb user=u password=p sslmode=disable connect_timeout=3", cfg.ConnectionString())

	cfg.DSN = "postgres://u:p@db/tb"
	assert.Equal(t, "postgres://u:p@db/tb", cfg.ConnectionString())

	dsnOnly := Config{DSN: "postgres://u:p@db/tb"}
	dsnOnly.ApplyDefaults()
	assert.NoError(t, dsnOnly.Validate())
}
