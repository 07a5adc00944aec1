package api

import "time"

// APIConfig configures the gateway HTTP server.
type APIConfig struct {
	// Port is the HTTP port. Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// PublicURL is the externally visible origin used to build notice page
	// redirects and to recognize admin referrers. When empty it is derived
	// from each request.
	PublicURL string `mapstructure:"public_url" validate:"omitempty,url" yaml:"public_url,omitempty"`

	// ReadTimeout bounds reading a whole request, upload body included.
	// Default: 60s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. File streaming runs under it,
	// so keep it generous. Default: 5m
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit. Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// RequestTimeout bounds JSON and admin routes. Uploads and file
	// retrievals are not subject to it. Default: 30s
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// ApplyDefaults fills in zero values.
func (c *APIConfig) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}
