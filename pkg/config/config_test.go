package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.ListenAddress)
	assert.Equal(t, DefaultBaseURL, cfg.Resolver.BaseURL)
	assert.Equal(t, 1, cfg.Proxy.TrustedHops)
	assert.Equal(t, "info", cfg.Logging.Level)

	hostname, err := cfg.Hostname()
	require.NoError(t, err)
	assert.Equal(t, "ec2-34-202-126-158.compute-1.amazonaws.com", hostname)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
server:
  listen_address: ":8080"
resolver:
  base_url: "http://example.com"
  upstreams:
    - "1.1.1.1:53"
  timeout: 3s
proxy:
  trusted_hops: 2
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
	assert.Equal(t, "http://example.com", cfg.Resolver.BaseURL)
	assert.Equal(t, []string{"1.1.1.1:53"}, cfg.Resolver.Upstreams)
	assert.Equal(t, 3*time.Second, cfg.Resolver.Timeout)
	assert.Equal(t, 2, cfg.Proxy.TrustedHops)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
server:
  listen_address: ":8080"
resolver:
  base_url: "http://example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("AWS_BASE_URL", "http://override.example.org")
	t.Setenv("PORT", "4000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Server.ListenAddress)
	assert.Equal(t, "http://override.example.org", cfg.Resolver.BaseURL)

	hostname, err := cfg.Hostname()
	require.NoError(t, err)
	assert.Equal(t, "override.example.org", hostname)
}

func TestLoad_ZeroTrustedHopsPreserved(t *testing.T) {
	// 0 is a meaningful value (header trust disabled) and must survive
	// default application
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
proxy:
  trusted_hops: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Proxy.TrustedHops)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		shouldError bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name: "base URL without hostname",
			mutate: func(c *Config) {
				c.Resolver.BaseURL = "http://"
			},
			shouldError: true,
		},
		{
			name: "listen address without port",
			mutate: func(c *Config) {
				c.Server.ListenAddress = "localhost"
			},
			shouldError: true,
		},
		{
			name: "port out of range",
			mutate: func(c *Config) {
				c.Server.ListenAddress = ":70000"
			},
			shouldError: true,
		},
		{
			name: "zero retries",
			mutate: func(c *Config) {
				c.Resolver.Retries = 0
			},
			shouldError: true,
		},
		{
			name: "invalid prometheus port",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.PrometheusEnabled = true
				c.Telemetry.PrometheusPort = -1
			},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadWithDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.shouldError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{
			name:    "http URL",
			baseURL: "http://example.com",
			want:    "example.com",
		},
		{
			name:    "https URL with port",
			baseURL: "https://example.com:8443",
			want:    "example.com",
		},
		{
			name:    "URL with path",
			baseURL: "http://example.com/some/path",
			want:    "example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadWithDefaults()
			cfg.Resolver.BaseURL = tt.baseURL

			hostname, err := cfg.Hostname()
			require.NoError(t, err)
			assert.Equal(t, tt.want, hostname)
		})
	}
}
