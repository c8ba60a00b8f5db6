package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default target whose public IPv4 the service reports. Overridable via the
// AWS_BASE_URL environment variable or the config file.
const DefaultBaseURL = "http://ec2-34-202-126-158.compute-1.amazonaws.com"

// Config holds the application configuration
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server"`

	// Resolver settings
	Resolver ResolverConfig `yaml:"resolver"`

	// Reverse proxy trust settings
	Proxy ProxyConfig `yaml:"proxy"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry (OTEL)
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

// ResolverConfig holds DNS resolution settings
type ResolverConfig struct {
	// BaseURL is the URL whose hostname is resolved by /aws-public-ip
	BaseURL string `yaml:"base_url"`

	// Upstreams lists DNS servers queried directly for A records.
	// When empty, the system default resolver is used.
	Upstreams []string `yaml:"upstreams"`

	// Timeout applies per upstream query attempt
	Timeout time.Duration `yaml:"timeout"`

	// Retries bounds how many upstreams are tried per lookup
	Retries int `yaml:"retries"`
}

// ProxyConfig holds the X-Forwarded-For trust contract
type ProxyConfig struct {
	// TrustedHops is the number of reverse proxy hops in front of the
	// service. 0 disables X-Forwarded-For entirely; any value >= 1 trusts
	// the first entry of the chain. The caller-IP heuristic is only
	// meaningful when this matches the actual deployment topology.
	TrustedHops int `yaml:"trusted_hops"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level     string `yaml:"level"`      // debug, info, warn, error
	Format    string `yaml:"format"`     // json, text
	Output    string `yaml:"output"`     // stdout, stderr, file
	FilePath  string `yaml:"file_path"`  // if output=file
	AddSource bool   `yaml:"add_source"` // include source file/line
}

// TelemetryConfig holds OpenTelemetry settings
type TelemetryConfig struct {
	Enabled           bool   `yaml:"enabled"`
	ServiceName       string `yaml:"service_name"`
	ServiceVersion    string `yaml:"service_version"`
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPort    int    `yaml:"prometheus_port"`
}

// Load loads the configuration from a YAML file, then applies environment
// overrides, defaults and validation. A missing file is not an error: the
// service can be configured entirely through the environment.
func Load(path string) (*Config, error) {
	cfg := Config{Proxy: ProxyConfig{TrustedHops: -1}}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults + environment only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults creates a configuration with sensible defaults
func LoadWithDefaults() *Config {
	cfg := &Config{Proxy: ProxyConfig{TrustedHops: -1}}
	cfg.applyDefaults()
	return cfg
}

// applyEnv applies environment variable overrides. These win over file
// values so that container deployments can reconfigure without a volume.
func (c *Config) applyEnv() {
	if v := os.Getenv("AWS_BASE_URL"); v != "" {
		c.Resolver.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.ListenAddress = ":" + v
	}
}

// applyDefaults sets default values for unset configuration fields
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	// Resolver defaults
	if c.Resolver.BaseURL == "" {
		c.Resolver.BaseURL = DefaultBaseURL
	}
	if c.Resolver.Timeout == 0 {
		c.Resolver.Timeout = 2 * time.Second
	}
	if c.Resolver.Retries == 0 {
		c.Resolver.Retries = 2
	}

	// Proxy default: exactly one reverse proxy hop. The zero value is
	// meaningful (header trust disabled), so "unset" is tracked as -1
	// by Load and normalized here.
	if c.Proxy.TrustedHops < 0 {
		c.Proxy.TrustedHops = 1
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	// Telemetry defaults
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "ip-witness"
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = "dev"
	}
	if c.Telemetry.PrometheusPort == 0 {
		c.Telemetry.PrometheusPort = 9090
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if _, err := c.Hostname(); err != nil {
		return err
	}

	if _, port, ok := splitListenPort(c.Server.ListenAddress); !ok || port < 1 || port > 65535 {
		return fmt.Errorf("invalid listen address %q", c.Server.ListenAddress)
	}

	if c.Resolver.Retries < 1 {
		return fmt.Errorf("resolver retries must be at least 1, got %d", c.Resolver.Retries)
	}

	if c.Telemetry.Enabled && c.Telemetry.PrometheusEnabled {
		if c.Telemetry.PrometheusPort < 1 || c.Telemetry.PrometheusPort > 65535 {
			return fmt.Errorf("invalid prometheus port %d", c.Telemetry.PrometheusPort)
		}
	}

	return nil
}

// Hostname extracts the host to resolve from the configured base URL
func (c *Config) Hostname() (string, error) {
	u, err := url.Parse(c.Resolver.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.Resolver.BaseURL, err)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("base URL %q has no hostname", c.Resolver.BaseURL)
	}

	return host, nil
}

// splitListenPort parses addresses of the form "host:port" or ":port"
func splitListenPort(addr string) (host string, port int, ok bool) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			p, err := strconv.Atoi(addr[i+1:])
			if err != nil {
				return "", 0, false
			}
			return addr[:i], p, true
		}
	}
	return "", 0, false
}
