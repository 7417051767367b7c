package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig holds the process-level settings of the HTTP server.
// It is read from a TOML file; command-line flags override individual values.
type ServerConfig struct {
	Port            string          `toml:"port"`
	DataDir         string          `toml:"data_dir"`
	LogLevel        string          `toml:"log_level"`
	MaxRequestBytes int64           `toml:"max_request_bytes"`
	RateLimit       RateLimitConfig `toml:"rate_limit"`
	// Indexes are created on startup when they do not exist yet.
	Indexes []IndexSettings `toml:"indexes"`
}

// RateLimitConfig configures the API token bucket. A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// DefaultServerConfig returns the configuration used when no file is given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            "8080",
		DataDir:         "./search_data",
		LogLevel:        "info",
		MaxRequestBytes: 10 << 20,
	}
}

// LoadServerConfig reads a TOML file on top of DefaultServerConfig.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's command line
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *ServerConfig) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values cannot be negative")
	}
	for _, settings := range c.Indexes {
		settings.ApplyDefaults()
		if conflicts := settings.ValidateFieldNames(); len(conflicts) > 0 {
			return fmt.Errorf("index '%s': %s", settings.Name, strings.Join(conflicts, "; "))
		}
	}
	return nil
}
