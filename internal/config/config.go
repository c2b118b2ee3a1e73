package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime settings loaded from PAUTAS_* environment variables
// and an optional .env file in the working directory.
type Config struct {
	// Backend
	Server  string `mapstructure:"PAUTAS_SERVER"`
	APIBase string `mapstructure:"PAUTAS_API_BASE"`

	HTTPTimeoutSeconds int `mapstructure:"PAUTAS_HTTP_TIMEOUT_SECONDS"`

	// Readiness probe against /auth/check before reads.
	ProbeIntervalMs    int `mapstructure:"PAUTAS_PROBE_INTERVAL_MS"`
	ProbeMaxIntervalMs int `mapstructure:"PAUTAS_PROBE_MAX_INTERVAL_MS"`
	ProbeMaxAttempts   int `mapstructure:"PAUTAS_PROBE_MAX_ATTEMPTS"` // 0 = until cancelled

	// Logging
	LogLevel string `mapstructure:"PAUTAS_LOG_LEVEL"`
	LogFile  string `mapstructure:"PAUTAS_LOG_FILE"`

	// Push theme toggles to the user's backend profile.
	ThemeSync bool `mapstructure:"PAUTAS_THEME_SYNC"`
}

var keys = []string{
	"PAUTAS_SERVER",
	"PAUTAS_API_BASE",
	"PAUTAS_HTTP_TIMEOUT_SECONDS",
	"PAUTAS_PROBE_INTERVAL_MS",
	"PAUTAS_PROBE_MAX_INTERVAL_MS",
	"PAUTAS_PROBE_MAX_ATTEMPTS",
	"PAUTAS_LOG_LEVEL",
	"PAUTAS_LOG_FILE",
	"PAUTAS_THEME_SYNC",
}

// Load reads configuration from the environment (and optional .env file in dir).
// An empty dir means the current working directory.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	v.SetDefault("PAUTAS_SERVER", "http://localhost:8000")
	v.SetDefault("PAUTAS_API_BASE", "/api")
	v.SetDefault("PAUTAS_HTTP_TIMEOUT_SECONDS", 15)
	v.SetDefault("PAUTAS_PROBE_INTERVAL_MS", 1000)
	v.SetDefault("PAUTAS_PROBE_MAX_INTERVAL_MS", 8000)
	v.SetDefault("PAUTAS_PROBE_MAX_ATTEMPTS", 0)
	v.SetDefault("PAUTAS_LOG_LEVEL", "info")
	v.SetDefault("PAUTAS_LOG_FILE", "")
	v.SetDefault("PAUTAS_THEME_SYNC", true)

	// AutomaticEnv only resolves keys viper already knows about during Unmarshal.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Optional .env file; a missing file is not an error.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BaseURL joins the server origin with the API prefix. An absolute API base
// wins over the server setting.
func (c *Config) BaseURL() string {
	base := strings.TrimSpace(c.APIBase)
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return strings.TrimRight(base, "/")
	}
	server := strings.TrimRight(strings.TrimSpace(c.Server), "/")
	if base == "" {
		return server
	}
	return server + "/" + strings.Trim(base, "/")
}

func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) ProbeInterval() time.Duration {
	if c.ProbeIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.ProbeIntervalMs) * time.Millisecond
}

func (c *Config) ProbeMaxInterval() time.Duration {
	if c.ProbeMaxIntervalMs < c.ProbeIntervalMs {
		return c.ProbeInterval()
	}
	return time.Duration(c.ProbeMaxIntervalMs) * time.Millisecond
}
