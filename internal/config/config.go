// Package config provides configuration management for the risk monitoring service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds persistent store configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MarketDataConfig holds price-lookup service configuration.
type MarketDataConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	LookupTimeout   time.Duration `mapstructure:"lookup_timeout"`
	Concurrency     int           `mapstructure:"concurrency"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
	Path    string `mapstructure:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/riskmond"
	}
	return filepath.Join(home, ".config", "riskmond")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Missing config is fine: run on defaults plus env overrides.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", filepath.Join(configDir, "riskmond.db"))
	v.SetDefault("market_data.base_url", "https://api.twelvedata.com")
	v.SetDefault("market_data.refresh_interval", time.Minute)
	v.SetDefault("market_data.lookup_timeout", 10*time.Second)
	v.SetDefault("market_data.concurrency", 8)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.path", filepath.Join(configDir, "logs", "riskmond.log"))
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARKET_API_KEY"); v != "" {
		cfg.MarketData.APIKey = v
	}
	if v := os.Getenv("MARKET_API_URL"); v != "" {
		cfg.MarketData.BaseURL = v
	}
	if v := os.Getenv("RISKMOND_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RISKMOND_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("market_data.base_url must not be empty")
	}
	if c.MarketData.RefreshInterval <= 0 {
		return fmt.Errorf("market_data.refresh_interval must be positive")
	}
	if c.MarketData.LookupTimeout <= 0 {
		return fmt.Errorf("market_data.lookup_timeout must be positive")
	}
	if c.MarketData.Concurrency <= 0 {
		return fmt.Errorf("market_data.concurrency must be positive")
	}
	return nil
}
