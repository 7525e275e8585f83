package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds content server configuration
type ServerConfig struct {
	URL   string `mapstructure:"url"`   // Base URL of the REST API
	Token string `mapstructure:"token"` // API access token

	// MutationsEnabled selects whether like/unlike calls are sent to the
	// server. When false, likes are kept locally (optimistic + persisted)
	// because the backend does not expose the endpoints.
	MutationsEnabled bool `mapstructure:"mutations_enabled"`
}

// CacheConfig tunes the resource cache
type CacheConfig struct {
	Dir            string        `mapstructure:"dir"`             // Cache directory ("" = memory only)
	ExpiryWindow   time.Duration `mapstructure:"expiry_window"`   // Page/item freshness window
	ItemCapacity   int           `mapstructure:"item_capacity"`   // Max records kept in memory per resource
	PageCapacity   int           `mapstructure:"page_capacity"`   // Max retained page entries per resource
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // HTTP client timeout
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:              "",
			Token:            "",
			MutationsEnabled: true,
		},
		Cache: CacheConfig{
			Dir:            defaultCachePath(),
			ExpiryWindow:   5 * time.Minute,
			ItemCapacity:   512,
			PageCapacity:   64,
			RequestTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := Default()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("CASA")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the current configuration to file
func Save(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to keep snake_case key names
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.token", cfg.Server.Token)
	viper.Set("server.mutations_enabled", cfg.Server.MutationsEnabled)
	viper.Set("cache.dir", cfg.Cache.Dir)
	viper.Set("cache.expiry_window", cfg.Cache.ExpiryWindow)
	viper.Set("cache.item_capacity", cfg.Cache.ItemCapacity)
	viper.Set("cache.page_capacity", cfg.Cache.PageCapacity)
	viper.Set("cache.request_timeout", cfg.Cache.RequestTimeout)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "casa")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "casa")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "casa", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "casa", "cache")
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "casa", "casa.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "casa", "casa.log")
	}
}
