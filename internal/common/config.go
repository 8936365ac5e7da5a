// Package common provides shared utilities for Marketview
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Marketview
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Clients     ClientsConfig   `toml:"clients"`
	Store       StoreConfig     `toml:"store"`
	Chart       ChartConfig     `toml:"chart"`
	Storage     StorageConfig   `toml:"storage"`
	WarmCache   WarmCacheConfig `toml:"warm_cache"`
	CORS        CORSConfig      `toml:"cors"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"` // pre-built dashboard bundle
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
}

// CoinGeckoConfig holds CoinGecko API configuration
type CoinGeckoConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"` // demo key used when no preference is stored
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *CoinGeckoConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// StoreConfig holds market data store behaviour.
type StoreConfig struct {
	// CancelStale aborts superseded in-flight requests instead of only
	// discarding their results. Aborted requests are not cached.
	CancelStale bool `toml:"cancel_stale"`
}

// ChartConfig holds chart redraw configuration.
type ChartConfig struct {
	RedrawDelay   string `toml:"redraw_delay"`
	DefaultWidth  int    `toml:"default_width"`
	DefaultHeight int    `toml:"default_height"`
}

// GetRedrawDelay parses the trailing-edge redraw delay.
func (c *ChartConfig) GetRedrawDelay() time.Duration {
	d, err := time.ParseDuration(c.RedrawDelay)
	if err != nil || d < 0 {
		return 50 * time.Millisecond
	}
	return d
}

// StorageConfig holds the preference database location.
type StorageConfig struct {
	Backend string `toml:"backend"` // "sqlite" (default) or "memory"
	Path    string `toml:"path"`
}

// WarmCacheConfig controls background prefetching of catalog series.
type WarmCacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron spec, empty = startup only
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			StaticDir: "dist/market-visualizer/browser",
		},
		Clients: ClientsConfig{
			CoinGecko: CoinGeckoConfig{
				BaseURL:   "https://api.coingecko.com/api/v3",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Chart: ChartConfig{
			RedrawDelay:   "50ms",
			DefaultWidth:  960,
			DefaultHeight: 420,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    "data/marketview.db",
		},
		WarmCache: WarmCacheConfig{
			Enabled:  true,
			Schedule: "@every 1h",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:4200", "http://localhost:8080"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console"},
			FilePath:   "./logs/marketview.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first when present.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETVIEW_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("MARKETVIEW_HOST"); host != "" {
		config.Server.Host = host
	}

	// PORT is what hosting platforms inject; MARKETVIEW_PORT wins when both are set.
	for _, key := range []string{"PORT", "MARKETVIEW_PORT"} {
		if port := os.Getenv(key); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}

	if dir := os.Getenv("MARKETVIEW_STATIC_DIR"); dir != "" {
		config.Server.StaticDir = dir
	}

	if level := os.Getenv("MARKETVIEW_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("MARKETVIEW_DB_PATH"); path != "" {
		config.Storage.Path = path
	}

	if backend := os.Getenv("MARKETVIEW_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}

	if url := os.Getenv("COINGECKO_BASE_URL"); url != "" {
		config.Clients.CoinGecko.BaseURL = url
	}

	if key := os.Getenv("COINGECKO_DEMO_API_KEY"); key != "" {
		config.Clients.CoinGecko.APIKey = key
	}

	if v := os.Getenv("MARKETVIEW_CANCEL_STALE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Store.CancelStale = b
		}
	}

	if os.Getenv("MARKETVIEW_WARM_CACHE") == "off" {
		config.WarmCache.Enabled = false
	}

	if origins := os.Getenv("MARKETVIEW_CORS_ORIGINS"); origins != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		config.CORS.AllowedOrigins = list
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
