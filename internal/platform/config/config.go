// Package config loads process configuration from a YAML file plus environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration shared by the server, the ingest job and the CLI.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	Providers ProvidersConfig `yaml:"providers"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// EngineConfig holds the fallback orchestrator knobs.
type EngineConfig struct {
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	MaxChainLength int           `yaml:"max_chain_length"` // 0 = unlimited
	MaxCandles     int           `yaml:"max_candles"`
}

// CacheConfig holds one TTL per payload kind and the store backend.
type CacheConfig struct {
	Backend   string        `yaml:"backend"` // memory | redis
	Coalesce  *bool         `yaml:"coalesce"`
	ChartTTL  time.Duration `yaml:"chart_ttl"`
	QuoteTTL  time.Duration `yaml:"quote_ttl"`
	ListTTL   time.Duration `yaml:"list_ttl"`
	SearchTTL time.Duration `yaml:"search_ttl"`
}

// CoalesceEnabled reports whether concurrent misses share one load. Unset means on.
func (c CacheConfig) CoalesceEnabled() bool {
	return c.Coalesce == nil || *c.Coalesce
}

// ProvidersConfig holds one block per upstream API.
type ProvidersConfig struct {
	AlphaVantage  ProviderConfig `yaml:"alphavantage"`
	Binance       ProviderConfig `yaml:"binance"`
	CoinGecko     ProviderConfig `yaml:"coingecko"`
	GeckoTerminal ProviderConfig `yaml:"geckoterminal"`
}

// ProviderConfig holds settings of a single upstream. Empty fields fall back to adapter defaults.
type ProviderConfig struct {
	Enabled  *bool         `yaml:"enabled"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	PageSize int           `yaml:"page_size"`
	MaxPages int           `yaml:"max_pages"`
	Timeout  time.Duration `yaml:"timeout"`
}

// IsEnabled reports whether the provider takes part in chains. Unset means on.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// DatabaseConfig holds the postgres connection used by the archive and the watchlist.
type DatabaseConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Name           string        `yaml:"name"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	SSLMode        string        `yaml:"ssl_mode"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	AutoMigrate    bool          `yaml:"auto_migrate"`
}

// RedisConfig holds the shared cache store connection.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// IngestConfig holds the archive job schedule.
type IngestConfig struct {
	Cron         string        `yaml:"cron"`
	Intervals    []string      `yaml:"intervals"`
	RateLimit    int           `yaml:"rate_limit"` // calls per rate_window, 0 = unlimited
	RateWindow   time.Duration `yaml:"rate_window"`
	RunOnStart   bool          `yaml:"run_on_start"`
	SymbolsLimit int           `yaml:"symbols_limit"`
}

// Load reads the YAML file at path, expands ${VAR} references, applies environment
// overrides and then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		expanded := os.Expand(string(data), os.Getenv)
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// LoadFromEnv loads the file named by CONFIG_FILE (default config.yaml) and validates it.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"PORT":                   &cfg.Server.Port,
		"CACHE_BACKEND":          &cfg.Cache.Backend,
		"ALPHAVANTAGE_API_KEY":   &cfg.Providers.AlphaVantage.APIKey,
		"ALPHAVANTAGE_BASE_URL":  &cfg.Providers.AlphaVantage.BaseURL,
		"BINANCE_BASE_URL":       &cfg.Providers.Binance.BaseURL,
		"COINGECKO_API_KEY":      &cfg.Providers.CoinGecko.APIKey,
		"COINGECKO_BASE_URL":     &cfg.Providers.CoinGecko.BaseURL,
		"GECKOTERMINAL_BASE_URL": &cfg.Providers.GeckoTerminal.BaseURL,
		"DB_HOST":                &cfg.Database.Host,
		"DB_NAME":                &cfg.Database.Name,
		"DB_USER":                &cfg.Database.User,
		"DB_PASSWORD":            &cfg.Database.Password,
		"DB_SSLMODE":             &cfg.Database.SSLMode,
		"REDIS_HOST":             &cfg.Redis.Host,
		"REDIS_PASSWORD":         &cfg.Redis.Password,
		"INGEST_CRON":            &cfg.Ingest.Cron,
	}
	for name, dst := range str {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DB_PORT":                 &cfg.Database.Port,
		"REDIS_PORT":              &cfg.Redis.Port,
		"ENGINE_MAX_CHAIN_LENGTH": &cfg.Engine.MaxChainLength,
		"INGEST_RATE_LIMIT":       &cfg.Ingest.RateLimit,
	}
	for name, dst := range ints {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		*dst = n
	}

	if v := os.Getenv("ENGINE_ATTEMPT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env ENGINE_ATTEMPT_TIMEOUT: %w", err)
		}
		cfg.Engine.AttemptTimeout = d
	}
	if v := os.Getenv("INGEST_INTERVALS"); v != "" {
		cfg.Ingest.Intervals = strings.Split(v, ",")
	}
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		cfg.Database.AutoMigrate = true
	}
	return nil
}
