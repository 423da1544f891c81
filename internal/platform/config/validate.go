package config

import (
	"errors"
	"fmt"
)

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Engine.AttemptTimeout < 0 {
		return errors.New("engine.attempt_timeout must not be negative")
	}
	if c.Engine.MaxChainLength < 0 {
		return errors.New("engine.max_chain_length must not be negative")
	}
	if c.Engine.MaxCandles < 0 {
		return errors.New("engine.max_candles must not be negative")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.Host == "" {
			return errors.New("redis.host is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	for name, ttl := range map[string]int64{
		"chart_ttl":  int64(c.Cache.ChartTTL),
		"quote_ttl":  int64(c.Cache.QuoteTTL),
		"list_ttl":   int64(c.Cache.ListTTL),
		"search_ttl": int64(c.Cache.SearchTTL),
	} {
		if ttl < 0 {
			return fmt.Errorf("cache.%s must not be negative", name)
		}
	}

	if !c.anyProviderEnabled() {
		return errors.New("at least one provider must be enabled")
	}

	if c.Ingest.RateLimit < 0 {
		return errors.New("ingest.rate_limit must not be negative")
	}
	return nil
}

// ValidateDatabase checks the fields required to open the archive database.
func (c *Config) ValidateDatabase() error {
	switch {
	case c.Database.Host == "":
		return errors.New("database.host is required")
	case c.Database.Name == "":
		return errors.New("database.name is required")
	case c.Database.User == "":
		return errors.New("database.user is required")
	}
	return nil
}

func (c *Config) anyProviderEnabled() bool {
	p := c.Providers
	return p.AlphaVantage.IsEnabled() || p.Binance.IsEnabled() || p.CoinGecko.IsEnabled() || p.GeckoTerminal.IsEnabled()
}
