// Package binance adapts the Binance spot REST API: klines and 24h tickers of USDT pairs.
package binance

import "time"

// DefaultBaseURL is the public spot API endpoint.
const DefaultBaseURL = "https://api.binance.com"

// Config holds configuration for the Binance client.
type Config struct {
	BaseURL  string
	PageSize int // klines per request, max 1000
	MaxPages int
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PageSize <= 0 || c.PageSize > 1000 {
		c.PageSize = 1000
	}
	return c
}
