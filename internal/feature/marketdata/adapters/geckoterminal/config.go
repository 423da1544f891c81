// Package geckoterminal adapts the GeckoTerminal v2 API: DEX pool search, token pools,
// pool OHLCV and trending pools.
package geckoterminal

import (
	"strings"
	"time"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.geckoterminal.com/api/v2"

// Config holds configuration for the GeckoTerminal client.
type Config struct {
	BaseURL  string
	PageSize int // OHLCV rows per request, max 1000
	MaxPages int
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.PageSize <= 0 || c.PageSize > 1000 {
		c.PageSize = 1000
	}
	return c
}
