// Package coingecko adapts the CoinGecko v3 API: aggregated price points, contract charts,
// simple prices, market lists and search.
package coingecko

import (
	"strings"
	"time"
)

// DefaultBaseURL is the public API endpoint. Pro keys use https://pro-api.coingecko.com/api/v3.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Config holds configuration for the CoinGecko client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// keyHeader returns the auth header name matching the plan implied by the base URL.
func (c Config) keyHeader() string {
	if strings.Contains(c.BaseURL, "pro-api") {
		return "x-cg-pro-api-key"
	}
	return "x-cg-demo-api-key"
}
