// Package entity defines the domain models for the marketdata feature.
package entity

// Candle represents one OHLCV bucket. Time is the bucket start in unix seconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// CandleSeries is what a provider adapter hands back for one chart request.
// Network and Pool are only set by DEX adapters.
type CandleSeries struct {
	Candles []Candle
	Network string
	Pool    string
}

// Chart is the normalized chart payload returned to callers and stored in the cache.
type Chart struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Source   string   `json:"source"`
	Network  string   `json:"network,omitempty"`
	Pool     string   `json:"pool,omitempty"`
	Candles  []Candle `json:"candles"`
}
