// Package dto defines data transfer objects for the Binance spot API responses.
package dto

// Kline is one row of /api/v3/klines:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, ...].
// Times are JSON numbers in milliseconds, prices are strings.
type Kline []any

// Ticker24h is one element of /api/v3/ticker/24hr.
type Ticker24h struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	PrevClosePrice     string `json:"prevClosePrice"`
	LastPrice          string `json:"lastPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
}

// APIError is the body of 4xx responses, e.g. {"code":-1121,"msg":"Invalid symbol."}.
type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
