// Package dto はmarketdataフィーチャーのHTTPレスポンスDTOを定義します。
package dto

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Kind      string            `json:"kind"`
	RequestID string            `json:"requestId,omitempty"`
	Attempts  []AttemptResponse `json:"attempts,omitempty"`
}

// AttemptResponse は失敗したプロバイダー試行の診断情報です。
type AttemptResponse struct {
	Provider   string `json:"provider"`
	Outcome    string `json:"outcome"`
	ErrorKind  string `json:"errorKind,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// CandleResponse はロウソク足データのレスポンスDTOです。
type CandleResponse struct {
	Time   int64   `json:"time"`   // バケット開始 (unix 秒)
	Open   float64 `json:"open"`   // 始値
	High   float64 `json:"high"`   // 高値
	Low    float64 `json:"low"`    // 安値
	Close  float64 `json:"close"`  // 終値
	Volume float64 `json:"volume"` // 出来高
}

// ChartResponse is returned by GET /chart.
type ChartResponse struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Source   string           `json:"source"`
	Network  string           `json:"network,omitempty"`
	Pool     string           `json:"pool,omitempty"`
	Candles  []CandleResponse `json:"candles"`
}

// QuoteResponse is returned by GET /quote.
type QuoteResponse struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        float64 `json:"volume"`
	PreviousClose float64 `json:"previousClose"`
	Source        string  `json:"source"`
	Network       string  `json:"network,omitempty"`
}

// MoverResponse is one heatmap or screener row.
type MoverResponse struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	ChangePercent  float64 `json:"changePercent"`
	Volume         float64 `json:"volume"`
	MarketCapOrTVL float64 `json:"marketCapOrTVL"`
	Source         string  `json:"source"`
	Sector         string  `json:"sector"`
}

// StatsResponse summarizes a heatmap.
type StatsResponse struct {
	Gainers     int            `json:"gainers"`
	Losers      int            `json:"losers"`
	AvgChange   float64        `json:"avgChange"`
	TopGainer   *MoverResponse `json:"topGainer"`
	TopLoser    *MoverResponse `json:"topLoser"`
	TotalVolume float64        `json:"totalVolume"`
}

// HeatmapResponse is returned by GET /heatmap.
type HeatmapResponse struct {
	Kind  string          `json:"kind"`
	Items []MoverResponse `json:"items"`
	Stats StatsResponse   `json:"stats"`
}

// SearchResultResponse is one GET /search hit.
type SearchResultResponse struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Class  string `json:"class"`
	Region string `json:"region,omitempty"`
	Source string `json:"source"`
}
