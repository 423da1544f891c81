// Package dto defines data transfer objects for the CoinGecko API responses.
package dto

// MarketChartResponse is returned by /coins/{id}/market_chart and the contract variant.
// Every series is a list of [unix ms, value] pairs.
type MarketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// SimplePrice is one entry of /simple/price keyed by coin id.
type SimplePrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	USD24hVol    float64 `json:"usd_24h_vol"`
}

// Market is one row of /coins/markets. Nullable numbers decode as zero.
type Market struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
}

// SearchCoin is one coin hit of /search.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// SearchResponse is the /search payload.
type SearchResponse struct {
	Coins []SearchCoin `json:"coins"`
}
