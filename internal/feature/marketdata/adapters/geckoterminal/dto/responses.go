// Package dto defines data transfer objects for the GeckoTerminal API responses.
// Every payload follows the JSON:API layout: {"data": {"id", "type", "attributes", "relationships"}}.
package dto

// Window holds a metric per time window. Values are decimal strings.
type Window struct {
	M5  string `json:"m5"`
	H1  string `json:"h1"`
	H6  string `json:"h6"`
	H24 string `json:"h24"`
}

// PoolAttributes are the pool fields the adapter reads.
type PoolAttributes struct {
	Address               string `json:"address"`
	Name                  string `json:"name"` // e.g. "PEPE / WETH 0.3%"
	BaseTokenPriceUSD     string `json:"base_token_price_usd"`
	QuoteTokenPriceUSD    string `json:"quote_token_price_usd"`
	ReserveInUSD          string `json:"reserve_in_usd"`
	FDVUSD                string `json:"fdv_usd"`
	VolumeUSD             Window `json:"volume_usd"`
	PriceChangePercentage Window `json:"price_change_percentage"`
}

// Relationship links a resource to another by id, e.g. {"data": {"id": "eth", "type": "network"}}.
type Relationship struct {
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

// Pool is one pool resource. Its id is "<network>_<address>", and so are the token relationship ids.
type Pool struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Attributes    PoolAttributes `json:"attributes"`
	Relationships struct {
		BaseToken  Relationship `json:"base_token"`
		QuoteToken Relationship `json:"quote_token"`
		Network    Relationship `json:"network"`
		Dex        Relationship `json:"dex"`
	} `json:"relationships"`
}

// PoolsResponse is returned by /search/pools, token pools and trending pools.
type PoolsResponse struct {
	Data []Pool `json:"data"`
}

// OHLCVResponse is returned by the pool ohlcv endpoint. Rows are
// [unix seconds, open, high, low, close, volume], newest first.
type OHLCVResponse struct {
	Data struct {
		Attributes struct {
			OHLCVList [][]float64 `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}
