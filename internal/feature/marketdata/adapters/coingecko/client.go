package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/coingecko/dto"
	"market_backend/internal/feature/marketdata/domain"
	platformhttp "market_backend/internal/platform/http"
)

// knownIDs maps common tickers to coin ids so most requests skip /search.
var knownIDs = map[string]string{
	"BTC": "bitcoin", "ETH": "ethereum", "SOL": "solana", "BNB": "binancecoin", "XRP": "ripple",
	"ADA": "cardano", "DOGE": "dogecoin", "AVAX": "avalanche-2", "DOT": "polkadot", "MATIC": "matic-network",
	"POL": "polygon-ecosystem-token", "LINK": "chainlink", "LTC": "litecoin", "TRX": "tron", "SHIB": "shiba-inu",
	"PEPE": "pepe", "ARB": "arbitrum", "OP": "optimism", "SUI": "sui", "APT": "aptos", "TON": "the-open-network",
	"NEAR": "near", "ATOM": "cosmos", "UNI": "uniswap", "AAVE": "aave", "BONK": "bonk", "WIF": "dogwifcoin",
	"XLM": "stellar", "BCH": "bitcoin-cash", "FIL": "filecoin", "INJ": "injective-protocol", "TIA": "celestia",
	"SEI": "sei-network", "HYPE": "hyperliquid", "ENA": "ethena", "USDT": "tether", "USDC": "usd-coin", "DAI": "dai",
}

// Client issues CoinGecko requests and owns the symbol to id lookup table.
type Client struct {
	cfg  Config
	http platformhttp.HTTPClient
	ids  sync.Map // upper symbol -> coin id, filled from /search
}

// NewClient creates a CoinGecko client.
func NewClient(cfg Config, client platformhttp.HTTPClient) *Client {
	return &Client{cfg: cfg.withDefaults(), http: client}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var header http.Header
	if c.cfg.APIKey != "" {
		header = http.Header{}
		header.Set(c.cfg.keyHeader(), c.cfg.APIKey)
	}
	return platformhttp.GetJSON(ctx, c.http, u, header, out)
}

// resolveID maps a ticker to a coin id: static table, then memoized /search picking
// the exact symbol match with the best market cap rank.
func (c *Client) resolveID(ctx context.Context, provider, symbol string) (string, error) {
	sym := strings.ToUpper(symbol)
	if id, ok := knownIDs[sym]; ok {
		return id, nil
	}
	if v, ok := c.ids.Load(sym); ok {
		return v.(string), nil
	}

	res, err := c.search(ctx, sym)
	if err != nil {
		return "", adapters.WrapError(provider, err)
	}
	var best *dto.SearchCoin
	for i := range res.Coins {
		coin := &res.Coins[i]
		if !strings.EqualFold(coin.Symbol, sym) {
			continue
		}
		if best == nil || betterRank(coin.MarketCapRank, best.MarketCapRank) {
			best = coin
		}
	}
	if best == nil {
		return "", domain.NewProviderError(provider, domain.ErrNotFound, fmt.Errorf("no coin with symbol %s", sym))
	}
	c.ids.Store(sym, best.ID)
	return best.ID, nil
}

func (c *Client) search(ctx context.Context, query string) (dto.SearchResponse, error) {
	var res dto.SearchResponse
	err := c.get(ctx, "/search", url.Values{"query": {query}}, &res)
	return res, err
}

// betterRank treats an unranked coin (0) as worse than any ranked one.
func betterRank(a, b int) bool {
	switch {
	case a == 0:
		return false
	case b == 0:
		return true
	default:
		return a < b
	}
}
