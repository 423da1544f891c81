package geckoterminal

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/geckoterminal/dto"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/ohlc"
	"market_backend/internal/feature/marketdata/pagination"
	platformhttp "market_backend/internal/platform/http"
)

// frame is the native OHLCV request for one interval.
type frame struct {
	timeframe string // minute, hour or day
	aggregate int
	resample  time.Duration
}

func (f frame) width() time.Duration {
	switch f.timeframe {
	case "minute":
		return time.Duration(f.aggregate) * time.Minute
	case "hour":
		return time.Duration(f.aggregate) * time.Hour
	default:
		return time.Duration(f.aggregate) * 24 * time.Hour
	}
}

// Supported aggregates: minute 1/5/15, hour 1/4/12, day 1. Anything else is resampled.
var frames = map[string]frame{
	"1m":                {timeframe: "minute", aggregate: 1},
	"5m":                {timeframe: "minute", aggregate: 5},
	"15m":               {timeframe: "minute", aggregate: 15},
	"30m":               {timeframe: "minute", aggregate: 15, resample: 30 * time.Minute},
	"1h":                {timeframe: "hour", aggregate: 1},
	"4h":                {timeframe: "hour", aggregate: 4},
	"1d":                {timeframe: "day", aggregate: 1},
	"1w":                {timeframe: "day", aggregate: 1, resample: 7 * 24 * time.Hour},
	"1M":                {timeframe: "day", aggregate: 1, resample: 30 * 24 * time.Hour},
	entity.IntervalLive: {timeframe: "minute", aggregate: 1},
}

// side is which token of a pool a request prices.
type side string

const (
	sideBase  side = "base"
	sideQuote side = "quote"
)

// Client issues GeckoTerminal requests. Provider types share it.
type Client struct {
	cfg  Config
	http platformhttp.HTTPClient
}

// NewClient creates a GeckoTerminal client.
func NewClient(cfg Config, client platformhttp.HTTPClient) *Client {
	return &Client{cfg: cfg.withDefaults(), http: client}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return platformhttp.GetJSON(ctx, c.http, u, nil, out)
}

// searchPools calls /search/pools, optionally scoped to one network.
func (c *Client) searchPools(ctx context.Context, query, network string) ([]dto.Pool, error) {
	q := url.Values{"query": {query}}
	if network != "" {
		q.Set("network", network)
	}
	var res dto.PoolsResponse
	if err := c.get(ctx, "/search/pools", q, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// tokenPools lists pools of a token on one network.
func (c *Client) tokenPools(ctx context.Context, network, address string) ([]dto.Pool, error) {
	var res dto.PoolsResponse
	path := fmt.Sprintf("/networks/%s/tokens/%s/pools", url.PathEscape(network), url.PathEscape(address))
	if err := c.get(ctx, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// trendingPools lists trending pools, across all networks when network is empty.
func (c *Client) trendingPools(ctx context.Context, network string) ([]dto.Pool, error) {
	path := "/networks/trending_pools"
	if network != "" {
		path = fmt.Sprintf("/networks/%s/trending_pools", url.PathEscape(network))
	}
	var res dto.PoolsResponse
	if err := c.get(ctx, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ohlcv walks a pool's OHLCV backward until the interval target is covered.
// token selects the side of the pool the prices are for.
func (c *Client) ohlcv(ctx context.Context, provider, network, pool string, token side, iv entity.Interval) ([]entity.Candle, error) {
	f, ok := frames[iv.Name]
	if !ok {
		return nil, domain.NewProviderError(provider, domain.ErrInvalidInterval, fmt.Errorf("interval %s", iv.Name))
	}
	target := iv.Target
	if f.resample > 0 {
		target *= int(f.resample / f.width())
	}

	path := fmt.Sprintf("/networks/%s/pools/%s/ohlcv/%s", url.PathEscape(network), url.PathEscape(pool), f.timeframe)
	page := func(ctx context.Context, before int64, limit int) ([]entity.Candle, error) {
		q := url.Values{
			"aggregate": {strconv.Itoa(f.aggregate)},
			"limit":     {strconv.Itoa(limit)},
			"currency":  {"usd"},
			"token":     {string(token)},
		}
		if before > 0 {
			q.Set("before_timestamp", strconv.FormatInt(before, 10))
		}
		var res dto.OHLCVResponse
		if err := c.get(ctx, path, q, &res); err != nil {
			return nil, adapters.WrapError(provider, err)
		}
		rows := res.Data.Attributes.OHLCVList
		out := make([]entity.Candle, 0, len(rows))
		for _, r := range rows {
			if len(r) < 6 {
				continue
			}
			out = append(out, entity.Candle{Time: int64(r[0]), Open: r[1], High: r[2], Low: r[3], Close: r[4], Volume: r[5]})
		}
		return out, nil
	}

	raw, err := pagination.FetchBackward(ctx, page, pagination.Options{
		PageSize: c.cfg.PageSize,
		Target:   target,
		MaxPages: c.cfg.MaxPages,
	})
	if err != nil {
		return nil, err
	}
	candles := ohlc.Normalize(raw, 0)
	if len(candles) == 0 {
		return nil, domain.NewProviderError(provider, domain.ErrNotFound, fmt.Errorf("no ohlcv for pool %s on %s", pool, network))
	}
	if f.resample > 0 {
		candles = ohlc.Resample(candles, f.resample)
	}
	return candles, nil
}

// previousClose returns the close of the last completed daily candle for one side of a pool.
// ok is false when the pool has less than two days of history.
func (c *Client) previousClose(ctx context.Context, provider, network, pool string, token side) (prev float64, ok bool, err error) {
	path := fmt.Sprintf("/networks/%s/pools/%s/ohlcv/day", url.PathEscape(network), url.PathEscape(pool))
	q := url.Values{
		"aggregate": {"1"},
		"limit":     {"2"},
		"currency":  {"usd"},
		"token":     {string(token)},
	}
	var res dto.OHLCVResponse
	if err := c.get(ctx, path, q, &res); err != nil {
		return 0, false, adapters.WrapError(provider, err)
	}
	rows := res.Data.Attributes.OHLCVList
	if len(rows) < 2 || len(rows[0]) < 5 || len(rows[1]) < 5 {
		return 0, false, nil
	}
	older := rows[1]
	if rows[0][0] < older[0] {
		older = rows[0]
	}
	return older[4], older[4] > 0, nil
}

// bestPool returns the pool with the largest reserve. When symbol is set only pools
// whose base token matches it are considered.
func bestPool(pools []dto.Pool, symbol string) (dto.Pool, bool) {
	var (
		best    dto.Pool
		reserve = -1.0
	)
	for _, p := range pools {
		if symbol != "" && !strings.EqualFold(baseSymbol(p.Attributes.Name), symbol) {
			continue
		}
		r, err := adapters.ParseFloat("reserve_in_usd", p.Attributes.ReserveInUSD)
		if err != nil {
			continue
		}
		if r > reserve {
			best, reserve = p, r
		}
	}
	return best, reserve >= 0
}

// baseSymbol reads "PEPE" out of "PEPE / WETH 0.3%".
func baseSymbol(poolName string) string {
	base, _, _ := strings.Cut(poolName, "/")
	return strings.ToUpper(strings.TrimSpace(base))
}

// networkOf extracts the network id from a pool id such as "polygon_pos_0xabc".
func networkOf(p dto.Pool) string {
	if id := p.Relationships.Network.Data.ID; id != "" {
		return id
	}
	if i := strings.LastIndexByte(p.ID, '_'); i > 0 {
		return p.ID[:i]
	}
	return ""
}

// tokenSide reports which side of p the token at address is. Token pool listings only
// contain pools holding the token, so anything not matching the quote side is the base.
func tokenSide(p dto.Pool, network, address string) side {
	if strings.EqualFold(p.Relationships.QuoteToken.Data.ID, network+"_"+address) {
		return sideQuote
	}
	return sideBase
}

// poolQuote converts pool attributes into a quote for the base token.
func poolQuote(provider, symbol, network string, p dto.Pool) (entity.Quote, error) {
	a := p.Attributes
	price, err := adapters.ParseFloat("base_token_price_usd", a.BaseTokenPriceUSD)
	if err != nil {
		return entity.Quote{}, adapters.WrapError(provider, err)
	}
	if price <= 0 {
		return entity.Quote{}, domain.NewProviderError(provider, domain.ErrNotFound, fmt.Errorf("pool %s has no price", a.Address))
	}
	pct, err := adapters.ParseFloat("price_change_percentage.h24", a.PriceChangePercentage.H24)
	if err != nil {
		return entity.Quote{}, adapters.WrapError(provider, err)
	}
	vol, err := adapters.ParseFloat("volume_usd.h24", a.VolumeUSD.H24)
	if err != nil {
		return entity.Quote{}, adapters.WrapError(provider, err)
	}
	prev := price
	if pct > -100 {
		prev = price / (1 + pct/100)
	}
	return entity.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        price - prev,
		ChangePercent: pct,
		Volume:        vol,
		PreviousClose: prev,
		Source:        provider,
		Network:       network,
	}, nil
}
