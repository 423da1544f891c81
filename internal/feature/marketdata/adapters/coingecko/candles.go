package coingecko

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/coingecko/dto"
	"market_backend/internal/feature/marketdata/classifier"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/ohlc"
	"market_backend/internal/feature/marketdata/usecase"
)

// Provider ids.
const (
	ProviderID         = "coingecko"
	ContractProviderID = "coingecko-contract"
)

// platforms maps network ids to CoinGecko asset platform ids.
var platforms = map[string]string{
	"eth":         "ethereum",
	"base":        "base",
	"bsc":         "binance-smart-chain",
	"arbitrum":    "arbitrum-one",
	"polygon_pos": "polygon-pos",
	"optimism":    "optimistic-ethereum",
	"avax":        "avalanche",
	"solana":      "solana",
}

// Provider serves aggregated price points synthesized into candles, plus quotes, markets and search.
type Provider struct {
	c *Client
}

// NewProvider returns the coin id based provider.
func NewProvider(c *Client) *Provider { return &Provider{c: c} }

var (
	_ usecase.CandleProvider = (*Provider)(nil)
	_ usecase.QuoteProvider  = (*Provider)(nil)
	_ usecase.MoverSource    = (*Provider)(nil)
	_ usecase.SymbolSearcher = (*Provider)(nil)
)

func (p *Provider) ID() string { return ProviderID }

// FetchCandles resolves the coin id, reads market_chart and synthesizes candles of the interval width.
func (p *Provider) FetchCandles(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.CandleSeries, error) {
	id, err := p.c.resolveID(ctx, ProviderID, asset.NormalizedSymbol)
	if err != nil {
		return entity.CandleSeries{}, err
	}

	var res dto.MarketChartResponse
	path := fmt.Sprintf("/coins/%s/market_chart", url.PathEscape(id))
	if err := p.c.get(ctx, path, chartQuery(iv), &res); err != nil {
		return entity.CandleSeries{}, adapters.WrapError(ProviderID, err)
	}
	candles, err := synthesize(ProviderID, res, iv)
	if err != nil {
		return entity.CandleSeries{}, err
	}
	return entity.CandleSeries{Candles: candles}, nil
}

// ContractProvider charts a token by contract address across candidate asset platforms.
type ContractProvider struct {
	c *Client
}

// NewContractProvider returns the contract lookup provider.
func NewContractProvider(c *Client) *ContractProvider { return &ContractProvider{c: c} }

var _ usecase.CandleProvider = (*ContractProvider)(nil)

func (p *ContractProvider) ID() string { return ContractProviderID }

// FetchCandles tries each candidate platform in order. A 404 moves to the next platform,
// a rate limit ends the search immediately.
func (p *ContractProvider) FetchCandles(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.CandleSeries, error) {
	if asset.Class != entity.AssetContract {
		return entity.CandleSeries{}, domain.NewProviderError(ContractProviderID, domain.ErrNotFound, errors.New("not a contract"))
	}

	var lastErr error
	for _, network := range classifier.CandidateNetworks(asset) {
		platform, ok := platforms[network]
		if !ok {
			continue
		}
		var res dto.MarketChartResponse
		path := fmt.Sprintf("/coins/%s/contract/%s/market_chart", platform, url.PathEscape(asset.ContractAddress))
		err := p.c.get(ctx, path, chartQuery(iv), &res)
		switch {
		case err == nil:
			candles, err := synthesize(ContractProviderID, res, iv)
			if err != nil {
				lastErr = err
				continue
			}
			return entity.CandleSeries{Candles: candles, Network: network}, nil
		case adapters.IsStatus(err, http.StatusNotFound):
			continue
		case errors.Is(adapters.WrapError(ContractProviderID, err), domain.ErrRateLimited):
			return entity.CandleSeries{}, adapters.WrapError(ContractProviderID, err)
		default:
			slog.DebugContext(ctx, "contract platform lookup failed", "provider", ContractProviderID, "platform", platform, "error", err)
			lastErr = adapters.WrapError(ContractProviderID, err)
		}
	}
	if lastErr != nil {
		return entity.CandleSeries{}, lastErr
	}
	return entity.CandleSeries{}, domain.NewProviderError(ContractProviderID, domain.ErrNotFound,
		fmt.Errorf("contract %s not listed", asset.ContractAddress))
}

// chartQuery picks the days parameter so CoinGecko's automatic granularity fits the width:
// 1 day gives 5 minute points, 2-90 days hourly points, more than 90 days daily points.
func chartQuery(iv entity.Interval) url.Values {
	var days int
	lookbackDays := int(math.Ceil(iv.Lookback().Hours() / 24))
	switch {
	case iv.Width < time.Hour:
		days = 1
	case iv.Intraday():
		days = min(max(lookbackDays, 2), 90)
	default:
		days = min(max(lookbackDays, 91), 365)
	}
	return url.Values{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
	}
}

func synthesize(provider string, res dto.MarketChartResponse, iv entity.Interval) ([]entity.Candle, error) {
	if len(res.Prices) == 0 {
		return nil, domain.NewProviderError(provider, domain.ErrNotFound, errors.New("empty price series"))
	}
	prices := make([]ohlc.Point, 0, len(res.Prices))
	for _, p := range res.Prices {
		prices = append(prices, ohlc.Point{Time: int64(p[0]), Value: p[1]})
	}
	// open and close follow input order
	slices.SortStableFunc(prices, func(a, b ohlc.Point) int { return cmp.Compare(a.Time, b.Time) })
	volumes := make([]ohlc.Point, 0, len(res.TotalVolumes))
	for _, v := range res.TotalVolumes {
		volumes = append(volumes, ohlc.Point{Time: int64(v[0]), Value: v[1]})
	}
	return ohlc.Normalize(ohlc.Synthesize(prices, volumes, iv.Width), 0), nil
}
