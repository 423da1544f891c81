package geckoterminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/geckoterminal/dto"
	"market_backend/internal/feature/marketdata/classifier"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
)

// Provider ids.
const (
	PoolProviderID     = "geckoterminal-pool"
	ContractProviderID = "geckoterminal-contract"
	TrendingSourceID   = "geckoterminal"
)

// PoolProvider charts a crypto symbol from its deepest DEX pool, optionally on one network.
type PoolProvider struct {
	c *Client
}

// NewPoolProvider returns the symbol based pool provider.
func NewPoolProvider(c *Client) *PoolProvider { return &PoolProvider{c: c} }

var (
	_ usecase.CandleProvider = (*PoolProvider)(nil)
	_ usecase.QuoteProvider  = (*PoolProvider)(nil)
)

func (p *PoolProvider) ID() string { return PoolProviderID }

func (p *PoolProvider) FetchCandles(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.CandleSeries, error) {
	pool, network, err := p.find(ctx, asset)
	if err != nil {
		return entity.CandleSeries{}, err
	}
	candles, err := p.c.ohlcv(ctx, PoolProviderID, network, pool.Attributes.Address, sideBase, iv)
	if err != nil {
		return entity.CandleSeries{}, err
	}
	return entity.CandleSeries{Candles: candles, Network: network, Pool: pool.Attributes.Address}, nil
}

func (p *PoolProvider) FetchQuote(ctx context.Context, asset entity.AssetClassification) (entity.Quote, error) {
	pool, network, err := p.find(ctx, asset)
	if err != nil {
		return entity.Quote{}, err
	}
	return poolQuote(PoolProviderID, asset.NormalizedSymbol, network, pool)
}

func (p *PoolProvider) find(ctx context.Context, asset entity.AssetClassification) (dto.Pool, string, error) {
	if asset.Class != entity.AssetCrypto {
		return dto.Pool{}, "", domain.NewProviderError(PoolProviderID, domain.ErrNotFound, errors.New("pool search needs a symbol"))
	}
	pools, err := p.c.searchPools(ctx, asset.NormalizedSymbol, asset.Network)
	if err != nil {
		return dto.Pool{}, "", adapters.WrapError(PoolProviderID, err)
	}
	pool, ok := bestPool(pools, asset.NormalizedSymbol)
	if !ok {
		return dto.Pool{}, "", domain.NewProviderError(PoolProviderID, domain.ErrNotFound,
			fmt.Errorf("no pool for %s", asset.Key()))
	}
	network := networkOf(pool)
	if asset.Network != "" {
		network = asset.Network
	}
	return pool, network, nil
}

// ContractProvider charts a token by contract address from its deepest pool,
// searching candidate networks in order until the token is found.
type ContractProvider struct {
	c *Client
}

// NewContractProvider returns the contract based pool provider.
func NewContractProvider(c *Client) *ContractProvider { return &ContractProvider{c: c} }

var (
	_ usecase.CandleProvider = (*ContractProvider)(nil)
	_ usecase.QuoteProvider  = (*ContractProvider)(nil)
)

func (p *ContractProvider) ID() string { return ContractProviderID }

func (p *ContractProvider) FetchCandles(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.CandleSeries, error) {
	pool, network, err := p.find(ctx, asset)
	if err != nil {
		return entity.CandleSeries{}, err
	}
	token := tokenSide(pool, network, asset.ContractAddress)
	candles, err := p.c.ohlcv(ctx, ContractProviderID, network, pool.Attributes.Address, token, iv)
	if err != nil {
		return entity.CandleSeries{}, err
	}
	return entity.CandleSeries{Candles: candles, Network: network, Pool: pool.Attributes.Address}, nil
}

// FetchQuote prices the contract from its deepest pool. The pool's 24h change is the base
// token's, so a quote side token takes its previous close from daily OHLCV instead.
func (p *ContractProvider) FetchQuote(ctx context.Context, asset entity.AssetClassification) (entity.Quote, error) {
	pool, network, err := p.find(ctx, asset)
	if err != nil {
		return entity.Quote{}, err
	}
	if tokenSide(pool, network, asset.ContractAddress) == sideBase {
		return poolQuote(ContractProviderID, asset.NormalizedSymbol, network, pool)
	}

	a := pool.Attributes
	price, err := adapters.ParseFloat("quote_token_price_usd", a.QuoteTokenPriceUSD)
	if err != nil {
		return entity.Quote{}, adapters.WrapError(ContractProviderID, err)
	}
	if price <= 0 {
		return entity.Quote{}, domain.NewProviderError(ContractProviderID, domain.ErrNotFound, fmt.Errorf("pool %s has no quote token price", a.Address))
	}
	vol, err := adapters.ParseFloat("volume_usd.h24", a.VolumeUSD.H24)
	if err != nil {
		return entity.Quote{}, adapters.WrapError(ContractProviderID, err)
	}
	prev, ok, err := p.c.previousClose(ctx, ContractProviderID, network, a.Address, sideQuote)
	if err != nil {
		return entity.Quote{}, err
	}
	if !ok {
		prev = price
	}
	return entity.Quote{
		Symbol:        asset.NormalizedSymbol,
		Price:         price,
		Change:        price - prev,
		ChangePercent: (price - prev) / prev * 100,
		Volume:        vol,
		PreviousClose: prev,
		Source:        ContractProviderID,
		Network:       network,
	}, nil
}

// find walks the candidate networks. A 404 or an empty pool list moves on;
// a rate limit aborts the walk.
func (p *ContractProvider) find(ctx context.Context, asset entity.AssetClassification) (dto.Pool, string, error) {
	if asset.Class != entity.AssetContract {
		return dto.Pool{}, "", domain.NewProviderError(ContractProviderID, domain.ErrNotFound, errors.New("not a contract"))
	}

	var lastErr error
	for _, network := range classifier.CandidateNetworks(asset) {
		pools, err := p.c.tokenPools(ctx, network, asset.ContractAddress)
		if err != nil {
			if adapters.IsStatus(err, http.StatusNotFound) {
				continue
			}
			wrapped := adapters.WrapError(ContractProviderID, err)
			if errors.Is(wrapped, domain.ErrRateLimited) {
				return dto.Pool{}, "", wrapped
			}
			slog.DebugContext(ctx, "token pool lookup failed", "provider", ContractProviderID, "network", network, "error", err)
			lastErr = wrapped
			continue
		}
		if pool, ok := bestPool(pools, ""); ok {
			return pool, network, nil
		}
	}
	if lastErr != nil {
		return dto.Pool{}, "", lastErr
	}
	return dto.Pool{}, "", domain.NewProviderError(ContractProviderID, domain.ErrNotFound,
		fmt.Errorf("no pool for contract %s", asset.ContractAddress))
}

// Trending lists trending DEX pools as movers.
type Trending struct {
	c *Client
}

// NewTrending returns the trending pools mover source.
func NewTrending(c *Client) *Trending { return &Trending{c: c} }

var _ usecase.MoverSource = (*Trending)(nil)

func (t *Trending) ID() string { return TrendingSourceID }

// FetchMovers serves the dex heatmap and contributes to the crypto heatmap.
func (t *Trending) FetchMovers(ctx context.Context, kind entity.HeatmapKind, network string) ([]entity.MoverItem, error) {
	if kind == entity.HeatmapStocks {
		return nil, nil
	}
	if network != "" {
		network = classifier.NormalizeNetwork(network)
	}
	pools, err := t.c.trendingPools(ctx, network)
	if err != nil {
		return nil, adapters.WrapError(TrendingSourceID, err)
	}

	out := make([]entity.MoverItem, 0, len(pools))
	for _, p := range pools {
		a := p.Attributes
		price, err1 := adapters.ParseFloat("base_token_price_usd", a.BaseTokenPriceUSD)
		pct, err2 := adapters.ParseFloat("price_change_percentage.h24", a.PriceChangePercentage.H24)
		vol, err3 := adapters.ParseFloat("volume_usd.h24", a.VolumeUSD.H24)
		tvl, err4 := adapters.ParseFloat("reserve_in_usd", a.ReserveInUSD)
		if err := errors.Join(err1, err2, err3, err4); err != nil {
			slog.WarnContext(ctx, "skip malformed pool", "provider", TrendingSourceID, "pool", p.ID, "error", err)
			continue
		}
		sym := baseSymbol(a.Name)
		if sym == "" || price <= 0 {
			continue
		}
		out = append(out, entity.MoverItem{
			Symbol:         sym,
			Name:           a.Name,
			Price:          price,
			ChangePercent:  pct,
			Volume:         vol,
			MarketCapOrTVL: tvl,
			Source:         TrendingSourceID,
			Sector:         networkOf(p),
		})
	}
	return out, nil
}
