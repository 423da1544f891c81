// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"market_backend/internal/feature/marketdata/adapters/alphavantage"
	"market_backend/internal/feature/marketdata/adapters/binance"
	"market_backend/internal/feature/marketdata/adapters/coingecko"
	"market_backend/internal/feature/marketdata/adapters/geckoterminal"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
	"market_backend/internal/platform/cache"
	"market_backend/internal/platform/config"
	infrahttp "market_backend/internal/platform/http"
	"market_backend/internal/platform/redis"
)

// NewSources builds every enabled provider adapter, each over its own tuned HTTP client.
// Slice order is the priority order of mover and search sources.
func NewSources(cfg config.ProvidersConfig) usecase.Sources {
	src := usecase.Sources{Movers: map[entity.HeatmapKind][]usecase.MoverSource{}}
	addMover := func(s usecase.MoverSource, kinds ...entity.HeatmapKind) {
		for _, k := range kinds {
			src.Movers[k] = append(src.Movers[k], s)
		}
	}

	if p := cfg.AlphaVantage; p.IsEnabled() {
		c := alphavantage.NewClient(alphavantage.Config{APIKey: p.APIKey, BaseURL: p.BaseURL, Timeout: p.Timeout},
			infrahttp.NewHTTPClient(p.Timeout))
		stock := alphavantage.NewProvider(c)
		src.Candles = append(src.Candles, stock, alphavantage.NewCryptoDaily(c))
		src.Quotes = append(src.Quotes, stock)
		src.Searchers = append(src.Searchers, stock)
		addMover(stock, entity.HeatmapStocks)
	}
	if p := cfg.CoinGecko; p.IsEnabled() {
		c := coingecko.NewClient(coingecko.Config{APIKey: p.APIKey, BaseURL: p.BaseURL, Timeout: p.Timeout},
			infrahttp.NewHTTPClient(p.Timeout))
		agg := coingecko.NewProvider(c)
		src.Candles = append(src.Candles, agg, coingecko.NewContractProvider(c))
		src.Quotes = append(src.Quotes, agg)
		src.Searchers = append(src.Searchers, agg)
		addMover(agg, entity.HeatmapCrypto)
	}
	if p := cfg.Binance; p.IsEnabled() {
		b := binance.NewProvider(binance.Config{BaseURL: p.BaseURL, PageSize: p.PageSize, MaxPages: p.MaxPages, Timeout: p.Timeout},
			infrahttp.NewHTTPClient(p.Timeout))
		src.Candles = append(src.Candles, b)
		src.Quotes = append(src.Quotes, b)
		addMover(b, entity.HeatmapCrypto)
	}
	if p := cfg.GeckoTerminal; p.IsEnabled() {
		c := geckoterminal.NewClient(geckoterminal.Config{BaseURL: p.BaseURL, PageSize: p.PageSize, MaxPages: p.MaxPages, Timeout: p.Timeout},
			infrahttp.NewHTTPClient(p.Timeout))
		pool, contract := geckoterminal.NewPoolProvider(c), geckoterminal.NewContractProvider(c)
		src.Candles = append(src.Candles, pool, contract)
		src.Quotes = append(src.Quotes, pool, contract)
		addMover(geckoterminal.NewTrending(c), entity.HeatmapDEX, entity.HeatmapCrypto)
	}
	return src
}

// NewCacheStore returns the configured store. The redis client is returned so callers can
// close it and probe it from /readyz; it is nil for the memory backend.
func NewCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, *goredis.Client, error) {
	switch cfg.Cache.Backend {
	case "redis":
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisStore(rdb), rdb, nil
	case "memory", "":
		return cache.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// NewCaches creates one TTL cache per payload kind over a shared store.
func NewCaches(store cache.Store, cc config.CacheConfig) usecase.Caches {
	opt := cache.WithCoalescing(cc.CoalesceEnabled())
	return usecase.Caches{
		Chart:  cache.New(store, "chart", cc.ChartTTL, opt),
		Quote:  cache.New(store, "quote", cc.QuoteTTL, opt),
		List:   cache.New(store, "list", cc.ListTTL, opt),
		Search: cache.New(store, "search", cc.SearchTTL, opt),
	}
}

// Market is the assembled engine plus the resources it owns.
type Market struct {
	Engine *usecase.Engine
	Redis  *goredis.Client // nil with the memory cache backend
}

// Close releases the cache connection.
func (m *Market) Close() {
	if m.Redis == nil {
		return
	}
	if err := m.Redis.Close(); err != nil {
		slog.Warn("failed to close redis", "error", err)
	}
}

// NewMarket creates a fully configured market data engine.
func NewMarket(ctx context.Context, cfg *config.Config) (*Market, error) {
	store, rdb, err := NewCacheStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	engine := usecase.NewEngine(NewSources(cfg.Providers), NewCaches(store, cfg.Cache), usecase.Options{
		AttemptTimeout: cfg.Engine.AttemptTimeout,
		MaxChainLength: cfg.Engine.MaxChainLength,
		MaxCandles:     cfg.Engine.MaxCandles,
	})
	slog.Info("market engine ready", "cache", cfg.Cache.Backend, "max_chain_length", cfg.Engine.MaxChainLength)
	return &Market{Engine: engine, Redis: rdb}, nil
}
