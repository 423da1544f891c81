package usecase

import (
	"context"
	"fmt"

	"market_backend/internal/feature/marketdata/classifier"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/ohlc"
	"market_backend/internal/platform/cache"
)

const (
	// DefaultInterval is used when a chart request names no interval.
	DefaultInterval = "1d"
	// DefaultMaxCandles caps every returned series.
	DefaultMaxCandles = 500
)

// ChartUsecase serves normalized candle series through the cache and the chart fallback chain.
type ChartUsecase struct {
	providers  map[string]CandleProvider
	rules      []ChainRule
	orch       *Orchestrator
	cache      *cache.TTLCache
	maxCandles int
}

// NewChartUsecase wires the enabled candle providers. rules nil means DefaultChartRules.
func NewChartUsecase(providers []CandleProvider, rules []ChainRule, orch *Orchestrator, c *cache.TTLCache, maxCandles int) *ChartUsecase {
	if rules == nil {
		rules = DefaultChartRules
	}
	if maxCandles <= 0 {
		maxCandles = DefaultMaxCandles
	}
	m := make(map[string]CandleProvider, len(providers))
	for _, p := range providers {
		m[p.ID()] = p
	}
	return &ChartUsecase{providers: m, rules: rules, orch: orch, cache: c, maxCandles: maxCandles}
}

// GetChart returns the candle series of symbol at interval.
// Two calls within the cache TTL return the same payload and reach the providers once.
func (u *ChartUsecase) GetChart(ctx context.Context, symbol, interval string) (entity.Chart, error) {
	asset, err := classifier.Classify(symbol)
	if err != nil {
		return entity.Chart{}, err
	}
	if interval == "" {
		interval = DefaultInterval
	}
	iv, ok := entity.ParseInterval(interval)
	if !ok {
		return entity.Chart{}, fmt.Errorf("%w: %q", domain.ErrInvalidInterval, interval)
	}

	key := u.cache.Key(asset.Key(), iv.Name)
	chart, _, err := cache.Fetch(ctx, u.cache, key, func(ctx context.Context) (entity.Chart, error) {
		return u.load(ctx, asset, iv)
	})
	return chart, err
}

// Chain returns the provider ids a chart request for asset at iv would try, in order.
func (u *ChartUsecase) Chain(asset entity.AssetClassification, iv entity.Interval) []string {
	return enabled(Plan(u.rules, asset, iv.Class(), 0), u.providers, u.orch.MaxChainLength())
}

func (u *ChartUsecase) load(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.Chart, error) {
	limit := min(iv.Target, u.maxCandles)

	ids := u.Chain(asset, iv)
	steps := make([]step[entity.CandleSeries], 0, len(ids))
	for _, id := range ids {
		p := u.providers[id]
		steps = append(steps, step[entity.CandleSeries]{id: id, run: func(ctx context.Context) (entity.CandleSeries, error) {
			s, err := p.FetchCandles(ctx, asset, iv)
			if err != nil {
				return entity.CandleSeries{}, err
			}
			s.Candles = ohlc.Normalize(s.Candles, limit)
			if len(s.Candles) == 0 {
				return entity.CandleSeries{}, domain.NewProviderError(id, domain.ErrNotFound, fmt.Errorf("no valid candles for %s", asset.Key()))
			}
			return s, nil
		}})
	}

	res, err := attempt(ctx, u.orch, "chart "+asset.Key()+" "+iv.Name, steps)
	if err != nil {
		return entity.Chart{}, err
	}
	return entity.Chart{
		Symbol:   asset.NormalizedSymbol,
		Interval: iv.Name,
		Source:   res.source,
		Network:  res.value.Network,
		Pool:     res.value.Pool,
		Candles:  res.value.Candles,
	}, nil
}

// enabled keeps the planned ids that have a registered provider, then applies the chain cap.
func enabled[P any](ids []string, providers map[string]P, maxLen int) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := providers[id]; ok {
			out = append(out, id)
		}
	}
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
