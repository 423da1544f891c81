package usecase

import (
	"context"

	"market_backend/internal/feature/marketdata/classifier"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/platform/cache"
)

// QuoteUsecase serves price snapshots through the cache and the quote fallback chain.
type QuoteUsecase struct {
	providers map[string]QuoteProvider
	rules     []ChainRule
	orch      *Orchestrator
	cache     *cache.TTLCache
}

// NewQuoteUsecase wires the enabled quote providers. rules nil means DefaultQuoteRules.
func NewQuoteUsecase(providers []QuoteProvider, rules []ChainRule, orch *Orchestrator, c *cache.TTLCache) *QuoteUsecase {
	if rules == nil {
		rules = DefaultQuoteRules
	}
	m := make(map[string]QuoteProvider, len(providers))
	for _, p := range providers {
		m[p.ID()] = p
	}
	return &QuoteUsecase{providers: m, rules: rules, orch: orch, cache: c}
}

// GetQuote returns the latest price snapshot of symbol.
func (u *QuoteUsecase) GetQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	asset, err := classifier.Classify(symbol)
	if err != nil {
		return entity.Quote{}, err
	}
	q, _, err := cache.Fetch(ctx, u.cache, u.cache.Key(asset.Key()), func(ctx context.Context) (entity.Quote, error) {
		return u.load(ctx, asset)
	})
	return q, err
}

func (u *QuoteUsecase) load(ctx context.Context, asset entity.AssetClassification) (entity.Quote, error) {
	ids := enabled(Plan(u.rules, asset, "", 0), u.providers, u.orch.MaxChainLength())
	steps := make([]step[entity.Quote], 0, len(ids))
	for _, id := range ids {
		p := u.providers[id]
		steps = append(steps, step[entity.Quote]{id: id, run: func(ctx context.Context) (entity.Quote, error) {
			return p.FetchQuote(ctx, asset)
		}})
	}
	res, err := attempt(ctx, u.orch, "quote "+asset.Key(), steps)
	if err != nil {
		return entity.Quote{}, err
	}
	q := res.value
	if q.Symbol == "" {
		q.Symbol = asset.NormalizedSymbol
	}
	q.Source = res.source
	return q, nil
}
