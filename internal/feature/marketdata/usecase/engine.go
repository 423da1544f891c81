package usecase

import (
	"time"

	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/platform/cache"
)

// Sources are the provider adapters enabled in this process.
type Sources struct {
	Candles   []CandleProvider
	Quotes    []QuoteProvider
	Movers    map[entity.HeatmapKind][]MoverSource // priority order per kind
	Searchers []SymbolSearcher                     // priority order
}

// Caches holds one TTL cache instance per payload kind.
type Caches struct {
	Chart  *cache.TTLCache
	Quote  *cache.TTLCache
	List   *cache.TTLCache
	Search *cache.TTLCache
}

// Options are the engine wide knobs.
type Options struct {
	AttemptTimeout time.Duration
	MaxChainLength int
	MaxCandles     int
}

// Engine is the market data aggregation entry point used by the HTTP layer, ingest and the CLI.
type Engine struct {
	*ChartUsecase
	*QuoteUsecase
	*MoverUsecase
	*SearchUsecase
}

// NewEngine wires every usecase over one orchestrator.
func NewEngine(src Sources, caches Caches, opts Options) *Engine {
	orch := NewOrchestrator(opts.AttemptTimeout, opts.MaxChainLength)
	return &Engine{
		ChartUsecase:  NewChartUsecase(src.Candles, DefaultChartRules, orch, caches.Chart, opts.MaxCandles),
		QuoteUsecase:  NewQuoteUsecase(src.Quotes, DefaultQuoteRules, orch, caches.Quote),
		MoverUsecase:  NewMoverUsecase(src.Movers, caches.List, opts.AttemptTimeout),
		SearchUsecase: NewSearchUsecase(src.Searchers, caches.Search),
	}
}
