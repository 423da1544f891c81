// Package usecase implements chart, quote, heatmap, screener and search aggregation
// over a set of upstream market data providers.
package usecase

import (
	"context"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// Interfaces are defined by the consumer (usecase), not by the adapters.

// CandleProvider is one link of a chart fallback chain.
// Implementations return candles sorted ascending, finite and unique by time.
type CandleProvider interface {
	ID() string
	FetchCandles(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.CandleSeries, error)
}

// QuoteProvider is one link of a quote fallback chain.
type QuoteProvider interface {
	ID() string
	FetchQuote(ctx context.Context, asset entity.AssetClassification) (entity.Quote, error)
}

// MoverSource produces one ranked list for heatmaps and screeners.
type MoverSource interface {
	ID() string
	FetchMovers(ctx context.Context, kind entity.HeatmapKind, network string) ([]entity.MoverItem, error)
}

// SymbolSearcher resolves free text to symbols.
type SymbolSearcher interface {
	ID() string
	Search(ctx context.Context, query string) ([]entity.SearchResult, error)
}
