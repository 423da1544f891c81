// Package usecase implements the business logic for the watchlist.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"market_backend/internal/feature/marketdata/classifier"
	"market_backend/internal/feature/watchlist/domain/entity"
)

// SymbolRepository abstracts persistence of tracked symbols.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context, class string) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	Track(ctx context.Context, sym entity.Symbol) (entity.Symbol, error)
	Untrack(ctx context.Context, code string) error
}

// SymbolUsecase manages the watchlist the archive job ingests.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns active symbols in display order, optionally one asset class.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context, class string) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx, strings.ToLower(class))
}

// ListActiveCodes returns the codes the archive job should ingest.
func (u *SymbolUsecase) ListActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// Track adds code to the watchlist. The code must be a symbol the market engine accepts;
// its asset class is taken from the classifier so /symbols?class= matches chart routing.
func (u *SymbolUsecase) Track(ctx context.Context, code, name string, sortKey int) (entity.Symbol, error) {
	code = strings.TrimSpace(code)
	asset, err := classifier.Classify(code)
	if err != nil {
		return entity.Symbol{}, fmt.Errorf("track %q: %w", code, err)
	}
	if name == "" {
		name = asset.NormalizedSymbol
	}
	return u.repo.Track(ctx, entity.Symbol{
		Code:       code,
		Name:       name,
		AssetClass: string(asset.Class),
		SortKey:    sortKey,
	})
}

// Untrack removes code from the ingest set.
func (u *SymbolUsecase) Untrack(ctx context.Context, code string) error {
	return u.repo.Untrack(ctx, strings.TrimSpace(code))
}
