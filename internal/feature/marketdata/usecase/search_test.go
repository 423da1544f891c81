package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
	"market_backend/internal/platform/cache"
)

// fakeSearcher はSymbolSearcherインターフェースのモック実装です。
type fakeSearcher struct {
	id      string
	results []entity.SearchResult
	err     error
}

func (f *fakeSearcher) ID() string { return f.id }

func (f *fakeSearcher) Search(context.Context, string) ([]entity.SearchResult, error) {
	return f.results, f.err
}

func newSearchUsecase(searchers ...usecase.SymbolSearcher) *usecase.SearchUsecase {
	return usecase.NewSearchUsecase(searchers, cache.New(cache.NewMemoryStore(), "search", time.Hour))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	t.Run("stock source wins on collision", func(t *testing.T) {
		t.Parallel()

		av := &fakeSearcher{id: "alphavantage", results: []entity.SearchResult{
			{Symbol: "COIN", Name: "Coinbase Global Inc", Class: entity.AssetStock, Source: "alphavantage"},
		}}
		cg := &fakeSearcher{id: "coingecko", results: []entity.SearchResult{
			{Symbol: "coin", Name: "Coin", Class: entity.AssetCrypto, Source: "coingecko"},
			{Symbol: "COINX", Name: "CoinX", Class: entity.AssetCrypto, Source: "coingecko"},
		}}

		got, err := newSearchUsecase(av, cg).Search(context.Background(), "coin")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "alphavantage", got[0].Source)
		assert.Equal(t, "COINX", got[1].Symbol)
	})

	t.Run("caps results", func(t *testing.T) {
		t.Parallel()

		many := make([]entity.SearchResult, 0, 30)
		for i := range 30 {
			many = append(many, entity.SearchResult{Symbol: fmt.Sprintf("S%02d", i), Source: "coingecko"})
		}
		got, err := newSearchUsecase(&fakeSearcher{id: "coingecko", results: many}).Search(context.Background(), "s")
		require.NoError(t, err)
		assert.Len(t, got, usecase.MaxSearchResults)
	})

	t.Run("one failing source is tolerated", func(t *testing.T) {
		t.Parallel()

		av := &fakeSearcher{id: "alphavantage", err: domain.NewProviderError("alphavantage", domain.ErrRateLimited, nil)}
		cg := &fakeSearcher{id: "coingecko", results: []entity.SearchResult{{Symbol: "BTC", Source: "coingecko"}}}
		got, err := newSearchUsecase(av, cg).Search(context.Background(), "btc")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("every source failing is an error", func(t *testing.T) {
		t.Parallel()

		av := &fakeSearcher{id: "alphavantage", err: errors.New("boom")}
		_, err := newSearchUsecase(av).Search(context.Background(), "btc")
		assert.ErrorIs(t, err, domain.ErrAllProvidersFailed)
	})

	t.Run("invalid query", func(t *testing.T) {
		t.Parallel()

		uc := newSearchUsecase()
		_, err := uc.Search(context.Background(), " ")
		assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
		_, err = uc.Search(context.Background(), strings.Repeat("a", 65))
		assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
	})
}
