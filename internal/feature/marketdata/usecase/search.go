package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"market_backend/internal/feature/marketdata/classifier"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/platform/cache"
)

// MaxSearchResults caps a merged search.
const MaxSearchResults = 20

// SearchUsecase merges symbol lookups from several searchers, stock source first.
type SearchUsecase struct {
	searchers []SymbolSearcher
	cache     *cache.TTLCache
}

// NewSearchUsecase wires searchers in priority order.
func NewSearchUsecase(searchers []SymbolSearcher, c *cache.TTLCache) *SearchUsecase {
	return &SearchUsecase{searchers: searchers, cache: c}
}

// Search returns at most MaxSearchResults hits for query, unique by uppercased symbol.
func (u *SearchUsecase) Search(ctx context.Context, query string) ([]entity.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" || len(q) > classifier.MaxSymbolLength {
		return nil, fmt.Errorf("%w: search query %q", domain.ErrInvalidSymbol, query)
	}
	res, _, err := cache.Fetch(ctx, u.cache, u.cache.Key(strings.ToLower(q)), func(ctx context.Context) ([]entity.SearchResult, error) {
		return u.collect(ctx, q)
	})
	return res, err
}

func (u *SearchUsecase) collect(ctx context.Context, q string) ([]entity.SearchResult, error) {
	lists := make([][]entity.SearchResult, len(u.searchers))
	errs := make([]error, len(u.searchers))

	// as in MoverUsecase.collect, errors are recorded per searcher and the group only joins
	var g errgroup.Group
	for i, s := range u.searchers {
		g.Go(func() error {
			res, err := s.Search(ctx, q)
			if err != nil {
				slog.WarnContext(ctx, "symbol search failed", "source", s.ID(), "query", q, "error", err)
				errs[i] = err
				return nil
			}
			lists[i] = res
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	attempts := make([]entity.ProviderAttempt, 0, len(errs))
	for i, err := range errs {
		a := entity.ProviderAttempt{ProviderID: u.searchers[i].ID(), Outcome: entity.OutcomeSuccess}
		if err != nil {
			failed++
			a.Outcome, a.ErrorKind, a.Error = entity.OutcomeError, domain.KindOf(err), err.Error()
		}
		attempts = append(attempts, a)
	}
	if len(u.searchers) > 0 && failed == len(u.searchers) {
		return nil, fmt.Errorf("search: %w", &domain.AllProvidersFailedError{Attempts: attempts})
	}

	seen := make(map[string]struct{})
	out := make([]entity.SearchResult, 0, MaxSearchResults)
	for _, l := range lists {
		for _, r := range l {
			key := strings.ToUpper(r.Symbol)
			if _, dup := seen[key]; dup || key == "" {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
			if len(out) == MaxSearchResults {
				return out, nil
			}
		}
	}
	return out, nil
}
