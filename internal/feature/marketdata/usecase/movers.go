package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"market_backend/internal/feature/marketdata/classifier"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/platform/cache"
)

const (
	// DefaultListLimit is the heatmap and screener size when the caller asks for none.
	DefaultListLimit = 50
	// MaxListLimit caps every heatmap and screener.
	MaxListLimit = 250
)

// MoverUsecase builds heatmaps and screeners as the union of several mover sources.
type MoverUsecase struct {
	sources        map[entity.HeatmapKind][]MoverSource
	cache          *cache.TTLCache
	attemptTimeout time.Duration
}

// NewMoverUsecase wires sources per list kind. Each slice is in priority order.
func NewMoverUsecase(sources map[entity.HeatmapKind][]MoverSource, c *cache.TTLCache, attemptTimeout time.Duration) *MoverUsecase {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &MoverUsecase{sources: sources, cache: c, attemptTimeout: attemptTimeout}
}

// GetHeatmap returns the merged movers of kind, sorted and capped, with summary stats.
func (u *MoverUsecase) GetHeatmap(ctx context.Context, kind entity.HeatmapKind, p entity.HeatmapParams) (entity.Heatmap, error) {
	items, err := u.movers(ctx, kind, p.Network)
	if err != nil {
		return entity.Heatmap{}, err
	}
	SortMovers(items, p.SortBy)
	items = items[:min(len(items), clampLimit(p.Limit))]
	return entity.Heatmap{Kind: kind, Items: items, Stats: Stats(items)}, nil
}

// Screen filters the merged movers of an asset class. Contracts screen the DEX universe.
func (u *MoverUsecase) Screen(ctx context.Context, class entity.AssetClass, f entity.ScreenFilters) ([]entity.MoverItem, error) {
	var kind entity.HeatmapKind
	switch class {
	case entity.AssetStock:
		kind = entity.HeatmapStocks
	case entity.AssetCrypto:
		kind = entity.HeatmapCrypto
	case entity.AssetContract:
		kind = entity.HeatmapDEX
	default:
		return nil, fmt.Errorf("%w: asset class %q", domain.ErrInvalidParameter, class)
	}
	if f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return nil, fmt.Errorf("%w: min price above max price", domain.ErrInvalidParameter)
	}
	if f.MaxMarketCap > 0 && f.MinMarketCap > f.MaxMarketCap {
		return nil, fmt.Errorf("%w: min market cap above max market cap", domain.ErrInvalidParameter)
	}

	items, err := u.movers(ctx, kind, f.Network)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if matches(it, f) {
			out = append(out, it)
		}
	}
	SortMovers(out, f.SortBy)
	return out[:min(len(out), clampLimit(f.Limit))], nil
}

// movers returns a fresh copy of the cached merged list for (kind, network).
func (u *MoverUsecase) movers(ctx context.Context, kind entity.HeatmapKind, network string) ([]entity.MoverItem, error) {
	sources, ok := u.sources[kind]
	if !ok {
		return nil, fmt.Errorf("%w: list kind %q", domain.ErrInvalidParameter, kind)
	}
	network = classifier.NormalizeNetwork(network)

	key := u.cache.Key("movers", string(kind), network)
	items, _, err := cache.Fetch(ctx, u.cache, key, func(ctx context.Context) ([]entity.MoverItem, error) {
		return u.collect(ctx, sources, kind, network)
	})
	if err != nil {
		return nil, err
	}
	// callers sort and filter in place; a shared flight result must stay untouched
	return append([]entity.MoverItem(nil), items...), nil
}

// collect fans out to every source concurrently. A failing source contributes nothing;
// the list only fails when every source failed.
func (u *MoverUsecase) collect(ctx context.Context, sources []MoverSource, kind entity.HeatmapKind, network string) ([]entity.MoverItem, error) {
	lists := make([][]entity.MoverItem, len(sources))
	attempts := make([]entity.ProviderAttempt, len(sources))

	// Source errors stay in attempts and never reach the group: a failing source must not
	// cancel its siblings, so the group only joins the goroutines.
	var g errgroup.Group
	for i, s := range sources {
		g.Go(func() error {
			started := time.Now()
			sctx, cancel := context.WithTimeout(ctx, u.attemptTimeout)
			defer cancel()

			items, err := s.FetchMovers(sctx, kind, network)
			attempts[i] = entity.ProviderAttempt{ProviderID: s.ID(), StartedAt: started, Duration: time.Since(started)}
			if err != nil {
				attempts[i].Outcome = entity.OutcomeError
				attempts[i].ErrorKind = domain.KindOf(err)
				attempts[i].Error = err.Error()
				slog.WarnContext(ctx, "mover source failed", "source", s.ID(), "kind", kind, "network", network, "error", err)
				return nil
			}
			attempts[i].Outcome = entity.OutcomeSuccess
			lists[i] = items
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, a := range attempts {
		if a.Outcome == entity.OutcomeError {
			failed++
		}
	}
	if len(sources) > 0 && failed == len(sources) {
		return nil, fmt.Errorf("movers %s: %w", kind, &domain.AllProvidersFailedError{Attempts: attempts})
	}
	return Merge(lists...), nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return min(n, MaxListLimit)
}
