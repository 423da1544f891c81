// Package pagination walks bounded upstream pages backward in time.
package pagination

import (
	"context"
	"log/slog"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// DefaultMaxPages caps a walk when the caller leaves MaxPages unset.
const DefaultMaxPages = 20

// PageFunc returns at most limit candles older than before (unix seconds). before == 0 means "latest".
type PageFunc func(ctx context.Context, before int64, limit int) ([]entity.Candle, error)

// Options bounds one backward walk.
type Options struct {
	PageSize int
	Target   int
	MaxPages int
}

// FetchBackward requests pages sequentially, using the oldest time of each page as the next cursor.
// It stops when Target candles are collected, a page is shorter than PageSize, or the cursor stalls.
// An error on the first page is returned; a later error ends the walk with what was collected.
// The result is in upstream order and still needs normalizing.
func FetchBackward(ctx context.Context, fetch PageFunc, opts Options) ([]entity.Candle, error) {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}

	var (
		all    []entity.Candle
		cursor int64
	)
	for page := 0; page < opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			if len(all) > 0 {
				return all, nil
			}
			return nil, err
		}

		batch, err := fetch(ctx, cursor, opts.PageSize)
		if err != nil {
			if len(all) == 0 {
				return nil, err
			}
			slog.WarnContext(ctx, "pagination stopped early", "page", page, "collected", len(all), "error", err)
			return all, nil
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)

		oldest := batch[0].Time
		for _, c := range batch[1:] {
			oldest = min(oldest, c.Time)
		}

		switch {
		case opts.Target > 0 && len(all) >= opts.Target:
			return all, nil
		case opts.PageSize > 0 && len(batch) < opts.PageSize:
			return all, nil
		case cursor != 0 && oldest >= cursor:
			slog.WarnContext(ctx, "pagination cursor did not advance", "cursor", cursor)
			return all, nil
		}
		cursor = oldest
	}
	return all, nil
}
