package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// fakeUpstream serves candles at times 1..total, newest first, like most paged OHLCV endpoints.
type fakeUpstream struct {
	total   int64
	calls   int
	cursors []int64
}

func (f *fakeUpstream) page(_ context.Context, before int64, limit int) ([]entity.Candle, error) {
	f.calls++
	f.cursors = append(f.cursors, before)
	top := f.total
	if before != 0 {
		top = before - 1
	}
	var out []entity.Candle
	for t := top; t >= 1 && len(out) < limit; t-- {
		out = append(out, entity.Candle{Time: t, Open: 1, High: 1, Low: 1, Close: 1})
	}
	return out, nil
}

func TestFetchBackward(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		total     int64
		opts      Options
		wantLen   int
		wantCalls int
	}{
		{
			name:      "stops at target",
			total:     2500,
			opts:      Options{PageSize: 1000, Target: 1500},
			wantLen:   2000,
			wantCalls: 2,
		},
		{
			name:      "stops on short page",
			total:     1200,
			opts:      Options{PageSize: 1000, Target: 5000},
			wantLen:   1200,
			wantCalls: 2,
		},
		{
			name:      "stops on exhausted provider",
			total:     2000,
			opts:      Options{PageSize: 1000, Target: 5000},
			wantLen:   2000,
			wantCalls: 3,
		},
		{
			name:      "max pages caps the walk",
			total:     10_000,
			opts:      Options{PageSize: 100, Target: 5000, MaxPages: 3},
			wantLen:   300,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			up := &fakeUpstream{total: tt.total}
			got, err := FetchBackward(context.Background(), up.page, tt.opts)
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantCalls, up.calls)
			assert.Equal(t, int64(0), up.cursors[0])
		})
	}
}

func TestFetchBackward_CursorIsOldestOfPreviousPage(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{total: 250}
	_, err := FetchBackward(context.Background(), up.page, Options{PageSize: 100, Target: 1000})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 151, 51}, up.cursors)
}

func TestFetchBackward_StalledCursor(t *testing.T) {
	t.Parallel()

	calls := 0
	stuck := func(_ context.Context, _ int64, limit int) ([]entity.Candle, error) {
		calls++
		out := make([]entity.Candle, limit)
		for i := range out {
			out[i] = entity.Candle{Time: 500 + int64(i), Open: 1, High: 1, Low: 1, Close: 1}
		}
		return out, nil
	}

	got, err := FetchBackward(context.Background(), stuck, Options{PageSize: 10, Target: 1000})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, got, 20)
}

func TestFetchBackward_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	t.Run("first page error is returned", func(t *testing.T) {
		t.Parallel()
		_, err := FetchBackward(context.Background(), func(context.Context, int64, int) ([]entity.Candle, error) {
			return nil, boom
		}, Options{PageSize: 10, Target: 100})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("later page error keeps partial result", func(t *testing.T) {
		t.Parallel()
		up := &fakeUpstream{total: 1000}
		calls := 0
		fetch := func(ctx context.Context, before int64, limit int) ([]entity.Candle, error) {
			calls++
			if calls > 1 {
				return nil, boom
			}
			return up.page(ctx, before, limit)
		}
		got, err := FetchBackward(context.Background(), fetch, Options{PageSize: 10, Target: 100})
		require.NoError(t, err)
		assert.Len(t, got, 10)
	})
}
