package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
)

// setupArchiveDB prepares an in-memory SQLite database for testing.
func setupArchiveDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	require.NoError(t, db.AutoMigrate(&CandleModel{}), "failed to migrate table")
	return db
}

func daily(start int64, closes ...float64) []entity.Candle {
	out := make([]entity.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, entity.Candle{Time: start + int64(i)*86_400, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100})
	}
	return out
}

func TestCandleArchive_UpsertChart(t *testing.T) {
	t.Parallel()

	const start = 1_704_067_200 // 2024-01-01

	tests := []struct {
		name      string
		setupFunc func(t *testing.T, a *candleArchive)
		chart     entity.Chart
		wantN     int
		wantRows  int64
		wantClose []float64
	}{
		{
			name:      "insert",
			chart:     entity.Chart{Symbol: "AAPL", Interval: "1d", Source: "alphavantage", Candles: daily(start, 10, 11, 12)},
			wantN:     3,
			wantRows:  3,
			wantClose: []float64{10, 11, 12},
		},
		{
			name:     "empty chart is a no-op",
			chart:    entity.Chart{Symbol: "AAPL", Interval: "1d"},
			wantRows: 0,
		},
		{
			name: "re-ingest overwrites instead of duplicating",
			setupFunc: func(t *testing.T, a *candleArchive) {
				_, err := a.UpsertChart(context.Background(), "AAPL", entity.Chart{Symbol: "AAPL", Interval: "1d", Source: "alphavantage", Candles: daily(start, 10, 11)})
				require.NoError(t, err)
			},
			chart:     entity.Chart{Symbol: "AAPL", Interval: "1d", Source: "alphavantage", Candles: daily(start+86_400, 20, 21)},
			wantN:     2,
			wantRows:  3,
			wantClose: []float64{10, 20, 21},
		},
		{
			name: "other timeframes are independent",
			setupFunc: func(t *testing.T, a *candleArchive) {
				_, err := a.UpsertChart(context.Background(), "AAPL", entity.Chart{Symbol: "AAPL", Interval: "1w", Source: "alphavantage", Candles: daily(start, 99)})
				require.NoError(t, err)
			},
			chart:     entity.Chart{Symbol: "AAPL", Interval: "1d", Source: "alphavantage", Candles: daily(start, 10)},
			wantN:     1,
			wantRows:  2,
			wantClose: []float64{10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupArchiveDB(t)
			a := NewCandleArchive(db)
			if tt.setupFunc != nil {
				tt.setupFunc(t, a)
			}

			n, err := a.UpsertChart(context.Background(), tt.chart.Symbol, tt.chart)
			require.NoError(t, err)
			assert.Equal(t, tt.wantN, n)

			var count int64
			require.NoError(t, db.Model(&CandleModel{}).Count(&count).Error)
			assert.Equal(t, tt.wantRows, count)

			got, err := a.Find(context.Background(), "AAPL", "1d", 0)
			require.NoError(t, err)
			closes := make([]float64, 0, len(got))
			for _, c := range got {
				closes = append(closes, c.Close)
			}
			if len(tt.wantClose) == 0 {
				assert.Empty(t, closes)
			} else {
				assert.Equal(t, tt.wantClose, closes)
			}
		})
	}
}

func TestCandleArchive_FindLimitKeepsNewestAscending(t *testing.T) {
	t.Parallel()

	const start = 1_704_067_200

	a := NewCandleArchive(setupArchiveDB(t))
	_, err := a.UpsertChart(context.Background(), "BTC", entity.Chart{Symbol: "BTC", Interval: "1d", Source: "coingecko", Candles: daily(start, 1, 2, 3, 4, 5)})
	require.NoError(t, err)

	got, err := a.Find(context.Background(), "BTC", "1d", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(start+3*86_400), got[0].Time)
	assert.Equal(t, 4.0, got[0].Close)
	assert.Equal(t, 5.0, got[1].Close)
}

// TestCandleArchive_SeriesKeyedByRequestedSymbol はネットワーク指定の有無で系列が分かれ、
// 同じ資産の別表記は同じ系列を読むことを検証します。
func TestCandleArchive_SeriesKeyedByRequestedSymbol(t *testing.T) {
	t.Parallel()

	const start = 1_704_067_200

	db := setupArchiveDB(t)
	a := NewCandleArchive(db)
	ctx := context.Background()

	_, err := a.UpsertChart(ctx, "PEPE", entity.Chart{Symbol: "PEPE", Interval: "1d", Source: "coingecko", Candles: daily(start, 1, 2)})
	require.NoError(t, err)
	_, err = a.UpsertChart(ctx, "PEPE:eth", entity.Chart{Symbol: "PEPE", Interval: "1d", Source: "geckoterminal-pool", Network: "eth", Candles: daily(start, 7, 8)})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&CandleModel{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)

	plain, err := a.Find(ctx, "pepe", "1d", 0)
	require.NoError(t, err)
	require.Len(t, plain, 2)
	assert.Equal(t, 2.0, plain[1].Close)

	pinned, err := a.Find(ctx, "PEPE:ethereum", "1d", 0)
	require.NoError(t, err)
	require.Len(t, pinned, 2)
	assert.Equal(t, 8.0, pinned[1].Close)

	var row CandleModel
	require.NoError(t, db.Where("series_key = ?", "crypto/PEPE@eth").First(&row).Error)
	assert.Equal(t, "PEPE", row.Symbol)
	assert.Equal(t, "eth", row.Network)
}

func TestCandleArchive_InvalidSymbol(t *testing.T) {
	t.Parallel()

	a := NewCandleArchive(setupArchiveDB(t))
	_, err := a.UpsertChart(context.Background(), "", entity.Chart{Interval: "1d", Candles: daily(1_704_067_200, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)

	_, err = a.Find(context.Background(), "", "1d", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
}
