package adapters

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market_backend/internal/feature/marketdata/classifier"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/usecase"
)

// candleArchive はCandleArchiveインターフェースのgorm実装です。
type candleArchive struct {
	db *gorm.DB
}

var _ usecase.CandleArchive = (*candleArchive)(nil)

// NewCandleArchive は指定されたDB接続でローソク足アーカイブを生成します。
func NewCandleArchive(db *gorm.DB) *candleArchive {
	return &candleArchive{db: db}
}

// CandleModel is one archived candle. (series_key, timeframe, time) is unique so re-ingesting a series
// overwrites rather than duplicates. "interval" is a reserved word in postgres, hence timeframe.
//
// SeriesKey is the classified identity of the requested symbol ("crypto/PEPE@eth"), so a
// network pinned request and an unpinned one never share rows. Symbol is the display symbol.
type CandleModel struct {
	ID        uint   `gorm:"primaryKey"`
	SeriesKey string `gorm:"size:192;not null;uniqueIndex:market_candle_key_tf_time,priority:1"`
	Timeframe string `gorm:"size:16;not null;uniqueIndex:market_candle_key_tf_time,priority:2"`
	Time      int64  `gorm:"not null;uniqueIndex:market_candle_key_tf_time,priority:3"`
	Symbol    string `gorm:"size:128;not null;index"`
	Network   string `gorm:"size:32"`
	Source    string `gorm:"size:64;not null"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume float64 `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "market_candles"
}

// seriesKey maps a requested symbol to the identity its candles are archived under.
func seriesKey(symbol string) (string, error) {
	asset, err := classifier.Classify(symbol)
	if err != nil {
		return "", err
	}
	return asset.Key(), nil
}

// UpsertChart は requested の銘柄として1本のチャートを一括でアップサートし、書き込んだ件数を返します。
func (r *candleArchive) UpsertChart(ctx context.Context, requested string, chart entity.Chart) (int, error) {
	if len(chart.Candles) == 0 {
		return 0, nil
	}
	key, err := seriesKey(requested)
	if err != nil {
		return 0, fmt.Errorf("upsert %s: %w", requested, err)
	}
	ms := make([]CandleModel, 0, len(chart.Candles))
	for _, c := range chart.Candles {
		ms = append(ms, CandleModel{
			SeriesKey: key,
			Timeframe: chart.Interval,
			Time:      c.Time,
			Symbol:    chart.Symbol,
			Network:   chart.Network,
			Source:    chart.Source,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "series_key"}, {Name: "timeframe"}, {Name: "time"}},
		DoUpdates: clause.AssignmentColumns([]string{"symbol", "network", "source", "open", "high", "low", "close", "volume"}),
	}).CreateInBatches(&ms, 500).Error
	if err != nil {
		return 0, fmt.Errorf("upsert %s %s: %w", key, chart.Interval, err)
	}
	return len(ms), nil
}

// Find returns the newest limit candles of a series in ascending time order. limit <= 0 returns all.
// symbol is resolved the same way ingest resolves it, so "BTC-USD" and "btc" read one series.
func (r *candleArchive) Find(ctx context.Context, symbol, interval string, limit int) ([]entity.Candle, error) {
	key, err := seriesKey(symbol)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", symbol, err)
	}
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where("series_key = ? AND timeframe = ?", key, interval).
		Order("time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find %s %s: %w", symbol, interval, err)
	}

	out := make([]entity.Candle, len(rows))
	for i, m := range rows {
		out[len(rows)-1-i] = entity.Candle{
			Time: m.Time, Open: m.Open, High: m.High, Low: m.Low, Close: m.Close, Volume: m.Volume,
		}
	}
	return out, nil
}
