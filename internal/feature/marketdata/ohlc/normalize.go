package ohlc

import (
	"math"
	"sort"
	"time"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// Normalize enforces the series contract: finite positive prices, ascending unique times
// (last write wins on duplicates) and at most limit candles, keeping the newest. limit <= 0 keeps all.
func Normalize(candles []entity.Candle, limit int) []entity.Candle {
	out := make([]entity.Candle, 0, len(candles))
	for _, c := range candles {
		if !validPrice(c.Open) || !validPrice(c.High) || !validPrice(c.Low) || !validPrice(c.Close) {
			continue
		}
		if math.IsNaN(c.Volume) || math.IsInf(c.Volume, 0) || c.Volume < 0 {
			c.Volume = 0
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })

	// Stable sort keeps input order within a timestamp, so the last of each run wins.
	dedup := out[:0]
	for i, c := range out {
		if i+1 < len(out) && out[i+1].Time == c.Time {
			continue
		}
		dedup = append(dedup, c)
	}

	if limit > 0 && len(dedup) > limit {
		dedup = dedup[len(dedup)-limit:]
	}
	return dedup
}

// Resample merges sorted candles into wider buckets aligned to unix epoch multiples of width.
func Resample(candles []entity.Candle, width time.Duration) []entity.Candle {
	ws := int64(width / time.Second)
	if ws <= 0 || len(candles) == 0 {
		return candles
	}

	out := make([]entity.Candle, 0, len(candles))
	for _, c := range candles {
		start := floorDiv(c.Time, ws) * ws
		n := len(out)
		if n > 0 && out[n-1].Time == start {
			last := &out[n-1]
			last.High = max(last.High, c.High)
			last.Low = min(last.Low, c.Low)
			last.Close = c.Close
			last.Volume += c.Volume
			continue
		}
		c.Time = start
		out = append(out, c)
	}
	return out
}

// IsValid reports whether times are strictly increasing and every price is finite and positive.
func IsValid(candles []entity.Candle) bool {
	for i, c := range candles {
		if i > 0 && c.Time <= candles[i-1].Time {
			return false
		}
		if !validPrice(c.Open) || !validPrice(c.High) || !validPrice(c.Low) || !validPrice(c.Close) {
			return false
		}
	}
	return true
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
