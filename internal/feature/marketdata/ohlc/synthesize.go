// Package ohlc builds, resamples and normalizes candle series.
package ohlc

import (
	"sort"
	"time"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// Point is one raw (timestamp, value) sample. Time is in unix milliseconds.
type Point struct {
	Time  int64
	Value float64
}

type bucket struct {
	start int64
	c     entity.Candle
}

// Synthesize buckets price points into candles of the given width.
//
// Points must be sorted ascending for open and close to be chronological:
// open is the first point seen in a bucket and close the last one processed.
// Each volume point covers (t-r, t] where r is the resolution of the volume series,
// and is split across the buckets it overlaps in proportion to the overlap.
func Synthesize(prices, volumes []Point, width time.Duration) []entity.Candle {
	w := width.Milliseconds()
	if len(prices) == 0 || w <= 0 {
		return []entity.Candle{}
	}

	buckets := make(map[int64]*bucket)
	for _, p := range prices {
		start := floorDiv(p.Time, w) * w
		b, ok := buckets[start]
		if !ok {
			buckets[start] = &bucket{start: start, c: entity.Candle{
				Time:  start / 1000,
				Open:  p.Value,
				High:  p.Value,
				Low:   p.Value,
				Close: p.Value,
			}}
			continue
		}
		b.c.High = max(b.c.High, p.Value)
		b.c.Low = min(b.c.Low, p.Value)
		b.c.Close = p.Value
	}

	distributeVolume(buckets, volumes, w)

	out := make([]entity.Candle, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func distributeVolume(buckets map[int64]*bucket, volumes []Point, w int64) {
	r := resolution(volumes)
	for _, v := range volumes {
		if v.Value <= 0 {
			continue
		}
		if r <= 0 {
			if b, ok := buckets[floorDiv(v.Time, w)*w]; ok {
				b.c.Volume += v.Value
			}
			continue
		}
		from, to := v.Time-r, v.Time
		for s := floorDiv(from, w) * w; s < to; s += w {
			overlap := min(s+w, to) - max(s, from)
			if overlap <= 0 {
				continue
			}
			if b, ok := buckets[s]; ok {
				b.c.Volume += v.Value * float64(overlap) / float64(r)
			}
		}
	}
}

// resolution is the smallest positive spacing between consecutive volume samples.
func resolution(points []Point) int64 {
	var r int64
	for i := 1; i < len(points); i++ {
		d := points[i].Time - points[i-1].Time
		if d < 0 {
			d = -d
		}
		if d > 0 && (r == 0 || d < r) {
			r = d
		}
	}
	return r
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
