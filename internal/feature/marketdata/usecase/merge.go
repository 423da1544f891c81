package usecase

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// stablecoins never appear in mover lists.
var stablecoins = map[string]struct{}{
	"USDT": {}, "USDC": {}, "BUSD": {}, "TUSD": {}, "DAI": {}, "FDUSD": {}, "USDE": {},
	"USDD": {}, "USDJ": {}, "GUSD": {}, "PYUSD": {}, "USDP": {}, "LUSD": {}, "SUSD": {},
}

// IsStablecoin reports whether symbol is a known USD stablecoin.
func IsStablecoin(symbol string) bool {
	_, ok := stablecoins[strings.ToUpper(symbol)]
	return ok
}

// Merge concatenates lists in priority order and keeps the first item per uppercased symbol.
// Stablecoins and items without a symbol are dropped.
func Merge(lists ...[]entity.MoverItem) []entity.MoverItem {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	seen := make(map[string]struct{}, n)
	out := make([]entity.MoverItem, 0, n)
	for _, l := range lists {
		for _, it := range l {
			key := strings.ToUpper(strings.TrimSpace(it.Symbol))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if IsStablecoin(key) {
				continue
			}
			out = append(out, it)
		}
	}
	return out
}

// SortMovers orders items by key in place. Ties keep their merged priority order.
func SortMovers(items []entity.MoverItem, key entity.SortKey) {
	var less func(a, b entity.MoverItem) int
	switch key {
	case entity.SortByGainers:
		less = func(a, b entity.MoverItem) int { return cmp.Compare(b.ChangePercent, a.ChangePercent) }
	case entity.SortByLosers:
		less = func(a, b entity.MoverItem) int { return cmp.Compare(a.ChangePercent, b.ChangePercent) }
	case entity.SortByVolume:
		less = func(a, b entity.MoverItem) int { return cmp.Compare(b.Volume, a.Volume) }
	case entity.SortByTVL, entity.SortByMarketCap:
		less = func(a, b entity.MoverItem) int { return cmp.Compare(b.MarketCapOrTVL, a.MarketCapOrTVL) }
	default:
		less = func(a, b entity.MoverItem) int {
			return cmp.Compare(math.Abs(b.ChangePercent), math.Abs(a.ChangePercent))
		}
	}
	slices.SortStableFunc(items, less)
}

// Stats summarizes items. TopGainer and TopLoser are nil when no item moved in that direction.
func Stats(items []entity.MoverItem) entity.HeatmapStats {
	var st entity.HeatmapStats
	if len(items) == 0 {
		return st
	}
	var sum float64
	for i := range items {
		it := items[i]
		sum += it.ChangePercent
		st.TotalVolume += it.Volume
		switch {
		case it.ChangePercent > 0:
			st.Gainers++
			if st.TopGainer == nil || it.ChangePercent > st.TopGainer.ChangePercent {
				st.TopGainer = &it
			}
		case it.ChangePercent < 0:
			st.Losers++
			if st.TopLoser == nil || it.ChangePercent < st.TopLoser.ChangePercent {
				st.TopLoser = &it
			}
		}
	}
	st.AvgChange = sum / float64(len(items))
	return st
}

// matches applies screener bounds. Zero bounds are ignored.
func matches(it entity.MoverItem, f entity.ScreenFilters) bool {
	switch {
	case f.MinPrice > 0 && it.Price < f.MinPrice,
		f.MaxPrice > 0 && it.Price > f.MaxPrice,
		f.MinVolume > 0 && it.Volume < f.MinVolume,
		f.MinMarketCap > 0 && it.MarketCapOrTVL < f.MinMarketCap,
		f.MaxMarketCap > 0 && it.MarketCapOrTVL > f.MaxMarketCap:
		return false
	}
	switch f.Direction {
	case entity.DirectionUp:
		return it.ChangePercent > 0
	case entity.DirectionDown:
		return it.ChangePercent < 0
	}
	return true
}
