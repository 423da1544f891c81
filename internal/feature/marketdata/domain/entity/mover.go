package entity

import "strings"

// MoverItem is one row of a heatmap or screener. Identity for dedup is the uppercased symbol.
type MoverItem struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	ChangePercent  float64 `json:"changePercent"`
	Volume         float64 `json:"volume"`
	MarketCapOrTVL float64 `json:"marketCapOrTVL"`
	Source         string  `json:"source"`
	Sector         string  `json:"sector"`
}

// HeatmapKind selects the mover universe of a heatmap.
type HeatmapKind string

const (
	HeatmapStocks HeatmapKind = "stocks"
	HeatmapCrypto HeatmapKind = "crypto"
	HeatmapDEX    HeatmapKind = "dex"
)

// SortKey orders merged mover lists.
type SortKey string

const (
	SortByChange    SortKey = "change" // absolute change, largest first
	SortByGainers   SortKey = "gainers"
	SortByLosers    SortKey = "losers"
	SortByVolume    SortKey = "volume"
	SortByTVL       SortKey = "tvl"
	SortByMarketCap SortKey = "marketcap"
)

// Direction filters movers by the sign of their change.
type Direction string

const (
	DirectionAny  Direction = ""
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// HeatmapParams are the caller options of GetHeatmap.
type HeatmapParams struct {
	SortBy  SortKey
	Limit   int
	Network string // dex only
}

// ScreenFilters are the caller options of Screen. Zero values mean "no bound".
type ScreenFilters struct {
	MinPrice     float64
	MaxPrice     float64
	MinVolume    float64
	MinMarketCap float64
	MaxMarketCap float64
	Direction    Direction
	SortBy       SortKey
	Limit        int
	Network      string
}

// HeatmapStats summarizes a heatmap item list.
type HeatmapStats struct {
	Gainers     int        `json:"gainers"`
	Losers      int        `json:"losers"`
	AvgChange   float64    `json:"avgChange"`
	TopGainer   *MoverItem `json:"topGainer,omitempty"`
	TopLoser    *MoverItem `json:"topLoser,omitempty"`
	TotalVolume float64    `json:"totalVolume"`
}

// Heatmap is the payload returned by GetHeatmap.
type Heatmap struct {
	Kind  HeatmapKind  `json:"kind"`
	Items []MoverItem  `json:"items"`
	Stats HeatmapStats `json:"stats"`
}

// ParseHeatmapKind resolves a list kind; "" is not accepted.
func ParseHeatmapKind(s string) (HeatmapKind, bool) {
	switch k := HeatmapKind(strings.ToLower(strings.TrimSpace(s))); k {
	case HeatmapStocks, HeatmapCrypto, HeatmapDEX:
		return k, true
	}
	return "", false
}

// ParseSortKey resolves a sort key. An empty string yields def.
func ParseSortKey(s string, def SortKey) (SortKey, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, true
	}
	switch k := SortKey(s); k {
	case SortByChange, SortByGainers, SortByLosers, SortByVolume, SortByTVL, SortByMarketCap:
		return k, true
	}
	if s == "market_cap" {
		return SortByMarketCap, true
	}
	return "", false
}

// ParseDirection resolves a change direction; "" and "any" mean no constraint.
func ParseDirection(s string) (Direction, bool) {
	switch d := strings.ToLower(strings.TrimSpace(s)); d {
	case "", "any", "all":
		return DirectionAny, true
	case "up", "gainers":
		return DirectionUp, true
	case "down", "losers":
		return DirectionDown, true
	}
	return "", false
}
