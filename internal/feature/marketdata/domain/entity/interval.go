package entity

import (
	"strings"
	"time"
)

// IntervalClass splits intervals into the two groups provider chains care about.
type IntervalClass string

const (
	IntervalIntraday IntervalClass = "intraday"
	IntervalDaily    IntervalClass = "daily"
)

// Interval is a candle width plus the number of candles a chart targets by default.
type Interval struct {
	Name   string
	Width  time.Duration
	Target int
}

// IntervalLive is the pseudo interval used by live charts: one minute candles over the last hour.
const IntervalLive = "LIVE"

var intervals = map[string]Interval{
	"1m":         {Name: "1m", Width: time.Minute, Target: 240},
	"5m":         {Name: "5m", Width: 5 * time.Minute, Target: 288},
	"15m":        {Name: "15m", Width: 15 * time.Minute, Target: 192},
	"30m":        {Name: "30m", Width: 30 * time.Minute, Target: 192},
	"1h":         {Name: "1h", Width: time.Hour, Target: 168},
	"4h":         {Name: "4h", Width: 4 * time.Hour, Target: 180},
	"1d":         {Name: "1d", Width: 24 * time.Hour, Target: 365},
	"1w":         {Name: "1w", Width: 7 * 24 * time.Hour, Target: 260},
	"1M":         {Name: "1M", Width: 30 * 24 * time.Hour, Target: 120},
	IntervalLive: {Name: IntervalLive, Width: time.Minute, Target: 60},
}

// case-insensitive aliases; "1M" (month) is only reachable through its exact spelling or an alias.
var intervalAliases = map[string]string{
	"1min": "1m", "5min": "5m", "15min": "15m", "30min": "30m",
	"60m": "1h", "60min": "1h", "1hour": "1h", "4hour": "4h",
	"1day": "1d", "day": "1d", "daily": "1d", "1D": "1d",
	"1week": "1w", "week": "1w", "weekly": "1w", "1W": "1w",
	"1month": "1M", "1mo": "1M", "month": "1M", "monthly": "1M",
	"live": IntervalLive,
}

// ParseInterval resolves a user supplied interval name.
func ParseInterval(s string) (Interval, bool) {
	s = strings.TrimSpace(s)
	if iv, ok := intervals[s]; ok {
		return iv, true
	}
	if name, ok := intervalAliases[s]; ok {
		return intervals[name], true
	}
	if name, ok := intervalAliases[strings.ToLower(s)]; ok {
		return intervals[name], true
	}
	return Interval{}, false
}

// Intraday reports whether the interval is narrower than one day.
func (i Interval) Intraday() bool {
	return i.Width < 24*time.Hour
}

// Class returns the interval class used to select a provider chain.
func (i Interval) Class() IntervalClass {
	if i.Intraday() {
		return IntervalIntraday
	}
	return IntervalDaily
}

// Minutes returns the bucket width in minutes.
func (i Interval) Minutes() int {
	return int(i.Width / time.Minute)
}

// Seconds returns the bucket width in seconds.
func (i Interval) Seconds() int64 {
	return int64(i.Width / time.Second)
}

// Lookback is the time span covered by Target candles.
func (i Interval) Lookback() time.Duration {
	return time.Duration(i.Target) * i.Width
}
