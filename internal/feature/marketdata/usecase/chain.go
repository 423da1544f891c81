package usecase

import (
	"slices"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// HintMatch constrains a rule on whether the caller pinned a network.
type HintMatch int

const (
	HintAny HintMatch = iota
	HintRequired
	HintAbsent
)

// ChainRule adds one provider to a fallback chain when its predicate matches.
// Ordering is data: rules are evaluated in table order and each matching rule
// appends its provider unless it is already in the chain.
type ChainRule struct {
	Provider string
	Classes  []entity.AssetClass
	Interval entity.IntervalClass // "" matches both classes
	Hint     HintMatch
}

func (r ChainRule) matches(asset entity.AssetClassification, class entity.IntervalClass) bool {
	if !slices.Contains(r.Classes, asset.Class) {
		return false
	}
	if r.Interval != "" && class != "" && r.Interval != class {
		return false
	}
	switch r.Hint {
	case HintRequired:
		return asset.HasNetworkHint()
	case HintAbsent:
		return !asset.HasNetworkHint()
	}
	return true
}

var (
	crypto   = []entity.AssetClass{entity.AssetCrypto}
	contract = []entity.AssetClass{entity.AssetContract}
	stock    = []entity.AssetClass{entity.AssetStock}
)

// DefaultChartRules is the chart fallback order.
// An explicit network hint moves the DEX pool provider ahead of everything else.
var DefaultChartRules = []ChainRule{
	{Provider: "geckoterminal-pool", Classes: crypto, Hint: HintRequired},
	{Provider: "geckoterminal-contract", Classes: contract},
	{Provider: "coingecko-contract", Classes: contract},
	{Provider: "coingecko", Classes: crypto},
	{Provider: "geckoterminal-pool", Classes: crypto, Hint: HintAbsent},
	{Provider: "binance", Classes: crypto, Interval: entity.IntervalIntraday},
	{Provider: "alphavantage-crypto-daily", Classes: crypto, Interval: entity.IntervalDaily},
	{Provider: "alphavantage", Classes: stock},
}

// DefaultQuoteRules is the quote fallback order.
var DefaultQuoteRules = []ChainRule{
	{Provider: "geckoterminal-pool", Classes: crypto, Hint: HintRequired},
	{Provider: "geckoterminal-contract", Classes: contract},
	{Provider: "coingecko", Classes: crypto},
	{Provider: "binance", Classes: crypto},
	{Provider: "alphavantage", Classes: stock},
}

// Plan returns the ordered provider ids for one request. class may be "" for quotes.
// maxLen <= 0 means unlimited.
func Plan(rules []ChainRule, asset entity.AssetClassification, class entity.IntervalClass, maxLen int) []string {
	var ids []string
	for _, r := range rules {
		if !r.matches(asset, class) || slices.Contains(ids, r.Provider) {
			continue
		}
		ids = append(ids, r.Provider)
		if maxLen > 0 && len(ids) == maxLen {
			break
		}
	}
	return ids
}
