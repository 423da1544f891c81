// Package classifier decides the asset class and network hints of a raw user symbol.
package classifier

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
)

// MaxSymbolLength bounds raw input; longer strings are rejected before any pattern matching.
const MaxSymbolLength = 64

var (
	evmAddress    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	solanaAddress = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	allowedChars  = regexp.MustCompile(`^[A-Za-z0-9.\-_:/^=]+$`)
)

// quoteSuffixes are stripped from crypto pairs, longest first.
var quoteSuffixes = []string{"-USDT", "/USDT", "-USD", "/USD", "USDT"}

// knownCrypto is the allow-list of bare tickers treated as crypto rather than equities.
var knownCrypto = map[string]struct{}{
	"BTC": {}, "ETH": {}, "SOL": {}, "BNB": {}, "XRP": {}, "ADA": {}, "DOGE": {}, "AVAX": {},
	"DOT": {}, "MATIC": {}, "POL": {}, "LINK": {}, "LTC": {}, "TRX": {}, "SHIB": {}, "PEPE": {},
	"ARB": {}, "OP": {}, "SUI": {}, "APT": {}, "TON": {}, "NEAR": {}, "ATOM": {}, "UNI": {},
	"AAVE": {}, "BONK": {}, "WIF": {}, "XLM": {}, "BCH": {}, "FIL": {}, "INJ": {}, "TIA": {},
	"SEI": {}, "HYPE": {}, "ENA": {}, "USDT": {}, "USDC": {}, "DAI": {},
}

// networkAliases maps user spellings to GeckoTerminal network ids.
var networkAliases = map[string]string{
	"eth": "eth", "ethereum": "eth", "mainnet": "eth", "erc20": "eth",
	"base": "base",
	"bsc":  "bsc", "bnb": "bsc", "binance": "bsc", "bep20": "bsc",
	"arbitrum": "arbitrum", "arb": "arbitrum", "arbitrum-one": "arbitrum",
	"polygon": "polygon_pos", "matic": "polygon_pos", "polygon_pos": "polygon_pos",
	"optimism": "optimism", "op": "optimism",
	"avalanche": "avax", "avax": "avax",
	"solana": "solana", "sol": "solana",
}

// EVMNetworks is the ordered list of networks searched for an EVM contract without a hint.
var EVMNetworks = []string{"eth", "base", "bsc", "arbitrum", "polygon_pos", "optimism", "avax"}

// SolanaNetwork is the only network a Solana address can live on.
const SolanaNetwork = "solana"

// CandidateNetworks returns the networks to search for a contract, honoring an explicit hint.
func CandidateNetworks(a entity.AssetClassification) []string {
	switch {
	case a.Network != "":
		return []string{a.Network}
	case a.Chain == entity.ChainSolana:
		return []string{SolanaNetwork}
	default:
		return slices.Clone(EVMNetworks)
	}
}

// NormalizeNetwork maps a network spelling to its canonical id. Unknown names pass through lowercased.
func NormalizeNetwork(n string) string {
	n = strings.ToLower(strings.TrimSpace(n))
	if v, ok := networkAliases[n]; ok {
		return v
	}
	return n
}

// Classify applies the classification rules in order:
// EVM address, Solana address, explicit network, quote suffix or allow-list, stock.
func Classify(raw string) (entity.AssetClassification, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return entity.AssetClassification{}, fmt.Errorf("%w: empty", domain.ErrInvalidSymbol)
	}
	if len(s) > MaxSymbolLength {
		return entity.AssetClassification{}, fmt.Errorf("%w: longer than %d characters", domain.ErrInvalidSymbol, MaxSymbolLength)
	}
	if !allowedChars.MatchString(s) {
		return entity.AssetClassification{}, fmt.Errorf("%w: %q contains unsupported characters", domain.ErrInvalidSymbol, s)
	}

	if c, ok := classifyAddress(s, ""); ok {
		return c, nil
	}

	if i := strings.IndexByte(s, ':'); i >= 0 {
		base, network := s[:i], s[i+1:]
		if base == "" || network == "" || strings.ContainsRune(network, ':') {
			return entity.AssetClassification{}, fmt.Errorf("%w: %q is not SYMBOL:network", domain.ErrInvalidSymbol, s)
		}
		network = NormalizeNetwork(network)
		if c, ok := classifyAddress(base, network); ok {
			return c, nil
		}
		sym, _ := stripQuote(strings.ToUpper(base))
		return entity.AssetClassification{
			Class:            entity.AssetCrypto,
			NormalizedSymbol: sym,
			Network:          network,
		}, nil
	}

	u := strings.ToUpper(s)
	if sym, ok := stripQuote(u); ok {
		return entity.AssetClassification{Class: entity.AssetCrypto, NormalizedSymbol: sym}, nil
	}
	if _, ok := knownCrypto[u]; ok {
		return entity.AssetClassification{Class: entity.AssetCrypto, NormalizedSymbol: u}, nil
	}
	return entity.AssetClassification{Class: entity.AssetStock, NormalizedSymbol: u}, nil
}

func classifyAddress(s, network string) (entity.AssetClassification, bool) {
	switch {
	case evmAddress.MatchString(s):
		addr := strings.ToLower(s)
		return entity.AssetClassification{
			Class:            entity.AssetContract,
			NormalizedSymbol: addr,
			ContractAddress:  addr,
			Chain:            entity.ChainEVM,
			Network:          network,
		}, true
	case solanaAddress.MatchString(s):
		// base58 is case sensitive
		return entity.AssetClassification{
			Class:            entity.AssetContract,
			NormalizedSymbol: s,
			ContractAddress:  s,
			Chain:            entity.ChainSolana,
			Network:          network,
		}, true
	}
	return entity.AssetClassification{}, false
}

// stripQuote removes a USD/USDT quote suffix. A bare "USDT" stays as is.
func stripQuote(u string) (string, bool) {
	for _, suf := range quoteSuffixes {
		if strings.HasSuffix(u, suf) {
			base := strings.TrimSuffix(u, suf)
			if base == "" {
				return u, true
			}
			return base, true
		}
	}
	return u, false
}
