package entity

import "strings"

// AssetClass is the coarse kind of instrument a raw symbol resolves to.
type AssetClass string

const (
	AssetStock    AssetClass = "stock"
	AssetCrypto   AssetClass = "crypto"
	AssetContract AssetClass = "contract"
)

// Chain is the address family of an on-chain contract.
type Chain string

const (
	ChainEVM    Chain = "evm"
	ChainSolana Chain = "solana"
)

// AssetClassification is produced once per request and never mutated afterwards.
type AssetClassification struct {
	Class            AssetClass
	NormalizedSymbol string
	Network          string // explicit venue hint, e.g. "eth" from "PEPE:ethereum"
	ContractAddress  string
	Chain            Chain
}

// HasNetworkHint reports whether the caller pinned a specific network.
func (a AssetClassification) HasNetworkHint() bool {
	return a.Network != ""
}

// Key returns a stable identity used in cache keys and logs.
func (a AssetClassification) Key() string {
	var b strings.Builder
	b.WriteString(string(a.Class))
	b.WriteByte('/')
	if a.Class == AssetContract {
		b.WriteString(string(a.Chain))
		b.WriteByte('/')
		b.WriteString(a.ContractAddress)
	} else {
		b.WriteString(a.NormalizedSymbol)
	}
	if a.Network != "" {
		b.WriteByte('@')
		b.WriteString(a.Network)
	}
	return b.String()
}
