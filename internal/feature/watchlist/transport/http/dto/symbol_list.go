// Package dto defines data transfer objects for the watchlist HTTP API.
package dto

// SymbolItem is one GET /symbols row.
type SymbolItem struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Class string `json:"class"`
}
