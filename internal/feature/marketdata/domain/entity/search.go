package entity

// SearchResult is one symbol lookup hit.
type SearchResult struct {
	Symbol string     `json:"symbol"`
	Name   string     `json:"name"`
	Class  AssetClass `json:"class"`
	Region string     `json:"region,omitempty"`
	Source string     `json:"source"`
}
