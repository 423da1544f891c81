package entity

// Quote is a point-in-time price snapshot.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        float64 `json:"volume"`
	PreviousClose float64 `json:"previousClose"`
	Source        string  `json:"source"`
	Network       string  `json:"network,omitempty"`
}
