// Package dto defines data transfer objects for the Alpha Vantage API responses.
package dto

import "encoding/json"

// Marker fields Alpha Vantage returns with HTTP 200 instead of data.
const (
	FieldNote         = "Note"
	FieldInformation  = "Information"
	FieldErrorMessage = "Error Message"
	FieldMetaData     = "Meta Data"
)

// Envelope is the top level of every /query response. Series keys vary per function,
// e.g. "Time Series (5min)", "Weekly Time Series" or "Time Series (Digital Currency Daily)".
type Envelope map[string]json.RawMessage

// Bar is one row of a keyed time series. Equity series use "1. open" and digital currency
// series used "1a. open (USD)" before the 2024 schema change, so lookups try both.
type Bar map[string]string

// Field returns the first present value among names.
func (b Bar) Field(names ...string) string {
	for _, n := range names {
		if v, ok := b[n]; ok {
			return v
		}
	}
	return ""
}

// GlobalQuoteResponse is the GLOBAL_QUOTE payload.
type GlobalQuoteResponse struct {
	Quote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		PreviousClose string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// Mover is one row of TOP_GAINERS_LOSERS.
type Mover struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

// TopMoversResponse is the TOP_GAINERS_LOSERS payload.
type TopMoversResponse struct {
	TopGainers         []Mover `json:"top_gainers"`
	TopLosers          []Mover `json:"top_losers"`
	MostActivelyTraded []Mover `json:"most_actively_traded"`
}

// SymbolSearchResponse is the SYMBOL_SEARCH payload.
type SymbolSearchResponse struct {
	BestMatches []struct {
		Symbol   string `json:"1. symbol"`
		Name     string `json:"2. name"`
		Type     string `json:"3. type"`
		Region   string `json:"4. region"`
		Currency string `json:"8. currency"`
	} `json:"bestMatches"`
}
