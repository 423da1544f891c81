package alphavantage

import (
	"context"
	"net/url"

	"market_backend/internal/feature/marketdata/adapters/alphavantage/dto"
	"market_backend/internal/feature/marketdata/domain/entity"
)

// Search calls SYMBOL_SEARCH.
func (p *Provider) Search(ctx context.Context, query string) ([]entity.SearchResult, error) {
	q := url.Values{}
	q.Set("function", "SYMBOL_SEARCH")
	q.Set("keywords", query)

	body, err := p.c.query(ctx, ProviderID, q)
	if err != nil {
		return nil, err
	}
	var res dto.SymbolSearchResponse
	if err := decode(ProviderID, body, &res); err != nil {
		return nil, err
	}

	out := make([]entity.SearchResult, 0, len(res.BestMatches))
	for _, m := range res.BestMatches {
		if m.Symbol == "" {
			continue
		}
		out = append(out, entity.SearchResult{
			Symbol: m.Symbol,
			Name:   m.Name,
			Class:  entity.AssetStock,
			Region: m.Region,
			Source: ProviderID,
		})
	}
	return out, nil
}
