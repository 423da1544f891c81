package alphavantage

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/alphavantage/dto"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
)

// FetchQuote reads GLOBAL_QUOTE. An empty "Global Quote" object means the symbol is unknown.
func (p *Provider) FetchQuote(ctx context.Context, asset entity.AssetClassification) (entity.Quote, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", asset.NormalizedSymbol)

	body, err := p.c.query(ctx, ProviderID, q)
	if err != nil {
		return entity.Quote{}, err
	}
	var res dto.GlobalQuoteResponse
	if err := decode(ProviderID, body, &res); err != nil {
		return entity.Quote{}, err
	}
	gq := res.Quote
	if gq.Symbol == "" || gq.Price == "" {
		return entity.Quote{}, domain.NewProviderError(ProviderID, domain.ErrNotFound, errors.New("empty global quote"))
	}

	out := entity.Quote{Symbol: strings.ToUpper(gq.Symbol), Source: ProviderID}
	var perr error
	parse := func(field, s string, dst *float64) {
		if perr != nil {
			return
		}
		*dst, perr = adapters.ParseFloat(field, s)
	}
	parse("price", gq.Price, &out.Price)
	parse("change", gq.Change, &out.Change)
	parse("volume", gq.Volume, &out.Volume)
	parse("previous close", gq.PreviousClose, &out.PreviousClose)
	if perr == nil {
		out.ChangePercent, perr = adapters.ParsePercent("change percent", gq.ChangePercent)
	}
	if perr != nil {
		return entity.Quote{}, adapters.WrapError(ProviderID, perr)
	}
	return out, nil
}
