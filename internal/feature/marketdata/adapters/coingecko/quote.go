package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/coingecko/dto"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
)

// SimplePrices reads /simple/price for a comma-joined id list.
func (c *Client) SimplePrices(ctx context.Context, ids []string) (map[string]dto.SimplePrice, error) {
	q := url.Values{
		"ids":                 {strings.Join(ids, ",")},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
		"include_24hr_vol":    {"true"},
	}
	out := map[string]dto.SimplePrice{}
	if err := c.get(ctx, "/simple/price", q, &out); err != nil {
		return nil, adapters.WrapError(ProviderID, err)
	}
	return out, nil
}

// FetchQuote derives change and previous close from the 24h change percentage.
func (p *Provider) FetchQuote(ctx context.Context, asset entity.AssetClassification) (entity.Quote, error) {
	id, err := p.c.resolveID(ctx, ProviderID, asset.NormalizedSymbol)
	if err != nil {
		return entity.Quote{}, err
	}
	prices, err := p.c.SimplePrices(ctx, []string{id})
	if err != nil {
		return entity.Quote{}, err
	}
	sp, ok := prices[id]
	if !ok || sp.USD <= 0 {
		return entity.Quote{}, domain.NewProviderError(ProviderID, domain.ErrNotFound, fmt.Errorf("no price for %s", id))
	}

	prev := sp.USD
	if sp.USD24hChange > -100 {
		prev = sp.USD / (1 + sp.USD24hChange/100)
	}
	return entity.Quote{
		Symbol:        asset.NormalizedSymbol,
		Price:         sp.USD,
		Change:        sp.USD - prev,
		ChangePercent: sp.USD24hChange,
		Volume:        sp.USD24hVol,
		PreviousClose: prev,
		Source:        ProviderID,
	}, nil
}
