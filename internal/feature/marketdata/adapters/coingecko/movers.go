package coingecko

import (
	"context"
	"net/url"
	"strings"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/coingecko/dto"
	"market_backend/internal/feature/marketdata/domain/entity"
)

const marketsPerPage = "100"

// FetchMovers lists the top coins by market cap. Only the crypto heatmap uses it.
func (p *Provider) FetchMovers(ctx context.Context, kind entity.HeatmapKind, _ string) ([]entity.MoverItem, error) {
	if kind != entity.HeatmapCrypto {
		return nil, nil
	}

	q := url.Values{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"per_page":                {marketsPerPage},
		"page":                    {"1"},
		"price_change_percentage": {"24h"},
	}
	var rows []dto.Market
	if err := p.c.get(ctx, "/coins/markets", q, &rows); err != nil {
		return nil, adapters.WrapError(ProviderID, err)
	}

	out := make([]entity.MoverItem, 0, len(rows))
	for _, m := range rows {
		if m.Symbol == "" || m.CurrentPrice <= 0 {
			continue
		}
		out = append(out, entity.MoverItem{
			Symbol:         strings.ToUpper(m.Symbol),
			Name:           m.Name,
			Price:          m.CurrentPrice,
			ChangePercent:  m.PriceChangePercentage24h,
			Volume:         m.TotalVolume,
			MarketCapOrTVL: m.MarketCap,
			Source:         ProviderID,
			Sector:         "crypto",
		})
	}
	return out, nil
}

// Search calls /search and returns coin hits in CoinGecko's relevance order.
func (p *Provider) Search(ctx context.Context, query string) ([]entity.SearchResult, error) {
	res, err := p.c.search(ctx, query)
	if err != nil {
		return nil, adapters.WrapError(ProviderID, err)
	}
	out := make([]entity.SearchResult, 0, len(res.Coins))
	for _, c := range res.Coins {
		out = append(out, entity.SearchResult{
			Symbol: strings.ToUpper(c.Symbol),
			Name:   c.Name,
			Class:  entity.AssetCrypto,
			Source: ProviderID,
		})
	}
	return out, nil
}
