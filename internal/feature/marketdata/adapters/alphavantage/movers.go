package alphavantage

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/alphavantage/dto"
	"market_backend/internal/feature/marketdata/domain/entity"
)

// FetchMovers returns US equity gainers, losers and most active names. Other kinds yield nothing.
func (p *Provider) FetchMovers(ctx context.Context, kind entity.HeatmapKind, _ string) ([]entity.MoverItem, error) {
	if kind != entity.HeatmapStocks {
		return nil, nil
	}

	q := url.Values{}
	q.Set("function", "TOP_GAINERS_LOSERS")
	body, err := p.c.query(ctx, ProviderID, q)
	if err != nil {
		return nil, err
	}
	var res dto.TopMoversResponse
	if err := decode(ProviderID, body, &res); err != nil {
		return nil, err
	}

	groups := [][]dto.Mover{res.TopGainers, res.TopLosers, res.MostActivelyTraded}
	out := make([]entity.MoverItem, 0, len(res.TopGainers)+len(res.TopLosers)+len(res.MostActivelyTraded))
	for _, g := range groups {
		for _, m := range g {
			item, err := toMover(m)
			if err != nil {
				// 1行のパース失敗でリスト全体を落とさない
				slog.WarnContext(ctx, "skip malformed mover", "provider", ProviderID, "ticker", m.Ticker, "error", err)
				continue
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func toMover(m dto.Mover) (entity.MoverItem, error) {
	price, err := adapters.ParseFloat("price", m.Price)
	if err != nil {
		return entity.MoverItem{}, err
	}
	pct, err := adapters.ParsePercent("change_percentage", m.ChangePercentage)
	if err != nil {
		return entity.MoverItem{}, err
	}
	vol, err := adapters.ParseFloat("volume", m.Volume)
	if err != nil {
		return entity.MoverItem{}, err
	}
	sym := strings.ToUpper(m.Ticker)
	return entity.MoverItem{
		Symbol:        sym,
		Name:          sym,
		Price:         price,
		ChangePercent: pct,
		Volume:        vol,
		Source:        ProviderID,
		Sector:        "equity",
	}, nil
}
