package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/binance/dto"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/ohlc"
	"market_backend/internal/feature/marketdata/pagination"
	"market_backend/internal/feature/marketdata/usecase"
	platformhttp "market_backend/internal/platform/http"
)

// ProviderID is the stable id used in sources and attempt logs.
const ProviderID = "binance"

const (
	quoteAsset = "USDT"
	// codeInvalidSymbol is returned with HTTP 400 for unknown pairs.
	codeInvalidSymbol = -1121
	// maxMovers caps the 24h ticker universe after sorting by quote volume.
	maxMovers = 100
)

var klineIntervals = map[string]string{
	"1m": "1m", "5m": "5m", "15m": "15m", "30m": "30m",
	"1h": "1h", "4h": "4h", "1d": "1d", "1w": "1w", "1M": "1M",
	entity.IntervalLive: "1m",
}

// leveraged tokens trade as separate pairs and distort movers.
var leveragedSuffixes = []string{"UP", "DOWN", "BULL", "BEAR"}

// Provider serves crypto candles, quotes and movers from USDT spot pairs.
type Provider struct {
	cfg  Config
	http platformhttp.HTTPClient
}

var (
	_ usecase.CandleProvider = (*Provider)(nil)
	_ usecase.QuoteProvider  = (*Provider)(nil)
	_ usecase.MoverSource    = (*Provider)(nil)
)

// NewProvider creates a Binance provider.
func NewProvider(cfg Config, client platformhttp.HTTPClient) *Provider {
	return &Provider{cfg: cfg.withDefaults(), http: client}
}

func (p *Provider) ID() string { return ProviderID }

// FetchCandles walks /api/v3/klines backward with an endTime cursor until the interval target is met.
func (p *Provider) FetchCandles(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.CandleSeries, error) {
	native, ok := klineIntervals[iv.Name]
	if !ok {
		return entity.CandleSeries{}, domain.NewProviderError(ProviderID, domain.ErrInvalidInterval, fmt.Errorf("interval %s", iv.Name))
	}
	pair, err := pairOf(asset)
	if err != nil {
		return entity.CandleSeries{}, err
	}

	page := func(ctx context.Context, before int64, limit int) ([]entity.Candle, error) {
		return p.klines(ctx, pair, native, before, limit)
	}
	raw, err := pagination.FetchBackward(ctx, page, pagination.Options{
		PageSize: p.cfg.PageSize,
		Target:   iv.Target,
		MaxPages: p.cfg.MaxPages,
	})
	if err != nil {
		return entity.CandleSeries{}, err
	}
	if len(raw) == 0 {
		return entity.CandleSeries{}, domain.NewProviderError(ProviderID, domain.ErrNotFound, fmt.Errorf("no klines for %s", pair))
	}
	return entity.CandleSeries{Candles: ohlc.Normalize(raw, 0)}, nil
}

func (p *Provider) klines(ctx context.Context, pair, interval string, before int64, limit int) ([]entity.Candle, error) {
	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	if before > 0 {
		// endTime is inclusive and in milliseconds
		q.Set("endTime", strconv.FormatInt(before*1000-1, 10))
	}

	var rows []dto.Kline
	if err := platformhttp.GetJSON(ctx, p.http, p.cfg.BaseURL+"/api/v3/klines?"+q.Encode(), nil, &rows); err != nil {
		return nil, p.wrap(err)
	}

	out := make([]entity.Candle, 0, len(rows))
	for _, row := range rows {
		c, err := toCandle(row)
		if err != nil {
			return nil, adapters.WrapError(ProviderID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func toCandle(row dto.Kline) (entity.Candle, error) {
	if len(row) < 6 {
		return entity.Candle{}, fmt.Errorf("kline has %d fields", len(row))
	}
	openTime, ok := row[0].(float64)
	if !ok {
		return entity.Candle{}, fmt.Errorf("kline open time %v", row[0])
	}
	var vals [5]float64
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i := range vals {
		s, ok := row[i+1].(string)
		if !ok {
			return entity.Candle{}, fmt.Errorf("kline %s %v", names[i], row[i+1])
		}
		v, err := adapters.ParseFloat(names[i], s)
		if err != nil {
			return entity.Candle{}, err
		}
		vals[i] = v
	}
	return entity.Candle{
		Time:   int64(openTime) / 1000,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// FetchQuote reads the 24h rolling ticker of the USDT pair.
func (p *Provider) FetchQuote(ctx context.Context, asset entity.AssetClassification) (entity.Quote, error) {
	pair, err := pairOf(asset)
	if err != nil {
		return entity.Quote{}, err
	}

	var t dto.Ticker24h
	u := p.cfg.BaseURL + "/api/v3/ticker/24hr?" + url.Values{"symbol": {pair}}.Encode()
	if err := platformhttp.GetJSON(ctx, p.http, u, nil, &t); err != nil {
		return entity.Quote{}, p.wrap(err)
	}

	q := entity.Quote{Symbol: asset.NormalizedSymbol, Source: ProviderID}
	fields := []struct {
		name string
		s    string
		dst  *float64
	}{
		{"lastPrice", t.LastPrice, &q.Price},
		{"priceChange", t.PriceChange, &q.Change},
		{"priceChangePercent", t.PriceChangePercent, &q.ChangePercent},
		{"quoteVolume", t.QuoteVolume, &q.Volume},
		{"prevClosePrice", t.PrevClosePrice, &q.PreviousClose},
	}
	for _, f := range fields {
		v, err := adapters.ParseFloat(f.name, f.s)
		if err != nil {
			return entity.Quote{}, adapters.WrapError(ProviderID, err)
		}
		*f.dst = v
	}
	return q, nil
}

// FetchMovers lists USDT spot pairs by 24h quote volume. Only the crypto heatmap uses it.
func (p *Provider) FetchMovers(ctx context.Context, kind entity.HeatmapKind, _ string) ([]entity.MoverItem, error) {
	if kind != entity.HeatmapCrypto {
		return nil, nil
	}

	var tickers []dto.Ticker24h
	if err := platformhttp.GetJSON(ctx, p.http, p.cfg.BaseURL+"/api/v3/ticker/24hr", nil, &tickers); err != nil {
		return nil, p.wrap(err)
	}

	out := make([]entity.MoverItem, 0, len(tickers))
	for _, t := range tickers {
		base, ok := strings.CutSuffix(t.Symbol, quoteAsset)
		if !ok || base == "" || isLeveraged(base) {
			continue
		}
		price, err1 := adapters.ParseFloat("lastPrice", t.LastPrice)
		pct, err2 := adapters.ParseFloat("priceChangePercent", t.PriceChangePercent)
		vol, err3 := adapters.ParseFloat("quoteVolume", t.QuoteVolume)
		if err := errors.Join(err1, err2, err3); err != nil || price <= 0 {
			continue
		}
		out = append(out, entity.MoverItem{
			Symbol:        base,
			Name:          base,
			Price:         price,
			ChangePercent: pct,
			Volume:        vol,
			Source:        ProviderID,
			Sector:        "crypto",
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume > out[j].Volume })
	if len(out) > maxMovers {
		out = out[:maxMovers]
	}
	return out, nil
}

// wrap maps Binance specific failures: -1121 is an unknown pair.
func (p *Provider) wrap(err error) error {
	var se *platformhttp.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest {
		var apiErr dto.APIError
		if json.Unmarshal([]byte(se.Body), &apiErr) == nil && apiErr.Code == codeInvalidSymbol {
			return domain.NewProviderError(ProviderID, domain.ErrNotFound, err)
		}
	}
	return adapters.WrapError(ProviderID, err)
}

func pairOf(asset entity.AssetClassification) (string, error) {
	if asset.Class != entity.AssetCrypto || asset.NormalizedSymbol == "" || asset.NormalizedSymbol == quoteAsset {
		return "", domain.NewProviderError(ProviderID, domain.ErrNotFound, fmt.Errorf("no %s pair for %s", quoteAsset, asset.Key()))
	}
	return asset.NormalizedSymbol + quoteAsset, nil
}

func isLeveraged(base string) bool {
	for _, s := range leveragedSuffixes {
		if len(base) >= len(s)+3 && strings.HasSuffix(base, s) {
			return true
		}
	}
	return false
}
