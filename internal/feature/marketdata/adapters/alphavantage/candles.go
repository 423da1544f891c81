package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/alphavantage/dto"
	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/ohlc"
	"market_backend/internal/feature/marketdata/usecase"
)

// Provider ids.
const (
	ProviderID            = "alphavantage"
	CryptoDailyProviderID = "alphavantage-crypto-daily"
)

// compactSize is how many rows outputsize=compact returns.
const compactSize = 100

// series describes the native call for one interval.
type series struct {
	function string
	interval string        // intraday granularity, empty for daily and longer
	resample time.Duration // non-zero when the native width is finer than requested
}

var stockSeries = map[string]series{
	"1m":                {function: "TIME_SERIES_INTRADAY", interval: "1min"},
	"5m":                {function: "TIME_SERIES_INTRADAY", interval: "5min"},
	"15m":               {function: "TIME_SERIES_INTRADAY", interval: "15min"},
	"30m":               {function: "TIME_SERIES_INTRADAY", interval: "30min"},
	"1h":                {function: "TIME_SERIES_INTRADAY", interval: "60min"},
	"4h":                {function: "TIME_SERIES_INTRADAY", interval: "60min", resample: 4 * time.Hour},
	"1d":                {function: "TIME_SERIES_DAILY"},
	"1w":                {function: "TIME_SERIES_WEEKLY"},
	"1M":                {function: "TIME_SERIES_MONTHLY"},
	entity.IntervalLive: {function: "TIME_SERIES_INTRADAY", interval: "1min"},
}

var cryptoSeries = map[string]series{
	"1d": {function: "DIGITAL_CURRENCY_DAILY"},
	"1w": {function: "DIGITAL_CURRENCY_WEEKLY"},
	"1M": {function: "DIGITAL_CURRENCY_MONTHLY"},
}

// Provider serves equities: candles, quotes, top movers and symbol search.
type Provider struct {
	c *Client
}

// NewProvider returns the equity provider.
func NewProvider(c *Client) *Provider { return &Provider{c: c} }

var (
	_ usecase.CandleProvider = (*Provider)(nil)
	_ usecase.QuoteProvider  = (*Provider)(nil)
	_ usecase.MoverSource    = (*Provider)(nil)
	_ usecase.SymbolSearcher = (*Provider)(nil)
)

func (p *Provider) ID() string { return ProviderID }

// FetchCandles maps the interval to a TIME_SERIES_* function and parses the keyed map.
func (p *Provider) FetchCandles(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.CandleSeries, error) {
	spec, ok := stockSeries[iv.Name]
	if !ok {
		return entity.CandleSeries{}, domain.NewProviderError(ProviderID, domain.ErrInvalidInterval, fmt.Errorf("interval %s", iv.Name))
	}

	q := url.Values{}
	q.Set("function", spec.function)
	q.Set("symbol", asset.NormalizedSymbol)
	if spec.interval != "" {
		q.Set("interval", spec.interval)
	}
	need := iv.Target
	if spec.resample > 0 {
		need *= int(spec.resample / time.Hour) // native width is 60min
	}
	if need > compactSize {
		q.Set("outputsize", "full")
	} else {
		q.Set("outputsize", "compact")
	}

	candles, err := p.c.timeSeries(ctx, ProviderID, q)
	if err != nil {
		return entity.CandleSeries{}, err
	}
	if spec.resample > 0 {
		candles = ohlc.Resample(candles, spec.resample)
	}
	return entity.CandleSeries{Candles: candles}, nil
}

// CryptoDaily serves daily and longer crypto candles from DIGITAL_CURRENCY_* series.
type CryptoDaily struct {
	c      *Client
	market string
}

// NewCryptoDaily returns the digital currency provider quoted in USD.
func NewCryptoDaily(c *Client) *CryptoDaily { return &CryptoDaily{c: c, market: "USD"} }

var _ usecase.CandleProvider = (*CryptoDaily)(nil)

func (p *CryptoDaily) ID() string { return CryptoDailyProviderID }

func (p *CryptoDaily) FetchCandles(ctx context.Context, asset entity.AssetClassification, iv entity.Interval) (entity.CandleSeries, error) {
	spec, ok := cryptoSeries[iv.Name]
	if !ok {
		return entity.CandleSeries{}, domain.NewProviderError(CryptoDailyProviderID, domain.ErrUpstreamUnavailable,
			fmt.Errorf("no digital currency series for %s", iv.Name))
	}

	q := url.Values{}
	q.Set("function", spec.function)
	q.Set("symbol", asset.NormalizedSymbol)
	q.Set("market", p.market)

	candles, err := p.c.timeSeries(ctx, CryptoDailyProviderID, q)
	if err != nil {
		return entity.CandleSeries{}, err
	}
	return entity.CandleSeries{Candles: candles}, nil
}

// timeSeries fetches and parses any keyed time series response.
func (c *Client) timeSeries(ctx context.Context, provider string, q url.Values) ([]entity.Candle, error) {
	body, err := c.query(ctx, provider, q)
	if err != nil {
		return nil, err
	}
	var env dto.Envelope
	if err := decode(provider, body, &env); err != nil {
		return nil, err
	}

	var seriesKey string
	for k := range env {
		if strings.Contains(k, "Time Series") {
			seriesKey = k
			break
		}
	}
	if seriesKey == "" {
		return nil, domain.NewProviderError(provider, domain.ErrNotFound, errors.New("response has no time series"))
	}

	var rows map[string]dto.Bar
	if err := json.Unmarshal(env[seriesKey], &rows); err != nil {
		return nil, adapters.WrapError(provider, fmt.Errorf("decode %s: %w", seriesKey, err))
	}

	loc := location(env)
	candles := make([]entity.Candle, 0, len(rows))
	for ts, bar := range rows {
		c, err := toCandle(ts, bar, loc)
		if err != nil {
			return nil, adapters.WrapError(provider, err)
		}
		candles = append(candles, c)
	}
	return ohlc.Normalize(candles, 0), nil
}

func toCandle(ts string, bar dto.Bar, loc *time.Location) (entity.Candle, error) {
	// タイムスタンプをパース
	tm, err := time.ParseInLocation("2006-01-02 15:04:05", ts, loc)
	if err != nil {
		tm, err = time.ParseInLocation("2006-01-02", ts, time.UTC)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse time %q: %w", ts, err)
		}
	}

	o, err := adapters.ParseFloat("open", bar.Field("1. open", "1a. open (USD)"))
	if err != nil {
		return entity.Candle{}, err
	}
	h, err := adapters.ParseFloat("high", bar.Field("2. high", "2a. high (USD)"))
	if err != nil {
		return entity.Candle{}, err
	}
	l, err := adapters.ParseFloat("low", bar.Field("3. low", "3a. low (USD)"))
	if err != nil {
		return entity.Candle{}, err
	}
	cl, err := adapters.ParseFloat("close", bar.Field("4. close", "4a. close (USD)"))
	if err != nil {
		return entity.Candle{}, err
	}
	v, err := adapters.ParseFloat("volume", bar.Field("5. volume", "6. volume"))
	if err != nil {
		return entity.Candle{}, err
	}
	return entity.Candle{Time: tm.Unix(), Open: o, High: h, Low: l, Close: cl, Volume: v}, nil
}

// location reads the "Time Zone" entry of the metadata block. Intraday rows are US/Eastern.
func location(env dto.Envelope) *time.Location {
	raw, ok := env[dto.FieldMetaData]
	if !ok {
		return time.UTC
	}
	var meta map[string]string
	if err := json.Unmarshal(raw, &meta); err != nil {
		return time.UTC
	}
	for k, v := range meta {
		if !strings.HasSuffix(k, "Time Zone") {
			continue
		}
		if loc, err := time.LoadLocation(v); err == nil {
			return loc
		}
	}
	return time.UTC
}
