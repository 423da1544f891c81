package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/transport/handler"
	"market_backend/internal/platform/requestid"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockEngine はMarketEngineインターフェースのモック実装です。
type mockEngine struct {
	GetChartFunc   func(ctx context.Context, symbol, interval string) (entity.Chart, error)
	GetQuoteFunc   func(ctx context.Context, symbol string) (entity.Quote, error)
	GetHeatmapFunc func(ctx context.Context, kind entity.HeatmapKind, p entity.HeatmapParams) (entity.Heatmap, error)
	ScreenFunc     func(ctx context.Context, class entity.AssetClass, f entity.ScreenFilters) ([]entity.MoverItem, error)
	SearchFunc     func(ctx context.Context, query string) ([]entity.SearchResult, error)
}

func (m *mockEngine) GetChart(ctx context.Context, symbol, interval string) (entity.Chart, error) {
	return m.GetChartFunc(ctx, symbol, interval)
}

func (m *mockEngine) GetQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	return m.GetQuoteFunc(ctx, symbol)
}

func (m *mockEngine) GetHeatmap(ctx context.Context, kind entity.HeatmapKind, p entity.HeatmapParams) (entity.Heatmap, error) {
	return m.GetHeatmapFunc(ctx, kind, p)
}

func (m *mockEngine) Screen(ctx context.Context, class entity.AssetClass, f entity.ScreenFilters) ([]entity.MoverItem, error) {
	return m.ScreenFunc(ctx, class, f)
}

func (m *mockEngine) Search(ctx context.Context, query string) ([]entity.SearchResult, error) {
	return m.SearchFunc(ctx, query)
}

func newRouter(e *mockEngine) *gin.Engine {
	h := handler.NewMarketHandler(e)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/chart/*symbol", h.GetChart)
	r.GET("/quote/*symbol", h.GetQuote)
	r.GET("/heatmap/:kind", h.GetHeatmap)
	r.GET("/screener/:class", h.Screen)
	r.GET("/search", h.Search)
	return r
}

func serve(r *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.Header.Set(requestid.Header, "req-1")
	r.ServeHTTP(w, req)
	return w
}

// TestMarketHandler_GetChart はチャートのレスポンス変換とエラー種別ごとのステータスを検証します。
func TestMarketHandler_GetChart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		url            string
		mock           func(ctx context.Context, symbol, interval string) (entity.Chart, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			url:  "/chart/BTC-USD?interval=1h",
			mock: func(_ context.Context, symbol, interval string) (entity.Chart, error) {
				assert.Equal(t, "BTC-USD", symbol)
				assert.Equal(t, "1h", interval)
				return entity.Chart{Symbol: "BTC", Interval: "1h", Source: "coingecko", Candles: []entity.Candle{
					{Time: 1_736_899_200, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
				}}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"symbol":"BTC","interval":"1h","source":"coingecko","candles":[{"time":1736899200,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10}]}`,
		},
		{
			name: "symbol with a slash",
			url:  "/chart/BTC/USDT",
			mock: func(_ context.Context, symbol, interval string) (entity.Chart, error) {
				assert.Equal(t, "BTC/USDT", symbol)
				assert.Empty(t, interval)
				return entity.Chart{Symbol: "BTC", Interval: "1d", Source: "coingecko", Candles: []entity.Candle{}}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"symbol":"BTC","interval":"1d","source":"coingecko","candles":[]}`,
		},
		{
			name: "invalid symbol",
			url:  "/chart/x",
			mock: func(context.Context, string, string) (entity.Chart, error) {
				return entity.Chart{}, fmt.Errorf("%w: empty", domain.ErrInvalidSymbol)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid symbol: empty","kind":"invalid_symbol","requestId":"req-1"}`,
		},
		{
			name: "not found",
			url:  "/chart/ZZZZ",
			mock: func(context.Context, string, string) (entity.Chart, error) {
				return entity.Chart{}, domain.NewProviderError("alphavantage", domain.ErrNotFound, nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"alphavantage: symbol not found","kind":"not_found","requestId":"req-1"}`,
		},
		{
			name: "rate limited",
			url:  "/chart/AAPL",
			mock: func(context.Context, string, string) (entity.Chart, error) {
				return entity.Chart{}, domain.NewProviderError("alphavantage", domain.ErrRateLimited, nil)
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `{"error":"alphavantage: upstream rate limited","kind":"rate_limited","requestId":"req-1"}`,
		},
		{
			name: "all providers failed carries attempts",
			url:  "/chart/ETH",
			mock: func(context.Context, string, string) (entity.Chart, error) {
				return entity.Chart{}, &domain.AllProvidersFailedError{Attempts: []entity.ProviderAttempt{
					{ProviderID: "coingecko", Outcome: entity.OutcomeError, ErrorKind: "rate_limited", Duration: 15 * time.Millisecond},
					{ProviderID: "binance", Outcome: entity.OutcomeError, ErrorKind: "upstream_unavailable", Duration: 2 * time.Millisecond},
				}}
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody: `{"error":"all providers failed: coingecko(rate_limited), binance(upstream_unavailable)","kind":"all_providers_failed","requestId":"req-1",
				"attempts":[{"provider":"coingecko","outcome":"error","errorKind":"rate_limited","durationMs":15},
				{"provider":"binance","outcome":"error","errorKind":"upstream_unavailable","durationMs":2}]}`,
		},
		{
			name: "unknown error is a bad gateway",
			url:  "/chart/AAPL",
			mock: func(context.Context, string, string) (entity.Chart, error) {
				return entity.Chart{}, errors.New("boom")
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"boom","kind":"upstream_unavailable","requestId":"req-1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(newRouter(&mockEngine{GetChartFunc: tt.mock}), tt.url)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, "req-1", w.Header().Get(requestid.Header))
		})
	}
}

func TestMarketHandler_GetQuote(t *testing.T) {
	t.Parallel()

	e := &mockEngine{GetQuoteFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
		assert.Equal(t, "AAPL", symbol)
		return entity.Quote{Symbol: "AAPL", Price: 150, Change: 1.5, ChangePercent: 1.01, Volume: 1000, PreviousClose: 148.5, Source: "alphavantage"}, nil
	}}
	w := serve(newRouter(e), "/quote/AAPL")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"symbol":"AAPL","price":150,"change":1.5,"changePercent":1.01,"volume":1000,"previousClose":148.5,"source":"alphavantage"}`, w.Body.String())
}

func TestMarketHandler_GetHeatmap(t *testing.T) {
	t.Parallel()

	t.Run("parses parameters", func(t *testing.T) {
		t.Parallel()

		btc := entity.MoverItem{Symbol: "BTC", Name: "Bitcoin", Price: 42_000, ChangePercent: 2, Volume: 10, MarketCapOrTVL: 8e11, Source: "coingecko"}
		e := &mockEngine{GetHeatmapFunc: func(_ context.Context, kind entity.HeatmapKind, p entity.HeatmapParams) (entity.Heatmap, error) {
			assert.Equal(t, entity.HeatmapDEX, kind)
			assert.Equal(t, entity.HeatmapParams{SortBy: entity.SortByVolume, Limit: 5, Network: "base"}, p)
			return entity.Heatmap{Kind: kind, Items: []entity.MoverItem{btc}, Stats: entity.HeatmapStats{Gainers: 1, AvgChange: 2, TopGainer: &btc, TotalVolume: 10}}, nil
		}}
		w := serve(newRouter(e), "/heatmap/DEX?sort=volume&limit=5&network=base")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"kind":"dex",
			"items":[{"symbol":"BTC","name":"Bitcoin","price":42000,"changePercent":2,"volume":10,"marketCapOrTVL":800000000000,"source":"coingecko","sector":""}],
			"stats":{"gainers":1,"losers":0,"avgChange":2,"topGainer":{"symbol":"BTC","name":"Bitcoin","price":42000,"changePercent":2,"volume":10,"marketCapOrTVL":800000000000,"source":"coingecko","sector":""},"topLoser":null,"totalVolume":10}}`,
			w.Body.String())
	})

	for _, url := range []string{"/heatmap/bonds", "/heatmap/crypto?sort=alpha", "/heatmap/crypto?limit=-1", "/heatmap/crypto?limit=x"} {
		t.Run("bad request "+url, func(t *testing.T) {
			t.Parallel()

			w := serve(newRouter(&mockEngine{}), url)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"kind":"invalid_parameter"`)
		})
	}
}

func TestMarketHandler_Screen(t *testing.T) {
	t.Parallel()

	e := &mockEngine{ScreenFunc: func(_ context.Context, class entity.AssetClass, f entity.ScreenFilters) ([]entity.MoverItem, error) {
		assert.Equal(t, entity.AssetContract, class)
		assert.Equal(t, entity.ScreenFilters{
			MinPrice: 0.5, MaxPrice: 10, MinVolume: 1000, MinMarketCap: 1e6, MaxMarketCap: 1e9,
			Direction: entity.DirectionUp, SortBy: entity.SortByGainers, Limit: 3, Network: "eth",
		}, f)
		return []entity.MoverItem{}, nil
	}}
	w := serve(newRouter(e), "/screener/dex?min_price=0.5&max_price=10&min_volume=1000&min_market_cap=1e6&max_market_cap=1e9&direction=up&sort=gainers&limit=3&network=eth")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = serve(newRouter(&mockEngine{}), "/screener/crypto?min_price=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(newRouter(&mockEngine{}), "/screener/crypto?direction=sideways")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarketHandler_Search(t *testing.T) {
	t.Parallel()

	e := &mockEngine{SearchFunc: func(_ context.Context, q string) ([]entity.SearchResult, error) {
		assert.Equal(t, "apple", q)
		return []entity.SearchResult{{Symbol: "AAPL", Name: "Apple Inc", Class: entity.AssetStock, Region: "United States", Source: "alphavantage"}}, nil
	}}
	w := serve(newRouter(e), "/search?q=apple")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"symbol":"AAPL","name":"Apple Inc","class":"stock","region":"United States","source":"alphavantage"}]`, w.Body.String())
}
