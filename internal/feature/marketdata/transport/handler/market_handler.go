// Package handler はmarketdataフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/transport/http/dto"
	"market_backend/internal/platform/requestid"
)

// MarketEngine はマーケットデータ集約エンジンのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MarketEngine interface {
	GetChart(ctx context.Context, symbol, interval string) (entity.Chart, error)
	GetQuote(ctx context.Context, symbol string) (entity.Quote, error)
	GetHeatmap(ctx context.Context, kind entity.HeatmapKind, p entity.HeatmapParams) (entity.Heatmap, error)
	Screen(ctx context.Context, class entity.AssetClass, f entity.ScreenFilters) ([]entity.MoverItem, error)
	Search(ctx context.Context, query string) ([]entity.SearchResult, error)
}

// MarketHandler はマーケットデータのHTTPリクエストを処理します。
type MarketHandler struct {
	engine MarketEngine
}

// NewMarketHandler は新しい MarketHandler を作成します。
func NewMarketHandler(engine MarketEngine) *MarketHandler {
	return &MarketHandler{engine: engine}
}

// GetChart は銘柄・暗号資産・コントラクトのローソク足を返します。
//
// エンドポイント例:
// GET /chart/BTC-USD?interval=1h
// GET /chart/BTC/USDT?interval=LIVE
func (h *MarketHandler) GetChart(c *gin.Context) {
	symbol := strings.TrimPrefix(c.Param("symbol"), "/")
	chart, err := h.engine.GetChart(c.Request.Context(), symbol, c.Query("interval"))
	if err != nil {
		h.fail(c, err)
		return
	}

	out := dto.ChartResponse{
		Symbol:   chart.Symbol,
		Interval: chart.Interval,
		Source:   chart.Source,
		Network:  chart.Network,
		Pool:     chart.Pool,
		Candles:  make([]dto.CandleResponse, 0, len(chart.Candles)),
	}
	for _, x := range chart.Candles {
		out.Candles = append(out.Candles, dto.CandleResponse{
			Time: x.Time, Open: x.Open, High: x.High, Low: x.Low, Close: x.Close, Volume: x.Volume,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetQuote は最新の価格スナップショットを返します。
//
// GET /quote/AAPL
func (h *MarketHandler) GetQuote(c *gin.Context) {
	symbol := strings.TrimPrefix(c.Param("symbol"), "/")
	q, err := h.engine.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QuoteResponse{
		Symbol:        q.Symbol,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Volume:        q.Volume,
		PreviousClose: q.PreviousClose,
		Source:        q.Source,
		Network:       q.Network,
	})
}

// GetHeatmap は複数ソースを統合した値動きの一覧と統計を返します。
//
// GET /heatmap/crypto?sort=volume&limit=50
// GET /heatmap/dex?network=base
func (h *MarketHandler) GetHeatmap(c *gin.Context) {
	kind, ok := entity.ParseHeatmapKind(c.Param("kind"))
	if !ok {
		h.fail(c, fmt.Errorf("%w: heatmap kind %q", domain.ErrInvalidParameter, c.Param("kind")))
		return
	}
	sortBy, ok := entity.ParseSortKey(c.Query("sort"), entity.SortByChange)
	if !ok {
		h.fail(c, fmt.Errorf("%w: sort %q", domain.ErrInvalidParameter, c.Query("sort")))
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}

	hm, err := h.engine.GetHeatmap(c.Request.Context(), kind, entity.HeatmapParams{
		SortBy:  sortBy,
		Limit:   limit,
		Network: c.Query("network"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HeatmapResponse{
		Kind:  string(hm.Kind),
		Items: toMovers(hm.Items),
		Stats: dto.StatsResponse{
			Gainers:     hm.Stats.Gainers,
			Losers:      hm.Stats.Losers,
			AvgChange:   hm.Stats.AvgChange,
			TopGainer:   toMoverPtr(hm.Stats.TopGainer),
			TopLoser:    toMoverPtr(hm.Stats.TopLoser),
			TotalVolume: hm.Stats.TotalVolume,
		},
	})
}

// Screen はフィルター条件に一致する銘柄を返します。
//
// GET /screener/crypto?min_price=1&min_volume=1000000&direction=up&sort=gainers
func (h *MarketHandler) Screen(c *gin.Context) {
	class := entity.AssetClass(strings.ToLower(c.Param("class")))
	if class == "dex" {
		class = entity.AssetContract
	}

	var f entity.ScreenFilters
	var err error
	for _, b := range []struct {
		name string
		dst  *float64
	}{
		{"min_price", &f.MinPrice},
		{"max_price", &f.MaxPrice},
		{"min_volume", &f.MinVolume},
		{"min_market_cap", &f.MinMarketCap},
		{"max_market_cap", &f.MaxMarketCap},
	} {
		if *b.dst, err = floatQuery(c, b.name); err != nil {
			h.fail(c, err)
			return
		}
	}
	var ok bool
	if f.Direction, ok = entity.ParseDirection(c.Query("direction")); !ok {
		h.fail(c, fmt.Errorf("%w: direction %q", domain.ErrInvalidParameter, c.Query("direction")))
		return
	}
	if f.SortBy, ok = entity.ParseSortKey(c.Query("sort"), entity.SortByChange); !ok {
		h.fail(c, fmt.Errorf("%w: sort %q", domain.ErrInvalidParameter, c.Query("sort")))
		return
	}
	if f.Limit, err = intQuery(c, "limit"); err != nil {
		h.fail(c, err)
		return
	}
	f.Network = c.Query("network")

	items, err := h.engine.Screen(c.Request.Context(), class, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMovers(items))
}

// Search はシンボル検索の結果を返します。
//
// GET /search?q=apple
func (h *MarketHandler) Search(c *gin.Context) {
	res, err := h.engine.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]dto.SearchResultResponse, 0, len(res))
	for _, r := range res {
		out = append(out, dto.SearchResultResponse{
			Symbol: r.Symbol, Name: r.Name, Class: string(r.Class), Region: r.Region, Source: r.Source,
		})
	}
	c.JSON(http.StatusOK, out)
}

// fail はエラー種別をHTTPステータスに変換してレスポンスを返します。
func (h *MarketHandler) fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(err)
	body := dto.ErrorResponse{
		Error:     err.Error(),
		Kind:      kind,
		RequestID: requestid.FromContext(c.Request.Context()),
	}
	var apf *domain.AllProvidersFailedError
	if errors.As(err, &apf) {
		for _, a := range apf.Attempts {
			body.Attempts = append(body.Attempts, dto.AttemptResponse{
				Provider:   a.ProviderID,
				Outcome:    string(a.Outcome),
				ErrorKind:  a.ErrorKind,
				DurationMs: a.Duration.Milliseconds(),
			})
		}
	}
	if status >= http.StatusInternalServerError {
		slog.WarnContext(c.Request.Context(), "market request failed",
			"path", c.FullPath(), "status", status, "kind", kind, "request_id", body.RequestID, "error", err)
	}
	c.JSON(status, body)
}

// StatusFor maps an engine error to its HTTP status. Unknown errors are upstream failures.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol),
		errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrAllProvidersFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func intQuery(c *gin.Context, name string) (int, error) {
	s := c.Query(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidParameter, name)
	}
	return n, nil
}

func floatQuery(c *gin.Context, name string) (float64, error) {
	s := c.Query(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidParameter, name)
	}
	return v, nil
}

func toMovers(items []entity.MoverItem) []dto.MoverResponse {
	out := make([]dto.MoverResponse, 0, len(items))
	for i := range items {
		out = append(out, *toMoverPtr(&items[i]))
	}
	return out
}

func toMoverPtr(m *entity.MoverItem) *dto.MoverResponse {
	if m == nil {
		return nil
	}
	return &dto.MoverResponse{
		Symbol:         m.Symbol,
		Name:           m.Name,
		Price:          m.Price,
		ChangePercent:  m.ChangePercent,
		Volume:         m.Volume,
		MarketCapOrTVL: m.MarketCapOrTVL,
		Source:         m.Source,
		Sector:         m.Sector,
	}
}
