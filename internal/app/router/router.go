// Package router wires HTTP routes onto gin.
package router

import (
	"github.com/gin-gonic/gin"

	markethandler "market_backend/internal/feature/marketdata/transport/handler"
	watchhandler "market_backend/internal/feature/watchlist/transport/handler"
	"market_backend/internal/platform/http/handler"
	"market_backend/internal/platform/requestid"
)

// NewRouter registers every route. symbols may be nil when no database is configured,
// in which case /symbols is not served.
func NewRouter(market *markethandler.MarketHandler, symbols *watchhandler.SymbolHandler, health *handler.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestid.Middleware())

	// 導通確認用
	r.GET("/healthz", health.Live)
	r.HEAD("/healthz", health.Live)
	r.GET("/readyz", health.Ready)

	// マーケットデータ（シンボルはスラッシュを含むことがあるためワイルドカード）
	r.GET("/chart/*symbol", market.GetChart)
	r.GET("/quote/*symbol", market.GetQuote)
	r.GET("/heatmap/:kind", market.GetHeatmap)
	r.GET("/screener/:class", market.Screen)
	r.GET("/search", market.Search)

	if symbols != nil {
		r.GET("/symbols", symbols.List)
	}
	return r
}
