// Package handler はwatchlistフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"market_backend/internal/feature/watchlist/domain/entity"
	"market_backend/internal/feature/watchlist/transport/http/dto"
)

// SymbolUsecase は監視銘柄に関するユースケースのインターフェースです。
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context, class string) ([]entity.Symbol, error)
}

// SymbolHandler は監視銘柄に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は有効な監視銘柄の一覧を返します。?class=stock|crypto|contract で絞り込めます。
// エラー時は500 Internal Server Errorを返します。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context(), c.Query("class"))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "list watchlist failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, dto.SymbolItem{Code: s.Code, Name: s.Name, Class: s.AssetClass})
	}
	c.JSON(http.StatusOK, out)
}
