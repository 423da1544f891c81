// Package adapters はwatchlistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market_backend/internal/feature/watchlist/domain"
	"market_backend/internal/feature/watchlist/domain/entity"
	"market_backend/internal/feature/watchlist/usecase"
)

// watchlistStore keeps tracked symbols in the watchlist_symbols table.
type watchlistStore struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*watchlistStore)(nil)

// NewSymbolRepository returns the gorm backed watchlist store.
func NewSymbolRepository(db *gorm.DB) *watchlistStore {
	return &watchlistStore{db: db}
}

// tracked scopes a query to active rows in display order, optionally one asset class.
func (s *watchlistStore) tracked(ctx context.Context, class string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&entity.Symbol{}).Where("is_active = ?", true)
	if class != "" {
		q = q.Where("asset_class = ?", class)
	}
	return q.Order("sort_key ASC").Order("code ASC")
}

// ListActive returns active symbols; an empty class means every class.
func (s *watchlistStore) ListActive(ctx context.Context, class string) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := s.tracked(ctx, class).Find(&symbols).Error; err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return symbols, nil
}

// ListActiveCodes は取り込みジョブ向けにアクティブな銘柄コードだけを返します。
func (s *watchlistStore) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.tracked(ctx, "").Pluck("code", &codes).Error; err != nil {
		return nil, fmt.Errorf("list watchlist codes: %w", err)
	}
	return codes, nil
}

// Track inserts sym or, when the code already exists, refreshes it and marks it active again.
func (s *watchlistStore) Track(ctx context.Context, sym entity.Symbol) (entity.Symbol, error) {
	sym.IsActive = true
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "asset_class", "is_active", "sort_key", "updated_at"}),
	}).Create(&sym).Error
	if err != nil {
		return entity.Symbol{}, fmt.Errorf("track %s: %w", sym.Code, err)
	}

	var stored entity.Symbol
	if err := s.db.WithContext(ctx).Where("code = ?", sym.Code).Take(&stored).Error; err != nil {
		return entity.Symbol{}, fmt.Errorf("reload %s: %w", sym.Code, err)
	}
	return stored, nil
}

// Untrack deactivates code. Rows are kept so archived candles keep their name.
func (s *watchlistStore) Untrack(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Model(&entity.Symbol{}).Where("code = ?", code).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("untrack %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("untrack %s: %w", code, domain.ErrNotTracked)
	}
	return nil
}
