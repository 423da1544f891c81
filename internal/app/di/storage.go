package di

import (
	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/usecase"
	watchadapters "market_backend/internal/feature/watchlist/adapters"
	watchentity "market_backend/internal/feature/watchlist/domain/entity"
	watchusecase "market_backend/internal/feature/watchlist/usecase"
	"market_backend/internal/platform/config"
	"market_backend/internal/platform/db"
	"market_backend/internal/shared/ratelimiter"

	"gorm.io/gorm"
)

// NewDatabase opens postgres and migrates the archive and watchlist tables when enabled.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	return db.Open(cfg.Database, &adapters.CandleModel{}, &watchentity.Symbol{})
}

// NewWatchlist creates the watchlist usecase over gorm.
func NewWatchlist(gdb *gorm.DB) *watchusecase.SymbolUsecase {
	return watchusecase.NewSymbolUsecase(watchadapters.NewSymbolRepository(gdb))
}

// NewIngest wires the archive job: watchlist codes in, engine charts through, archive upserts out.
func NewIngest(cfg *config.Config, gdb *gorm.DB, charts usecase.ChartReader) *usecase.IngestUsecase {
	rl := ratelimiter.NewRateLimiter(cfg.Ingest.RateLimit, cfg.Ingest.RateWindow)
	return usecase.NewIngestUsecase(NewWatchlist(gdb), charts, adapters.NewCandleArchive(gdb), rl, cfg.Ingest.Intervals)
}
