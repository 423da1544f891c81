package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"market_backend/internal/app/di"
	"market_backend/internal/app/router"
	markethandler "market_backend/internal/feature/marketdata/transport/handler"
	watchhandler "market_backend/internal/feature/watchlist/transport/handler"
	"market_backend/internal/platform/config"
	"market_backend/internal/platform/http/handler"
	"market_backend/internal/platform/logging"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logging.Setup(os.Stdout, os.Getenv("LOG_LEVEL"))

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	market, err := di.NewMarket(ctx, cfg)
	if err != nil {
		return err
	}
	defer market.Close()

	checks := map[string]handler.Check{}
	if market.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return market.Redis.Ping(ctx).Err() }
	}

	// DBは任意。未設定の場合 /symbols は提供しない
	var symbolH *watchhandler.SymbolHandler
	if cfg.Database.Host != "" {
		gdb, err := di.NewDatabase(cfg)
		if err != nil {
			return err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		defer func() {
			if err := sqlDB.Close(); err != nil {
				slog.Error("failed to close database", "error", err)
			}
		}()
		checks["database"] = sqlDB.PingContext
		symbolH = watchhandler.NewSymbolHandler(di.NewWatchlist(gdb))
	} else {
		slog.Warn("database is not configured; /symbols is disabled")
	}

	r := router.NewRouter(markethandler.NewMarketHandler(market.Engine), symbolH, handler.NewHealthHandler(checks))
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
