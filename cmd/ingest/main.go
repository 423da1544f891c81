package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"market_backend/internal/app/di"
	"market_backend/internal/platform/config"
	"market_backend/internal/platform/logging"
	"market_backend/internal/platform/scheduler"
)

const jobName = "candle-archive"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logging.Setup(os.Stdout, os.Getenv("LOG_LEVEL"))

	if err := run(); err != nil {
		slog.Error("ingest exited", "error", err)
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

	gdb, err := di.NewDatabase(cfg)
	if err != nil {
		return err
	}
	ingest := di.NewIngest(cfg, gdb, market.Engine)

	job := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
		defer cancel()
		_, err := ingest.Run(ctx)
		return err
	}

	// INGEST_ONCE=true は1回だけ実行して終了します（Cloud Run Jobs などの外部スケジューラ向け）
	if os.Getenv("INGEST_ONCE") == "true" {
		return job(ctx)
	}

	s := scheduler.New(ctx)
	if err := s.Register(jobName, cfg.Ingest.Cron, job); err != nil {
		return err
	}
	if cfg.Ingest.RunOnStart {
		if err := s.RunNow(jobName); err != nil {
			return err
		}
	}
	s.Start()
	slog.Info("ingest scheduled", "cron", cfg.Ingest.Cron, "intervals", cfg.Ingest.Intervals)

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.Stop(stopCtx)
	return nil
}
