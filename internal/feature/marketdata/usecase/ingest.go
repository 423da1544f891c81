package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/shared/ratelimiter"
)

// DefaultIngestIntervals are archived when no interval list is configured.
var DefaultIngestIntervals = []string{"1d", "1w", "1M"}

// WatchlistReader lists the symbols the archive tracks.
type WatchlistReader interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// ChartReader is the engine read path reused by ingest.
type ChartReader interface {
	GetChart(ctx context.Context, symbol, interval string) (entity.Chart, error)
}

// CandleArchive persists charts idempotently, keyed by the symbol as it was requested.
type CandleArchive interface {
	UpsertChart(ctx context.Context, requested string, chart entity.Chart) (int, error)
}

// IngestReport summarizes one ingest run.
type IngestReport struct {
	Series  int `json:"series"`
	Candles int `json:"candles"`
	Failed  int `json:"failed"`
}

// IngestUsecase は追跡中の銘柄のチャートを取得し、アーカイブに永続化するユースケースを定義します。
type IngestUsecase struct {
	watchlist   WatchlistReader
	charts      ChartReader
	archive     CandleArchive
	rateLimiter ratelimiter.RateLimiterInterface
	intervals   []string
}

// NewIngestUsecase は新しい IngestUsecase を作成します。intervals が空の場合は既定値を使います。
func NewIngestUsecase(watchlist WatchlistReader, charts ChartReader, archive CandleArchive, rl ratelimiter.RateLimiterInterface, intervals []string) *IngestUsecase {
	if len(intervals) == 0 {
		intervals = DefaultIngestIntervals
	}
	return &IngestUsecase{watchlist: watchlist, charts: charts, archive: archive, rateLimiter: rl, intervals: intervals}
}

// Run archives every active watchlist symbol.
func (iu *IngestUsecase) Run(ctx context.Context) (IngestReport, error) {
	symbols, err := iu.watchlist.ListActiveCodes(ctx)
	if err != nil {
		return IngestReport{}, fmt.Errorf("list watchlist: %w", err)
	}
	return iu.IngestAll(ctx, symbols)
}

// IngestAll は指定された全銘柄を設定された時間足で取得し、アーカイブに保存します。
// 1銘柄の失敗はログに出力して次へ進みます。ctx が終了した場合のみエラーを返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string) (IngestReport, error) {
	var rep IngestReport
	for _, s := range symbols {
		for _, interval := range iu.intervals {
			if err := iu.rateLimiter.WaitIfNeeded(ctx); err != nil {
				return rep, err
			}
			n, err := iu.ingestOne(ctx, s, interval)
			if err != nil {
				slog.ErrorContext(ctx, "failed to ingest chart", "symbol", s, "interval", interval, "error", err)
				rep.Failed++
				continue
			}
			rep.Series++
			rep.Candles += n
		}
	}
	slog.InfoContext(ctx, "ingest finished", "symbols", len(symbols), "series", rep.Series, "candles", rep.Candles, "failed", rep.Failed)
	return rep, nil
}

func (iu *IngestUsecase) ingestOne(ctx context.Context, symbol, interval string) (int, error) {
	chart, err := iu.charts.GetChart(ctx, symbol, interval)
	if err != nil {
		return 0, err
	}
	return iu.archive.UpsertChart(ctx, symbol, chart)
}
