// Command marketctl queries the market data engine from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"market_backend/internal/app/di"
	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/domain/entity"
	watchentity "market_backend/internal/feature/watchlist/domain/entity"
	"market_backend/internal/platform/config"
	"market_backend/internal/platform/logging"
)

// engine is the subset of the market engine the CLI drives.
type engine interface {
	GetChart(ctx context.Context, symbol, interval string) (entity.Chart, error)
	GetQuote(ctx context.Context, symbol string) (entity.Quote, error)
	GetHeatmap(ctx context.Context, kind entity.HeatmapKind, p entity.HeatmapParams) (entity.Heatmap, error)
	Screen(ctx context.Context, class entity.AssetClass, f entity.ScreenFilters) ([]entity.MoverItem, error)
	Search(ctx context.Context, query string) ([]entity.SearchResult, error)
}

// watchlist is the subset of the watchlist usecase the watch commands use.
type watchlist interface {
	ListActiveSymbols(ctx context.Context, class string) ([]watchentity.Symbol, error)
	Track(ctx context.Context, code, name string, sortKey int) (watchentity.Symbol, error)
	Untrack(ctx context.Context, code string) error
}

// deps opens what a command needs lazily so that read-only commands never touch the database.
type deps struct {
	engine    func(ctx context.Context) (engine, error)
	ingest    func(ctx context.Context, symbols []string) (any, error)
	history   func(ctx context.Context, symbol, interval string, limit int) ([]entity.Candle, error)
	watchlist func(ctx context.Context) (watchlist, error)
}

func main() {
	_ = godotenv.Load(".env")
	logging.Setup(os.Stderr, envOr("LOG_LEVEL", "warn"))

	if err := newApp(os.Stdout, productionDeps()).Run(context.Background(), os.Args); err != nil {
		slog.Error("marketctl failed", "error", err)
		os.Exit(1)
	}
}

func productionDeps() deps {
	var market *di.Market
	loadConfig := config.LoadFromEnv
	openMarket := func(ctx context.Context) (*di.Market, *config.Config, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, nil, err
		}
		if market == nil {
			if market, err = di.NewMarket(ctx, cfg); err != nil {
				return nil, nil, err
			}
		}
		return market, cfg, nil
	}

	return deps{
		engine: func(ctx context.Context) (engine, error) {
			m, _, err := openMarket(ctx)
			if err != nil {
				return nil, err
			}
			return m.Engine, nil
		},
		ingest: func(ctx context.Context, symbols []string) (any, error) {
			m, cfg, err := openMarket(ctx)
			if err != nil {
				return nil, err
			}
			gdb, err := di.NewDatabase(cfg)
			if err != nil {
				return nil, err
			}
			job := di.NewIngest(cfg, gdb, m.Engine)
			if len(symbols) == 0 {
				return job.Run(ctx)
			}
			return job.IngestAll(ctx, symbols)
		},
		history: func(ctx context.Context, symbol, interval string, limit int) ([]entity.Candle, error) {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			gdb, err := di.NewDatabase(cfg)
			if err != nil {
				return nil, err
			}
			return adapters.NewCandleArchive(gdb).Find(ctx, symbol, interval, limit)
		},
		watchlist: func(context.Context) (watchlist, error) {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			gdb, err := di.NewDatabase(cfg)
			if err != nil {
				return nil, err
			}
			return di.NewWatchlist(gdb), nil
		},
	}
}

func newApp(out io.Writer, d deps) *cli.Command {
	emit := func(v any) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	withEngine := func(fn func(ctx context.Context, e engine, cmd *cli.Command) (any, error)) func(context.Context, *cli.Command) error {
		return func(ctx context.Context, cmd *cli.Command) error {
			e, err := d.engine(ctx)
			if err != nil {
				return err
			}
			v, err := fn(ctx, e, cmd)
			if err != nil {
				return err
			}
			return emit(v)
		}
	}

	withWatchlist := func(fn func(ctx context.Context, w watchlist, cmd *cli.Command) (any, error)) func(context.Context, *cli.Command) error {
		return func(ctx context.Context, cmd *cli.Command) error {
			w, err := d.watchlist(ctx)
			if err != nil {
				return err
			}
			v, err := fn(ctx, w, cmd)
			if err != nil {
				return err
			}
			return emit(v)
		}
	}

	return &cli.Command{
		Name:  "marketctl",
		Usage: "query charts, quotes and movers across market data providers",
		Commands: []*cli.Command{
			{
				Name:      "chart",
				Usage:     "print OHLCV candles",
				ArgsUsage: "<symbol>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Value: "1d", Usage: "1m,5m,15m,30m,1h,4h,1d,1w,1M or LIVE"},
				},
				Action: withEngine(func(ctx context.Context, e engine, cmd *cli.Command) (any, error) {
					sym, err := firstArg(cmd, "symbol")
					if err != nil {
						return nil, err
					}
					return e.GetChart(ctx, sym, cmd.String("interval"))
				}),
			},
			{
				Name:      "quote",
				Usage:     "print the latest price snapshot",
				ArgsUsage: "<symbol>",
				Action: withEngine(func(ctx context.Context, e engine, cmd *cli.Command) (any, error) {
					sym, err := firstArg(cmd, "symbol")
					if err != nil {
						return nil, err
					}
					return e.GetQuote(ctx, sym)
				}),
			},
			{
				Name:      "heatmap",
				Usage:     "print merged movers with stats",
				ArgsUsage: "<stocks|crypto|dex>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sort", Value: "change"},
					&cli.IntFlag{Name: "limit", Value: 20},
					&cli.StringFlag{Name: "network"},
				},
				Action: withEngine(func(ctx context.Context, e engine, cmd *cli.Command) (any, error) {
					raw, err := firstArg(cmd, "kind")
					if err != nil {
						return nil, err
					}
					kind, ok := entity.ParseHeatmapKind(raw)
					if !ok {
						return nil, fmt.Errorf("unknown heatmap kind %q", raw)
					}
					sortBy, ok := entity.ParseSortKey(cmd.String("sort"), entity.SortByChange)
					if !ok {
						return nil, fmt.Errorf("unknown sort key %q", cmd.String("sort"))
					}
					return e.GetHeatmap(ctx, kind, entity.HeatmapParams{
						SortBy: sortBy, Limit: int(cmd.Int("limit")), Network: cmd.String("network"),
					})
				}),
			},
			{
				Name:      "screen",
				Usage:     "filter movers by price, volume and market cap",
				ArgsUsage: "<stock|crypto|dex>",
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "min-price"},
					&cli.FloatFlag{Name: "max-price"},
					&cli.FloatFlag{Name: "min-volume"},
					&cli.FloatFlag{Name: "min-market-cap"},
					&cli.StringFlag{Name: "direction"},
					&cli.StringFlag{Name: "sort", Value: "change"},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: withEngine(func(ctx context.Context, e engine, cmd *cli.Command) (any, error) {
					raw, err := firstArg(cmd, "class")
					if err != nil {
						return nil, err
					}
					class := entity.AssetClass(strings.ToLower(raw))
					if class == "dex" {
						class = entity.AssetContract
					}
					dir, ok := entity.ParseDirection(cmd.String("direction"))
					if !ok {
						return nil, fmt.Errorf("unknown direction %q", cmd.String("direction"))
					}
					sortBy, ok := entity.ParseSortKey(cmd.String("sort"), entity.SortByChange)
					if !ok {
						return nil, fmt.Errorf("unknown sort key %q", cmd.String("sort"))
					}
					return e.Screen(ctx, class, entity.ScreenFilters{
						MinPrice:     cmd.Float("min-price"),
						MaxPrice:     cmd.Float("max-price"),
						MinVolume:    cmd.Float("min-volume"),
						MinMarketCap: cmd.Float("min-market-cap"),
						Direction:    dir,
						SortBy:       sortBy,
						Limit:        int(cmd.Int("limit")),
					})
				}),
			},
			{
				Name:      "search",
				Usage:     "look up symbols by name",
				ArgsUsage: "<query>",
				Action: withEngine(func(ctx context.Context, e engine, cmd *cli.Command) (any, error) {
					if cmd.NArg() == 0 {
						return nil, fmt.Errorf("missing <query>")
					}
					return e.Search(ctx, strings.Join(cmd.Args().Slice(), " "))
				}),
			},
			{
				Name:      "ingest",
				Usage:     "archive charts once for the watchlist or the given symbols",
				ArgsUsage: "[symbol...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					rep, err := d.ingest(ctx, cmd.Args().Slice())
					if err != nil {
						return err
					}
					return emit(rep)
				},
			},
			{
				Name:      "history",
				Usage:     "print archived candles",
				ArgsUsage: "<symbol>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Value: "1d"},
					&cli.IntFlag{Name: "limit", Value: 100},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					sym, err := firstArg(cmd, "symbol")
					if err != nil {
						return err
					}
					candles, err := d.history(ctx, sym, cmd.String("interval"), int(cmd.Int("limit")))
					if err != nil {
						return err
					}
					return emit(candles)
				},
			},
		},
	}
}

func firstArg(cmd *cli.Command, name string) (string, error) {
	if cmd.NArg() == 0 {
		return "", fmt.Errorf("missing <%s>", name)
	}
	return cmd.Args().First(), nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
