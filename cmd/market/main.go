// Command market is the thin CLI front end over the core market-data
// engine: symbol introspection, import/export, aggregation, data-quality
// reporting, and driving a SessionCoordinator run for backtest or live
// streaming. Business logic lives in internal/facade and
// internal/sessioncoordinator; this package only translates flags into
// calls against that public API and renders the result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-trading/internal/columnarstore"
	"github.com/rxtech-lab/argo-trading/internal/facade"
	"github.com/rxtech-lab/argo-trading/internal/facade/provider"
	"github.com/rxtech-lab/argo-trading/internal/indicator"
	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/sessioncoordinator"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
	"github.com/rxtech-lab/argo-trading/internal/types"
)

// deleteConfirmToken mirrors columnarstore's unexported confirmation
// token; the CLI surfaces it as the value callers must pass to --confirm
// so deletion can never happen by an accidental bare flag.
const deleteConfirmToken = "CONFIRM_DELETE"

func main() {
	log, err := logger.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}

	cmd := &cli.Command{
		Name:  "market",
		Usage: "market data engine: ingest, store, inspect, and replay bars/ticks/quotes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "ColumnarStore root directory", Value: "./data"},
			&cli.StringFlag{Name: "exchange-group", Aliases: []string{"g"}, Usage: "exchange group (e.g. NASDAQ)", Value: "NASDAQ"},
			&cli.StringFlag{Name: "asset-class", Aliases: []string{"a"}, Usage: "asset class (e.g. equity)", Value: "equity"},
			&cli.StringFlag{Name: "calendar", Aliases: []string{"c"}, Usage: "market-hours/holiday calendar YAML", Value: "./calendar.yaml"},
		},
		Commands: []*cli.Command{
			symbolsCommand(log),
			importCommand(log),
			exportCommand(log),
			aggregateCommand(log),
			backtestCommand(log),
			streamCommand(log),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStore(cmd *cli.Command, log *logger.Logger) (*columnarstore.Store, error) {
	return columnarstore.New(cmd.String("data"), log)
}

func openTimeService(cmd *cli.Command, mode timeservice.Mode, log *logger.Logger) (*timeservice.Service, error) {
	hours, holidays, err := timeservice.LoadConfig(cmd.String("calendar"))
	if err != nil {
		return nil, err
	}

	return timeservice.New(mode, hours, holidays, cmd.String("exchange-group"), cmd.String("asset-class"), log)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func symbolsCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "symbols",
		Usage: "inspect and manage stored symbols",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list available symbols for an interval",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore(cmd, log)
					if err != nil {
						return err
					}
					defer store.Close()

					interval, err := facade.NormalizeInterval(cmd.String("interval"))
					if err != nil {
						return err
					}

					symbols, err := store.AvailableSymbols(cmd.String("exchange-group"), interval)
					if err != nil {
						return err
					}

					return printJSON(symbols)
				},
			},
			{
				Name:  "info",
				Usage: "show available intervals and date range for a symbol",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore(cmd, log)
					if err != nil {
						return err
					}
					defer store.Close()

					symbol := cmd.String("symbol")

					intervals, err := store.AvailableIntervals(cmd.String("exchange-group"), symbol)
					if err != nil {
						return err
					}

					type intervalRange struct {
						Interval types.Interval `json:"interval"`
						Earliest time.Time      `json:"earliest"`
						Latest   time.Time      `json:"latest"`
						HasData  bool           `json:"has_data"`
					}

					out := struct {
						Symbol    string          `json:"symbol"`
						Intervals []intervalRange `json:"intervals"`
					}{Symbol: symbol}

					for _, iv := range intervals {
						earliest, latest, ok := store.DateRange(cmd.String("exchange-group"), iv, symbol)
						out.Intervals = append(out.Intervals, intervalRange{Interval: iv, Earliest: earliest, Latest: latest, HasData: ok})
					}

					return printJSON(out)
				},
			},
			{
				Name:  "quality",
				Usage: "report expected/observed/gap breakdown for a symbol+interval over a date range",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
					&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Required: true},
					&cli.TimestampFlag{Name: "start", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
					&cli.TimestampFlag{Name: "end", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore(cmd, log)
					if err != nil {
						return err
					}
					defer store.Close()

					ts, err := openTimeService(cmd, timeservice.ModeBacktest, log)
					if err != nil {
						return err
					}

					mkt := facade.New(store, ts, cmd.String("exchange-group"), cmd.String("asset-class"), nil, "", log)

					interval, err := facade.NormalizeInterval(cmd.String("interval"))
					if err != nil {
						return err
					}

					report, err := mkt.CheckDataQuality(cmd.String("symbol"), interval, cmd.Timestamp("start"), cmd.Timestamp("end"))
					if err != nil {
						return err
					}

					return printJSON(report)
				},
			},
			{
				Name:  "delete",
				Usage: "delete a symbol's bar history; requires --confirm=" + deleteConfirmToken,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
					&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Usage: "restrict to one interval; omit to delete all intervals"},
					&cli.TimestampFlag{Name: "start", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}},
					&cli.TimestampFlag{Name: "end", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}},
					&cli.StringFlag{Name: "confirm", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore(cmd, log)
					if err != nil {
						return err
					}
					defer store.Close()

					var interval *types.Interval

					if raw := cmd.String("interval"); raw != "" {
						iv, err := facade.NormalizeInterval(raw)
						if err != nil {
							return err
						}

						interval = &iv
					}

					var start, end *time.Time

					if cmd.IsSet("start") {
						t := cmd.Timestamp("start")
						start = &t
					}

					if cmd.IsSet("end") {
						t := cmd.Timestamp("end")
						end = &t
					}

					return store.DeleteSymbol(cmd.String("exchange-group"), cmd.String("symbol"), interval, start, end, cmd.String("confirm"))
				},
			},
			{
				Name:  "delete-all",
				Usage: "delete every symbol's history for the exchange group; requires --confirm=" + deleteConfirmToken,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "confirm", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore(cmd, log)
					if err != nil {
						return err
					}
					defer store.Close()

					return store.DeleteAll(cmd.String("exchange-group"), cmd.String("confirm"))
				},
			},
		},
	}
}

func importCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "import bars from a CSV file or a configured provider's API",
		Commands: []*cli.Command{
			{
				Name:  "csv",
				Usage: "import bars from a local CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Required: true},
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
					&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Required: true},
					&cli.BoolFlag{Name: "progress", Value: true},
					&cli.StringFlag{Name: "compression", Value: string(columnarstore.CompressionZSTD), Usage: "zstd, snappy, gzip, or uncompressed"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore(cmd, log)
					if err != nil {
						return err
					}
					defer store.Close()

					ts, err := openTimeService(cmd, timeservice.ModeBacktest, log)
					if err != nil {
						return err
					}

					mkt := facade.New(store, ts, cmd.String("exchange-group"), cmd.String("asset-class"), nil, "", log)

					interval, err := facade.NormalizeInterval(cmd.String("interval"))
					if err != nil {
						return err
					}

					opts := facade.CSVImportOptions{
						ShowProgress: cmd.Bool("progress"),
						Compression:  columnarstore.Compression(strings.ToUpper(cmd.String("compression"))),
					}

					rows, err := mkt.ImportCSV(cmd.String("path"), cmd.String("symbol"), interval, opts)
					if err != nil {
						return err
					}

					fmt.Printf("imported %d rows\n", rows)

					return nil
				},
			},
			{
				Name:  "api",
				Usage: "import bars/ticks/quotes from a configured provider",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Required: true, Usage: "polygon or binance"},
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
					&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Value: "1m"},
					&cli.StringFlag{Name: "type", Value: "bars", Usage: "bars, ticks, or quotes"},
					&cli.TimestampFlag{Name: "start", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
					&cli.TimestampFlag{Name: "end", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
					&cli.StringFlag{Name: "compression", Value: string(columnarstore.CompressionZSTD), Usage: "zstd, snappy, gzip, or uncompressed"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore(cmd, log)
					if err != nil {
						return err
					}
					defer store.Close()

					ts, err := openTimeService(cmd, timeservice.ModeBacktest, log)
					if err != nil {
						return err
					}

					providerType := provider.Type(cmd.String("provider"))

					p, err := provider.New(providerType, os.Getenv("POLYGON_API_KEY"))
					if err != nil {
						return err
					}

					mkt := facade.New(store, ts, cmd.String("exchange-group"), cmd.String("asset-class"),
						map[provider.Type]provider.Provider{providerType: p}, providerType, log)

					interval, err := facade.NormalizeInterval(cmd.String("interval"))
					if err != nil {
						return err
					}

					compression := columnarstore.Compression(strings.ToUpper(cmd.String("compression")))

					rows, err := mkt.ImportFromAPI(ctx, provider.DataType(cmd.String("type")), cmd.String("symbol"), interval, cmd.Timestamp("start"), cmd.Timestamp("end"), compression)
					if err != nil {
						return err
					}

					fmt.Printf("imported %d rows\n", rows)

					return nil
				},
			},
		},
	}
}

func exportCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "export bars to a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true},
			&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
			&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Required: true},
			&cli.TimestampFlag{Name: "start", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
			&cli.TimestampFlag{Name: "end", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd, log)
			if err != nil {
				return err
			}
			defer store.Close()

			ts, err := openTimeService(cmd, timeservice.ModeBacktest, log)
			if err != nil {
				return err
			}

			mkt := facade.New(store, ts, cmd.String("exchange-group"), cmd.String("asset-class"), nil, "", log)

			interval, err := facade.NormalizeInterval(cmd.String("interval"))
			if err != nil {
				return err
			}

			rows, err := mkt.ExportCSV(cmd.String("path"), cmd.String("symbol"), interval, cmd.Timestamp("start"), cmd.Timestamp("end"))
			if err != nil {
				return err
			}

			fmt.Printf("exported %d rows\n", rows)

			return nil
		},
	}
}

func aggregateCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "aggregate",
		Usage: "derive bars at a coarser interval from an existing base interval and write them back",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
			&cli.StringFlag{Name: "from", Required: true},
			&cli.StringFlag{Name: "to", Required: true},
			&cli.TimestampFlag{Name: "start", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
			&cli.TimestampFlag{Name: "end", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd, log)
			if err != nil {
				return err
			}
			defer store.Close()

			ts, err := openTimeService(cmd, timeservice.ModeBacktest, log)
			if err != nil {
				return err
			}

			mkt := facade.New(store, ts, cmd.String("exchange-group"), cmd.String("asset-class"), nil, "", log)

			from, err := facade.NormalizeInterval(cmd.String("from"))
			if err != nil {
				return err
			}

			to, err := facade.NormalizeInterval(cmd.String("to"))
			if err != nil {
				return err
			}

			rows, err := mkt.Aggregate(cmd.String("symbol"), from, to, cmd.Timestamp("start"), cmd.Timestamp("end"))
			if err != nil {
				return err
			}

			fmt.Printf("wrote %d derived bars\n", rows)

			return nil
		},
	}
}

func backtestCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "drive a SessionCoordinator backtest run across a date window",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
			&cli.StringFlag{Name: "base-interval", Value: "1m"},
			&cli.TimestampFlag{Name: "start", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
			&cli.TimestampFlag{Name: "end", Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}}, Required: true},
			&cli.Float64Flag{Name: "speed", Usage: "0 = data-driven (as fast as possible), >0 = wall-clock multiplier", Value: 0},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd, log)
			if err != nil {
				return err
			}
			defer store.Close()

			ts, err := openTimeService(cmd, timeservice.ModeBacktest, log)
			if err != nil {
				return err
			}

			mkt := facade.New(store, ts, cmd.String("exchange-group"), cmd.String("asset-class"), nil, "", log)

			base, err := facade.NormalizeInterval(cmd.String("base-interval"))
			if err != nil {
				return err
			}

			cfg := sessioncoordinator.Config{
				ExchangeGroup:   cmd.String("exchange-group"),
				AssetClass:      cmd.String("asset-class"),
				SpeedMultiplier: cmd.Float64("speed"),
				BacktestEndDate: cmd.Timestamp("end"),
				Symbols: []sessioncoordinator.SymbolConfig{
					{Symbol: cmd.String("symbol"), ConfiguredBases: []types.Interval{base}},
				},
			}

			coord, err := sessioncoordinator.New(cfg, ts, mkt, indicator.NewRegistry(), log)
			if err != nil {
				return err
			}

			if err := coord.Run(ctx, cmd.Timestamp("start")); err != nil {
				return err
			}

			fmt.Printf("backtest complete: %d trading days\n", coord.TradingDaysElapsed())

			return nil
		},
	}
}

func streamCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "start or stop a live SessionCoordinator streaming session",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "start streaming the given symbol in live mode; Ctrl+C (SIGINT/SIGTERM) stops it cleanly via Coordinator.Stop",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
					&cli.StringFlag{Name: "base-interval", Value: "1m"},
					&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openStore(cmd, log)
					if err != nil {
						return err
					}
					defer store.Close()

					ts, err := openTimeService(cmd, timeservice.ModeLive, log)
					if err != nil {
						return err
					}

					providerType := provider.Type(cmd.String("provider"))

					p, err := provider.New(providerType, os.Getenv("POLYGON_API_KEY"))
					if err != nil {
						return err
					}

					mkt := facade.New(store, ts, cmd.String("exchange-group"), cmd.String("asset-class"),
						map[provider.Type]provider.Provider{providerType: p}, providerType, log)

					base, err := facade.NormalizeInterval(cmd.String("base-interval"))
					if err != nil {
						return err
					}

					cfg := sessioncoordinator.Config{
						ExchangeGroup: cmd.String("exchange-group"),
						AssetClass:    cmd.String("asset-class"),
						Symbols: []sessioncoordinator.SymbolConfig{
							{Symbol: cmd.String("symbol"), ConfiguredBases: []types.Interval{base}},
						},
					}

					coord, err := sessioncoordinator.New(cfg, ts, mkt, indicator.NewRegistry(), log)
					if err != nil {
						return err
					}

					sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
					defer stop()

					go func() {
						<-sigCtx.Done()
						coord.Stop()
					}()

					now, err := ts.CurrentTime(nil)
					if err != nil {
						return err
					}

					return coord.Run(sigCtx, now)
				},
			},
			{
				Name:  "stop",
				Usage: "send SIGTERM to a running 'stream start' process (PTY/job control is the shell's job; this subcommand documents the stop path rather than tracking cross-process state)",
				ArgsUsage: "<pid>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return fmt.Errorf("send SIGTERM or SIGINT directly to the running process, e.g. kill -TERM <pid>; 'stream start' shuts down cleanly via Coordinator.Stop on that signal")
				},
			},
		},
	}
}
