package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"riptide/internal/backtest"
	"riptide/internal/broker"
	"riptide/internal/config"
	"riptide/internal/domain"
	"riptide/internal/store"
	"riptide/internal/strategy"
	"riptide/internal/strategy/builtins"
	"riptide/internal/util"
)

func main() {
	cfgPath := flag.String("config", "config/riptide.yaml", "path to YAML config")
	flag.Parse()

	if p := os.Getenv("RIPTIDE_CONFIG"); p != "" {
		*cfgPath = p
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	barStore, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer closeStore()

	registry := strategy.NewRegistry()
	builtins.Register(registry)

	strat, err := registry.New(cfg.Strategy.ID, cfg.Strategy.Params)
	if err != nil {
		log.Fatalf("failed to build strategy %q: %v", cfg.Strategy.ID, err)
	}

	start, end, err := cfg.Backtest.DateRange()
	if err != nil {
		log.Fatalf("invalid date range: %v", err)
	}

	sizer, err := buildSizer(cfg.Backtest.Sizing)
	if err != nil {
		log.Fatalf("invalid sizing config: %v", err)
	}

	bt := backtest.NewBacktester(barStore, sizer, backtest.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		Simulator: broker.SimulatorConfig{
			SlippageRate:   cfg.Backtest.SlippageRate,
			CommissionRate: cfg.Backtest.CommissionRate,
			MinCommission:  cfg.Backtest.MinCommission,
		},
		ProgressEvery: cfg.Backtest.ProgressEvery,
	}, logger)
	bt.OnProgress(func(p domain.Progress) {
		slog.Info("progress", "percent", fmt.Sprintf("%.0f%%", p.Percent), "date", p.CurrentDate.Format("2006-01-02"))
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := bt.Run(ctx, strat, cfg.Backtest.Symbols, start, end)
	if err != nil && !errors.Is(err, backtest.ErrCancelled) {
		log.Fatalf("backtest failed: %v", err)
	}
	if errors.Is(err, backtest.ErrCancelled) {
		slog.Warn("backtest cancelled, reporting partial result")
	}

	printReport(res, cfg.Backtest.InitialCapital)
}

func openStore(s config.Storage) (store.BarStore, func(), error) {
	switch s.Backend {
	case "sqlite":
		sq, err := store.NewSQLiteStore(s.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sq, func() { sq.Close() }, nil
	case "parquet", "":
		return store.NewParquetStore(s.DataDir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

func buildSizer(s config.SizingConfig) (backtest.Sizer, error) {
	switch s.Policy {
	case "fixed_quantity":
		if s.Quantity < 1 {
			return nil, fmt.Errorf("fixed_quantity requires quantity >= 1, got %d", s.Quantity)
		}
		return &backtest.FixedQuantity{Qty: s.Quantity}, nil
	case "fixed_fraction", "":
		if s.Fraction <= 0 || s.Fraction > 1 {
			return nil, fmt.Errorf("fixed_fraction requires fraction in (0, 1], got %g", s.Fraction)
		}
		return &backtest.FixedFraction{Fraction: s.Fraction}, nil
	default:
		return nil, fmt.Errorf("unknown sizing policy %q", s.Policy)
	}
}

func printReport(res *backtest.Result, initialCapital float64) {
	fmt.Printf("\nBacktest %s (%s)\n", res.BacktestID, res.Strategy)
	fmt.Printf("%s\n\n", "--------------------------------------------------------------")

	s := res.Stats
	fmt.Printf("Initial capital:  %14.2f\n", initialCapital)
	if n := len(res.EquityCurve); n > 0 {
		fmt.Printf("Final equity:     %14.2f\n", res.EquityCurve[n-1].Equity)
	}
	fmt.Printf("Total return:     %13.2f%%\n", s.TotalReturn*100)
	fmt.Printf("Sharpe ratio:     %14.2f\n", s.SharpeRatio)
	fmt.Printf("Max drawdown:     %13.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("Trades:           %14d\n", s.TotalTrades)
	fmt.Printf("Win rate:         %13.2f%%\n", s.WinRate*100)
	fmt.Printf("Profit factor:    %14.2f\n", s.ProfitFactor)
	fmt.Printf("Skipped bars:     %14d\n", res.SkippedBars)

	if len(res.FinalPositions) > 0 {
		fmt.Printf("\nOpen positions:\n")
		symbols := make([]string, 0, len(res.FinalPositions))
		for sym := range res.FinalPositions {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		for _, sym := range symbols {
			pos := res.FinalPositions[sym]
			fmt.Printf("  %-8s %6d @ %10.2f\n", sym, pos.Qty, pos.AvgCost)
		}
	}

	if len(res.Trades) > 0 {
		fmt.Printf("\nTrades:\n")
		for _, tr := range res.Trades {
			fmt.Printf("  %s  %-4s %-8s %6d @ %10.2f  commission %.2f\n",
				tr.Timestamp.Format("2006-01-02"), tr.Side, tr.Symbol, tr.Qty, tr.Price, tr.Commission)
		}
	}
}
