package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riptide/internal/config"
	"riptide/internal/gather"
	"riptide/internal/store"
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

	start, err := time.Parse("2006-01-02", cfg.Gather.StartDate)
	if err != nil {
		log.Fatalf("invalid gather start_date %q: %v", cfg.Gather.StartDate, err)
	}
	// Yesterday, so only fully closed trading days are fetched.
	end := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)

	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	gatherer := gather.NewDailyBarGatherer(gather.DailyBarOpts{
		APIKey:          cfg.Alpaca.APIKey,
		APISecret:       cfg.Alpaca.APISecret,
		DataURL:         cfg.Alpaca.DataURL,
		Feed:            cfg.Alpaca.Feed,
		Symbols:         cfg.Gather.Symbols,
		BatchSize:       cfg.Gather.BatchSize,
		RateLimitPerMin: cfg.Gather.RateLimitPerMin,
		Range:           gather.DateRange{Start: start, End: end},
	}, pstore)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting riptide-gather", "symbols", len(cfg.Gather.Symbols))
	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("gather error: %v", err)
	}
}
