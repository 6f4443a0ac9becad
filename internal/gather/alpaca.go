package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"riptide/internal/domain"
	"riptide/internal/store"
	"riptide/internal/util"
)

// Compile-time interface check.
var _ Gatherer = (*DailyBarGatherer)(nil)

// DailyBarGatherer gathers daily OHLCV bars for a configured symbol list via
// the Alpaca market-data API and writes them into a BarStore.
type DailyBarGatherer struct {
	client    *marketdata.Client
	store     store.BarStore
	symbols   []string
	batchSize int
	feed      string
	rng       DateRange
	limiter   *util.RateLimiter
	log       *slog.Logger
}

// DailyBarOpts configures a DailyBarGatherer.
type DailyBarOpts struct {
	APIKey          string
	APISecret       string
	DataURL         string
	Feed            string // "sip" or "iex"
	Symbols         []string
	BatchSize       int // symbols per API call
	RateLimitPerMin int
	Range           DateRange
}

// NewDailyBarGatherer creates a DailyBarGatherer writing into s.
func NewDailyBarGatherer(opts DailyBarOpts, s store.BarStore) *DailyBarGatherer {
	clientOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.DataURL != "" {
		clientOpts.BaseURL = opts.DataURL
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = 200
	}

	return &DailyBarGatherer{
		client:    marketdata.NewClient(clientOpts),
		store:     s,
		symbols:   opts.Symbols,
		batchSize: opts.BatchSize,
		feed:      opts.Feed,
		rng:       opts.Range,
		limiter:   util.NewRateLimiter(opts.RateLimitPerMin),
		log:       slog.Default().With("gatherer", "daily-bars"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "daily-bars" }

// Run fetches daily bars for the configured symbols in batches and writes
// them to the store. Writes merge with existing data, so re-running over the
// same range is idempotent.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	if len(g.symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}

	totalBatches := (len(g.symbols) + g.batchSize - 1) / g.batchSize
	g.log.Info("starting gather",
		"symbols", len(g.symbols),
		"batches", totalBatches,
		"start", g.rng.Start.Format("2006-01-02"),
		"end", g.rng.End.Format("2006-01-02"),
	)

	runStart := time.Now()
	var totalBars int
	for i := 0; i < len(g.symbols); i += g.batchSize {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := min(i+g.batchSize, len(g.symbols))
		batch := g.symbols[i:end]

		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		var bars []domain.Bar
		err := util.RetryDefault(ctx, func() error {
			var ferr error
			bars, ferr = g.fetchMultiBars(ctx, batch)
			return ferr
		})
		if err != nil {
			return fmt.Errorf("fetching batch %d/%d: %w", i/g.batchSize+1, totalBatches, err)
		}

		if len(bars) > 0 {
			if err := g.store.WriteBars(ctx, bars); err != nil {
				return fmt.Errorf("writing batch %d/%d: %w", i/g.batchSize+1, totalBatches, err)
			}
		}

		totalBars += len(bars)
		g.log.Info("batch done",
			"batch", fmt.Sprintf("%d/%d", i/g.batchSize+1, totalBatches),
			"bars", len(bars),
			"elapsed", time.Since(runStart).Round(time.Second),
		)
	}

	g.log.Info("gather finished", "bars", totalBars)
	return nil
}

// fetchMultiBars fetches daily bars for multiple symbols in a single API call.
func (g *DailyBarGatherer) fetchMultiBars(ctx context.Context, symbols []string) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	multiBars, err := g.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     g.rng.Start,
		End:       g.rng.End,
		Feed:      marketdata.Feed(g.feed),
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	return barsFromMulti(multiBars), nil
}

// barsFromMulti flattens the Alpaca multi-bar response into domain bars.
func barsFromMulti(multiBars map[string][]marketdata.Bar) []domain.Bar {
	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars
}
