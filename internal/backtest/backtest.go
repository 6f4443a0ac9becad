// Package backtest replays historical bars through a strategy and simulated
// broker, producing a trade ledger, equity curve, and summary statistics.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"riptide/internal/broker"
	"riptide/internal/domain"
	"riptide/internal/store"
	"riptide/internal/strategy"
)

var (
	// ErrNoData is returned when no symbol has any bars in the requested range.
	ErrNoData = errors.New("backtest: no bar data in range")

	// ErrCancelled is returned alongside a partial Result when the context is
	// cancelled mid-run.
	ErrCancelled = errors.New("backtest: cancelled")
)

// ProgressFunc receives progress updates during a run. Implementations must
// not block; the driver calls them synchronously between bars.
type ProgressFunc func(domain.Progress)

// defaultProgressEvery is the number of trading days between progress
// emissions when the config leaves ProgressEvery unset.
const defaultProgressEvery = 20

// orderNamespace scopes the deterministic order ids minted during a run.
var orderNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("riptide/backtest/orders"))

// orderID returns the id of the n-th order of a run. Identical runs must
// produce byte-identical trade ledgers, so ids derive from the order
// sequence rather than from randomness. The random BacktestID never enters
// ledger entries.
func orderID(seq int) string {
	return uuid.NewSHA1(orderNamespace, []byte(strconv.Itoa(seq))).String()
}

// Config holds the run parameters of a Backtester.
type Config struct {
	InitialCapital float64
	Simulator      broker.SimulatorConfig
	ProgressEvery  int // trading days between progress emissions
}

// Backtester drives a single-strategy backtest over one or more symbols.
type Backtester struct {
	store    store.BarStore
	sizer    Sizer
	cfg      Config
	progress ProgressFunc
	log      *slog.Logger
}

// NewBacktester creates a Backtester reading bars from st and sizing orders
// with sizer.
func NewBacktester(st store.BarStore, sizer Sizer, cfg Config, log *slog.Logger) *Backtester {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = defaultProgressEvery
	}
	return &Backtester{store: st, sizer: sizer, cfg: cfg, log: log}
}

// OnProgress registers a callback invoked with progress updates during Run.
func (b *Backtester) OnProgress(fn ProgressFunc) {
	b.progress = fn
}

// ---------------------------------------------------------------------------
// Quote index
// ---------------------------------------------------------------------------

// quoteIndex is an in-memory bar lookup keyed by symbol and timestamp,
// backing the simulator's quote feed during a run.
type quoteIndex struct {
	bars map[string]map[int64]domain.Bar
}

// Compile-time interface check.
var _ broker.QuoteProvider = (*quoteIndex)(nil)

func newQuoteIndex() *quoteIndex {
	return &quoteIndex{bars: make(map[string]map[int64]domain.Bar)}
}

func (q *quoteIndex) add(bar domain.Bar) {
	m, ok := q.bars[bar.Symbol]
	if !ok {
		m = make(map[int64]domain.Bar)
		q.bars[bar.Symbol] = m
	}
	m[bar.Timestamp.UnixMilli()] = bar
}

// GetQuote returns the bar for symbol at ts, if one exists.
func (q *quoteIndex) GetQuote(symbol string, ts time.Time) (domain.Bar, bool) {
	bar, ok := q.bars[symbol][ts.UnixMilli()]
	return bar, ok
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

// Run replays bars for the given symbols through strat in timestamp order and
// returns the completed Result. Bars failing validation are skipped and
// counted, never fatal. On context cancellation the partial Result so far is
// returned together with ErrCancelled.
func (b *Backtester) Run(ctx context.Context, strat strategy.Strategy, symbols []string, start, end time.Time) (*Result, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("backtest: no symbols given")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("backtest: end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	runID := uuid.NewString()
	log := b.log.With("backtest_id", runID, "strategy", strat.Name())

	quotes := newQuoteIndex()
	skipped := 0
	tsSet := make(map[int64]time.Time)

	for _, sym := range symbols {
		bars, err := b.store.ReadBars(ctx, sym, start, end)
		if err != nil {
			if errors.Is(err, store.ErrNoBars) {
				log.Warn("no bars for symbol, skipping", "symbol", sym)
				continue
			}
			return nil, fmt.Errorf("reading bars for %s: %w", sym, err)
		}
		for _, bar := range bars {
			if err := bar.Validate(); err != nil {
				log.Warn("skipping invalid bar", "symbol", sym, "date", bar.Timestamp.Format("2006-01-02"), "err", err)
				skipped++
				continue
			}
			quotes.add(bar)
			tsSet[bar.Timestamp.UnixMilli()] = bar.Timestamp
		}
	}
	if len(tsSet) == 0 {
		return nil, ErrNoData
	}

	timestamps := make([]time.Time, 0, len(tsSet))
	for _, ts := range tsSet {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	sim := broker.NewSimulator(quotes, b.cfg.Simulator)

	var (
		cash       = b.cfg.InitialCapital
		positions  = make(map[string]*domain.Position)
		lastClose  = make(map[string]float64)
		trades     []domain.Fill
		roundTrips []float64
		curve      = make([]EquityPoint, 0, len(timestamps))
		orderSeq   int
	)

	result := func() *Result {
		final := make(map[string]domain.Position)
		for sym, pos := range positions {
			if pos.Qty > 0 {
				final[sym] = *pos
			}
		}
		return &Result{
			BacktestID:     runID,
			Strategy:       strat.Name(),
			Trades:         trades,
			EquityCurve:    curve,
			FinalPositions: final,
			FinalCash:      cash,
			SkippedBars:    skipped,
			Stats:          computeStats(b.cfg.InitialCapital, curve, trades, roundTrips),
		}
	}

	log.Info("backtest started",
		"symbols", symbols,
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"trading_days", len(timestamps),
		"warmup_days", strat.WarmupPeriod(),
		"initial_capital", cash)

	for i, ts := range timestamps {
		select {
		case <-ctx.Done():
			log.Warn("backtest cancelled", "at", ts.Format("2006-01-02"))
			return result(), ErrCancelled
		default:
		}

		// Symbols replay in the caller's order so runs are reproducible.
		for _, sym := range symbols {
			bar, ok := quotes.GetQuote(sym, ts)
			if !ok {
				continue
			}
			lastClose[sym] = bar.Close

			strat.UpdateHistory(sym, bar)
			sig := strat.GenerateSignal(sym, bar, positions[sym])
			if sig == nil {
				continue
			}

			order := b.sizer.Size(sig, bar.Close, cash, positions[sym])
			if order == nil {
				continue
			}
			order.ID = orderID(orderSeq)
			orderSeq++

			fill := sim.MatchOrder(order)
			if fill == nil {
				continue
			}

			if err := b.apply(fill, positions, &cash, &roundTrips); err != nil {
				log.Warn("fill rejected", "symbol", sym, "side", fill.Side, "err", err)
				continue
			}
			trades = append(trades, *fill)

			log.Debug("fill",
				"symbol", sym,
				"side", fill.Side,
				"qty", fill.Qty,
				"price", fill.Price,
				"reason", sig.Reason)
		}

		curve = append(curve, EquityPoint{Date: ts, Equity: b.equity(cash, positions, lastClose)})

		if b.progress != nil && ((i+1)%b.cfg.ProgressEvery == 0 || i == len(timestamps)-1) {
			pct := float64(i+1) / float64(len(timestamps)) * 100
			b.progress(domain.Progress{
				BacktestID:  runID,
				Percent:     pct,
				CurrentDate: ts,
				Message:     fmt.Sprintf("replayed %d/%d trading days", i+1, len(timestamps)),
			})
		}
	}

	res := result()
	log.Info("backtest finished",
		"trades", len(res.Trades),
		"final_cash", res.FinalCash,
		"total_return", res.Stats.TotalReturn,
		"skipped_bars", res.SkippedBars)
	return res, nil
}

// apply books a fill against cash and the position map. Buys are rejected
// when cash cannot cover the total; sells append the realized net P&L of the
// round trip.
func (b *Backtester) apply(fill *domain.Fill, positions map[string]*domain.Position, cash *float64, roundTrips *[]float64) error {
	pos := positions[fill.Symbol]
	if pos == nil {
		pos = &domain.Position{Symbol: fill.Symbol}
		positions[fill.Symbol] = pos
	}

	switch fill.Side {
	case domain.OrderSideBuy:
		total := fill.Total()
		if total > *cash {
			return fmt.Errorf("insufficient cash: need %.2f, have %.2f", total, *cash)
		}
		if err := pos.Apply(*fill); err != nil {
			return err
		}
		*cash -= total
	case domain.OrderSideSell:
		before := pos.RealizedPnL
		if err := pos.Apply(*fill); err != nil {
			return err
		}
		*cash += fill.Price*float64(fill.Qty) - fill.Commission
		*roundTrips = append(*roundTrips, pos.RealizedPnL-before-fill.Commission)
	default:
		return fmt.Errorf("unknown side %q", fill.Side)
	}
	return nil
}

// equity marks open positions at their most recent close.
func (b *Backtester) equity(cash float64, positions map[string]*domain.Position, lastClose map[string]float64) float64 {
	eq := cash
	for sym, pos := range positions {
		if pos.Qty > 0 {
			eq += float64(pos.Qty) * lastClose[sym]
		}
	}
	return eq
}
