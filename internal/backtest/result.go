package backtest

import (
	"math"
	"time"

	"riptide/internal/domain"
)

// EquityPoint is one point of the equity curve: total account value (cash
// plus positions marked at their latest close) after all bars of a date.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// Stats summarizes a completed run.
type Stats struct {
	TotalReturn  float64 // final equity / initial capital − 1
	SharpeRatio  float64 // annualized from daily equity returns
	MaxDrawdown  float64 // worst peak-to-trough equity fraction
	TotalTrades  int     // number of fills
	WinRate      float64 // fraction of profitable round trips
	ProfitFactor float64 // gross round-trip gains / gross losses
}

// Result is everything a run produces: the ordered trade ledger, the equity
// curve, the final open positions, and summary statistics. A cancelled run
// returns a Result consistent up to the last fully processed bar.
type Result struct {
	BacktestID     string
	Strategy       string
	Trades         []domain.Fill
	EquityCurve    []EquityPoint
	FinalPositions map[string]domain.Position
	FinalCash      float64
	SkippedBars    int
	Stats          Stats
}

// tradingDaysPerYear annualizes the Sharpe ratio from daily bars.
const tradingDaysPerYear = 252

// computeStats derives the summary statistics from a finished replay.
// roundTrips holds the realized net P&L of each sell fill.
func computeStats(initialCapital float64, curve []EquityPoint, trades []domain.Fill, roundTrips []float64) Stats {
	s := Stats{TotalTrades: len(trades)}

	if len(curve) > 0 && initialCapital > 0 {
		s.TotalReturn = curve[len(curve)-1].Equity/initialCapital - 1
	}

	// Daily return series off the equity curve, seeded from the initial
	// capital so the first bar's move counts too.
	if len(curve) > 0 {
		returns := make([]float64, 0, len(curve))
		prev := initialCapital
		for _, p := range curve {
			if prev > 0 {
				returns = append(returns, p.Equity/prev-1)
			}
			prev = p.Equity
		}
		if len(returns) > 1 {
			mean := 0.0
			for _, r := range returns {
				mean += r
			}
			mean /= float64(len(returns))
			variance := 0.0
			for _, r := range returns {
				d := r - mean
				variance += d * d
			}
			variance /= float64(len(returns))
			if std := math.Sqrt(variance); std > 0 {
				s.SharpeRatio = mean / std * math.Sqrt(tradingDaysPerYear)
			}
		}

		peak := initialCapital
		for _, p := range curve {
			if p.Equity > peak {
				peak = p.Equity
			}
			if peak > 0 {
				if dd := (peak - p.Equity) / peak; dd > s.MaxDrawdown {
					s.MaxDrawdown = dd
				}
			}
		}
	}

	if len(roundTrips) > 0 {
		var wins int
		var grossWin, grossLoss float64
		for _, pnl := range roundTrips {
			if pnl > 0 {
				wins++
				grossWin += pnl
			} else {
				grossLoss -= pnl
			}
		}
		s.WinRate = float64(wins) / float64(len(roundTrips))
		switch {
		case grossLoss > 0:
			s.ProfitFactor = grossWin / grossLoss
		case grossWin > 0:
			s.ProfitFactor = math.Inf(1)
		}
	}

	return s
}
