package builtins

import (
	"fmt"
	"math"

	"riptide/internal/domain"
	"riptide/internal/indicator"
	"riptide/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MeanReversion)(nil)

// MeanReversionID is the registry id of the mean-reversion strategy.
const MeanReversionID = "mean_reversion"

// MeanReversionConfig holds the validated parameters of the mean-reversion
// strategy.
type MeanReversionConfig struct {
	Period      int     // Bollinger lookback
	NumStd      float64 // band width in standard deviations
	EntryStd    float64 // enter when z-score ≤ −EntryStd
	ExitStd     float64 // exit when |z-score| ≤ ExitStd
	RSIPeriod   int
	RSIOversold float64 // entry confirmation
}

// MeanReversion fades extremes: it buys when price stretches below the lower
// Bollinger band with RSI confirming oversold, targeting the middle band,
// and exits once price reverts to the mean or crosses the upper band.
type MeanReversion struct {
	strategy.Base
	cfg MeanReversionConfig
}

func meanReversionDescriptor() strategy.Descriptor {
	return strategy.Descriptor{
		ID:    MeanReversionID,
		Label: "Bollinger mean reversion",
		Schema: []strategy.ParamSpec{
			{Name: "period", Type: strategy.ParamInt, Min: 5, Max: 250, Default: 20, Label: "Bollinger period"},
			{Name: "num_std", Type: strategy.ParamFloat, Min: 0.5, Max: 5, Default: 2, Label: "Band width (std devs)"},
			{Name: "entry_std", Type: strategy.ParamFloat, Min: 0.5, Max: 5, Default: 2, Label: "Entry z-score"},
			{Name: "exit_std", Type: strategy.ParamFloat, Min: 0.05, Max: 2, Default: 0.5, Label: "Exit z-score"},
			{Name: "rsi_period", Type: strategy.ParamInt, Min: 2, Max: 100, Default: 14, Label: "RSI period"},
			{Name: "rsi_oversold", Type: strategy.ParamFloat, Min: 0, Max: 50, Default: 30, Label: "RSI oversold"},
		},
		New: func(p strategy.Params) (strategy.Strategy, error) {
			cfg := MeanReversionConfig{
				Period:      p.Int("period", 20),
				NumStd:      p.Float("num_std", 2),
				EntryStd:    p.Float("entry_std", 2),
				ExitStd:     p.Float("exit_std", 0.5),
				RSIPeriod:   p.Int("rsi_period", 14),
				RSIOversold: p.Float("rsi_oversold", 30),
			}
			return NewMeanReversion(cfg)
		},
	}
}

// NewMeanReversion creates a mean-reversion strategy from a validated config.
func NewMeanReversion(cfg MeanReversionConfig) (*MeanReversion, error) {
	if cfg.ExitStd >= cfg.EntryStd {
		return nil, fmt.Errorf("exit_std %v must be below entry_std %v", cfg.ExitStd, cfg.EntryStd)
	}
	return &MeanReversion{
		Base: strategy.NewBase(historyBound(cfg.Period, cfg.RSIPeriod+1)),
		cfg:  cfg,
	}, nil
}

// Name returns "mean_reversion".
func (s *MeanReversion) Name() string { return MeanReversionID }

// WarmupPeriod returns the bars needed before signals can fire: the
// Bollinger lookback, or the RSI window when that is longer.
func (s *MeanReversion) WarmupPeriod() int {
	return max(s.cfg.Period, s.cfg.RSIPeriod+1)
}

// GenerateSignal implements the mean-reversion rules over the symbol's
// rolling history.
func (s *MeanReversion) GenerateSignal(symbol string, bar domain.Bar, pos *domain.Position) *domain.Signal {
	h := s.History(symbol)

	upper, middle, _, ok := indicator.Bollinger(h.Closes(), s.cfg.Period, s.cfg.NumStd)
	if !ok {
		return nil
	}
	z, _ := indicator.ZScore(h.Closes(), s.cfg.Period, bar.Close)

	inPosition := pos != nil && pos.Qty > 0

	if inPosition {
		if math.Abs(z) <= s.cfg.ExitStd {
			return &domain.Signal{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Type:      domain.SignalExit,
				Strength:  1,
				Reason:    fmt.Sprintf("reverted to mean (z=%.2f within ±%.2f)", z, s.cfg.ExitStd),
			}
		}
		if bar.Close >= upper {
			return &domain.Signal{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Type:      domain.SignalExit,
				Strength:  1,
				Reason:    fmt.Sprintf("close %.2f crossed upper band %.2f", bar.Close, upper),
			}
		}
		return nil
	}

	if z > -s.cfg.EntryStd {
		return nil
	}
	rsi, rsiOK := indicator.RSI(h.Closes(), s.cfg.RSIPeriod)
	if !rsiOK || rsi > s.cfg.RSIOversold {
		return nil
	}

	return &domain.Signal{
		Symbol:    symbol,
		Timestamp: bar.Timestamp,
		Type:      domain.SignalLong,
		Strength:  1,
		Reason:    fmt.Sprintf("z=%.2f below lower band with RSI %.1f oversold", z, rsi),
		Target:    middle,
	}
}
