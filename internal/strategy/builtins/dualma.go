package builtins

import (
	"fmt"

	"riptide/internal/domain"
	"riptide/internal/indicator"
	"riptide/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*DualMA)(nil)

// DualMAID is the registry id of the dual moving-average strategy.
const DualMAID = "dual_ma"

// DualMAConfig holds the validated parameters of the dual moving-average
// strategy.
type DualMAConfig struct {
	ShortPeriod    int
	LongPeriod     int
	UseEMA         bool // EMA instead of SMA for both averages
	UseVolume      bool
	VolumeRatio    float64 // entry volume must exceed average by this ratio
	UseTrendFilter bool
	TrendPeriod    int // entries only when close is above this longer MA
}

// DualMA trades moving-average crossovers: a golden cross (short average
// crossing above the long) enters long, a death cross exits. Crossing is a
// strict state transition between the previous and current bar — a short
// average merely sitting above the long is not a cross.
type DualMA struct {
	strategy.Base
	cfg DualMAConfig
}

func dualMADescriptor() strategy.Descriptor {
	return strategy.Descriptor{
		ID:    DualMAID,
		Label: "Dual moving-average crossover",
		Schema: []strategy.ParamSpec{
			{Name: "short_period", Type: strategy.ParamInt, Min: 2, Max: 200, Default: 10, Label: "Short MA period"},
			{Name: "long_period", Type: strategy.ParamInt, Min: 3, Max: 400, Default: 30, Label: "Long MA period"},
			{Name: "use_ema", Type: strategy.ParamBool, Default: false, Label: "Use EMA"},
			{Name: "use_volume", Type: strategy.ParamBool, Default: false, Label: "Volume filter"},
			{Name: "volume_ratio", Type: strategy.ParamFloat, Min: 0.1, Max: 10, Default: 1.2, Label: "Volume ratio"},
			{Name: "use_trend_filter", Type: strategy.ParamBool, Default: false, Label: "Trend filter"},
			{Name: "trend_period", Type: strategy.ParamInt, Min: 10, Max: 500, Default: 100, Label: "Trend MA period"},
		},
		New: func(p strategy.Params) (strategy.Strategy, error) {
			cfg := DualMAConfig{
				ShortPeriod:    p.Int("short_period", 10),
				LongPeriod:     p.Int("long_period", 30),
				UseEMA:         p.Bool("use_ema", false),
				UseVolume:      p.Bool("use_volume", false),
				VolumeRatio:    p.Float("volume_ratio", 1.2),
				UseTrendFilter: p.Bool("use_trend_filter", false),
				TrendPeriod:    p.Int("trend_period", 100),
			}
			return NewDualMA(cfg)
		},
	}
}

// NewDualMA creates a dual moving-average strategy from a validated config.
// A short period at or above the long period is a configuration error.
func NewDualMA(cfg DualMAConfig) (*DualMA, error) {
	if cfg.ShortPeriod >= cfg.LongPeriod {
		return nil, fmt.Errorf("short_period %d must be below long_period %d", cfg.ShortPeriod, cfg.LongPeriod)
	}
	if cfg.UseTrendFilter && cfg.TrendPeriod <= cfg.LongPeriod {
		return nil, fmt.Errorf("trend_period %d must exceed long_period %d", cfg.TrendPeriod, cfg.LongPeriod)
	}
	periods := []int{cfg.LongPeriod + 1}
	if cfg.UseTrendFilter {
		periods = append(periods, cfg.TrendPeriod)
	}
	return &DualMA{
		Base: strategy.NewBase(historyBound(periods...)),
		cfg:  cfg,
	}, nil
}

// Name returns "dual_ma".
func (s *DualMA) Name() string { return DualMAID }

// WarmupPeriod returns the bars needed before signals can fire: the long
// average plus the previous bar, or the trend filter window when enabled and
// longer.
func (s *DualMA) WarmupPeriod() int {
	warmup := s.cfg.LongPeriod + 1
	if s.cfg.UseTrendFilter && s.cfg.TrendPeriod > warmup {
		warmup = s.cfg.TrendPeriod
	}
	return warmup
}

func (s *DualMA) average(prices []float64, period int) (float64, bool) {
	if s.cfg.UseEMA {
		return indicator.EMA(prices, period)
	}
	return indicator.SMA(prices, period)
}

// GenerateSignal implements the crossover rules over the symbol's rolling
// history. Both averages are computed for the current and the immediately
// preceding bar so a cross is detected as an ordering change, not a
// threshold check.
func (s *DualMA) GenerateSignal(symbol string, bar domain.Bar, pos *domain.Position) *domain.Signal {
	h := s.History(symbol)
	closes := h.Closes()

	// One extra bar so the previous-bar averages exist too.
	if len(closes) < s.cfg.LongPeriod+1 {
		return nil
	}

	short, okS := s.average(closes, s.cfg.ShortPeriod)
	long, okL := s.average(closes, s.cfg.LongPeriod)
	prevShort, okPS := s.average(closes[:len(closes)-1], s.cfg.ShortPeriod)
	prevLong, okPL := s.average(closes[:len(closes)-1], s.cfg.LongPeriod)
	if !okS || !okL || !okPS || !okPL {
		return nil
	}

	inPosition := pos != nil && pos.Qty > 0

	if inPosition {
		if prevShort >= prevLong && short < long {
			return &domain.Signal{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Type:      domain.SignalExit,
				Strength:  1,
				Reason:    fmt.Sprintf("death cross: MA(%d) %.2f below MA(%d) %.2f", s.cfg.ShortPeriod, short, s.cfg.LongPeriod, long),
			}
		}
		return nil
	}

	// Golden cross requires the previous bar at-or-below and the current bar
	// strictly above.
	if !(prevShort <= prevLong && short > long) {
		return nil
	}
	if s.cfg.UseVolume {
		vols := h.Volumes()
		ratio := indicator.VolumeRatio(vols[:len(vols)-1], s.cfg.LongPeriod, bar.Volume)
		if ratio < s.cfg.VolumeRatio {
			return nil
		}
	}
	if s.cfg.UseTrendFilter {
		trend, ok := s.average(closes, s.cfg.TrendPeriod)
		if !ok || bar.Close <= trend {
			return nil
		}
	}

	return &domain.Signal{
		Symbol:    symbol,
		Timestamp: bar.Timestamp,
		Type:      domain.SignalLong,
		Strength:  1,
		Reason:    fmt.Sprintf("golden cross: MA(%d) %.2f above MA(%d) %.2f", s.cfg.ShortPeriod, short, s.cfg.LongPeriod, long),
	}
}
