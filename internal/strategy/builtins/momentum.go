package builtins

import (
	"fmt"

	"riptide/internal/domain"
	"riptide/internal/indicator"
	"riptide/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Momentum)(nil)

// MomentumID is the registry id of the momentum strategy.
const MomentumID = "momentum"

// MomentumConfig holds the validated parameters of the momentum strategy.
type MomentumConfig struct {
	Period        int     // SMA and average-volume lookback
	BreakoutPct   float64 // entry: close above SMA by this fraction
	BreakdownPct  float64 // exit: close below SMA by this fraction
	UseVolume     bool    // require volume confirmation on entry
	VolumeRatio   float64 // entry volume must exceed average by this ratio
	RSIPeriod     int
	RSIOverbought float64 // suppress entries when RSI is at or above this
	RSIOversold   float64 // optional partial exit when RSI is at or below this
	UseRSIExit    bool
}

// Momentum buys strength: it enters when price breaks out above its moving
// average with optional volume confirmation, and exits when price breaks
// back down through it. Entries during an RSI-overbought reading are
// suppressed — the RSI filter always wins over a raw breakout.
type Momentum struct {
	strategy.Base
	cfg MomentumConfig
}

func momentumDescriptor() strategy.Descriptor {
	return strategy.Descriptor{
		ID:    MomentumID,
		Label: "Momentum breakout",
		Schema: []strategy.ParamSpec{
			{Name: "period", Type: strategy.ParamInt, Min: 2, Max: 250, Default: 20, Label: "SMA period"},
			{Name: "breakout_pct", Type: strategy.ParamFloat, Min: 0, Max: 0.5, Default: 0.02, Label: "Breakout threshold"},
			{Name: "breakdown_pct", Type: strategy.ParamFloat, Min: 0, Max: 0.5, Default: 0.02, Label: "Breakdown threshold"},
			{Name: "use_volume", Type: strategy.ParamBool, Default: true, Label: "Volume filter"},
			{Name: "volume_ratio", Type: strategy.ParamFloat, Min: 0.1, Max: 10, Default: 1.5, Label: "Volume ratio"},
			{Name: "rsi_period", Type: strategy.ParamInt, Min: 2, Max: 100, Default: 14, Label: "RSI period"},
			{Name: "rsi_overbought", Type: strategy.ParamFloat, Min: 50, Max: 100, Default: 70, Label: "RSI overbought"},
			{Name: "rsi_oversold", Type: strategy.ParamFloat, Min: 0, Max: 50, Default: 30, Label: "RSI oversold"},
			{Name: "use_rsi_exit", Type: strategy.ParamBool, Default: false, Label: "RSI partial exit"},
		},
		New: func(p strategy.Params) (strategy.Strategy, error) {
			cfg := MomentumConfig{
				Period:        p.Int("period", 20),
				BreakoutPct:   p.Float("breakout_pct", 0.02),
				BreakdownPct:  p.Float("breakdown_pct", 0.02),
				UseVolume:     p.Bool("use_volume", true),
				VolumeRatio:   p.Float("volume_ratio", 1.5),
				RSIPeriod:     p.Int("rsi_period", 14),
				RSIOverbought: p.Float("rsi_overbought", 70),
				RSIOversold:   p.Float("rsi_oversold", 30),
				UseRSIExit:    p.Bool("use_rsi_exit", false),
			}
			return NewMomentum(cfg)
		},
	}
}

// NewMomentum creates a momentum strategy from a validated config.
func NewMomentum(cfg MomentumConfig) (*Momentum, error) {
	if cfg.RSIOversold >= cfg.RSIOverbought {
		return nil, fmt.Errorf("rsi_oversold %v must be below rsi_overbought %v", cfg.RSIOversold, cfg.RSIOverbought)
	}
	return &Momentum{
		Base: strategy.NewBase(historyBound(cfg.Period, cfg.RSIPeriod+1)),
		cfg:  cfg,
	}, nil
}

// Name returns "momentum".
func (s *Momentum) Name() string { return MomentumID }

// WarmupPeriod returns the bars needed before signals can fire: the SMA
// lookback, or the RSI window when that is longer.
func (s *Momentum) WarmupPeriod() int {
	return max(s.cfg.Period, s.cfg.RSIPeriod+1)
}

// GenerateSignal implements the momentum rules over the symbol's rolling
// history. It returns nil while the history is shorter than the lookback.
func (s *Momentum) GenerateSignal(symbol string, bar domain.Bar, pos *domain.Position) *domain.Signal {
	h := s.History(symbol)

	sma, ok := indicator.SMA(h.Closes(), s.cfg.Period)
	if !ok {
		return nil
	}
	rsi, rsiOK := indicator.RSI(h.Closes(), s.cfg.RSIPeriod)

	inPosition := pos != nil && pos.Qty > 0

	if inPosition {
		if bar.Close < sma*(1-s.cfg.BreakdownPct) {
			return &domain.Signal{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Type:      domain.SignalExit,
				Strength:  1,
				Reason:    fmt.Sprintf("close %.2f broke down through SMA(%d) %.2f", bar.Close, s.cfg.Period, sma),
			}
		}
		if s.cfg.UseRSIExit && rsiOK && rsi <= s.cfg.RSIOversold {
			return &domain.Signal{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Type:      domain.SignalExit,
				Strength:  0.5,
				Reason:    fmt.Sprintf("RSI %.1f oversold, partial exit", rsi),
			}
		}
		return nil
	}

	if bar.Close <= sma*(1+s.cfg.BreakoutPct) {
		return nil
	}
	// RSI filter beats the breakout: an overbought reading suppresses entry.
	if rsiOK && rsi >= s.cfg.RSIOverbought {
		return nil
	}
	if s.cfg.UseVolume {
		// Average excludes the current bar so a single spike cannot dilute
		// its own confirmation.
		vols := h.Volumes()
		ratio := indicator.VolumeRatio(vols[:len(vols)-1], s.cfg.Period, bar.Volume)
		if ratio < s.cfg.VolumeRatio {
			return nil
		}
	}

	return &domain.Signal{
		Symbol:    symbol,
		Timestamp: bar.Timestamp,
		Type:      domain.SignalLong,
		Strength:  1,
		Reason:    fmt.Sprintf("close %.2f broke out above SMA(%d) %.2f", bar.Close, s.cfg.Period, sma),
	}
}
