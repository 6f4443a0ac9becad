package builtins

import (
	"fmt"

	"riptide/internal/domain"
	"riptide/internal/indicator"
	"riptide/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Breakout)(nil)

// BreakoutID is the registry id of the channel-breakout strategy.
const BreakoutID = "breakout"

// BreakoutConfig holds the validated parameters of the breakout strategy.
type BreakoutConfig struct {
	LookbackPeriod   int     // channel lookback, excluding the current bar
	ConfirmPct       float64 // close must clear the channel by this fraction
	VolumeMultiplier float64 // mandatory volume confirmation ratio
	ATRPeriod        int
	StopATR          float64 // stop-loss distance in ATRs from entry
	TakeProfitATR    float64 // take-profit distance in ATRs from entry
}

// Breakout trades range expansion: it buys when the close clears the prior
// lookback high on elevated volume, attaching ATR-based stop-loss and
// take-profit levels to the signal, and exits on a breakdown through the
// prior lookback low or a stop breach. Unlike the momentum strategy the
// volume confirmation is mandatory.
type Breakout struct {
	strategy.Base
	cfg BreakoutConfig
}

func breakoutDescriptor() strategy.Descriptor {
	return strategy.Descriptor{
		ID:    BreakoutID,
		Label: "Channel breakout",
		Schema: []strategy.ParamSpec{
			{Name: "lookback_period", Type: strategy.ParamInt, Min: 5, Max: 250, Default: 20, Label: "Channel lookback"},
			{Name: "breakout_confirm_pct", Type: strategy.ParamFloat, Min: 0, Max: 0.2, Default: 0.01, Label: "Confirmation threshold"},
			{Name: "volume_multiplier", Type: strategy.ParamFloat, Min: 0.1, Max: 10, Default: 1.5, Label: "Volume multiplier"},
			{Name: "atr_period", Type: strategy.ParamInt, Min: 2, Max: 100, Default: 14, Label: "ATR period"},
			{Name: "stop_atr", Type: strategy.ParamFloat, Min: 0.5, Max: 10, Default: 2, Label: "Stop distance (ATRs)"},
			{Name: "take_profit_atr", Type: strategy.ParamFloat, Min: 0.5, Max: 20, Default: 3, Label: "Take-profit distance (ATRs)"},
		},
		New: func(p strategy.Params) (strategy.Strategy, error) {
			cfg := BreakoutConfig{
				LookbackPeriod:   p.Int("lookback_period", 20),
				ConfirmPct:       p.Float("breakout_confirm_pct", 0.01),
				VolumeMultiplier: p.Float("volume_multiplier", 1.5),
				ATRPeriod:        p.Int("atr_period", 14),
				StopATR:          p.Float("stop_atr", 2),
				TakeProfitATR:    p.Float("take_profit_atr", 3),
			}
			return NewBreakout(cfg)
		},
	}
}

// NewBreakout creates a breakout strategy from a validated config.
func NewBreakout(cfg BreakoutConfig) (*Breakout, error) {
	if cfg.TakeProfitATR <= cfg.StopATR {
		return nil, fmt.Errorf("take_profit_atr %v must exceed stop_atr %v", cfg.TakeProfitATR, cfg.StopATR)
	}
	return &Breakout{
		Base: strategy.NewBase(historyBound(cfg.LookbackPeriod+1, cfg.ATRPeriod+1)),
		cfg:  cfg,
	}, nil
}

// Name returns "breakout".
func (s *Breakout) Name() string { return BreakoutID }

// WarmupPeriod returns the bars needed before signals can fire: the channel
// lookback plus the current bar, or the ATR window when that is longer.
func (s *Breakout) WarmupPeriod() int {
	return max(s.cfg.LookbackPeriod+1, s.cfg.ATRPeriod+1)
}

// GenerateSignal implements the breakout rules over the symbol's rolling
// history. The channel is computed from the bars preceding the current one,
// so the breakout bar never raises its own resistance.
func (s *Breakout) GenerateSignal(symbol string, bar domain.Bar, pos *domain.Position) *domain.Signal {
	h := s.History(symbol)
	if h.Len() < s.cfg.LookbackPeriod+1 {
		return nil
	}

	highs := h.Highs()
	lows := h.Lows()
	vols := h.Volumes()
	prior := h.Len() - 1 // exclude the current bar from the channel

	resistance, _ := indicator.HighestHigh(highs[:prior], s.cfg.LookbackPeriod)
	support, _ := indicator.LowestLow(lows[:prior], s.cfg.LookbackPeriod)
	atr, atrOK := indicator.ATR(h.Bars(), s.cfg.ATRPeriod)

	inPosition := pos != nil && pos.Qty > 0

	if inPosition {
		if bar.Close <= support*(1-s.cfg.ConfirmPct) {
			return &domain.Signal{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Type:      domain.SignalExit,
				Strength:  1,
				Reason:    fmt.Sprintf("close %.2f broke down below support %.2f", bar.Close, support),
			}
		}
		if atrOK && bar.Close <= pos.AvgCost-s.cfg.StopATR*atr {
			return &domain.Signal{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Type:      domain.SignalExit,
				Strength:  1,
				Reason:    fmt.Sprintf("ATR stop breached (close %.2f, stop %.2f)", bar.Close, pos.AvgCost-s.cfg.StopATR*atr),
			}
		}
		return nil
	}

	if bar.Close < resistance*(1+s.cfg.ConfirmPct) {
		return nil
	}
	ratio := indicator.VolumeRatio(vols[:prior], s.cfg.LookbackPeriod, bar.Volume)
	if ratio < s.cfg.VolumeMultiplier {
		return nil
	}

	sig := &domain.Signal{
		Symbol:    symbol,
		Timestamp: bar.Timestamp,
		Type:      domain.SignalLong,
		Strength:  1,
		Reason:    fmt.Sprintf("close %.2f cleared resistance %.2f on %.1fx volume", bar.Close, resistance, ratio),
	}
	if atrOK {
		sig.StopLoss = bar.Close - s.cfg.StopATR*atr
		sig.TakeProfit = bar.Close + s.cfg.TakeProfitATR*atr
	}
	return sig
}
