package backtest

import (
	"math"

	"riptide/internal/domain"
)

// Sizer converts a strategy signal into an order quantity given the current
// cash and position. The engine is long-only: Short signals size to nothing,
// and Exit signals sell round(position × strength) shares so a half-strength
// signal unwinds half the position.
type Sizer interface {
	// Size returns the order for the signal, or nil when nothing actionable
	// results (flat exit, Short signal, or no affordable quantity). refPrice
	// is the close of the bar that produced the signal.
	Size(sig *domain.Signal, refPrice float64, cash float64, pos *domain.Position) *domain.Order
}

// costBuffer is the headroom kept when sizing buys so that slippage and
// commission cannot push the fill past available cash.
const costBuffer = 1.02

// exitQty returns how many shares an exit signal unwinds.
func exitQty(pos *domain.Position, strength float64) int64 {
	if pos == nil || pos.Qty == 0 || strength <= 0 {
		return 0
	}
	qty := int64(math.Round(float64(pos.Qty) * strength))
	if qty < 1 {
		qty = 1
	}
	if qty > pos.Qty {
		qty = pos.Qty
	}
	return qty
}

// FixedQuantity buys a fixed number of shares per entry, clipped to what the
// available cash can cover.
type FixedQuantity struct {
	Qty int64
}

// Compile-time interface check.
var _ Sizer = (*FixedQuantity)(nil)

// Size implements Sizer.
func (s *FixedQuantity) Size(sig *domain.Signal, refPrice, cash float64, pos *domain.Position) *domain.Order {
	switch sig.Type {
	case domain.SignalLong:
		if refPrice <= 0 {
			return nil
		}
		qty := s.Qty
		if affordable := int64(cash / (refPrice * costBuffer)); qty > affordable {
			qty = affordable
		}
		if qty < 1 {
			return nil
		}
		return &domain.Order{
			Symbol:    sig.Symbol,
			Timestamp: sig.Timestamp,
			Type:      domain.OrderTypeMarket,
			Side:      domain.OrderSideBuy,
			Qty:       qty,
		}
	case domain.SignalExit:
		qty := exitQty(pos, sig.Strength)
		if qty == 0 {
			return nil
		}
		return &domain.Order{
			Symbol:    sig.Symbol,
			Timestamp: sig.Timestamp,
			Type:      domain.OrderTypeMarket,
			Side:      domain.OrderSideSell,
			Qty:       qty,
		}
	default:
		return nil
	}
}

// FixedFraction spends a fixed fraction of current cash per entry, scaled by
// the signal's strength.
type FixedFraction struct {
	Fraction float64
}

// Compile-time interface check.
var _ Sizer = (*FixedFraction)(nil)

// Size implements Sizer.
func (s *FixedFraction) Size(sig *domain.Signal, refPrice, cash float64, pos *domain.Position) *domain.Order {
	switch sig.Type {
	case domain.SignalLong:
		if refPrice <= 0 {
			return nil
		}
		budget := cash * s.Fraction * sig.Strength
		qty := int64(budget / (refPrice * costBuffer))
		if qty < 1 {
			return nil
		}
		return &domain.Order{
			Symbol:    sig.Symbol,
			Timestamp: sig.Timestamp,
			Type:      domain.OrderTypeMarket,
			Side:      domain.OrderSideBuy,
			Qty:       qty,
		}
	case domain.SignalExit:
		qty := exitQty(pos, sig.Strength)
		if qty == 0 {
			return nil
		}
		return &domain.Order{
			Symbol:    sig.Symbol,
			Timestamp: sig.Timestamp,
			Type:      domain.OrderTypeMarket,
			Side:      domain.OrderSideSell,
			Qty:       qty,
		}
	default:
		return nil
	}
}
