// Package strategy defines the Strategy contract implemented by all trading
// strategies, the declarative parameter schema used by external configuration
// surfaces, and a Registry for constructing validated strategy instances by
// id.
package strategy

import (
	"riptide/internal/domain"
)

// Strategy is the interface that all trading strategies must implement.
//
// A strategy owns a per-symbol rolling history of bars and nothing else: no
// strategy state is shared across symbols or across instances, and
// GenerateSignal must be a pure function of that history, the current bar,
// and the strategy's parameters. Parameter validation happens once, at
// construction, via the Registry.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// WarmupPeriod returns the number of bars the strategy must observe for a
	// symbol before GenerateSignal can produce an opinion.
	WarmupPeriod() int

	// UpdateHistory appends a bar to the strategy's rolling window for the
	// given symbol. The window never discards data still needed for the
	// configured lookback.
	UpdateHistory(symbol string, bar domain.Bar)

	// GenerateSignal returns the strategy's opinion for the current bar given
	// the current position (nil when flat), or nil when no actionable opinion
	// exists — including when the rolling history is still shorter than the
	// configured lookback.
	GenerateSignal(symbol string, bar domain.Bar, pos *domain.Position) *domain.Signal
}

// Base provides the per-symbol rolling history cache embedded by the
// built-in strategies. maxBars bounds each window; zero means unbounded.
type Base struct {
	maxBars   int
	histories map[string]*History
}

// NewBase creates a history cache whose per-symbol windows hold at most
// maxBars bars.
func NewBase(maxBars int) Base {
	return Base{
		maxBars:   maxBars,
		histories: make(map[string]*History),
	}
}

// UpdateHistory appends a bar to the symbol's rolling window.
func (b *Base) UpdateHistory(symbol string, bar domain.Bar) {
	h, ok := b.histories[symbol]
	if !ok {
		h = newHistory(b.maxBars)
		b.histories[symbol] = h
	}
	h.Append(bar)
}

// History returns the rolling window for a symbol. The window is empty but
// non-nil for symbols that have never seen a bar.
func (b *Base) History(symbol string) *History {
	h, ok := b.histories[symbol]
	if !ok {
		h = newHistory(b.maxBars)
		b.histories[symbol] = h
	}
	return h
}
