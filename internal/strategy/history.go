package strategy

import (
	"riptide/internal/domain"
)

// History is a bounded rolling window of bars for one symbol, with parallel
// close/high/low/volume slices so indicator functions can consume them
// without per-call copying. The slices returned by the accessors are views
// into the window and must be treated as read-only.
type History struct {
	maxBars int
	bars    []domain.Bar
	closes  []float64
	highs   []float64
	lows    []float64
	volumes []int64
}

func newHistory(maxBars int) *History {
	return &History{maxBars: maxBars}
}

// Append adds a bar to the window, evicting the oldest bars once the window
// exceeds its bound. Eviction shifts in place, so Append is O(window) in the
// worst case and O(1) amortized for the unbounded window.
func (h *History) Append(bar domain.Bar) {
	h.bars = append(h.bars, bar)
	h.closes = append(h.closes, bar.Close)
	h.highs = append(h.highs, bar.High)
	h.lows = append(h.lows, bar.Low)
	h.volumes = append(h.volumes, bar.Volume)

	if h.maxBars > 0 && len(h.bars) > h.maxBars {
		n := len(h.bars) - h.maxBars
		h.bars = append(h.bars[:0], h.bars[n:]...)
		h.closes = append(h.closes[:0], h.closes[n:]...)
		h.highs = append(h.highs[:0], h.highs[n:]...)
		h.lows = append(h.lows[:0], h.lows[n:]...)
		h.volumes = append(h.volumes[:0], h.volumes[n:]...)
	}
}

// Len returns the number of bars currently in the window.
func (h *History) Len() int { return len(h.bars) }

// Bars returns the windowed bars, oldest first.
func (h *History) Bars() []domain.Bar { return h.bars }

// Closes returns the windowed close prices, oldest first.
func (h *History) Closes() []float64 { return h.closes }

// Highs returns the windowed high prices, oldest first.
func (h *History) Highs() []float64 { return h.highs }

// Lows returns the windowed low prices, oldest first.
func (h *History) Lows() []float64 { return h.lows }

// Volumes returns the windowed volumes, oldest first.
func (h *History) Volumes() []int64 { return h.volumes }
