// Package builtins provides the built-in strategy implementations that ship
// with the riptide engine: momentum, mean reversion, breakout, and dual
// moving-average crossover. Each strategy publishes a declarative parameter
// schema and is constructed through the strategy Registry, which validates
// parameters before the strategy ever sees a bar.
package builtins

import (
	"riptide/internal/strategy"
)

// Register adds all built-in strategy descriptors to the registry.
func Register(r *strategy.Registry) {
	r.Register(momentumDescriptor())
	r.Register(meanReversionDescriptor())
	r.Register(breakoutDescriptor())
	r.Register(dualMADescriptor())
}

// historyBound sizes a strategy's rolling window comfortably above its
// largest lookback so indicators always have the data they need.
func historyBound(periods ...int) int {
	max := 0
	for _, p := range periods {
		if p > max {
			max = p
		}
	}
	return 4 * max
}
