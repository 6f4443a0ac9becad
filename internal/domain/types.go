// Package domain defines the core event types flowing through the backtest
// engine: market bars, strategy signals, orders, fills, positions, and
// progress updates. Events are created once and treated as read-only by
// every downstream consumer.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Enumerations
// ---------------------------------------------------------------------------

// SignalType is the direction of a strategy's opinion.
type SignalType string

const (
	SignalLong  SignalType = "long"
	SignalShort SignalType = "short"
	SignalExit  SignalType = "exit"
)

// OrderSide is the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is the execution type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
	OrderTypeStop   OrderType = "stop"
)

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Bar is a single OHLCV record for a symbol at a fixed granularity. Bars are
// produced by the data layer and never mutated afterwards.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	AdjClose   float64 // optional; 0 when the source provides none
	TradeCount int64
	VWAP       float64
}

// ErrInvalidBar is returned by Validate for bars that violate the OHLCV
// invariants.
var ErrInvalidBar = errors.New("invalid bar")

// Validate checks the OHLCV invariants: low ≤ open,close ≤ high and a
// non-negative volume.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidBar)
	}
	if b.Timestamp.IsZero() {
		return fmt.Errorf("%w: %s has zero timestamp", ErrInvalidBar, b.Symbol)
	}
	if b.Low > b.Open || b.Low > b.Close || b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("%w: %s@%s OHLC out of range (o=%v h=%v l=%v c=%v)",
			ErrInvalidBar, b.Symbol, b.Timestamp.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: %s@%s negative volume %d",
			ErrInvalidBar, b.Symbol, b.Timestamp.Format("2006-01-02"), b.Volume)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Signals
// ---------------------------------------------------------------------------

// Signal is a strategy's directional opinion at a point in time. Strength is
// advisory in [0,1] and is used by the driver's sizing policy, not enforced
// by the strategy. Price fields are optional; 0 means unset.
type Signal struct {
	Symbol     string
	Timestamp  time.Time
	Type       SignalType
	Strength   float64
	Reason     string
	Target     float64
	StopLoss   float64
	TakeProfit float64
}

// ---------------------------------------------------------------------------
// Orders and fills
// ---------------------------------------------------------------------------

// Order is a request to trade, created by the backtest driver from a Signal
// plus the active sizing policy. Strategies never create Orders directly.
type Order struct {
	ID         string
	Symbol     string
	Timestamp  time.Time
	Type       OrderType
	Side       OrderSide
	Qty        int64
	LimitPrice float64 // required for limit orders
	StopPrice  float64 // required for stop orders
}

// Fill is the simulated outcome of an Order: the post-slippage execution
// price, the commission charged, and the slippage cost. Fills are produced
// only by the order simulator and appended to the driver's trade ledger.
type Fill struct {
	OrderID    string
	Symbol     string
	Timestamp  time.Time
	Side       OrderSide
	Qty        int64
	Price      float64 // post-slippage, rounded to 2 decimal places
	Commission float64
	Slippage   float64 // per-share price penalty, always ≥ 0
}

// Total returns the gross amount of the fill: price × quantity + commission.
func (f Fill) Total() float64 {
	return f.Price*float64(f.Qty) + f.Commission
}

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// Position tracks the holdings for one symbol. The engine is long-only:
// quantity never goes below zero. Positions are mutated only by applying
// fills.
type Position struct {
	Symbol      string
	Qty         int64
	AvgCost     float64
	RealizedPnL float64
}

// ErrOversell is returned when a sell fill exceeds the held quantity.
var ErrOversell = errors.New("sell quantity exceeds position")

// Apply updates the position with a fill. Buys raise the quantity and blend
// the average cost; sells reduce the quantity and realize P&L against the
// average cost. Closing the position resets the average cost to zero.
func (p *Position) Apply(f Fill) error {
	switch f.Side {
	case OrderSideBuy:
		total := p.AvgCost*float64(p.Qty) + f.Price*float64(f.Qty)
		p.Qty += f.Qty
		p.AvgCost = total / float64(p.Qty)
	case OrderSideSell:
		if f.Qty > p.Qty {
			return fmt.Errorf("%w: %s sell %d > held %d", ErrOversell, f.Symbol, f.Qty, p.Qty)
		}
		p.RealizedPnL += (f.Price - p.AvgCost) * float64(f.Qty)
		p.Qty -= f.Qty
		if p.Qty == 0 {
			p.AvgCost = 0
		}
	default:
		return fmt.Errorf("unknown fill side %q", f.Side)
	}
	return nil
}

// MarketValue returns the position's value at the given price.
func (p *Position) MarketValue(price float64) float64 {
	return price * float64(p.Qty)
}

// ---------------------------------------------------------------------------
// Progress
// ---------------------------------------------------------------------------

// Progress reports how far a backtest run has advanced. It is delivered to
// the progress sink injected at run start.
type Progress struct {
	BacktestID  string
	Percent     float64
	CurrentDate time.Time
	Message     string
}
