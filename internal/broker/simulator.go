// Package broker simulates order execution against historical quotes. The
// Simulator turns an Order plus the bar for its timestamp into a Fill with
// directional slippage and commission, and prices open positions for equity
// bookkeeping.
package broker

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"riptide/internal/domain"
)

// QuoteProvider supplies the bar used to price an order. The backtest driver
// injects an in-memory provider built from the bars loaded before replay;
// no I/O happens per order.
type QuoteProvider interface {
	// GetQuote returns the bar for the symbol at the timestamp, or false when
	// no data exists.
	GetQuote(symbol string, ts time.Time) (domain.Bar, bool)
}

// SimulatorConfig holds the execution-cost model.
type SimulatorConfig struct {
	// SlippageRate is the fractional price penalty applied against the trader
	// on every fill: buys pay price × (1+rate), sells receive price × (1−rate).
	SlippageRate float64

	// CommissionRate is the commission as a fraction of fill notional.
	CommissionRate float64

	// MinCommission floors the commission per fill.
	MinCommission float64
}

// Simulator is the simulated exchange. All monetary values are rounded to
// two decimal places here, at the fill boundary, and nowhere upstream.
type Simulator struct {
	quotes QuoteProvider
	cfg    SimulatorConfig
	log    *slog.Logger
}

// NewSimulator creates a Simulator pricing orders against the given quotes.
func NewSimulator(quotes QuoteProvider, cfg SimulatorConfig) *Simulator {
	return &Simulator{
		quotes: quotes,
		cfg:    cfg,
		log:    slog.Default().With("component", "simulator"),
	}
}

// GetQuote returns the bar for the symbol at the timestamp, or false when no
// data exists.
func (s *Simulator) GetQuote(symbol string, ts time.Time) (domain.Bar, bool) {
	return s.quotes.GetQuote(symbol, ts)
}

// MatchOrder simulates execution of the order at its timestamp. Market
// orders fill at the bar's close; limit and stop orders fill at their
// specified price without checking the bar's intrabar range (see the
// simplified fill model note in DESIGN.md). Returns nil when no quote exists
// for the order's symbol and timestamp, or when a limit/stop order carries
// no price.
func (s *Simulator) MatchOrder(order *domain.Order) *domain.Fill {
	quote, ok := s.quotes.GetQuote(order.Symbol, order.Timestamp)
	if !ok {
		s.log.Debug("no quote for order", "symbol", order.Symbol, "ts", order.Timestamp)
		return nil
	}

	var base float64
	switch order.Type {
	case domain.OrderTypeMarket:
		base = quote.Close
	case domain.OrderTypeLimit:
		base = order.LimitPrice
	case domain.OrderTypeStop:
		base = order.StopPrice
	}
	if base <= 0 {
		s.log.Warn("order has no usable price", "type", order.Type, "symbol", order.Symbol)
		return nil
	}

	// Slippage always worsens the trader's price.
	mult := 1 + s.cfg.SlippageRate
	if order.Side == domain.OrderSideSell {
		mult = 1 - s.cfg.SlippageRate
	}

	basePrice := decimal.NewFromFloat(base)
	fillPrice := basePrice.Mul(decimal.NewFromFloat(mult)).Round(2)
	slippage := fillPrice.Sub(basePrice).Abs().Round(2)

	notional := fillPrice.Mul(decimal.NewFromInt(order.Qty))
	commission := notional.Mul(decimal.NewFromFloat(s.cfg.CommissionRate)).Round(2)
	if min := decimal.NewFromFloat(s.cfg.MinCommission); commission.LessThan(min) {
		commission = min
	}

	return &domain.Fill{
		OrderID:    order.ID,
		Symbol:     order.Symbol,
		Timestamp:  order.Timestamp,
		Side:       order.Side,
		Qty:        order.Qty,
		Price:      fillPrice.InexactFloat64(),
		Commission: commission.InexactFloat64(),
		Slippage:   slippage.InexactFloat64(),
	}
}

// MarketValue returns close × quantity for the symbol at the timestamp, or
// 0 when no quote exists.
func (s *Simulator) MarketValue(symbol string, qty int64, ts time.Time) float64 {
	quote, ok := s.quotes.GetQuote(symbol, ts)
	if !ok {
		return 0
	}
	return quote.Close * float64(qty)
}
