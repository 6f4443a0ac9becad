package broker

import (
	"math"
	"testing"
	"time"

	"riptide/internal/domain"
)

// mapQuotes is an in-memory QuoteProvider for tests.
type mapQuotes map[string]map[int64]domain.Bar

// Compile-time interface check.
var _ QuoteProvider = (mapQuotes)(nil)

func (m mapQuotes) GetQuote(symbol string, ts time.Time) (domain.Bar, bool) {
	bar, ok := m[symbol][ts.Unix()]
	return bar, ok
}

var testTS = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func quotesWithClose(symbol string, close float64) mapQuotes {
	return mapQuotes{
		symbol: {
			testTS.Unix(): {
				Symbol: symbol, Timestamp: testTS,
				Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 10000,
			},
		},
	}
}

func TestMatchOrder_MarketBuyWithSlippage(t *testing.T) {
	sim := NewSimulator(quotesWithClose("AAPL", 10.00), SimulatorConfig{SlippageRate: 0.001})

	fill := sim.MatchOrder(&domain.Order{
		ID: "o1", Symbol: "AAPL", Timestamp: testTS,
		Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Qty: 100,
	})

	if fill == nil {
		t.Fatal("MatchOrder returned nil")
	}
	if fill.Price != 10.01 {
		t.Errorf("Price = %v, want 10.01", fill.Price)
	}
	if fill.Slippage != 0.01 {
		t.Errorf("Slippage = %v, want 0.01", fill.Slippage)
	}
	if fill.Qty != 100 || fill.Side != domain.OrderSideBuy || fill.OrderID != "o1" {
		t.Errorf("fill fields = %+v", fill)
	}
}

func TestMatchOrder_MarketSellWithSlippage(t *testing.T) {
	sim := NewSimulator(quotesWithClose("AAPL", 10.00), SimulatorConfig{SlippageRate: 0.001})

	fill := sim.MatchOrder(&domain.Order{
		ID: "o2", Symbol: "AAPL", Timestamp: testTS,
		Type: domain.OrderTypeMarket, Side: domain.OrderSideSell, Qty: 100,
	})

	if fill == nil {
		t.Fatal("MatchOrder returned nil")
	}
	if fill.Price != 9.99 {
		t.Errorf("Price = %v, want 9.99", fill.Price)
	}
}

// Slippage must always worsen the trader's price: buy fills at or above the
// quote close, sell fills at or below it.
func TestMatchOrder_SlippageDirectionInvariant(t *testing.T) {
	closes := []float64{0.07, 1.23, 10.00, 99.99, 1234.56, 7000.01}
	for _, c := range closes {
		sim := NewSimulator(quotesWithClose("X", c), SimulatorConfig{SlippageRate: 0.002})

		buy := sim.MatchOrder(&domain.Order{Symbol: "X", Timestamp: testTS, Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Qty: 10})
		sell := sim.MatchOrder(&domain.Order{Symbol: "X", Timestamp: testTS, Type: domain.OrderTypeMarket, Side: domain.OrderSideSell, Qty: 10})

		if buy == nil || sell == nil {
			t.Fatalf("close %v: unexpected nil fill", c)
		}
		if buy.Price < c {
			t.Errorf("close %v: buy price %v below quote", c, buy.Price)
		}
		if sell.Price > c {
			t.Errorf("close %v: sell price %v above quote", c, sell.Price)
		}
	}
}

func TestMatchOrder_LimitFillsAtLimitPrice(t *testing.T) {
	// The simplified model fills limit orders at the limit price without
	// validating it against the bar's range.
	sim := NewSimulator(quotesWithClose("AAPL", 10.00), SimulatorConfig{SlippageRate: 0.001})

	fill := sim.MatchOrder(&domain.Order{
		ID: "o3", Symbol: "AAPL", Timestamp: testTS,
		Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Qty: 50, LimitPrice: 9.50,
	})

	if fill == nil {
		t.Fatal("MatchOrder returned nil")
	}
	if want := 9.51; fill.Price != want { // 9.50 × 1.001 rounded
		t.Errorf("Price = %v, want %v", fill.Price, want)
	}
}

func TestMatchOrder_LimitWithoutPriceRejected(t *testing.T) {
	sim := NewSimulator(quotesWithClose("AAPL", 10.00), SimulatorConfig{})

	fill := sim.MatchOrder(&domain.Order{
		Symbol: "AAPL", Timestamp: testTS,
		Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy, Qty: 50,
	})
	if fill != nil {
		t.Errorf("fill = %+v, want nil for limit order without price", fill)
	}
}

func TestMatchOrder_NoQuoteReturnsNil(t *testing.T) {
	sim := NewSimulator(mapQuotes{}, SimulatorConfig{SlippageRate: 0.001})

	fill := sim.MatchOrder(&domain.Order{
		Symbol: "AAPL", Timestamp: testTS,
		Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Qty: 100,
	})
	if fill != nil {
		t.Errorf("fill = %+v, want nil without a quote", fill)
	}
}

func TestMatchOrder_Commission(t *testing.T) {
	sim := NewSimulator(quotesWithClose("AAPL", 100.00), SimulatorConfig{
		CommissionRate: 0.001,
		MinCommission:  1.0,
	})

	// Notional 100.00 × 100 = 10000 → commission 10.00.
	fill := sim.MatchOrder(&domain.Order{Symbol: "AAPL", Timestamp: testTS, Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Qty: 100})
	if fill == nil {
		t.Fatal("nil fill")
	}
	if fill.Commission != 10.00 {
		t.Errorf("Commission = %v, want 10.00", fill.Commission)
	}

	// Tiny notional floors at MinCommission.
	small := sim.MatchOrder(&domain.Order{Symbol: "AAPL", Timestamp: testTS, Type: domain.OrderTypeMarket, Side: domain.OrderSideBuy, Qty: 1})
	if small.Commission != 1.00 {
		t.Errorf("Commission = %v, want MinCommission 1.00", small.Commission)
	}
}

func TestMarketValue(t *testing.T) {
	sim := NewSimulator(quotesWithClose("AAPL", 123.45), SimulatorConfig{})

	if got := sim.MarketValue("AAPL", 10, testTS); math.Abs(got-1234.5) > 1e-9 {
		t.Errorf("MarketValue = %v, want 1234.5", got)
	}
	if got := sim.MarketValue("MSFT", 10, testTS); got != 0 {
		t.Errorf("MarketValue without quote = %v, want 0", got)
	}
}
