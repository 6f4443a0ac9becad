package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestBarValidate(t *testing.T) {
	ts := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		bar     Bar
		wantErr bool
	}{
		{
			name: "valid",
			bar:  Bar{Symbol: "AAPL", Timestamp: ts, Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
		},
		{
			name:    "empty symbol",
			bar:     Bar{Timestamp: ts, Open: 100, High: 102, Low: 99, Close: 101},
			wantErr: true,
		},
		{
			name:    "zero timestamp",
			bar:     Bar{Symbol: "AAPL", Open: 100, High: 102, Low: 99, Close: 101},
			wantErr: true,
		},
		{
			name:    "close above high",
			bar:     Bar{Symbol: "AAPL", Timestamp: ts, Open: 100, High: 102, Low: 99, Close: 103},
			wantErr: true,
		},
		{
			name:    "open below low",
			bar:     Bar{Symbol: "AAPL", Timestamp: ts, Open: 98, High: 102, Low: 99, Close: 101},
			wantErr: true,
		},
		{
			name:    "negative volume",
			bar:     Bar{Symbol: "AAPL", Timestamp: ts, Open: 100, High: 102, Low: 99, Close: 101, Volume: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate returned nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate returned %v, want nil", err)
			}
			if tt.wantErr && err != nil && !errors.Is(err, ErrInvalidBar) {
				t.Errorf("error %v does not wrap ErrInvalidBar", err)
			}
		})
	}
}

func TestFillTotal(t *testing.T) {
	f := Fill{Side: OrderSideBuy, Qty: 100, Price: 10.01, Commission: 1.0}
	if got, want := f.Total(), 10.01*100+1.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("Total() = %v, want %v", got, want)
	}
}

func TestPositionApply_BuyBlendsAvgCost(t *testing.T) {
	p := &Position{Symbol: "AAPL"}

	if err := p.Apply(Fill{Symbol: "AAPL", Side: OrderSideBuy, Qty: 100, Price: 10}); err != nil {
		t.Fatalf("Apply buy: %v", err)
	}
	if err := p.Apply(Fill{Symbol: "AAPL", Side: OrderSideBuy, Qty: 100, Price: 12}); err != nil {
		t.Fatalf("Apply buy: %v", err)
	}

	if p.Qty != 200 {
		t.Errorf("Qty = %d, want 200", p.Qty)
	}
	if math.Abs(p.AvgCost-11) > 1e-9 {
		t.Errorf("AvgCost = %v, want 11", p.AvgCost)
	}
}

func TestPositionApply_SellRealizesPnL(t *testing.T) {
	p := &Position{Symbol: "AAPL", Qty: 100, AvgCost: 10}

	if err := p.Apply(Fill{Symbol: "AAPL", Side: OrderSideSell, Qty: 100, Price: 12}); err != nil {
		t.Fatalf("Apply sell: %v", err)
	}

	if p.Qty != 0 {
		t.Errorf("Qty = %d, want 0", p.Qty)
	}
	if p.AvgCost != 0 {
		t.Errorf("AvgCost = %v, want 0 after close", p.AvgCost)
	}
	if math.Abs(p.RealizedPnL-200) > 1e-9 {
		t.Errorf("RealizedPnL = %v, want 200", p.RealizedPnL)
	}
}

func TestPositionApply_OversellRejected(t *testing.T) {
	p := &Position{Symbol: "AAPL", Qty: 50, AvgCost: 10}

	err := p.Apply(Fill{Symbol: "AAPL", Side: OrderSideSell, Qty: 100, Price: 12})
	if !errors.Is(err, ErrOversell) {
		t.Errorf("Apply = %v, want ErrOversell", err)
	}
	if p.Qty != 50 {
		t.Errorf("Qty = %d, want 50 (unchanged)", p.Qty)
	}
}
