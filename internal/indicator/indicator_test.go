package indicator

import (
	"math"
	"testing"
	"time"

	"riptide/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
		wantOK bool
	}{
		{"trailing window", prices, 3, 4, true},
		{"full window", prices, 5, 3, true},
		{"insufficient history", prices, 6, 0, false},
		{"empty", nil, 3, 0, false},
		{"zero period", prices, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SMA(tt.prices, tt.period)
			if ok != tt.wantOK {
				t.Fatalf("SMA ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !almostEqual(got, tt.want) {
				t.Errorf("SMA = %v, want %v", got, tt.want)
			}
		})
	}
}

// SMA must be unavailable for every length below the period and equal the
// trailing-window mean for every length at or above it.
func TestSMA_Boundary(t *testing.T) {
	const period = 10
	var prices []float64
	for i := 1; i <= 25; i++ {
		prices = append(prices, float64(i))

		got, ok := SMA(prices, period)
		if len(prices) < period {
			if ok {
				t.Fatalf("len=%d: SMA returned ok, want unavailable", len(prices))
			}
			continue
		}
		if !ok {
			t.Fatalf("len=%d: SMA unavailable, want value", len(prices))
		}
		sum := 0.0
		for _, p := range prices[len(prices)-period:] {
			sum += p
		}
		if want := sum / period; !almostEqual(got, want) {
			t.Errorf("len=%d: SMA = %v, want %v", len(prices), got, want)
		}
	}
}

func TestEMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}

	// Seed = SMA(1,2,3) = 2, alpha = 0.5.
	// After 4: 0.5*4 + 0.5*2 = 3. After 5: 0.5*5 + 0.5*3 = 4.
	got, ok := EMA(prices, 3)
	if !ok {
		t.Fatal("EMA unavailable")
	}
	if !almostEqual(got, 4) {
		t.Errorf("EMA = %v, want 4", got)
	}

	if _, ok := EMA(prices[:2], 3); ok {
		t.Error("EMA returned ok with insufficient history")
	}
}

func TestRSI(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5, 6}
	down := []float64{6, 5, 4, 3, 2, 1}
	flat := []float64{5, 5, 5, 5, 5, 5}

	if got, ok := RSI(up, 5); !ok || !almostEqual(got, 100) {
		t.Errorf("RSI(all gains) = %v/%v, want 100/true", got, ok)
	}
	if got, ok := RSI(down, 5); !ok || !almostEqual(got, 0) {
		t.Errorf("RSI(all losses) = %v/%v, want 0/true", got, ok)
	}
	if got, ok := RSI(flat, 5); !ok || !almostEqual(got, 50) {
		t.Errorf("RSI(flat) = %v/%v, want 50/true", got, ok)
	}
	if _, ok := RSI(up[:5], 5); ok {
		t.Error("RSI returned ok with only period prices (needs period+1)")
	}

	// Mixed: changes +1 -1 +1 -1 over period 4 → equal gains/losses → 50.
	mixed := []float64{10, 11, 10, 11, 10}
	if got, ok := RSI(mixed, 4); !ok || !almostEqual(got, 50) {
		t.Errorf("RSI(mixed) = %v/%v, want 50/true", got, ok)
	}

	// RSI always stays within [0,100].
	prices := []float64{3, 9, 4, 8, 1, 7, 2, 6, 5, 10}
	for n := 6; n <= len(prices); n++ {
		got, ok := RSI(prices[:n], 5)
		if !ok {
			t.Fatalf("RSI unavailable at n=%d", n)
		}
		if got < 0 || got > 100 {
			t.Errorf("RSI = %v out of [0,100]", got)
		}
	}
}

func TestTrueRange(t *testing.T) {
	tests := []struct {
		name                 string
		high, low, prevClose float64
		want                 float64
	}{
		{"plain range", 12, 10, 11, 2},
		{"gap up", 15, 14, 10, 5},
		{"gap down", 8, 7, 12, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrueRange(tt.high, tt.low, tt.prevClose); !almostEqual(got, tt.want) {
				t.Errorf("TrueRange = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestATR(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bar := func(i int, high, low, close float64) domain.Bar {
		return domain.Bar{
			Symbol: "T", Timestamp: ts.AddDate(0, 0, i),
			Open: close, High: high, Low: low, Close: close, Volume: 1,
		}
	}

	bars := []domain.Bar{
		bar(0, 10, 9, 9.5),
		bar(1, 11, 10, 10.5), // TR = max(1, 1.5, 0.5) = 1.5
		bar(2, 12, 11, 11.5), // TR = max(1, 1.5, 0.5) = 1.5
	}

	got, ok := ATR(bars, 2)
	if !ok {
		t.Fatal("ATR unavailable")
	}
	if !almostEqual(got, 1.5) {
		t.Errorf("ATR = %v, want 1.5", got)
	}

	if _, ok := ATR(bars[:2], 2); ok {
		t.Error("ATR returned ok with insufficient history")
	}
}

func TestBollinger(t *testing.T) {
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9} // mean 5, population stddev 2

	upper, middle, lower, ok := Bollinger(prices, 8, 2)
	if !ok {
		t.Fatal("Bollinger unavailable")
	}
	if !almostEqual(middle, 5) || !almostEqual(upper, 9) || !almostEqual(lower, 1) {
		t.Errorf("Bollinger = (%v, %v, %v), want (9, 5, 1)", upper, middle, lower)
	}
}

func TestBollinger_ZeroVarianceCollapses(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5}
	upper, middle, lower, ok := Bollinger(flat, 5, 2)
	if !ok {
		t.Fatal("Bollinger unavailable")
	}
	if !almostEqual(upper, 5) || !almostEqual(middle, 5) || !almostEqual(lower, 5) {
		t.Errorf("Bollinger(flat) = (%v, %v, %v), want all 5", upper, middle, lower)
	}
}

func TestZScore(t *testing.T) {
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	got, ok := ZScore(prices, 8, 9)
	if !ok || !almostEqual(got, 2) {
		t.Errorf("ZScore = %v/%v, want 2/true", got, ok)
	}

	// Zero variance is a neutral 0, not a division panic.
	flat := []float64{5, 5, 5, 5}
	got, ok = ZScore(flat, 4, 7)
	if !ok || !almostEqual(got, 0) {
		t.Errorf("ZScore(flat) = %v/%v, want 0/true", got, ok)
	}
}

func TestVolumeRatio(t *testing.T) {
	vols := []int64{100, 100, 100, 100}

	if got := VolumeRatio(vols, 4, 200); !almostEqual(got, 2) {
		t.Errorf("VolumeRatio = %v, want 2", got)
	}
	// Insufficient history and zero average both fall back to neutral 1.0.
	if got := VolumeRatio(vols[:2], 4, 200); !almostEqual(got, 1) {
		t.Errorf("VolumeRatio(short) = %v, want 1", got)
	}
	if got := VolumeRatio([]int64{0, 0, 0, 0}, 4, 200); !almostEqual(got, 1) {
		t.Errorf("VolumeRatio(zero avg) = %v, want 1", got)
	}
}

func TestWindowExtrema(t *testing.T) {
	values := []float64{3, 7, 2, 9, 4}

	if got, ok := HighestHigh(values, 3); !ok || !almostEqual(got, 9) {
		t.Errorf("HighestHigh = %v/%v, want 9/true", got, ok)
	}
	if got, ok := LowestLow(values, 3); !ok || !almostEqual(got, 2) {
		t.Errorf("LowestLow = %v/%v, want 2/true", got, ok)
	}
	if _, ok := HighestHigh(values, 6); ok {
		t.Error("HighestHigh returned ok with insufficient history")
	}
}
