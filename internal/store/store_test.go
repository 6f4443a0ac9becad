package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"riptide/internal/domain"
)

func sampleBars() []domain.Bar {
	return []domain.Bar{
		{
			Symbol:     "AAPL",
			Timestamp:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open:       185.0,
			High:       186.5,
			Low:        184.0,
			Close:      185.5,
			Volume:     50000000,
			TradeCount: 500000,
			VWAP:       185.25,
		},
		{
			Symbol:     "AAPL",
			Timestamp:  time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Open:       185.5,
			High:       187.0,
			Low:        185.0,
			Close:      186.0,
			Volume:     45000000,
			TradeCount: 450000,
			VWAP:       185.75,
		},
	}
}

// runBarStoreTests exercises the BarStore contract shared by both backends.
func runBarStoreTests(t *testing.T, s BarStore) {
	t.Helper()
	ctx := context.Background()
	bars := sampleBars()

	if err := s.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Errorf("bars not sorted by timestamp: %v then %v", got[0].Timestamp, got[1].Timestamp)
	}
	if got[0].Close != 185.5 || got[1].Close != 186.0 {
		t.Errorf("unexpected closes: %.2f, %.2f", got[0].Close, got[1].Close)
	}

	// Re-writing one bar with a revised close must replace, not duplicate.
	revised := bars[0]
	revised.Close = 185.75
	if err := s.WriteBars(ctx, []domain.Bar{revised}); err != nil {
		t.Fatalf("WriteBars (revision): %v", err)
	}
	got, err = s.ReadBars(ctx, "AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars after revision: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("revision duplicated rows: got %d bars, want 2", len(got))
	}
	if got[0].Close != 185.75 {
		t.Errorf("revised close = %.2f, want 185.75", got[0].Close)
	}

	// Range filter excludes bars outside [start, end].
	got, err = s.ReadBars(ctx, "AAPL",
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars (single day): %v", err)
	}
	if len(got) != 1 || !got[0].Timestamp.Equal(bars[1].Timestamp) {
		t.Errorf("single-day read returned %d bars", len(got))
	}

	// Unknown symbol surfaces ErrNoBars.
	if _, err := s.ReadBars(ctx, "ZZZZ",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrNoBars) {
		t.Errorf("ReadBars unknown symbol: err = %v, want ErrNoBars", err)
	}

	// Invalid bars are rejected before anything is written.
	bad := domain.Bar{
		Symbol:    "MSFT",
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:      100, High: 90, Low: 95, Close: 98, Volume: 1000,
	}
	if err := s.WriteBars(ctx, []domain.Bar{bad}); err == nil {
		t.Error("WriteBars accepted a bar with high < low")
	}

	symbols, err := s.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 1 || symbols[0] != "AAPL" {
		t.Errorf("ListSymbols = %v, want [AAPL]", symbols)
	}
}

func TestParquetStore(t *testing.T) {
	runBarStoreTests(t, NewParquetStore(t.TempDir()))
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bars.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	runBarStoreTests(t, s)
}

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")
	ts := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	got := ps.barPath("aapl", ts)
	want := filepath.Join("/data", "daily", "AAPL", "2024.parquet")
	if got != want {
		t.Errorf("barPath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetStoreSpansYears(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bars := []domain.Bar{
		{Symbol: "SPY", Timestamp: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC),
			Open: 475, High: 477, Low: 474, Close: 476, Volume: 1000},
		{Symbol: "SPY", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open: 476, High: 478, Low: 475, Close: 477, Volume: 1100},
	}
	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := ps.ReadBars(ctx, "SPY",
		time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("cross-year read returned %d bars, want 2", len(got))
	}
}
