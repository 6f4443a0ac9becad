// Package store defines the storage boundary for historical bar data and
// provides Parquet and SQLite backed implementations.
package store

import (
	"context"
	"errors"
	"time"

	"riptide/internal/domain"
)

// ErrNoBars is returned by ReadBars when storage holds no bars for the
// requested symbol and range.
var ErrNoBars = errors.New("store: no bars for symbol in range")

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with any already stored.
	// Bars failing validation are rejected and the batch is not written.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// sorted by timestamp ascending.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars, sorted.
	ListSymbols(ctx context.Context) ([]string, error)
}

// validateBatch checks every bar before a write so that a bad upstream feed
// cannot poison storage.
func validateBatch(bars []domain.Bar) error {
	for i := range bars {
		if err := bars[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
