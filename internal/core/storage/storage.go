// Package storage defines the persistence contract for the day-entry log.
// The engine never talks to a store directly; services load the full entry
// set and hand it to the engine, which sorts and diffs it itself.
package storage

import (
	"context"
	"errors"

	"github.com/numcal-lab/numcal/internal/core/period"
)

// ErrNotFound marks a lookup or delete against a date key with no entry.
var ErrNotFound = errors.New("entry not found")

// EntryStore is the interface for durable day-entry persistence.
// Entries are keyed by day; writing a key that already exists replaces
// that day's numbers wholesale.
type EntryStore interface {
	// UpsertEntry stores or replaces the entry for rec.DateKey.
	UpsertEntry(ctx context.Context, rec period.DayRecord) error

	// DeleteEntry removes the entry for dateKey.
	// Returns ErrNotFound if no entry exists.
	DeleteEntry(ctx context.Context, dateKey string) error

	// GetEntry fetches a single entry by date key.
	// Returns ErrNotFound if no entry exists.
	GetEntry(ctx context.Context, dateKey string) (period.DayRecord, error)

	// ListEntries returns every stored entry. Order is unspecified;
	// the engine sorts on every recompute.
	ListEntries(ctx context.Context) ([]period.DayRecord, error)
}
