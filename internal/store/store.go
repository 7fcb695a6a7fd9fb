// Package store owns the durable copy of the lab snapshot.  Two backends
// implement the same contract: a JSON document on disk (the default) and a
// single-row MySQL table.  Load on an absent or corrupt backing store never
// fails; it replaces the data with the default layout and persists it.
package store

import (
	"context"
	"time"

	"github.com/iliyamo/lab-occupancy/internal/model"
)

// Store is the single source of truth for the lab state.  Save must be
// atomic from the caller's perspective: a concurrent Load observes either
// the previous snapshot or the new one, never a partial write.
type Store interface {
	// Load returns the current snapshot, installing defaults when the
	// backing data is absent or fails structural validation.
	Load(ctx context.Context) (*model.Snapshot, error)
	// Save atomically replaces the persisted snapshot.
	Save(ctx context.Context, snap *model.Snapshot) error
	// Clear drops the persisted snapshot so the next Load reinitializes.
	Clear(ctx context.Context) error
}

// now is swapped in tests to pin the default layout's timestamps.
var now = func() time.Time { return time.Now().UTC() }
