package core

import (
	"context"
)

// SnapshotStore handles the persistence of bucketed snapshots. Stores are
// write-only.
type SnapshotStore interface {
	// Save writes the snapshot and returns where it was written.
	Save(ctx context.Context, snap Snapshot) (string, error)
}
