package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
)

// RecordSource provides read-only access to the records being published.
type RecordSource interface {
	// List returns every record in source order.
	List(ctx context.Context) ([]domain.Record, error)

	// Get returns a record by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Record, error)
}

// RecordChange describes how the source changed between two reads.
type RecordChange struct {
	// Upserted holds IDs that were added or modified.
	Upserted []string

	// Removed holds IDs that no longer exist.
	Removed []string
}

// IsEmpty returns true if nothing changed.
func (c RecordChange) IsEmpty() bool {
	return len(c.Upserted) == 0 && len(c.Removed) == 0
}

// RecordWatcher streams changes to a record source.
type RecordWatcher interface {
	// Watch emits a RecordChange each time the source changes.
	// Both channels are closed when ctx is cancelled.
	Watch(ctx context.Context) (<-chan RecordChange, <-chan error, error)
}
