package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
)

// IndexInspector reports on the index without mutating it.
type IndexInspector interface {
	// Status returns a snapshot of the index and sync state.
	Status(ctx context.Context) (*IndexStatus, error)

	// Search queries indexed items.
	Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error)
}

// IndexStatus is a snapshot of the index and sync state.
type IndexStatus struct {
	// IndexName identifies the index instance.
	IndexName string

	// Available is false when the host has no index.
	Available bool

	// State is the decoded client state.
	State domain.ClientState

	// Phase is the coordinator's view.
	Phase domain.SyncPhase

	// ItemCount is the number of indexed items, or -1 if unknown.
	ItemCount int

	// RecordCount is the number of source records.
	RecordCount int
}
