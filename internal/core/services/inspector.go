package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

// Ensure Inspector implements the interface.
var _ driving.IndexInspector = (*Inspector)(nil)

// Inspector reports on the index without mutating it.
// Reads of the client state go through the synchronizer lane so they
// observe every batch queued before them.
type Inspector struct {
	sync        driving.BatchSynchronizer
	index       driven.SearchIndex
	querier     driven.ItemQuerier
	source      driven.RecordSource
	coordinator driving.ReindexCoordinator
}

// NewInspector creates an inspector. querier may be nil if the index
// cannot be queried; coordinator may be nil if no phase is tracked.
func NewInspector(
	sync driving.BatchSynchronizer,
	index driven.SearchIndex,
	querier driven.ItemQuerier,
	source driven.RecordSource,
	coordinator driving.ReindexCoordinator,
) *Inspector {
	return &Inspector{
		sync:        sync,
		index:       index,
		querier:     querier,
		source:      source,
		coordinator: coordinator,
	}
}

// Status returns a snapshot of the index and sync state.
func (i *Inspector) Status(ctx context.Context) (*driving.IndexStatus, error) {
	status := &driving.IndexStatus{
		IndexName: i.index.Name(),
		Available: i.index.IsAvailable(),
		State:     domain.ClientStateUnknown,
		Phase:     domain.PhaseUnknown,
		ItemCount: -1,
	}
	if i.coordinator != nil {
		status.Phase = i.coordinator.Phase()
	}

	records, err := i.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	status.RecordCount = len(records)

	if !status.Available {
		return status, nil
	}

	type fetched struct {
		data []byte
		err  error
	}
	f, err := driving.Await(ctx, func(done func(fetched)) error {
		return i.sync.FetchState(func(data []byte, err error) {
			done(fetched{data: data, err: err})
		})
	})
	if err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	status.State = domain.DecodeClientState(f.data)

	if i.querier != nil {
		n, err := i.querier.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count items: %w", err)
		}
		status.ItemCount = n
	}

	return status, nil
}

// Search queries indexed items.
func (i *Inspector) Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error) {
	if i.querier == nil || !i.index.IsAvailable() {
		return nil, domain.ErrIndexUnavailable
	}
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}
	return i.querier.Search(ctx, query, limit)
}
