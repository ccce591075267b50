package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
)

// SearchIndex is the external batch index.
//
// Mutations are only valid between BeginBatch and EndBatch, and batches do
// not nest. Implementations are not required to be safe for concurrent
// batches; the synchronizer's single lane guarantees they never overlap.
type SearchIndex interface {
	// Name identifies the index instance.
	Name() string

	// IsAvailable reports whether the host supports indexing at all.
	IsAvailable() bool

	// FetchLastClientState returns the state attached to the last completed
	// batch, or nil if no batch has completed.
	FetchLastClientState(ctx context.Context) ([]byte, error)

	// BeginBatch opens a batch. Returns domain.ErrBatchInProgress if one is open.
	BeginBatch(ctx context.Context) error

	// IndexItems queues items for insertion or replacement.
	IndexItems(ctx context.Context, items []domain.IndexItem) error

	// DeleteItems queues removal of the given identifiers.
	DeleteItems(ctx context.Context, ids []string) error

	// DeleteAll queues removal of every item.
	DeleteAll(ctx context.Context) error

	// EndBatch applies the queued mutations and persists state.
	// The state is only persisted if the batch succeeds.
	EndBatch(ctx context.Context, state []byte) error

	// AbortBatch discards the open batch without applying it.
	AbortBatch(ctx context.Context) error

	// MaxItemsPerCall is the most items IndexItems accepts at once.
	MaxItemsPerCall() int

	// Close releases resources.
	Close() error
}

// ReindexNotifier delivers reindex requests raised by the index.
type ReindexNotifier interface {
	// Requests returns the channel on which requests arrive.
	// It is closed when the index shuts down.
	Requests() <-chan domain.ReindexRequest

	// Acknowledge releases the index's bookkeeping for a request.
	// It must be called exactly once per request.
	Acknowledge(ctx context.Context, ack domain.ReindexAck) error
}

// ItemQuerier provides read access to indexed items.
type ItemQuerier interface {
	// Search performs a keyword search and returns matching items.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)

	// Get returns a single indexed item.
	Get(ctx context.Context, id string) (*domain.IndexItem, error)

	// Count returns the number of indexed items.
	Count(ctx context.Context) (int, error)
}

// SearchHit represents a search result from the index.
type SearchHit struct {
	// Item is the matched item.
	Item domain.IndexItem

	// Score is the relevance score (higher is better).
	Score float64
}
