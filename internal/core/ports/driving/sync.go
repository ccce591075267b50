package driving

import "github.com/custodia-labs/sercha-indexsync/internal/core/domain"

// BatchDone receives the outcome of a batch. It runs on the synchronizer's
// lane and must not block; it may submit further work.
type BatchDone func(domain.BatchResult)

// ChainDone receives one result per batch of a chain that ran, in order.
type ChainDone func([]domain.BatchResult)

// BatchSynchronizer serialises every mutation of the search index on a
// single lane. All methods return as soon as the work is queued.
type BatchSynchronizer interface {
	// AddItems indexes items and marks the index finished on success.
	AddItems(items []domain.IndexItem, done BatchDone) error

	// DeleteItems removes exactly the given identifiers and marks the index
	// finished on success.
	DeleteItems(ids []string, done BatchDone) error

	// DeleteAll empties the index and resets the client state to none.
	DeleteAll(done BatchDone) error

	// Apply queues an arbitrary batch.
	Apply(op domain.BatchOp, done BatchDone) error

	// ApplyChain queues ops as one unit. They run back to back with no
	// other work in between, and the chain stops at the first failure.
	ApplyChain(ops []domain.BatchOp, done ChainDone) error

	// ItemLimit is the most items one add batch may carry.
	ItemLimit() int

	// FetchState reads the last client state on the lane.
	FetchState(done func([]byte, error)) error

	// Close stops accepting work and waits for queued batches to finish.
	Close() error
}
