package domain

import "errors"

// Domain errors represent sync protocol failures.
// These are distinct from infrastructure errors, which adapters wrap with them.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexUnavailable indicates the host has no search index capability.
	// Callers treat this as a no-op rather than a failure.
	ErrIndexUnavailable = errors.New("search index unavailable")

	// ErrFetchState indicates the last client state could not be read.
	// The coordinator fails open and skips the current cycle.
	ErrFetchState = errors.New("fetch client state failed")

	// Batch Errors.

	// ErrBatchFailed indicates an add, delete or delete-all batch did not complete.
	// The client state is not advanced, so the next check retries.
	ErrBatchFailed = errors.New("batch failed")

	// ErrBatchInProgress indicates BeginBatch was called while a batch is open.
	ErrBatchInProgress = errors.New("batch already in progress")

	// ErrBatchNotOpen indicates a mutation or EndBatch was issued without BeginBatch.
	ErrBatchNotOpen = errors.New("no batch open")

	// ErrItemLimitExceeded indicates a batch holds more items than the index
	// accepts in a single call.
	ErrItemLimitExceeded = errors.New("item limit exceeded")

	// ErrSynchronizerClosed indicates work was submitted after Close.
	ErrSynchronizerClosed = errors.New("synchronizer closed")
)
