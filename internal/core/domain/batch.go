package domain

import "time"

// BatchKind identifies the mutation a batch applies.
type BatchKind string

// Batch kinds.
const (
	BatchAdd       BatchKind = "add"
	BatchDelete    BatchKind = "delete"
	BatchDeleteAll BatchKind = "delete_all"
)

// BatchOp is one begin/end bounded group of index mutations and the client
// state to attach when it completes.
type BatchOp struct {
	// Kind selects which of Items or IDs is used.
	Kind BatchKind

	// Items are indexed for BatchAdd.
	Items []IndexItem

	// IDs are removed for BatchDelete.
	IDs []string

	// State is attached by EndBatch and only persisted on success.
	State ClientState

	// Complete marks the final op of a full republish. Once it succeeds
	// the index holds every record again.
	Complete bool
}

// AddOp indexes items and marks the index caught up.
func AddOp(items []IndexItem) BatchOp {
	return BatchOp{Kind: BatchAdd, Items: items, State: ClientStateFinished}
}

// DeleteOp removes exactly the given identifiers and marks the index caught up.
func DeleteOp(ids []string) BatchOp {
	return BatchOp{Kind: BatchDelete, IDs: ids, State: ClientStateFinished}
}

// DeleteAllOp empties the index and resets the client state, since an empty
// index always needs a full reindex.
func DeleteAllOp() BatchOp {
	return BatchOp{Kind: BatchDeleteAll, State: ClientStateNone}
}

// Count returns the number of items or identifiers carried by the op.
func (op BatchOp) Count() int {
	switch op.Kind {
	case BatchAdd:
		return len(op.Items)
	case BatchDelete:
		return len(op.IDs)
	default:
		return 0
	}
}

// BatchResult reports how a batch ended.
type BatchResult struct {
	// BatchID correlates log lines for one batch.
	BatchID string

	// Kind is the mutation applied.
	Kind BatchKind

	// Count is the number of items or identifiers submitted.
	Count int

	// State is the client state the batch attached.
	State ClientState

	// Err is nil on success and wraps ErrBatchFailed otherwise.
	Err error

	// StartedAt is when the lane picked the batch up.
	StartedAt time.Time

	// EndedAt is when the index reported completion.
	EndedAt time.Time
}

// OK returns true if the batch completed.
func (r BatchResult) OK() bool {
	return r.Err == nil
}

// Duration returns how long the batch took on the lane.
func (r BatchResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
