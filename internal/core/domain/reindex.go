package domain

// ReindexRequest is sent by the search index when it needs the data owner to
// republish items, for example after the index was rebuilt or migrated.
type ReindexRequest struct {
	// ID identifies the request so its acknowledgement can be matched.
	ID string

	// IDs lists the items to republish. Empty means every item.
	IDs []string
}

// IsFull returns true if the request covers every item.
func (r ReindexRequest) IsFull() bool {
	return len(r.IDs) == 0
}

// ReindexAck is the required response to a ReindexRequest.
// Exactly one is produced per request, whether or not republishing succeeded;
// the index uses it to release its own bookkeeping, not as a success signal.
type ReindexAck struct {
	// RequestID echoes ReindexRequest.ID.
	RequestID string

	// Requested is the number of identifiers asked for (0 for a full request).
	Requested int

	// Matched is the number of local records republished.
	Matched int

	// Err records why republishing failed, if it did.
	Err error
}

// ReindexResult summarises a full or filtered reindex.
type ReindexResult struct {
	// Matched is the number of records selected.
	Matched int

	// Batches holds one result per submitted chunk, in order.
	Batches []BatchResult

	// Err is the first failure; later chunks are not submitted after it.
	Err error
}

// OK returns true if every chunk completed.
func (r ReindexResult) OK() bool {
	return r.Err == nil
}

// SyncPhase is the coordinator's view of the index.
type SyncPhase int

// Sync phases.
const (
	// PhaseUnknown is the initial phase and the phase after a failed check.
	PhaseUnknown SyncPhase = iota

	// PhaseSynced means the index was confirmed or made caught up.
	PhaseSynced
)

// String returns the string representation.
func (p SyncPhase) String() string {
	switch p {
	case PhaseSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// CheckOutcome describes what a startup check decided.
type CheckOutcome string

// Check outcomes.
const (
	// CheckUnavailable means the host has no index; nothing was done.
	CheckUnavailable CheckOutcome = "unavailable"

	// CheckFetchFailed means the client state could not be read; the cycle was skipped.
	CheckFetchFailed CheckOutcome = "fetch_failed"

	// CheckAlreadySynced means the stored state was finished.
	CheckAlreadySynced CheckOutcome = "already_synced"

	// CheckReindexed means a full reindex ran and completed.
	CheckReindexed CheckOutcome = "reindexed"

	// CheckReindexFailed means a full reindex ran and failed.
	CheckReindexFailed CheckOutcome = "reindex_failed"
)

// CheckResult reports the outcome of a startup check.
type CheckResult struct {
	// Outcome is what the check decided.
	Outcome CheckOutcome

	// State is the decoded client state that was read, if any.
	State ClientState

	// Reindex is set when a reindex was triggered.
	Reindex *ReindexResult

	// Err is set for CheckFetchFailed and CheckReindexFailed.
	Err error
}
