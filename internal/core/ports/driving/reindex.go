package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
)

// ReindexCoordinator decides when the index must be republished.
type ReindexCoordinator interface {
	// CheckAndReindex reads the last client state and starts a full reindex
	// unless it is finished. done is called once with the outcome.
	CheckAndReindex(ctx context.Context, done func(domain.CheckResult))

	// FullReindex republishes every record, or only those whose ID is in ids.
	FullReindex(ctx context.Context, ids []string, done func(domain.ReindexResult))

	// HandleReindexRequest republishes the requested items and returns the
	// acknowledgement. It always returns exactly one ack.
	HandleReindexRequest(ctx context.Context, req domain.ReindexRequest) domain.ReindexAck

	// Serve handles requests from notifier until ctx is cancelled or the
	// request channel closes.
	Serve(ctx context.Context, notifier driven.ReindexNotifier) error

	// Follow republishes changed records and removes deleted ones as the
	// watcher reports them.
	Follow(ctx context.Context, watcher driven.RecordWatcher) error

	// Phase reports whether the index is known to be caught up.
	Phase() domain.SyncPhase
}
