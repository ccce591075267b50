package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexsync/internal/logger"
)

// Ensure Coordinator implements the interface.
var _ driving.ReindexCoordinator = (*Coordinator)(nil)

// Coordinator decides when the index must be republished and feeds the
// synchronizer. It starts in PhaseUnknown and moves to PhaseSynced once the
// index is confirmed or made caught up.
type Coordinator struct {
	sync   driving.BatchSynchronizer
	index  driven.SearchIndex
	source driven.RecordSource
	cfg    domain.SyncConfig

	mu    sync.RWMutex
	phase domain.SyncPhase
}

// NewCoordinator creates a coordinator.
func NewCoordinator(
	sync driving.BatchSynchronizer,
	index driven.SearchIndex,
	source driven.RecordSource,
	cfg domain.SyncConfig,
) *Coordinator {
	return &Coordinator{
		sync:   sync,
		index:  index,
		source: source,
		cfg:    cfg.WithDefaults(),
		phase:  domain.PhaseUnknown,
	}
}

// Phase reports whether the index is known to be caught up.
func (c *Coordinator) Phase() domain.SyncPhase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

func (c *Coordinator) setPhase(p domain.SyncPhase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = p
}

// CheckAndReindex reads the last client state and starts a full reindex
// unless it is finished.
//
// A failed fetch is logged and skips the cycle without reindexing. The
// index may stay stale until the next check, but transient errors do not
// cause reindex storms.
func (c *Coordinator) CheckAndReindex(ctx context.Context, done func(domain.CheckResult)) {
	finish := func(r domain.CheckResult) {
		if done != nil {
			done(r)
		}
	}

	if !c.index.IsAvailable() {
		logger.Debug("Index %s unavailable, skipping check", c.index.Name())
		finish(domain.CheckResult{Outcome: domain.CheckUnavailable, State: domain.ClientStateUnknown})
		return
	}

	err := c.sync.FetchState(func(data []byte, err error) {
		if err != nil {
			logger.Error("Check %s: %v", c.index.Name(), err)
			c.setPhase(domain.PhaseUnknown)
			finish(domain.CheckResult{
				Outcome: domain.CheckFetchFailed,
				State:   domain.ClientStateUnknown,
				Err:     err,
			})
			return
		}

		state := domain.DecodeClientState(data)
		if state == domain.ClientStateFinished {
			logger.Debug("Index %s already synced", c.index.Name())
			c.setPhase(domain.PhaseSynced)
			finish(domain.CheckResult{Outcome: domain.CheckAlreadySynced, State: state})
			return
		}

		logger.Info("Index %s client state is %s, reindexing", c.index.Name(), state)
		c.FullReindex(ctx, nil, func(res domain.ReindexResult) {
			out := domain.CheckResult{Outcome: domain.CheckReindexed, State: state, Reindex: &res}
			if !res.OK() {
				out.Outcome = domain.CheckReindexFailed
				out.Err = res.Err
			}
			finish(out)
		})
	})
	if err != nil {
		logger.Error("Check %s: %v", c.index.Name(), err)
		c.setPhase(domain.PhaseUnknown)
		finish(domain.CheckResult{
			Outcome: domain.CheckFetchFailed,
			State:   domain.ClientStateUnknown,
			Err:     fmt.Errorf("%w: %w", domain.ErrFetchState, err),
		})
	}
}

// FullReindex republishes every record, or only the records whose ID is in
// ids. IDs with no matching record are ignored.
//
// Items are split at the synchronizer's item limit and submitted as one
// chain. Every chunk but the last attaches ClientStateNone, so the index
// is only marked finished once the final chunk lands, and a failed chunk
// stops the chain with the state still none.
func (c *Coordinator) FullReindex(ctx context.Context, ids []string, done func(domain.ReindexResult)) {
	finish := func(r domain.ReindexResult) {
		if done != nil {
			done(r)
		}
	}

	records, err := c.source.List(ctx)
	if err != nil {
		err = fmt.Errorf("%w: list records: %w", domain.ErrBatchFailed, err)
		logger.Error("Reindex %s: %v", c.index.Name(), err)
		c.setPhase(domain.PhaseUnknown)
		finish(domain.ReindexResult{Err: err})
		return
	}

	selected := domain.FilterRecords(records, ids)
	if len(ids) > 0 && len(selected) < len(ids) {
		logger.Debug("Reindex %s: %d of %d requested ids matched", c.index.Name(), len(selected), len(ids))
	}

	items := domain.NewIndexItems(selected, c.cfg.DomainIdentifier)
	chunks := domain.SplitItems(items, c.sync.ItemLimit())

	ops := make([]domain.BatchOp, len(chunks))
	for i, chunk := range chunks {
		ops[i] = domain.AddOp(chunk)
		if i < len(chunks)-1 {
			ops[i].State = domain.ClientStateNone
		}
	}
	ops[len(ops)-1].Complete = len(ids) == 0

	res := domain.ReindexResult{Matched: len(selected)}
	err = c.sync.ApplyChain(ops, func(results []domain.BatchResult) {
		res.Batches = results
		last := results[len(results)-1]
		switch {
		case !last.OK():
			res.Err = last.Err
			c.setPhase(domain.PhaseUnknown)
		case last.State == domain.ClientStateFinished:
			c.setPhase(domain.PhaseSynced)
		default:
			// An earlier failure kept the state at none.
			c.setPhase(domain.PhaseUnknown)
		}
		finish(res)
	})
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", domain.ErrBatchFailed, err)
		logger.Error("Reindex %s: %v", c.index.Name(), err)
		c.setPhase(domain.PhaseUnknown)
		finish(res)
	}
}

// HandleReindexRequest republishes the requested items, waits for the
// outcome and returns the acknowledgement. Exactly one ack is returned for
// every request. It must not be called from a batch callback.
func (c *Coordinator) HandleReindexRequest(ctx context.Context, req domain.ReindexRequest) domain.ReindexAck {
	ack := domain.ReindexAck{RequestID: req.ID, Requested: len(req.IDs)}

	if req.IsFull() {
		logger.Info("Index %s requested full reindex (%s)", c.index.Name(), req.ID)
	} else {
		logger.Info("Index %s requested reindex of %d items (%s)", c.index.Name(), len(req.IDs), req.ID)
	}

	res, err := driving.Await(ctx, func(done func(domain.ReindexResult)) error {
		c.FullReindex(ctx, req.IDs, done)
		return nil
	})
	switch {
	case err != nil:
		ack.Err = err
	default:
		ack.Matched = res.Matched
		ack.Err = res.Err
	}

	if ack.Err != nil {
		logger.Warn("Reindex request %s: %v", req.ID, ack.Err)
	}
	return ack
}

// Serve handles reindex requests until ctx is cancelled or the request
// channel closes. Each request is acknowledged exactly once, even when
// republishing fails or ctx is cancelled mid-request.
func (c *Coordinator) Serve(ctx context.Context, notifier driven.ReindexNotifier) error {
	if notifier == nil {
		return fmt.Errorf("%w: reindex notifier is required", domain.ErrInvalidInput)
	}

	requests := notifier.Requests()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			ack := c.HandleReindexRequest(ctx, req)
			if err := notifier.Acknowledge(context.WithoutCancel(ctx), ack); err != nil {
				logger.Error("Acknowledge %s: %v", req.ID, err)
			}
		}
	}
}

// Follow republishes changed records and removes deleted ones as the
// source reports them. It returns when ctx is cancelled or the watcher
// stops.
func (c *Coordinator) Follow(ctx context.Context, watcher driven.RecordWatcher) error {
	changes, errs, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch records: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("Record watcher: %v", err)

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := c.applyChange(ctx, change); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Apply record change: %v", err)
			}
		}
	}
}

func (c *Coordinator) applyChange(ctx context.Context, change driven.RecordChange) error {
	if change.IsEmpty() {
		return nil
	}

	var errs []error
	if len(change.Removed) > 0 {
		res, err := driving.Await(ctx, func(done func(domain.BatchResult)) error {
			return c.sync.DeleteItems(change.Removed, done)
		})
		if err == nil {
			err = res.Err
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %d items: %w", len(change.Removed), err))
		}
	}

	if len(change.Upserted) > 0 {
		res, err := driving.Await(ctx, func(done func(domain.ReindexResult)) error {
			c.FullReindex(ctx, change.Upserted, done)
			return nil
		})
		if err == nil {
			err = res.Err
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("republish %d items: %w", len(change.Upserted), err))
		}
	}

	return errors.Join(errs...)
}
