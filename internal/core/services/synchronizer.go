package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexsync/internal/logger"
)

// Ensure Synchronizer implements the interface.
var _ driving.BatchSynchronizer = (*Synchronizer)(nil)

// Fetch retry tuning. Only used when SyncConfig.FetchAttempts > 1.
const (
	fetchRetryInitialInterval = 100 * time.Millisecond
	fetchRetryMaxInterval     = 2 * time.Second
)

// Synchronizer owns the single lane on which every index operation runs.
//
// The queue is unbounded so completion callbacks, which run on the lane,
// can submit follow-up work without blocking. Batches run in submission
// order and are never cancelled once queued.
type Synchronizer struct {
	index   driven.SearchIndex
	cfg     domain.SyncConfig
	limiter *rate.Limiter

	mu     sync.Mutex
	queue  []func(context.Context)
	closed bool

	// incomplete is set when a batch fails and cleared by a complete
	// republish. Only the lane touches it.
	incomplete bool

	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSynchronizer creates a synchronizer and starts its lane.
// Call Close to stop it.
func NewSynchronizer(index driven.SearchIndex, cfg domain.SyncConfig) *Synchronizer {
	cfg = cfg.WithDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Synchronizer{
		index:  index,
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.BatchesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.BatchesPerSecond), 1)
	}

	go s.run()
	return s
}

// AddItems indexes items and marks the index finished on success.
func (s *Synchronizer) AddItems(items []domain.IndexItem, done driving.BatchDone) error {
	return s.Apply(domain.AddOp(items), done)
}

// DeleteItems removes exactly the given identifiers and marks the index
// finished on success.
func (s *Synchronizer) DeleteItems(ids []string, done driving.BatchDone) error {
	return s.Apply(domain.DeleteOp(ids), done)
}

// DeleteAll empties the index and resets the client state to none.
func (s *Synchronizer) DeleteAll(done driving.BatchDone) error {
	return s.Apply(domain.DeleteAllOp(), done)
}

// Apply queues a batch.
func (s *Synchronizer) Apply(op domain.BatchOp, done driving.BatchDone) error {
	if err := checkKind(op); err != nil {
		return err
	}

	return s.enqueue(func(ctx context.Context) {
		result := s.runBatch(ctx, op)
		if done != nil {
			done(result)
		}
	})
}

// ApplyChain queues ops as a single unit of lane work. Nothing queued
// later runs between two ops of the chain, so the state attached by a
// failed op is the last one written. done gets the results of the ops
// that ran, ending with the failure if there was one.
func (s *Synchronizer) ApplyChain(ops []domain.BatchOp, done driving.ChainDone) error {
	if len(ops) == 0 {
		return fmt.Errorf("%w: empty batch chain", domain.ErrInvalidInput)
	}
	for _, op := range ops {
		if err := checkKind(op); err != nil {
			return err
		}
	}

	return s.enqueue(func(ctx context.Context) {
		results := make([]domain.BatchResult, 0, len(ops))
		for _, op := range ops {
			r := s.runBatch(ctx, op)
			results = append(results, r)
			if !r.OK() {
				break
			}
		}
		if done != nil {
			done(results)
		}
	})
}

func checkKind(op domain.BatchOp) error {
	switch op.Kind {
	case domain.BatchAdd, domain.BatchDelete, domain.BatchDeleteAll:
		return nil
	default:
		return fmt.Errorf("%w: unknown batch kind %q", domain.ErrInvalidInput, op.Kind)
	}
}

// FetchState reads the last client state on the lane, after every batch
// queued before it has finished.
func (s *Synchronizer) FetchState(done func([]byte, error)) error {
	return s.enqueue(func(ctx context.Context) {
		state, err := s.fetch(ctx)
		if done != nil {
			done(state, err)
		}
	})
}

// Close stops accepting work, runs what is already queued, and waits for
// the lane to exit. It must not be called from a completion callback.
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()

	<-s.done
	s.cancel()
	return nil
}

func (s *Synchronizer) enqueue(fn func(context.Context)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSynchronizerClosed
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	s.signal()
	return nil
}

func (s *Synchronizer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the lane loop.
func (s *Synchronizer) run() {
	defer close(s.done)
	for {
		fn, ok := s.next()
		if !ok {
			return
		}
		fn(s.ctx)
	}
}

// next blocks until work is queued. It returns false once the
// synchronizer is closed and the queue is drained.
func (s *Synchronizer) next() (func(context.Context), bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			fn := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return fn, true
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return nil, false
		}
		<-s.wake
	}
}

// runBatch executes one batch and reports how it ended.
//
// While an earlier failure has left the index missing changes, only a
// complete republish may attach ClientStateFinished; anything else is
// written with ClientStateNone so the next check reindexes.
func (s *Synchronizer) runBatch(ctx context.Context, op domain.BatchOp) domain.BatchResult {
	if s.incomplete && op.State == domain.ClientStateFinished && !op.Complete {
		logger.Warn("Index %s is missing changes from a failed batch, attaching state %s",
			s.index.Name(), domain.ClientStateNone)
		op.State = domain.ClientStateNone
	}

	result := domain.BatchResult{
		BatchID:   uuid.New().String(),
		Kind:      op.Kind,
		Count:     op.Count(),
		State:     op.State,
		StartedAt: time.Now(),
	}

	logger.Debug("Batch %s: %s %d (state %s)", result.BatchID, op.Kind, result.Count, op.State)

	err := s.execute(ctx, op)
	result.EndedAt = time.Now()
	if err != nil {
		s.incomplete = true
		result.Err = fmt.Errorf("%w: %s batch %s: %w", domain.ErrBatchFailed, op.Kind, result.BatchID, err)
		logger.Error("Batch %s failed: %v", result.BatchID, err)
		return result
	}
	if op.Complete {
		s.incomplete = false
	}

	logger.Info("Batch %s complete: %s %d in %s", result.BatchID, op.Kind, result.Count, result.Duration())
	return result
}

// execute opens a batch, applies op, and closes it with op.State.
func (s *Synchronizer) execute(ctx context.Context, op domain.BatchOp) error {
	if op.Kind == domain.BatchAdd {
		if limit := s.ItemLimit(); len(op.Items) > limit {
			return fmt.Errorf("%w: %d items, limit is %d", domain.ErrItemLimitExceeded, len(op.Items), limit)
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("pacing: %w", err)
		}
	}

	if err := s.index.BeginBatch(ctx); err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	if err := s.mutate(ctx, op); err != nil {
		if abortErr := s.index.AbortBatch(ctx); abortErr != nil {
			logger.Warn("Abort batch: %v", abortErr)
		}
		return err
	}

	if err := s.index.EndBatch(ctx, op.State.Encode()); err != nil {
		return fmt.Errorf("end batch: %w", err)
	}
	return nil
}

func (s *Synchronizer) mutate(ctx context.Context, op domain.BatchOp) error {
	switch op.Kind {
	case domain.BatchAdd:
		if err := s.index.IndexItems(ctx, op.Items); err != nil {
			return fmt.Errorf("index items: %w", err)
		}
	case domain.BatchDelete:
		if err := s.index.DeleteItems(ctx, op.IDs); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
	case domain.BatchDeleteAll:
		if err := s.index.DeleteAll(ctx); err != nil {
			return fmt.Errorf("delete all: %w", err)
		}
	}
	return nil
}

// ItemLimit is the smaller of the configured cap and the index's own ceiling.
func (s *Synchronizer) ItemLimit() int {
	limit := s.cfg.MaxItemsPerBatch
	if indexLimit := s.index.MaxItemsPerCall(); indexLimit > 0 && indexLimit < limit {
		limit = indexLimit
	}
	return limit
}

// fetch reads the client state, retrying up to FetchAttempts times.
// Each attempt is bounded by FetchTimeout; a timeout counts as a failure.
func (s *Synchronizer) fetch(ctx context.Context) ([]byte, error) {
	attempts := s.cfg.FetchAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = fetchRetryInitialInterval
	b.MaxInterval = fetchRetryMaxInterval

	state, err := backoff.Retry(ctx, func() ([]byte, error) {
		return s.fetchOnce(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("Fetch client state failed, retrying in %s: %v", wait, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchState, err)
	}
	return state, nil
}

// fetchOnce bounds a single fetch. The call runs in its own goroutine so an
// index that ignores ctx cannot hold the lane past the timeout.
func (s *Synchronizer) fetchOnce(ctx context.Context) ([]byte, error) {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	type fetched struct {
		state []byte
		err   error
	}
	ch := make(chan fetched, 1)
	go func() {
		state, err := s.index.FetchLastClientState(ctx)
		ch <- fetched{state: state, err: err}
	}()

	select {
	case f := <-ch:
		return f.state, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch client state: %w", ctx.Err())
	}
}
