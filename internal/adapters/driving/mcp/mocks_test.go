package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

// mockInspector is a mock implementation of driving.IndexInspector.
type mockInspector struct {
	status    *driving.IndexStatus
	hits      []driven.SearchHit
	err       error
	lastQuery string
	lastLimit int
}

func (m *mockInspector) Status(_ context.Context) (*driving.IndexStatus, error) {
	return m.status, m.err
}

func (m *mockInspector) Search(_ context.Context, query string, limit int) ([]driven.SearchHit, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.hits, m.err
}

// mockCoordinator is a mock implementation of driving.ReindexCoordinator.
type mockCoordinator struct {
	ackErr  error
	matched int
	lastReq domain.ReindexRequest
}

func (m *mockCoordinator) CheckAndReindex(_ context.Context, done func(domain.CheckResult)) {
	done(domain.CheckResult{Outcome: domain.CheckAlreadySynced})
}

func (m *mockCoordinator) FullReindex(_ context.Context, _ []string, done func(domain.ReindexResult)) {
	done(domain.ReindexResult{Matched: m.matched})
}

func (m *mockCoordinator) HandleReindexRequest(_ context.Context, req domain.ReindexRequest) domain.ReindexAck {
	m.lastReq = req
	return domain.ReindexAck{
		RequestID: req.ID,
		Requested: len(req.IDs),
		Matched:   m.matched,
		Err:       m.ackErr,
	}
}

func (m *mockCoordinator) Serve(_ context.Context, _ driven.ReindexNotifier) error {
	return nil
}

func (m *mockCoordinator) Follow(_ context.Context, _ driven.RecordWatcher) error {
	return nil
}

func (m *mockCoordinator) Phase() domain.SyncPhase {
	return domain.PhaseSynced
}

// mockSynchronizer is a mock implementation of driving.BatchSynchronizer.
// Batches complete synchronously.
type mockSynchronizer struct {
	queueErr error
	batchErr error
	deleted  []string
}

func (m *mockSynchronizer) AddItems(items []domain.IndexItem, done driving.BatchDone) error {
	return m.Apply(domain.AddOp(items), done)
}

func (m *mockSynchronizer) DeleteItems(ids []string, done driving.BatchDone) error {
	if m.queueErr != nil {
		return m.queueErr
	}
	m.deleted = append(m.deleted, ids...)
	return m.Apply(domain.DeleteOp(ids), done)
}

func (m *mockSynchronizer) DeleteAll(done driving.BatchDone) error {
	return m.Apply(domain.DeleteAllOp(), done)
}

func (m *mockSynchronizer) Apply(op domain.BatchOp, done driving.BatchDone) error {
	if m.queueErr != nil {
		return m.queueErr
	}
	res := domain.BatchResult{BatchID: "batch-1", Kind: op.Kind, Count: op.Count(), Err: m.batchErr}
	if done != nil {
		done(res)
	}
	return nil
}

func (m *mockSynchronizer) ApplyChain(ops []domain.BatchOp, done driving.ChainDone) error {
	results := make([]domain.BatchResult, 0, len(ops))
	for _, op := range ops {
		err := m.Apply(op, func(r domain.BatchResult) { results = append(results, r) })
		if err != nil {
			return err
		}
	}
	if done != nil {
		done(results)
	}
	return nil
}

func (m *mockSynchronizer) ItemLimit() int {
	return domain.DefaultMaxItemsPerBatch
}

func (m *mockSynchronizer) FetchState(done func([]byte, error)) error {
	done(domain.ClientStateFinished.Encode(), nil)
	return nil
}

func (m *mockSynchronizer) Close() error {
	return nil
}

// mockActivity is a mock implementation of driving.ActivityService.
type mockActivity struct {
	records map[string]domain.Record
}

func (m *mockActivity) Continue(_ context.Context, payload map[string]any) (*domain.Record, error) {
	id, _ := payload[domain.ActivityIdentifierKey].(string)
	r, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}
