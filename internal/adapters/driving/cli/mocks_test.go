package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

// mockCoordinator implements driving.ReindexCoordinator for testing.
// Work completes synchronously.
type mockCoordinator struct {
	check     domain.CheckResult
	reindex   domain.ReindexResult
	lastIDs   []string
	checks    int
	served    bool
	followed  bool
	serveErr  error
	followErr error
}

func (m *mockCoordinator) CheckAndReindex(_ context.Context, done func(domain.CheckResult)) {
	m.checks++
	done(m.check)
}

func (m *mockCoordinator) FullReindex(_ context.Context, ids []string, done func(domain.ReindexResult)) {
	m.lastIDs = ids
	done(m.reindex)
}

func (m *mockCoordinator) HandleReindexRequest(_ context.Context, req domain.ReindexRequest) domain.ReindexAck {
	return domain.ReindexAck{RequestID: req.ID}
}

func (m *mockCoordinator) Serve(ctx context.Context, _ driven.ReindexNotifier) error {
	m.served = true
	if m.serveErr != nil {
		return m.serveErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockCoordinator) Follow(ctx context.Context, _ driven.RecordWatcher) error {
	m.followed = true
	if m.followErr != nil {
		return m.followErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockCoordinator) Phase() domain.SyncPhase {
	return domain.PhaseSynced
}

// mockSynchronizer implements driving.BatchSynchronizer for testing.
type mockSynchronizer struct {
	batchErr error
	queueErr error
	ops      []domain.BatchOp
}

func (m *mockSynchronizer) AddItems(items []domain.IndexItem, done driving.BatchDone) error {
	return m.Apply(domain.AddOp(items), done)
}

func (m *mockSynchronizer) DeleteItems(ids []string, done driving.BatchDone) error {
	return m.Apply(domain.DeleteOp(ids), done)
}

func (m *mockSynchronizer) DeleteAll(done driving.BatchDone) error {
	return m.Apply(domain.DeleteAllOp(), done)
}

func (m *mockSynchronizer) Apply(op domain.BatchOp, done driving.BatchDone) error {
	if m.queueErr != nil {
		return m.queueErr
	}
	m.ops = append(m.ops, op)
	done(domain.BatchResult{BatchID: "batch-1", Kind: op.Kind, Count: op.Count(), Err: m.batchErr})
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

// mockInspector implements driving.IndexInspector for testing.
type mockInspector struct {
	status    *driving.IndexStatus
	hits      []driven.SearchHit
	err       error
	lastLimit int
}

func (m *mockInspector) Status(_ context.Context) (*driving.IndexStatus, error) {
	return m.status, m.err
}

func (m *mockInspector) Search(_ context.Context, _ string, limit int) ([]driven.SearchHit, error) {
	m.lastLimit = limit
	return m.hits, m.err
}

// mockActivity implements driving.ActivityService for testing.
type mockActivity struct {
	lastPayload map[string]any
	record      *domain.Record
	err         error
}

func (m *mockActivity) Continue(_ context.Context, payload map[string]any) (*domain.Record, error) {
	m.lastPayload = payload
	return m.record, m.err
}

// mockRequestStore implements RequestStore for testing.
type mockRequestStore struct {
	lastIDs []string
	rebuilt bool
	err     error
}

func (m *mockRequestStore) RequestReindex(_ context.Context, ids ...string) (string, error) {
	m.lastIDs = ids
	return "req-1", m.err
}

func (m *mockRequestStore) Rebuild(_ context.Context) (string, error) {
	m.rebuilt = true
	return "req-2", m.err
}

// setServices swaps the package services for the duration of the test.
func setServices(t *testing.T, svc Services) {
	t.Helper()

	old := Services{
		Coordinator:  coordinator,
		Synchronizer: synchronizer,
		Inspector:    inspector,
		Activity:     activity,
		Notifier:     notifier,
		Watcher:      watcher,
		Requests:     requestStore,
		Config:       configStore,
		Close:        closeServices,
	}

	coordinator = svc.Coordinator
	synchronizer = svc.Synchronizer
	inspector = svc.Inspector
	activity = svc.Activity
	notifier = svc.Notifier
	watcher = svc.Watcher
	requestStore = svc.Requests
	configStore = svc.Config
	closeServices = svc.Close

	t.Cleanup(func() {
		coordinator = old.Coordinator
		synchronizer = old.Synchronizer
		inspector = old.Inspector
		activity = old.Activity
		notifier = old.Notifier
		watcher = old.Watcher
		requestStore = old.Requests
		configStore = old.Config
		closeServices = old.Close
	})
}

// runCommand executes the root command with args and returns its output.
// Flag variables are reset afterwards since cobra keeps parsed values.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		searchLimit = 10
		searchJSON = false
		stateJSON = false
		resetYes = false
		indexForce = false
		configForce = false
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
