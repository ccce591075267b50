package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	idxmem "github.com/custodia-labs/sercha-indexsync/internal/adapters/driven/index/memory"
	recmem "github.com/custodia-labs/sercha-indexsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

// --- Test doubles shared by the service tests ---

// recordingIndex records the state attached to every EndBatch and can fail
// a chosen EndBatch call.
type recordingIndex struct {
	*idxmem.Index

	mu        sync.Mutex
	states    []domain.ClientState
	ends      int
	failEndAt int
}

func newRecordingIndex(opts ...idxmem.Option) *recordingIndex {
	return &recordingIndex{Index: idxmem.New(opts...)}
}

func (r *recordingIndex) EndBatch(ctx context.Context, state []byte) error {
	r.mu.Lock()
	r.ends++
	fail := r.ends == r.failEndAt
	r.states = append(r.states, domain.DecodeClientState(state))
	r.mu.Unlock()

	if fail {
		_ = r.Index.AbortBatch(ctx)
		return errors.New("end batch rejected")
	}
	return r.Index.EndBatch(ctx, state)
}

func (r *recordingIndex) endStates() []domain.ClientState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ClientState(nil), r.states...)
}

// stuckIndex never answers FetchLastClientState until released, and
// ignores ctx while waiting.
type stuckIndex struct {
	*idxmem.Index
	release chan struct{}
}

func (s *stuckIndex) FetchLastClientState(_ context.Context) ([]byte, error) {
	<-s.release
	return nil, nil
}

// fixture wires a synchronizer and coordinator over an in-memory index
// and the demo records.
type fixture struct {
	mem    *idxmem.Index
	source *recmem.RecordSource
	sync   *Synchronizer
	coord  *Coordinator
}

func newFixture(t *testing.T, cfg domain.SyncConfig, index driven.SearchIndex, mem *idxmem.Index) *fixture {
	t.Helper()
	if index == nil {
		mem = idxmem.New()
		index = mem
	}

	source := recmem.NewDemoRecordSource()
	s := NewSynchronizer(index, cfg)
	t.Cleanup(func() { _ = s.Close() })

	return &fixture{
		mem:    mem,
		source: source,
		sync:   s,
		coord:  NewCoordinator(s, index, source, cfg),
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func check(t *testing.T, c *Coordinator) domain.CheckResult {
	t.Helper()
	ctx := testContext(t)
	res, err := driving.Await(ctx, func(done func(domain.CheckResult)) error {
		c.CheckAndReindex(ctx, done)
		return nil
	})
	require.NoError(t, err)
	return res
}

func reindex(t *testing.T, c *Coordinator, ids []string) domain.ReindexResult {
	t.Helper()
	ctx := testContext(t)
	res, err := driving.Await(ctx, func(done func(domain.ReindexResult)) error {
		c.FullReindex(ctx, ids, done)
		return nil
	})
	require.NoError(t, err)
	return res
}

func apply(t *testing.T, start func(done func(domain.BatchResult)) error) domain.BatchResult {
	t.Helper()
	res, err := driving.Await(testContext(t), start)
	require.NoError(t, err)
	return res
}

func fetchState(t *testing.T, s *Synchronizer) ([]byte, error) {
	t.Helper()
	type fetched struct {
		data []byte
		err  error
	}
	f, err := driving.Await(testContext(t), func(done func(fetched)) error {
		return s.FetchState(func(data []byte, err error) {
			done(fetched{data: data, err: err})
		})
	})
	require.NoError(t, err)
	return f.data, f.err
}

func demoItems(ids ...string) []domain.IndexItem {
	records := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, domain.Record{ID: id, Title: id, Description: "this is " + id})
	}
	return domain.NewIndexItems(records, "")
}
