package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	idxmem "github.com/custodia-labs/sercha-indexsync/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

func newTestSynchronizer(t *testing.T, cfg domain.SyncConfig, opts ...idxmem.Option) (*Synchronizer, *idxmem.Index) {
	t.Helper()
	index := idxmem.New(opts...)
	s := NewSynchronizer(index, cfg)
	t.Cleanup(func() { _ = s.Close() })
	return s, index
}

func TestSynchronizer_AddItems(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())

	res := apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(demoItems("1", "2"), done)
	})

	require.True(t, res.OK())
	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, domain.BatchAdd, res.Kind)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, domain.ClientStateFinished, res.State)
	assert.False(t, res.EndedAt.Before(res.StartedAt))
	assert.Equal(t, []string{"1", "2"}, index.IDs())
	assert.Equal(t, []byte{0x01}, index.State())
}

func TestSynchronizer_EmptyAddIsOneBatch(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())

	res := apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(nil, done)
	})

	require.True(t, res.OK())
	begun, completed, _ := index.Stats()
	assert.Equal(t, 1, begun)
	assert.Equal(t, 1, completed)
	assert.Equal(t, []byte{0x01}, index.State())
}

func TestSynchronizer_DeleteItems(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())
	apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(demoItems("1", "2", "3", "4", "5"), done)
	})

	res := apply(t, func(done func(domain.BatchResult)) error {
		return s.DeleteItems([]string{"3"}, done)
	})

	require.True(t, res.OK())
	assert.Equal(t, domain.BatchDelete, res.Kind)
	assert.Equal(t, []string{"1", "2", "4", "5"}, index.IDs())
	assert.Equal(t, []byte{0x01}, index.State())
}

func TestSynchronizer_DeleteAllResetsState(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())
	apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(demoItems("1", "2"), done)
	})

	res := apply(t, func(done func(domain.BatchResult)) error {
		return s.DeleteAll(done)
	})

	require.True(t, res.OK())
	assert.Equal(t, domain.ClientStateNone, res.State)
	assert.Empty(t, index.IDs())
	assert.Equal(t, []byte{0x00}, index.State())
}

func TestSynchronizer_RunsInSubmissionOrder(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())

	var (
		mu    sync.Mutex
		order []domain.BatchKind
	)
	record := func(r domain.BatchResult) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, r.Kind)
	}

	require.NoError(t, s.AddItems(demoItems("1", "2"), record))
	require.NoError(t, s.DeleteItems([]string{"1"}, record))
	require.NoError(t, s.DeleteAll(record))
	last := apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(demoItems("3"), func(r domain.BatchResult) {
			record(r)
			done(r)
		})
	})

	require.True(t, last.OK())
	mu.Lock()
	assert.Equal(t, []domain.BatchKind{
		domain.BatchAdd, domain.BatchDelete, domain.BatchDeleteAll, domain.BatchAdd,
	}, order)
	mu.Unlock()
	assert.Equal(t, []string{"3"}, index.IDs())
}

func TestSynchronizer_CallbackCanSubmitWork(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())

	res := apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(demoItems("1", "2"), func(r domain.BatchResult) {
			if err := s.DeleteItems([]string{"2"}, done); err != nil {
				done(domain.BatchResult{Err: err})
			}
		})
	})

	require.True(t, res.OK())
	assert.Equal(t, []string{"1"}, index.IDs())
}

func TestSynchronizer_ItemLimit(t *testing.T) {
	tests := []struct {
		name string
		cfg  domain.SyncConfig
		opts []idxmem.Option
	}{
		{
			name: "configured limit",
			cfg:  domain.SyncConfig{MaxItemsPerBatch: 2},
		},
		{
			name: "index limit",
			cfg:  domain.DefaultSyncConfig(),
			opts: []idxmem.Option{idxmem.WithMaxItemsPerCall(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, index := newTestSynchronizer(t, tt.cfg, tt.opts...)

			res := apply(t, func(done func(domain.BatchResult)) error {
				return s.AddItems(demoItems("1", "2", "3"), done)
			})

			require.False(t, res.OK())
			assert.ErrorIs(t, res.Err, domain.ErrBatchFailed)
			assert.ErrorIs(t, res.Err, domain.ErrItemLimitExceeded)
			begun, _, _ := index.Stats()
			assert.Zero(t, begun)
			assert.Nil(t, index.State())
		})
	}
}

func TestSynchronizer_FailuresKeepState(t *testing.T) {
	tests := []struct {
		name   string
		inject func(index *idxmem.Index)
		want   error
	}{
		{
			name:   "unavailable",
			inject: func(index *idxmem.Index) { index.SetAvailable(false) },
			want:   domain.ErrIndexUnavailable,
		},
		{
			name:   "index items",
			inject: func(index *idxmem.Index) { index.FailNextIndexItems(errors.New("rejected")) },
		},
		{
			name:   "end batch",
			inject: func(index *idxmem.Index) { index.FailNextEndBatch(errors.New("rejected")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())
			index.SetState(domain.ClientStateNone.Encode())
			tt.inject(index)

			res := apply(t, func(done func(domain.BatchResult)) error {
				return s.AddItems(demoItems("1"), done)
			})

			require.False(t, res.OK())
			assert.ErrorIs(t, res.Err, domain.ErrBatchFailed)
			if tt.want != nil {
				assert.ErrorIs(t, res.Err, tt.want)
			}
			assert.False(t, index.InBatch())
			assert.Empty(t, index.IDs())
			assert.Equal(t, []byte{0x00}, index.State())
		})
	}
}

func TestSynchronizer_Apply_UnknownKind(t *testing.T) {
	s, _ := newTestSynchronizer(t, domain.DefaultSyncConfig())

	err := s.Apply(domain.BatchOp{Kind: "merge"}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSynchronizer_Apply_IntermediateState(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())
	op := domain.AddOp(demoItems("1"))
	op.State = domain.ClientStateNone

	res := apply(t, func(done func(domain.BatchResult)) error {
		return s.Apply(op, done)
	})

	require.True(t, res.OK())
	assert.Equal(t, []byte{0x00}, index.State())
}

func TestSynchronizer_FetchState(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())

	state, err := fetchState(t, s)
	require.NoError(t, err)
	assert.Nil(t, state)

	// The fetch is queued behind the add, so it sees its state.
	require.NoError(t, s.AddItems(demoItems("1"), nil))
	state, err = fetchState(t, s)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, state)

	_, _, fetches := index.Stats()
	assert.Equal(t, 2, fetches)
}

func TestSynchronizer_FetchState_Failure(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())
	index.FailNextFetch(errors.New("host busy"))

	_, err := fetchState(t, s)

	assert.ErrorIs(t, err, domain.ErrFetchState)
	_, _, fetches := index.Stats()
	assert.Equal(t, 1, fetches)
}

func TestSynchronizer_FetchState_Retry(t *testing.T) {
	cfg := domain.DefaultSyncConfig()
	cfg.FetchAttempts = 3
	s, index := newTestSynchronizer(t, cfg)
	index.SetState(domain.ClientStateFinished.Encode())
	index.FailNextFetch(errors.New("host busy"))

	state, err := fetchState(t, s)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, state)
	_, _, fetches := index.Stats()
	assert.Equal(t, 2, fetches)
}

func TestSynchronizer_FetchState_Timeout(t *testing.T) {
	cfg := domain.DefaultSyncConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	index := &stuckIndex{Index: idxmem.New(), release: make(chan struct{})}
	s := NewSynchronizer(index, cfg)
	t.Cleanup(func() {
		close(index.release)
		_ = s.Close()
	})

	_, err := fetchState(t, s)

	assert.ErrorIs(t, err, domain.ErrFetchState)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The lane is free again.
	res := apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(demoItems("1"), done)
	})
	assert.True(t, res.OK())
}

func TestSynchronizer_Pacing(t *testing.T) {
	cfg := domain.DefaultSyncConfig()
	cfg.BatchesPerSecond = 20
	s, _ := newTestSynchronizer(t, cfg)

	start := time.Now()
	require.NoError(t, s.AddItems(demoItems("1"), nil))
	require.NoError(t, s.AddItems(demoItems("2"), nil))
	apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(demoItems("3"), done)
	})

	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestSynchronizer_CloseDrainsQueue(t *testing.T) {
	index := idxmem.New()
	s := NewSynchronizer(index, domain.DefaultSyncConfig())

	var (
		mu      sync.Mutex
		results []domain.BatchResult
	)
	var done driving.BatchDone = func(r domain.BatchResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.AddItems(demoItems(id), done))
	}

	require.NoError(t, s.Close())

	mu.Lock()
	assert.Len(t, results, 3)
	mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3"}, index.IDs())

	assert.ErrorIs(t, s.AddItems(demoItems("4"), nil), domain.ErrSynchronizerClosed)
	assert.ErrorIs(t, s.FetchState(nil), domain.ErrSynchronizerClosed)
	require.NoError(t, s.Close())
}

func TestSynchronizer_ItemLimitIsSmallerCeiling(t *testing.T) {
	s, _ := newTestSynchronizer(t, domain.DefaultSyncConfig(), idxmem.WithMaxItemsPerCall(2))
	assert.Equal(t, 2, s.ItemLimit())

	s, _ = newTestSynchronizer(t, domain.SyncConfig{MaxItemsPerBatch: 3})
	assert.Equal(t, 3, s.ItemLimit())
}

func TestSynchronizer_ApplyChain(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())
	first := domain.AddOp(demoItems("1", "2"))
	first.State = domain.ClientStateNone

	results, err := driving.Await(testContext(t), func(done func([]domain.BatchResult)) error {
		return s.ApplyChain([]domain.BatchOp{first, domain.AddOp(demoItems("3"))}, done)
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].OK())
	assert.True(t, results[1].OK())
	assert.Equal(t, []string{"1", "2", "3"}, index.IDs())
	assert.Equal(t, []byte{0x01}, index.State())
}

func TestSynchronizer_ApplyChain_StopsAtFailure(t *testing.T) {
	rec := newRecordingIndex()
	rec.failEndAt = 2
	s := NewSynchronizer(rec, domain.DefaultSyncConfig())
	t.Cleanup(func() { _ = s.Close() })

	ops := []domain.BatchOp{
		domain.AddOp(demoItems("1")),
		domain.AddOp(demoItems("2")),
		domain.AddOp(demoItems("3")),
	}
	results, err := driving.Await(testContext(t), func(done func([]domain.BatchResult)) error {
		return s.ApplyChain(ops, done)
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].OK())
	assert.ErrorIs(t, results[1].Err, domain.ErrBatchFailed)
	assert.Equal(t, []string{"1"}, rec.IDs())
}

func TestSynchronizer_ApplyChain_Invalid(t *testing.T) {
	s, _ := newTestSynchronizer(t, domain.DefaultSyncConfig())

	assert.ErrorIs(t, s.ApplyChain(nil, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.ApplyChain([]domain.BatchOp{domain.AddOp(nil), {Kind: "merge"}}, nil), domain.ErrInvalidInput)
}

func TestSynchronizer_FailureHoldsBackFinished(t *testing.T) {
	s, index := newTestSynchronizer(t, domain.DefaultSyncConfig())
	index.FailNextEndBatch(errors.New("disk full"))

	failed := apply(t, func(done func(domain.BatchResult)) error {
		return s.AddItems(demoItems("1", "2"), done)
	})
	require.False(t, failed.OK())

	del := apply(t, func(done func(domain.BatchResult)) error {
		return s.DeleteItems([]string{"2"}, done)
	})
	require.True(t, del.OK())
	assert.Equal(t, domain.ClientStateNone, del.State)
	assert.Equal(t, []byte{0x00}, index.State())

	full := domain.AddOp(demoItems("1", "2"))
	full.Complete = true
	res := apply(t, func(done func(domain.BatchResult)) error {
		return s.Apply(full, done)
	})
	require.True(t, res.OK())
	assert.Equal(t, []byte{0x01}, index.State())

	del = apply(t, func(done func(domain.BatchResult)) error {
		return s.DeleteItems([]string{"2"}, done)
	})
	require.True(t, del.OK())
	assert.Equal(t, domain.ClientStateFinished, del.State)
	assert.Equal(t, []byte{0x01}, index.State())
}
