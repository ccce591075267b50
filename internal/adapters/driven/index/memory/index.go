// Package memory provides an in-process search index.
//
// Batches are all-or-nothing: mutations are queued by IndexItems,
// DeleteItems and DeleteAll and only applied by a successful EndBatch.
// Fault injection hooks make it the reference index for tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.SearchIndex     = (*Index)(nil)
	_ driven.ReindexNotifier = (*Index)(nil)
	_ driven.ItemQuerier     = (*Index)(nil)
)

// requestBuffer is how many reindex requests can wait unserved.
const requestBuffer = 64

type opKind int

const (
	opIndex opKind = iota
	opDelete
	opDeleteAll
)

type pendingOp struct {
	kind  opKind
	items []domain.IndexItem
	ids   []string
}

// Option configures an Index.
type Option func(*Index)

// WithName sets the index name.
func WithName(name string) Option {
	return func(i *Index) { i.name = name }
}

// WithMaxItemsPerCall sets the per-call item ceiling.
func WithMaxItemsPerCall(n int) Option {
	return func(i *Index) { i.maxItems = n }
}

// Unavailable makes the index report that the host cannot index.
func Unavailable() Option {
	return func(i *Index) { i.available = false }
}

// Index is an in-memory implementation of driven.SearchIndex.
type Index struct {
	mu        sync.Mutex
	name      string
	available bool
	maxItems  int

	items map[string]domain.IndexItem
	state []byte

	open    bool
	pending []pendingOp

	fetchErr error
	endErr   error
	indexErr error

	begun     int
	completed int
	fetches   int

	requests    chan domain.ReindexRequest
	outstanding map[string]struct{}
	acks        []domain.ReindexAck
	closed      bool
}

// New creates an empty, available index.
func New(opts ...Option) *Index {
	i := &Index{
		name:        domain.DefaultIndexName,
		available:   true,
		maxItems:    domain.DefaultMaxItemsPerBatch,
		items:       make(map[string]domain.IndexItem),
		requests:    make(chan domain.ReindexRequest, requestBuffer),
		outstanding: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Name identifies the index instance.
func (i *Index) Name() string {
	return i.name
}

// IsAvailable reports whether indexing is supported.
func (i *Index) IsAvailable() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.available
}

// SetAvailable toggles availability.
func (i *Index) SetAvailable(v bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.available = v
}

// MaxItemsPerCall is the most items IndexItems accepts at once.
func (i *Index) MaxItemsPerCall() int {
	return i.maxItems
}

// FetchLastClientState returns a copy of the stored state.
func (i *Index) FetchLastClientState(_ context.Context) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fetches++

	if err := i.fetchErr; err != nil {
		i.fetchErr = nil
		return nil, err
	}
	if i.state == nil {
		return nil, nil
	}
	return append([]byte(nil), i.state...), nil
}

// BeginBatch opens a batch.
func (i *Index) BeginBatch(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.available {
		return domain.ErrIndexUnavailable
	}
	if i.open {
		return domain.ErrBatchInProgress
	}
	i.open = true
	i.pending = nil
	i.begun++
	return nil
}

// IndexItems queues items for insertion or replacement.
func (i *Index) IndexItems(_ context.Context, items []domain.IndexItem) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return domain.ErrBatchNotOpen
	}
	if err := i.indexErr; err != nil {
		i.indexErr = nil
		return err
	}
	if i.maxItems > 0 && len(items) > i.maxItems {
		return fmt.Errorf("%w: %d items, limit is %d", domain.ErrItemLimitExceeded, len(items), i.maxItems)
	}
	i.pending = append(i.pending, pendingOp{kind: opIndex, items: cloneItems(items)})
	return nil
}

// DeleteItems queues removal of the given identifiers.
func (i *Index) DeleteItems(_ context.Context, ids []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return domain.ErrBatchNotOpen
	}
	i.pending = append(i.pending, pendingOp{kind: opDelete, ids: append([]string(nil), ids...)})
	return nil
}

// DeleteAll queues removal of every item.
func (i *Index) DeleteAll(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return domain.ErrBatchNotOpen
	}
	i.pending = append(i.pending, pendingOp{kind: opDeleteAll})
	return nil
}

// EndBatch applies queued mutations and stores state. On failure nothing
// is applied and the previous state is kept.
func (i *Index) EndBatch(_ context.Context, state []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return domain.ErrBatchNotOpen
	}
	pending := i.pending
	i.open = false
	i.pending = nil

	if err := i.endErr; err != nil {
		i.endErr = nil
		return err
	}

	for _, op := range pending {
		switch op.kind {
		case opIndex:
			for _, item := range op.items {
				i.items[item.UniqueIdentifier] = item
			}
		case opDelete:
			for _, id := range op.ids {
				delete(i.items, id)
			}
		case opDeleteAll:
			i.items = make(map[string]domain.IndexItem)
		}
	}
	i.state = append([]byte(nil), state...)
	i.completed++
	return nil
}

// AbortBatch discards the open batch.
func (i *Index) AbortBatch(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return domain.ErrBatchNotOpen
	}
	i.open = false
	i.pending = nil
	return nil
}

// Close closes the request channel.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.closed {
		i.closed = true
		close(i.requests)
	}
	return nil
}

// ==================== Reindex Requests ====================

// Requests returns the channel on which reindex requests arrive.
func (i *Index) Requests() <-chan domain.ReindexRequest {
	return i.requests
}

// RequestReindex raises a reindex request for ids, or for every item when
// ids is empty, and returns its ID.
func (i *Index) RequestReindex(ids ...string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return "", fmt.Errorf("index %s closed", i.name)
	}
	req := domain.ReindexRequest{ID: uuid.New().String(), IDs: append([]string(nil), ids...)}
	select {
	case i.requests <- req:
	default:
		return "", fmt.Errorf("index %s: too many pending reindex requests", i.name)
	}
	i.outstanding[req.ID] = struct{}{}
	return req.ID, nil
}

// Acknowledge releases a request. Acknowledging an unknown or already
// acknowledged request is an error.
func (i *Index) Acknowledge(_ context.Context, ack domain.ReindexAck) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.outstanding[ack.RequestID]; !ok {
		return fmt.Errorf("%w: reindex request %s is not outstanding", domain.ErrNotFound, ack.RequestID)
	}
	delete(i.outstanding, ack.RequestID)
	i.acks = append(i.acks, ack)
	return nil
}

// Acks returns the acknowledgements received so far.
func (i *Index) Acks() []domain.ReindexAck {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]domain.ReindexAck(nil), i.acks...)
}

// Outstanding returns the number of unacknowledged requests.
func (i *Index) Outstanding() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.outstanding)
}

// ==================== Queries ====================

// Search matches every query term case-insensitively against title,
// keywords and description. Score is the number of matched fields.
func (i *Index) Search(_ context.Context, query string, limit int) ([]driven.SearchHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	var hits []driven.SearchHit
	for _, item := range i.items {
		score, ok := matchItem(item, terms)
		if ok {
			hits = append(hits, driven.SearchHit{Item: item, Score: score})
		}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Item.UniqueIdentifier < hits[b].Item.UniqueIdentifier
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func matchItem(item domain.IndexItem, terms []string) (float64, bool) {
	fields := []string{
		strings.ToLower(item.Title),
		strings.ToLower(strings.Join(item.Keywords, " ")),
		strings.ToLower(item.Description),
	}

	var score float64
	for _, term := range terms {
		matched := false
		for _, f := range fields {
			if strings.Contains(f, term) {
				score++
				matched = true
			}
		}
		if !matched {
			return 0, false
		}
	}
	return score, true
}

// Get returns a single indexed item.
func (i *Index) Get(_ context.Context, id string) (*domain.IndexItem, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	item, ok := i.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

// Count returns the number of indexed items.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items), nil
}

// ==================== Test Hooks ====================

// IDs returns the indexed identifiers in sorted order.
func (i *Index) IDs() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	ids := make([]string, 0, len(i.items))
	for id := range i.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// State returns a copy of the stored client state.
func (i *Index) State() []byte {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == nil {
		return nil
	}
	return append([]byte(nil), i.state...)
}

// SetState overwrites the stored client state.
func (i *Index) SetState(state []byte) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = append([]byte(nil), state...)
}

// FailNextFetch makes the next FetchLastClientState return err.
func (i *Index) FailNextFetch(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fetchErr = err
}

// FailNextEndBatch makes the next EndBatch return err without applying.
func (i *Index) FailNextEndBatch(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.endErr = err
}

// FailNextIndexItems makes the next IndexItems return err.
func (i *Index) FailNextIndexItems(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexErr = err
}

// Stats reports how many batches were begun and completed, and how many
// fetches were made.
func (i *Index) Stats() (begun, completed, fetches int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.begun, i.completed, i.fetches
}

// InBatch reports whether a batch is open.
func (i *Index) InBatch() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.open
}

func cloneItems(items []domain.IndexItem) []domain.IndexItem {
	out := make([]domain.IndexItem, len(items))
	for n, item := range items {
		item.Keywords = append([]string(nil), item.Keywords...)
		out[n] = item
	}
	return out
}
