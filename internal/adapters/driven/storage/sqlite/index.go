package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.SearchIndex     = (*Index)(nil)
	_ driven.ReindexNotifier = (*Index)(nil)
	_ driven.ItemQuerier     = (*Index)(nil)
)

// legacyKeywordSep joined keywords in rows written before they were
// stored as a JSON array.
const legacyKeywordSep = "\n"

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

// WithMaxItemsPerCall sets the per-call item ceiling.
func WithMaxItemsPerCall(n int) Option {
	return func(i *Index) { i.maxItems = n }
}

// WithPollInterval sets how often the request table is polled.
func WithPollInterval(d time.Duration) Option {
	return func(i *Index) { i.pollInterval = d }
}

// Index is a named search index stored in SQLite with an FTS5 table.
//
// Mutations are queued between BeginBatch and EndBatch and applied in a
// single transaction together with the client state, so a batch is
// all-or-nothing.
type Index struct {
	store        *Store
	name         string
	maxItems     int
	pollInterval time.Duration

	mu         sync.Mutex
	open       bool
	pending    []pendingOp
	closed     bool
	polling    bool
	dispatched map[string]struct{}

	requests chan domain.ReindexRequest
	stop     chan struct{}
	stopped  chan struct{}
}

func newIndex(store *Store, name string, opts ...Option) *Index {
	if name == "" {
		name = domain.DefaultIndexName
	}
	i := &Index{
		store:        store,
		name:         name,
		maxItems:     domain.DefaultMaxItemsPerBatch,
		pollInterval: defaultPollInterval,
		requests:     make(chan domain.ReindexRequest),
		dispatched:   make(map[string]struct{}),
		stop:         make(chan struct{}),
		stopped:      make(chan struct{}),
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

// IsAvailable reports whether the index can be written.
func (i *Index) IsAvailable() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return !i.closed
}

// MaxItemsPerCall is the most items IndexItems accepts at once.
func (i *Index) MaxItemsPerCall() int {
	return i.maxItems
}

// FetchLastClientState returns the state attached by the last successful
// batch, or nil if none was ever stored.
func (i *Index) FetchLastClientState(ctx context.Context) ([]byte, error) {
	var state []byte
	err := i.store.db.QueryRowContext(ctx,
		"SELECT state FROM client_states WHERE index_name = ?", i.name,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading client state: %w", err)
	}
	return state, nil
}

// BeginBatch opens a batch.
func (i *Index) BeginBatch(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return domain.ErrIndexUnavailable
	}
	if i.open {
		return domain.ErrBatchInProgress
	}
	i.open = true
	i.pending = nil
	return nil
}

// IndexItems queues items for insertion or replacement.
func (i *Index) IndexItems(_ context.Context, items []domain.IndexItem) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return domain.ErrBatchNotOpen
	}
	if i.maxItems > 0 && len(items) > i.maxItems {
		return fmt.Errorf("%w: %d items, limit is %d", domain.ErrItemLimitExceeded, len(items), i.maxItems)
	}
	i.pending = append(i.pending, pendingOp{kind: opIndex, items: items})
	return nil
}

// DeleteItems queues removal of the given identifiers.
func (i *Index) DeleteItems(_ context.Context, ids []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return domain.ErrBatchNotOpen
	}
	i.pending = append(i.pending, pendingOp{kind: opDelete, ids: ids})
	return nil
}

// DeleteAll queues removal of every item in this index.
func (i *Index) DeleteAll(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return domain.ErrBatchNotOpen
	}
	i.pending = append(i.pending, pendingOp{kind: opDeleteAll})
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

// EndBatch applies the queued mutations and stores state in one
// transaction. On failure nothing is applied.
func (i *Index) EndBatch(ctx context.Context, state []byte) error {
	i.mu.Lock()
	if !i.open {
		i.mu.Unlock()
		return domain.ErrBatchNotOpen
	}
	pending := i.pending
	i.open = false
	i.pending = nil
	i.mu.Unlock()

	tx, err := i.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, op := range pending {
		var err error
		switch op.kind {
		case opIndex:
			err = i.upsert(ctx, tx, op.items, now)
		case opDelete:
			err = i.delete(ctx, tx, op.ids)
		case opDeleteAll:
			_, err = tx.ExecContext(ctx, "DELETE FROM items WHERE index_name = ?", i.name)
		}
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO client_states (index_name, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(index_name) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, i.name, state, now)
	if err != nil {
		return fmt.Errorf("saving client state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (i *Index) upsert(ctx context.Context, tx *sql.Tx, items []domain.IndexItem, now time.Time) error {
	if len(items) == 0 {
		return nil
	}

	// ON CONFLICT DO UPDATE keeps the rowid, so the update trigger keeps
	// the FTS table in step.
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (index_name, id, domain, title, keywords, description, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_name, id) DO UPDATE SET
			domain = excluded.domain,
			title = excluded.title,
			keywords = excluded.keywords,
			description = excluded.description,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		keywords, err := encodeKeywords(item.Keywords)
		if err != nil {
			return fmt.Errorf("encoding keywords of %s: %w", item.UniqueIdentifier, err)
		}
		_, err = stmt.ExecContext(ctx, i.name, item.UniqueIdentifier, item.DomainIdentifier,
			item.Title, keywords, item.Description, now)
		if err != nil {
			return fmt.Errorf("indexing item %s: %w", item.UniqueIdentifier, err)
		}
	}
	return nil
}

func (i *Index) delete(ctx context.Context, tx *sql.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM items WHERE index_name = ? AND id = ?")
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, i.name, id); err != nil {
			return fmt.Errorf("deleting item %s: %w", id, err)
		}
	}
	return nil
}

// Close stops the request poller and closes the request channel.
// The underlying store stays open.
func (i *Index) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	polling := i.polling
	i.mu.Unlock()

	close(i.stop)
	if polling {
		<-i.stopped
	}
	close(i.requests)
	return nil
}

// ==================== Queries ====================

// Search runs an FTS5 query over title, keywords and description.
// Every term is matched as a prefix. Score is the negated bm25 rank, so
// higher is better.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error) {
	match := sanitizeQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := i.store.db.QueryContext(ctx, `
		SELECT it.id, it.domain, it.title, it.keywords, it.description, f.rank
		FROM items_fts f
		JOIN items it ON it.rowid = f.rowid
		WHERE items_fts MATCH ? AND it.index_name = ?
		ORDER BY f.rank, it.id
		LIMIT ?
	`, match, i.name, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []driven.SearchHit
	for rows.Next() {
		var (
			item     domain.IndexItem
			keywords string
			rank     float64
		)
		if err := rows.Scan(&item.UniqueIdentifier, &item.DomainIdentifier, &item.Title,
			&keywords, &item.Description, &rank); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		item.Keywords = decodeKeywords(keywords)
		hits = append(hits, driven.SearchHit{Item: item, Score: -rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return hits, nil
}

// Get returns a single indexed item.
func (i *Index) Get(ctx context.Context, id string) (*domain.IndexItem, error) {
	var (
		item     domain.IndexItem
		keywords string
	)
	err := i.store.db.QueryRowContext(ctx, `
		SELECT id, domain, title, keywords, description
		FROM items WHERE index_name = ? AND id = ?
	`, i.name, id).Scan(&item.UniqueIdentifier, &item.DomainIdentifier, &item.Title,
		&keywords, &item.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}
	item.Keywords = decodeKeywords(keywords)
	return &item, nil
}

// Count returns the number of items in this index.
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := i.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items WHERE index_name = ?", i.name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeKeywords reads the keywords column. Values that are not a JSON
// array are legacy newline separated rows.
func decodeKeywords(s string) []string {
	var keywords []string
	if err := json.Unmarshal([]byte(s), &keywords); err == nil {
		if keywords == nil {
			return []string{}
		}
		return keywords
	}
	if s == "" {
		return []string{}
	}
	return strings.Split(s, legacyKeywordSep)
}

// sanitizeQuery turns free text into an FTS5 expression of quoted prefix
// terms. Operators and punctuation are dropped.
func sanitizeQuery(q string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(q) {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r > 0x7f,
			r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var terms []string
	for _, t := range strings.Fields(b.String()) {
		switch strings.ToUpper(t) {
		case "AND", "OR", "NOT", "NEAR":
			continue
		}
		terms = append(terms, `"`+t+`"*`)
	}
	return strings.Join(terms, " ")
}
