package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/logger"
)

// defaultPollInterval is how often outstanding requests are picked up.
const defaultPollInterval = 2 * time.Second

// Requests returns the channel on which reindex requests arrive.
// The first call starts polling the request table. Each stored request is
// delivered once per process until it is acknowledged.
func (i *Index) Requests() <-chan domain.ReindexRequest {
	i.mu.Lock()
	if !i.polling && !i.closed {
		i.polling = true
		go i.poll()
	}
	i.mu.Unlock()
	return i.requests
}

func (i *Index) poll() {
	defer close(i.stopped)

	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()

	for {
		if !i.dispatch() {
			return
		}
		select {
		case <-i.stop:
			return
		case <-ticker.C:
		}
	}
}

// dispatch sends every undelivered request. It returns false once the
// index is closing.
func (i *Index) dispatch() bool {
	pending, err := i.pendingRequests(context.Background())
	if err != nil {
		logger.Warn("Polling reindex requests for %s: %v", i.name, err)
		return true
	}

	for _, req := range pending {
		select {
		case i.requests <- req:
		case <-i.stop:
			return false
		}
	}
	return true
}

// pendingRequests loads stored requests not yet delivered and marks them
// delivered.
func (i *Index) pendingRequests(ctx context.Context) ([]domain.ReindexRequest, error) {
	rows, err := i.store.db.QueryContext(ctx, `
		SELECT id, ids FROM reindex_requests
		WHERE index_name = ?
		ORDER BY requested_at, id
	`, i.name)
	if err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	i.mu.Lock()
	defer i.mu.Unlock()

	var out []domain.ReindexRequest
	for rows.Next() {
		var id, idsJSON string
		if err := rows.Scan(&id, &idsJSON); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		if _, ok := i.dispatched[id]; ok {
			continue
		}

		var ids []string
		if err := json.Unmarshal([]byte(idsJSON), &ids); err != nil {
			logger.Warn("Reindex request %s has malformed ids, treating as full: %v", id, err)
			ids = nil
		}
		i.dispatched[id] = struct{}{}
		out = append(out, domain.ReindexRequest{ID: id, IDs: ids})
	}
	return out, rows.Err()
}

// Acknowledge releases a delivered request by deleting it.
// Acknowledging an unknown or already acknowledged request is an error.
func (i *Index) Acknowledge(ctx context.Context, ack domain.ReindexAck) error {
	res, err := i.store.db.ExecContext(ctx,
		"DELETE FROM reindex_requests WHERE id = ? AND index_name = ?", ack.RequestID, i.name)
	if err != nil {
		return fmt.Errorf("deleting request: %w", err)
	}

	i.mu.Lock()
	delete(i.dispatched, ack.RequestID)
	i.mu.Unlock()

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting request: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: reindex request %s is not outstanding", domain.ErrNotFound, ack.RequestID)
	}

	if ack.Err != nil {
		logger.Debug("Reindex request %s acknowledged with error: %v", ack.RequestID, ack.Err)
	}
	return nil
}

// RequestReindex stores a request to republish ids, or every item when
// ids is empty, and returns its ID. Any process serving this index picks
// it up on its next poll.
func (i *Index) RequestReindex(ctx context.Context, ids ...string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshalling ids: %w", err)
	}

	id := uuid.New().String()
	_, err = i.store.db.ExecContext(ctx, `
		INSERT INTO reindex_requests (id, index_name, ids, requested_at)
		VALUES (?, ?, ?, ?)
	`, id, i.name, string(idsJSON), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("saving request: %w", err)
	}
	return id, nil
}

// OutstandingRequests returns the number of unacknowledged requests.
func (i *Index) OutstandingRequests(ctx context.Context) (int, error) {
	var n int
	err := i.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reindex_requests WHERE index_name = ?", i.name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting requests: %w", err)
	}
	return n, nil
}

// Rebuild rebuilds the full-text table from the items table and asks the
// data owner to republish everything, as a host does after its index is
// rebuilt.
func (i *Index) Rebuild(ctx context.Context) (string, error) {
	if _, err := i.store.db.ExecContext(ctx, "INSERT INTO items_fts(items_fts) VALUES('rebuild')"); err != nil {
		return "", fmt.Errorf("rebuilding full-text index: %w", err)
	}
	return i.RequestReindex(ctx)
}
