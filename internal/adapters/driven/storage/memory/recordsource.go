// Package memory provides an in-memory record source.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
)

// Ensure RecordSource implements the interfaces.
var (
	_ driven.RecordSource  = (*RecordSource)(nil)
	_ driven.RecordWatcher = (*RecordSource)(nil)
)

// DemoRecordCount is the number of built-in demo records.
const DemoRecordCount = 5

// DemoRecords returns records "1" to "5", titled by their ID and
// described as "this is N".
func DemoRecords() []domain.Record {
	records := make([]domain.Record, 0, DemoRecordCount)
	for n := 1; n <= DemoRecordCount; n++ {
		id := strconv.Itoa(n)
		records = append(records, domain.Record{
			ID:          id,
			Title:       id,
			Description: "this is " + id,
		})
	}
	return records
}

// RecordSource is an in-memory implementation of driven.RecordSource.
// Put and Remove notify active watchers.
type RecordSource struct {
	mu       sync.RWMutex
	order    []string
	records  map[string]domain.Record
	listErr  error
	watchers map[int]watcher
	nextID   int
}

type watcher struct {
	ch   chan driven.RecordChange
	done <-chan struct{}
}

// NewRecordSource creates a source holding records in the given order.
// Later records replace earlier ones with the same ID.
func NewRecordSource(records ...domain.Record) *RecordSource {
	s := &RecordSource{
		records:  make(map[string]domain.Record, len(records)),
		watchers: make(map[int]watcher),
	}
	for _, r := range records {
		s.put(r)
	}
	return s
}

// NewDemoRecordSource creates a source holding DemoRecords.
func NewDemoRecordSource() *RecordSource {
	return NewRecordSource(DemoRecords()...)
}

// List returns every record in insertion order.
func (s *RecordSource) List(_ context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

// Get retrieves a record by ID.
func (s *RecordSource) Get(_ context.Context, id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return &r, nil
}

// Put adds or replaces records.
func (s *RecordSource) Put(records ...domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	change := driven.RecordChange{}
	for _, r := range records {
		s.put(r)
		change.Upserted = append(change.Upserted, r.ID)
	}
	s.notify(change)
}

// Remove deletes records by ID. Unknown IDs are ignored.
func (s *RecordSource) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	change := driven.RecordChange{}
	for _, id := range ids {
		if _, ok := s.records[id]; !ok {
			continue
		}
		delete(s.records, id)
		for n, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:n], s.order[n+1:]...)
				break
			}
		}
		change.Removed = append(change.Removed, id)
	}
	s.notify(change)
}

// FailList makes List return err until it is called with nil.
func (s *RecordSource) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// Watch emits a RecordChange for every Put or Remove until ctx is done.
// A slow consumer blocks Put and Remove until ctx is done.
func (s *RecordSource) Watch(ctx context.Context) (<-chan driven.RecordChange, <-chan error, error) {
	changes := make(chan driven.RecordChange, 16)
	errs := make(chan error)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = watcher{ch: changes, done: ctx.Done()}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		close(changes)
		close(errs)
	}()

	return changes, errs, nil
}

func (s *RecordSource) put(r domain.Record) {
	if _, ok := s.records[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.records[r.ID] = r
}

// notify must be called with mu held.
func (s *RecordSource) notify(change driven.RecordChange) {
	if change.IsEmpty() {
		return
	}
	for _, w := range s.watchers {
		select {
		case w.ch <- change:
		case <-w.done:
		}
	}
}
