// Package recordfile provides a record source backed by a TOML file.
//
// The file holds an array of tables:
//
//	[[records]]
//	id = "1"
//	title = "1"
//	description = "this is 1"
//	keywords = ["one"]
//
// The file is re-read on every List, so it stays the source of truth.
// Watch reports edits as upserted and removed IDs.
package recordfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.RecordSource  = (*Source)(nil)
	_ driven.RecordWatcher = (*Source)(nil)
)

// defaultDebounce coalesces the burst of events an editor save produces.
const defaultDebounce = 100 * time.Millisecond

type recordsFile struct {
	Records []fileRecord `toml:"records"`
}

type fileRecord struct {
	ID          string   `toml:"id"`
	Title       string   `toml:"title"`
	Description string   `toml:"description,omitempty"`
	Keywords    []string `toml:"keywords,omitempty"`
}

// Source reads records from a TOML file.
type Source struct {
	path     string
	debounce time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithDebounce sets how long Watch waits for events to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) { s.debounce = d }
}

// New creates a source for the file at path. The file need not exist yet.
func New(path string, opts ...Option) *Source {
	s := &Source{path: path, debounce: defaultDebounce}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the records file path.
func (s *Source) Path() string {
	return s.path
}

// List reads every record in file order.
func (s *Source) List(_ context.Context) ([]domain.Record, error) {
	return s.read()
}

// Get returns a record by ID.
func (s *Source) Get(ctx context.Context, id string) (*domain.Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
}

func (s *Source) read() ([]domain.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("records file %s: %w", s.path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return Parse(data)
}

// Parse decodes a records file. IDs must be present and unique.
func Parse(data []byte) ([]domain.Record, error) {
	var f recordsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing records: %w", domain.ErrInvalidInput, err)
	}

	seen := make(map[string]struct{}, len(f.Records))
	records := make([]domain.Record, 0, len(f.Records))
	for n, r := range f.Records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", domain.ErrInvalidInput, n+1)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate record id %q", domain.ErrInvalidInput, r.ID)
		}
		seen[r.ID] = struct{}{}
		records = append(records, domain.Record{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Keywords:    r.Keywords,
		})
	}
	return records, nil
}

// Write replaces the records file.
func Write(path string, records []domain.Record) error {
	f := recordsFile{Records: make([]fileRecord, 0, len(records))}
	for _, r := range records {
		f.Records = append(f.Records, fileRecord{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Keywords:    r.Keywords,
		})
	}

	data, err := toml.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Watch observes the records file and emits the difference each time it
// settles after a change. The parent directory is watched so editors that
// replace the file are followed. A file that cannot be parsed is reported
// on the error channel and the previous contents stay in effect; a removed
// file counts as empty.
func (s *Source) Watch(ctx context.Context) (<-chan driven.RecordChange, <-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	last, err := s.read()
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		_ = watcher.Close()
		return nil, nil, err
	}

	changes := make(chan driven.RecordChange)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		defer close(errs)
		defer watcher.Close()

		logger.Info("Watching records file: %s", s.path)

		var settle <-chan time.Time
		name := filepath.Clean(s.path)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name || event.Op == fsnotify.Chmod {
					continue
				}
				logger.Debug("Records file event: %s", event.Op)
				settle = time.After(s.debounce)

			case <-settle:
				settle = nil
				next, err := s.read()
				if errors.Is(err, domain.ErrNotFound) {
					next, err = nil, nil
				}
				if err != nil {
					select {
					case errs <- err:
					default:
					}
					continue
				}

				change := Diff(last, next)
				last = next
				if change.IsEmpty() {
					continue
				}
				select {
				case changes <- change:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	return changes, errs, nil
}

// Diff reports which records of next are new or modified relative to prev,
// and which records of prev are gone. IDs keep the order of their file.
func Diff(prev, next []domain.Record) driven.RecordChange {
	old := make(map[string]domain.Record, len(prev))
	for _, r := range prev {
		old[r.ID] = r
	}

	var change driven.RecordChange
	present := make(map[string]struct{}, len(next))
	for _, r := range next {
		present[r.ID] = struct{}{}
		o, ok := old[r.ID]
		if !ok || !sameRecord(o, r) {
			change.Upserted = append(change.Upserted, r.ID)
		}
	}
	for _, r := range prev {
		if _, ok := present[r.ID]; !ok {
			change.Removed = append(change.Removed, r.ID)
		}
	}
	return change
}

func sameRecord(a, b domain.Record) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		slices.Equal(a.Keywords, b.Keywords)
}
