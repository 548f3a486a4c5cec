// Package store holds the in-memory Tool records and the ID counter.
//
// Keys are assigned only by Create from a counter that starts after the seed
// records and never decreases, so an ID is never handed out twice even after
// its record is deleted.
package store

import (
	"log/slog"
	"sort"
	"sync"

	apperrors "github.com/olgasafonova/devops-tools-api/internal/errors"
	"github.com/olgasafonova/devops-tools-api/metrics"
)

// Store is a concurrency-safe keyed collection of Tool records.
type Store struct {
	mu      sync.RWMutex
	records map[int]Tool
	nextID  int
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithoutSeed starts the store empty with the counter at 1.
func WithoutSeed() Option {
	return func(s *Store) {
		s.records = make(map[int]Tool)
		s.nextID = 1
	}
}

// New creates a Store pre-populated with the seed tools.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[int]Tool, len(seedTools)),
		logger:  slog.Default(),
	}
	for i, t := range seedTools {
		s.records[i+1] = t
	}
	s.nextID = len(seedTools) + 1

	for _, opt := range opts {
		opt(s)
	}

	metrics.SetStoreRecords(len(s.records))
	return s
}

// List returns all records in ascending ID order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for id, t := range s.records {
		out = append(out, Record{ID: id, Tool: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	metrics.RecordStoreOperation("list", true)
	return out
}

// Get returns the tool stored under id.
func (s *Store) Get(id int) (Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.records[id]
	if !ok {
		metrics.RecordStoreOperation("get", false)
		return Tool{}, apperrors.NewNotFoundError(id)
	}
	metrics.RecordStoreOperation("get", true)
	return t, nil
}

// Create stores t under the next ID and advances the counter.
func (s *Store) Create(t Tool) Record {
	s.mu.Lock()
	id := s.nextID
	s.records[id] = t
	s.nextID++
	size := len(s.records)
	s.mu.Unlock()

	metrics.RecordStoreOperation("create", true)
	metrics.SetStoreRecords(size)
	s.logger.Debug("Tool created", "id", id, "name", t.Name)
	return Record{ID: id, Tool: t}
}

// Update replaces the record at id wholesale.
func (s *Store) Update(id int, t Tool) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		metrics.RecordStoreOperation("update", false)
		return Record{}, apperrors.NewNotFoundError(id)
	}
	s.records[id] = t

	metrics.RecordStoreOperation("update", true)
	s.logger.Debug("Tool updated", "id", id, "name", t.Name)
	return Record{ID: id, Tool: t}, nil
}

// Delete removes the record at id.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		s.mu.Unlock()
		metrics.RecordStoreOperation("delete", false)
		return apperrors.NewNotFoundError(id)
	}
	delete(s.records, id)
	size := len(s.records)
	s.mu.Unlock()

	metrics.RecordStoreOperation("delete", true)
	metrics.SetStoreRecords(size)
	s.logger.Debug("Tool deleted", "id", id)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// NextID returns the ID the next Create will assign.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}
