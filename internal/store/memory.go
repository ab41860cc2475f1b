// Package store provides best-email record persistence implementations.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/outreachkit/prospector/internal/pipeline"
)

// ErrNotFound signals that no record exists for the requested user.
var ErrNotFound = errors.New("record not found")

// MemoryStore is an in-memory RecordStore for tests and single-shot runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]pipeline.BestEmailRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]pipeline.BestEmailRecord)}
}

// Upsert stores the record, replacing any previous record for the user.
func (s *MemoryStore) Upsert(_ context.Context, record pipeline.BestEmailRecord) error {
	if record.UserID == "" {
		return errors.New("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = record
	return nil
}

// Get returns the record for a user or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, userID string) (pipeline.BestEmailRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[userID]
	if !ok {
		return pipeline.BestEmailRecord{}, ErrNotFound
	}
	return record, nil
}

// List returns all records ordered by user ID.
func (s *MemoryStore) List(_ context.Context) ([]pipeline.BestEmailRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pipeline.BestEmailRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
