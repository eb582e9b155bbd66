package store

import (
	"context"
	"fmt"
	"sync"

	"flightsurety/internal/oplog/models"
	"flightsurety/pkg/platform/sentinel"
)

// InMemory is a process-local log, used in tests and for the memory storage driver.
type InMemory struct {
	mu      sync.RWMutex
	entries []models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if want := uint64(len(s.entries)) + 1; entry.Height != want {
		return fmt.Errorf("append height %d, next is %d: %w", entry.Height, want, sentinel.ErrConflict)
	}
	s.entries = append(s.entries, *entry)
	return nil
}

// Since returns entries with height greater than after, in height order.
func (s *InMemory) Since(_ context.Context, after uint64) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if after >= uint64(len(s.entries)) {
		return nil, nil
	}
	out := make([]models.Entry, len(s.entries)-int(after))
	copy(out, s.entries[after:])
	return out, nil
}

func (s *InMemory) Height(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.entries)), nil
}

func (s *InMemory) Close() error {
	return nil
}
