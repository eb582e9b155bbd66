package store

import (
	"context"
	"sync"

	"flightsurety/internal/snapshot/models"
	"flightsurety/pkg/platform/sentinel"
)

// InMemory keeps every snapshot taken by the process.
type InMemory struct {
	mu       sync.RWMutex
	byHeight map[uint64]models.Snapshot
	latest   uint64
	has      bool
}

func NewInMemory() *InMemory {
	return &InMemory{byHeight: make(map[uint64]models.Snapshot)}
}

func (s *InMemory) Save(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHeight[snap.Height] = *snap
	if !s.has || snap.Height >= s.latest {
		s.latest = snap.Height
		s.has = true
	}
	return nil
}

func (s *InMemory) Latest(_ context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has {
		return nil, sentinel.ErrNotFound
	}
	snap := s.byHeight[s.latest]
	return &snap, nil
}

func (s *InMemory) At(_ context.Context, height uint64) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.byHeight[height]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &snap, nil
}
