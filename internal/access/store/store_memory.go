package store

import (
	"context"
	"sort"

	"flightsurety/internal/access/models"
	id "flightsurety/pkg/domain"
	"flightsurety/pkg/platform/journal"
	"flightsurety/pkg/platform/sentinel"
)

// InMemory holds the owner, the operational flag, and the caller allow-list in
// journaled tables so the engine can roll back a rejected operation.
type InMemory struct {
	owner       id.Address
	operational *journal.Cell[bool]
	callers     *journal.Table[id.Address, struct{}]
}

// New creates an operational store owned by owner.
func New(owner id.Address) *InMemory {
	return &InMemory{
		owner:       owner,
		operational: journal.NewCell(true),
		callers:     journal.NewTable[id.Address, struct{}](),
	}
}

func (s *InMemory) Owner(_ context.Context) id.Address {
	return s.owner
}

func (s *InMemory) Operational(_ context.Context) bool {
	return s.operational.Load()
}

func (s *InMemory) SetOperational(_ context.Context, mode bool) error {
	s.operational.Store(mode)
	return nil
}

func (s *InMemory) IsAuthorized(_ context.Context, caller id.Address) bool {
	return s.callers.Has(caller)
}

func (s *InMemory) Authorize(_ context.Context, caller id.Address) error {
	s.callers.Put(caller, struct{}{})
	return nil
}

func (s *InMemory) Deauthorize(_ context.Context, caller id.Address) error {
	if !s.callers.Has(caller) {
		return sentinel.ErrNotFound
	}
	s.callers.Delete(caller)
	return nil
}

func (s *InMemory) Callers(_ context.Context) []id.Address {
	out := make([]id.Address, 0, s.callers.Len())
	s.callers.Range(func(a id.Address, _ struct{}) bool {
		out = append(out, a)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Participants returns the journaled tables backing the store.
func (s *InMemory) Participants() journal.Group {
	return journal.Group{s.operational, s.callers}
}

// Export returns a copy of the store state.
func (s *InMemory) Export(ctx context.Context) models.State {
	return models.State{
		Owner:       s.owner,
		Operational: s.operational.Load(),
		Callers:     s.Callers(ctx),
	}
}

// Import replaces the store state. The owner is part of genesis and is restored too.
func (s *InMemory) Import(_ context.Context, state models.State) {
	s.owner = state.Owner
	s.operational.Store(state.Operational)
	rows := make(map[id.Address]struct{}, len(state.Callers))
	for _, c := range state.Callers {
		rows[c] = struct{}{}
	}
	s.callers.Reset(rows)
}
