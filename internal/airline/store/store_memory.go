package store

import (
	"context"
	"sort"

	"flightsurety/internal/airline/models"
	id "flightsurety/pkg/domain"
	"flightsurety/pkg/platform/journal"
	"flightsurety/pkg/platform/sentinel"
)

// InMemory keeps registered airlines keyed by address.
type InMemory struct {
	airlines *journal.Table[id.Address, models.Airline]
}

func New() *InMemory {
	return &InMemory{airlines: journal.NewTable[id.Address, models.Airline]()}
}

func (s *InMemory) Create(_ context.Context, airline *models.Airline) error {
	if s.airlines.Has(airline.ID) {
		return sentinel.ErrAlreadyExists
	}
	s.airlines.Put(airline.ID, *airline)
	return nil
}

func (s *InMemory) Update(_ context.Context, airline *models.Airline) error {
	if !s.airlines.Has(airline.ID) {
		return sentinel.ErrNotFound
	}
	s.airlines.Put(airline.ID, *airline)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, airlineID id.Address) (*models.Airline, error) {
	a, ok := s.airlines.Get(airlineID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

func (s *InMemory) IsRegistered(_ context.Context, airlineID id.Address) bool {
	a, ok := s.airlines.Get(airlineID)
	return ok && a.Registered
}

func (s *InMemory) IsFunded(_ context.Context, airlineID id.Address) bool {
	a, ok := s.airlines.Get(airlineID)
	return ok && a.Funded
}

// Count returns the number of registered airlines.
func (s *InMemory) Count(_ context.Context) int {
	return s.airlines.Len()
}

func (s *InMemory) CountFunded(_ context.Context) int {
	n := 0
	s.airlines.Range(func(_ id.Address, a models.Airline) bool {
		if a.Funded {
			n++
		}
		return true
	})
	return n
}

// List returns airlines in registration order.
func (s *InMemory) List(_ context.Context) []models.Airline {
	out := make([]models.Airline, 0, s.airlines.Len())
	s.airlines.Range(func(_ id.Address, a models.Airline) bool {
		out = append(out, a)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (s *InMemory) Participants() journal.Group {
	return journal.Group{s.airlines}
}

// Import replaces all airlines.
func (s *InMemory) Import(_ context.Context, airlines []models.Airline) {
	rows := make(map[id.Address]models.Airline, len(airlines))
	for _, a := range airlines {
		rows[a.ID] = a
	}
	s.airlines.Reset(rows)
}
