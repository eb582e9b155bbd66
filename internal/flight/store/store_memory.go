package store

import (
	"context"
	"sort"

	"flightsurety/internal/flight/models"
	id "flightsurety/pkg/domain"
	"flightsurety/pkg/platform/journal"
	"flightsurety/pkg/platform/sentinel"
)

// InMemory keeps flights keyed by flight key.
type InMemory struct {
	flights *journal.Table[id.FlightKey, models.Flight]
}

func New() *InMemory {
	return &InMemory{flights: journal.NewTable[id.FlightKey, models.Flight]()}
}

func (s *InMemory) Create(_ context.Context, flight *models.Flight) error {
	if s.flights.Has(flight.Key) {
		return sentinel.ErrAlreadyExists
	}
	s.flights.Put(flight.Key, *flight)
	return nil
}

func (s *InMemory) Update(_ context.Context, flight *models.Flight) error {
	if !s.flights.Has(flight.Key) {
		return sentinel.ErrNotFound
	}
	s.flights.Put(flight.Key, *flight)
	return nil
}

func (s *InMemory) FindByKey(_ context.Context, key id.FlightKey) (*models.Flight, error) {
	f, ok := s.flights.Get(key)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &f, nil
}

func (s *InMemory) Exists(_ context.Context, key id.FlightKey) bool {
	return s.flights.Has(key)
}

// ListByAirline returns an airline's flights ordered by departure, then name.
func (s *InMemory) ListByAirline(_ context.Context, airline id.Address) []models.Flight {
	var out []models.Flight
	s.flights.Range(func(_ id.FlightKey, f models.Flight) bool {
		if f.Airline == airline {
			out = append(out, f)
		}
		return true
	})
	sortFlights(out)
	return out
}

func (s *InMemory) List(_ context.Context) []models.Flight {
	out := make([]models.Flight, 0, s.flights.Len())
	s.flights.Range(func(_ id.FlightKey, f models.Flight) bool {
		out = append(out, f)
		return true
	})
	sortFlights(out)
	return out
}

func (s *InMemory) Count(_ context.Context) int {
	return s.flights.Len()
}

func (s *InMemory) Participants() journal.Group {
	return journal.Group{s.flights}
}

func (s *InMemory) Import(_ context.Context, flights []models.Flight) {
	rows := make(map[id.FlightKey]models.Flight, len(flights))
	for _, f := range flights {
		rows[f.Key] = f
	}
	s.flights.Reset(rows)
}

func sortFlights(flights []models.Flight) {
	sort.Slice(flights, func(i, j int) bool {
		a, b := flights[i], flights[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.Airline != b.Airline {
			return a.Airline < b.Airline
		}
		return a.Name < b.Name
	})
}
