package store

import (
	"context"
	"slices"
	"sort"

	"flightsurety/internal/insurance/models"
	id "flightsurety/pkg/domain"
	"flightsurety/pkg/platform/journal"
	"flightsurety/pkg/platform/sentinel"
)

// InMemory holds policies and per-flight credit records. Two secondary
// indexes map flights to passengers and passengers to flights so payout and
// withdrawal do not scan the whole ledger.
type InMemory struct {
	policies    *journal.Table[models.PolicyKey, models.Policy]
	credits     *journal.Table[id.FlightKey, models.Credit]
	byFlight    *journal.Table[id.FlightKey, []id.Address]
	byPassenger *journal.Table[id.Address, []id.FlightKey]
}

func New() *InMemory {
	return &InMemory{
		policies:    journal.NewTable[models.PolicyKey, models.Policy](),
		credits:     journal.NewTable[id.FlightKey, models.Credit](),
		byFlight:    journal.NewTable[id.FlightKey, []id.Address](),
		byPassenger: journal.NewTable[id.Address, []id.FlightKey](),
	}
}

func (s *InMemory) FindPolicy(_ context.Context, key models.PolicyKey) (*models.Policy, error) {
	p, ok := s.policies.Get(key)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

// SavePolicy inserts or replaces a policy and maintains the indexes.
func (s *InMemory) SavePolicy(_ context.Context, policy *models.Policy) error {
	key := policy.Key()
	if !s.policies.Has(key) {
		passengers, _ := s.byFlight.Get(key.Flight)
		s.byFlight.Put(key.Flight, append(slices.Clone(passengers), key.Passenger))
		flights, _ := s.byPassenger.Get(key.Passenger)
		s.byPassenger.Put(key.Passenger, append(slices.Clone(flights), key.Flight))
	}
	s.policies.Put(key, *policy)
	return nil
}

// ListByFlight returns the flight's policies in purchase order.
func (s *InMemory) ListByFlight(_ context.Context, flight id.FlightKey) []models.Policy {
	passengers, _ := s.byFlight.Get(flight)
	out := make([]models.Policy, 0, len(passengers))
	for _, p := range passengers {
		if policy, ok := s.policies.Get(models.PolicyKey{Flight: flight, Passenger: p}); ok {
			out = append(out, policy)
		}
	}
	return out
}

// ListByPassenger returns the passenger's policies in purchase order.
func (s *InMemory) ListByPassenger(_ context.Context, passenger id.Address) []models.Policy {
	flights, _ := s.byPassenger.Get(passenger)
	out := make([]models.Policy, 0, len(flights))
	for _, f := range flights {
		if policy, ok := s.policies.Get(models.PolicyKey{Flight: f, Passenger: passenger}); ok {
			out = append(out, policy)
		}
	}
	return out
}

func (s *InMemory) FindCredit(_ context.Context, flight id.FlightKey) (*models.Credit, error) {
	c, ok := s.credits.Get(flight)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemory) SaveCredit(_ context.Context, credit *models.Credit) error {
	if s.credits.Has(credit.Flight) {
		return sentinel.ErrAlreadyExists
	}
	s.credits.Put(credit.Flight, *credit)
	return nil
}

func (s *InMemory) CountPolicies(_ context.Context) int {
	return s.policies.Len()
}

func (s *InMemory) Participants() journal.Group {
	return journal.Group{s.policies, s.credits, s.byFlight, s.byPassenger}
}

// Export returns all policies and credits in a deterministic order.
func (s *InMemory) Export(_ context.Context) ([]models.Policy, []models.Credit) {
	policies := make([]models.Policy, 0, s.policies.Len())
	s.policies.Range(func(_ models.PolicyKey, p models.Policy) bool {
		policies = append(policies, p)
		return true
	})
	sort.Slice(policies, func(i, j int) bool {
		a, b := policies[i], policies[j]
		if a.Flight != b.Flight {
			return a.Flight.String() < b.Flight.String()
		}
		return a.Passenger < b.Passenger
	})

	credits := make([]models.Credit, 0, s.credits.Len())
	s.credits.Range(func(_ id.FlightKey, c models.Credit) bool {
		credits = append(credits, c)
		return true
	})
	sort.Slice(credits, func(i, j int) bool {
		return credits[i].Flight.String() < credits[j].Flight.String()
	})
	return policies, credits
}

// Import replaces the ledger and rebuilds both indexes in purchase order.
func (s *InMemory) Import(_ context.Context, policies []models.Policy, credits []models.Credit) {
	ordered := slices.Clone(policies)
	slices.SortStableFunc(ordered, func(a, b models.Policy) int { return a.Seq - b.Seq })

	policyRows := make(map[models.PolicyKey]models.Policy, len(ordered))
	flightRows := make(map[id.FlightKey][]id.Address)
	passengerRows := make(map[id.Address][]id.FlightKey)
	for _, p := range ordered {
		policyRows[p.Key()] = p
		flightRows[p.Flight] = append(flightRows[p.Flight], p.Passenger)
		passengerRows[p.Passenger] = append(passengerRows[p.Passenger], p.Flight)
	}
	creditRows := make(map[id.FlightKey]models.Credit, len(credits))
	for _, c := range credits {
		creditRows[c.Flight] = c
	}
	s.policies.Reset(policyRows)
	s.credits.Reset(creditRows)
	s.byFlight.Reset(flightRows)
	s.byPassenger.Reset(passengerRows)
}
