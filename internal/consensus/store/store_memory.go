package store

import (
	"context"
	"slices"
	"sort"

	"flightsurety/internal/consensus/models"
	id "flightsurety/pkg/domain"
	"flightsurety/pkg/platform/journal"
	"flightsurety/pkg/platform/sentinel"
)

// InMemory keeps open ballots keyed by candidate.
type InMemory struct {
	ballots *journal.Table[id.Address, models.Ballot]
}

func New() *InMemory {
	return &InMemory{ballots: journal.NewTable[id.Address, models.Ballot]()}
}

func (s *InMemory) Find(_ context.Context, candidate id.Address) (*models.Ballot, error) {
	b, ok := s.ballots.Get(candidate)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	b.Voters = slices.Clone(b.Voters)
	return &b, nil
}

func (s *InMemory) Save(_ context.Context, ballot *models.Ballot) error {
	b := *ballot
	b.Voters = slices.Clone(ballot.Voters)
	s.ballots.Put(b.Candidate, b)
	return nil
}

func (s *InMemory) Delete(_ context.Context, candidate id.Address) error {
	s.ballots.Delete(candidate)
	return nil
}

// List returns open ballots ordered by candidate address.
func (s *InMemory) List(_ context.Context) []models.Ballot {
	out := make([]models.Ballot, 0, s.ballots.Len())
	s.ballots.Range(func(_ id.Address, b models.Ballot) bool {
		b.Voters = slices.Clone(b.Voters)
		out = append(out, b)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Candidate < out[j].Candidate })
	return out
}

func (s *InMemory) Participants() journal.Group {
	return journal.Group{s.ballots}
}

func (s *InMemory) Import(_ context.Context, ballots []models.Ballot) {
	rows := make(map[id.Address]models.Ballot, len(ballots))
	for _, b := range ballots {
		b.Voters = slices.Clone(b.Voters)
		rows[b.Candidate] = b
	}
	s.ballots.Reset(rows)
}
