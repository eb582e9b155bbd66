package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"flightsurety/internal/consensus/models"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

type Store interface {
	Find(ctx context.Context, candidate id.Address) (*models.Ballot, error)
	Save(ctx context.Context, ballot *models.Ballot) error
	Delete(ctx context.Context, candidate id.Address) error
	List(ctx context.Context) []models.Ballot
}

// Membership is the read-only view of the airline registry that voting needs.
// The airline store satisfies it; voting never writes airlines itself.
type Membership interface {
	IsRegistered(ctx context.Context, airlineID id.Address) bool
	IsFunded(ctx context.Context, airlineID id.Address) bool
	Count(ctx context.Context) int
}

// Service tallies votes for candidate airlines once the registry has reached
// the consensus threshold.
type Service struct {
	ballots    Store
	membership Membership
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(ballots Store, membership Membership, opts ...Option) *Service {
	s := &Service{ballots: ballots, membership: membership, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CastVote records voter's support for candidate. The threshold is recomputed
// from the live registry size on every vote. When the candidate reaches it the
// ballot is closed and the outcome reports BallotAdmitted; the caller is
// responsible for materializing the airline.
func (s *Service) CastVote(ctx context.Context, candidate id.Address, name string, voter id.Address) (*models.Outcome, error) {
	if candidate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate address is required")
	}
	if !s.membership.IsFunded(ctx, voter) {
		return nil, dErrors.New(dErrors.CodeNotFunded, "voter is not a funded airline")
	}
	if s.membership.IsRegistered(ctx, candidate) {
		return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "candidate is already registered")
	}

	ballot, err := s.ballots.Find(ctx, candidate)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ballot")
		}
		ballot = &models.Ballot{Candidate: candidate}
	}
	if ballot.HasVoted(voter) {
		return nil, dErrors.New(dErrors.CodeDuplicateVote, "airline has already voted for this candidate")
	}
	if ballot.Name == "" {
		ballot.Name = strings.TrimSpace(name)
	}

	next := ballot.WithVote(voter)
	outcome := &models.Outcome{
		Candidate: candidate,
		Name:      next.Name,
		State:     next.State(),
		Votes:     len(next.Voters),
		Needed:    models.VotesNeeded(s.membership.Count(ctx)),
	}

	if outcome.Votes >= outcome.Needed {
		if err := s.ballots.Delete(ctx, candidate); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close ballot")
		}
		outcome.State = models.BallotAdmitted
		s.logger.InfoContext(ctx, "candidate admitted by consensus",
			"candidate", candidate, "votes", outcome.Votes, "needed", outcome.Needed)
		return outcome, nil
	}

	if err := s.ballots.Save(ctx, &next); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save ballot")
	}
	return outcome, nil
}

// Ballot returns the open ballot for candidate, or an empty NoVotes ballot.
func (s *Service) Ballot(ctx context.Context, candidate id.Address) (*models.Ballot, error) {
	ballot, err := s.ballots.Find(ctx, candidate)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &models.Ballot{Candidate: candidate}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ballot")
	}
	return ballot, nil
}

// VotesNeeded returns the current admission threshold.
func (s *Service) VotesNeeded(ctx context.Context) int {
	return models.VotesNeeded(s.membership.Count(ctx))
}

// Pending lists ballots still collecting votes.
func (s *Service) Pending(ctx context.Context) []models.Ballot {
	return s.ballots.List(ctx)
}
