package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"flightsurety/internal/airline/models"
	consensusmodels "flightsurety/internal/consensus/models"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, airline *models.Airline) error
	Update(ctx context.Context, airline *models.Airline) error
	FindByID(ctx context.Context, airlineID id.Address) (*models.Airline, error)
	IsRegistered(ctx context.Context, airlineID id.Address) bool
	IsFunded(ctx context.Context, airlineID id.Address) bool
	Count(ctx context.Context) int
	CountFunded(ctx context.Context) int
	List(ctx context.Context) []models.Airline
}

// Coordinator tallies consensus votes for candidates.
type Coordinator interface {
	CastVote(ctx context.Context, candidate id.Address, name string, voter id.Address) (*consensusmodels.Outcome, error)
}

// Config holds the genesis constants of the registry.
type Config struct {
	// MinFunds is the smallest stake that funds an airline.
	MinFunds decimal.Decimal
	// ConsensusThreshold is the registered-airline count at which direct
	// registration stops and voting starts.
	ConsensusThreshold int
}

// Service owns airline membership: direct registration while the registry is
// small, consensus registration afterwards, and funding.
type Service struct {
	store       Store
	coordinator Coordinator
	cfg         Config
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, coordinator Coordinator, cfg Config, opts ...Option) (*Service, error) {
	if cfg.ConsensusThreshold < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "consensus threshold must be at least 1")
	}
	if !cfg.MinFunds.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "minimum funding must be positive")
	}
	s := &Service{store: store, coordinator: coordinator, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Genesis registers the first airline. It is only valid on an empty registry.
func (s *Service) Genesis(ctx context.Context, airlineID id.Address, name string) (*models.Airline, error) {
	if s.store.Count(ctx) != 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "genesis airline already registered")
	}
	airline, err := models.NewAirline(airlineID, name, 1)
	if err != nil {
		return nil, toValidation(err)
	}
	if err := s.store.Create(ctx, airline); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create genesis airline")
	}
	s.logger.InfoContext(ctx, "genesis airline registered", "airline", airlineID)
	return airline, nil
}

// RegisterAirline registers candidate on behalf of requester. Below the consensus
// threshold a funded requester registers the candidate outright; at or above it
// the request is a vote and registration happens once the ballot reaches majority.
func (s *Service) RegisterAirline(ctx context.Context, candidate id.Address, name string, requester id.Address) (*models.RegistrationResult, error) {
	name = strings.TrimSpace(name)
	if candidate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "airline address is required")
	}
	if err := models.ValidateName(name); err != nil {
		return nil, toValidation(err)
	}

	count := s.store.Count(ctx)
	if count < s.cfg.ConsensusThreshold {
		if !s.store.IsFunded(ctx, requester) {
			return nil, dErrors.New(dErrors.CodeNotFunded, "requester is not a funded airline")
		}
		if err := s.create(ctx, candidate, name, count+1); err != nil {
			return nil, err
		}
		return &models.RegistrationResult{
			Candidate:   candidate,
			Phase:       models.PhaseBootstrap,
			Registered:  true,
			Votes:       1,
			VotesNeeded: 1,
		}, nil
	}

	outcome, err := s.coordinator.CastVote(ctx, candidate, name, requester)
	if err != nil {
		return nil, err
	}
	result := &models.RegistrationResult{
		Candidate:   candidate,
		Phase:       models.PhaseConsensus,
		Votes:       outcome.Votes,
		VotesNeeded: outcome.Needed,
	}
	if outcome.Admitted() {
		if err := s.create(ctx, candidate, outcome.Name, count+1); err != nil {
			return nil, err
		}
		result.Registered = true
	}
	return result, nil
}

func (s *Service) create(ctx context.Context, candidate id.Address, name string, seq int) error {
	airline, err := models.NewAirline(candidate, name, seq)
	if err != nil {
		return toValidation(err)
	}
	if err := s.store.Create(ctx, airline); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return dErrors.New(dErrors.CodeAlreadyRegistered, "airline is already registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register airline")
	}
	s.logger.InfoContext(ctx, "airline registered", "airline", candidate, "seq", seq)
	return nil
}

// Fund records stake for a registered airline. Amounts below the minimum are
// rejected; funding an already funded airline adds to its stake.
func (s *Service) Fund(ctx context.Context, airlineID id.Address, amount decimal.Decimal) (*models.Airline, error) {
	airline, err := s.store.FindByID(ctx, airlineID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotRegistered, "airline is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load airline")
	}
	if amount.LessThan(s.cfg.MinFunds) {
		return nil, dErrors.Newf(dErrors.CodeInsufficientStake,
			"funding of %s wei is below the minimum of %s wei", amount.String(), s.cfg.MinFunds.String())
	}
	airline.AddStake(amount)
	if err := s.store.Update(ctx, airline); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fund airline")
	}
	s.logger.InfoContext(ctx, "airline funded", "airline", airlineID, "stake", airline.Stake.String())
	return airline, nil
}

func (s *Service) Get(ctx context.Context, airlineID id.Address) (*models.Airline, error) {
	airline, err := s.store.FindByID(ctx, airlineID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "airline not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load airline")
	}
	return airline, nil
}

func (s *Service) IsRegistered(ctx context.Context, airlineID id.Address) bool {
	return s.store.IsRegistered(ctx, airlineID)
}

func (s *Service) IsFunded(ctx context.Context, airlineID id.Address) bool {
	return s.store.IsFunded(ctx, airlineID)
}

func (s *Service) Count(ctx context.Context) int {
	return s.store.Count(ctx)
}

func (s *Service) CountFunded(ctx context.Context) int {
	return s.store.CountFunded(ctx)
}

func (s *Service) List(ctx context.Context) []models.Airline {
	return s.store.List(ctx)
}

// toValidation converts model invariant violations into validation errors for callers.
func toValidation(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}
