package service

import (
	"context"
	"errors"
	"log/slog"

	"flightsurety/internal/flight/models"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, flight *models.Flight) error
	Update(ctx context.Context, flight *models.Flight) error
	FindByKey(ctx context.Context, key id.FlightKey) (*models.Flight, error)
	Exists(ctx context.Context, key id.FlightKey) bool
	ListByAirline(ctx context.Context, airline id.Address) []models.Flight
	Count(ctx context.Context) int
}

// FundingChecker reports whether an airline may operate flights.
type FundingChecker interface {
	IsFunded(ctx context.Context, airlineID id.Address) bool
}

type Service struct {
	store   Store
	funding FundingChecker
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, funding FundingChecker, opts ...Option) *Service {
	s := &Service{store: store, funding: funding, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterFlight records a flight for a funded airline with status unknown.
func (s *Service) RegisterFlight(ctx context.Context, name string, timestamp int64, airline id.Address) (*models.Flight, error) {
	flight, err := models.NewFlight(airline, name, timestamp)
	if err != nil {
		if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
			return nil, dErrors.New(dErrors.CodeValidation, de.Message)
		}
		return nil, err
	}
	if !s.funding.IsFunded(ctx, airline) {
		return nil, dErrors.New(dErrors.CodeNotFunded, "airline is not funded")
	}
	if err := s.store.Create(ctx, flight); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "flight is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register flight")
	}
	s.logger.InfoContext(ctx, "flight registered",
		"flight_key", flight.Key.String(), "airline", airline, "name", flight.Name)
	return flight, nil
}

func (s *Service) IsFlightRegistered(ctx context.Context, name string, timestamp int64, airline id.Address) bool {
	return s.store.Exists(ctx, id.NewFlightKey(airline, name, timestamp))
}

// Get returns the flight under key, failing with UnknownFlight.
func (s *Service) Get(ctx context.Context, key id.FlightKey) (*models.Flight, error) {
	flight, err := s.store.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnknownFlight, "flight is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load flight")
	}
	return flight, nil
}

// UpdateStatus records the oracle-reported status. A flight settles once: any
// later report fails with FlightSettled.
func (s *Service) UpdateStatus(ctx context.Context, key id.FlightKey, status models.StatusCode, at int64) (*models.Flight, error) {
	if !status.IsValid() || status == models.StatusUnknown {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid flight status %d", int(status))
	}
	flight, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if flight.IsSettled() {
		return nil, dErrors.New(dErrors.CodeFlightSettled, "flight status already reported")
	}
	flight.Status = status
	flight.UpdatedAt = at
	if err := s.store.Update(ctx, flight); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update flight status")
	}
	s.logger.InfoContext(ctx, "flight status updated",
		"flight_key", key.String(), "status", status.String())
	return flight, nil
}

func (s *Service) ListByAirline(ctx context.Context, airline id.Address) []models.Flight {
	return s.store.ListByAirline(ctx, airline)
}

func (s *Service) Count(ctx context.Context) int {
	return s.store.Count(ctx)
}
