package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	flightmodels "flightsurety/internal/flight/models"
	"flightsurety/internal/insurance/models"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

type Store interface {
	FindPolicy(ctx context.Context, key models.PolicyKey) (*models.Policy, error)
	SavePolicy(ctx context.Context, policy *models.Policy) error
	ListByFlight(ctx context.Context, flight id.FlightKey) []models.Policy
	ListByPassenger(ctx context.Context, passenger id.Address) []models.Policy
	FindCredit(ctx context.Context, flight id.FlightKey) (*models.Credit, error)
	SaveCredit(ctx context.Context, credit *models.Credit) error
	CountPolicies(ctx context.Context) int
}

// FlightRegistry is the read-only flight lookup the ledger depends on. Get fails
// with UnknownFlight for unregistered keys.
type FlightRegistry interface {
	Get(ctx context.Context, key id.FlightKey) (*flightmodels.Flight, error)
}

type Service struct {
	store     Store
	flights   FlightRegistry
	maxPolicy decimal.Decimal
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, flights FlightRegistry, maxPolicy decimal.Decimal, opts ...Option) (*Service, error) {
	if !maxPolicy.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "maximum policy must be positive")
	}
	s := &Service{store: store, flights: flights, maxPolicy: maxPolicy, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) MaxPolicy() decimal.Decimal {
	return s.maxPolicy
}

// BuyInsurance adds amount to the passenger's policy on the flight. The cap
// applies to the cumulative amount per passenger per flight.
func (s *Service) BuyInsurance(ctx context.Context, airline id.Address, flightName string, timestamp int64, passenger id.Address, amount decimal.Decimal) (*models.Policy, error) {
	if passenger.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "passenger address is required")
	}
	key := id.NewFlightKey(airline, flightName, timestamp)
	flight, err := s.flights.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if flight.IsSettled() {
		return nil, dErrors.New(dErrors.CodeFlightSettled, "flight status already reported")
	}
	if _, err := s.store.FindCredit(ctx, key); err == nil {
		return nil, dErrors.New(dErrors.CodeAlreadyCredited, "flight payouts already credited")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credit")
	}
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodePolicyCapExceeded, "premium must be greater than zero")
	}

	policy, err := s.store.FindPolicy(ctx, models.PolicyKey{Flight: key, Passenger: passenger})
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
		}
		policy = &models.Policy{
			Flight:       key,
			Passenger:    passenger,
			Seq:          s.store.CountPolicies(ctx) + 1,
			AmountPaid:   decimal.Zero,
			PayoutCredit: decimal.Zero,
			Withdrawn:    decimal.Zero,
		}
	}
	total := policy.AmountPaid.Add(amount)
	if total.GreaterThan(s.maxPolicy) {
		return nil, dErrors.Newf(dErrors.CodePolicyCapExceeded,
			"cumulative premium %s wei exceeds the cap of %s wei", total.String(), s.maxPolicy.String())
	}
	policy.AmountPaid = total
	if err := s.store.SavePolicy(ctx, policy); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save policy")
	}
	s.logger.InfoContext(ctx, "insurance purchased",
		"flight_key", key.String(), "passenger", passenger, "amount_paid", total.String())
	return policy, nil
}

// CreditPayout credits every policy on the flight with floor(paid * num / den).
// A flight is credited once; a second call fails with AlreadyCredited.
func (s *Service) CreditPayout(ctx context.Context, flight id.FlightKey, m models.Multiplier) (*models.Credit, error) {
	if m.Den <= 0 || m.Num < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "multiplier must have a positive denominator and non-negative numerator")
	}
	if _, err := s.flights.Get(ctx, flight); err != nil {
		return nil, err
	}
	if _, err := s.store.FindCredit(ctx, flight); err == nil {
		return nil, dErrors.New(dErrors.CodeAlreadyCredited, "flight payouts already credited")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credit")
	}

	credit := &models.Credit{Flight: flight, Multiplier: m, Total: decimal.Zero}
	for _, policy := range s.store.ListByFlight(ctx, flight) {
		payout := id.MulDivFloor(policy.AmountPaid, m.Num, m.Den)
		policy.PayoutCredit = payout
		if err := s.store.SavePolicy(ctx, &policy); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit policy")
		}
		credit.Policies++
		credit.Total = credit.Total.Add(payout)
	}
	if err := s.store.SaveCredit(ctx, credit); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeAlreadyCredited, "flight payouts already credited")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record credit")
	}
	s.logger.InfoContext(ctx, "payouts credited",
		"flight_key", flight.String(), "policies", credit.Policies, "total", credit.Total.String())
	return credit, nil
}

// Withdraw drains the passenger's payout credit across all policies.
func (s *Service) Withdraw(ctx context.Context, passenger id.Address) (*models.Withdrawal, error) {
	w := &models.Withdrawal{Passenger: passenger, Amount: decimal.Zero}
	policies := s.store.ListByPassenger(ctx, passenger)
	for _, p := range policies {
		w.Amount = w.Amount.Add(p.PayoutCredit)
	}
	if !w.Amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeNoFunds, "no payout credit to withdraw")
	}
	for _, p := range policies {
		if !p.PayoutCredit.IsPositive() {
			continue
		}
		p.Withdrawn = p.Withdrawn.Add(p.PayoutCredit)
		p.PayoutCredit = decimal.Zero
		if err := s.store.SavePolicy(ctx, &p); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to settle policy")
		}
		w.Policies++
	}
	s.logger.InfoContext(ctx, "payout withdrawn", "passenger", passenger, "amount", w.Amount.String())
	return w, nil
}

// Policy looks up a passenger's policy on a flight.
func (s *Service) Policy(ctx context.Context, flight id.FlightKey, passenger id.Address) (*models.Policy, error) {
	p, err := s.store.FindPolicy(ctx, models.PolicyKey{Flight: flight, Passenger: passenger})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	return p, nil
}

func (s *Service) PoliciesByPassenger(ctx context.Context, passenger id.Address) []models.Policy {
	return s.store.ListByPassenger(ctx, passenger)
}

func (s *Service) PoliciesByFlight(ctx context.Context, flight id.FlightKey) []models.Policy {
	return s.store.ListByFlight(ctx, flight)
}

// Balance returns the passenger's withdrawable credit.
func (s *Service) Balance(ctx context.Context, passenger id.Address) decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.store.ListByPassenger(ctx, passenger) {
		total = total.Add(p.PayoutCredit)
	}
	return total
}

func (s *Service) IsCredited(ctx context.Context, flight id.FlightKey) bool {
	_, err := s.store.FindCredit(ctx, flight)
	return err == nil
}
