package surety

import (
	"context"

	"github.com/shopspring/decimal"

	airlinemodels "flightsurety/internal/airline/models"
	consensusmodels "flightsurety/internal/consensus/models"
	flightmodels "flightsurety/internal/flight/models"
	insurancemodels "flightsurety/internal/insurance/models"
	id "flightsurety/pkg/domain"
)

// Read-only views. Each takes the shared lock so it never observes a
// half-applied operation.

func (e *Engine) Genesis() Genesis {
	return e.genesis
}

func (e *Engine) Height() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.height
}

func (e *Engine) IsOperational(ctx context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.access.IsOperational(ctx)
}

func (e *Engine) Owner(ctx context.Context) id.Address {
	return e.access.Owner(ctx)
}

func (e *Engine) IsCallerAuthorized(ctx context.Context, caller id.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.access.IsCallerAuthorized(ctx, caller)
}

func (e *Engine) Callers(ctx context.Context) []id.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.access.Callers(ctx)
}

func (e *Engine) Airline(ctx context.Context, airline id.Address) (*airlinemodels.Airline, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.airlines.Get(ctx, airline)
}

func (e *Engine) IsAirlineRegistered(ctx context.Context, airline id.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.airlines.IsRegistered(ctx, airline)
}

func (e *Engine) IsAirlineFunded(ctx context.Context, airline id.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.airlines.IsFunded(ctx, airline)
}

func (e *Engine) Airlines(ctx context.Context) []airlinemodels.Airline {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.airlines.List(ctx)
}

// Ballot returns the open ballot for candidate with the current threshold.
func (e *Engine) Ballot(ctx context.Context, candidate id.Address) (*consensusmodels.Ballot, int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ballot, err := e.consensus.Ballot(ctx, candidate)
	if err != nil {
		return nil, 0, err
	}
	return ballot, e.consensus.VotesNeeded(ctx), nil
}

func (e *Engine) PendingBallots(ctx context.Context) []consensusmodels.Ballot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.consensus.Pending(ctx)
}

func (e *Engine) Flight(ctx context.Context, key id.FlightKey) (*flightmodels.Flight, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.flights.Get(ctx, key)
}

func (e *Engine) IsFlightRegistered(ctx context.Context, airline id.Address, name string, timestamp int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.flights.IsFlightRegistered(ctx, name, timestamp, airline)
}

func (e *Engine) FlightsByAirline(ctx context.Context, airline id.Address) []flightmodels.Flight {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.flights.ListByAirline(ctx, airline)
}

func (e *Engine) Policy(ctx context.Context, flight id.FlightKey, passenger id.Address) (*insurancemodels.Policy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.insurance.Policy(ctx, flight, passenger)
}

func (e *Engine) PoliciesByPassenger(ctx context.Context, passenger id.Address) []insurancemodels.Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.insurance.PoliciesByPassenger(ctx, passenger)
}

func (e *Engine) PoliciesByFlight(ctx context.Context, flight id.FlightKey) []insurancemodels.Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.insurance.PoliciesByFlight(ctx, flight)
}

// Balance is the passenger's withdrawable payout credit.
func (e *Engine) Balance(ctx context.Context, passenger id.Address) decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.insurance.Balance(ctx, passenger)
}
