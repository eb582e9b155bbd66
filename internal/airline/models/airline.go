package models

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

const MaxNameLength = 64

// Airline is a registered participant.
//
// Invariants:
//   - ID is a non-zero address and unique within the registry
//   - Funded implies Registered
//   - Stake is the total funding received and only grows
//   - Seq is the 1-based registration order
type Airline struct {
	ID         id.Address      `json:"id"`
	Name       string          `json:"name"`
	Registered bool            `json:"registered"`
	Funded     bool            `json:"funded"`
	Stake      decimal.Decimal `json:"stake"`
	Seq        int             `json:"seq"`
}

// NewAirline creates a registered, unfunded airline.
func NewAirline(airlineID id.Address, name string, seq int) (*Airline, error) {
	name = strings.TrimSpace(name)
	if airlineID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "airline address is required")
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if seq < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registration sequence must be positive")
	}
	return &Airline{
		ID:         airlineID,
		Name:       name,
		Registered: true,
		Stake:      decimal.Zero,
		Seq:        seq,
	}, nil
}

// ValidateName checks the display name rules shared by direct and consensus registration.
func ValidateName(name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "airline name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "airline name must be 64 characters or less")
	}
	return nil
}

// AddStake records funding. The airline becomes funded on its first accepted stake.
func (a *Airline) AddStake(amount decimal.Decimal) {
	a.Stake = a.Stake.Add(amount)
	a.Funded = true
}

// RegistrationPhase tells which registration rule applied.
type RegistrationPhase string

const (
	// PhaseBootstrap: fewer than the consensus threshold of airlines exist and
	// any funded airline may register a candidate directly.
	PhaseBootstrap RegistrationPhase = "bootstrap"
	// PhaseConsensus: the request counted as one vote for the candidate.
	PhaseConsensus RegistrationPhase = "consensus"
)

// RegistrationResult reports the outcome of RegisterAirline.
type RegistrationResult struct {
	Candidate   id.Address        `json:"candidate"`
	Phase       RegistrationPhase `json:"phase"`
	Registered  bool              `json:"registered"`
	Votes       int               `json:"votes"`
	VotesNeeded int               `json:"votes_needed"`
}
