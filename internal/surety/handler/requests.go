package handler

import (
	"strings"

	"github.com/shopspring/decimal"

	flightmodels "flightsurety/internal/flight/models"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// SetStatusRequest is the body for PUT /v1/status.
type SetStatusRequest struct {
	Operational *bool `json:"operational"`
}

func (r *SetStatusRequest) Validate() error {
	if r.Operational == nil {
		return dErrors.New(dErrors.CodeValidation, "operational is required")
	}
	return nil
}

// CallerRequest is the body for POST /v1/callers.
type CallerRequest struct {
	Address string `json:"address"`

	parsed id.Address
}

func (r *CallerRequest) Validate() error {
	addr, err := id.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.parsed = addr
	return nil
}

// RegisterAirlineRequest is the body for POST /v1/airlines.
type RegisterAirlineRequest struct {
	Candidate string `json:"candidate"`
	Name      string `json:"name"`

	parsedCandidate id.Address
}

func (r *RegisterAirlineRequest) Validate() error {
	candidate, err := id.ParseAddress(r.Candidate)
	if err != nil {
		return err
	}
	r.parsedCandidate = candidate
	r.Name = strings.TrimSpace(r.Name)
	return nil
}

// AmountRequest carries a value in wei, or "<n> ether".
type AmountRequest struct {
	Amount string `json:"amount"`

	parsedAmount decimal.Decimal
}

func (r *AmountRequest) Validate() error {
	amount, err := id.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

// RegisterFlightRequest is the body for POST /v1/flights.
type RegisterFlightRequest struct {
	Flight    string `json:"flight"`
	Timestamp int64  `json:"timestamp"`
}

func (r *RegisterFlightRequest) Validate() error {
	r.Flight = strings.TrimSpace(r.Flight)
	if r.Flight == "" {
		return dErrors.New(dErrors.CodeValidation, "flight is required")
	}
	if r.Timestamp <= 0 {
		return dErrors.New(dErrors.CodeValidation, "timestamp must be positive")
	}
	return nil
}

// FlightStatusRequest is the oracle body for POST .../status.
type FlightStatusRequest struct {
	Status int `json:"status"`

	parsedStatus flightmodels.StatusCode
}

func (r *FlightStatusRequest) Validate() error {
	status := flightmodels.StatusCode(r.Status)
	if !status.IsValid() || status == flightmodels.StatusUnknown {
		return dErrors.Newf(dErrors.CodeValidation, "unknown status code %d", r.Status)
	}
	r.parsedStatus = status
	return nil
}
