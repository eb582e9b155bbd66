package models

import (
	"strings"
	"unicode/utf8"

	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

const MaxNameLength = 32

// StatusCode is the oracle-reported outcome of a flight.
type StatusCode int

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

func (c StatusCode) IsValid() bool {
	switch c {
	case StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

// PaysOut reports whether insured passengers are compensated for this status.
// Only delays attributable to the airline qualify.
func (c StatusCode) PaysOut() bool {
	return c == StatusLateAirline
}

func (c StatusCode) String() string {
	switch c {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on_time"
	case StatusLateAirline:
		return "late_airline"
	case StatusLateWeather:
		return "late_weather"
	case StatusLateTechnical:
		return "late_technical"
	case StatusLateOther:
		return "late_other"
	}
	return "invalid"
}

// Flight is a scheduled flight of a funded airline.
//
// Invariants:
//   - Key is derived from (Airline, Name, Timestamp) and unique
//   - Status starts at StatusUnknown and is set at most once
type Flight struct {
	Key       id.FlightKey `json:"key"`
	Airline   id.Address   `json:"airline"`
	Name      string       `json:"name"`
	Timestamp int64        `json:"timestamp"`
	Status    StatusCode   `json:"status"`
	UpdatedAt int64        `json:"updated_at,omitempty"`
}

func NewFlight(airline id.Address, name string, timestamp int64) (*Flight, error) {
	name = strings.TrimSpace(name)
	if airline.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "airline address is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "flight name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "flight name must be 32 characters or less")
	}
	if timestamp <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "flight timestamp must be positive")
	}
	return &Flight{
		Key:       id.NewFlightKey(airline, name, timestamp),
		Airline:   airline,
		Name:      name,
		Timestamp: timestamp,
		Status:    StatusUnknown,
	}, nil
}

// IsSettled reports whether the flight already has a final status.
func (f *Flight) IsSettled() bool {
	return f.Status != StatusUnknown
}
