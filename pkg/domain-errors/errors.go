// Package domainerrors defines the coded error type shared by every service in the
// registry. Services return coded errors; the HTTP layer maps codes to status codes
// and the engine records the code of every rejected operation.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a rejection. Codes are part of the external contract:
// they appear in HTTP error bodies, audit events, and metrics labels.
type Code string

const (
	// Access control
	CodeUnauthorized        Code = "unauthorized"
	CodeCallerNotAuthorized Code = "caller_not_authorized"
	CodeContractPaused      Code = "contract_paused"

	// Membership and funding
	CodeNotFunded         Code = "not_funded"
	CodeNotRegistered     Code = "not_registered"
	CodeAlreadyRegistered Code = "already_registered"
	CodeInsufficientStake Code = "insufficient_stake"
	CodeDuplicateVote     Code = "duplicate_vote"

	// Flights and insurance
	CodeUnknownFlight     Code = "unknown_flight"
	CodeFlightSettled     Code = "flight_settled"
	CodePolicyCapExceeded Code = "policy_cap_exceeded"
	CodeAlreadyCredited   Code = "already_credited"
	CodeNoFunds           Code = "no_funds"

	// Generic
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. Message is safe to return to callers; the wrapped
// error carries infrastructure detail and is never rendered to clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and a client-safe message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// As extracts the outermost coded error from the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost coded error, or CodeInternal when the
// chain carries none.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost coded error in the chain has the given code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better as a predicate.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
