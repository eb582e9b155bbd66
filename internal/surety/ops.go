package surety

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	flightmodels "flightsurety/internal/flight/models"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// Kind names an operation in the log.
type Kind string

const (
	KindSetOperatingStatus  Kind = "set_operating_status"
	KindAuthorizeCaller     Kind = "authorize_caller"
	KindDeauthorizeCaller   Kind = "deauthorize_caller"
	KindRegisterAirline     Kind = "register_airline"
	KindFundAirline         Kind = "fund_airline"
	KindRegisterFlight      Kind = "register_flight"
	KindBuyInsurance        Kind = "buy_insurance"
	KindProcessFlightStatus Kind = "process_flight_status"
	KindCreditPayout        Kind = "credit_payout"
	KindWithdraw            Kind = "withdraw"
)

// Envelope identifies who submitted an operation. Caller is the facade the
// operation arrived through and is checked against the allow-list; Sender is
// the account acting (owner, airline, or passenger).
type Envelope struct {
	Caller id.Address `json:"caller"`
	Sender id.Address `json:"sender"`
}

func (e Envelope) envelope() Envelope { return e }

// Op is a mutating operation. Ops are plain data so they can be logged and
// replayed.
type Op interface {
	Kind() Kind
	envelope() Envelope
}

type SetOperatingStatus struct {
	Envelope
	Mode bool `json:"mode"`
}

func (SetOperatingStatus) Kind() Kind { return KindSetOperatingStatus }

type AuthorizeCaller struct {
	Envelope
	Address id.Address `json:"address"`
}

func (AuthorizeCaller) Kind() Kind { return KindAuthorizeCaller }

type DeauthorizeCaller struct {
	Envelope
	Address id.Address `json:"address"`
}

func (DeauthorizeCaller) Kind() Kind { return KindDeauthorizeCaller }

// RegisterAirline sponsors (bootstrap) or votes for (consensus) Candidate. The
// sender is the requesting airline.
type RegisterAirline struct {
	Envelope
	Candidate id.Address `json:"candidate"`
	Name      string     `json:"name"`
}

func (RegisterAirline) Kind() Kind { return KindRegisterAirline }

// FundAirline delivers a stake for the sending airline.
type FundAirline struct {
	Envelope
	Amount decimal.Decimal `json:"amount"`
}

func (FundAirline) Kind() Kind { return KindFundAirline }

// RegisterFlight registers a flight owned by the sending airline.
type RegisterFlight struct {
	Envelope
	Flight    string `json:"flight"`
	Timestamp int64  `json:"timestamp"`
}

func (RegisterFlight) Kind() Kind { return KindRegisterFlight }

// BuyInsurance adds premium to the sender's policy on a flight.
type BuyInsurance struct {
	Envelope
	Airline   id.Address      `json:"airline"`
	Flight    string          `json:"flight"`
	Timestamp int64           `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
}

func (BuyInsurance) Kind() Kind { return KindBuyInsurance }

// ProcessFlightStatus is the oracle report for a flight. The sender must be the
// owner or a genesis oracle. ReportedAt is filled from the engine clock when
// zero, before the op is logged.
type ProcessFlightStatus struct {
	Envelope
	Airline    id.Address              `json:"airline"`
	Flight     string                  `json:"flight"`
	Timestamp  int64                   `json:"timestamp"`
	Status     flightmodels.StatusCode `json:"status"`
	ReportedAt int64                   `json:"reported_at"`
}

func (ProcessFlightStatus) Kind() Kind { return KindProcessFlightStatus }

// CreditPayout credits a flight's policies with an explicit multiplier. Owner only.
type CreditPayout struct {
	Envelope
	Airline   id.Address `json:"airline"`
	Flight    string     `json:"flight"`
	Timestamp int64      `json:"timestamp"`
	Num       int64      `json:"num"`
	Den       int64      `json:"den"`
}

func (CreditPayout) Kind() Kind { return KindCreditPayout }

// Withdraw drains the sender's payout credit.
type Withdraw struct {
	Envelope
}

func (Withdraw) Kind() Kind { return KindWithdraw }

func encodeOp(op Op) (json.RawMessage, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op.Kind(), err)
	}
	return payload, nil
}

// DecodeOp rebuilds an op from its logged kind and payload.
func DecodeOp(kind string, payload []byte) (Op, error) {
	switch Kind(kind) {
	case KindSetOperatingStatus:
		return decode[SetOperatingStatus](payload)
	case KindAuthorizeCaller:
		return decode[AuthorizeCaller](payload)
	case KindDeauthorizeCaller:
		return decode[DeauthorizeCaller](payload)
	case KindRegisterAirline:
		return decode[RegisterAirline](payload)
	case KindFundAirline:
		return decode[FundAirline](payload)
	case KindRegisterFlight:
		return decode[RegisterFlight](payload)
	case KindBuyInsurance:
		return decode[BuyInsurance](payload)
	case KindProcessFlightStatus:
		return decode[ProcessFlightStatus](payload)
	case KindCreditPayout:
		return decode[CreditPayout](payload)
	case KindWithdraw:
		return decode[Withdraw](payload)
	}
	return nil, dErrors.Newf(dErrors.CodeValidation, "unknown operation kind %q", kind)
}

func decode[T Op](payload []byte) (Op, error) {
	var op T
	if err := json.Unmarshal(payload, &op); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "malformed operation payload")
	}
	return op, nil
}
