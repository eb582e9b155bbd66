package models

import (
	"github.com/shopspring/decimal"

	id "flightsurety/pkg/domain"
)

// PolicyKey identifies a passenger's policy on one flight.
type PolicyKey struct {
	Flight    id.FlightKey
	Passenger id.Address
}

// Policy is a passenger's cumulative cover on a flight.
//
// Invariants:
//   - 0 < AmountPaid <= the policy cap
//   - PayoutCredit is the unwithdrawn compensation; Withdrawn is what has been paid out
//   - PayoutCredit + Withdrawn never exceeds the credited multiple of AmountPaid
//   - Seq is the 1-based purchase order across the ledger
type Policy struct {
	Flight       id.FlightKey    `json:"flight"`
	Passenger    id.Address      `json:"passenger"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	PayoutCredit decimal.Decimal `json:"payout_credit"`
	Withdrawn    decimal.Decimal `json:"withdrawn"`
	Seq          int             `json:"seq"`
}

func (p Policy) Key() PolicyKey {
	return PolicyKey{Flight: p.Flight, Passenger: p.Passenger}
}

// Multiplier is a payout ratio such as 3/2.
type Multiplier struct {
	Num int64 `json:"num"`
	Den int64 `json:"den"`
}

// DelayMultiplier is the default payout ratio for a flight late through the
// airline's fault.
var DelayMultiplier = Multiplier{Num: 3, Den: 2}

// Credit records that a flight's policies were credited. A flight is credited once.
type Credit struct {
	Flight     id.FlightKey    `json:"flight"`
	Multiplier Multiplier      `json:"multiplier"`
	Policies   int             `json:"policies"`
	Total      decimal.Decimal `json:"total"`
}

// Withdrawal is the result of draining a passenger's credits.
type Withdrawal struct {
	Passenger id.Address      `json:"passenger"`
	Amount    decimal.Decimal `json:"amount"`
	Policies  int             `json:"policies"`
}
