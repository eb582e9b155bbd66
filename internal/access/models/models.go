package models

import id "flightsurety/pkg/domain"

// State is the exported form of access-control state, used by snapshots.
//
// Invariants:
//   - Owner is fixed at genesis and never changes
//   - Operational is the only flag the owner may toggle at runtime
//   - Callers is the allow-list of facades permitted to submit mutating operations
type State struct {
	Owner       id.Address   `json:"owner"`
	Operational bool         `json:"operational"`
	Callers     []id.Address `json:"callers"`
}
