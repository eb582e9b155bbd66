package models

import (
	"slices"

	id "flightsurety/pkg/domain"
)

// BallotState is the lifecycle of a candidate's ballot:
// NoVotes -> Voting -> Admitted. An admitted ballot is removed from the store.
type BallotState string

const (
	BallotNoVotes  BallotState = "no_votes"
	BallotVoting   BallotState = "voting"
	BallotAdmitted BallotState = "admitted"
)

// Ballot collects the distinct voters supporting a candidate airline.
//
// Invariants:
//   - Voters holds no duplicates
//   - every voter was a funded airline when its vote was cast
type Ballot struct {
	Candidate id.Address   `json:"candidate"`
	Name      string       `json:"name"`
	Voters    []id.Address `json:"voters"`
}

func (b Ballot) State() BallotState {
	if len(b.Voters) == 0 {
		return BallotNoVotes
	}
	return BallotVoting
}

func (b Ballot) HasVoted(voter id.Address) bool {
	return slices.Contains(b.Voters, voter)
}

// WithVote returns a copy of the ballot with voter appended. The receiver's
// voter slice is never shared with the result.
func (b Ballot) WithVote(voter id.Address) Ballot {
	voters := make([]id.Address, len(b.Voters), len(b.Voters)+1)
	copy(voters, b.Voters)
	b.Voters = append(voters, voter)
	return b
}

// VotesNeeded is the admission threshold for a registry of count airlines:
// half of the registered airlines, rounded up, and never less than one.
func VotesNeeded(count int) int {
	needed := (count + 1) / 2
	if needed < 1 {
		return 1
	}
	return needed
}

// Outcome reports a single vote.
type Outcome struct {
	Candidate id.Address  `json:"candidate"`
	Name      string      `json:"name"`
	State     BallotState `json:"state"`
	Votes     int         `json:"votes"`
	Needed    int         `json:"needed"`
}

func (o Outcome) Admitted() bool {
	return o.State == BallotAdmitted
}
