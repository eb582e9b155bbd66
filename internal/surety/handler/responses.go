package handler

import (
	consensusmodels "flightsurety/internal/consensus/models"
	id "flightsurety/pkg/domain"
)

type StatusResponse struct {
	Operational bool       `json:"operational"`
	Owner       id.Address `json:"owner"`
	Height      uint64     `json:"height"`
}

type HeightResponse struct {
	Height uint64 `json:"height"`
}

type BallotResponse struct {
	Candidate id.Address                  `json:"candidate"`
	Name      string                      `json:"name,omitempty"`
	State     consensusmodels.BallotState `json:"state"`
	Voters    []id.Address                `json:"voters"`
	Votes     int                         `json:"votes"`
	Needed    int                         `json:"votes_needed"`
}

func FromBallot(b *consensusmodels.Ballot, needed int) BallotResponse {
	voters := b.Voters
	if voters == nil {
		voters = []id.Address{}
	}
	return BallotResponse{
		Candidate: b.Candidate,
		Name:      b.Name,
		State:     b.State(),
		Voters:    voters,
		Votes:     len(b.Voters),
		Needed:    needed,
	}
}

type BalanceResponse struct {
	Passenger id.Address `json:"passenger"`
	Balance   string     `json:"balance"`
}
