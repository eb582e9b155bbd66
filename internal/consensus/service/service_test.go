package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/consensus/models"
	"flightsurety/internal/consensus/store"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/testutil"
)

// stubMembership is a fixed view of the airline registry.
type stubMembership struct {
	registered map[id.Address]bool
	funded     map[id.Address]bool
}

func (m *stubMembership) IsRegistered(_ context.Context, a id.Address) bool { return m.registered[a] }
func (m *stubMembership) IsFunded(_ context.Context, a id.Address) bool     { return m.funded[a] }
func (m *stubMembership) Count(_ context.Context) int                      { return len(m.registered) }

type ConsensusServiceSuite struct {
	suite.Suite
	ctx        context.Context
	membership *stubMembership
	ballots    *store.InMemory
	service    *Service
	candidate  id.Address
}

func (s *ConsensusServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.membership = &stubMembership{registered: map[id.Address]bool{}, funded: map[id.Address]bool{}}
	for i := uint64(1); i <= 4; i++ {
		s.membership.registered[testutil.Address(i)] = true
		s.membership.funded[testutil.Address(i)] = true
	}
	s.ballots = store.New()
	s.service = New(s.ballots, s.membership)
	s.candidate = testutil.Address(5)
}

func TestConsensusServiceSuite(t *testing.T) {
	suite.Run(t, new(ConsensusServiceSuite))
}

func (s *ConsensusServiceSuite) TestVotesNeeded() {
	cases := map[int]int{0: 1, 1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 6: 3, 7: 4}
	for count, want := range cases {
		s.Equal(want, models.VotesNeeded(count), "count=%d", count)
	}
}

func (s *ConsensusServiceSuite) TestCastVote() {
	s.Run("first vote of four is not enough", func() {
		out, err := s.service.CastVote(s.ctx, s.candidate, "Fifth Air", testutil.Address(1))
		s.Require().NoError(err)
		s.Equal(models.BallotVoting, out.State)
		s.Equal(1, out.Votes)
		s.Equal(2, out.Needed)

		ballot, err := s.service.Ballot(s.ctx, s.candidate)
		s.Require().NoError(err)
		s.Equal([]id.Address{testutil.Address(1)}, ballot.Voters)
		s.Equal("Fifth Air", ballot.Name)
		s.Len(s.service.Pending(s.ctx), 1)
	})

	s.Run("duplicate vote is rejected", func() {
		_, err := s.service.CastVote(s.ctx, s.candidate, "Fifth Air", testutil.Address(1))
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateVote))
	})

	s.Run("second distinct vote admits and discards the tally", func() {
		out, err := s.service.CastVote(s.ctx, s.candidate, "", testutil.Address(2))
		s.Require().NoError(err)
		s.True(out.Admitted())
		s.Equal("Fifth Air", out.Name)

		ballot, err := s.service.Ballot(s.ctx, s.candidate)
		s.Require().NoError(err)
		s.Equal(models.BallotNoVotes, ballot.State())
		s.Empty(s.service.Pending(s.ctx))
	})
}

func (s *ConsensusServiceSuite) TestCastVoteRejections() {
	s.Run("unfunded voter", func() {
		s.membership.registered[testutil.Address(9)] = true
		_, err := s.service.CastVote(s.ctx, s.candidate, "Fifth Air", testutil.Address(9))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFunded))
	})

	s.Run("candidate already registered", func() {
		_, err := s.service.CastVote(s.ctx, testutil.Address(2), "Dup", testutil.Address(1))
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
	})

	s.Run("zero candidate", func() {
		_, err := s.service.CastVote(s.ctx, id.ZeroAddress, "None", testutil.Address(1))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// TestThresholdTracksLiveCount verifies the threshold is read at each vote
// rather than fixed when the ballot opens.
func (s *ConsensusServiceSuite) TestThresholdTracksLiveCount() {
	out, err := s.service.CastVote(s.ctx, s.candidate, "Fifth Air", testutil.Address(1))
	s.Require().NoError(err)
	s.Equal(2, out.Needed)

	s.membership.registered[testutil.Address(6)] = true
	s.membership.registered[testutil.Address(7)] = true
	s.membership.registered[testutil.Address(8)] = true

	out, err = s.service.CastVote(s.ctx, s.candidate, "Fifth Air", testutil.Address(2))
	s.Require().NoError(err)
	s.Equal(4, out.Needed)
	s.False(out.Admitted())
	s.Equal(2, out.Votes)
}

func (s *ConsensusServiceSuite) TestRollbackRestoresTally() {
	_, err := s.service.CastVote(s.ctx, s.candidate, "Fifth Air", testutil.Address(1))
	s.Require().NoError(err)

	s.ballots.Participants().Begin()
	out, err := s.service.CastVote(s.ctx, s.candidate, "Fifth Air", testutil.Address(2))
	s.Require().NoError(err)
	s.True(out.Admitted())
	s.ballots.Participants().Rollback()

	ballot, err := s.service.Ballot(s.ctx, s.candidate)
	s.Require().NoError(err)
	s.Equal([]id.Address{testutil.Address(1)}, ballot.Voters)
}
