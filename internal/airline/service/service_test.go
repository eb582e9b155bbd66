package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"flightsurety/internal/airline/models"
	"flightsurety/internal/airline/store"
	consensussvc "flightsurety/internal/consensus/service"
	consensusstore "flightsurety/internal/consensus/store"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/testutil"
)

var minFunds = id.Ether("10")

type AirlineServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	service *Service
	genesis id.Address
}

func (s *AirlineServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.New()
	coordinator := consensussvc.New(consensusstore.New(), s.store)

	svc, err := New(s.store, coordinator, Config{MinFunds: minFunds, ConsensusThreshold: 4})
	s.Require().NoError(err)
	s.service = svc

	s.genesis = testutil.Address(1)
	_, err = s.service.Genesis(s.ctx, s.genesis, "Genesis Air")
	s.Require().NoError(err)
}

func TestAirlineServiceSuite(t *testing.T) {
	suite.Run(t, new(AirlineServiceSuite))
}

func (s *AirlineServiceSuite) fund(a id.Address) {
	s.T().Helper()
	_, err := s.service.Fund(s.ctx, a, minFunds)
	s.Require().NoError(err)
}

// registerFunded grows the registry to n funded airlines using the bootstrap rule.
func (s *AirlineServiceSuite) registerFunded(n int) {
	s.T().Helper()
	s.fund(s.genesis)
	for i := 2; i <= n; i++ {
		a := testutil.Address(uint64(i))
		_, err := s.service.RegisterAirline(s.ctx, a, "Airline", s.genesis)
		s.Require().NoError(err)
		s.fund(a)
	}
}

// =============================================================================
// Genesis and funding
// =============================================================================

func (s *AirlineServiceSuite) TestGenesis() {
	s.Run("genesis airline is registered and unfunded", func() {
		s.True(s.service.IsRegistered(s.ctx, s.genesis))
		s.False(s.service.IsFunded(s.ctx, s.genesis))
		s.Equal(1, s.service.Count(s.ctx))
	})

	s.Run("second genesis is rejected", func() {
		_, err := s.service.Genesis(s.ctx, testutil.Address(2), "Other")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *AirlineServiceSuite) TestFund() {
	s.Run("below minimum is rejected", func() {
		_, err := s.service.Fund(s.ctx, s.genesis, minFunds.Sub(decimal.NewFromInt(1)))
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientStake))
		s.False(s.service.IsFunded(s.ctx, s.genesis))
	})

	s.Run("unregistered airline is rejected", func() {
		_, err := s.service.Fund(s.ctx, testutil.Address(99), minFunds)
		s.True(dErrors.HasCode(err, dErrors.CodeNotRegistered))
	})

	s.Run("funding accumulates stake and the flag stays set", func() {
		s.fund(s.genesis)
		a, err := s.service.Fund(s.ctx, s.genesis, minFunds)
		s.Require().NoError(err)
		s.True(a.Funded)
		s.True(a.Stake.Equal(minFunds.Mul(decimal.NewFromInt(2))))
	})
}

// =============================================================================
// Bootstrap registration
// =============================================================================

func (s *AirlineServiceSuite) TestBootstrapRegistration() {
	a2, a3 := testutil.Address(2), testutil.Address(3)

	s.Run("unfunded requester cannot register", func() {
		_, err := s.service.RegisterAirline(s.ctx, a2, "Second Air", s.genesis)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFunded))
		s.False(s.service.IsRegistered(s.ctx, a2))
	})

	s.Run("funded requester registers an unfunded candidate", func() {
		s.fund(s.genesis)
		res, err := s.service.RegisterAirline(s.ctx, a2, "Second Air", s.genesis)
		s.Require().NoError(err)
		s.Equal(models.PhaseBootstrap, res.Phase)
		s.True(res.Registered)
		s.True(s.service.IsRegistered(s.ctx, a2))
		s.False(s.service.IsFunded(s.ctx, a2))
	})

	s.Run("unfunded newcomer cannot register a third airline", func() {
		_, err := s.service.RegisterAirline(s.ctx, a3, "Third Air", a2)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFunded))
		s.False(s.service.IsRegistered(s.ctx, a3))
	})

	s.Run("registering an existing airline fails", func() {
		_, err := s.service.RegisterAirline(s.ctx, a2, "Second Air", s.genesis)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
		s.Equal(2, s.service.Count(s.ctx))
	})

	s.Run("empty name is invalid", func() {
		_, err := s.service.RegisterAirline(s.ctx, a3, "  ", s.genesis)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Consensus registration
// =============================================================================

func (s *AirlineServiceSuite) TestConsensusRegistration() {
	s.registerFunded(4)
	candidate := testutil.Address(5)

	res, err := s.service.RegisterAirline(s.ctx, candidate, "Fifth Air", testutil.Address(1))
	s.Require().NoError(err)
	s.Equal(models.PhaseConsensus, res.Phase)
	s.False(res.Registered)
	s.Equal(1, res.Votes)
	s.Equal(2, res.VotesNeeded)
	s.False(s.service.IsRegistered(s.ctx, candidate))

	_, err = s.service.RegisterAirline(s.ctx, candidate, "Fifth Air", testutil.Address(1))
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateVote))

	res, err = s.service.RegisterAirline(s.ctx, candidate, "Fifth Air", testutil.Address(2))
	s.Require().NoError(err)
	s.True(res.Registered)
	s.True(s.service.IsRegistered(s.ctx, candidate))
	s.False(s.service.IsFunded(s.ctx, candidate))
	s.Equal(5, s.service.Count(s.ctx))

	list := s.service.List(s.ctx)
	s.Equal(candidate, list[len(list)-1].ID)
}

func (s *AirlineServiceSuite) TestUnfundedVoteRejected() {
	s.registerFunded(4)
	s.fund(testutil.Address(1))
	// Fifth airline admitted, still unfunded.
	_, err := s.service.RegisterAirline(s.ctx, testutil.Address(5), "Fifth Air", testutil.Address(1))
	s.Require().NoError(err)
	_, err = s.service.RegisterAirline(s.ctx, testutil.Address(5), "Fifth Air", testutil.Address(2))
	s.Require().NoError(err)

	_, err = s.service.RegisterAirline(s.ctx, testutil.Address(6), "Sixth Air", testutil.Address(5))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFunded))
}

func (s *AirlineServiceSuite) TestFundedImpliesRegistered() {
	s.registerFunded(4)
	for _, a := range s.service.List(s.ctx) {
		if a.Funded {
			s.True(a.Registered, "airline %s", a.ID)
		}
	}
	s.Equal(4, s.service.CountFunded(s.ctx))
}
