package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/access/store"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

var (
	owner    = id.MustAddress("0x00000000000000000000000000000000000000a0")
	stranger = id.MustAddress("0x00000000000000000000000000000000000000b0")
	facade   = id.MustAddress("0x00000000000000000000000000000000000000c0")
)

type AccessServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	service *Service
}

func (s *AccessServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.New(owner)
	s.service = New(s.store)
}

func TestAccessServiceSuite(t *testing.T) {
	suite.Run(t, new(AccessServiceSuite))
}

// =============================================================================
// Operating status
// =============================================================================

func (s *AccessServiceSuite) TestSetOperatingStatus() {
	s.Run("starts operational", func() {
		s.True(s.service.IsOperational(s.ctx))
		s.NoError(s.service.RequireOperational(s.ctx))
	})

	s.Run("owner pauses and resumes", func() {
		s.Require().NoError(s.service.SetOperatingStatus(s.ctx, owner, false))
		s.False(s.service.IsOperational(s.ctx))
		s.True(dErrors.HasCode(s.service.RequireOperational(s.ctx), dErrors.CodeContractPaused))

		s.Require().NoError(s.service.SetOperatingStatus(s.ctx, owner, true))
		s.True(s.service.IsOperational(s.ctx))
	})

	s.Run("non-owner is rejected and flag is unchanged", func() {
		err := s.service.SetOperatingStatus(s.ctx, stranger, false)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.True(s.service.IsOperational(s.ctx))
	})
}

// =============================================================================
// Caller allow-list
// =============================================================================

func (s *AccessServiceSuite) TestCallerAllowList() {
	s.Run("unknown caller is rejected", func() {
		err := s.service.RequireAuthorizedCaller(s.ctx, facade)
		s.True(dErrors.HasCode(err, dErrors.CodeCallerNotAuthorized))
	})

	s.Run("owner authorizes and deauthorizes", func() {
		s.Require().NoError(s.service.AuthorizeCaller(s.ctx, owner, facade))
		s.Require().NoError(s.service.AuthorizeCaller(s.ctx, owner, facade))
		s.NoError(s.service.RequireAuthorizedCaller(s.ctx, facade))
		s.Equal([]id.Address{facade}, s.service.Callers(s.ctx))

		s.Require().NoError(s.service.DeauthorizeCaller(s.ctx, owner, facade))
		s.False(s.service.IsCallerAuthorized(s.ctx, facade))
	})

	s.Run("deauthorizing an unknown caller is not found", func() {
		err := s.service.DeauthorizeCaller(s.ctx, owner, stranger)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("non-owner cannot change the allow-list", func() {
		err := s.service.AuthorizeCaller(s.ctx, stranger, stranger)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.False(s.service.IsCallerAuthorized(s.ctx, stranger))
	})

	s.Run("zero caller is invalid", func() {
		err := s.service.AuthorizeCaller(s.ctx, owner, id.ZeroAddress)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AccessServiceSuite) TestRollback() {
	s.store.Participants().Begin()
	s.Require().NoError(s.service.SetOperatingStatus(s.ctx, owner, false))
	s.Require().NoError(s.service.AuthorizeCaller(s.ctx, owner, facade))
	s.store.Participants().Rollback()

	s.True(s.service.IsOperational(s.ctx))
	s.False(s.service.IsCallerAuthorized(s.ctx, facade))
}
