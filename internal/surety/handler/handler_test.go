package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	airlinemodels "flightsurety/internal/airline/models"
	flightmodels "flightsurety/internal/flight/models"
	insurancemodels "flightsurety/internal/insurance/models"
	"flightsurety/internal/surety"
	id "flightsurety/pkg/domain"
	"flightsurety/pkg/requestcontext"
	"flightsurety/pkg/testutil"
)

var (
	owner     = testutil.Address(1000)
	facade    = testutil.Address(2000)
	first     = testutil.Address(1)
	second    = testutil.Address(2)
	passenger = testutil.Address(101)
	oracle    = testutil.Address(3000)
)

var flightPath = "/v1/flights/" + first.String() + "/ND1309/1700000000"

type HandlerSuite struct {
	suite.Suite
	engine *surety.Engine
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	genesis := surety.DefaultGenesis(owner, first)
	genesis.AuthorizedCallers = []id.Address{facade}
	genesis.Oracles = []id.Address{oracle}
	engine, err := surety.New(genesis, surety.WithClock(func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}))
	s.Require().NoError(err)
	s.engine = engine

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(engine, logger).Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request, sender id.Address) *httptest.ResponseRecorder {
	if !sender.IsZero() {
		req = testutil.WithAuth(req, sender, facade)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) post(path string, body any, sender id.Address) *httptest.ResponseRecorder {
	return s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path, body), sender)
}

func (s *HandlerSuite) get(path string) *httptest.ResponseRecorder {
	return s.do(testutil.NewRequest(s.T(), http.MethodGet, path), id.ZeroAddress)
}

func (s *HandlerSuite) fundFirst() {
	rr := s.post("/v1/airlines/"+first.String()+"/fund", map[string]string{"amount": "10 ether"}, first)
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) registerFlight() {
	rr := s.post("/v1/flights", map[string]any{"flight": "ND1309", "timestamp": 1700000000}, first)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *HandlerSuite) TestStatus() {
	s.Run("reports the genesis state", func() {
		rr := s.get("/v1/status")
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[StatusResponse](s.T(), rr)
		s.True(resp.Operational)
		s.Equal(owner, resp.Owner)
		s.Equal(uint64(0), resp.Height)
	})

	s.Run("only the owner may pause", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/v1/status", map[string]bool{"operational": false}), first)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("missing field is a validation error", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/v1/status", map[string]any{}), owner)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("paused registry rejects mutations with 503", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/v1/status", map[string]bool{"operational": false}), owner)
		testutil.AssertStatusOK(s.T(), rr)

		rr = s.post("/v1/airlines/"+first.String()+"/fund", map[string]string{"amount": "10 ether"}, first)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "contract_paused")
		s.False(s.engine.IsAirlineFunded(context.Background(), first))
	})
}

func (s *HandlerSuite) TestUnauthenticatedMutation() {
	rr := s.post("/v1/payouts/withdraw", nil, id.ZeroAddress)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
}

func (s *HandlerSuite) TestCallers() {
	other := testutil.Address(3000)

	rr := s.post("/v1/callers", map[string]string{"address": other.String()}, owner)
	testutil.AssertStatusOK(s.T(), rr)
	s.True(s.engine.IsCallerAuthorized(context.Background(), other))

	rr = s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/v1/callers/"+other.String()), owner)
	testutil.AssertStatusOK(s.T(), rr)
	s.False(s.engine.IsCallerAuthorized(context.Background(), other))

	rr = s.post("/v1/callers", map[string]string{"address": "not-an-address"}, owner)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestAirlines() {
	s.Run("unfunded airline cannot register others", func() {
		rr := s.post("/v1/airlines", map[string]string{"candidate": second.String(), "name": "Second"}, first)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "not_funded")
	})

	s.Run("an airline can only fund itself", func() {
		rr := s.post("/v1/airlines/"+first.String()+"/fund", map[string]string{"amount": "10 ether"}, second)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("stake below minimum", func() {
		rr := s.post("/v1/airlines/"+first.String()+"/fund", map[string]string{"amount": "1 ether"}, first)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "insufficient_stake")
	})

	s.Run("malformed amount", func() {
		rr := s.post("/v1/airlines/"+first.String()+"/fund", map[string]string{"amount": "lots"}, first)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("funded airline registers a candidate during bootstrap", func() {
		s.fundFirst()
		rr := s.post("/v1/airlines", map[string]string{"candidate": second.String(), "name": "Second"}, first)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		res := testutil.UnmarshalResponse[surety.Result](s.T(), rr)
		s.Require().NotNil(res.Registration)
		s.True(res.Registration.Registered)
		s.Equal(airlinemodels.PhaseBootstrap, res.Registration.Phase)
	})

	s.Run("duplicate registration conflicts", func() {
		rr := s.post("/v1/airlines", map[string]string{"candidate": second.String(), "name": "Second"}, first)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "already_registered")
	})

	s.Run("lookup", func() {
		rr := s.get("/v1/airlines/" + second.String())
		testutil.AssertStatusOK(s.T(), rr)
		a := testutil.UnmarshalResponse[airlinemodels.Airline](s.T(), rr)
		s.Equal("Second", a.Name)
		s.False(a.Funded)

		rr = s.get("/v1/airlines/" + testutil.Address(77).String())
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("candidate without votes has an empty ballot", func() {
		rr := s.get("/v1/airlines/" + testutil.Address(77).String() + "/ballot")
		testutil.AssertStatusOK(s.T(), rr)
		b := testutil.UnmarshalResponse[BallotResponse](s.T(), rr)
		s.Equal(0, b.Votes)
		s.Empty(b.Voters)
	})
}

func (s *HandlerSuite) TestFlightLifecycle() {
	s.fundFirst()
	s.registerFlight()

	s.Run("flight lookup", func() {
		rr := s.get(flightPath)
		testutil.AssertStatusOK(s.T(), rr)
		f := testutil.UnmarshalResponse[flightmodels.Flight](s.T(), rr)
		s.Equal("ND1309", f.Name)
		s.Equal(flightmodels.StatusUnknown, f.Status)
	})

	s.Run("unknown flight", func() {
		rr := s.post("/v1/flights/"+first.String()+"/NOPE/1700000000/insurance", map[string]string{"amount": "1"}, passenger)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "unknown_flight")
	})

	s.Run("bad timestamp in path", func() {
		rr := s.get("/v1/flights/" + first.String() + "/ND1309/soon")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("purchase above cap", func() {
		rr := s.post(flightPath+"/insurance", map[string]string{"amount": "2 ether"}, passenger)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "policy_cap_exceeded")
	})

	s.Run("purchase", func() {
		rr := s.post(flightPath+"/insurance", map[string]string{"amount": "1 ether"}, passenger)
		testutil.AssertStatusOK(s.T(), rr)

		rr = s.get(flightPath + "/insurance/" + passenger.String())
		testutil.AssertStatusOK(s.T(), rr)
		p := testutil.UnmarshalResponse[insurancemodels.Policy](s.T(), rr)
		s.True(p.AmountPaid.Equal(id.Ether("1")))
	})

	s.Run("unknown status code", func() {
		rr := s.post(flightPath+"/status", map[string]int{"status": 25}, oracle)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("passenger cannot report status", func() {
		rr := s.post(flightPath+"/status", map[string]int{"status": 20}, passenger)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")

		rr = s.get("/v1/payouts/" + passenger.String())
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "balance", "0")
	})

	s.Run("late airline credits 1.5x", func() {
		rr := s.post(flightPath+"/status", map[string]int{"status": 20}, oracle)
		testutil.AssertStatusOK(s.T(), rr)
		res := testutil.UnmarshalResponse[surety.Result](s.T(), rr)
		s.Require().NotNil(res.Credit)
		s.Equal(1, res.Credit.Policies)

		rr = s.get("/v1/payouts/" + passenger.String())
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "balance", id.Ether("1.5").String())
	})

	s.Run("second status report is rejected", func() {
		rr := s.post(flightPath+"/status", map[string]int{"status": 10}, oracle)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "flight_settled")
	})

	s.Run("withdraw once", func() {
		rr := s.post("/v1/payouts/withdraw", nil, passenger)
		testutil.AssertStatusOK(s.T(), rr)
		res := testutil.UnmarshalResponse[surety.Result](s.T(), rr)
		s.Require().NotNil(res.Withdrawal)
		s.True(res.Withdrawal.Amount.Equal(id.Ether("1.5")))

		rr = s.post("/v1/payouts/withdraw", nil, passenger)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "no_funds")
	})

	s.Run("height counts applied operations", func() {
		rr := s.get("/v1/log/height")
		testutil.AssertStatusOK(s.T(), rr)
		h := testutil.UnmarshalResponse[HeightResponse](s.T(), rr)
		s.Equal(uint64(5), h.Height)
	})
}

func (s *HandlerSuite) TestStatusReportUsesRequestTime() {
	s.fundFirst()
	s.registerFlight()
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, flightPath+"/status", map[string]int{"status": 10})
	req = req.WithContext(requestcontext.WithTime(req.Context(), at))
	rr := s.do(req, oracle)
	testutil.AssertStatusOK(s.T(), rr)

	f, err := s.engine.Flight(context.Background(), id.NewFlightKey(first, "ND1309", 1700000000))
	s.Require().NoError(err)
	s.Equal(at.Unix(), f.UpdatedAt)
}

func (s *HandlerSuite) TestUnknownFieldsRejected() {
	s.fundFirst()
	rr := s.post("/v1/flights", map[string]any{"flight": "ND1309", "timestamp": 1700000000, "extra": true}, first)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}
