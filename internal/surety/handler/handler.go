// Package handler exposes the registry over HTTP. Every mutating route builds
// a typed operation from the authenticated sender and the facade caller and
// submits it to the engine; reads go straight to the engine's queries.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	airlinemodels "flightsurety/internal/airline/models"
	consensusmodels "flightsurety/internal/consensus/models"
	flightmodels "flightsurety/internal/flight/models"
	insurancemodels "flightsurety/internal/insurance/models"
	"flightsurety/internal/surety"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

// Engine is the registry surface the handler needs.
type Engine interface {
	Apply(ctx context.Context, op surety.Op) (*surety.Result, error)
	Height() uint64
	IsOperational(ctx context.Context) bool
	Owner(ctx context.Context) id.Address
	Airline(ctx context.Context, airline id.Address) (*airlinemodels.Airline, error)
	Ballot(ctx context.Context, candidate id.Address) (*consensusmodels.Ballot, int, error)
	Flight(ctx context.Context, key id.FlightKey) (*flightmodels.Flight, error)
	Policy(ctx context.Context, flight id.FlightKey, passenger id.Address) (*insurancemodels.Policy, error)
	Balance(ctx context.Context, passenger id.Address) decimal.Decimal
}

type Handler struct {
	engine Engine
	logger *slog.Logger
}

func New(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register mounts the registry routes. Authentication and request metadata
// middleware are installed by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.handleGetStatus)
		r.Put("/status", h.handleSetStatus)

		r.Post("/callers", h.handleAuthorizeCaller)
		r.Delete("/callers/{address}", h.handleDeauthorizeCaller)

		r.Post("/airlines", h.handleRegisterAirline)
		r.Get("/airlines/{address}", h.handleGetAirline)
		r.Post("/airlines/{address}/fund", h.handleFundAirline)
		r.Get("/airlines/{address}/ballot", h.handleGetBallot)

		r.Post("/flights", h.handleRegisterFlight)
		r.Route("/flights/{airline}/{name}/{timestamp}", func(r chi.Router) {
			r.Get("/", h.handleGetFlight)
			r.Post("/insurance", h.handleBuyInsurance)
			r.Get("/insurance/{passenger}", h.handleGetPolicy)
			r.Post("/status", h.handleFlightStatus)
		})

		r.Post("/payouts/withdraw", h.handleWithdraw)
		r.Get("/payouts/{passenger}", h.handleGetBalance)

		r.Get("/log/height", h.handleGetHeight)
	})
}

// envelope reads the identities the auth middleware attached.
func (h *Handler) envelope(ctx context.Context) (surety.Envelope, error) {
	sender := requestcontext.Sender(ctx)
	if sender.IsZero() {
		h.logger.ErrorContext(ctx, "sender missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		return surety.Envelope{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return surety.Envelope{Caller: requestcontext.Caller(ctx), Sender: sender}, nil
}

// submit applies op and writes the result with status.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, op surety.Op, status int) {
	ctx := r.Context()
	res, err := h.engine.Apply(ctx, op)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "operation failed",
				"request_id", requestcontext.RequestID(ctx),
				"kind", op.Kind(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, res)
}

func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Operational: h.engine.IsOperational(ctx),
		Owner:       h.engine.Owner(ctx),
		Height:      h.engine.Height(),
	})
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env, err := h.envelope(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.submit(w, r, surety.SetOperatingStatus{Envelope: env, Mode: *req.Operational}, http.StatusOK)
}

func (h *Handler) handleAuthorizeCaller(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env, err := h.envelope(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CallerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.submit(w, r, surety.AuthorizeCaller{Envelope: env, Address: req.parsed}, http.StatusOK)
}

func (h *Handler) handleDeauthorizeCaller(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env, err := h.envelope(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.submit(w, r, surety.DeauthorizeCaller{Envelope: env, Address: addr}, http.StatusOK)
}

func (h *Handler) handleRegisterAirline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env, err := h.envelope(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterAirlineRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.submit(w, r, surety.RegisterAirline{Envelope: env, Candidate: req.parsedCandidate, Name: req.Name}, http.StatusCreated)
}

func (h *Handler) handleGetAirline(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	airline, err := h.engine.Airline(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, airline)
}

// handleFundAirline only lets an airline fund itself: the path address must
// be the authenticated sender.
func (h *Handler) handleFundAirline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env, err := h.envelope(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if addr != env.Sender {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "an airline can only fund itself"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.submit(w, r, surety.FundAirline{Envelope: env, Amount: req.parsedAmount}, http.StatusOK)
}

func (h *Handler) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ballot, needed, err := h.engine.Ballot(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBallot(ballot, needed))
}

func (h *Handler) handleRegisterFlight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env, err := h.envelope(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterFlightRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.submit(w, r, surety.RegisterFlight{Envelope: env, Flight: req.Flight, Timestamp: req.Timestamp}, http.StatusCreated)
}

// flightRef is the (airline, name, timestamp) triple carried in flight routes.
type flightRef struct {
	airline   id.Address
	name      string
	timestamp int64
}

func (f flightRef) key() id.FlightKey {
	return id.NewFlightKey(f.airline, f.name, f.timestamp)
}

func parseFlightRef(r *http.Request) (flightRef, error) {
	airline, err := id.ParseAddress(chi.URLParam(r, "airline"))
	if err != nil {
		return flightRef{}, err
	}
	name := chi.URLParam(r, "name")
	if name == "" {
		return flightRef{}, dErrors.New(dErrors.CodeValidation, "flight name is required")
	}
	ts, err := strconv.ParseInt(chi.URLParam(r, "timestamp"), 10, 64)
	if err != nil || ts <= 0 {
		return flightRef{}, dErrors.New(dErrors.CodeValidation, "timestamp must be a positive integer")
	}
	return flightRef{airline: airline, name: name, timestamp: ts}, nil
}

func (h *Handler) handleGetFlight(w http.ResponseWriter, r *http.Request) {
	ref, err := parseFlightRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	flight, err := h.engine.Flight(r.Context(), ref.key())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flight)
}

func (h *Handler) handleBuyInsurance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env, err := h.envelope(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ref, err := parseFlightRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.submit(w, r, surety.BuyInsurance{
		Envelope:  env,
		Airline:   ref.airline,
		Flight:    ref.name,
		Timestamp: ref.timestamp,
		Amount:    req.parsedAmount,
	}, http.StatusOK)
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ref, err := parseFlightRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	passenger, err := id.ParseAddress(chi.URLParam(r, "passenger"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	policy, err := h.engine.Policy(r.Context(), ref.key(), passenger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

func (h *Handler) handleFlightStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env, err := h.envelope(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ref, err := parseFlightRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[FlightStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.submit(w, r, surety.ProcessFlightStatus{
		Envelope:   env,
		Airline:    ref.airline,
		Flight:     ref.name,
		Timestamp:  ref.timestamp,
		Status:     req.parsedStatus,
		ReportedAt: requestcontext.Now(ctx).Unix(),
	}, http.StatusOK)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	env, err := h.envelope(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.submit(w, r, surety.Withdraw{Envelope: env}, http.StatusOK)
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	passenger, err := id.ParseAddress(chi.URLParam(r, "passenger"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{
		Passenger: passenger,
		Balance:   h.engine.Balance(r.Context(), passenger).String(),
	})
}

func (h *Handler) handleGetHeight(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HeightResponse{Height: h.engine.Height()})
}
