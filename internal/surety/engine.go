// Package surety is the registry state machine. It wires the access, airline,
// consensus, flight and insurance components over journaled in-memory stores
// and applies operations one at a time in log order.
package surety

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	accessservice "flightsurety/internal/access/service"
	accessstore "flightsurety/internal/access/store"
	airlinemodels "flightsurety/internal/airline/models"
	airlineservice "flightsurety/internal/airline/service"
	airlinestore "flightsurety/internal/airline/store"
	consensusservice "flightsurety/internal/consensus/service"
	consensusstore "flightsurety/internal/consensus/store"
	flightmodels "flightsurety/internal/flight/models"
	flightservice "flightsurety/internal/flight/service"
	flightstore "flightsurety/internal/flight/store"
	insurancemodels "flightsurety/internal/insurance/models"
	insuranceservice "flightsurety/internal/insurance/service"
	insurancestore "flightsurety/internal/insurance/store"
	oplogmodels "flightsurety/internal/oplog/models"
	oplogstore "flightsurety/internal/oplog/store"
	snapshotmodels "flightsurety/internal/snapshot/models"
	"flightsurety/internal/surety/metrics"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	audit "flightsurety/pkg/platform/audit"
	"flightsurety/pkg/platform/journal"
	"flightsurety/pkg/platform/sentinel"
)

const tracerName = "flightsurety/internal/surety"

// LogStore is the durable operation log.
type LogStore interface {
	Append(ctx context.Context, entry *oplogmodels.Entry) error
	Since(ctx context.Context, after uint64) ([]oplogmodels.Entry, error)
	Height(ctx context.Context) (uint64, error)
}

type SnapshotStore interface {
	Save(ctx context.Context, snap *snapshotmodels.Snapshot) error
	Latest(ctx context.Context) (*snapshotmodels.Snapshot, error)
}

// Auditor receives one event per applied or rejected operation.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Result reports what an applied operation changed. Only the fields relevant
// to the operation kind are set.
type Result struct {
	Height       uint64                           `json:"height"`
	Kind         Kind                             `json:"kind"`
	Operational  *bool                            `json:"operational,omitempty"`
	Registration *airlinemodels.RegistrationResult `json:"registration,omitempty"`
	Airline      *airlinemodels.Airline           `json:"airline,omitempty"`
	Flight       *flightmodels.Flight             `json:"flight,omitempty"`
	Policy       *insurancemodels.Policy          `json:"policy,omitempty"`
	Credit       *insurancemodels.Credit          `json:"credit,omitempty"`
	Withdrawal   *insurancemodels.Withdrawal      `json:"withdrawal,omitempty"`
}

type Engine struct {
	mu sync.RWMutex

	genesis Genesis
	height  uint64

	accessStore    *accessstore.InMemory
	airlineStore   *airlinestore.InMemory
	ballotStore    *consensusstore.InMemory
	flightStore    *flightstore.InMemory
	insuranceStore *insurancestore.InMemory
	group          journal.Group

	access    *accessservice.Service
	airlines  *airlineservice.Service
	consensus *consensusservice.Service
	flights   *flightservice.Service
	insurance *insuranceservice.Service

	log           LogStore
	snapshots     SnapshotStore
	snapshotEvery uint64

	auditor Auditor
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	clock   func() time.Time
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLogStore replaces the default in-memory log.
func WithLogStore(log LogStore) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithSnapshots enables snapshots. When every is non-zero a snapshot is taken
// after each multiple of every committed operations.
func WithSnapshots(store SnapshotStore, every uint64) Option {
	return func(e *Engine) {
		e.snapshots = store
		e.snapshotEvery = every
	}
}

func WithAuditor(auditor Auditor) Option {
	return func(e *Engine) {
		e.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New builds the registry at height zero from genesis. Call Restore before
// Apply when the log or snapshot store already holds state.
func New(genesis Genesis, opts ...Option) (*Engine, error) {
	if err := genesis.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		genesis: genesis,
		log:     oplogstore.NewInMemory(),
		tracer:  otel.Tracer(tracerName),
		logger:  slog.Default(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.accessStore = accessstore.New(genesis.Owner)
	e.airlineStore = airlinestore.New()
	e.ballotStore = consensusstore.New()
	e.flightStore = flightstore.New()
	e.insuranceStore = insurancestore.New()

	e.group = journal.Group{}
	e.group = append(e.group, e.accessStore.Participants()...)
	e.group = append(e.group, e.airlineStore.Participants()...)
	e.group = append(e.group, e.ballotStore.Participants()...)
	e.group = append(e.group, e.flightStore.Participants()...)
	e.group = append(e.group, e.insuranceStore.Participants()...)

	e.access = accessservice.New(e.accessStore, accessservice.WithLogger(e.logger))
	e.consensus = consensusservice.New(e.ballotStore, e.airlineStore, consensusservice.WithLogger(e.logger))
	airlines, err := airlineservice.New(e.airlineStore, e.consensus, airlineservice.Config{
		MinFunds:           genesis.MinFunds,
		ConsensusThreshold: genesis.ConsensusThreshold,
	}, airlineservice.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.airlines = airlines
	e.flights = flightservice.New(e.flightStore, e.airlineStore, flightservice.WithLogger(e.logger))
	insurance, err := insuranceservice.New(e.insuranceStore, e.flights, genesis.MaxPolicy, insuranceservice.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.insurance = insurance

	ctx := context.Background()
	for _, caller := range genesis.AuthorizedCallers {
		if err := e.accessStore.Authorize(ctx, caller); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to authorize genesis caller")
		}
	}
	if _, err := e.airlines.Genesis(ctx, genesis.FirstAirline, genesis.FirstAirlineName); err != nil {
		return nil, err
	}
	e.observeState(ctx)
	return e, nil
}

// Apply runs op as one transaction: gates, component logic, log append, then
// commit. Any failure rolls every table back and the log is untouched.
func (e *Engine) Apply(ctx context.Context, op Op) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kind := string(op.Kind())
	ctx, span := e.tracer.Start(ctx, "surety.Apply", trace.WithAttributes(attribute.String("op.kind", kind)))
	defer span.End()

	start := e.clock()
	op = e.stamp(op)

	e.mu.Lock()
	res, err := e.apply(ctx, op, nil)
	height := e.height
	if err == nil {
		e.observeState(ctx)
	}
	e.mu.Unlock()

	e.metrics.ObserveApplyLatency(kind, e.clock().Sub(start))
	if err != nil {
		code := dErrors.CodeOf(err)
		e.metrics.IncrementRejected(kind, string(code))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		e.logger.InfoContext(ctx, "operation rejected", "kind", kind, "code", code, "error", err)
		e.emit(ctx, rejectionEvent(op, err))
		return nil, err
	}

	e.metrics.IncrementApplied(kind)
	span.SetAttributes(attribute.Int64("log.height", int64(height)))
	e.logger.DebugContext(ctx, "operation applied", "kind", kind, "height", height)
	for _, event := range appliedEvents(op, res) {
		e.emit(ctx, event)
	}

	if e.snapshots != nil && e.snapshotEvery > 0 && height%e.snapshotEvery == 0 {
		if err := e.Snapshot(ctx); err != nil {
			e.logger.ErrorContext(ctx, "automatic snapshot failed", "height", height, "error", err)
		}
	}
	return res, nil
}

// apply must be called with the writer lock held. A nil entry means the op is
// new and is appended to the log; a non-nil entry is being replayed.
func (e *Engine) apply(ctx context.Context, op Op, replay *oplogmodels.Entry) (*Result, error) {
	e.group.Begin()
	res, err := e.execute(ctx, op)
	if err == nil && replay == nil {
		err = e.record(ctx, op)
	}
	if err != nil {
		e.group.Rollback()
		return nil, err
	}
	e.group.Commit()
	e.height++
	res.Height = e.height
	res.Kind = op.Kind()
	return res, nil
}

func (e *Engine) record(ctx context.Context, op Op) error {
	payload, err := encodeOp(op)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode operation")
	}
	entry := oplogmodels.NewEntry(e.height+1, string(op.Kind()), payload, e.clock())
	if err := e.log.Append(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "operation log moved ahead of this replica")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append to operation log")
	}
	return nil
}

// stamp fills clock-derived fields before the op is logged so replay is
// deterministic.
func (e *Engine) stamp(op Op) Op {
	if o, ok := op.(ProcessFlightStatus); ok && o.ReportedAt == 0 {
		o.ReportedAt = e.clock().Unix()
		return o
	}
	return op
}

func (e *Engine) gate(ctx context.Context, op Op) error {
	if _, ok := op.(SetOperatingStatus); ok {
		return nil
	}
	if err := e.access.RequireOperational(ctx); err != nil {
		return err
	}
	return e.access.RequireAuthorizedCaller(ctx, op.envelope().Caller)
}

func (e *Engine) execute(ctx context.Context, op Op) (*Result, error) {
	if err := e.gate(ctx, op); err != nil {
		return nil, err
	}
	sender := op.envelope().Sender
	res := &Result{}

	switch o := op.(type) {
	case SetOperatingStatus:
		if err := e.access.SetOperatingStatus(ctx, sender, o.Mode); err != nil {
			return nil, err
		}
		mode := o.Mode
		res.Operational = &mode

	case AuthorizeCaller:
		if err := e.access.AuthorizeCaller(ctx, sender, o.Address); err != nil {
			return nil, err
		}

	case DeauthorizeCaller:
		if err := e.access.DeauthorizeCaller(ctx, sender, o.Address); err != nil {
			return nil, err
		}

	case RegisterAirline:
		reg, err := e.airlines.RegisterAirline(ctx, o.Candidate, o.Name, sender)
		if err != nil {
			return nil, err
		}
		res.Registration = reg

	case FundAirline:
		airline, err := e.airlines.Fund(ctx, sender, o.Amount)
		if err != nil {
			return nil, err
		}
		res.Airline = airline

	case RegisterFlight:
		flight, err := e.flights.RegisterFlight(ctx, o.Flight, o.Timestamp, sender)
		if err != nil {
			return nil, err
		}
		res.Flight = flight

	case BuyInsurance:
		policy, err := e.insurance.BuyInsurance(ctx, o.Airline, o.Flight, o.Timestamp, sender, o.Amount)
		if err != nil {
			return nil, err
		}
		res.Policy = policy

	case ProcessFlightStatus:
		if err := e.requireOracle(ctx, sender); err != nil {
			return nil, err
		}
		key := id.NewFlightKey(o.Airline, o.Flight, o.Timestamp)
		flight, err := e.flights.UpdateStatus(ctx, key, o.Status, o.ReportedAt)
		if err != nil {
			return nil, err
		}
		res.Flight = flight
		if o.Status.PaysOut() {
			credit, err := e.insurance.CreditPayout(ctx, key, e.genesis.PayoutMultiplier)
			if err != nil {
				return nil, err
			}
			res.Credit = credit
		}

	case CreditPayout:
		if err := e.access.RequireOwner(ctx, sender); err != nil {
			return nil, err
		}
		key := id.NewFlightKey(o.Airline, o.Flight, o.Timestamp)
		credit, err := e.insurance.CreditPayout(ctx, key, insurancemodels.Multiplier{Num: o.Num, Den: o.Den})
		if err != nil {
			return nil, err
		}
		res.Credit = credit

	case Withdraw:
		w, err := e.insurance.Withdraw(ctx, sender)
		if err != nil {
			return nil, err
		}
		res.Withdrawal = w

	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unsupported operation %T", op)
	}
	return res, nil
}

// requireOracle admits the owner and the genesis oracles.
func (e *Engine) requireOracle(ctx context.Context, sender id.Address) error {
	if !sender.IsZero() && slices.Contains(e.genesis.Oracles, sender) {
		return nil
	}
	if err := e.access.RequireOwner(ctx, sender); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "sender may not report flight status")
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, event audit.Event) {
	if e.auditor == nil {
		return
	}
	if err := e.auditor.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

func (e *Engine) observeState(ctx context.Context) {
	e.metrics.SetState(
		e.airlineStore.Count(ctx),
		e.airlineStore.CountFunded(ctx),
		e.insuranceStore.CountPolicies(ctx),
		e.height,
	)
}
