package surety

import (
	"context"
	"encoding/json"
	"errors"

	accessmodels "flightsurety/internal/access/models"
	airlinemodels "flightsurety/internal/airline/models"
	consensusmodels "flightsurety/internal/consensus/models"
	flightmodels "flightsurety/internal/flight/models"
	insurancemodels "flightsurety/internal/insurance/models"
	snapshotmodels "flightsurety/internal/snapshot/models"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

// State is the full registry contents as stored in a snapshot.
type State struct {
	Access   accessmodels.State       `json:"access"`
	Airlines []airlinemodels.Airline  `json:"airlines"`
	Ballots  []consensusmodels.Ballot `json:"ballots"`
	Flights  []flightmodels.Flight    `json:"flights"`
	Policies []insurancemodels.Policy `json:"policies"`
	Credits  []insurancemodels.Credit `json:"credits"`
}

func (e *Engine) export(ctx context.Context) State {
	policies, credits := e.insuranceStore.Export(ctx)
	return State{
		Access:   e.accessStore.Export(ctx),
		Airlines: e.airlineStore.List(ctx),
		Ballots:  e.ballotStore.List(ctx),
		Flights:  e.flightStore.List(ctx),
		Policies: policies,
		Credits:  credits,
	}
}

func (e *Engine) load(ctx context.Context, state State) {
	e.accessStore.Import(ctx, state.Access)
	e.airlineStore.Import(ctx, state.Airlines)
	e.ballotStore.Import(ctx, state.Ballots)
	e.flightStore.Import(ctx, state.Flights)
	e.insuranceStore.Import(ctx, state.Policies, state.Credits)
}

// Export returns a copy of the current state and its height.
func (e *Engine) Export(ctx context.Context) (State, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.export(ctx), e.height
}

// Snapshot saves the full state at the current height.
func (e *Engine) Snapshot(ctx context.Context) error {
	if e.snapshots == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "no snapshot store configured")
	}
	e.mu.RLock()
	state := e.export(ctx)
	height := e.height
	e.mu.RUnlock()

	raw, err := json.Marshal(state)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode snapshot")
	}
	snap := &snapshotmodels.Snapshot{Height: height, TakenAt: e.clock().UTC(), State: raw}
	if err := e.snapshots.Save(ctx, snap); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save snapshot")
	}
	e.logger.InfoContext(ctx, "snapshot saved", "height", height)
	return nil
}

// Restore loads the latest snapshot, if any, then replays log entries above
// its height. Replayed entries are not re-appended. Restore is only valid on a
// freshly constructed engine.
func (e *Engine) Restore(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.height != 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "restore requires a fresh engine")
	}

	logHeight, err := e.log.Height(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read log height")
	}

	if e.snapshots != nil {
		snap, err := e.snapshots.Latest(ctx)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshot")
		case snap.Height > logHeight:
			return dErrors.Newf(dErrors.CodeInvariantViolation,
				"snapshot height %d is ahead of log height %d", snap.Height, logHeight)
		default:
			var state State
			if err := json.Unmarshal(snap.State, &state); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode snapshot")
			}
			e.load(ctx, state)
			e.height = snap.Height
		}
	}

	entries, err := e.log.Since(ctx, e.height)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read operation log")
	}
	from := e.height
	for i := range entries {
		entry := &entries[i]
		if entry.Height != e.height+1 {
			return dErrors.Newf(dErrors.CodeInvariantViolation,
				"log gap: expected height %d, found %d", e.height+1, entry.Height)
		}
		op, err := DecodeOp(entry.Kind, entry.Payload)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode log entry")
		}
		if _, err := e.apply(ctx, op, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "log entry failed to replay")
		}
	}
	e.observeState(ctx)
	e.logger.InfoContext(ctx, "registry restored", "from_height", from, "height", e.height)
	return nil
}
