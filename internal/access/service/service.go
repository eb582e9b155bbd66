package service

import (
	"context"
	"errors"
	"log/slog"

	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

type Store interface {
	Owner(ctx context.Context) id.Address
	Operational(ctx context.Context) bool
	SetOperational(ctx context.Context, mode bool) error
	IsAuthorized(ctx context.Context, caller id.Address) bool
	Authorize(ctx context.Context, caller id.Address) error
	Deauthorize(ctx context.Context, caller id.Address) error
	Callers(ctx context.Context) []id.Address
}

// Service guards the registry: it knows the owner, the operational flag, and
// which facades may submit mutating operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Owner(ctx context.Context) id.Address {
	return s.store.Owner(ctx)
}

func (s *Service) IsOperational(ctx context.Context) bool {
	return s.store.Operational(ctx)
}

// RequireOwner fails with Unauthorized unless sender is the owner.
func (s *Service) RequireOwner(ctx context.Context, sender id.Address) error {
	if sender.IsZero() || sender != s.store.Owner(ctx) {
		return dErrors.New(dErrors.CodeUnauthorized, "sender is not the contract owner")
	}
	return nil
}

// RequireOperational fails with ContractPaused while the registry is paused.
func (s *Service) RequireOperational(ctx context.Context) error {
	if !s.store.Operational(ctx) {
		return dErrors.New(dErrors.CodeContractPaused, "contract is paused")
	}
	return nil
}

// RequireAuthorizedCaller fails with CallerNotAuthorized unless caller is on the allow-list.
func (s *Service) RequireAuthorizedCaller(ctx context.Context, caller id.Address) error {
	if caller.IsZero() || !s.store.IsAuthorized(ctx, caller) {
		return dErrors.New(dErrors.CodeCallerNotAuthorized, "caller is not authorized")
	}
	return nil
}

func (s *Service) IsCallerAuthorized(ctx context.Context, caller id.Address) bool {
	return s.store.IsAuthorized(ctx, caller)
}

func (s *Service) Callers(ctx context.Context) []id.Address {
	return s.store.Callers(ctx)
}

// SetOperatingStatus pauses or resumes the registry. It is the one mutation that
// stays available while paused; otherwise a paused registry could never resume.
func (s *Service) SetOperatingStatus(ctx context.Context, sender id.Address, mode bool) error {
	if err := s.RequireOwner(ctx, sender); err != nil {
		return err
	}
	if err := s.store.SetOperational(ctx, mode); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set operating status")
	}
	s.logger.InfoContext(ctx, "operating status changed", "operational", mode)
	return nil
}

// AuthorizeCaller adds caller to the allow-list. Authorizing twice is a no-op.
func (s *Service) AuthorizeCaller(ctx context.Context, sender, caller id.Address) error {
	if err := s.RequireOwner(ctx, sender); err != nil {
		return err
	}
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "caller address is required")
	}
	if err := s.store.Authorize(ctx, caller); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to authorize caller")
	}
	return nil
}

func (s *Service) DeauthorizeCaller(ctx context.Context, sender, caller id.Address) error {
	if err := s.RequireOwner(ctx, sender); err != nil {
		return err
	}
	if err := s.store.Deauthorize(ctx, caller); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "caller is not authorized")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deauthorize caller")
	}
	return nil
}
