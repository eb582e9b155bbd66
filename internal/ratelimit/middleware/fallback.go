package middleware

import (
	"context"
	"log/slog"
	"time"

	"flightsurety/internal/ratelimit/models"
	"flightsurety/pkg/platform/circuit"
)

// Store is a sliding window counter.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// FallbackStore fronts a shared store with a circuit breaker. While the
// circuit is open, checks are answered by the local store and the result is
// marked degraded.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackStore(primary, fallback Store, breaker *circuit.Breaker, logger *slog.Logger) *FallbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

// Degraded reports whether checks are currently served by the fallback.
func (f *FallbackStore) Degraded() bool {
	return f.breaker.IsOpen()
}

func (f *FallbackStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	if !f.breaker.Allow() {
		return f.fallback.Allow(ctx, key, limit, window)
	}
	res, err := f.primary.Allow(ctx, key, limit, window)
	if err != nil {
		_, change := f.breaker.RecordFailure()
		if change.Opened {
			f.logger.WarnContext(ctx, "rate limit store unavailable, using local fallback",
				"breaker", f.breaker.Name(), "error", err)
		}
		return f.fallback.Allow(ctx, key, limit, window)
	}
	if _, change := f.breaker.RecordSuccess(); change.Closed {
		f.logger.InfoContext(ctx, "rate limit store recovered", "breaker", f.breaker.Name())
	}
	return res, nil
}
