package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"flightsurety/internal/ratelimit/models"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

type degradable interface {
	Degraded() bool
}

type Middleware struct {
	store    Store
	limits   map[models.Class]models.Limit
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithLimit sets the budget for a class. A class without a limit is not checked.
func WithLimit(class models.Class, limit models.Limit) Option {
	return func(m *Middleware) {
		m.limits[class] = limit
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limits: make(map[models.Class]models.Limit),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Handler limits requests per sender, or per client IP when the request
// carries no authenticated sender. Store errors fail open.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		class := models.ClassFor(r.Method)
		limit, ok := m.limits[class]
		if !ok || limit.IsZero() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		var key string
		if sender := requestcontext.Sender(ctx); !sender.IsZero() {
			key = models.SenderKey(sender.String(), class)
		} else {
			key = models.IPKey(requestcontext.ClientIP(ctx), class)
		}

		result, err := m.store.Allow(ctx, key, limit.Requests, limit.Window)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"error", err,
				"class", class,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if d, ok := m.store.(degradable); ok && d.Degraded() {
			w.Header().Set("X-RateLimit-Status", "degraded")
		}
		if !result.Allowed {
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"class", class,
				"sender", requestcontext.Sender(ctx),
				"request_id", requestcontext.RequestID(ctx),
			)
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
