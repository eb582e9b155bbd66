package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/ratelimit/models"
	"flightsurety/internal/ratelimit/store/bucket"
	"flightsurety/pkg/platform/circuit"
	"flightsurety/pkg/requestcontext"
	"flightsurety/pkg/testutil"
)

type failingStore struct{ calls int }

func (f *failingStore) Allow(context.Context, string, int, time.Duration) (*models.Result, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

type RateLimitSuite struct {
	suite.Suite
	logger *slog.Logger
	next   http.Handler
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitSuite))
}

func (s *RateLimitSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
	s.next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *RateLimitSuite) withSender(r *http.Request, n uint64) *http.Request {
	return testutil.WithSender(r, testutil.Address(n))
}

func (s *RateLimitSuite) TestWritesAreLimitedPerSender() {
	m := New(bucket.New(), s.logger,
		WithLimit(models.ClassWrite, models.Limit{Requests: 2, Window: time.Minute}),
	)
	h := m.Handler(s.next)

	for range 2 {
		rr := testutil.DoRequest(h, s.withSender(testutil.NewRequest(s.T(), http.MethodPost, "/v1/flights"), 1))
		testutil.AssertStatusOK(s.T(), rr)
	}
	rr := testutil.DoRequest(h, s.withSender(testutil.NewRequest(s.T(), http.MethodPost, "/v1/flights"), 1))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "rate_limit_exceeded")
	s.Equal("60", rr.Header().Get("Retry-After"))
	s.Equal("0", rr.Header().Get("X-RateLimit-Remaining"))

	s.Run("another sender has its own budget", func() {
		rr := testutil.DoRequest(h, s.withSender(testutil.NewRequest(s.T(), http.MethodPost, "/v1/flights"), 2))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("reads are unlimited without a read limit", func() {
		rr := testutil.DoRequest(h, s.withSender(testutil.NewRequest(s.T(), http.MethodGet, "/v1/status"), 1))
		testutil.AssertStatusOK(s.T(), rr)
	})
}

func (s *RateLimitSuite) TestAnonymousRequestsAreLimitedPerIP() {
	m := New(bucket.New(), s.logger,
		WithLimit(models.ClassRead, models.Limit{Requests: 1, Window: time.Minute}),
	)
	h := m.Handler(s.next)

	req := func(ip string) *http.Request {
		r := testutil.NewRequest(s.T(), http.MethodGet, "/v1/status")
		return r.WithContext(requestcontext.WithClientMetadata(r.Context(), ip, ""))
	}
	testutil.AssertStatusOK(s.T(), testutil.DoRequest(h, req("10.0.0.1")))
	testutil.AssertStatus(s.T(), testutil.DoRequest(h, req("10.0.0.1")), http.StatusTooManyRequests)
	testutil.AssertStatusOK(s.T(), testutil.DoRequest(h, req("10.0.0.2")))
}

func (s *RateLimitSuite) TestDisabled() {
	m := New(&failingStore{}, s.logger,
		WithLimit(models.ClassWrite, models.Limit{Requests: 1, Window: time.Minute}),
		WithDisabled(true),
	)
	rr := testutil.DoRequest(m.Handler(s.next), testutil.NewRequest(s.T(), http.MethodPost, "/v1/flights"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *RateLimitSuite) TestStoreErrorsFailOpen() {
	m := New(&failingStore{}, s.logger,
		WithLimit(models.ClassWrite, models.Limit{Requests: 1, Window: time.Minute}),
	)
	rr := testutil.DoRequest(m.Handler(s.next), testutil.NewRequest(s.T(), http.MethodPost, "/v1/flights"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Empty(rr.Header().Get("X-RateLimit-Limit"))
}

func (s *RateLimitSuite) TestFallbackStoreMarksDegraded() {
	primary := &failingStore{}
	store := NewFallbackStore(primary, bucket.New(),
		circuit.New("ratelimit-test", circuit.WithFailureThreshold(1), circuit.WithProbeInterval(time.Hour)),
		s.logger,
	)
	m := New(store, s.logger,
		WithLimit(models.ClassWrite, models.Limit{Requests: 1, Window: time.Minute}),
	)
	h := m.Handler(s.next)

	rr := testutil.DoRequest(h, s.withSender(testutil.NewRequest(s.T(), http.MethodPost, "/v1/flights"), 1))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("degraded", rr.Header().Get("X-RateLimit-Status"))
	s.True(store.Degraded())

	rr = testutil.DoRequest(h, s.withSender(testutil.NewRequest(s.T(), http.MethodPost, "/v1/flights"), 1))
	testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
	s.Equal(1, primary.calls, "open circuit skips the primary")
}
