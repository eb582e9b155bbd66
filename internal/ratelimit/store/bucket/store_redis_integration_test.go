//go:build integration

package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"flightsurety/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisBucketStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = NewRedis(s.redis.Client)
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestAllowUpToLimit() {
	ctx := context.Background()
	for i := range 3 {
		result, err := s.store.Allow(ctx, "ratelimit:test", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "ratelimit:test", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Positive(result.RetryAfter)

	count, err := s.store.GetCurrentCount(ctx, "ratelimit:test")
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *RedisBucketStoreSuite) TestKeyExpiresWithWindow() {
	ctx := context.Background()
	_, err := s.store.Allow(ctx, "ratelimit:ttl", 3, 200*time.Millisecond)
	s.Require().NoError(err)

	ttl, err := s.redis.Client.PTTL(ctx, "ratelimit:ttl").Result()
	s.Require().NoError(err)
	s.LessOrEqual(ttl, 200*time.Millisecond)

	s.Require().NoError(s.store.Reset(ctx, "ratelimit:ttl"))
	count, err := s.store.GetCurrentCount(ctx, "ratelimit:ttl")
	s.Require().NoError(err)
	s.Zero(count)
}
