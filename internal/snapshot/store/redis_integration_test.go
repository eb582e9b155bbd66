//go:build integration

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/snapshot/models"
	"flightsurety/pkg/platform/sentinel"
	"flightsurety/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = NewRedis(s.redis.Client, WithRetention(time.Hour))
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSaveMovesLatest() {
	ctx := context.Background()

	_, err := s.store.Latest(ctx)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	state := json.RawMessage(`{"airlines":[]}`)
	s.Require().NoError(s.store.Save(ctx, &models.Snapshot{Height: 5, TakenAt: time.Now().UTC(), State: state}))
	s.Require().NoError(s.store.Save(ctx, &models.Snapshot{Height: 9, TakenAt: time.Now().UTC(), State: state}))

	latest, err := s.store.Latest(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(9), latest.Height)
	s.JSONEq(string(state), string(latest.State))

	older, err := s.store.At(ctx, 5)
	s.Require().NoError(err)
	s.Equal(uint64(5), older.Height)

	ttl, err := s.redis.Client.TTL(ctx, heightKey(5)).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
}
