package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"flightsurety/internal/snapshot/models"
	"flightsurety/pkg/platform/sentinel"
)

const (
	snapshotKeyPrefix = "snapshot:"
	latestKey         = snapshotKeyPrefix + "latest"
)

// RedisStore keeps snapshots in Redis. Each snapshot is written under its
// height and the latest pointer is moved in the same MULTI block.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

// WithRetention expires per-height snapshots after ttl. The latest pointer never expires.
func WithRetention(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func heightKey(height uint64) string {
	return snapshotKeyPrefix + strconv.FormatUint(height, 10)
}

func (s *RedisStore) Save(ctx context.Context, snap *models.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, heightKey(snap.Height), body, s.ttl)
		pipe.Set(ctx, latestKey, body, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot %d: %w", snap.Height, err)
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	return s.load(ctx, latestKey)
}

func (s *RedisStore) At(ctx context.Context, height uint64) (*models.Snapshot, error) {
	return s.load(ctx, heightKey(height))
}

func (s *RedisStore) load(ctx context.Context, key string) (*models.Snapshot, error) {
	body, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &snap, nil
}
