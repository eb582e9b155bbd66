// Package kafka publishes audit events to a Kafka topic. A circuit breaker
// guards the broker; while it is open, events go to the fallback store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "flightsurety/pkg/platform/audit"
	"flightsurety/pkg/platform/circuit"
)

const categoryHeader = "category"

// Producer is the subset of *kgo.Client the store needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Store struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	fallback audit.Store
	logger   *slog.Logger
}

type Option func(*Store)

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) {
		s.breaker = b
	}
}

// WithFallback sets where events go while the broker is unavailable.
func WithFallback(fallback audit.Store) Option {
	return func(s *Store) {
		s.fallback = fallback
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(producer Producer, topic string, opts ...Option) *Store {
	s := &Store{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("audit-kafka"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append produces the event keyed by subject so a subject's events stay ordered
// within a partition.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.Allow() {
		return s.toFallback(ctx, event, nil)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: categoryHeader, Value: []byte(event.Category)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "audit kafka circuit opened", "error", err)
		}
		return s.toFallback(ctx, event, err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "audit kafka circuit closed")
	}
	return nil
}

func (s *Store) toFallback(ctx context.Context, event audit.Event, cause error) error {
	if s.fallback == nil {
		if cause == nil {
			return fmt.Errorf("audit kafka circuit open")
		}
		return fmt.Errorf("produce audit event: %w", cause)
	}
	if err := s.fallback.Append(ctx, event); err != nil {
		return fmt.Errorf("fallback audit store: %w", err)
	}
	return nil
}
