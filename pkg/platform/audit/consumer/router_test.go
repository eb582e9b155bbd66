package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightsurety/internal/platform/kafka/consumer"
	audit "flightsurety/pkg/platform/audit"
	"flightsurety/pkg/platform/audit/store/memory"
)

func message(t *testing.T, event audit.Event) *consumer.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return &consumer.Message{Topic: "surety.audit", Key: []byte(event.Subject), Value: value}
}

func TestRouter(t *testing.T) {
	compliance := memory.NewInMemoryStore()
	fallback := memory.NewInMemoryStore()
	router := NewRouter(slog.Default(), NewStoreHandler(fallback))
	router.Register(audit.CategoryCompliance, NewStoreHandler(compliance))
	ctx := context.Background()

	t.Run("routes by category", func(t *testing.T) {
		err := router.Handle(ctx, message(t, audit.Event{Subject: "a", Category: audit.CategoryCompliance, Action: string(audit.EventPayoutWithdrawn)}))
		require.NoError(t, err)
		events, _ := compliance.ListBySubject(ctx, "a")
		assert.Len(t, events, 1)
	})

	t.Run("unregistered category goes to fallback", func(t *testing.T) {
		err := router.Handle(ctx, message(t, audit.Event{Subject: "b", Category: audit.CategoryOperations}))
		require.NoError(t, err)
		events, _ := fallback.ListBySubject(ctx, "b")
		assert.Len(t, events, 1)
	})

	t.Run("category header is used when the payload has none", func(t *testing.T) {
		msg := message(t, audit.Event{Subject: "c"})
		msg.Headers = map[string]string{"category": "compliance"}
		require.NoError(t, router.Handle(ctx, msg))
		events, _ := compliance.ListBySubject(ctx, "c")
		assert.Len(t, events, 1)
	})

	t.Run("malformed records are skipped", func(t *testing.T) {
		err := router.Handle(ctx, &consumer.Message{Value: []byte("{")})
		assert.NoError(t, err)
	})
}
