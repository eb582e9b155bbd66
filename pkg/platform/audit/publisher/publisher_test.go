package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "flightsurety/pkg/platform/audit"
	"flightsurety/pkg/platform/audit/store/memory"
)

const airline = "0x0000000000000000000000000000000000000001"

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Subject: airline,
		Action:  string(audit.EventAirlineFunded),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), airline)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventAirlineFunded), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.NotEqual(t, "", events[0].ID.String())
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			Subject: airline,
			Action:  string(audit.EventFlightRegistered),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListBySubject(context.Background(), airline)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Subject: airline, Action: string(audit.EventAirlineVoteCast)})
			if err != nil {
				assert.True(t, errors.Is(err, ErrBufferFull))
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_Timestamps(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	t.Run("sets a missing timestamp", func(t *testing.T) {
		before := time.Now()
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "a", Action: string(audit.EventAirlineFunded)}))
		after := time.Now()

		events, err := pub.List(context.Background(), "a")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.Before(before))
		assert.False(t, events[0].Timestamp.After(after))
	})

	t.Run("preserves an existing timestamp", func(t *testing.T) {
		custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "b", Action: string(audit.EventAirlineFunded), Timestamp: custom}))

		events, err := pub.List(context.Background(), "b")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, custom, events[0].Timestamp)
	})
}

func TestPublisher_CategoryFromAction(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	for _, action := range []audit.AuditEvent{
		audit.EventPayoutWithdrawn,
		audit.EventCallerAuthorized,
		audit.EventOperationRejected,
	} {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "c", Action: string(action)}))
	}

	events, err := pub.List(context.Background(), "c")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.Equal(t, audit.CategorySecurity, events[1].Category)
	assert.Equal(t, audit.CategoryOperations, events[2].Category)
}
