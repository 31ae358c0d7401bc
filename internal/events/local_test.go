package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ultimatepos/activitylog/internal/models"
	"go.uber.org/zap"
)

func TestLocalBusDeliversToStreamSubscribers(t *testing.T) {
	bus := NewLocalBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 1)
	other := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(ctx, "a", func(e Event) { got <- e }))
	require.NoError(t, bus.Subscribe(ctx, "b", func(e Event) { other <- e }))

	require.NoError(t, bus.Publish(ctx, "a", Event{Type: EventActivityLogAppended, Record: &models.ActivityLog{ID: "1"}}))

	select {
	case e := <-got:
		require.Equal(t, EventActivityLogAppended, e.Type)
		require.NotNil(t, e.Record)
		require.Equal(t, "1", e.Record.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case <-other:
		t.Fatal("event delivered to wrong stream")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocalBusStopsOnCancel(t *testing.T) {
	bus := NewLocalBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, bus.Subscribe(ctx, "a", func(Event) {}))
	cancel()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subs["a"]) == 0
	}, time.Second, 10*time.Millisecond)
}
