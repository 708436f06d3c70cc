package event_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentops/hiregraph/pkg/hiregraph/event"
)

// collector records delivered events for assertions.
type collector struct {
	mu     sync.Mutex
	events []event.Event
	seen   chan struct{}
}

func newCollector() *collector {
	return &collector{seen: make(chan struct{}, 64)}
}

func (c *collector) handle(_ context.Context, evt event.Event) {
	c.mu.Lock()
	c.events = append(c.events, evt)
	c.mu.Unlock()
	c.seen <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []event.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-c.seen:
		case <-deadline:
			t.Fatalf("timed out waiting for %d events", n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

func TestLocalBus_PublishSubscribe(t *testing.T) {
	t.Run("Delivers_To_Matching_Types", func(t *testing.T) {
		bus := event.NewLocalBus()
		defer bus.Close()

		c := newCollector()
		bus.Subscribe(c.handle, event.TypeRunSuspended, event.TypeRunCompleted)

		require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeRunStarted, "run-1")))
		require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeRunSuspended, "run-1")))
		require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeRunCompleted, "run-1")))

		got := c.wait(t, 2)
		require.Len(t, got, 2)
		assert.Equal(t, event.TypeRunSuspended, got[0].Type)
		assert.Equal(t, event.TypeRunCompleted, got[1].Type)
	})

	t.Run("Empty_Type_List_Receives_All", func(t *testing.T) {
		bus := event.NewLocalBus()
		defer bus.Close()

		c := newCollector()
		bus.Subscribe(c.handle)

		require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeRunStarted, "run-1")))
		require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeNodeStarted, "run-1").WithNode("draft")))

		got := c.wait(t, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "draft", got[1].NodeID)
	})

	t.Run("Order_Preserved_Per_Subscriber", func(t *testing.T) {
		bus := event.NewLocalBus()
		defer bus.Close()

		c := newCollector()
		bus.Subscribe(c.handle)

		types := []string{
			event.TypeRunStarted,
			event.TypeRunSuspended,
			event.TypeRunResumed,
			event.TypeRunCompleted,
		}
		for _, typ := range types {
			require.NoError(t, bus.Publish(context.Background(), event.New(typ, "run-1")))
		}

		got := c.wait(t, len(types))
		for i, typ := range types {
			assert.Equal(t, typ, got[i].Type)
		}
	})

	t.Run("Unsubscribe_Stops_Delivery", func(t *testing.T) {
		bus := event.NewLocalBus()
		defer bus.Close()

		c := newCollector()
		sub := bus.Subscribe(c.handle)

		require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeRunStarted, "run-1")))
		c.wait(t, 1)

		sub.Unsubscribe()
		require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeRunCompleted, "run-1")))

		select {
		case <-c.seen:
			t.Fatal("received event after unsubscribe")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestLocalBus_Close(t *testing.T) {
	t.Run("Publish_After_Close_Errors", func(t *testing.T) {
		bus := event.NewLocalBus()
		require.NoError(t, bus.Close())

		err := bus.Publish(context.Background(), event.New(event.TypeRunStarted, "run-1"))
		assert.ErrorIs(t, err, event.ErrBusClosed)
	})

	t.Run("Close_Drains_Buffered_Events", func(t *testing.T) {
		bus := event.NewLocalBus(event.WithBufferSize(8))

		c := newCollector()
		bus.Subscribe(c.handle)

		for i := 0; i < 5; i++ {
			require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeNodeFinished, "run-1")))
		}
		require.NoError(t, bus.Close())

		c.mu.Lock()
		defer c.mu.Unlock()
		assert.Len(t, c.events, 5)
	})

	t.Run("Close_Is_Idempotent", func(t *testing.T) {
		bus := event.NewLocalBus()
		require.NoError(t, bus.Close())
		require.NoError(t, bus.Close())
	})
}

func TestEvent_Builders(t *testing.T) {
	evt := event.New(event.TypeRunSuspended, "run-9").
		WithNode("approval").
		WithData("reason", "awaiting recruiter decision")

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, "run-9", evt.RunID)
	assert.Equal(t, "approval", evt.NodeID)
	assert.Equal(t, "awaiting recruiter decision", evt.Data["reason"])
	assert.False(t, evt.Timestamp.IsZero())

	// WithData must not mutate the original.
	evt2 := evt.WithData("extra", 1)
	assert.NotContains(t, evt.Data, "extra")
	assert.Contains(t, evt2.Data, "extra")
}
