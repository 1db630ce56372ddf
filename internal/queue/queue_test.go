package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub()

	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	hub.Publish(Event{RunID: "r1", Type: EventStarted})

	select {
	case e := <-a:
		assert.Equal(t, "r1", e.RunID)
		assert.Equal(t, EventStarted, e.Type)
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("subscriber a did not receive the event")
	}
	select {
	case e := <-b:
		assert.Equal(t, "r1", e.RunID)
	case <-time.After(time.Second):
		t.Fatal("subscriber b did not receive the event")
	}

	// Cancelled subscribers stop receiving; their channel is closed.
	cancelA()
	hub.Publish(Event{RunID: "r2", Type: EventCompleted})

	_, open := <-a
	assert.False(t, open)

	select {
	case e := <-b:
		assert.Equal(t, "r2", e.RunID)
	case <-time.After(time.Second):
		t.Fatal("subscriber b did not receive the second event")
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 200; i++ {
		hub.Publish(Event{RunID: "r", Type: EventIteration, Iteration: i})
	}

	// The buffer holds 64 events; the rest were dropped, not blocked on.
	require.Len(t, ch, 64)
}

func TestProgressThrottle(t *testing.T) {
	throttle := newProgressThrottle()
	assert.True(t, throttle.allow())
	assert.False(t, throttle.allow())

	throttle.last = time.Now().Add(-time.Second)
	assert.True(t, throttle.allow())
}
