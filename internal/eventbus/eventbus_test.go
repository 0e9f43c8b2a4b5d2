package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type topic int

const (
	topicA topic = iota
	topicB
)

func receive[E any](t *testing.T, ch <-chan E) E {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero E
	return zero
}

func assertClosed[E any](t *testing.T, ch <-chan E) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestBus_TopicRouting(t *testing.T) {
	bus := New[topic, string](8)
	defer bus.Close()

	onlyA := bus.Subscribe(topicA)
	both := bus.Subscribe(topicA, topicB)

	bus.Publish(topicA, "a1")
	bus.Publish(topicB, "b1")
	bus.Publish(topicA, "a2")

	assert.Equal(t, "a1", receive(t, onlyA.C))
	assert.Equal(t, "a2", receive(t, onlyA.C))

	assert.Equal(t, "a1", receive(t, both.C))
	assert.Equal(t, "b1", receive(t, both.C))
	assert.Equal(t, "a2", receive(t, both.C))
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New[topic, int](8)
	defer bus.Close()

	sub := bus.Subscribe(topicA, topicB)
	sub.Unsubscribe()
	sub.Unsubscribe()

	assertClosed(t, sub.C)
	bus.Publish(topicA, 1)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := New[topic, int](1)
	defer bus.Close()

	slow := bus.Subscribe(topicA)
	done := make(chan struct{})
	go func() {
		for i := range 100 {
			bus.Publish(topicA, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
	slow.Unsubscribe()
}

func TestBus_CountsDroppedEvents(t *testing.T) {
	bus := New[topic, int](1)
	defer bus.Close()

	slow := bus.Subscribe(topicA)
	other := bus.Subscribe(topicB)

	assert.Zero(t, bus.Publish(topicA, 1))
	require.Eventually(t, func() bool { return len(slow.C) == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, bus.Publish(topicA, 2), "slow subscriber misses the event")
	assert.Zero(t, bus.Publish(topicB, 3), "a full buffer on another topic does not count")
	assert.EqualValues(t, 1, bus.Dropped())

	assert.Equal(t, 1, receive(t, slow.C))
	assert.Equal(t, 3, receive(t, other.C))
}

func TestBus_Close(t *testing.T) {
	bus := New[topic, int](4)
	sub := bus.Subscribe(topicA)

	bus.Close()
	bus.Close()
	assertClosed(t, sub.C)

	// everything after Close is a no-op
	bus.Publish(topicA, 1)
	sub.Unsubscribe()
	late := bus.Subscribe(topicA)
	assertClosed(t, late.C)
}

func TestBus_SubscribeWithoutTopics(t *testing.T) {
	bus := New[topic, int](4)
	defer bus.Close()

	sub := bus.Subscribe()
	assertClosed(t, sub.C)
	sub.Unsubscribe()
}
