// Package eventbus dispatches events to subscribers by topic.
//
// Publishing never blocks: an event is dropped for a subscriber whose
// buffer is full, and the drop is counted. Subscribers own their Subscription
// and must release it with Unsubscribe when they stop listening.
package eventbus

import (
	"slices"
	"sync"

	"github.com/cskr/pubsub/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

// Bus is a topic based event dispatcher
type Bus[K comparable, E any] struct {
	ps      *pubsub.PubSub[K, E]
	mu      sync.RWMutex
	subs    map[chan E][]K
	dropped *xsync.Counter
	closed  bool
}

// New creates a Bus whose subscriber channels buffer up to capacity events.
func New[K comparable, E any](capacity int) *Bus[K, E] {
	if capacity < 0 {
		capacity = 0
	}
	return &Bus[K, E]{
		ps:      pubsub.New[K, E](capacity),
		subs:    make(map[chan E][]K),
		dropped: xsync.NewCounter(),
	}
}

// Publish delivers ev to every subscriber of topic without blocking. It
// returns the number of subscribers whose buffer was already full; they miss
// ev. It is a no-op after Close.
func (b *Bus[K, E]) Publish(topic K, ev E) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}
	full := 0
	for ch, topics := range b.subs {
		if len(ch) == cap(ch) && slices.Contains(topics, topic) {
			full++
		}
	}
	if full > 0 {
		b.dropped.Add(int64(full))
	}
	b.ps.TryPub(ev, topic)
	return full
}

// Dropped returns how many deliveries were lost to full subscriber buffers
func (b *Bus[K, E]) Dropped() int64 {
	return b.dropped.Value()
}

// Subscribe returns a subscription receiving events of the given topics.
// A subscriber that falls behind by more than the bus capacity loses events;
// see Dropped. After Close it returns a subscription whose channel is already closed.
func (b *Bus[K, E]) Subscribe(topics ...K) *Subscription[K, E] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || len(topics) == 0 {
		ch := make(chan E)
		close(ch)
		return &Subscription[K, E]{C: ch}
	}

	ch := b.ps.Sub(topics...)
	b.subs[ch] = topics
	return &Subscription[K, E]{
		C:      ch,
		ch:     ch,
		topics: topics,
		bus:    b,
	}
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus[K, E]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	clear(b.subs)
	b.ps.Shutdown()
}

func (b *Bus[K, E]) unsubscribe(ch chan E, topics []K) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	delete(b.subs, ch)
	b.ps.Unsub(ch, topics...)
}

// Subscription is a token for a set of topics.
// C is closed once the subscription is released or the bus is closed.
type Subscription[K comparable, E any] struct {
	C <-chan E

	ch     chan E
	topics []K
	bus    *Bus[K, E]
	once   sync.Once
}

// Unsubscribe releases the subscription. It is safe to call more than once.
// Events still buffered in C may be drained until it is closed.
func (s *Subscription[K, E]) Unsubscribe() {
	if s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.unsubscribe(s.ch, s.topics)
	})
}
