// Package ringchan provides a bounded channel that never blocks producers.
package ringchan

import "sync/atomic"

// RingChannel is a bounded channel-like buffer with overwrite-oldest semantics.
//
// Producers never block: when the buffer is full the oldest element is
// discarded to make room. It suits lossy streams where only recent values
// matter, such as advertisement sightings.
//
//	rc := ringchan.New[int](3)
//	for i := 0; i < 10; i++ {
//	    rc.Send(i)
//	}
//	v, _ := rc.TryReceive() // 7
//
// Readers may select on C(); values taken that way are not counted as received.
type RingChannel[T any] struct {
	ch    chan T
	stats Stats
}

// New creates a RingChannel with the given capacity.
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send inserts an item, discarding the oldest if the buffer is full.
// Returns true when an element was dropped to make room.
//
// Concurrent producers may race for the freed slot; the loser drops again,
// so Send never blocks.
func (rc *RingChannel[T]) Send(v T) bool {
	dropped := false
	for {
		select {
		case rc.ch <- v:
			rc.stats.sent.Add(1)
			return dropped
		default:
		}

		select {
		case <-rc.ch:
			rc.stats.dropped.Add(1)
			dropped = true
		default:
		}
	}
}

// TrySend attempts to insert without dropping anything.
// Returns false if the buffer is full.
func (rc *RingChannel[T]) TrySend(v T) bool {
	select {
	case rc.ch <- v:
		rc.stats.sent.Add(1)
		return true
	default:
		return false
	}
}

// TryReceive attempts a non-blocking receive.
// Returns (zero, false) if no value is ready or the channel is closed.
func (rc *RingChannel[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-rc.ch:
		if ok {
			rc.stats.received.Add(1)
		}
		return v, ok
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of buffered elements.
func (rc *RingChannel[T]) Len() int {
	return len(rc.ch)
}

// Cap returns the channel capacity.
func (rc *RingChannel[T]) Cap() int {
	return cap(rc.ch)
}

// Close closes the underlying channel. Sending afterwards panics.
func (rc *RingChannel[T]) Close() {
	close(rc.ch)
}

// Stats returns a snapshot of the counters.
func (rc *RingChannel[T]) Stats() StatsSnapshot {
	return StatsSnapshot{
		Sent:     rc.stats.sent.Load(),
		Received: rc.stats.received.Load(),
		Dropped:  rc.stats.dropped.Load(),
	}
}

// Stats holds lock-free counters for a RingChannel
type Stats struct {
	sent     atomic.Int64
	received atomic.Int64
	dropped  atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Sent     int64
	Received int64 // only counts TryReceive
	Dropped  int64
}
