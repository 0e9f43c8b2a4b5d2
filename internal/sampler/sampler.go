// Package sampler keeps a bounded, throttled history of signal strength
// readings for a single peripheral.
package sampler

import (
	"time"
)

const (
	// DefaultCapacity is the number of samples retained per device
	DefaultCapacity = 15
	// DefaultRefreshInterval is the minimum spacing between accepted samples
	DefaultRefreshInterval = 5 * time.Second
)

// Sample is a single RSSI reading
type Sample struct {
	Timestamp time.Time
	Strength  int // dBm
}

// Sampler is a fixed-capacity FIFO of samples with an admission throttle.
// It is not safe for concurrent use; the owner serializes access.
type Sampler struct {
	buf      []Sample
	head     int // index of the oldest sample
	size     int
	refresh  time.Duration
	accepted bool
	last     time.Time
}

// New creates a Sampler. A non-positive capacity or a negative refresh falls
// back to the default; a zero refresh admits every reading.
func New(capacity int, refresh time.Duration) *Sampler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if refresh < 0 {
		refresh = DefaultRefreshInterval
	}
	return &Sampler{
		buf:     make([]Sample, capacity),
		refresh: refresh,
	}
}

// Offer submits a reading. It is recorded when no sample was accepted yet or when
// at least the refresh interval elapsed since the last accepted one.
// Returns true when the sample was recorded.
func (s *Sampler) Offer(ts time.Time, strength int) bool {
	if s.accepted && ts.Sub(s.last) < s.refresh {
		return false
	}

	tail := (s.head + s.size) % len(s.buf)
	s.buf[tail] = Sample{Timestamp: ts, Strength: strength}
	if s.size < len(s.buf) {
		s.size++
	} else {
		s.head = (s.head + 1) % len(s.buf)
	}

	s.accepted = true
	s.last = ts
	return true
}

// Len returns the number of retained samples
func (s *Sampler) Len() int { return s.size }

// Cap returns the maximum number of retained samples
func (s *Sampler) Cap() int { return len(s.buf) }

// Samples returns the retained samples, oldest first
func (s *Sampler) Samples() []Sample {
	out := make([]Sample, s.size)
	for i := range s.size {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Latest returns the most recent sample
func (s *Sampler) Latest() (Sample, bool) {
	if s.size == 0 {
		return Sample{}, false
	}
	return s.buf[(s.head+s.size-1)%len(s.buf)], true
}

// Average returns the arithmetic mean of the retained samples, 0 when empty
func (s *Sampler) Average() float64 {
	if s.size == 0 {
		return 0
	}
	sum := 0
	for i := range s.size {
		sum += s.buf[(s.head+i)%len(s.buf)].Strength
	}
	return float64(sum) / float64(s.size)
}

// Extremes returns the numeric minimum and maximum of the retained samples.
// Since readings are negative dBm, min is the weakest and max the strongest.
// ok is false when no samples are retained.
func (s *Sampler) Extremes() (minDbm, maxDbm int, ok bool) {
	if s.size == 0 {
		return 0, 0, false
	}
	minDbm = s.buf[s.head].Strength
	maxDbm = minDbm
	for i := 1; i < s.size; i++ {
		v := s.buf[(s.head+i)%len(s.buf)].Strength
		minDbm = min(minDbm, v)
		maxDbm = max(maxDbm, v)
	}
	return minDbm, maxDbm, true
}
