package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSampler_Empty(t *testing.T) {
	s := New(0, -1)

	assert.Equal(t, DefaultCapacity, s.Cap())
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Samples())
	assert.Zero(t, s.Average())

	_, _, ok := s.Extremes()
	assert.False(t, ok)
	_, ok = s.Latest()
	assert.False(t, ok)
}

func TestSampler_Throttle(t *testing.T) {
	s := New(15, 5*time.Second)

	assert.True(t, s.Offer(t0, -60), "first sample is always accepted")
	assert.False(t, s.Offer(t0.Add(2*time.Second), -61))
	assert.False(t, s.Offer(t0.Add(4999*time.Millisecond), -62))
	assert.True(t, s.Offer(t0.Add(5*time.Second), -63), "exactly one interval later is accepted")
	assert.False(t, s.Offer(t0.Add(9*time.Second), -64), "spacing is measured from the last accepted sample")
	assert.True(t, s.Offer(t0.Add(10*time.Second), -65))

	samples := s.Samples()
	require.Len(t, samples, 3)
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i].Timestamp.Sub(samples[i-1].Timestamp), 5*time.Second)
	}
}

func TestSampler_FIFOEviction(t *testing.T) {
	const capacity = 15
	s := New(capacity, time.Second)

	for i := range 20 {
		require.True(t, s.Offer(t0.Add(time.Duration(i)*time.Second), -40-i))
		assert.LessOrEqual(t, s.Len(), capacity)
	}

	samples := s.Samples()
	require.Len(t, samples, capacity)
	assert.Equal(t, -45, samples[0].Strength, "the five oldest samples are evicted")
	assert.Equal(t, -59, samples[capacity-1].Strength)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, -59, latest.Strength)
}

func TestSampler_AverageAndExtremes(t *testing.T) {
	s := New(15, 5*time.Second)
	s.Offer(t0, -60)
	s.Offer(t0.Add(5*time.Second), -62)
	s.Offer(t0.Add(10*time.Second), -70)

	assert.InDelta(t, -64.0, s.Average(), 1e-9)

	weakest, strongest, ok := s.Extremes()
	require.True(t, ok)
	assert.Equal(t, -70, weakest)
	assert.Equal(t, -60, strongest)
}

func TestSampler_SingleRepeatedValue(t *testing.T) {
	s := New(3, 0)
	for i := range 5 {
		s.Offer(t0.Add(time.Duration(i)*time.Millisecond), -55)
	}

	weakest, strongest, ok := s.Extremes()
	require.True(t, ok)
	assert.Equal(t, -55, weakest)
	assert.Equal(t, -55, strongest)
	assert.Equal(t, -55.0, s.Average())
	assert.Equal(t, 3, s.Len())
}

func TestSampler_SamplesIsCopy(t *testing.T) {
	s := New(2, 0)
	s.Offer(t0, -50)

	samples := s.Samples()
	samples[0].Strength = 0

	latest, _ := s.Latest()
	assert.Equal(t, -50, latest.Strength)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		dbm      int
		expected Quality
	}{
		{-29, Unusable},
		{-30, Amazing},
		{-50, Amazing},
		{-51, VeryGood},
		{-67, VeryGood},
		{-68, Okay},
		{-75, Okay},
		{-76, NotGood},
		{-85, NotGood},
		{-86, Unusable},
		{-95, Unusable},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.dbm), "dbm=%d", tt.dbm)
	}
	assert.Equal(t, "very good", VeryGood.String())
	assert.True(t, InPlausibleRange(-90))
	assert.False(t, InPlausibleRange(-91))
}
