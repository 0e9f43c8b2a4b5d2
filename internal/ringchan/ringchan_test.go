package ringchan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingChannel_DropsOldest(t *testing.T) {
	rc := New[int](3)

	for i := range 10 {
		rc.Send(i)
	}
	assert.Equal(t, 3, rc.Len())
	assert.Equal(t, 3, rc.Cap())

	var got []int
	for {
		v, ok := rc.TryReceive()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{7, 8, 9}, got)

	stats := rc.Stats()
	assert.Equal(t, int64(10), stats.Sent)
	assert.Equal(t, int64(7), stats.Dropped)
	assert.Equal(t, int64(3), stats.Received)
}

func TestRingChannel_SendReportsDrop(t *testing.T) {
	rc := New[string](1)
	assert.False(t, rc.Send("a"))
	assert.True(t, rc.Send("b"))
	assert.False(t, rc.TrySend("c"))

	v := <-rc.C()
	assert.Equal(t, "b", v)
}

func TestRingChannel_ConcurrentProducersNeverBlock(t *testing.T) {
	rc := New[int](4)

	var wg sync.WaitGroup
	for p := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				rc.Send(p*1000 + i)
			}
		}()
	}
	wg.Wait()

	stats := rc.Stats()
	assert.Equal(t, int64(8000), stats.Sent)
	assert.Equal(t, int64(rc.Len()), stats.Sent-stats.Dropped)
	assert.LessOrEqual(t, rc.Len(), 4)
}

func TestRingChannel_Close(t *testing.T) {
	rc := New[int](2)
	rc.Send(1)
	rc.Close()

	v, ok := rc.TryReceive()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = rc.TryReceive()
	assert.False(t, ok)
	assert.Panics(t, func() { New[int](0) })
}
