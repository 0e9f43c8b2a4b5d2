package central

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blecentral/internal/device"
	"github.com/srg/blecentral/internal/sampler"
	"github.com/srg/blecentral/internal/testutils"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int, rssi int) sampler.Sample {
	return sampler.Sample{Timestamp: t0.Add(time.Duration(sec) * time.Second), Strength: rssi}
}

func newTestRegistry() *Registry {
	return NewRegistry(15, 5*time.Second, testutils.NewTestLogger())
}

func TestRegistry_UnnamedAdvertisementIsIgnored(t *testing.T) {
	r := newTestRegistry()

	assert.Equal(t, Noop, r.Upsert("AA", "", at(0, -60)))
	assert.Equal(t, Noop, r.Upsert("", "Band", at(0, -60)))
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Find("AA"))
}

func TestRegistry_NameArrivesInScanResponse(t *testing.T) {
	r := newTestRegistry()

	// ADV_IND carries only manufacturer data
	assert.Equal(t, Noop, r.Upsert("A1", "", at(0, -60)))
	assert.False(t, r.SetVendor("A1", "Apple"), "a vendor alone never creates a device")
	assert.Nil(t, r.Find("A1"))

	// SCAN_RSP carries the local name
	require.Equal(t, Created, r.Upsert("A1", "Band", at(0, -60)))
	assert.True(t, r.SetVendor("A1", "Apple"))
	assert.False(t, r.SetVendor("A1", "Apple"))
	assert.False(t, r.SetVendor("A1", ""))

	d := r.Find("A1")
	require.NotNil(t, d)
	assert.Equal(t, "Band", d.Name)
	assert.Equal(t, "Apple", d.Vendor)
}

func TestRegistry_CreateAndUpdate(t *testing.T) {
	r := newTestRegistry()

	require.Equal(t, Created, r.Upsert("A1", "Band", at(0, -60)))
	d := r.Find("A1")
	require.NotNil(t, d)
	assert.Equal(t, "Band", d.Name)
	assert.Equal(t, device.Disconnected, d.State)
	assert.Equal(t, 1, d.Signal.Len())

	assert.Equal(t, Noop, r.Upsert("A1", "Band", at(2, -61)), "throttled sample is not a change")
	assert.Equal(t, Updated, r.Upsert("A1", "", at(5, -62)), "unnamed sighting still feeds the sampler")
	assert.Equal(t, Updated, r.Upsert("A1", "Band", at(10, -70)))

	assert.Equal(t, 3, d.Signal.Len())
	assert.InDelta(t, -64.0, d.Signal.Average(), 1e-9)
	weakest, strongest, ok := d.Signal.Extremes()
	require.True(t, ok)
	assert.Equal(t, -70, weakest)
	assert.Equal(t, -60, strongest)
	assert.Equal(t, t0.Add(10*time.Second), d.LastSeen)
}

func TestRegistry_NameIsNeverOverwritten(t *testing.T) {
	r := newTestRegistry()
	r.Upsert("A1", "Band", at(0, -60))

	r.Upsert("A1", "", at(5, -60))
	r.Upsert("A1", "Other", at(10, -60))
	assert.Equal(t, "Band", r.Find("A1").Name)
}

func TestRegistry_NameBackfill(t *testing.T) {
	r := newTestRegistry()
	r.Upsert("A1", "Band", at(0, -60))
	r.Find("A1").Name = ""

	assert.Equal(t, Updated, r.Upsert("A1", "Band 2", at(1, -60)), "name backfill is a change even when the sample is throttled")
	assert.Equal(t, "Band 2", r.Find("A1").Name)
}

func TestRegistry_InsertionOrder(t *testing.T) {
	r := newTestRegistry()
	r.Upsert("C", "c", at(0, -60))
	r.Upsert("A", "a", at(1, -60))
	r.Upsert("B", "b", at(2, -60))
	r.Upsert("C", "c", at(10, -60))

	var ids []string
	for _, d := range r.All() {
		ids = append(ids, d.Identity)
	}
	assert.Equal(t, []string{"C", "A", "B"}, ids)
}

func TestRegistry_MarkStale(t *testing.T) {
	r := newTestRegistry()
	r.Upsert("A", "a", at(0, -60))
	r.Upsert("B", "b", at(20, -60))
	r.Upsert("C", "c", at(0, -60))
	r.Find("C").State = device.Connected

	assert.Nil(t, r.MarkStale(t0.Add(time.Hour), 0), "zero timeout disables marking")

	changed := r.MarkStale(t0.Add(30*time.Second), 30*time.Second)
	assert.Equal(t, []string{"A"}, changed, "connected devices are never stale")
	assert.True(t, r.Find("A").Stale)
	assert.Empty(t, r.MarkStale(t0.Add(30*time.Second), 30*time.Second), "already stale devices do not change again")

	assert.Equal(t, Updated, r.Upsert("A", "a", at(31, -60)))
	assert.False(t, r.Find("A").Stale, "a sighting clears the stale flag")
}

func TestUpsertResultString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "noop", Noop.String())
}
