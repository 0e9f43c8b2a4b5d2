package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blecentral/internal/device"
)

func decl(id, props string) device.CharacteristicDecl {
	p, err := device.ParseProperties(props)
	if err != nil {
		panic(err)
	}
	return device.CharacteristicDecl{ID: id, Properties: p}
}

func TestMap_ServicesKeepDiscoveryOrder(t *testing.T) {
	m := New()
	assert.True(t, m.IsEmpty())

	assert.True(t, m.AddService("180f"))
	assert.True(t, m.AddService("0000180D-0000-1000-8000-00805F9B34FB"))
	assert.True(t, m.AddService("6e400001-b5a3-f393-e0a9-e50e24dcca9e"))
	assert.False(t, m.AddService("180d"), "duplicate service id is rejected")

	var ids []string
	for _, s := range m.Services() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"180f", "180d", "6e400001b5a3f393e0a9e50e24dcca9e"}, ids)
	assert.Equal(t, 3, m.Len())

	svc, ok := m.Service("180d")
	require.True(t, ok)
	assert.Equal(t, "Heart Rate", svc.KnownName)
}

func TestMap_AddCharacteristics(t *testing.T) {
	m := New()
	m.AddService("180d")

	n, err := m.AddCharacteristics("180d", []device.CharacteristicDecl{
		decl("2a37", "notify"),
		decl("2a38", "read"),
		decl("2a37", "notify,read"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "duplicate characteristic id is merged")

	svc, _ := m.Service("180d")
	chars := svc.Characteristics()
	require.Len(t, chars, 2)
	assert.Equal(t, "2a37", chars[0].ID)
	assert.Equal(t, "Heart Rate Measurement", chars[0].KnownName)
	assert.True(t, chars[0].Properties.Readable, "later declaration updates flags")

	_, err = m.AddCharacteristics("1234", []device.CharacteristicDecl{decl("2a19", "read")})
	var nf *device.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "service", nf.Resource)
}

func TestMap_FindAndSetValue(t *testing.T) {
	m := New()
	m.AddService("180f")
	m.AddService("180d")
	_, _ = m.AddCharacteristics("180f", []device.CharacteristicDecl{decl("2a19", "read,notify")})
	_, _ = m.AddCharacteristics("180d", []device.CharacteristicDecl{decl("2a37", "notify")})

	c, svc, ok := m.FindCharacteristic("0x2A37")
	require.True(t, ok)
	assert.Equal(t, "180d", svc.ID)
	assert.Nil(t, c.Value)

	value := []byte{0x00, 0x48}
	assert.True(t, m.SetValue("2a37", value))
	value[1] = 0xFF
	assert.Equal(t, []byte{0x00, 0x48}, c.Value, "stored value is a copy")

	assert.False(t, m.SetValue("ffff", []byte{1}))
	_, _, ok = m.FindCharacteristic("ffff")
	assert.False(t, ok)
}

func TestMap_SnapshotAndClear(t *testing.T) {
	m := New()
	m.AddService("180d")
	_, _ = m.AddCharacteristics("180d", []device.CharacteristicDecl{decl("2a37", "notify"), decl("2a39", "write")})
	m.SetValue("2a37", []byte{1, 2})

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 2, CharacteristicCount(snap))
	assert.Equal(t, "2a39", snap[0].Characteristics[1].ID)
	assert.True(t, snap[0].Characteristics[1].Properties.WritableWithResponse)

	snap[0].Characteristics[0].Value[0] = 9
	c, _, _ := m.FindCharacteristic("2a37")
	assert.Equal(t, []byte{1, 2}, c.Value, "snapshot is detached from the map")

	m.Clear()
	assert.True(t, m.IsEmpty())
	assert.Empty(t, m.Snapshot())
	assert.True(t, m.AddService("180d"), "cleared map accepts the same service again")
}

func TestFilter(t *testing.T) {
	all := NewFilter(nil, nil)
	assert.True(t, all.AllowService("180d"))
	assert.True(t, all.AllowCharacteristic("2a37"))

	f := NewFilter([]string{"0000180D-0000-1000-8000-00805F9B34FB"}, []string{"0x2A37"})
	assert.True(t, f.AllowService("180d"))
	assert.False(t, f.AllowService("180f"))
	assert.True(t, f.AllowCharacteristic("2A37"))
	assert.False(t, f.AllowCharacteristic("2a38"))
}
