package capability

import (
	"slices"

	"github.com/srg/blecentral/internal/device"
)

// ServiceInfo is an immutable copy of a Service
type ServiceInfo struct {
	ID              string
	KnownName       string
	Characteristics []CharacteristicInfo
}

// CharacteristicInfo is an immutable copy of a Characteristic
type CharacteristicInfo struct {
	ID         string
	KnownName  string
	Properties device.Properties
	Value      []byte
}

// Snapshot deep-copies the map so it can be handed to other goroutines
func (m *Map) Snapshot() []ServiceInfo {
	out := make([]ServiceInfo, 0, m.services.Len())
	for p := m.services.Oldest(); p != nil; p = p.Next() {
		svc := p.Value
		info := ServiceInfo{
			ID:              svc.ID,
			KnownName:       svc.KnownName,
			Characteristics: make([]CharacteristicInfo, 0, svc.chars.Len()),
		}
		for c := svc.chars.Oldest(); c != nil; c = c.Next() {
			info.Characteristics = append(info.Characteristics, CharacteristicInfo{
				ID:         c.Value.ID,
				KnownName:  c.Value.KnownName,
				Properties: c.Value.Properties,
				Value:      slices.Clone(c.Value.Value),
			})
		}
		out = append(out, info)
	}
	return out
}

// CharacteristicCount returns the total number of characteristics in the snapshot
func CharacteristicCount(services []ServiceInfo) int {
	n := 0
	for _, s := range services {
		n += len(s.Characteristics)
	}
	return n
}
