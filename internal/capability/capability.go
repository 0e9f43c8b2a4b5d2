// Package capability holds the GATT capability map of a connected peripheral:
// its services in discovery order and, per service, its characteristics.
package capability

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/blecentral/internal/bledb"
	"github.com/srg/blecentral/internal/device"
)

// Characteristic is a single GATT characteristic
type Characteristic struct {
	ID         string
	KnownName  string
	Properties device.Properties
	Value      []byte // last known value, nil until one arrives
}

// Service is a GATT service with its characteristics in discovery order
type Service struct {
	ID        string
	KnownName string
	chars     *orderedmap.OrderedMap[string, *Characteristic]
}

// Characteristics returns the characteristics of the service in discovery order
func (s *Service) Characteristics() []*Characteristic {
	out := make([]*Characteristic, 0, s.chars.Len())
	for p := s.chars.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Map is the capability map of one device. The zero value is not usable; call New.
// It is not safe for concurrent use; the owning session serializes access.
type Map struct {
	services *orderedmap.OrderedMap[string, *Service]
}

// New returns an empty capability map
func New() *Map {
	return &Map{services: orderedmap.New[string, *Service]()}
}

// AddService appends an empty service. Returns false when the service is already present.
func (m *Map) AddService(serviceID string) bool {
	id := bledb.NormalizeUUID(serviceID)
	if _, ok := m.services.Get(id); ok {
		return false
	}
	m.services.Set(id, &Service{
		ID:        id,
		KnownName: bledb.LookupService(id),
		chars:     orderedmap.New[string, *Characteristic](),
	})
	return true
}

// HasService reports whether serviceID is part of the map
func (m *Map) HasService(serviceID string) bool {
	_, ok := m.services.Get(bledb.NormalizeUUID(serviceID))
	return ok
}

// Service returns the service with the given id
func (m *Map) Service(serviceID string) (*Service, bool) {
	return m.services.Get(bledb.NormalizeUUID(serviceID))
}

// AddCharacteristics appends characteristics to an existing service.
// A characteristic id already present in the service keeps its position and value
// and takes the new flags. Returns the number of characteristics added.
func (m *Map) AddCharacteristics(serviceID string, decls []device.CharacteristicDecl) (int, error) {
	svc, ok := m.Service(serviceID)
	if !ok {
		return 0, &device.NotFoundError{Resource: "service", UUIDs: []string{bledb.NormalizeUUID(serviceID)}}
	}

	added := 0
	for _, d := range decls {
		id := bledb.NormalizeUUID(d.ID)
		if c, exists := svc.chars.Get(id); exists {
			c.Properties = d.Properties
			continue
		}
		svc.chars.Set(id, &Characteristic{
			ID:         id,
			KnownName:  bledb.LookupCharacteristic(id),
			Properties: d.Properties,
		})
		added++
	}
	return added, nil
}

// FindCharacteristic looks a characteristic up by id across all services.
// The first service in discovery order that declares it wins.
func (m *Map) FindCharacteristic(charID string) (*Characteristic, *Service, bool) {
	id := bledb.NormalizeUUID(charID)
	for p := m.services.Oldest(); p != nil; p = p.Next() {
		if c, ok := p.Value.chars.Get(id); ok {
			return c, p.Value, true
		}
	}
	return nil, nil, false
}

// SetValue stores the last known value of a characteristic.
// Returns false when the characteristic is unknown.
func (m *Map) SetValue(charID string, value []byte) bool {
	c, _, ok := m.FindCharacteristic(charID)
	if !ok {
		return false
	}
	c.Value = slices.Clone(value)
	return true
}

// Services returns the services in discovery order
func (m *Map) Services() []*Service {
	out := make([]*Service, 0, m.services.Len())
	for p := m.services.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Len returns the number of services
func (m *Map) Len() int { return m.services.Len() }

// IsEmpty reports whether the map holds no services
func (m *Map) IsEmpty() bool { return m.services.Len() == 0 }

// Clear drops every service and characteristic
func (m *Map) Clear() {
	m.services = orderedmap.New[string, *Service]()
}
