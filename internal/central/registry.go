package central

import (
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/blecentral/internal/device"
	"github.com/srg/blecentral/internal/sampler"
)

// UpsertResult tells what a sighting did to the registry
type UpsertResult int

const (
	Noop UpsertResult = iota
	Created
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "noop"
	}
}

// Registry is the authoritative set of discovered devices, keyed by identity
// and kept in first-seen order. Entries are never removed.
type Registry struct {
	devices  *orderedmap.OrderedMap[string, *Device]
	capacity int
	refresh  time.Duration
	logger   *logrus.Logger
}

// NewRegistry creates an empty registry whose devices keep capacity samples
// spaced at least refresh apart.
func NewRegistry(capacity int, refresh time.Duration, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{
		devices:  orderedmap.New[string, *Device](),
		capacity: capacity,
		refresh:  refresh,
		logger:   logger,
	}
}

// Upsert records a sighting.
//
// An unseen identity is only tracked when the sighting carries a name.
// For a tracked device the name is backfilled if it had none, the sample goes
// through the sampler's admission policy and the stale flag is cleared.
func (r *Registry) Upsert(identity, name string, sample sampler.Sample) UpsertResult {
	if identity == "" {
		return Noop
	}

	d, ok := r.devices.Get(identity)
	if !ok {
		if name == "" {
			r.logger.WithField("device", identity).Trace("Ignoring unnamed advertisement")
			return Noop
		}
		d = newDevice(identity, name, r.capacity, r.refresh, sample.Timestamp)
		d.Signal.Offer(sample.Timestamp, sample.Strength)
		r.devices.Set(identity, d)

		r.logger.WithFields(logrus.Fields{
			"device": identity,
			"name":   name,
			"rssi":   sample.Strength,
		}).Debug("Discovered device")
		return Created
	}

	changed := false
	if name != "" && d.Name == "" {
		d.Name = name
		changed = true
	}
	if d.Signal.Offer(sample.Timestamp, sample.Strength) {
		changed = true
	}
	if sample.Timestamp.After(d.LastSeen) {
		d.LastSeen = sample.Timestamp
	}
	if d.Stale {
		d.Stale = false
		changed = true
	}

	if changed {
		return Updated
	}
	return Noop
}

// SetVendor labels a tracked device with its manufacturer. Unknown identities
// are ignored, so a vendor alone never creates a device.
func (r *Registry) SetVendor(identity, vendor string) bool {
	d, ok := r.devices.Get(identity)
	if !ok || vendor == "" || d.Vendor == vendor {
		return false
	}
	d.Vendor = vendor
	return true
}

// Find returns the device with the given identity, or nil
func (r *Registry) Find(identity string) *Device {
	d, _ := r.devices.Get(identity)
	return d
}

// All returns every device in first-seen order
func (r *Registry) All() []*Device {
	out := make([]*Device, 0, r.devices.Len())
	for p := r.devices.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Len returns the number of tracked devices
func (r *Registry) Len() int {
	return r.devices.Len()
}

// MarkStale flags disconnected devices not seen for at least timeout.
// Returns the identities whose flag changed. A non-positive timeout disables marking.
func (r *Registry) MarkStale(now time.Time, timeout time.Duration) []string {
	if timeout <= 0 {
		return nil
	}

	var changed []string
	for p := r.devices.Oldest(); p != nil; p = p.Next() {
		d := p.Value
		if d.Stale || d.State != device.Disconnected {
			continue
		}
		if now.Sub(d.LastSeen) >= timeout {
			d.Stale = true
			changed = append(changed, d.Identity)
		}
	}
	return changed
}
