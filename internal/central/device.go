package central

import (
	"math"
	"time"

	"github.com/srg/blecentral/internal/capability"
	"github.com/srg/blecentral/internal/device"
	"github.com/srg/blecentral/internal/sampler"
)

// Device is the mutable record of one peripheral. It is owned by the session
// loop and never handed out; callers get a DeviceSnapshot instead.
type Device struct {
	Identity     string
	Name         string
	Vendor       string
	State        device.ConnectionState
	Signal       *sampler.Sampler
	Capabilities *capability.Map
	FirstSeen    time.Time
	LastSeen     time.Time
	Stale        bool
}

func newDevice(identity, name string, capacity int, refresh time.Duration, seen time.Time) *Device {
	return &Device{
		Identity:     identity,
		Name:         name,
		State:        device.Disconnected,
		Signal:       sampler.New(capacity, refresh),
		Capabilities: capability.New(),
		FirstSeen:    seen,
		LastSeen:     seen,
	}
}

// DeviceSnapshot is an immutable copy of a Device
type DeviceSnapshot struct {
	Identity  string
	Name      string
	Vendor    string
	State     device.ConnectionState
	Discovery DiscoveryPhase

	Samples       []sampler.Sample
	AverageRSSI   float64
	WeakestRSSI   int
	StrongestRSSI int
	HasSignal     bool
	Quality       sampler.Quality

	FirstSeen time.Time
	LastSeen  time.Time
	Stale     bool

	Services []capability.ServiceInfo
}

func (d *Device) snapshot(phase DiscoveryPhase) DeviceSnapshot {
	snap := DeviceSnapshot{
		Identity:    d.Identity,
		Name:        d.Name,
		Vendor:      d.Vendor,
		State:       d.State,
		Discovery:   phase,
		Samples:     d.Signal.Samples(),
		AverageRSSI: d.Signal.Average(),
		FirstSeen:   d.FirstSeen,
		LastSeen:    d.LastSeen,
		Stale:       d.Stale,
		Services:    d.Capabilities.Snapshot(),
		Quality:     sampler.Unusable,
	}
	snap.WeakestRSSI, snap.StrongestRSSI, snap.HasSignal = d.Signal.Extremes()
	if snap.HasSignal {
		snap.Quality = sampler.Classify(int(math.Round(snap.AverageRSSI)))
	}
	return snap
}

// resetLink drops the device back to Disconnected and forgets its capabilities
func (d *Device) resetLink() {
	d.State = device.Disconnected
	d.Capabilities.Clear()
}
