package central

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/srg/blecentral/internal/bledb"
	"github.com/srg/blecentral/internal/capability"
	"github.com/srg/blecentral/internal/device"
)

// DiscoveryPhase is the progress of a device's discovery pass
type DiscoveryPhase int

const (
	PhaseIdle DiscoveryPhase = iota
	PhaseDiscoveringServices
	PhaseDiscoveringCharacteristics
	PhaseComplete
)

func (p DiscoveryPhase) String() string {
	switch p {
	case PhaseDiscoveringServices:
		return "discovering_services"
	case PhaseDiscoveringCharacteristics:
		return "discovering_characteristics"
	case PhaseComplete:
		return "complete"
	default:
		return "idle"
	}
}

// Running reports whether a pass is in flight
func (p DiscoveryPhase) Running() bool {
	return p == PhaseDiscoveringServices || p == PhaseDiscoveringCharacteristics
}

type discoveryPass struct {
	phase     DiscoveryPhase
	remaining map[string]struct{} // services still waiting for characteristics
	failed    []string
}

// DiscoveryCoordinator walks the service/characteristic enumeration of
// connected devices and fills their capability maps.
type DiscoveryCoordinator struct {
	registry *Registry
	radio    device.RadioAdapter
	filter   capability.Filter
	passes   map[string]*discoveryPass
	logger   *logrus.Logger
}

// NewDiscoveryCoordinator creates a coordinator. The filter may be empty.
func NewDiscoveryCoordinator(registry *Registry, radio device.RadioAdapter, filter capability.Filter, logger *logrus.Logger) *DiscoveryCoordinator {
	if logger == nil {
		logger = logrus.New()
	}
	return &DiscoveryCoordinator{
		registry: registry,
		radio:    radio,
		filter:   filter,
		passes:   make(map[string]*discoveryPass),
		logger:   logger,
	}
}

// Phase returns the discovery phase of a device
func (c *DiscoveryCoordinator) Phase(identity string) DiscoveryPhase {
	if p, ok := c.passes[identity]; ok {
		return p.phase
	}
	return PhaseIdle
}

// Request starts a pass on behalf of a caller. The device must be connected
// and no pass may be running.
func (c *DiscoveryCoordinator) Request(identity string) []Event {
	d := c.registry.Find(identity)
	if d == nil {
		return []Event{failed(device.KindUnknownDevice, identity, "discover", nil)}
	}
	if d.State != device.Connected {
		return []Event{failed(device.KindNotConnected, identity, "discover", nil)}
	}
	if c.Phase(identity).Running() {
		return []Event{failed(device.KindAlreadyInProgress, identity, "discovery already running", nil)}
	}
	return c.Start(identity)
}

// Start begins a fresh pass, discarding any previous capabilities.
func (c *DiscoveryCoordinator) Start(identity string) []Event {
	d := c.registry.Find(identity)
	if d == nil {
		return nil
	}

	d.Capabilities.Clear()
	pass := &discoveryPass{phase: PhaseDiscoveringServices}
	c.passes[identity] = pass

	c.logger.WithField("device", identity).Debug("Discovering services...")
	if err := c.radio.DiscoverServices(identity); err != nil {
		c.logger.WithFields(logrus.Fields{
			"device": identity,
			"error":  err,
		}).Warn("Service discovery request failed")
		return c.completeWithServiceError(identity, pass, err)
	}
	return nil
}

// Reset returns the device to Idle. Late discovery callbacks are then ignored.
func (c *DiscoveryCoordinator) Reset(identity string) {
	delete(c.passes, identity)
}

// OnServicesDiscovered handles the service list of a device
func (c *DiscoveryCoordinator) OnServicesDiscovered(ev device.ServicesDiscovered) []Event {
	pass, d := c.active(ev.Identity, PhaseDiscoveringServices)
	if pass == nil {
		return nil
	}
	if ev.Err != nil {
		return c.completeWithServiceError(ev.Identity, pass, ev.Err)
	}

	var requested []string
	for _, raw := range ev.ServiceIDs {
		id := bledb.NormalizeUUID(raw)
		if !c.filter.AllowService(id) {
			continue
		}
		if d.Capabilities.AddService(id) {
			requested = append(requested, id)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"device":   ev.Identity,
		"services": len(requested),
	}).Debug("Services discovered")

	if len(requested) == 0 {
		return c.complete(ev.Identity, pass)
	}

	pass.phase = PhaseDiscoveringCharacteristics
	pass.remaining = make(map[string]struct{}, len(requested))
	for _, id := range requested {
		pass.remaining[id] = struct{}{}
	}

	for _, id := range requested {
		if err := c.radio.DiscoverCharacteristics(ev.Identity, id); err != nil {
			c.logger.WithFields(logrus.Fields{
				"device":  ev.Identity,
				"service": id,
				"error":   err,
			}).Warn("Characteristic discovery request failed")
			delete(pass.remaining, id)
			pass.failed = append(pass.failed, id)
		}
	}

	if len(pass.remaining) == 0 {
		return c.complete(ev.Identity, pass)
	}
	return nil
}

// OnCharacteristicsDiscovered handles the characteristics of one service
func (c *DiscoveryCoordinator) OnCharacteristicsDiscovered(ev device.CharacteristicsDiscovered) []Event {
	pass, d := c.active(ev.Identity, PhaseDiscoveringCharacteristics)
	if pass == nil {
		return nil
	}

	serviceID := bledb.NormalizeUUID(ev.ServiceID)
	if _, pending := pass.remaining[serviceID]; !pending {
		c.logger.WithFields(logrus.Fields{
			"device":  ev.Identity,
			"service": serviceID,
		}).Warn("Ignoring characteristics for a service that is not pending")
		return nil
	}
	delete(pass.remaining, serviceID)

	if ev.Err != nil {
		c.logger.WithFields(logrus.Fields{
			"device":  ev.Identity,
			"service": serviceID,
			"error":   ev.Err,
		}).Warn("Characteristic discovery failed")
		pass.failed = append(pass.failed, serviceID)
	} else {
		decls := make([]device.CharacteristicDecl, 0, len(ev.Characteristics))
		for _, decl := range ev.Characteristics {
			if c.filter.AllowCharacteristic(decl.ID) {
				decls = append(decls, decl)
			}
		}
		if _, err := d.Capabilities.AddCharacteristics(serviceID, decls); err != nil {
			// the map was cleared under a running pass; treat the service as failed
			pass.failed = append(pass.failed, serviceID)
		}
	}

	if len(pass.remaining) == 0 {
		return c.complete(ev.Identity, pass)
	}
	return nil
}

// active returns the pass and device when a callback for phase is expected
func (c *DiscoveryCoordinator) active(identity string, phase DiscoveryPhase) (*discoveryPass, *Device) {
	pass, ok := c.passes[identity]
	if !ok || pass.phase != phase {
		c.logger.WithFields(logrus.Fields{
			"device": identity,
			"phase":  c.Phase(identity),
		}).Debug("Ignoring out-of-phase discovery callback")
		return nil, nil
	}
	d := c.registry.Find(identity)
	if d == nil {
		return nil, nil
	}
	return pass, d
}

func (c *DiscoveryCoordinator) completeWithServiceError(identity string, pass *discoveryPass, err error) []Event {
	if d := c.registry.Find(identity); d != nil {
		d.Capabilities.Clear()
	}
	pass.phase = PhaseComplete
	pass.remaining = nil
	return []Event{
		operationFailed(device.AsOperationError(identity, "service discovery failed", err)),
		capabilitiesReady(identity),
	}
}

func (c *DiscoveryCoordinator) complete(identity string, pass *discoveryPass) []Event {
	pass.phase = PhaseComplete
	pass.remaining = nil

	var events []Event
	if len(pass.failed) > 0 {
		sort.Strings(pass.failed)
		events = append(events, failed(device.KindDiscoveryPartialFailure, identity,
			fmt.Sprintf("characteristic discovery failed for %s", strings.Join(pass.failed, ", ")), nil))
	}

	c.logger.WithFields(logrus.Fields{
		"device":          identity,
		"failed_services": len(pass.failed),
	}).Info("Discovery complete")

	return append(events, capabilitiesReady(identity))
}
