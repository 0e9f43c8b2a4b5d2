package central

import (
	"github.com/sirupsen/logrus"

	"github.com/srg/blecentral/internal/device"
)

// ConnectionCoordinator drives the per-device connection state machine and
// tracks the radio power state it depends on.
type ConnectionCoordinator struct {
	registry  *Registry
	discovery *DiscoveryCoordinator
	radio     device.RadioAdapter
	power     device.PowerState
	logger    *logrus.Logger
}

// NewConnectionCoordinator creates a coordinator with an Unknown power state
func NewConnectionCoordinator(registry *Registry, discovery *DiscoveryCoordinator, radio device.RadioAdapter, logger *logrus.Logger) *ConnectionCoordinator {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConnectionCoordinator{
		registry:  registry,
		discovery: discovery,
		radio:     radio,
		power:     device.PowerUnknown,
		logger:    logger,
	}
}

// Power returns the last reported radio power state
func (c *ConnectionCoordinator) Power() device.PowerState {
	return c.power
}

// Connect requests a link to a Disconnected device while the radio is powered on.
func (c *ConnectionCoordinator) Connect(identity string) []Event {
	if c.power != device.PoweredOn {
		return []Event{failed(device.KindRadioNotReady, identity, "connect", nil)}
	}
	d := c.registry.Find(identity)
	if d == nil {
		return []Event{failed(device.KindUnknownDevice, identity, "connect", nil)}
	}
	if d.State != device.Disconnected {
		return []Event{failed(device.KindAlreadyInProgress, identity, "device is "+d.State.String(), nil)}
	}

	d.State = device.Connecting
	events := []Event{connectionChanged(identity, device.Connecting)}

	c.logger.WithField("device", identity).Debug("Connecting...")
	if err := c.radio.Connect(identity); err != nil {
		c.logger.WithFields(logrus.Fields{
			"device": identity,
			"error":  err,
		}).Warn("Connect request failed")
		events = append(events, c.drop(d)...)
		events = append(events, operationFailed(device.AsOperationError(identity, "connect failed", err)))
	}
	return events
}

// Disconnect tears a link down. A pending connect is abandoned at once; an
// established link passes through Disconnecting until the radio confirms.
func (c *ConnectionCoordinator) Disconnect(identity string) []Event {
	d := c.registry.Find(identity)
	if d == nil {
		return []Event{failed(device.KindUnknownDevice, identity, "disconnect", nil)}
	}

	switch d.State {
	case device.Disconnected, device.Disconnecting:
		return []Event{failed(device.KindAlreadyInProgress, identity, "device is "+d.State.String(), nil)}

	case device.Connecting:
		if err := c.radio.Disconnect(identity); err != nil {
			c.logger.WithFields(logrus.Fields{
				"device": identity,
				"error":  err,
			}).Debug("Cancelling pending connect returned an error")
		}
		return c.drop(d)

	default:
		d.State = device.Disconnecting
		events := []Event{connectionChanged(identity, device.Disconnecting)}
		if err := c.radio.Disconnect(identity); err != nil {
			c.logger.WithFields(logrus.Fields{
				"device": identity,
				"error":  err,
			}).Warn("Disconnect request failed")
			events = append(events, c.drop(d)...)
			events = append(events, operationFailed(device.AsOperationError(identity, "disconnect failed", err)))
		}
		return events
	}
}

// OnConnected handles a confirmed link and starts discovery
func (c *ConnectionCoordinator) OnConnected(identity string) []Event {
	d := c.registry.Find(identity)
	if d == nil {
		c.logger.WithField("device", identity).Warn("Connected callback for an unknown device")
		return nil
	}

	switch d.State {
	case device.Connecting:
		d.State = device.Connected
		c.logger.WithField("device", identity).Info("Connected")
		events := []Event{connectionChanged(identity, device.Connected)}
		return append(events, c.discovery.Start(identity)...)

	case device.Disconnected:
		// the connect was abandoned before the radio finished it
		c.logger.WithField("device", identity).Debug("Dropping link that is no longer wanted")
		if err := c.radio.Disconnect(identity); err != nil {
			c.logger.WithFields(logrus.Fields{
				"device": identity,
				"error":  err,
			}).Warn("Dropping unwanted link failed")
		}
		return nil

	default:
		return nil
	}
}

// OnDisconnected handles a lost, refused or requested disconnect
func (c *ConnectionCoordinator) OnDisconnected(identity string, cause error) []Event {
	d := c.registry.Find(identity)
	if d == nil || d.State == device.Disconnected {
		return nil
	}

	prev := d.State
	events := c.drop(d)

	fields := logrus.Fields{"device": identity, "previous_state": prev.String()}
	if cause != nil {
		fields["error"] = cause
		c.logger.WithFields(fields).Warn("Disconnected with error")

		msg := "link lost"
		if prev == device.Connecting {
			msg = "connect failed"
		}
		events = append(events, operationFailed(device.AsOperationError(identity, msg, cause)))
	} else {
		c.logger.WithFields(fields).Info("Disconnected")
	}
	return events
}

// OnDisconnectFailed handles a disconnect the radio could not carry out.
// The radio is authoritative: the device still ends up Disconnected so that it
// can be reconnected, and the failure is reported once.
func (c *ConnectionCoordinator) OnDisconnectFailed(identity string, cause error) []Event {
	var events []Event
	if d := c.registry.Find(identity); d != nil && d.State != device.Disconnected {
		c.logger.WithFields(logrus.Fields{
			"device":         identity,
			"previous_state": d.State.String(),
			"error":          cause,
		}).Warn("Disconnect failed, dropping link state")
		events = c.drop(d)
	}
	return append(events, operationFailed(device.AsOperationError(identity, "disconnect failed", cause)))
}

// OnPowerStateChanged records the radio state. Losing power drops every link.
func (c *ConnectionCoordinator) OnPowerStateChanged(p device.PowerState) []Event {
	if p == c.power {
		return nil
	}
	c.logger.WithFields(logrus.Fields{
		"from": c.power.String(),
		"to":   p.String(),
	}).Info("Radio power state changed")
	c.power = p

	events := []Event{powerChanged(p)}
	if p == device.PoweredOn {
		return events
	}
	for _, d := range c.registry.All() {
		if d.State != device.Disconnected {
			events = append(events, c.drop(d)...)
		}
	}
	return events
}

func (c *ConnectionCoordinator) drop(d *Device) []Event {
	d.resetLink()
	c.discovery.Reset(d.Identity)
	return []Event{connectionChanged(d.Identity, device.Disconnected)}
}
