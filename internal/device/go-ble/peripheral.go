package goble

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-ble/ble"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/srg/blecentral/internal/device"
)

// peripheral holds the platform handles of one link, keyed by normalized UUID
type peripheral struct {
	identity string

	mu         sync.Mutex // serializes GATT operations on the client
	client     ble.Client
	cancelDial context.CancelFunc
	closing    atomic.Bool

	services *xsync.MapOf[string, *ble.Service]
	chars    *xsync.MapOf[string, *ble.Characteristic]
}

func newPeripheral(identity string, cancelDial context.CancelFunc) *peripheral {
	return &peripheral{
		identity:   identity,
		cancelDial: cancelDial,
		services:   xsync.NewMapOf[string, *ble.Service](),
		chars:      xsync.NewMapOf[string, *ble.Characteristic](),
	}
}

func (p *peripheral) setClient(c ble.Client) {
	p.mu.Lock()
	p.client = c
	p.mu.Unlock()
}

func (p *peripheral) getClient() ble.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client
}

// abandon cancels a pending dial or drops an established link
func (p *peripheral) abandon(logger *logrus.Logger) {
	p.closing.Store(true)
	if p.cancelDial != nil {
		p.cancelDial()
	}
	if c := p.getClient(); c != nil {
		if err := c.CancelConnection(); err != nil {
			logger.WithFields(logrus.Fields{
				"device": p.identity,
				"error":  err,
			}).Debug("Failed to cancel connection")
		}
	}
}

// Connect dials the peripheral in the background
func (a *Adapter) Connect(identity string) error {
	dev, err := a.device()
	if err != nil {
		return err
	}
	if existing, ok := a.peers.Get(identity); ok && !existing.closing.Load() {
		return device.ErrAlreadyInProgress
	}

	ctx, cancel := context.WithTimeout(a.group.Context(), a.opts.ConnectTimeout)
	p := newPeripheral(identity, cancel)
	a.peers.Set(identity, p)

	a.group.Go("ble-dial", func(context.Context) {
		defer cancel()

		a.logger.WithFields(logrus.Fields{
			"device":  identity,
			"timeout": a.opts.ConnectTimeout,
		}).Info("Connecting to BLE device...")

		client, err := dev.Dial(ctx, ble.NewAddr(identity))
		if err != nil {
			if !a.forget(identity, p) {
				return
			}
			if p.closing.Load() {
				a.emit(device.LinkDown{Identity: identity})
				return
			}
			err = wrapError(ctx, err, identity, "connect")
			a.logger.WithFields(logrus.Fields{
				"device": identity,
				"error":  err,
			}).Error("Failed to dial BLE device")
			a.emit(device.LinkDown{Identity: identity, Err: err})
			return
		}

		p.setClient(client)
		if p.closing.Load() {
			// Disconnect arrived while dialing
			if err := client.CancelConnection(); err != nil {
				a.logger.WithFields(logrus.Fields{
					"device": identity,
					"error":  err,
				}).Debug("Failed to cancel connection")
			}
			if a.forget(identity, p) {
				a.emit(device.LinkDown{Identity: identity})
			}
			return
		}

		a.logger.WithField("device", identity).Info("BLE device connected successfully")
		a.emit(device.LinkUp{Identity: identity})
		a.group.Go("ble-connection-monitor", func(monitorCtx context.Context) {
			a.monitor(monitorCtx, p, client)
		})
	})
	return nil
}

// monitor waits for the link to go down and reports it once
func (a *Adapter) monitor(ctx context.Context, p *peripheral, client ble.Client) {
	select {
	case <-client.Disconnected():
	case <-ctx.Done():
		return
	}

	if !a.forget(p.identity, p) {
		// already reported, or replaced by a newer link
		return
	}
	if p.closing.Load() {
		a.logger.WithField("device", p.identity).Info("BLE device disconnected")
		a.emit(device.LinkDown{Identity: p.identity})
		return
	}
	a.logger.WithField("device", p.identity).Warn("BLE link lost")
	a.emit(device.LinkDown{Identity: p.identity, Err: device.ErrConnectionLost})
}

// forget removes p unless a newer link for the same identity replaced it.
// Returns true when p was the current link.
func (a *Adapter) forget(identity string, p *peripheral) bool {
	if cur, ok := a.peers.Get(identity); ok && cur == p {
		return a.peers.Del(identity)
	}
	return false
}

// Disconnect tears the link down. The outcome arrives as LinkDown, or as
// CommandFailed when the radio refuses; the link is forgotten either way.
func (a *Adapter) Disconnect(identity string) error {
	p, ok := a.peers.Get(identity)
	if !ok {
		return device.ErrNotConnected
	}
	if !p.closing.CompareAndSwap(false, true) {
		return nil
	}

	client := p.getClient()
	if client == nil {
		p.cancelDial()
		return nil
	}

	a.group.Go("ble-disconnect", func(ctx context.Context) {
		if err := client.CancelConnection(); err != nil {
			err = wrapError(ctx, err, identity, "disconnect")
			a.logger.WithFields(logrus.Fields{
				"device": identity,
				"error":  err,
			}).Warn("Failed to cancel connection")
			if a.forget(identity, p) {
				a.emit(device.CommandFailed{Identity: identity, Op: device.OpDisconnect, Err: err})
			}
		}
	})
	return nil
}

// connected returns the live peripheral or ErrNotConnected
func (a *Adapter) connected(identity string) (*peripheral, ble.Client, error) {
	p, ok := a.peers.Get(identity)
	if !ok || p.closing.Load() {
		return nil, nil, device.ErrNotConnected
	}
	client := p.getClient()
	if client == nil {
		return nil, nil, device.ErrNotConnected
	}
	return p, client, nil
}
