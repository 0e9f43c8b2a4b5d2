package goble

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/blecentral/internal/device"
)

// DiscoverServices lists the primary services of a connected peripheral
func (a *Adapter) DiscoverServices(identity string) error {
	p, client, err := a.connected(identity)
	if err != nil {
		return err
	}

	a.group.Go("ble-discover-services", func(ctx context.Context) {
		p.mu.Lock()
		services, err := client.DiscoverServices(nil)
		p.mu.Unlock()
		if err != nil {
			a.emit(device.ServicesDiscovered{Identity: identity, Err: wrapError(ctx, err, identity, "discover services")})
			return
		}

		ids := make([]string, 0, len(services))
		for _, svc := range services {
			id := device.NormalizeUUID(svc.UUID.String())
			p.services.Store(id, svc)
			ids = append(ids, id)
		}

		a.logger.WithFields(logrus.Fields{
			"device":   identity,
			"services": len(ids),
		}).Debug("Services discovered")
		a.emit(device.ServicesDiscovered{Identity: identity, ServiceIDs: ids})
	})
	return nil
}

// DiscoverCharacteristics lists the characteristics of one discovered service.
// Descriptors of notifiable characteristics are discovered too so the CCCD is
// known before a subscription.
func (a *Adapter) DiscoverCharacteristics(identity, serviceID string) error {
	p, client, err := a.connected(identity)
	if err != nil {
		return err
	}
	serviceID = device.NormalizeUUID(serviceID)
	svc, ok := p.services.Load(serviceID)
	if !ok {
		return &device.NotFoundError{Resource: "service", UUIDs: []string{serviceID}}
	}

	a.group.Go("ble-discover-characteristics", func(ctx context.Context) {
		p.mu.Lock()
		chars, err := client.DiscoverCharacteristics(nil, svc)
		if err == nil {
			for _, c := range chars {
				if c.Property&(ble.CharNotify|ble.CharIndicate) == 0 {
					continue
				}
				if _, derr := client.DiscoverDescriptors(nil, c); derr != nil {
					a.logger.WithFields(logrus.Fields{
						"device":    identity,
						"char_uuid": c.UUID.String(),
						"error":     derr,
					}).Debug("Descriptor discovery failed")
				}
			}
		}
		p.mu.Unlock()

		if err != nil {
			a.emit(device.CharacteristicsDiscovered{
				Identity:  identity,
				ServiceID: serviceID,
				Err:       wrapError(ctx, err, identity, "discover characteristics"),
			})
			return
		}

		decls := make([]device.CharacteristicDecl, 0, len(chars))
		for _, c := range chars {
			id := device.NormalizeUUID(c.UUID.String())
			p.chars.Store(id, c)
			decls = append(decls, device.CharacteristicDecl{ID: id, Properties: NewProperties(c.Property)})
		}
		a.emit(device.CharacteristicsDiscovered{Identity: identity, ServiceID: serviceID, Characteristics: decls})
	})
	return nil
}

// Write sends value in chunks of at most WriteChunkSize bytes.
// Failures arrive as CommandFailed.
func (a *Adapter) Write(identity, charID string, value []byte, mode device.WriteMode) error {
	p, client, err := a.connected(identity)
	if err != nil {
		return err
	}
	charID = device.NormalizeUUID(charID)
	c, ok := p.chars.Load(charID)
	if !ok {
		return &device.NotFoundError{Resource: "characteristic", UUIDs: []string{charID}}
	}

	data := append([]byte(nil), value...)
	noRsp := mode == device.WithoutResponse

	a.group.Go("ble-write", func(ctx context.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()

		for len(data) > 0 {
			n := min(len(data), a.opts.WriteChunkSize)
			if err := client.WriteCharacteristic(c, data[:n], noRsp); err != nil {
				err = wrapError(ctx, fmt.Errorf("write to characteristic %s: %w", charID, err), identity, "write")
				a.emit(device.CommandFailed{Identity: identity, Op: device.OpWrite, Err: err})
				return
			}
			data = data[n:]
			if len(data) > 0 && a.opts.WriteChunkDelay > 0 {
				time.Sleep(a.opts.WriteChunkDelay)
			}
		}
		a.logger.WithFields(logrus.Fields{
			"device":    identity,
			"char_uuid": charID,
			"mode":      mode.String(),
		}).Debug("Characteristic written")
	})
	return nil
}

// SubscribeNotifications enables notifications, or indications when the
// characteristic only supports those.
func (a *Adapter) SubscribeNotifications(identity, charID string) error {
	p, client, err := a.connected(identity)
	if err != nil {
		return err
	}
	charID = device.NormalizeUUID(charID)
	c, ok := p.chars.Load(charID)
	if !ok {
		return &device.NotFoundError{Resource: "characteristic", UUIDs: []string{charID}}
	}
	indicate := c.Property&ble.CharNotify == 0 && c.Property&ble.CharIndicate != 0

	a.group.Go("ble-subscribe", func(ctx context.Context) {
		p.mu.Lock()
		err := client.Subscribe(c, indicate, func(data []byte) {
			a.emit(device.ValueUpdated{
				Identity:         identity,
				CharacteristicID: charID,
				Value:            append([]byte(nil), data...),
			})
		})
		p.mu.Unlock()

		if err != nil {
			err = wrapError(ctx, err, identity, "subscribe")
			a.logger.WithFields(logrus.Fields{
				"device":    identity,
				"char_uuid": charID,
				"error":     err,
			}).Error("Failed to subscribe to characteristic notifications")
			a.emit(device.CommandFailed{Identity: identity, Op: device.OpSubscribe, Err: err})
			return
		}
		a.logger.WithFields(logrus.Fields{
			"device":    identity,
			"char_uuid": charID,
		}).Info("Successfully subscribed to characteristic notifications")
	})
	return nil
}
