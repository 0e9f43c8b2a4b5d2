package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/blecentral/internal/capability"
	"github.com/srg/blecentral/internal/central"
	"github.com/srg/blecentral/internal/device"
	goble "github.com/srg/blecentral/internal/device/go-ble"
	"github.com/srg/blecentral/pkg/config"
)

// deviceWaitPoll re-checks the registry in case a DeviceListChanged event was dropped
const deviceWaitPoll = 200 * time.Millisecond

// openSession creates the go-ble radio and a session driving it
func openSession(cfg *config.Config, logger *logrus.Logger) (*central.Session, error) {
	radio := goble.NewAdapter(goble.Options{
		ConnectTimeout:  cfg.ConnectTimeout,
		AllowDuplicates: cfg.AllowDuplicates,
		Logger:          logger,
	})

	sess, err := central.NewSession(central.Options{
		Radio:               radio,
		Logger:              logger,
		SampleCapacity:      cfg.SampleHistoryCapacity,
		RefreshInterval:     cfg.RefreshInterval,
		StaleTimeout:        cfg.StaleTimeout,
		EventBuffer:         cfg.EventBufferSize,
		AdvertisementBuffer: cfg.AdvertisementBuffer,
		Filter:              capability.NewFilter(cfg.ServiceAllowList, cfg.CharacteristicAllowList),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open BLE session: %w", err)
	}
	return sess, nil
}

// normalizeIdentity lowercases user input the way go-ble reports addresses
func normalizeIdentity(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// waitPoweredOn blocks until the radio reports PoweredOn.
// sub must have been created before the call so no transition is missed.
func waitPoweredOn(ctx context.Context, sess *central.Session, sub *central.Subscription) error {
	if sess.PowerState() == device.PoweredOn {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			if sess.PowerState() == device.PoweredOff {
				return device.NewOperationError(device.KindRadioNotReady, "", "bluetooth is powered off", ctx.Err())
			}
			return ctx.Err()
		case ev, ok := <-sub.C:
			if !ok {
				return central.ErrSessionClosed
			}
			if ev.Kind == central.EventPowerStateChanged && ev.Power == device.PoweredOn {
				return nil
			}
		}
	}
}

// waitForDevice scans until identity is in the registry, then stops scanning
func waitForDevice(ctx context.Context, sess *central.Session, sub *central.Subscription, identity string) (central.DeviceSnapshot, error) {
	if snap, ok := sess.Device(identity); ok {
		return snap, nil
	}

	if err := sess.StartScanning(); err != nil {
		return central.DeviceSnapshot{}, err
	}
	defer func() { _ = sess.StopScanning() }()

	poll := time.NewTicker(deviceWaitPoll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return central.DeviceSnapshot{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, identity)
			}
			return central.DeviceSnapshot{}, ctx.Err()
		case ev, ok := <-sub.C:
			if !ok {
				return central.DeviceSnapshot{}, central.ErrSessionClosed
			}
			if ev.Kind == central.EventOperationFailed && ev.Identity == "" {
				return central.DeviceSnapshot{}, ev.Err
			}
		case <-poll.C:
		}
		if snap, ok := sess.Device(identity); ok {
			return snap, nil
		}
	}
}

// connectAndDiscover connects to a known device and waits until its
// capabilities are ready. Partial discovery failures are logged and tolerated.
func connectAndDiscover(ctx context.Context, sess *central.Session, sub *central.Subscription, identity string, phase func(string), logger *logrus.Logger) (central.DeviceSnapshot, error) {
	phase("Connecting")
	if err := sess.Connect(identity); err != nil {
		return central.DeviceSnapshot{}, err
	}

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			return central.DeviceSnapshot{}, ctx.Err()
		case ev, ok := <-sub.C:
			if !ok {
				return central.DeviceSnapshot{}, central.ErrSessionClosed
			}
			if ev.Identity != identity {
				continue
			}
			switch ev.Kind {
			case central.EventConnectionChanged:
				switch ev.State {
				case device.Connected:
					phase("Discovering")
				case device.Disconnected:
					if lastErr == nil {
						lastErr = followingFailure(sub, identity)
					}
					if lastErr != nil {
						return central.DeviceSnapshot{}, lastErr
					}
					return central.DeviceSnapshot{}, ErrConnectionLost
				}
			case central.EventOperationFailed:
				if ev.Err.Kind == device.KindDiscoveryPartialFailure {
					logger.WithField("device", identity).Warn(ev.Err.Error())
					continue
				}
				lastErr = ev.Err
				// a rejected command leaves no link behind to report on
				if snap, ok := sess.Device(identity); !ok || snap.State == device.Disconnected {
					return central.DeviceSnapshot{}, lastErr
				}
			case central.EventCapabilitiesReady:
				snap, _ := sess.Device(identity)
				return snap, nil
			}
		}
	}
}

// followingFailure picks up the OperationFailed published right after a
// ConnectionChanged(Disconnected) that carried a cause
func followingFailure(sub *central.Subscription, identity string) error {
	select {
	case ev, ok := <-sub.C:
		if ok && ev.Kind == central.EventOperationFailed && ev.Identity == identity {
			return ev.Err
		}
	case <-time.After(100 * time.Millisecond):
	}
	return nil
}

// openDevice is the shared preamble of every per-device command: power up,
// find the device, connect and discover.
func openDevice(ctx context.Context, sess *central.Session, identity string, scanTimeout time.Duration, phase func(string), logger *logrus.Logger) (central.DeviceSnapshot, *central.Subscription, error) {
	sub := sess.Subscribe()

	phase("Waiting for radio")
	if err := waitPoweredOn(ctx, sess, sub); err != nil {
		sub.Unsubscribe()
		return central.DeviceSnapshot{}, nil, err
	}

	phase("Scanning")
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	_, err := waitForDevice(scanCtx, sess, sub, identity)
	cancel()
	if err != nil {
		sub.Unsubscribe()
		return central.DeviceSnapshot{}, nil, err
	}

	snap, err := connectAndDiscover(ctx, sess, sub, identity, phase, logger)
	if err != nil {
		sub.Unsubscribe()
		return central.DeviceSnapshot{}, nil, err
	}
	return snap, sub, nil
}

// closeDevice disconnects and waits briefly for the link to drop
func closeDevice(sess *central.Session, sub *central.Subscription, identity string, wait time.Duration) {
	defer sub.Unsubscribe()
	if err := sess.Disconnect(identity); err != nil {
		return
	}
	timeout := time.After(wait)
	for {
		select {
		case <-timeout:
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.Kind == central.EventConnectionChanged && ev.Identity == identity && ev.State == device.Disconnected {
				return
			}
		}
	}
}
