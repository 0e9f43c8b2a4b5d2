package goble

import (
	"context"
	"errors"
	"time"

	"github.com/go-ble/ble"

	"github.com/srg/blecentral/internal/device"
)

type scanHandle struct {
	cancel context.CancelFunc
}

// StartScan starts a background scan. Scanning twice is a no-op.
func (a *Adapter) StartScan() error {
	dev, err := a.device()
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scan != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(a.group.Context())
	handle := &scanHandle{cancel: cancel}
	a.scan = handle

	a.group.Go("ble-scan", func(context.Context) {
		a.logger.WithField("allow_duplicates", a.opts.AllowDuplicates).Debug("Scanning...")

		err := dev.Scan(ctx, a.opts.AllowDuplicates, func(adv ble.Advertisement) {
			a.emit(NewAdvertisementSeen(adv, time.Now()))
		})

		a.mu.Lock()
		if a.scan == handle {
			a.scan = nil
		}
		a.mu.Unlock()

		if err == nil || ctx.Err() != nil {
			a.logger.Debug("Scan finished")
			return
		}

		err = wrapError(ctx, err, "", "scan")
		a.logger.WithField("error", err).Warn("Scan failed")
		a.emit(device.CommandFailed{Op: device.OpScan, Err: err})
		if errors.Is(err, device.ErrRadioNotReady) {
			a.lostRadio()
		}
	})
	return nil
}

// StopScan cancels the running scan, if any
func (a *Adapter) StopScan() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scan != nil {
		a.scan.cancel()
		a.scan = nil
	}
	return nil
}
