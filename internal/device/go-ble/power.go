package goble

import (
	"context"
	"time"
)

// probePower retries the device factory until the radio becomes available
func (a *Adapter) probePower(ctx context.Context) {
	ticker := time.NewTicker(a.opts.PowerProbeInterval)
	defer ticker.Stop()
	defer func() {
		a.mu.Lock()
		a.probe = false
		a.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dev, err := DeviceFactory()
			if err != nil {
				a.logger.WithField("error", err).Trace("Bluetooth still unavailable")
				continue
			}
			a.setDevice(dev)
			return
		}
	}
}
