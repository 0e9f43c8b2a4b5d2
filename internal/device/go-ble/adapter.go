package goble

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/blecentral/internal/device"
	"github.com/srg/blecentral/internal/groutine"
)

const (
	// DefaultConnectTimeout bounds a single dial attempt
	DefaultConnectTimeout = 30 * time.Second

	// DefaultPowerProbeInterval is how often an unavailable radio is probed again
	DefaultPowerProbeInterval = 2 * time.Second

	// DefaultBLEWriteChunkSize is the maximum number of bytes to write in a single BLE operation.
	// BLE 4.0/4.1 defines an ATT_MTU of 23 bytes (20 bytes payload after ATT header overhead).
	DefaultBLEWriteChunkSize = 20

	// DefaultBLEWriteDelay is the delay between consecutive write chunks.
	DefaultBLEWriteDelay = 10 * time.Millisecond
)

// Options configure an Adapter. Zero values select the defaults.
type Options struct {
	ConnectTimeout     time.Duration
	AllowDuplicates    bool
	PowerProbeInterval time.Duration
	WriteChunkSize     int
	WriteChunkDelay    time.Duration
	Logger             *logrus.Logger
}

// Adapter implements device.RadioAdapter on top of github.com/go-ble/ble.
//
// Every radio operation runs on its own named goroutine and reports its
// outcome to the sink. Platform handles stay inside the adapter, keyed by
// the peripheral identity (its address string).
type Adapter struct {
	opts   Options
	logger *logrus.Logger

	mu     sync.Mutex // guards dev, sink, scan
	dev    ble.Device
	sink   device.EventSink
	scan   *scanHandle
	probe  bool
	group  *groutine.Group
	closed atomic.Bool

	peers *hashmap.Map[string, *peripheral]
}

var _ device.RadioAdapter = (*Adapter)(nil)

// NewAdapter creates an adapter. The platform device is created by Start.
func NewAdapter(opts Options) *Adapter {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.PowerProbeInterval <= 0 {
		opts.PowerProbeInterval = DefaultPowerProbeInterval
	}
	if opts.WriteChunkSize <= 0 {
		opts.WriteChunkSize = DefaultBLEWriteChunkSize
	}
	if opts.WriteChunkDelay <= 0 {
		opts.WriteChunkDelay = DefaultBLEWriteDelay
	}
	return &Adapter{
		opts:   opts,
		logger: opts.Logger,
		group:  groutine.NewGroup(nil),
		peers:  hashmap.New[string, *peripheral](),
	}
}

// Start binds the sink and opens the platform device. A radio that is
// switched off is reported as PoweredOff and probed until it comes up.
func (a *Adapter) Start(sink device.EventSink) error {
	if sink == nil {
		return errors.New("goble: event sink is required")
	}

	a.mu.Lock()
	a.sink = sink
	a.mu.Unlock()

	dev, err := DeviceFactory()
	if err != nil {
		err = NormalizeError(err)
		if !errors.Is(err, device.ErrRadioNotReady) {
			a.logger.WithField("error", err).Error("Failed to create BLE device")
			return wrapError(a.group.Context(), err, "", "open radio")
		}
		a.logger.WithField("error", err).Warn("Bluetooth is not available, waiting for it to come up")
		a.emit(device.PowerStateChanged{State: device.PoweredOff})
		a.startPowerProbe()
		return nil
	}

	a.setDevice(dev)
	return nil
}

// Close stops scanning, drops every link and releases the platform device.
// No events are emitted once Close has started.
func (a *Adapter) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	a.mu.Lock()
	if a.scan != nil {
		a.scan.cancel()
		a.scan = nil
	}
	dev := a.dev
	a.mu.Unlock()

	a.peers.Range(func(id string, p *peripheral) bool {
		p.abandon(a.logger)
		return true
	})
	a.group.Stop()

	if dev == nil {
		return nil
	}
	if err := dev.Stop(); err != nil {
		return wrapError(a.group.Context(), err, "", "close radio")
	}
	a.logger.Debug("BLE adapter closed")
	return nil
}

func (a *Adapter) device() (ble.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev == nil {
		return nil, device.ErrRadioNotReady
	}
	return a.dev, nil
}

func (a *Adapter) setDevice(dev ble.Device) {
	a.mu.Lock()
	a.dev = dev
	a.mu.Unlock()

	a.logger.Info("BLE radio is powered on")
	a.emit(device.PowerStateChanged{State: device.PoweredOn})
}

// lostRadio forgets the platform device after it reported that Bluetooth went away
func (a *Adapter) lostRadio() {
	a.mu.Lock()
	a.dev = nil
	a.scan = nil
	a.mu.Unlock()

	a.emit(device.PowerStateChanged{State: device.PoweredOff})
	a.startPowerProbe()
}

func (a *Adapter) startPowerProbe() {
	a.mu.Lock()
	if a.probe {
		a.mu.Unlock()
		return
	}
	a.probe = true
	a.mu.Unlock()

	a.group.Go("ble-power-probe", a.probePower)
}

func (a *Adapter) emit(ev device.AdapterEvent) {
	if a.closed.Load() {
		return
	}
	a.mu.Lock()
	sink := a.sink
	a.mu.Unlock()
	if sink != nil {
		sink.Emit(ev)
	}
}
