package central

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/srg/blecentral/internal/capability"
	"github.com/srg/blecentral/internal/device"
	"github.com/srg/blecentral/internal/eventbus"
	"github.com/srg/blecentral/internal/groutine"
	"github.com/srg/blecentral/internal/ringchan"
	"github.com/srg/blecentral/internal/sampler"
)

// ErrSessionClosed is returned by facade calls made after Close
var ErrSessionClosed = errors.New("session closed")

// advertisementBatch bounds the sightings handled per loop wakeup so that
// lifecycle events are not starved under a flood of advertisements.
const advertisementBatch = 32

// Options configure a Session. Zero values select the defaults.
type Options struct {
	Radio  device.RadioAdapter
	Logger *logrus.Logger

	SampleCapacity      int           // samples kept per device (15)
	RefreshInterval     time.Duration // minimum spacing of accepted samples (5s)
	StaleTimeout        time.Duration // 0 disables stale marking
	EventBuffer         int           // inbound queue and per-subscriber buffer (64)
	AdvertisementBuffer int           // lossy sighting queue (128)
	Filter              capability.Filter

	// Now is the clock used for stale sweeps; time.Now when nil
	Now func() time.Time
}

// Subscription receives session events until released with Unsubscribe
type Subscription = eventbus.Subscription[EventKind, Event]

// Stats are lifetime counters of a session. EventsDropped counts deliveries
// lost to subscribers that fell behind.
type Stats struct {
	AdapterEvents         int64
	AdvertisementsSeen    int64
	AdvertisementsDropped int64
	EventsPublished       int64
	EventsDropped         int64
}

// Session is the device session facade. Commands are queued onto a single
// loop goroutine and their outcomes are published as events; queries return
// snapshots and may be called from any goroutine.
type Session struct {
	radio  device.RadioAdapter
	logger *logrus.Logger
	now    func() time.Time

	staleTimeout time.Duration

	// guarded by mu, written only by the loop
	mu          sync.RWMutex
	registry    *Registry
	connections *ConnectionCoordinator
	discovery   *DiscoveryCoordinator
	scanning    bool

	inbound  chan func() []Event
	adverts  *ringchan.RingChannel[device.AdvertisementSeen]
	bus      *eventbus.Bus[EventKind, Event]
	seq      uint64
	group    *groutine.Group
	done     chan struct{}
	closeErr error
	once     sync.Once

	adapterEvents   *xsync.Counter
	advertsSeen     *xsync.Counter
	eventsPublished *xsync.Counter
}

// NewSession starts a session on the given radio. The radio is started and
// owned by the session; Close releases it.
func NewSession(opts Options) (*Session, error) {
	if opts.Radio == nil {
		return nil, errors.New("central: radio adapter is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.SampleCapacity <= 0 {
		opts.SampleCapacity = sampler.DefaultCapacity
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = sampler.DefaultRefreshInterval
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	if opts.AdvertisementBuffer <= 0 {
		opts.AdvertisementBuffer = 128
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	registry := NewRegistry(opts.SampleCapacity, opts.RefreshInterval, opts.Logger)
	discovery := NewDiscoveryCoordinator(registry, opts.Radio, opts.Filter, opts.Logger)

	s := &Session{
		radio:           opts.Radio,
		logger:          opts.Logger,
		now:             opts.Now,
		staleTimeout:    opts.StaleTimeout,
		registry:        registry,
		discovery:       discovery,
		connections:     NewConnectionCoordinator(registry, discovery, opts.Radio, opts.Logger),
		inbound:         make(chan func() []Event, opts.EventBuffer),
		adverts:         ringchan.New[device.AdvertisementSeen](opts.AdvertisementBuffer),
		bus:             eventbus.New[EventKind, Event](opts.EventBuffer),
		group:           groutine.NewGroup(context.Background()),
		done:            make(chan struct{}),
		adapterEvents:   xsync.NewCounter(),
		advertsSeen:     xsync.NewCounter(),
		eventsPublished: xsync.NewCounter(),
	}

	s.group.Go("central-session-loop", s.run)

	if err := s.radio.Start(s); err != nil {
		close(s.done)
		s.group.Stop()
		s.bus.Close()
		return nil, err
	}
	return s, nil
}

// Emit implements device.EventSink. Advertisements are queued lossily, all
// other events losslessly. Events emitted after Close are discarded.
func (s *Session) Emit(ev device.AdapterEvent) {
	select {
	case <-s.done:
		return
	default:
	}

	s.adapterEvents.Inc()
	if adv, ok := ev.(device.AdvertisementSeen); ok {
		s.adverts.Send(adv)
		return
	}

	select {
	case s.inbound <- func() []Event { return s.handleAdapterEvent(ev) }:
	case <-s.done:
	}
}

// Subscribe returns a subscription to the given kinds, or to every kind when none is given.
// Publishing never waits for a subscriber: one that falls more than EventBuffer
// events behind misses events, which are counted in Stats.EventsDropped.
func (s *Session) Subscribe(kinds ...EventKind) *Subscription {
	if len(kinds) == 0 {
		kinds = AllEventKinds
	}
	return s.bus.Subscribe(kinds...)
}

// Close stops the loop, releases the radio and closes every subscription.
func (s *Session) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.group.Stop()
		s.closeErr = s.radio.Close()
		s.bus.Close()
		s.logger.Debug("Session closed")
	})
	return s.closeErr
}

// Stats returns lifetime counters
func (s *Session) Stats() Stats {
	adverts := s.adverts.Stats()
	return Stats{
		AdapterEvents:         s.adapterEvents.Value(),
		AdvertisementsSeen:    s.advertsSeen.Value(),
		AdvertisementsDropped: adverts.Dropped,
		EventsPublished:       s.eventsPublished.Value(),
		EventsDropped:         s.bus.Dropped(),
	}
}

// ---- commands ----

// StartScanning asks the radio to scan. Reported as RadioNotReady unless powered on.
func (s *Session) StartScanning() error {
	return s.enqueue(func() []Event {
		if s.connections.Power() != device.PoweredOn {
			return []Event{failed(device.KindRadioNotReady, "", "start scanning", nil)}
		}
		if s.scanning {
			return nil
		}
		if err := s.radio.StartScan(); err != nil {
			return []Event{operationFailed(device.AsOperationError("", "start scanning", err))}
		}
		s.scanning = true
		s.logger.Info("Scanning started")
		return nil
	})
}

// StopScanning stops an active scan
func (s *Session) StopScanning() error {
	return s.enqueue(func() []Event {
		if !s.scanning {
			return nil
		}
		s.scanning = false
		if err := s.radio.StopScan(); err != nil {
			return []Event{operationFailed(device.AsOperationError("", "stop scanning", err))}
		}
		s.logger.Info("Scanning stopped")
		return nil
	})
}

// Connect requests a link to a discovered device
func (s *Session) Connect(identity string) error {
	return s.enqueue(func() []Event { return s.connections.Connect(identity) })
}

// Disconnect tears a link down or abandons a pending connect
func (s *Session) Disconnect(identity string) error {
	return s.enqueue(func() []Event { return s.connections.Disconnect(identity) })
}

// RequestDiscovery re-runs service discovery on a connected device
func (s *Session) RequestDiscovery(identity string) error {
	return s.enqueue(func() []Event { return s.discovery.Request(identity) })
}

// WriteCharacteristic writes value to a characteristic of a connected device
func (s *Session) WriteCharacteristic(identity, charID string, value []byte, mode device.WriteMode) error {
	value = append([]byte(nil), value...)
	return s.enqueue(func() []Event {
		c, errEv := s.lookupCharacteristic(identity, charID, "write")
		if errEv != nil {
			return []Event{*errEv}
		}
		if !c.Properties.CanWrite(mode) {
			return []Event{failed(device.KindUnsupported, identity, "characteristic "+c.ID+" does not support write "+mode.String(), nil)}
		}
		if err := s.radio.Write(identity, c.ID, value, mode); err != nil {
			return []Event{operationFailed(device.AsOperationError(identity, "write "+c.ID, err))}
		}
		return nil
	})
}

// SubscribeNotifications enables notifications or indications on a characteristic
func (s *Session) SubscribeNotifications(identity, charID string) error {
	return s.enqueue(func() []Event {
		c, errEv := s.lookupCharacteristic(identity, charID, "subscribe")
		if errEv != nil {
			return []Event{*errEv}
		}
		if !c.Properties.CanSubscribe() {
			return []Event{failed(device.KindUnsupported, identity, "characteristic "+c.ID+" does not notify", nil)}
		}
		if err := s.radio.SubscribeNotifications(identity, c.ID); err != nil {
			return []Event{operationFailed(device.AsOperationError(identity, "subscribe "+c.ID, err))}
		}
		return nil
	})
}

func (s *Session) lookupCharacteristic(identity, charID, op string) (*capability.Characteristic, *Event) {
	d := s.registry.Find(identity)
	if d == nil {
		ev := failed(device.KindUnknownDevice, identity, op, nil)
		return nil, &ev
	}
	if d.State != device.Connected {
		ev := failed(device.KindNotConnected, identity, op, nil)
		return nil, &ev
	}
	c, _, ok := d.Capabilities.FindCharacteristic(charID)
	if !ok {
		ev := failed(device.KindUnknownCharacteristic, identity, op+" "+device.NormalizeUUID(charID), nil)
		return nil, &ev
	}
	return c, nil
}

// ---- queries ----

// PowerState returns the last reported radio power state
func (s *Session) PowerState() device.PowerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections.Power()
}

// IsScanning reports whether a scan is active
func (s *Session) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// Devices returns snapshots of every tracked device in first-seen order
func (s *Session) Devices() []DeviceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.registry.All()
	out := make([]DeviceSnapshot, 0, len(all))
	for _, d := range all {
		out = append(out, d.snapshot(s.discovery.Phase(d.Identity)))
	}
	return out
}

// Device returns a snapshot of one device
func (s *Session) Device(identity string) (DeviceSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.registry.Find(identity)
	if d == nil {
		return DeviceSnapshot{}, false
	}
	return d.snapshot(s.discovery.Phase(identity)), true
}

// ---- loop ----

func (s *Session) enqueue(cmd func() []Event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.inbound <- cmd:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) run(ctx context.Context) {
	s.logger.WithField("goroutine", groutine.GetName(ctx)).Debug("Session loop started")
	defer s.logger.Debug("Session loop stopped")

	var staleC <-chan time.Time
	if s.staleTimeout > 0 {
		ticker := time.NewTicker(max(s.staleTimeout/2, time.Second))
		defer ticker.Stop()
		staleC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.inbound:
			s.process(fn)
		case adv := <-s.adverts.C():
			s.process(func() []Event { return s.handleAdvertisements(adv) })
		case <-staleC:
			s.process(s.sweepStale)
		}
	}
}

// process applies fn under the write lock and publishes its events after unlocking
func (s *Session) process(fn func() []Event) {
	s.mu.Lock()
	events := fn()
	s.mu.Unlock()

	for _, ev := range events {
		s.seq++
		ev.Seq = s.seq
		s.eventsPublished.Inc()
		s.logger.WithField("event", ev.String()).Trace("Publishing event")
		if missed := s.bus.Publish(ev.Kind, ev); missed > 0 {
			s.logger.WithFields(logrus.Fields{
				"event":       ev.String(),
				"subscribers": missed,
			}).Warn("Subscriber buffer full, event dropped")
		}
	}
}

func (s *Session) handleAdvertisements(first device.AdvertisementSeen) []Event {
	changed := s.upsert(first)
	for range advertisementBatch - 1 {
		adv, ok := s.adverts.TryReceive()
		if !ok {
			break
		}
		changed = s.upsert(adv) || changed
	}
	if changed {
		return []Event{deviceListChanged()}
	}
	return nil
}

func (s *Session) upsert(adv device.AdvertisementSeen) bool {
	s.advertsSeen.Inc()
	ts := adv.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	changed := s.registry.Upsert(adv.Identity, adv.Name, sampler.Sample{Timestamp: ts, Strength: adv.RSSI}) != Noop
	return s.registry.SetVendor(adv.Identity, adv.Vendor) || changed
}

func (s *Session) sweepStale() []Event {
	if changed := s.registry.MarkStale(s.now(), s.staleTimeout); len(changed) > 0 {
		s.logger.WithField("devices", changed).Debug("Marked devices stale")
		return []Event{deviceListChanged()}
	}
	return nil
}

func (s *Session) handleAdapterEvent(ev device.AdapterEvent) []Event {
	switch e := ev.(type) {
	case device.PowerStateChanged:
		events := s.connections.OnPowerStateChanged(e.State)
		if e.State != device.PoweredOn && s.scanning {
			s.scanning = false
			s.logger.Info("Scanning stopped by power loss")
		}
		return events

	case device.AdvertisementSeen:
		return s.handleAdvertisements(e)

	case device.LinkUp:
		return s.connections.OnConnected(e.Identity)

	case device.LinkDown:
		return s.connections.OnDisconnected(e.Identity, e.Err)

	case device.ServicesDiscovered:
		return s.discovery.OnServicesDiscovered(e)

	case device.CharacteristicsDiscovered:
		return s.discovery.OnCharacteristicsDiscovered(e)

	case device.ValueUpdated:
		d := s.registry.Find(e.Identity)
		if d == nil || d.State != device.Connected {
			return nil
		}
		d.Capabilities.SetValue(e.CharacteristicID, e.Value)
		return []Event{valueUpdated(e.Identity, device.NormalizeUUID(e.CharacteristicID), e.Value)}

	case device.CommandFailed:
		if e.Op == device.OpDisconnect {
			return s.connections.OnDisconnectFailed(e.Identity, e.Err)
		}
		return []Event{operationFailed(device.AsOperationError(e.Identity, e.Op, e.Err))}

	default:
		s.logger.WithField("event", ev).Warn("Ignoring unknown adapter event")
		return nil
	}
}
