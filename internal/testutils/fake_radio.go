package testutils

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/srg/blecentral/internal/device"
)

// FakeRadio is a scripted device.RadioAdapter.
//
// Commands are recorded through testify/mock, so every command a test
// triggers needs an expectation. Adapter events are injected with the
// emitter helpers, which deliver them to the bound sink from the calling
// goroutine, as a real radio would from its own.
type FakeRadio struct {
	mock.Mock

	mu   sync.Mutex
	sink device.EventSink
}

var _ device.RadioAdapter = (*FakeRadio)(nil)

// NewFakeRadio creates a radio with no expectations
func NewFakeRadio() *FakeRadio {
	return &FakeRadio{}
}

// AllowLifecycle accepts any number of Start and Close calls
func (r *FakeRadio) AllowLifecycle() *FakeRadio {
	r.On("Start", mock.Anything).Return(nil).Maybe()
	r.On("Close").Return(nil).Maybe()
	return r
}

func (r *FakeRadio) Start(sink device.EventSink) error {
	r.mu.Lock()
	r.sink = sink
	r.mu.Unlock()
	return r.Called(sink).Error(0)
}

func (r *FakeRadio) StartScan() error {
	return r.Called().Error(0)
}

func (r *FakeRadio) StopScan() error {
	return r.Called().Error(0)
}

func (r *FakeRadio) Connect(identity string) error {
	return r.Called(identity).Error(0)
}

func (r *FakeRadio) Disconnect(identity string) error {
	return r.Called(identity).Error(0)
}

func (r *FakeRadio) DiscoverServices(identity string) error {
	return r.Called(identity).Error(0)
}

func (r *FakeRadio) DiscoverCharacteristics(identity, serviceID string) error {
	return r.Called(identity, serviceID).Error(0)
}

func (r *FakeRadio) Write(identity, characteristicID string, value []byte, mode device.WriteMode) error {
	return r.Called(identity, characteristicID, value, mode).Error(0)
}

func (r *FakeRadio) SubscribeNotifications(identity, characteristicID string) error {
	return r.Called(identity, characteristicID).Error(0)
}

func (r *FakeRadio) Close() error {
	return r.Called().Error(0)
}

// Emit delivers an adapter event to the bound sink. It panics when Start was never called.
func (r *FakeRadio) Emit(ev device.AdapterEvent) {
	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()
	if sink == nil {
		panic("FakeRadio.Emit: radio was not started")
	}
	sink.Emit(ev)
}

// SetPower emits PowerStateChanged
func (r *FakeRadio) SetPower(p device.PowerState) {
	r.Emit(device.PowerStateChanged{State: p})
}

// Advertise emits an AdvertisementSeen
func (r *FakeRadio) Advertise(identity, name string, rssi int, ts time.Time) {
	r.Emit(device.AdvertisementSeen{Identity: identity, Name: name, RSSI: rssi, Timestamp: ts})
}

// ConfirmConnected emits LinkUp
func (r *FakeRadio) ConfirmConnected(identity string) {
	r.Emit(device.LinkUp{Identity: identity})
}

// ConfirmDisconnected emits LinkDown with an optional cause
func (r *FakeRadio) ConfirmDisconnected(identity string, cause error) {
	r.Emit(device.LinkDown{Identity: identity, Err: cause})
}

// ReportServices emits ServicesDiscovered
func (r *FakeRadio) ReportServices(identity string, serviceIDs []string, err error) {
	r.Emit(device.ServicesDiscovered{Identity: identity, ServiceIDs: serviceIDs, Err: err})
}

// ReportCharacteristics emits CharacteristicsDiscovered. Characteristics are
// given as id/properties pairs, e.g. "2a37", "notify", "2a38", "read".
func (r *FakeRadio) ReportCharacteristics(identity, serviceID string, err error, idAndProps ...string) {
	if len(idAndProps)%2 != 0 {
		panic("FakeRadio.ReportCharacteristics: id/properties must come in pairs")
	}
	var decls []device.CharacteristicDecl
	for i := 0; i < len(idAndProps); i += 2 {
		props, perr := device.ParseProperties(idAndProps[i+1])
		if perr != nil {
			panic(perr)
		}
		decls = append(decls, device.CharacteristicDecl{ID: idAndProps[i], Properties: props})
	}
	r.Emit(device.CharacteristicsDiscovered{Identity: identity, ServiceID: serviceID, Characteristics: decls, Err: err})
}

// Notify emits ValueUpdated
func (r *FakeRadio) Notify(identity, characteristicID string, value []byte) {
	r.Emit(device.ValueUpdated{Identity: identity, CharacteristicID: characteristicID, Value: value})
}
