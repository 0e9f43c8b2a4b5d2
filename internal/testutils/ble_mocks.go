package testutils

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// MockDevice is a testify mock of ble.Device. Methods the adapter never
// calls are left to the embedded nil interface and panic if used.
type MockDevice struct {
	ble.Device
	mock.Mock
}

func (m *MockDevice) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	args := m.Called(ctx, allowDup, h)
	return args.Error(0)
}

func (m *MockDevice) Dial(ctx context.Context, a ble.Addr) (ble.Client, error) {
	args := m.Called(ctx, a)
	client, _ := args.Get(0).(ble.Client)
	return client, args.Error(1)
}

func (m *MockDevice) Stop() error {
	args := m.Called()
	return args.Error(0)
}

// MockClient is a testify mock of ble.Client.
// Its Disconnected channel closes on a successful CancelConnection or on Drop.
type MockClient struct {
	ble.Client
	mock.Mock

	once         sync.Once
	disconnected chan struct{}
}

// NewMockClient creates a client whose link is up
func NewMockClient() *MockClient {
	return &MockClient{disconnected: make(chan struct{})}
}

// Drop simulates the peripheral going away
func (m *MockClient) Drop() {
	m.once.Do(func() { close(m.disconnected) })
}

func (m *MockClient) Disconnected() <-chan struct{} {
	return m.disconnected
}

func (m *MockClient) CancelConnection() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return err
	}
	m.Drop()
	return nil
}

func (m *MockClient) DiscoverServices(filter []ble.UUID) ([]*ble.Service, error) {
	args := m.Called(filter)
	svcs, _ := args.Get(0).([]*ble.Service)
	return svcs, args.Error(1)
}

func (m *MockClient) DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error) {
	args := m.Called(filter, s)
	chars, _ := args.Get(0).([]*ble.Characteristic)
	return chars, args.Error(1)
}

func (m *MockClient) DiscoverDescriptors(filter []ble.UUID, c *ble.Characteristic) ([]*ble.Descriptor, error) {
	args := m.Called(filter, c)
	descs, _ := args.Get(0).([]*ble.Descriptor)
	return descs, args.Error(1)
}

func (m *MockClient) WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error {
	args := m.Called(c, value, noRsp)
	return args.Error(0)
}

func (m *MockClient) Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error {
	args := m.Called(c, ind, h)
	return args.Error(0)
}

// FakeAdvertisement is a fixed ble.Advertisement
type FakeAdvertisement struct {
	ble.Advertisement

	Name      string
	Address   string
	Strength  int
	ManufData []byte
}

func (a *FakeAdvertisement) LocalName() string        { return a.Name }
func (a *FakeAdvertisement) ManufacturerData() []byte { return a.ManufData }
func (a *FakeAdvertisement) RSSI() int                { return a.Strength }
func (a *FakeAdvertisement) Addr() ble.Addr           { return ble.NewAddr(a.Address) }
