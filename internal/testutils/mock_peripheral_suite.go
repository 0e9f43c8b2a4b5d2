package testutils

import (
	blelib "github.com/go-ble/ble"

	goble "github.com/srg/blecentral/internal/device/go-ble"
)

// Default mocked peripheral: a heart rate strap
const (
	DefaultPeripheralAddress = "aa:bb:cc:dd:ee:ff"
	DefaultPeripheralName    = "HeartStrap"
	DefaultPeripheralRSSI    = -60
)

// MockPeripheralSuite swaps the go-ble device factory for a mocked radio
// before each test and restores it afterwards.
//
// Basic usage (default heart rate strap):
//
//	type AdapterSuite struct {
//	    testutils.MockPeripheralSuite
//	}
//
// Custom profile, configured before the parent SetupTest runs:
//
//	func (s *BatterySuite) SetupTest() {
//	    s.PeripheralBuilder = testutils.NewPeripheralBuilder().
//	        WithService("180f").
//	        WithCharacteristic("2a19", "read,notify").
//	        WithAdvertisement("11:22:33:44:55:66", "Tag", -70)
//	    s.MockPeripheralSuite.SetupTest()
//	}
type MockPeripheralSuite struct {
	BaseSuite

	// PeripheralBuilder configures the next test's peripheral; nil selects the default
	PeripheralBuilder *PeripheralBuilder
	// Peripheral holds the mocks of the running test
	Peripheral *MockPeripheral

	originalDeviceFactory func() (blelib.Device, error)
}

// SetupTest builds the peripheral and installs it as the go-ble device
func (s *MockPeripheralSuite) SetupTest() {
	s.BaseSuite.SetupTest()

	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = DefaultPeripheralBuilder()
	}
	s.Peripheral = s.PeripheralBuilder.Build()

	s.originalDeviceFactory = goble.DeviceFactory
	s.UseDevice(s.Peripheral.Device)
}

// UseDevice makes the factory return dev for the rest of the test
func (s *MockPeripheralSuite) UseDevice(dev blelib.Device) {
	goble.DeviceFactory = func() (blelib.Device, error) { return dev, nil }
}

// TearDownTest restores the factory and verifies the client expectations
func (s *MockPeripheralSuite) TearDownTest() {
	if s.originalDeviceFactory != nil {
		goble.DeviceFactory = s.originalDeviceFactory
	}
	if s.Peripheral != nil {
		s.Peripheral.Client.AssertExpectations(s.T())
	}
	s.PeripheralBuilder = nil
	s.Peripheral = nil
	s.BaseSuite.TearDownTest()
}

// DefaultPeripheralBuilder describes a heart rate strap with a notifying
// measurement and a writable control point.
func DefaultPeripheralBuilder() *PeripheralBuilder {
	return NewPeripheralBuilder().
		WithService("180d").
		WithCharacteristic("2a37", "notify").
		WithCharacteristic("2a39", "write").
		WithAdvertisement(DefaultPeripheralAddress, DefaultPeripheralName, DefaultPeripheralRSSI)
}
