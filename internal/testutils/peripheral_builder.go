package testutils

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// CharacteristicConfig describes one mocked characteristic
type CharacteristicConfig struct {
	UUID       string
	Properties string // e.g. "read,write,notify"
}

// ServiceConfig describes one mocked service
type ServiceConfig struct {
	UUID            string
	Characteristics []CharacteristicConfig
}

// PeripheralBuilder builds a mocked ble.Device that scans a fixed set of
// advertisements and dials into a single mocked peripheral.
type PeripheralBuilder struct {
	services []ServiceConfig
	ads      []ble.Advertisement
}

// MockPeripheral is what Build returns: the radio, the client it dials and
// the go-ble objects backing every configured service and characteristic.
type MockPeripheral struct {
	Device          *MockDevice
	Client          *MockClient
	Services        map[string]*ble.Service
	Characteristics map[string]*ble.Characteristic
}

func NewPeripheralBuilder() *PeripheralBuilder {
	return &PeripheralBuilder{}
}

// WithService adds a service to the profile
func (b *PeripheralBuilder) WithService(uuid string) *PeripheralBuilder {
	b.services = append(b.services, ServiceConfig{UUID: uuid})
	return b
}

// WithCharacteristic adds a characteristic to the last added service
func (b *PeripheralBuilder) WithCharacteristic(uuid, properties string) *PeripheralBuilder {
	if len(b.services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}
	last := &b.services[len(b.services)-1]
	last.Characteristics = append(last.Characteristics, CharacteristicConfig{UUID: uuid, Properties: properties})
	return b
}

// WithAdvertisement queues an advertisement delivered by every Scan
func (b *PeripheralBuilder) WithAdvertisement(address, name string, rssi int) *PeripheralBuilder {
	b.ads = append(b.ads, &FakeAdvertisement{Name: name, Address: address, Strength: rssi})
	return b
}

// ParseBLEProperties converts "read,write,write-nr,notify,indicate" into ble.Property flags
func ParseBLEProperties(props string) ble.Property {
	var p ble.Property
	for _, f := range strings.Split(props, ",") {
		switch strings.TrimSpace(f) {
		case "read":
			p |= ble.CharRead
		case "write":
			p |= ble.CharWrite
		case "write-nr", "write-without-response":
			p |= ble.CharWriteNR
		case "notify":
			p |= ble.CharNotify
		case "indicate":
			p |= ble.CharIndicate
		case "":
		default:
			panic(fmt.Sprintf("ParseBLEProperties: unknown property %q", f))
		}
	}
	return p
}

// Build creates the mocks. Every expectation is optional so tests only
// assert on the calls they care about.
func (b *PeripheralBuilder) Build() *MockPeripheral {
	mp := &MockPeripheral{
		Device:          &MockDevice{},
		Client:          NewMockClient(),
		Services:        make(map[string]*ble.Service),
		Characteristics: make(map[string]*ble.Characteristic),
	}

	var services []*ble.Service
	for _, svcConfig := range b.services {
		svc := &ble.Service{UUID: ble.MustParse(svcConfig.UUID)}
		var chars []*ble.Characteristic
		for _, charConfig := range svcConfig.Characteristics {
			c := &ble.Characteristic{
				UUID:     ble.MustParse(charConfig.UUID),
				Property: ParseBLEProperties(charConfig.Properties),
			}
			chars = append(chars, c)
			mp.Characteristics[strings.ToLower(charConfig.UUID)] = c
		}
		svc.Characteristics = chars
		services = append(services, svc)
		mp.Services[strings.ToLower(svcConfig.UUID)] = svc

		mp.Client.On("DiscoverCharacteristics", mock.Anything, svc).Return(chars, nil).Maybe()
	}

	mp.Device.On("Scan", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		handler := args.Get(2).(ble.AdvHandler)
		for _, adv := range b.ads {
			handler(adv)
		}
		<-ctx.Done()
	}).Return(nil).Maybe()
	mp.Device.On("Dial", mock.Anything, mock.Anything).Return(mp.Client, nil).Maybe()
	mp.Device.On("Stop").Return(nil).Maybe()

	mp.Client.On("DiscoverServices", mock.Anything).Return(services, nil).Maybe()
	mp.Client.On("DiscoverDescriptors", mock.Anything, mock.Anything).Return([]*ble.Descriptor{}, nil).Maybe()
	mp.Client.On("CancelConnection").Return(nil).Maybe()

	return mp
}
