package main

import (
	"encoding/json"
	"testing"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/srg/blecentral/internal/device"
	"github.com/srg/blecentral/internal/testutils"
)

type CommandsSuite struct {
	CommandTestSuite
}

func (s *CommandsSuite) TestScan_Table() {
	out, err := s.ExecuteCommand("scan", "--duration", "300ms")
	s.Require().NoError(err)

	s.Contains(out, "NAME")
	s.Contains(out, TestDeviceName)
	s.Contains(out, TestDeviceAddress)
	s.Contains(out, "-60.0 dBm")
	s.Contains(out, "very good")
	s.Contains(out, "disconnected")
}

func (s *CommandsSuite) TestScan_JSON() {
	out, err := s.ExecuteCommand("scan", "--duration", "300ms", "--format", "json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[{
		"name": "HeartStrap",
		"address": "aa:bb:cc:dd:ee:ff",
		"state": "disconnected",
		"average_rssi": -60,
		"weakest_rssi": -60,
		"strongest_rssi": -60,
		"samples": 1,
		"quality": "very good",
		"first_seen": "<<PRESENCE>>",
		"last_seen": "<<PRESENCE>>"
	}]`)
}

func (s *CommandsSuite) TestScan_InvalidFormat() {
	_, err := s.ExecuteCommand("scan", "--format", "xml")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid format 'xml'")
}

func (s *CommandsSuite) TestInspect() {
	out, err := s.ExecuteCommand("inspect", "AA:BB:CC:DD:EE:FF", "--scan-timeout", "2s")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(out, `
Device HeartStrap (aa:bb:cc:dd:ee:ff)
  Signal: -60.0 dBm avg, -60..-60 dBm, very good
  Services: 1, Characteristics: 2

  Service 180d Heart Rate
    ├─ 2a37 Heart Rate Measurement [notify]
    └─ 2a39 Heart Rate Control Point [write]
`)
	s.Peripheral.Client.AssertCalled(s.T(), "CancelConnection")
}

func (s *CommandsSuite) TestInspect_JSON() {
	out, err := s.ExecuteCommand("inspect", TestDeviceAddress, "--json")
	s.Require().NoError(err)

	var got struct {
		Address  string        `json:"address"`
		Services []serviceJSON `json:"services"`
	}
	s.Require().NoError(json.Unmarshal([]byte(out), &got))
	s.Equal(TestDeviceAddress, got.Address)
	s.Require().Len(got.Services, 1)
	s.Equal("180d", got.Services[0].UUID)
	s.Require().Len(got.Services[0].Characteristics, 2)
	s.Equal("notify", got.Services[0].Characteristics[0].Properties)
}

func (s *CommandsSuite) TestInspect_DeviceNotFound() {
	_, err := s.ExecuteCommand("inspect", "11:22:33:44:55:66", "--scan-timeout", "300ms")
	s.Require().ErrorIs(err, ErrDeviceNotFound)
	s.Peripheral.Device.AssertNotCalled(s.T(), "Dial", mock.Anything, mock.Anything)
}

func (s *CommandsSuite) TestWrite() {
	control := s.Peripheral.Characteristics["2a39"]
	s.Peripheral.Client.On("WriteCharacteristic", control, []byte{0x01, 0xff}, false).Return(nil).Once()

	out, err := s.ExecuteCommand("write", TestDeviceAddress, "2A39", "01:ff", "--settle", "100ms")
	s.Require().NoError(err)
	s.Contains(out, "Wrote 2 bytes to 2a39 (with-response)")
}

func (s *CommandsSuite) TestWrite_Unsupported() {
	_, err := s.ExecuteCommand("write", TestDeviceAddress, "2a37", "01", "--without-response", "--settle", "100ms")
	s.Require().Error(err)
	s.Equal(device.KindUnsupported, device.KindOf(err))
	s.Peripheral.Client.AssertNotCalled(s.T(), "WriteCharacteristic", mock.Anything, mock.Anything, mock.Anything)
}

func (s *CommandsSuite) TestWrite_UnknownCharacteristic() {
	_, err := s.ExecuteCommand("write", TestDeviceAddress, "2a19", "01", "--settle", "100ms")
	s.Require().Error(err)
	s.Equal(device.KindUnknownCharacteristic, device.KindOf(err))
}

func (s *CommandsSuite) TestWrite_BadArguments() {
	_, err := s.ExecuteCommand("write", TestDeviceAddress, "2a39", "zz")
	s.ErrorContains(err, "invalid hex value")

	_, err = s.ExecuteCommand("write", TestDeviceAddress, "not-a-uuid", "01")
	s.ErrorContains(err, "invalid characteristic UUID")
}

func (s *CommandsSuite) TestSubscribe() {
	measure := s.Peripheral.Characteristics["2a37"]
	s.Peripheral.Client.On("Subscribe", measure, false, mock.Anything).Run(func(args mock.Arguments) {
		handler := args.Get(2).(ble.NotificationHandler)
		handler([]byte{0x00, 0x48})
		handler([]byte{0x00, 0x49})
	}).Return(nil).Once()

	out, err := s.ExecuteCommand("subscribe", TestDeviceAddress, "2a37", "--duration", "1s")
	s.Require().NoError(err)
	s.Contains(out, "2a37 0048")
	s.Contains(out, "2a37 0049")
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, new(CommandsSuite))
}
