package goble

import (
	"time"

	"github.com/go-ble/ble"

	"github.com/srg/blecentral/internal/device"
)

// NewAdvertisementSeen converts a go-ble advertisement into an adapter event.
// The identity is the platform address; the name goes through device.ResolveName.
func NewAdvertisementSeen(adv ble.Advertisement, ts time.Time) device.AdvertisementSeen {
	manufData := adv.ManufacturerData()
	return device.AdvertisementSeen{
		Identity:  adv.Addr().String(),
		Name:      device.ResolveName(adv.LocalName(), manufData),
		Vendor:    device.VendorName(manufData),
		RSSI:      adv.RSSI(),
		Timestamp: ts,
	}
}
