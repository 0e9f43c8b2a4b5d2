package goble

import (
	"github.com/go-ble/ble"

	"github.com/srg/blecentral/internal/device"
)

// NewProperties converts ble.Property bit flags into capability flags.
// Broadcast, signed writes and extended properties have no counterpart and are dropped.
func NewProperties(p ble.Property) device.Properties {
	return device.Properties{
		Readable:                p&ble.CharRead != 0,
		WritableWithResponse:    p&ble.CharWrite != 0,
		WritableWithoutResponse: p&ble.CharWriteNR != 0,
		Notifiable:              p&ble.CharNotify != 0,
		Indicatable:             p&ble.CharIndicate != 0,
	}
}
