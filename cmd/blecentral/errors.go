package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/blecentral/internal/device"
)

// Command-level errors
var (
	// ErrConnectionLost indicates the link dropped while a command was using it
	ErrConnectionLost = errors.New("connection lost")

	// ErrDeviceNotFound indicates the device never showed up during the scan window
	ErrDeviceNotFound = errors.New("device not found")
)

// FormatUserError turns an error into a message for the terminal
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var opErr *device.OperationError
	if errors.As(err, &opErr) {
		switch opErr.Kind {
		case device.KindRadioNotReady:
			return "Bluetooth is not available. Make sure it is turned on and this program is allowed to use it."
		case device.KindUnknownDevice:
			return fmt.Sprintf("device %s has not been seen yet; run a scan first", opErr.Identity)
		case device.KindAlreadyInProgress:
			return fmt.Sprintf("another operation on %s is already in progress", opErr.Identity)
		case device.KindNotConnected:
			return fmt.Sprintf("device %s is not connected", opErr.Identity)
		case device.KindUnknownCharacteristic:
			return fmt.Sprintf("device %s has no such characteristic: %s", opErr.Identity, opErr.Msg)
		case device.KindUnsupported:
			return fmt.Sprintf("operation not supported by the characteristic: %s", opErr.Msg)
		case device.KindDiscoveryPartialFailure:
			return fmt.Sprintf("some characteristics of %s could not be discovered: %s", opErr.Identity, opErr.Msg)
		}
	}

	switch {
	case errors.Is(err, device.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "operation timed out: " + err.Error()
	case errors.Is(err, ErrConnectionLost), errors.Is(err, device.ErrConnectionLost):
		return "connection to the device was lost"
	}
	return err.Error()
}
