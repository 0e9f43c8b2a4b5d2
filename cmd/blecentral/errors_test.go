package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srg/blecentral/internal/device"
)

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "radio off",
			err:  device.NewOperationError(device.KindRadioNotReady, "", "scan", nil),
			want: "Bluetooth is not available",
		},
		{
			name: "unknown device",
			err:  device.NewOperationError(device.KindUnknownDevice, "aa:bb", "connect", nil),
			want: "device aa:bb has not been seen yet",
		},
		{
			name: "wrapped unsupported",
			err:  fmt.Errorf("write: %w", device.NewOperationError(device.KindUnsupported, "aa:bb", "2a37 is not writable", nil)),
			want: "not supported by the characteristic: 2a37 is not writable",
		},
		{
			name: "timeout",
			err:  fmt.Errorf("dial: %w", device.ErrTimeout),
			want: "operation timed out",
		},
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: "operation timed out",
		},
		{
			name: "link lost",
			err:  ErrConnectionLost,
			want: "connection to the device was lost",
		},
		{
			name: "anything else",
			err:  errors.New("boom"),
			want: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, FormatUserError(tt.err), tt.want)
		})
	}

	assert.Empty(t, FormatUserError(nil))
}

func TestParseHexValue(t *testing.T) {
	for _, in := range []string{"01ff", "01 ff", "01:FF", "0x01ff", " 01-ff "} {
		got, err := parseHexValue(in)
		assert.NoError(t, err, in)
		assert.Equal(t, []byte{0x01, 0xff}, got, in)
	}

	_, err := parseHexValue("")
	assert.Error(t, err)
	_, err = parseHexValue("0g")
	assert.Error(t, err)
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
}
