package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationError(t *testing.T) {
	cause := errors.New("le-connection-abort-by-local")

	t.Run("errors.Is matches by kind", func(t *testing.T) {
		err := NewOperationError(KindTransport, "AA:BB", "connect failed", cause)
		assert.ErrorIs(t, err, ErrTransport)
		assert.NotErrorIs(t, err, ErrRadioNotReady)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("wrapped error keeps kind", func(t *testing.T) {
		err := fmt.Errorf("session: %w", NewOperationError(KindAlreadyInProgress, "AA:BB", "", nil))
		assert.ErrorIs(t, err, ErrAlreadyInProgress)
		assert.Equal(t, KindAlreadyInProgress, KindOf(err))
	})

	t.Run("message format", func(t *testing.T) {
		err := NewOperationError(KindTransport, "AA:BB", "connect failed", cause)
		assert.Equal(t, "transport_error [AA:BB]: connect failed: le-connection-abort-by-local", err.Error())
		assert.Equal(t, "radio_not_ready", ErrRadioNotReady.Error())
	})

	t.Run("plain errors are transport errors", func(t *testing.T) {
		assert.Equal(t, KindTransport, KindOf(cause))
		assert.Equal(t, ErrorKind(""), KindOf(nil))
	})
}

func TestAsOperationError(t *testing.T) {
	t.Run("keeps specific kind", func(t *testing.T) {
		err := AsOperationError("dev-1", "write", ErrNotConnected)
		assert.Equal(t, KindNotConnected, err.Kind)
		assert.Equal(t, "dev-1", err.Identity)
	})

	t.Run("plain error becomes transport", func(t *testing.T) {
		err := AsOperationError("dev-1", "write", ErrTimeout)
		assert.Equal(t, KindTransport, err.Kind)
		assert.ErrorIs(t, err, ErrTimeout)
	})
}

func TestNotFoundError(t *testing.T) {
	assert.Equal(t, "device not found", (&NotFoundError{Resource: "device"}).Error())
	assert.Equal(t, `service "180d" not found`, (&NotFoundError{Resource: "service", UUIDs: []string{"180d"}}).Error())
	assert.Equal(t, `characteristic "2a37" not found in "180d"`,
		(&NotFoundError{Resource: "characteristic", UUIDs: []string{"180d", "2a37"}}).Error())
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "disconnecting", Disconnecting.String())
	assert.Equal(t, "invalid", ConnectionState(42).String())
	assert.Equal(t, "powered_on", PoweredOn.String())
	assert.Equal(t, "unknown", PowerUnknown.String())
}
