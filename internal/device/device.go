package device

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError represents an error when a GATT resource is not found
type NotFoundError struct {
	Resource string   // "device", "service", "characteristic"
	UUIDs    []string // One or more ids (e.g., [serviceUUID] or [serviceUUID, charUUID])
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	return fmt.Sprintf("%s %q not found in %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
}

// ErrorKind classifies a failure reported by the session core
type ErrorKind string

const (
	KindRadioNotReady           ErrorKind = "radio_not_ready"
	KindAlreadyInProgress       ErrorKind = "already_in_progress"
	KindUnknownDevice           ErrorKind = "unknown_device"
	KindDiscoveryPartialFailure ErrorKind = "discovery_partial_failure"
	KindTransport               ErrorKind = "transport_error"
	KindNotConnected            ErrorKind = "not_connected"
	KindUnknownCharacteristic   ErrorKind = "unknown_characteristic"
	KindUnsupported             ErrorKind = "unsupported"
)

// OperationError is the payload of every OperationFailed event.
// Identity is empty for failures that are not bound to a device (e.g. scanning).
type OperationError struct {
	Kind     ErrorKind
	Identity string
	Msg      string
	Err      error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Identity != "" {
		fmt.Fprintf(&b, " [%s]", e.Identity)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying transport error, if any
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is allows errors.Is to compare OperationError values by Kind
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*OperationError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors, one per kind
var (
	ErrRadioNotReady           = &OperationError{Kind: KindRadioNotReady}
	ErrAlreadyInProgress       = &OperationError{Kind: KindAlreadyInProgress}
	ErrUnknownDevice           = &OperationError{Kind: KindUnknownDevice}
	ErrDiscoveryPartialFailure = &OperationError{Kind: KindDiscoveryPartialFailure}
	ErrTransport               = &OperationError{Kind: KindTransport}
	ErrNotConnected            = &OperationError{Kind: KindNotConnected}
	ErrUnknownCharacteristic   = &OperationError{Kind: KindUnknownCharacteristic}
	ErrUnsupported             = &OperationError{Kind: KindUnsupported}
)

// Adapter-level errors
var (
	ErrConnectionLost = errors.New("connection lost")
	ErrTimeout        = errors.New("timeout")
)

// NewOperationError builds an OperationError for the given device.
func NewOperationError(kind ErrorKind, identity, msg string, cause error) *OperationError {
	return &OperationError{Kind: kind, Identity: identity, Msg: msg, Err: cause}
}

// KindOf reports the ErrorKind carried by err. Errors that are not
// OperationErrors are transport failures by definition.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var oerr *OperationError
	if errors.As(err, &oerr) {
		return oerr.Kind
	}
	return KindTransport
}

// AsOperationError returns err as an OperationError bound to identity.
// Errors already carrying a kind keep it; anything else becomes a TransportError.
func AsOperationError(identity, msg string, err error) *OperationError {
	var oerr *OperationError
	if errors.As(err, &oerr) && oerr.Kind != KindTransport {
		return NewOperationError(oerr.Kind, identity, msg, err)
	}
	return NewOperationError(KindTransport, identity, msg, err)
}
