package central

import (
	"fmt"
	"slices"

	"github.com/srg/blecentral/internal/device"
)

// EventKind discriminates Event values; it is also the subscription topic
type EventKind int

const (
	EventPowerStateChanged EventKind = iota
	EventDeviceListChanged
	EventConnectionChanged
	EventCapabilitiesReady
	EventValueUpdated
	EventOperationFailed
)

// AllEventKinds lists every kind, in declaration order
var AllEventKinds = []EventKind{
	EventPowerStateChanged,
	EventDeviceListChanged,
	EventConnectionChanged,
	EventCapabilitiesReady,
	EventValueUpdated,
	EventOperationFailed,
}

func (k EventKind) String() string {
	switch k {
	case EventPowerStateChanged:
		return "PowerStateChanged"
	case EventDeviceListChanged:
		return "DeviceListChanged"
	case EventConnectionChanged:
		return "ConnectionChanged"
	case EventCapabilitiesReady:
		return "CapabilitiesReady"
	case EventValueUpdated:
		return "ValueUpdated"
	case EventOperationFailed:
		return "OperationFailed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a normalized notification published by a Session.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	// Seq increases by one for every published event of a session
	Seq uint64

	Identity         string                 // ConnectionChanged, CapabilitiesReady, ValueUpdated, OperationFailed (optional)
	Power            device.PowerState      // PowerStateChanged
	State            device.ConnectionState // ConnectionChanged
	CharacteristicID string                 // ValueUpdated
	Value            []byte                 // ValueUpdated
	Err              *device.OperationError // OperationFailed
}

func (e Event) String() string {
	switch e.Kind {
	case EventPowerStateChanged:
		return fmt.Sprintf("#%d %s(%s)", e.Seq, e.Kind, e.Power)
	case EventDeviceListChanged:
		return fmt.Sprintf("#%d %s", e.Seq, e.Kind)
	case EventConnectionChanged:
		return fmt.Sprintf("#%d %s(%s, %s)", e.Seq, e.Kind, e.Identity, e.State)
	case EventValueUpdated:
		return fmt.Sprintf("#%d %s(%s, %s, %x)", e.Seq, e.Kind, e.Identity, e.CharacteristicID, e.Value)
	case EventOperationFailed:
		return fmt.Sprintf("#%d %s(%v)", e.Seq, e.Kind, e.Err)
	default:
		return fmt.Sprintf("#%d %s(%s)", e.Seq, e.Kind, e.Identity)
	}
}

func powerChanged(p device.PowerState) Event {
	return Event{Kind: EventPowerStateChanged, Power: p}
}

func deviceListChanged() Event {
	return Event{Kind: EventDeviceListChanged}
}

func connectionChanged(identity string, state device.ConnectionState) Event {
	return Event{Kind: EventConnectionChanged, Identity: identity, State: state}
}

func capabilitiesReady(identity string) Event {
	return Event{Kind: EventCapabilitiesReady, Identity: identity}
}

func valueUpdated(identity, charID string, value []byte) Event {
	return Event{Kind: EventValueUpdated, Identity: identity, CharacteristicID: charID, Value: slices.Clone(value)}
}

func operationFailed(err *device.OperationError) Event {
	return Event{Kind: EventOperationFailed, Identity: err.Identity, Err: err}
}

func failed(kind device.ErrorKind, identity, msg string, cause error) Event {
	return operationFailed(device.NewOperationError(kind, identity, msg, cause))
}
