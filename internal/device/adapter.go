package device

import "time"

// WriteMode selects between acknowledged and unacknowledged writes
type WriteMode int

const (
	WithResponse WriteMode = iota
	WithoutResponse
)

func (m WriteMode) String() string {
	if m == WithoutResponse {
		return "without-response"
	}
	return "with-response"
}

// CharacteristicDecl is a characteristic as reported by the radio during discovery
type CharacteristicDecl struct {
	ID         string
	Properties Properties
}

// AdapterEvent is a low-level event emitted by a RadioAdapter.
// The set of implementations is closed; see the types below.
type AdapterEvent interface {
	adapterEvent()
}

// PowerStateChanged reports a change of the local radio state
type PowerStateChanged struct {
	State PowerState
}

// AdvertisementSeen reports a single advertisement sighting.
// Name is empty when the advertisement carried no resolvable name. Vendor is
// the manufacturer data's company, when known; it never stands in for Name.
type AdvertisementSeen struct {
	Identity  string
	Name      string
	Vendor    string
	RSSI      int
	Timestamp time.Time
}

// LinkUp confirms a link to a peripheral
type LinkUp struct {
	Identity string
}

// LinkDown reports a lost, refused or timed out link, or a failed disconnect.
// Err is nil for a requested disconnect that completed.
type LinkDown struct {
	Identity string
	Err      error
}

// ServicesDiscovered carries the service ids of a peripheral in wire order
type ServicesDiscovered struct {
	Identity   string
	ServiceIDs []string
	Err        error
}

// CharacteristicsDiscovered carries the characteristics of a single service
type CharacteristicsDiscovered struct {
	Identity        string
	ServiceID       string
	Characteristics []CharacteristicDecl
	Err             error
}

// ValueUpdated carries a notification, indication or write echo
type ValueUpdated struct {
	Identity         string
	CharacteristicID string
	Value            []byte
}

// Op values carried by CommandFailed
const (
	OpScan       = "scan"
	OpDisconnect = "disconnect"
	OpWrite      = "write"
	OpSubscribe  = "subscribe"
)

// CommandFailed reports an asynchronous failure of a command that has no
// dedicated completion event (scan, disconnect, write, subscribe).
type CommandFailed struct {
	Identity string
	Op       string
	Err      error
}

func (PowerStateChanged) adapterEvent()         {}
func (AdvertisementSeen) adapterEvent()         {}
func (LinkUp) adapterEvent()                    {}
func (LinkDown) adapterEvent()                  {}
func (ServicesDiscovered) adapterEvent()        {}
func (CharacteristicsDiscovered) adapterEvent() {}
func (ValueUpdated) adapterEvent()              {}
func (CommandFailed) adapterEvent()             {}

// EventSink receives adapter events. Emit must not block the radio for long;
// implementations queue the event and return.
type EventSink interface {
	Emit(ev AdapterEvent)
}

// EventSinkFunc adapts a plain function to EventSink
type EventSinkFunc func(ev AdapterEvent)

func (f EventSinkFunc) Emit(ev AdapterEvent) { f(ev) }

// RadioAdapter is the platform radio seen from the session core.
// Commands never block on the radio: outcomes arrive later as AdapterEvents.
// A synchronous error return means the command was not issued. Commands are
// called from the sink's consumer, so implementations must not Emit from
// within a command call; they emit from their own goroutines.
type RadioAdapter interface {
	// Start binds the sink and begins reporting power state
	Start(sink EventSink) error
	StartScan() error
	StopScan() error
	Connect(identity string) error
	Disconnect(identity string) error
	DiscoverServices(identity string) error
	DiscoverCharacteristics(identity, serviceID string) error
	Write(identity, characteristicID string, value []byte, mode WriteMode) error
	SubscribeNotifications(identity, characteristicID string) error
	// Close releases the radio. No events are emitted after Close returns.
	Close() error
}
