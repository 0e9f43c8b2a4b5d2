package device

// ConnectionState is the per-device central-role connection state
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Disconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "invalid"
	}
}

// PowerState is the state of the local radio
type PowerState int

const (
	PowerUnknown PowerState = iota
	PoweredOff
	PoweredOn
)

func (p PowerState) String() string {
	switch p {
	case PoweredOn:
		return "powered_on"
	case PoweredOff:
		return "powered_off"
	default:
		return "unknown"
	}
}
