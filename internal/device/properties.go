package device

import (
	"fmt"
	"strings"
)

// Properties are the capability flags of a characteristic
type Properties struct {
	Readable                bool
	WritableWithResponse    bool
	WritableWithoutResponse bool
	Notifiable              bool
	Indicatable             bool
}

// property names as accepted by ParseProperties and produced by String
const (
	propRead    = "read"
	propWrite   = "write"
	propWriteNR = "write-without-response"
	propNotify  = "notify"
	propIndicat = "indicate"
)

// CanWrite reports whether the characteristic accepts writes in the given mode
func (p Properties) CanWrite(mode WriteMode) bool {
	if mode == WithoutResponse {
		return p.WritableWithoutResponse
	}
	return p.WritableWithResponse
}

// CanSubscribe reports whether the characteristic delivers value updates
func (p Properties) CanSubscribe() bool {
	return p.Notifiable || p.Indicatable
}

// String renders the flags as a comma separated list, e.g. "read,notify"
func (p Properties) String() string {
	var parts []string
	if p.Readable {
		parts = append(parts, propRead)
	}
	if p.WritableWithResponse {
		parts = append(parts, propWrite)
	}
	if p.WritableWithoutResponse {
		parts = append(parts, propWriteNR)
	}
	if p.Notifiable {
		parts = append(parts, propNotify)
	}
	if p.Indicatable {
		parts = append(parts, propIndicat)
	}
	return strings.Join(parts, ",")
}

// ParseProperties is the inverse of Properties.String.
// "write-nr" is accepted as a short form of "write-without-response".
func ParseProperties(s string) (Properties, error) {
	var p Properties
	for _, raw := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "":
		case propRead:
			p.Readable = true
		case propWrite:
			p.WritableWithResponse = true
		case propWriteNR, "write-nr":
			p.WritableWithoutResponse = true
		case propNotify:
			p.Notifiable = true
		case propIndicat:
			p.Indicatable = true
		default:
			return Properties{}, fmt.Errorf("unknown characteristic property %q", raw)
		}
	}
	return p, nil
}
