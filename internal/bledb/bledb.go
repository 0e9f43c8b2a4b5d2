// Package bledb resolves Bluetooth SIG assigned numbers (services,
// characteristics and company identifiers) to human-readable names and
// provides the canonical UUID form used for every lookup in this module.
package bledb

import (
	"strings"

	"github.com/google/uuid"
)

// sigBase is the Bluetooth SIG base UUID 0000xxxx-0000-1000-8000-00805f9b34fb.
var sigBase = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// NormalizeUUID converts a UUID string to the internal format (lowercase, no dashes).
// A 0x prefix is stripped. 128-bit UUIDs built on the Bluetooth SIG base are
// reduced to their 16-bit short form, e.g. "0000180d-0000-1000-8000-00805f9b34fb" -> "180d".
func NormalizeUUID(s string) string {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.Trim(n, "{}")
	n = strings.TrimPrefix(n, "0x")
	n = strings.ReplaceAll(n, "-", "")

	if len(n) != 32 {
		return n
	}

	u, err := uuid.Parse(n)
	if err != nil {
		return n
	}
	if u[0] != 0 || u[1] != 0 {
		return n
	}
	for i := 4; i < len(u); i++ {
		if u[i] != sigBase[i] {
			return n
		}
	}
	return n[4:8]
}

// NormalizeUUIDs normalizes a slice of UUID strings.
func NormalizeUUIDs(uuids []string) []string {
	normalized := make([]string, len(uuids))
	for i, u := range uuids {
		normalized[i] = NormalizeUUID(u)
	}
	return normalized
}

// LookupService returns the assigned name of a GATT service, or "" if unknown.
func LookupService(id string) string {
	return services[NormalizeUUID(id)]
}

// LookupCharacteristic returns the assigned name of a GATT characteristic, or "" if unknown.
func LookupCharacteristic(id string) string {
	return characteristics[NormalizeUUID(id)]
}

// LookupVendor returns a short vendor name for a Bluetooth SIG company ID, or "" if unknown.
func LookupVendor(companyID uint16) string {
	return vendors[companyID]
}
