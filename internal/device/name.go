package device

import (
	"encoding/binary"
	"strings"
	"unicode"

	"github.com/srg/blecentral/internal/bledb"
)

// maxNameLen bounds names recovered from manufacturer data
const maxNameLen = 32

// ResolveName returns the name a peripheral advertises about itself: the local
// name, or else a printable ASCII run embedded in the manufacturer data.
// An empty result means the advertisement carries no resolvable name.
func ResolveName(localName string, manufData []byte) string {
	if name := strings.TrimSpace(localName); name != "" {
		return name
	}
	return extractNameFromManufacturerData(manufData)
}

// VendorName returns the vendor of the company id that prefixes the
// manufacturer data, or "" when unknown. It labels a device but is never a name.
func VendorName(manufData []byte) string {
	if len(manufData) < 2 {
		return ""
	}
	return bledb.LookupVendor(binary.LittleEndian.Uint16(manufData[0:2]))
}

// extractNameFromManufacturerData looks for a readable ASCII string in manufacturer data.
// Many devices embed their name as text after the company id.
func extractNameFromManufacturerData(data []byte) string {
	if len(data) < 4 {
		return ""
	}

	for i := 0; i < len(data)-3; i++ {
		if !isReadableASCII(data[i]) {
			continue
		}
		var nameBytes []byte
		for j := i; j < len(data) && j < i+maxNameLen; j++ {
			if !isReadableASCII(data[j]) {
				break
			}
			nameBytes = append(nameBytes, data[j])
		}

		name := strings.TrimSpace(string(nameBytes))
		if isValidDeviceName(name) {
			return name
		}
		i += len(nameBytes)
	}
	return ""
}

// isReadableASCII checks if a byte represents a readable ASCII character
func isReadableASCII(b byte) bool {
	return b >= 32 && b <= 126 && unicode.IsPrint(rune(b))
}

// isValidDeviceName checks if a string looks like a valid device name
func isValidDeviceName(name string) bool {
	if len(name) < 3 || len(name) > maxNameLen {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
