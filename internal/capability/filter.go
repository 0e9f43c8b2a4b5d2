package capability

import "github.com/srg/blecentral/internal/bledb"

// Filter is an optional allow-list applied during discovery.
// An empty list allows everything.
type Filter struct {
	services        map[string]struct{}
	characteristics map[string]struct{}
}

// NewFilter builds a filter from raw UUID strings in any accepted notation
func NewFilter(services, characteristics []string) Filter {
	return Filter{
		services:        toSet(services),
		characteristics: toSet(characteristics),
	}
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range bledb.NormalizeUUIDs(ids) {
		set[id] = struct{}{}
	}
	return set
}

// AllowService reports whether a service id passes the filter
func (f Filter) AllowService(id string) bool {
	return allowed(f.services, id)
}

// AllowCharacteristic reports whether a characteristic id passes the filter
func (f Filter) AllowCharacteristic(id string) bool {
	return allowed(f.characteristics, id)
}

func allowed(set map[string]struct{}, id string) bool {
	if len(set) == 0 {
		return true
	}
	_, ok := set[bledb.NormalizeUUID(id)]
	return ok
}
