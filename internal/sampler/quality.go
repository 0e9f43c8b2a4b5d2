package sampler

// Plausible RSSI range in dBm. Readings outside it are still recorded.
const (
	MinPlausibleRSSI = -90
	MaxPlausibleRSSI = -30
)

// Quality is a coarse signal strength bucket
type Quality int

const (
	Unusable Quality = iota
	NotGood
	Okay
	VeryGood
	Amazing
)

func (q Quality) String() string {
	switch q {
	case Amazing:
		return "amazing"
	case VeryGood:
		return "very good"
	case Okay:
		return "okay"
	case NotGood:
		return "not good"
	default:
		return "unusable"
	}
}

// Classify buckets a dBm reading. Shared bucket edges go to the stronger bucket;
// anything outside the plausible range is Unusable.
func Classify(dbm int) Quality {
	switch {
	case dbm > MaxPlausibleRSSI || dbm < MinPlausibleRSSI:
		return Unusable
	case dbm >= -50:
		return Amazing
	case dbm >= -67:
		return VeryGood
	case dbm >= -75:
		return Okay
	case dbm >= -85:
		return NotGood
	default:
		return Unusable
	}
}

// InPlausibleRange reports whether dbm lies within the plausible range
func InPlausibleRange(dbm int) bool {
	return dbm >= MinPlausibleRSSI && dbm <= MaxPlausibleRSSI
}
