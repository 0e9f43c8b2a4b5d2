// Package central is the device session core of a BLE central.
//
// A Session owns the radio's central-role state: the registry of discovered
// peripherals with their signal history, the per-device connection state
// machine and the service/characteristic discovery protocol. Radio callbacks
// and caller commands are funnelled into a single loop goroutine, which is
// the only writer of that state, and the resulting changes are published as
// Event values to subscribers.
package central
