// Package hub implements the connection lifecycle of a remote motor hub.
//
// Transport events are folded into a Session by the pure Transition function. A Machine
// owns the one Session of a run: it pumps transport events through Transition, executes
// the resulting transport requests and guards writes to the hub's command characteristic.
package hub

import "fmt"

// State is a step of the connection lifecycle. States only move forward, except for the
// jump to Terminated which is allowed from anywhere.
type State int32

const (
	Idle State = iota
	Advertising
	// ScanningAndAdvertising covers advertising and scanning running side by side.
	ScanningAndAdvertising
	Connecting
	ServiceDiscovery
	CharacteristicDiscovery
	Arming
	Ready
	Running
	Disconnecting
	Terminated
)

var stateNames = [...]string{
	Idle:                    "Idle",
	Advertising:             "Advertising",
	ScanningAndAdvertising:  "ScanningAndAdvertising",
	Connecting:              "Connecting",
	ServiceDiscovery:        "ServiceDiscovery",
	CharacteristicDiscovery: "CharacteristicDiscovery",
	Arming:                  "Arming",
	Ready:                   "Ready",
	Running:                 "Running",
	Disconnecting:           "Disconnecting",
	Terminated:              "Terminated",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("Unknown (%d)", int32(s))
}

// Connected reports whether a connection handle is held in this state.
func (s State) Connected() bool {
	return s >= ServiceDiscovery && s < Terminated
}

// Writable reports whether the command characteristic may be written in this state.
func (s State) Writable() bool {
	return s == Ready || s == Running
}
