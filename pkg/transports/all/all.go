// Package all registers every transport. Import it for its side effects.
package all

import (
	// Register the Bluetooth transport.
	_ "github.com/mlsorensen/gotechnic/pkg/transports/ble"
	// Register the simulated hub.
	_ "github.com/mlsorensen/gotechnic/pkg/transports/mock"
)
