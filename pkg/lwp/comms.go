// Package lwp provides the LEGO Wireless Protocol 3.0 messages used to drive hub motors
package lwp

import "tinygo.org/x/bluetooth"

var (
	HubServiceUUID        = must(bluetooth.ParseUUID("00001623-1212-efde-1623-785feabcd123"))
	HubCharacteristicUUID = must(bluetooth.ParseUUID("00001624-1212-efde-1623-785feabcd123"))
)

// LegoAddressPrefix is the OUI of Powered Up and Control+ hubs.
var LegoAddressPrefix = []byte{0x90, 0x84, 0x2B}

// LegoCompanyID is the Bluetooth SIG company identifier carried in hub advertisements.
const LegoCompanyID uint16 = 0x0397

func must[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}

	return value
}
