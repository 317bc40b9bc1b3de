package ble

import (
	"github.com/pkg/errors"
	"tinygo.org/x/bluetooth"
)

type advertiser interface {
	Stop() error
}

// CoreBluetooth support in tinygo bluetooth is central only.
func startAdvertising(*bluetooth.Adapter, string) (advertiser, error) {
	return nil, errors.New("advertising is not supported on darwin")
}
