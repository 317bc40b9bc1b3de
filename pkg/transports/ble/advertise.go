//go:build !darwin

package ble

import (
	"github.com/pkg/errors"
	"tinygo.org/x/bluetooth"
)

type advertiser interface {
	Stop() error
}

func startAdvertising(adapter *bluetooth.Adapter, name string) (advertiser, error) {
	adv := adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{LocalName: name}); err != nil {
		return nil, errors.Wrap(err, "could not configure advertisement")
	}
	if err := adv.Start(); err != nil {
		return nil, errors.Wrap(err, "could not start advertising")
	}
	return adv, nil
}
