package ble

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"tinygo.org/x/bluetooth"

	"github.com/mlsorensen/gotechnic"
)

// FoundHub is a hub seen by ScanHubs.
type FoundHub struct {
	Name string
	ID   string
	RSSI int
}

// Matcher decides whether an advertisement belongs to a hub.
type Matcher func(gotechnic.ScanResult) bool

// ScanHubs scans for duration and returns the matching devices, strongest signal first.
// It does not connect to anything.
func ScanHubs(ctx context.Context, adapter *bluetooth.Adapter, logger *zap.SugaredLogger, duration time.Duration, match Matcher) ([]FoundHub, error) {
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	logger.Info("Enabling Bluetooth adapter...")
	if err := adapter.Enable(); err != nil {
		return nil, errors.Wrap(err, "could not enable bluetooth adapter")
	}

	var mu sync.Mutex
	found := make(map[string]FoundHub)

	handler := func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		id := result.Address.String()
		ev := gotechnic.ScanResult{
			Address:         toAddress(id),
			Name:            result.LocalName(),
			RSSI:            int(result.RSSI),
			ManufacturerIDs: companyIDs(result.AdvertisementPayload.ManufacturerData()),
		}
		if !match(ev) {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if _, ok := found[id]; !ok {
			logger.Infof("    --> Found a hub! Device: %s %q", id, ev.Name)
		}
		found[id] = FoundHub{Name: ev.Name, ID: id, RSSI: ev.RSSI}
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Infof("Scanning for hubs for %s...", duration)
		return adapter.Scan(handler)
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Debug("Stopping scan")
		return adapter.StopScan()
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	results := make([]FoundHub, 0, len(found))
	for _, hub := range found {
		results = append(results, hub)
	}
	sortHubs(results)

	logger.Infof("Scan finished. Found %d hub(s).", len(results))
	return results, nil
}

func sortHubs(hubs []FoundHub) {
	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].RSSI != hubs[j].RSSI {
			return hubs[i].RSSI > hubs[j].RSSI
		}
		return hubs[i].ID < hubs[j].ID
	})
}
