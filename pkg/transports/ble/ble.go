// Package ble implements gotechnic.Transport on the host Bluetooth adapter.
//
// The adapter API is synchronous, so every request that can block is run on its own
// goroutine and its outcome is reported on the event channel, the way a callback-driven
// radio stack would. tinygo bluetooth does not expose attribute handles, so connection and
// value handles are assigned here.
package ble

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/pkg/transports/internal/eventq"
)

func init() {
	gotechnic.Register("ble", func(logger *zap.SugaredLogger) (gotechnic.Transport, error) {
		return New(bluetooth.DefaultAdapter, logger)
	})
}

var _ gotechnic.Transport = (*Transport)(nil)

// AdvertisedName is the local name used while advertising.
const AdvertisedName = "gotechnic"

type connection struct {
	device   bluetooth.Device
	services []bluetooth.DeviceService
	values   map[gotechnic.ValueHandle]bluetooth.DeviceCharacteristic
}

// Transport talks to hubs through a bluetooth.Adapter.
type Transport struct {
	adapter *bluetooth.Adapter
	logger  *zap.SugaredLogger
	queue   *eventq.Queue

	scanning atomic.Bool
	closed   atomic.Bool

	mu       sync.Mutex
	seen     map[string]bluetooth.Address
	conns    map[gotechnic.ConnHandle]*connection
	nextConn gotechnic.ConnHandle
	advert   advertiser
}

// New enables adapter and routes its connection notifications to the transport.
func New(adapter *bluetooth.Adapter, logger *zap.SugaredLogger) (*Transport, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	logger.Debug("Enabling Bluetooth adapter...")
	if err := adapter.Enable(); err != nil {
		return nil, errors.Wrap(err, "could not enable bluetooth adapter")
	}

	t := &Transport{
		adapter:  adapter,
		logger:   logger,
		queue:    eventq.New(eventq.DefaultSize),
		seen:     make(map[string]bluetooth.Address),
		conns:    make(map[gotechnic.ConnHandle]*connection),
		nextConn: 1,
	}
	adapter.SetConnectHandler(t.connectionHandler)
	return t, nil
}

// Events implements gotechnic.Transport.
func (t *Transport) Events() <-chan gotechnic.Event {
	return t.queue.C()
}

func (t *Transport) connectionHandler(device bluetooth.Device, connected bool) {
	if connected {
		t.logger.Debugw("device connected", "address", device.Address.String())
		return
	}

	t.mu.Lock()
	var lost []gotechnic.ConnHandle
	for conn, c := range t.conns {
		if c.device.Address == device.Address {
			lost = append(lost, conn)
			delete(t.conns, conn)
		}
	}
	t.mu.Unlock()

	for _, conn := range lost {
		t.logger.Infow("device disconnected", "address", device.Address.String(), "conn", conn)
		t.queue.Emit(gotechnic.PeripheralDisconnected{Conn: conn})
	}
}

// StartAdvertising implements gotechnic.Transport.
func (t *Transport) StartAdvertising() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.advert != nil {
		return nil
	}
	adv, err := startAdvertising(t.adapter, AdvertisedName)
	if err != nil {
		return err
	}
	t.advert = adv
	return nil
}

// Scan implements gotechnic.Transport. Results are reported until timeout elapses or a
// connection is requested.
func (t *Transport) Scan(timeout time.Duration) error {
	if !t.scanning.CompareAndSwap(false, true) {
		return errors.New("scan already running")
	}

	go func() {
		defer t.scanning.Store(false)
		err := t.adapter.Scan(t.handleScanResult)
		if err != nil && !t.closed.Load() {
			t.logger.Warnw("scan ended with error", "error", err)
		}
	}()
	time.AfterFunc(timeout, t.stopScan)
	return nil
}

func (t *Transport) handleScanResult(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
	id := result.Address.String()

	t.mu.Lock()
	t.seen[id] = result.Address
	t.mu.Unlock()

	t.queue.Emit(gotechnic.ScanResult{
		Address:         toAddress(id),
		Name:            result.LocalName(),
		RSSI:            int(result.RSSI),
		ManufacturerIDs: companyIDs(result.AdvertisementPayload.ManufacturerData()),
	})
}

func (t *Transport) stopScan() {
	if !t.scanning.Load() {
		return
	}
	if err := t.adapter.StopScan(); err != nil {
		t.logger.Debugw("could not stop scan", "error", err)
	}
}

// Connect implements gotechnic.Transport. Scanning stops first.
func (t *Transport) Connect(addr gotechnic.Address) error {
	t.mu.Lock()
	address, ok := t.seen[addr.ID]
	t.mu.Unlock()
	if !ok {
		return errors.Errorf("address %s was not seen in a scan", addr)
	}

	t.stopScan()
	go func() {
		device, err := t.adapter.Connect(address, bluetooth.ConnectionParams{
			MinInterval: bluetooth.NewDuration(10 * time.Millisecond),
			MaxInterval: bluetooth.NewDuration(30 * time.Millisecond),
		})
		if err != nil {
			t.logger.Warnw("could not connect", "address", addr.String(), "error", err)
			return
		}

		t.mu.Lock()
		conn := t.nextConn
		t.nextConn++
		t.conns[conn] = &connection{device: device, values: make(map[gotechnic.ValueHandle]bluetooth.DeviceCharacteristic)}
		t.mu.Unlock()

		t.queue.Emit(gotechnic.PeripheralConnected{Conn: conn})
	}()
	return nil
}

func (t *Transport) connection(conn gotechnic.ConnHandle) (*connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.conns[conn]
	if !ok {
		return nil, errors.Errorf("connection %d is not open", conn)
	}
	return c, nil
}

// DiscoverServices implements gotechnic.Transport.
func (t *Transport) DiscoverServices(conn gotechnic.ConnHandle) error {
	c, err := t.connection(conn)
	if err != nil {
		return err
	}

	go func() {
		services, err := c.device.DiscoverServices(nil)
		if err != nil {
			t.logger.Warnw("could not discover services", "conn", conn, "error", err)
			return
		}

		t.mu.Lock()
		c.services = services
		t.mu.Unlock()

		for _, svc := range services {
			t.queue.Emit(gotechnic.ServiceFound{Conn: conn, UUID: svc.UUID()})
		}
	}()
	return nil
}

// DiscoverCharacteristics implements gotechnic.Transport. Value handles are numbered from
// 1 in discovery order across the services of the connection.
func (t *Transport) DiscoverCharacteristics(conn gotechnic.ConnHandle, start, end uint16) error {
	c, err := t.connection(conn)
	if err != nil {
		return err
	}

	t.mu.Lock()
	services := append([]bluetooth.DeviceService(nil), c.services...)
	t.mu.Unlock()
	if len(services) == 0 {
		return errors.Errorf("no services discovered on connection %d", conn)
	}

	go func() {
		var found []gotechnic.CharacteristicFound
		handle := uint16(0)
		for _, svc := range services {
			chars, err := svc.DiscoverCharacteristics(nil)
			if err != nil {
				t.logger.Warnw("could not discover characteristics", "conn", conn, "service", svc.UUID().String(), "error", err)
				continue
			}
			for _, char := range chars {
				handle++
				if !inRange(handle, start, end) {
					continue
				}
				value := gotechnic.ValueHandle(handle)
				t.mu.Lock()
				c.values[value] = char
				t.mu.Unlock()
				found = append(found, gotechnic.CharacteristicFound{Conn: conn, Value: value, UUID: char.UUID()})
			}
		}
		for _, ev := range found {
			t.queue.Emit(ev)
		}
	}()
	return nil
}

// Write implements gotechnic.Transport.
func (t *Transport) Write(conn gotechnic.ConnHandle, value gotechnic.ValueHandle, data []byte) error {
	c, err := t.connection(conn)
	if err != nil {
		return err
	}

	t.mu.Lock()
	char, ok := c.values[value]
	t.mu.Unlock()
	if !ok {
		return errors.Errorf("no characteristic %d on connection %d", value, conn)
	}

	_, err = char.WriteWithoutResponse(data)
	return err
}

// Disconnect implements gotechnic.Transport. Completion is reported by the adapter's
// connect handler.
func (t *Transport) Disconnect(conn gotechnic.ConnHandle) error {
	c, err := t.connection(conn)
	if err != nil {
		return err
	}
	return c.device.Disconnect()
}

// Close stops scanning and advertising and ends the event stream. Open connections are
// left to the caller.
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.stopScan()

	t.mu.Lock()
	adv := t.advert
	t.advert = nil
	t.mu.Unlock()

	var err error
	if adv != nil {
		err = adv.Stop()
	}
	t.queue.Close()
	return err
}

// toAddress keeps the adapter's identifier and, where the platform exposes one, the
// hardware address.
func toAddress(id string) gotechnic.Address {
	addr := gotechnic.Address{ID: id}
	if mac, err := net.ParseMAC(id); err == nil && len(mac) == 6 {
		addr.MAC = mac
	}
	return addr
}

func companyIDs(elements []bluetooth.ManufacturerDataElement) []uint16 {
	if len(elements) == 0 {
		return nil
	}
	ids := make([]uint16, 0, len(elements))
	for _, e := range elements {
		ids = append(ids, e.CompanyID)
	}
	return ids
}

func inRange(handle, start, end uint16) bool {
	return handle >= start && handle <= end
}
