// Package mock provides a simulated hub behind the gotechnic.Transport interface.
// It is intended for development and testing purposes when a physical hub is not available.
package mock

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/pkg/lwp"
	"github.com/mlsorensen/gotechnic/pkg/transports/internal/eventq"
)

// This init function registers the mock transport with the central registry.
// To use it, you must explicitly import this package.
func init() {
	gotechnic.Register("mock", func(logger *zap.SugaredLogger) (gotechnic.Transport, error) {
		return New(logger), nil
	})
}

// This line is the compile-time check. It will fail to compile if
// *Transport ever stops satisfying the gotechnic.Transport interface.
var _ gotechnic.Transport = (*Transport)(nil)

// ErrWriteRejected is returned by writes failed on purpose with FailWrites.
var ErrWriteRejected = errors.New("mock: write rejected")

// Service is a simulated GATT service.
type Service struct {
	UUID            bluetooth.UUID
	Characteristics []bluetooth.UUID
}

// Peripheral is a simulated advertising device.
type Peripheral struct {
	Address         gotechnic.Address
	Name            string
	RSSI            int
	ManufacturerIDs []uint16
	Services        []Service
}

// MotorState is what the simulated hub last applied to one port.
type MotorState struct {
	Power          int8
	Position       int32
	AccelerationMs uint16
	Commands       int
}

// Request is one call made on the transport, recorded for inspection.
type Request struct {
	Op      string
	Address gotechnic.Address
	Conn    gotechnic.ConnHandle
	Value   gotechnic.ValueHandle
	Start   uint16
	End     uint16
	Data    []byte
}

type attribute struct {
	conn    gotechnic.ConnHandle
	service bluetooth.UUID
	uuid    bluetooth.UUID
}

// Transport is a simulated substrate. Unless created with Manual it answers every request
// the way a Technic hub would; in manual mode it only records requests and tests feed
// events with Inject.
type Transport struct {
	logger *zap.SugaredLogger
	queue  *eventq.Queue

	mu               sync.Mutex
	peripherals      []Peripheral
	manual           bool
	ignoreDisconnect bool
	requests         []Request
	writes           [][]byte
	failWrites       int
	nextConn         gotechnic.ConnHandle
	connected        map[gotechnic.ConnHandle]*Peripheral
	values           map[gotechnic.ValueHandle]attribute
	motors           map[byte]*MotorState
}

// Option configures a Transport.
type Option func(*Transport)

// WithPeripherals replaces the simulated devices. The default is DefaultPeripherals.
func WithPeripherals(peripherals ...Peripheral) Option {
	return func(t *Transport) {
		t.peripherals = peripherals
	}
}

// Manual disables the simulated responses.
func Manual() Option {
	return func(t *Transport) {
		t.manual = true
	}
}

// IgnoreDisconnect makes Disconnect requests go unanswered.
func IgnoreDisconnect() Option {
	return func(t *Transport) {
		t.ignoreDisconnect = true
	}
}

// New creates a mock transport.
func New(logger *zap.SugaredLogger, opts ...Option) *Transport {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	t := &Transport{
		logger:      logger,
		queue:       eventq.New(eventq.DefaultSize),
		peripherals: DefaultPeripherals(),
		nextConn:    1,
		connected:   make(map[gotechnic.ConnHandle]*Peripheral),
		values:      make(map[gotechnic.ValueHandle]attribute),
		motors:      make(map[byte]*MotorState),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var (
	genericAccess = bluetooth.New16BitUUID(0x1800)
	deviceName    = bluetooth.New16BitUUID(0x2a00)
)

// DefaultPeripherals is a phone that happens to be nearby and a Technic hub.
func DefaultPeripherals() []Peripheral {
	return []Peripheral{
		{
			Address: gotechnic.Address{ID: "5C:F3:70:0A:11:22", MAC: []byte{0x5C, 0xF3, 0x70, 0x0A, 0x11, 0x22}},
			Name:    "Pixel",
			RSSI:    -71,
			Services: []Service{
				{UUID: genericAccess, Characteristics: []bluetooth.UUID{deviceName}},
			},
		},
		{
			Address:         gotechnic.Address{ID: "90:84:2B:4D:6E:01", MAC: []byte{0x90, 0x84, 0x2B, 0x4D, 0x6E, 0x01}},
			Name:            "Technic Hub",
			RSSI:            -48,
			ManufacturerIDs: []uint16{lwp.LegoCompanyID},
			Services: []Service{
				{UUID: genericAccess, Characteristics: []bluetooth.UUID{deviceName}},
				{UUID: lwp.HubServiceUUID, Characteristics: []bluetooth.UUID{lwp.HubCharacteristicUUID}},
			},
		},
	}
}

// Events implements gotechnic.Transport.
func (t *Transport) Events() <-chan gotechnic.Event {
	return t.queue.C()
}

// Inject delivers ev as if the radio had reported it.
func (t *Transport) Inject(ev gotechnic.Event) {
	t.queue.Emit(ev)
}

// StartAdvertising implements gotechnic.Transport.
func (t *Transport) StartAdvertising() error {
	t.record(Request{Op: "advertise"})
	t.logger.Debug("MOCK: Advertising")
	return nil
}

// Scan implements gotechnic.Transport. Every simulated peripheral is reported once.
func (t *Transport) Scan(timeout time.Duration) error {
	t.record(Request{Op: "scan"})
	if t.isManual() {
		return nil
	}

	t.mu.Lock()
	results := make([]gotechnic.Event, 0, len(t.peripherals))
	for _, p := range t.peripherals {
		results = append(results, gotechnic.ScanResult{
			Address:         p.Address,
			Name:            p.Name,
			RSSI:            p.RSSI,
			ManufacturerIDs: p.ManufacturerIDs,
		})
	}
	t.mu.Unlock()

	t.logger.Debugf("MOCK: Scanning for %s", timeout)
	t.emit(results...)
	return nil
}

// Connect implements gotechnic.Transport.
func (t *Transport) Connect(addr gotechnic.Address) error {
	t.record(Request{Op: "connect", Address: addr})
	if t.isManual() {
		return nil
	}

	t.mu.Lock()
	var found *Peripheral
	for i := range t.peripherals {
		if t.peripherals[i].Address.ID == addr.ID {
			found = &t.peripherals[i]
			break
		}
	}
	if found == nil {
		t.mu.Unlock()
		return errors.Errorf("mock: no peripheral at %s", addr)
	}
	conn := t.nextConn
	t.nextConn++
	t.connected[conn] = found
	t.mu.Unlock()

	t.logger.Debugf("MOCK: Connected to %s as %d", addr, conn)
	t.emit(gotechnic.PeripheralConnected{Conn: conn})
	return nil
}

// DiscoverServices implements gotechnic.Transport.
func (t *Transport) DiscoverServices(conn gotechnic.ConnHandle) error {
	t.record(Request{Op: "services", Conn: conn})
	if t.isManual() {
		return nil
	}

	t.mu.Lock()
	p, ok := t.connected[conn]
	if !ok {
		t.mu.Unlock()
		return errors.Errorf("mock: connection %d is not open", conn)
	}
	events := make([]gotechnic.Event, 0, len(p.Services))
	for _, svc := range p.Services {
		events = append(events, gotechnic.ServiceFound{Conn: conn, UUID: svc.UUID})
	}
	t.mu.Unlock()

	t.emit(events...)
	return nil
}

// DiscoverCharacteristics implements gotechnic.Transport. Value handles are numbered in
// attribute order starting at 0x0003, two handles per characteristic.
func (t *Transport) DiscoverCharacteristics(conn gotechnic.ConnHandle, start, end uint16) error {
	t.record(Request{Op: "characteristics", Conn: conn, Start: start, End: end})
	if t.isManual() {
		return nil
	}

	t.mu.Lock()
	p, ok := t.connected[conn]
	if !ok {
		t.mu.Unlock()
		return errors.Errorf("mock: connection %d is not open", conn)
	}
	var events []gotechnic.Event
	handle := uint16(1)
	for _, svc := range p.Services {
		for _, char := range svc.Characteristics {
			handle += 2
			if handle < start || handle > end {
				continue
			}
			value := gotechnic.ValueHandle(handle)
			t.values[value] = attribute{conn: conn, service: svc.UUID, uuid: char}
			events = append(events, gotechnic.CharacteristicFound{Conn: conn, Value: value, UUID: char})
		}
		handle++
	}
	t.mu.Unlock()

	t.emit(events...)
	return nil
}

// Write implements gotechnic.Transport. Frames written to the hub characteristic are
// decoded and applied to the simulated motors.
func (t *Transport) Write(conn gotechnic.ConnHandle, value gotechnic.ValueHandle, data []byte) error {
	frame := append([]byte(nil), data...)
	t.record(Request{Op: "write", Conn: conn, Value: value, Data: frame})

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failWrites > 0 {
		t.failWrites--
		return ErrWriteRejected
	}
	if !t.manual {
		attr, ok := t.values[value]
		if !ok || attr.conn != conn || t.connected[conn] == nil {
			return errors.Errorf("mock: no writable characteristic %d on connection %d", value, conn)
		}
		if attr.uuid == lwp.HubCharacteristicUUID {
			t.apply(frame)
		}
	}
	t.writes = append(t.writes, frame)
	return nil
}

func (t *Transport) apply(frame []byte) {
	cmd, err := lwp.Decode(frame)
	if err != nil {
		t.logger.Warnf("MOCK: Failed to decode frame: %v. Data: % X", err, frame)
		return
	}

	switch c := cmd.(type) {
	case lwp.PowerCommand:
		m := t.motor(c.Port)
		m.Power = c.Power
		m.Commands++
		t.logger.Debugf("MOCK: Port %d power %d", c.Port, c.Power)
	case lwp.PositionCommand:
		m := t.motor(c.Port)
		m.Position = c.Position
		m.Commands++
		t.logger.Debugf("MOCK: Port %d position %d", c.Port, c.Position)
	case lwp.AccelerationCommand:
		m := t.motor(c.Port)
		m.AccelerationMs = c.TimeMs
		m.Commands++
		t.logger.Debugf("MOCK: Port %d acceleration %dms", c.Port, c.TimeMs)
	case lwp.UnhandledCommand:
		t.logger.Debugf("MOCK: Unhandled message type 0x%X. Raw Frame: % X", c.MessageType, c.RawFrame)
	}
}

func (t *Transport) motor(port byte) *MotorState {
	m, ok := t.motors[port]
	if !ok {
		m = &MotorState{}
		t.motors[port] = m
	}
	return m
}

// Disconnect implements gotechnic.Transport.
func (t *Transport) Disconnect(conn gotechnic.ConnHandle) error {
	t.record(Request{Op: "disconnect", Conn: conn})

	t.mu.Lock()
	if t.manual || t.ignoreDisconnect {
		t.mu.Unlock()
		return nil
	}
	delete(t.connected, conn)
	t.mu.Unlock()

	t.logger.Debugf("MOCK: Disconnected %d", conn)
	t.emit(gotechnic.PeripheralDisconnected{Conn: conn})
	return nil
}

// Unplug drops every connection as if the hub had been switched off.
func (t *Transport) Unplug() {
	t.mu.Lock()
	events := make([]gotechnic.Event, 0, len(t.connected))
	for conn := range t.connected {
		events = append(events, gotechnic.PeripheralDisconnected{Conn: conn})
		delete(t.connected, conn)
	}
	t.mu.Unlock()

	t.emit(events...)
}

// Close implements gotechnic.Transport.
func (t *Transport) Close() error {
	t.queue.Close()
	return nil
}

// FailWrites makes the next n writes fail.
func (t *Transport) FailWrites(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failWrites = n
}

// Requests returns every call made so far, in order.
func (t *Transport) Requests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Request(nil), t.requests...)
}

// Writes returns the frames accepted so far, in order.
func (t *Transport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.writes...)
}

// Motor returns the simulated state of port.
func (t *Transport) Motor(port byte) MotorState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.motors[port]; ok {
		return *m
	}
	return MotorState{}
}

func (t *Transport) record(r Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, r)
}

func (t *Transport) isManual() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.manual
}

func (t *Transport) emit(events ...gotechnic.Event) {
	for _, ev := range events {
		t.queue.Emit(ev)
	}
}
