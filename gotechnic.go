// Package gotechnic drives a LEGO Powered Up / Control+ motor hub over Bluetooth Low Energy.
//
// The root package holds the contracts shared by the rest of the module: the transport
// substrate and its events, the controller-side sensor, display and operator interfaces,
// and the run configuration. The state machine lives in pkg/hub, the wire codec in pkg/lwp
// and the control loop in pkg/control.
package gotechnic

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Transport is the wireless substrate the hub state machine talks to. Requests return as
// soon as they are issued; their outcome arrives later on Events, the way a radio stack
// reports through an interrupt callback.
type Transport interface {
	// StartAdvertising makes the controller visible. Failures are reported but not fatal.
	StartAdvertising() error

	// Scan starts looking for peripherals for at most timeout. Each advertisement is
	// delivered as a ScanResult event.
	Scan(timeout time.Duration) error

	// Connect asks for a connection to addr. Success is reported with PeripheralConnected.
	Connect(addr Address) error

	// DiscoverServices lists the services of a connected peripheral, one ServiceFound
	// event per service.
	DiscoverServices(conn ConnHandle) error

	// DiscoverCharacteristics lists characteristics within the given handle range, one
	// CharacteristicFound event per characteristic.
	DiscoverCharacteristics(conn ConnHandle, start, end uint16) error

	// Write sends data to the characteristic behind value. It may fail transiently.
	Write(conn ConnHandle, value ValueHandle, data []byte) error

	// Disconnect tears the link down. Completion is reported with PeripheralDisconnected.
	Disconnect(conn ConnHandle) error

	// Events is the asynchronous event stream. It is closed by Close.
	Events() <-chan Event

	// Close releases the substrate.
	Close() error
}

// --- Transport Registry ---

// Factory is a function that creates a new instance of a Transport.
type Factory func(logger *zap.SugaredLogger) (Transport, error)

var (
	registry = make(map[string]Factory)
	regLock  = sync.RWMutex{}
)

// Register makes a transport implementation available by name.
// This function should be called from the init() function of the implementation's package.
func Register(name string, factory Factory) {
	regLock.Lock()
	defer regLock.Unlock()

	if _, found := registry[name]; found {
		zap.S().Warnf("transport implementation %q is being overwritten", name)
	}
	registry[name] = factory
}

// NewTransport creates the transport registered under name.
func NewTransport(name string, logger *zap.SugaredLogger) (Transport, error) {
	regLock.RLock()
	factory, ok := registry[name]
	regLock.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownTransport, "%q (registered: %v)", name, Transports())
	}
	return factory(logger)
}

// Transports returns the registered transport names, sorted.
func Transports() []string {
	regLock.RLock()
	defer regLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
