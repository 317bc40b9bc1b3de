package hub

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/pkg/lwp"
)

// Machine owns the hub session of one run.
type Machine struct {
	cfg       gotechnic.Config
	target    Target
	transport gotechnic.Transport
	clock     clock.Clock
	logger    *zap.SugaredLogger

	mu      sync.RWMutex
	session Session

	settled  chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// NewMachine creates an idle machine talking through transport.
func NewMachine(cfg gotechnic.Config, transport gotechnic.Transport, clk clock.Clock, logger *zap.SugaredLogger) *Machine {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Machine{
		cfg:       cfg,
		target:    TargetFromConfig(cfg),
		transport: transport,
		clock:     clk,
		logger:    logger,
		settled:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Session returns a snapshot of the session.
func (m *Machine) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// State returns the current state.
func (m *Machine) State() State {
	return m.Session().State
}

// Done is closed once the session is Terminated.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Run applies transport events until the session terminates. A closed event stream counts
// as a disconnect.
func (m *Machine) Run() error {
	events := m.transport.Events()
	for {
		select {
		case <-m.done:
			return nil
		case ev, ok := <-events:
			if !ok {
				m.logger.Warn("transport event stream closed")
				m.Handle(gotechnic.PeripheralDisconnected{Conn: m.Session().Conn})
				return nil
			}
			m.Handle(ev)
		case <-m.settled:
			m.apply("settle", Settle)
		}
	}
}

// Handle applies one transport event and executes the resulting requests.
func (m *Machine) Handle(ev gotechnic.Event) {
	m.mu.Lock()
	prev := m.session
	next, actions := Transition(prev, ev, m.target)
	m.session = next
	m.mu.Unlock()

	if next.State == prev.State {
		m.logger.Debugw("ignoring event", "state", prev.State, "event", ev)
		return
	}
	m.logger.Infow("hub state changed", "from", prev.State, "to", next.State, "event", ev)

	for _, action := range actions {
		m.execute(next, action)
	}

	switch next.State {
	case Arming:
		m.clock.AfterFunc(m.cfg.ArmSettle, func() {
			select {
			case m.settled <- struct{}{}:
			default:
			}
		})
	case Terminated:
		m.finish()
	}
}

func (m *Machine) execute(s Session, action Action) {
	var err error
	switch a := action.(type) {
	case ConnectAction:
		m.logger.Infof("Found hub %s, connecting...", a.Address)
		err = m.transport.Connect(a.Address)
	case DiscoverServicesAction:
		m.logger.Info("Discovering services...")
		err = m.transport.DiscoverServices(a.Conn)
	case DiscoverCharacteristicsAction:
		m.logger.Info("Discovering characteristics...")
		err = m.transport.DiscoverCharacteristics(a.Conn, a.Start, a.End)
	case WriteAction:
		m.logger.Info("Setting smooth servo acceleration")
		m.write(s.Conn, s.Value, a.Body)
	}
	if err != nil {
		// the connect timeout covers requests that never complete
		m.logger.Warnw("transport request failed", "action", action, "error", err)
	}
}

// Connect runs the discovery handshake: advertise, scan, and wait for the hub to become
// Ready while cycling the searching indicator on display. It gives up after
// cfg.SearchTicks() indicator turns and terminates the session.
func (m *Machine) Connect(ctx context.Context, display gotechnic.Display) error {
	if !m.apply("advertise", Advertise) {
		return errors.Errorf("cannot connect from state %s", m.State())
	}
	if err := m.transport.StartAdvertising(); err != nil {
		m.logger.Warnw("could not start advertising", "error", err)
	}
	if err := m.sleep(ctx, m.cfg.AdvertiseDelay); err != nil {
		m.Abort()
		return err
	}

	m.apply("scan", BeginScan)
	m.logger.Infof("Scanning for hubs for %s...", m.cfg.ScanTimeout)
	if err := m.transport.Scan(m.cfg.ScanTimeout); err != nil {
		m.Abort()
		return errors.Wrap(err, "could not start scan")
	}

	for tick := 0; tick < m.cfg.SearchTicks(); tick++ {
		for _, symbol := range gotechnic.SearchingSymbols {
			display.Show(symbol)
			if err := m.sleep(ctx, m.cfg.SearchFrame); err != nil {
				m.Abort()
				return err
			}
		}
		if m.State() >= Ready {
			m.logger.Info("Hub is ready")
			if err := m.sleep(ctx, m.cfg.ReadySettle); err != nil {
				m.Abort()
				return err
			}
			return nil
		}
	}

	m.logger.Warnf("No hub became ready within %s", m.cfg.ScanTimeout)
	m.Abort()
	return gotechnic.ErrDiscoveryTimeout
}

// Start hands the session to the control loop.
func (m *Machine) Start() error {
	if !m.apply("start", Start) {
		return errors.Wrapf(gotechnic.ErrNotReady, "cannot start from state %s", m.State())
	}
	return nil
}

// Send writes one command body to the hub. Outside Ready and Running nothing is written
// and ErrNotReady is returned. Transport failures are dropped after cfg.WriteRetries
// retries: commands carry absolute state, so the next tick supersedes a lost one.
func (m *Machine) Send(body []byte) error {
	s := m.Session()
	if !s.Writable() {
		return gotechnic.ErrNotReady
	}
	m.write(s.Conn, s.Value, body)
	return nil
}

func (m *Machine) write(conn gotechnic.ConnHandle, value gotechnic.ValueHandle, body []byte) {
	frame := lwp.Frame(body)
	var err error
	for attempt := 0; attempt <= m.cfg.WriteRetries; attempt++ {
		if err = m.transport.Write(conn, value, frame); err == nil {
			return
		}
	}
	m.logger.Debugw("dropped frame", "frame", frame, "error", err)
}

// Disconnect asks the hub to disconnect and polls until the session is Terminated or ctx
// expires. On expiry the session is terminated locally.
func (m *Machine) Disconnect(ctx context.Context) error {
	s := m.Session()
	if s.State == Terminated {
		return nil
	}
	if !m.apply("disconnect", BeginDisconnect) {
		// nothing to tear down before a connection exists
		m.Abort()
		return nil
	}

	m.logger.Info("Disconnecting from hub...")
	if err := m.transport.Disconnect(s.Conn); err != nil {
		m.Abort()
		return errors.Wrap(err, "could not disconnect")
	}

	ticker := m.clock.Ticker(m.cfg.DisconnectPoll)
	defer ticker.Stop()
	for {
		if m.State() == Terminated {
			m.logger.Info("Hub disconnected")
			return nil
		}
		select {
		case <-m.done:
		case <-ticker.C:
		case <-ctx.Done():
			m.Abort()
			return errors.Wrap(ctx.Err(), "hub did not confirm disconnect")
		}
	}
}

// Abort terminates the session without waiting for the transport.
func (m *Machine) Abort() {
	m.mu.Lock()
	prev := m.session.State
	m.session = Terminate(m.session)
	m.mu.Unlock()

	if prev != Terminated {
		m.logger.Infow("hub state changed", "from", prev, "to", Terminated)
	}
	m.finish()
}

func (m *Machine) finish() {
	m.doneOnce.Do(func() { close(m.done) })
}

// apply runs a non-event transition under the lock.
func (m *Machine) apply(name string, step func(Session) (Session, bool)) bool {
	m.mu.Lock()
	prev := m.session
	next, ok := step(prev)
	m.session = next
	m.mu.Unlock()

	if ok {
		m.logger.Infow("hub state changed", "from", prev.State, "to", next.State, "step", name)
	}
	return ok
}

// sleep waits for d on the machine's clock. It returns early with the context error, or
// with ErrDisconnected when the session terminates.
func (m *Machine) sleep(ctx context.Context, d time.Duration) error {
	timer := m.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return gotechnic.ErrDisconnected
	}
}
