package hub

import "github.com/mlsorensen/gotechnic"

// Session is the state of the one hub connection of a run.
type Session struct {
	State State
	// Conn is valid while State.Connected().
	Conn gotechnic.ConnHandle
	// Value is the command characteristic, set from Arming through Running.
	Value gotechnic.ValueHandle
	// Stop is set once the session has ended.
	Stop bool
}

// Writable reports whether a command may be written now.
func (s Session) Writable() bool {
	return s.State.Writable()
}

// moveTo advances to next if it lies ahead of the current state.
func (s Session) moveTo(next State) (Session, bool) {
	if next == Terminated {
		return Terminate(s), true
	}
	if next <= s.State {
		return s, false
	}
	s.State = next
	return s, true
}

// Advertise moves Idle to Advertising.
func Advertise(s Session) (Session, bool) {
	if s.State != Idle {
		return s, false
	}
	return s.moveTo(Advertising)
}

// BeginScan moves Advertising to ScanningAndAdvertising.
func BeginScan(s Session) (Session, bool) {
	if s.State != Advertising {
		return s, false
	}
	return s.moveTo(ScanningAndAdvertising)
}

// Settle moves Arming to Ready once the configuration write had time to apply.
func Settle(s Session) (Session, bool) {
	if s.State != Arming {
		return s, false
	}
	return s.moveTo(Ready)
}

// Start moves Ready to Running.
func Start(s Session) (Session, bool) {
	if s.State != Ready {
		return s, false
	}
	return s.moveTo(Running)
}

// BeginDisconnect moves any connected state to Disconnecting.
func BeginDisconnect(s Session) (Session, bool) {
	if !s.State.Connected() || s.State == Disconnecting {
		return s, false
	}
	s.Value = 0
	return s.moveTo(Disconnecting)
}

// Terminate ends the session from any state and clears its handles.
func Terminate(Session) Session {
	return Session{State: Terminated, Stop: true}
}
