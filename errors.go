package gotechnic

import "github.com/pkg/errors"

var (
	// ErrDiscoveryTimeout is returned when no hub reached the ready state within the scan timeout.
	ErrDiscoveryTimeout = errors.New("no hub became ready before the scan timeout")

	// ErrDisconnected is returned when the hub went away while the session was live.
	ErrDisconnected = errors.New("hub disconnected")

	// ErrNotReady is returned for writes attempted outside the Ready and Running states.
	ErrNotReady = errors.New("hub characteristic is not ready")

	// ErrUnknownTransport is returned by NewTransport for unregistered names.
	ErrUnknownTransport = errors.New("unknown transport")
)
