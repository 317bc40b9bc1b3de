package gotechnic

import (
	"bytes"
	"fmt"

	"tinygo.org/x/bluetooth"
)

// ConnHandle is the transport's opaque identifier for a live connection.
type ConnHandle uint16

// ValueHandle is the transport's opaque identifier for a writable characteristic value.
type ValueHandle uint16

// Address identifies an advertising peripheral.
type Address struct {
	// ID is the transport's own representation, handed back unchanged on Connect.
	ID string
	// MAC holds the six address bytes in display order. It is nil on platforms that hide
	// hardware addresses behind random identifiers.
	MAC []byte
}

// HasPrefix reports whether the hardware address starts with prefix.
func (a Address) HasPrefix(prefix []byte) bool {
	return len(prefix) > 0 && bytes.HasPrefix(a.MAC, prefix)
}

func (a Address) String() string {
	return a.ID
}

// Event is one asynchronous notification from the transport.
type Event interface {
	isEvent()
}

// ScanResult is an advertisement seen while scanning.
type ScanResult struct {
	Address         Address
	Name            string
	RSSI            int
	ManufacturerIDs []uint16
}

// PeripheralConnected reports a completed Connect.
type PeripheralConnected struct {
	Conn ConnHandle
}

// ServiceFound reports one service of a connected peripheral.
type ServiceFound struct {
	Conn ConnHandle
	UUID bluetooth.UUID
}

// CharacteristicFound reports one characteristic and the handle its value is written through.
type CharacteristicFound struct {
	Conn  ConnHandle
	Value ValueHandle
	UUID  bluetooth.UUID
}

// PeripheralDisconnected reports the loss of a connection, requested or not.
type PeripheralDisconnected struct {
	Conn ConnHandle
}

func (ScanResult) isEvent()             {}
func (PeripheralConnected) isEvent()    {}
func (ServiceFound) isEvent()           {}
func (CharacteristicFound) isEvent()    {}
func (PeripheralDisconnected) isEvent() {}

func (e ScanResult) String() string {
	return fmt.Sprintf("ScanResult(%s %q rssi=%d)", e.Address, e.Name, e.RSSI)
}

func (e PeripheralConnected) String() string {
	return fmt.Sprintf("PeripheralConnected(conn=%d)", e.Conn)
}

func (e ServiceFound) String() string {
	return fmt.Sprintf("ServiceFound(conn=%d %s)", e.Conn, e.UUID)
}

func (e CharacteristicFound) String() string {
	return fmt.Sprintf("CharacteristicFound(conn=%d value=%d %s)", e.Conn, e.Value, e.UUID)
}

func (e PeripheralDisconnected) String() string {
	return fmt.Sprintf("PeripheralDisconnected(conn=%d)", e.Conn)
}
