package hub

import (
	"tinygo.org/x/bluetooth"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/pkg/lwp"
)

// Target describes the hub the machine is looking for.
type Target struct {
	AddressPrefix      []byte
	CompanyID          uint16
	ServiceUUID        bluetooth.UUID
	CharacteristicUUID bluetooth.UUID
	ServoPort          byte
}

// TargetFromConfig extracts the target description from cfg.
func TargetFromConfig(cfg gotechnic.Config) Target {
	return Target{
		AddressPrefix:      cfg.AddressPrefix,
		CompanyID:          cfg.CompanyID,
		ServiceUUID:        cfg.ServiceUUID,
		CharacteristicUUID: cfg.CharacteristicUUID,
		ServoPort:          cfg.ServoPort,
	}
}

// Matches reports whether a scan result advertises the target device class.
func (t Target) Matches(result gotechnic.ScanResult) bool {
	if result.Address.HasPrefix(t.AddressPrefix) {
		return true
	}
	if t.CompanyID == 0 {
		return false
	}
	for _, id := range result.ManufacturerIDs {
		if id == t.CompanyID {
			return true
		}
	}
	return false
}

// Action is a transport request produced by a transition.
type Action interface {
	isAction()
}

// ConnectAction asks the transport to connect to Address.
type ConnectAction struct {
	Address gotechnic.Address
}

// DiscoverServicesAction asks for the services of Conn.
type DiscoverServicesAction struct {
	Conn gotechnic.ConnHandle
}

// DiscoverCharacteristicsAction asks for the characteristics of Conn in [Start, End].
type DiscoverCharacteristicsAction struct {
	Conn       gotechnic.ConnHandle
	Start, End uint16
}

// WriteAction writes a command body to the session's characteristic.
type WriteAction struct {
	Body []byte
}

func (ConnectAction) isAction()                 {}
func (DiscoverServicesAction) isAction()        {}
func (DiscoverCharacteristicsAction) isAction() {}
func (WriteAction) isAction()                   {}

// Full attribute handle range searched for the command characteristic.
const (
	firstHandle uint16 = 0x0001
	lastHandle  uint16 = 0xffff
)

// Transition folds one transport event into the session. Events that do not apply to the
// current state, or that name another device, service or characteristic, leave the session
// unchanged and produce no actions.
func Transition(s Session, ev gotechnic.Event, target Target) (Session, []Action) {
	switch e := ev.(type) {
	case gotechnic.ScanResult:
		if s.State != ScanningAndAdvertising || !target.Matches(e) {
			return s, nil
		}
		s.State = Connecting
		return s, []Action{ConnectAction{Address: e.Address}}

	case gotechnic.PeripheralConnected:
		if s.State != Connecting {
			return s, nil
		}
		s.State = ServiceDiscovery
		s.Conn = e.Conn
		return s, []Action{DiscoverServicesAction{Conn: e.Conn}}

	case gotechnic.ServiceFound:
		if s.State != ServiceDiscovery || e.Conn != s.Conn || e.UUID != target.ServiceUUID {
			return s, nil
		}
		s.State = CharacteristicDiscovery
		return s, []Action{DiscoverCharacteristicsAction{Conn: s.Conn, Start: firstHandle, End: lastHandle}}

	case gotechnic.CharacteristicFound:
		if s.State != CharacteristicDiscovery || e.Conn != s.Conn || e.UUID != target.CharacteristicUUID {
			return s, nil
		}
		s.State = Arming
		s.Value = e.Value
		return s, []Action{WriteAction{Body: lwp.BuildSmoothAccelerationCommand(target.ServoPort)}}

	case gotechnic.PeripheralDisconnected:
		return Terminate(s), nil
	}

	return s, nil
}
