package mock

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/pkg/lwp"
)

func next(t *testing.T, tr *Transport) gotechnic.Event {
	t.Helper()
	select {
	case ev := <-tr.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
		return nil
	}
}

func TestHandshake(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	tr := New(logger)
	defer tr.Close()

	test.That(t, tr.Scan(time.Second), test.ShouldBeNil)
	phone := next(t, tr).(gotechnic.ScanResult)
	test.That(t, phone.Name, test.ShouldEqual, "Pixel")
	hub := next(t, tr).(gotechnic.ScanResult)
	test.That(t, hub.Address.HasPrefix(lwp.LegoAddressPrefix), test.ShouldBeTrue)
	test.That(t, hub.ManufacturerIDs, test.ShouldResemble, []uint16{lwp.LegoCompanyID})

	test.That(t, tr.Connect(hub.Address), test.ShouldBeNil)
	connected := next(t, tr).(gotechnic.PeripheralConnected)
	test.That(t, connected.Conn, test.ShouldEqual, gotechnic.ConnHandle(1))

	test.That(t, tr.DiscoverServices(connected.Conn), test.ShouldBeNil)
	test.That(t, next(t, tr).(gotechnic.ServiceFound).UUID, test.ShouldEqual, genericAccess)
	test.That(t, next(t, tr).(gotechnic.ServiceFound).UUID, test.ShouldEqual, lwp.HubServiceUUID)

	test.That(t, tr.DiscoverCharacteristics(connected.Conn, 0x0001, 0xffff), test.ShouldBeNil)
	test.That(t, next(t, tr).(gotechnic.CharacteristicFound).UUID, test.ShouldEqual, deviceName)
	char := next(t, tr).(gotechnic.CharacteristicFound)
	test.That(t, char.UUID, test.ShouldEqual, lwp.HubCharacteristicUUID)
	test.That(t, char.Value, test.ShouldEqual, gotechnic.ValueHandle(6))

	test.That(t, tr.Write(char.Conn, char.Value, lwp.Frame(lwp.BuildPowerCommand(3, -40))), test.ShouldBeNil)
	test.That(t, tr.Write(char.Conn, char.Value, lwp.Frame(lwp.BuildPositionCommand(1, -75))), test.ShouldBeNil)
	test.That(t, tr.Write(char.Conn, char.Value, lwp.Frame(lwp.BuildSmoothAccelerationCommand(1))), test.ShouldBeNil)
	test.That(t, tr.Motor(3).Power, test.ShouldEqual, int8(-40))
	test.That(t, tr.Motor(1), test.ShouldResemble, MotorState{Position: -75, AccelerationMs: 500, Commands: 2})
	test.That(t, tr.Writes(), test.ShouldHaveLength, 3)

	test.That(t, tr.Disconnect(connected.Conn), test.ShouldBeNil)
	test.That(t, next(t, tr), test.ShouldResemble, gotechnic.PeripheralDisconnected{Conn: connected.Conn})
	test.That(t, tr.Write(char.Conn, char.Value, lwp.Frame(lwp.BuildPowerCommand(3, 0))), test.ShouldNotBeNil)
}

func TestConnectUnknown(t *testing.T) {
	tr := New(nil)
	defer tr.Close()
	err := tr.Connect(gotechnic.Address{ID: "00:00:00:00:00:00"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no peripheral")
}

func TestCharacteristicRange(t *testing.T) {
	tr := New(nil)
	defer tr.Close()
	hub := DefaultPeripherals()[1]
	test.That(t, tr.Connect(hub.Address), test.ShouldBeNil)
	conn := next(t, tr).(gotechnic.PeripheralConnected).Conn

	test.That(t, tr.DiscoverCharacteristics(conn, 5, 0xffff), test.ShouldBeNil)
	char := next(t, tr).(gotechnic.CharacteristicFound)
	test.That(t, char.UUID, test.ShouldEqual, lwp.HubCharacteristicUUID)
	select {
	case ev := <-tr.Events():
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestManual(t *testing.T) {
	tr := New(nil, Manual())
	defer tr.Close()

	test.That(t, tr.StartAdvertising(), test.ShouldBeNil)
	test.That(t, tr.Scan(time.Second), test.ShouldBeNil)
	test.That(t, tr.Connect(gotechnic.Address{ID: "nowhere"}), test.ShouldBeNil)
	test.That(t, tr.Write(7, 12, []byte{0x01}), test.ShouldBeNil)
	test.That(t, tr.Disconnect(7), test.ShouldBeNil)

	ops := []string{}
	for _, r := range tr.Requests() {
		ops = append(ops, r.Op)
	}
	test.That(t, ops, test.ShouldResemble, []string{"advertise", "scan", "connect", "write", "disconnect"})
	test.That(t, tr.Writes(), test.ShouldResemble, [][]byte{{0x01}})

	tr.Inject(gotechnic.PeripheralConnected{Conn: 7})
	test.That(t, next(t, tr), test.ShouldResemble, gotechnic.PeripheralConnected{Conn: 7})
}

func TestFailWrites(t *testing.T) {
	tr := New(nil, Manual())
	defer tr.Close()

	tr.FailWrites(2)
	test.That(t, tr.Write(1, 1, []byte{1}), test.ShouldEqual, ErrWriteRejected)
	test.That(t, tr.Write(1, 1, []byte{2}), test.ShouldEqual, ErrWriteRejected)
	test.That(t, tr.Write(1, 1, []byte{3}), test.ShouldBeNil)
	test.That(t, tr.Writes(), test.ShouldResemble, [][]byte{{3}})
	test.That(t, tr.Requests(), test.ShouldHaveLength, 3)
}

func TestUnplugAndIgnoreDisconnect(t *testing.T) {
	tr := New(nil, IgnoreDisconnect())
	defer tr.Close()
	hub := DefaultPeripherals()[1]
	test.That(t, tr.Connect(hub.Address), test.ShouldBeNil)
	conn := next(t, tr).(gotechnic.PeripheralConnected).Conn

	test.That(t, tr.Disconnect(conn), test.ShouldBeNil)
	select {
	case ev := <-tr.Events():
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(20 * time.Millisecond):
	}

	tr.Unplug()
	test.That(t, next(t, tr), test.ShouldResemble, gotechnic.PeripheralDisconnected{Conn: conn})
}

func TestRegistered(t *testing.T) {
	tr, err := gotechnic.NewTransport("mock", zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tr, test.ShouldHaveSameTypeAs, &Transport{})
	test.That(t, tr.Close(), test.ShouldBeNil)
}
