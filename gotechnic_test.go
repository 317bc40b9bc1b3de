package gotechnic

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
)

func TestRegistry(t *testing.T) {
	boom := errors.New("no radio")
	Register("test-broken", func(*zap.SugaredLogger) (Transport, error) {
		return nil, boom
	})
	t.Cleanup(func() {
		regLock.Lock()
		delete(registry, "test-broken")
		regLock.Unlock()
	})

	test.That(t, Transports(), test.ShouldContain, "test-broken")

	_, err := NewTransport("test-broken", zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldEqual, boom)

	_, err = NewTransport("carrier-pigeon", nil)
	test.That(t, errors.Is(err, ErrUnknownTransport), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"carrier-pigeon"`)
}

func TestAddress(t *testing.T) {
	addr := Address{ID: "90:84:2B:01:02:03", MAC: []byte{0x90, 0x84, 0x2B, 0x01, 0x02, 0x03}}
	test.That(t, addr.HasPrefix([]byte{0x90, 0x84, 0x2B}), test.ShouldBeTrue)
	test.That(t, addr.HasPrefix([]byte{0x90, 0x84, 0x2C}), test.ShouldBeFalse)
	test.That(t, addr.HasPrefix(nil), test.ShouldBeFalse)
	test.That(t, Address{ID: "hidden"}.HasPrefix([]byte{0x90}), test.ShouldBeFalse)
	test.That(t, addr.String(), test.ShouldEqual, "90:84:2B:01:02:03")
}

func TestParseColor(t *testing.T) {
	for _, c := range Colors {
		got, ok := ParseColor(string(c))
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, got, test.ShouldEqual, c)
	}
	got, ok := ParseColor(" White ")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, ColorWhite)

	got, ok = ParseColor("none")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, ColorNone)

	_, ok = ParseColor("magenta")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestGaugeSymbol(t *testing.T) {
	test.That(t, GaugeSymbol(-1), test.ShouldEqual, Symbol("CLOCK10"))
	test.That(t, GaugeSymbol(0), test.ShouldEqual, Symbol("CLOCK10"))
	test.That(t, GaugeSymbol(3), test.ShouldEqual, Symbol("CLOCK1"))
	test.That(t, GaugeSymbol(10), test.ShouldEqual, Symbol("CLOCK8"))
	test.That(t, GaugeSymbol(11), test.ShouldEqual, Symbol("CLOCK8"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.SearchTicks(), test.ShouldEqual, 20)
	test.That(t, cfg.AddressPrefix, test.ShouldResemble, []byte{0x90, 0x84, 0x2B})
	test.That(t, cfg.CompanyID, test.ShouldEqual, uint16(0x0397))
	test.That(t, cfg.ServiceUUID.String(), test.ShouldEqual, "00001623-1212-efde-1623-785feabcd123")
	test.That(t, cfg.CharacteristicUUID.String(), test.ShouldEqual, "00001624-1212-efde-1623-785feabcd123")

	// the prefix is a copy
	cfg.AddressPrefix[0] = 0
	test.That(t, DefaultConfig().AddressPrefix[0], test.ShouldEqual, byte(0x90))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transport = ""
	cfg.AddressPrefix = nil
	cfg.CompanyID = 0
	cfg.ServoPort = 4
	cfg.EnginePort = 4
	cfg.ColorSensorPort = "G"
	cfg.ForceSensorPort = ""
	cfg.ScanTimeout = 0
	cfg.TickInterval = -time.Millisecond
	cfg.PosMax = 0
	cfg.WriteRetries = -1
	cfg.SearchFrame = 0
	cfg.DisconnectPoll = 0

	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, msg := range []string{
		"transport is required",
		"one of address prefix or company id is required",
		"invalid servo port 4",
		"invalid engine port 4",
		"servo and engine share port 4",
		`invalid color sensor port "G"`,
		`invalid force sensor port ""`,
		"scan timeout must be positive",
		"tick interval must be positive",
		"invalid servo travel 0",
		"write retries cannot be negative",
		"search frame must be positive",
		"disconnect poll must be positive",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 13)
	test.That(t, cfg.SearchTicks(), test.ShouldEqual, 0)

	cfg = DefaultConfig()
	cfg.AddressPrefix = make([]byte, 7)
	test.That(t, cfg.Validate().Error(), test.ShouldContainSubstring, "longer than an address")
}
