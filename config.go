package gotechnic

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"tinygo.org/x/bluetooth"

	"github.com/mlsorensen/gotechnic/pkg/lwp"
)

// Config is the run configuration. It is fixed once the controller starts.
type Config struct {
	// Transport is the registered transport name, "ble" or "mock".
	Transport string

	// AddressPrefix is matched against the hardware address of scan results.
	AddressPrefix []byte
	// CompanyID is matched against advertised manufacturer data. Zero disables the check.
	CompanyID uint16
	// ServiceUUID and CharacteristicUUID locate the hub's command characteristic.
	ServiceUUID        bluetooth.UUID
	CharacteristicUUID bluetooth.UUID

	// Hub ports, A=0 B=1 C=2 D=3.
	ServoPort  byte
	EnginePort byte

	// Controller sensor ports, A to F. Informational for simulated sensors.
	ColorSensorPort string
	ForceSensorPort string

	ScanTimeout  time.Duration
	TickInterval time.Duration

	// PosMax is the servo travel either side of center, in encoder degrees.
	PosMax int32
	// InvertColor reverses the engine while the color sensor reports it.
	InvertColor Color

	// WriteRetries is how many times a failed write is re-issued before it is dropped.
	WriteRetries int

	AdvertiseDelay    time.Duration
	SearchFrame       time.Duration
	ArmSettle         time.Duration
	ReadySettle       time.Duration
	DisconnectPoll    time.Duration
	DisconnectTimeout time.Duration

	Debug bool
}

// DefaultConfig returns the configuration for a Technic hub with the servo on port B and
// the engine on port D.
func DefaultConfig() Config {
	return Config{
		Transport:          "ble",
		AddressPrefix:      append([]byte(nil), lwp.LegoAddressPrefix...),
		CompanyID:          lwp.LegoCompanyID,
		ServiceUUID:        lwp.HubServiceUUID,
		CharacteristicUUID: lwp.HubCharacteristicUUID,
		ServoPort:          1,
		EnginePort:         3,
		ColorSensorPort:    "A",
		ForceSensorPort:    "E",
		ScanTimeout:        20 * time.Second,
		TickInterval:       100 * time.Millisecond,
		PosMax:             150,
		InvertColor:        ColorWhite,
		AdvertiseDelay:     time.Second,
		SearchFrame:        250 * time.Millisecond,
		ArmSettle:          500 * time.Millisecond,
		ReadySettle:        time.Second,
		DisconnectPoll:     time.Second,
		DisconnectTimeout:  5 * time.Second,
	}
}

// SearchTicks is the number of indicator rotations the connect sequence waits for.
func (c *Config) SearchTicks() int {
	turn := c.SearchFrame * time.Duration(len(SearchingSymbols))
	if turn <= 0 {
		return 0
	}
	return int(c.ScanTimeout / turn)
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var err error
	if c.Transport == "" {
		err = multierr.Append(err, errors.New("transport is required"))
	}
	if len(c.AddressPrefix) == 0 && c.CompanyID == 0 {
		err = multierr.Append(err, errors.New("one of address prefix or company id is required"))
	}
	if len(c.AddressPrefix) > 6 {
		err = multierr.Append(err, errors.Errorf("address prefix %X is longer than an address", c.AddressPrefix))
	}
	if c.ServoPort > 3 {
		err = multierr.Append(err, errors.Errorf("invalid servo port %d, acceptable values are 0 thru 3", c.ServoPort))
	}
	if c.EnginePort > 3 {
		err = multierr.Append(err, errors.Errorf("invalid engine port %d, acceptable values are 0 thru 3", c.EnginePort))
	}
	if c.ServoPort == c.EnginePort {
		err = multierr.Append(err, errors.Errorf("servo and engine share port %d", c.ServoPort))
	}
	err = multierr.Append(err, validateSensorPort("color", c.ColorSensorPort))
	err = multierr.Append(err, validateSensorPort("force", c.ForceSensorPort))
	if c.ScanTimeout <= 0 {
		err = multierr.Append(err, errors.New("scan timeout must be positive"))
	}
	if c.TickInterval <= 0 {
		err = multierr.Append(err, errors.New("tick interval must be positive"))
	}
	if c.PosMax <= 0 {
		err = multierr.Append(err, errors.Errorf("invalid servo travel %d, must be positive", c.PosMax))
	}
	if c.WriteRetries < 0 {
		err = multierr.Append(err, errors.New("write retries cannot be negative"))
	}
	if c.SearchFrame <= 0 {
		err = multierr.Append(err, errors.New("search frame must be positive"))
	}
	if c.DisconnectPoll <= 0 {
		err = multierr.Append(err, errors.New("disconnect poll must be positive"))
	}
	return err
}

func validateSensorPort(name, port string) error {
	if len(port) != 1 || port[0] < 'A' || port[0] > 'F' {
		return errors.Errorf("invalid %s sensor port %q, acceptable values are A thru F", name, port)
	}
	return nil
}
