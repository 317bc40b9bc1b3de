// Package cliconfig maps command line flags onto a gotechnic.Config. Every flag can also be
// set through a GOTECHNIC_ environment variable.
package cliconfig

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"tinygo.org/x/bluetooth"

	"github.com/mlsorensen/gotechnic"
)

// Flags.
const (
	FlagTransport          = "transport"
	FlagAddressPrefix      = "address-prefix"
	FlagCompanyID          = "company-id"
	FlagServiceUUID        = "service-uuid"
	FlagCharacteristicUUID = "characteristic-uuid"
	FlagServoPort          = "servo-port"
	FlagEnginePort         = "engine-port"
	FlagColorSensorPort    = "color-sensor-port"
	FlagForceSensorPort    = "force-sensor-port"
	FlagScanTimeout        = "scan-timeout"
	FlagTickInterval       = "tick"
	FlagPosMax             = "pos-max"
	FlagInvertColor        = "invert-color"
	FlagWriteRetries       = "write-retries"
	FlagDisconnectTimeout  = "disconnect-timeout"
	FlagDebug              = "debug"
)

const envPrefix = "GOTECHNIC_"

func env(flag string) []string {
	return []string{envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))}
}

// Flags returns the configuration flags with defaults taken from def.
func Flags(def gotechnic.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagTransport,
			Usage:   fmt.Sprintf("transport to reach the hub through, one of %s", strings.Join(gotechnic.Transports(), ", ")),
			Value:   def.Transport,
			EnvVars: env(FlagTransport),
		},
		&cli.StringFlag{
			Name:    FlagAddressPrefix,
			Usage:   "leading bytes of the hub's hardware address, empty to match on company id only",
			Value:   FormatAddressPrefix(def.AddressPrefix),
			EnvVars: env(FlagAddressPrefix),
		},
		&cli.StringFlag{
			Name:    FlagCompanyID,
			Usage:   "manufacturer id advertised by the hub, 0 to match on address only",
			Value:   fmt.Sprintf("0x%04x", def.CompanyID),
			EnvVars: env(FlagCompanyID),
		},
		&cli.StringFlag{
			Name:    FlagServiceUUID,
			Usage:   "hub service",
			Value:   def.ServiceUUID.String(),
			EnvVars: env(FlagServiceUUID),
		},
		&cli.StringFlag{
			Name:    FlagCharacteristicUUID,
			Usage:   "hub command characteristic",
			Value:   def.CharacteristicUUID.String(),
			EnvVars: env(FlagCharacteristicUUID),
		},
		&cli.StringFlag{
			Name:    FlagServoPort,
			Usage:   "hub port of the steering servo, A to D",
			Value:   FormatHubPort(def.ServoPort),
			EnvVars: env(FlagServoPort),
		},
		&cli.StringFlag{
			Name:    FlagEnginePort,
			Usage:   "hub port of the drive motor, A to D",
			Value:   FormatHubPort(def.EnginePort),
			EnvVars: env(FlagEnginePort),
		},
		&cli.StringFlag{
			Name:    FlagColorSensorPort,
			Usage:   "controller port of the color sensor",
			Value:   def.ColorSensorPort,
			EnvVars: env(FlagColorSensorPort),
		},
		&cli.StringFlag{
			Name:    FlagForceSensorPort,
			Usage:   "controller port of the force sensor",
			Value:   def.ForceSensorPort,
			EnvVars: env(FlagForceSensorPort),
		},
		&cli.DurationFlag{
			Name:    FlagScanTimeout,
			Usage:   "how long to look for a hub",
			Value:   def.ScanTimeout,
			EnvVars: env(FlagScanTimeout),
		},
		&cli.DurationFlag{
			Name:    FlagTickInterval,
			Usage:   "control loop period",
			Value:   def.TickInterval,
			EnvVars: env(FlagTickInterval),
		},
		&cli.IntFlag{
			Name:    FlagPosMax,
			Usage:   "servo travel either side of center, in degrees",
			Value:   int(def.PosMax),
			EnvVars: env(FlagPosMax),
		},
		&cli.StringFlag{
			Name:    FlagInvertColor,
			Usage:   "color that puts the engine in reverse, none to disable",
			Value:   string(def.InvertColor),
			EnvVars: env(FlagInvertColor),
		},
		&cli.IntFlag{
			Name:    FlagWriteRetries,
			Usage:   "immediate retries of a failed command write",
			Value:   def.WriteRetries,
			EnvVars: env(FlagWriteRetries),
		},
		&cli.DurationFlag{
			Name:    FlagDisconnectTimeout,
			Usage:   "how long to wait for the hub to confirm a disconnect",
			Value:   def.DisconnectTimeout,
			EnvVars: env(FlagDisconnectTimeout),
		},
		&cli.BoolFlag{
			Name:    FlagDebug,
			Usage:   "enable debug logging",
			Value:   def.Debug,
			EnvVars: env(FlagDebug),
		},
	}
}

// FromContext builds a validated configuration from the flags in c. Settings without a
// flag keep their DefaultConfig values.
func FromContext(c *cli.Context) (gotechnic.Config, error) {
	cfg := gotechnic.DefaultConfig()
	var err error

	cfg.Transport = c.String(FlagTransport)
	if cfg.AddressPrefix, err = ParseAddressPrefix(c.String(FlagAddressPrefix)); err != nil {
		return cfg, err
	}
	if cfg.CompanyID, err = parseCompanyID(c.String(FlagCompanyID)); err != nil {
		return cfg, err
	}
	if cfg.ServiceUUID, err = parseUUID(FlagServiceUUID, c.String(FlagServiceUUID)); err != nil {
		return cfg, err
	}
	if cfg.CharacteristicUUID, err = parseUUID(FlagCharacteristicUUID, c.String(FlagCharacteristicUUID)); err != nil {
		return cfg, err
	}
	if cfg.ServoPort, err = ParseHubPort(c.String(FlagServoPort)); err != nil {
		return cfg, err
	}
	if cfg.EnginePort, err = ParseHubPort(c.String(FlagEnginePort)); err != nil {
		return cfg, err
	}
	cfg.ColorSensorPort = strings.ToUpper(c.String(FlagColorSensorPort))
	cfg.ForceSensorPort = strings.ToUpper(c.String(FlagForceSensorPort))
	cfg.ScanTimeout = c.Duration(FlagScanTimeout)
	cfg.TickInterval = c.Duration(FlagTickInterval)
	cfg.PosMax = int32(c.Int(FlagPosMax))

	color, ok := gotechnic.ParseColor(c.String(FlagInvertColor))
	if !ok {
		return cfg, errors.Errorf("unknown color %q", c.String(FlagInvertColor))
	}
	cfg.InvertColor = color
	cfg.WriteRetries = c.Int(FlagWriteRetries)
	cfg.DisconnectTimeout = c.Duration(FlagDisconnectTimeout)
	cfg.Debug = c.Bool(FlagDebug)

	return cfg, cfg.Validate()
}

// ParseAddressPrefix parses colon separated hex bytes such as "90:84:2B".
func ParseAddressPrefix(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	prefix := make([]byte, 0, len(parts))
	for _, part := range parts {
		if len(part) != 2 {
			return nil, errors.Errorf("invalid address prefix %q", s)
		}
		b, err := hex.DecodeString(part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid address prefix %q", s)
		}
		prefix = append(prefix, b[0])
	}
	return prefix, nil
}

// FormatAddressPrefix is the inverse of ParseAddressPrefix.
func FormatAddressPrefix(prefix []byte) string {
	parts := make([]string, len(prefix))
	for i, b := range prefix {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

// ParseHubPort accepts a port letter A to D or its number 0 to 3.
func ParseHubPort(s string) (byte, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 {
		switch {
		case s[0] >= 'A' && s[0] <= 'D':
			return s[0] - 'A', nil
		case s[0] >= '0' && s[0] <= '3':
			return s[0] - '0', nil
		}
	}
	return 0, errors.Errorf("invalid hub port %q, acceptable values are A thru D", s)
}

// FormatHubPort returns the letter of port.
func FormatHubPort(port byte) string {
	return string(rune('A' + port))
}

func parseCompanyID(s string) (uint16, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid company id %q", s)
	}
	return uint16(id), nil
}

func parseUUID(flag, s string) (bluetooth.UUID, error) {
	uuid, err := bluetooth.ParseUUID(strings.TrimSpace(s))
	if err != nil {
		return bluetooth.UUID{}, errors.Wrapf(err, "invalid %s %q", flag, s)
	}
	return uuid, nil
}
