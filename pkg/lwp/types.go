package lwp

import "fmt"

// Constants for the communication protocol.
const (
	// LengthSize is the size of the frame length prefix. Its high byte doubles as the hub id.
	LengthSize = 2

	// MessageTypePortOutputCommand is the only message type this package builds.
	MessageTypePortOutputCommand byte = 0x81

	// StartupExecuteImmediately with no completion feedback.
	StartupExecuteImmediately byte = 0x10
)

// Port output subcommands.
const (
	SubCmdSetAccTime           byte = 0x05
	SubCmdGotoAbsolutePosition byte = 0x0d
	SubCmdWriteDirectModeData  byte = 0x51
)

// ModePower is the direct mode that sets motor power, -100..100.
const ModePower byte = 0x00

// EndState is what a motor does after reaching a position.
type EndState uint8

const (
	EndStateFloat EndState = 0
	EndStateHold  EndState = 126
	EndStateBrake EndState = 127
)

func (e EndState) String() string {
	switch e {
	case EndStateFloat:
		return "Float"
	case EndStateHold:
		return "Hold"
	case EndStateBrake:
		return "Brake"
	default:
		return fmt.Sprintf("Unknown (%d)", e)
	}
}

// PositionParams are the fixed arguments of a goto-absolute-position command.
type PositionParams struct {
	Speed      uint8
	MaxPower   uint8
	EndState   EndState
	UseProfile uint8
}

// DefaultPositionParams steer at full speed and half power, braking on arrival.
var DefaultPositionParams = PositionParams{
	Speed:      100,
	MaxPower:   50,
	EndState:   EndStateBrake,
	UseProfile: 1,
}

// SmoothAccelerationTime is the ramp, in milliseconds, set on the servo before driving.
const SmoothAccelerationTime uint16 = 500

// Body sizes, length prefix excluded.
const (
	PowerCommandSize        = 6
	PositionCommandSize     = 13
	AccelerationCommandSize = 7
)
