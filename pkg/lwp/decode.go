package lwp

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Command is the interface for all decoded port output commands.
type Command interface {
	isCommand()
}

// PowerCommand is a decoded direct power write.
type PowerCommand struct {
	Port  byte
	Power int8
}

func (PowerCommand) isCommand() {}

// PositionCommand is a decoded goto-absolute-position.
type PositionCommand struct {
	Port     byte
	Position int32
	Params   PositionParams
}

func (PositionCommand) isCommand() {}

// AccelerationCommand is a decoded acceleration ramp setting.
type AccelerationCommand struct {
	Port    byte
	TimeMs  uint16
	Profile byte
}

func (AccelerationCommand) isCommand() {}

// UnhandledCommand is any well-framed message we don't have a specific parser for.
type UnhandledCommand struct {
	MessageType byte
	Port        byte
	SubCommand  byte
	RawFrame    []byte
}

func (UnhandledCommand) isCommand() {}

// Decode parses one complete frame as produced by Frame.
func Decode(data []byte) (Command, error) {
	if len(data) < LengthSize {
		return nil, errors.New("incomplete frame: too short for length prefix")
	}
	length := int(binary.LittleEndian.Uint16(data[:LengthSize]))
	if length != len(data) {
		return nil, errors.Errorf("frame length mismatch: prefix says %d bytes, got %d", length, len(data))
	}

	body := data[LengthSize:]
	if len(body) < 4 || body[0] != MessageTypePortOutputCommand {
		unhandled := UnhandledCommand{RawFrame: data}
		if len(body) > 0 {
			unhandled.MessageType = body[0]
		}
		return unhandled, nil
	}

	port, subCommand := body[1], body[3]
	switch subCommand {
	case SubCmdWriteDirectModeData:
		if len(body) != PowerCommandSize || body[4] != ModePower {
			return nil, errors.Errorf("malformed power command: % X", data)
		}
		return PowerCommand{Port: port, Power: int8(body[5])}, nil

	case SubCmdGotoAbsolutePosition:
		if len(body) != PositionCommandSize {
			return nil, errors.Errorf("malformed position command: % X", data)
		}
		return PositionCommand{
			Port:     port,
			Position: int32(binary.LittleEndian.Uint32(body[4:8])),
			Params: PositionParams{
				Speed:      body[8],
				MaxPower:   body[9],
				EndState:   EndState(body[10]),
				UseProfile: body[11],
			},
		}, nil

	case SubCmdSetAccTime:
		if len(body) != AccelerationCommandSize {
			return nil, errors.Errorf("malformed acceleration command: % X", data)
		}
		return AccelerationCommand{
			Port:    port,
			TimeMs:  binary.LittleEndian.Uint16(body[4:6]),
			Profile: body[6],
		}, nil

	default:
		return UnhandledCommand{
			MessageType: body[0],
			Port:        port,
			SubCommand:  subCommand,
			RawFrame:    data,
		}, nil
	}
}
