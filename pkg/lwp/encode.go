package lwp

import "encoding/binary"

// Frame prefixes a message body with its little-endian total length, prefix included.
func Frame(body []byte) []byte {
	message := make([]byte, LengthSize, LengthSize+len(body))
	binary.LittleEndian.PutUint16(message, uint16(len(body)+LengthSize))
	return append(message, body...)
}

// PortOutput builds a port output command body for port.
func PortOutput(port, subCommand byte, payload ...byte) []byte {
	body := make([]byte, 0, 4+len(payload))
	body = append(body, MessageTypePortOutputCommand, port, StartupExecuteImmediately, subCommand)
	return append(body, payload...)
}

// BuildPowerCommand sets the motor on port to power. Negative power runs it in reverse.
func BuildPowerCommand(port byte, power int8) []byte {
	return PortOutput(port, SubCmdWriteDirectModeData, ModePower, byte(power))
}

// BuildPositionCommand turns the motor on port to an absolute position in encoder degrees.
func BuildPositionCommand(port byte, position int32) []byte {
	return BuildPositionCommandWithParams(port, position, DefaultPositionParams)
}

// BuildPositionCommandWithParams is BuildPositionCommand with explicit speed, power and end state.
func BuildPositionCommandWithParams(port byte, position int32, params PositionParams) []byte {
	var payload [9]byte
	binary.LittleEndian.PutUint32(payload[0:4], uint32(position))
	payload[4] = params.Speed
	payload[5] = params.MaxPower
	payload[6] = byte(params.EndState)
	payload[7] = params.UseProfile
	payload[8] = 0x01

	return PortOutput(port, SubCmdGotoAbsolutePosition, payload[:]...)
}

// BuildAccelerationCommand sets the acceleration ramp of the motor on port.
func BuildAccelerationCommand(port byte, timeMs uint16, profile byte) []byte {
	var payload [3]byte
	binary.LittleEndian.PutUint16(payload[0:2], timeMs)
	payload[2] = profile

	return PortOutput(port, SubCmdSetAccTime, payload[:]...)
}

// BuildSmoothAccelerationCommand is the one-shot setup sent to the servo before driving.
func BuildSmoothAccelerationCommand(port byte) []byte {
	return BuildAccelerationCommand(port, SmoothAccelerationTime, 0x01)
}
