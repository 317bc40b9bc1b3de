// Package mapper turns controller sensor samples into motor targets.
//
// Every function here is pure: the result depends only on the latest sample, nothing is
// carried between control ticks.
package mapper

import (
	"sort"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/internal/mathx"
)

// MaxPitch is the pitch, in degrees, that maps to full servo travel.
const MaxPitch = 90

// SensorSample is one fresh read of the controller's sensors.
type SensorSample struct {
	PressurePercent int
	Color           gotechnic.Color
	PitchDegrees    int
}

// MotorTarget is what the hub motors are told for one sample.
type MotorTarget struct {
	// EnginePower is the engine's direct power, reversed by 8-bit wraparound.
	EnginePower int8
	// ServoPosition is the absolute steering position, within ±PosMax.
	ServoPosition int32
	// Gauge indexes gotechnic.GaugeSymbols. It is operator feedback only.
	Gauge int
}

// Params are the mapping settings taken from the run configuration.
type Params struct {
	InvertColor gotechnic.Color
	PosMax      int32
}

// ParamsFromConfig extracts the mapping settings from cfg.
func ParamsFromConfig(cfg gotechnic.Config) Params {
	return Params{InvertColor: cfg.InvertColor, PosMax: cfg.PosMax}
}

// Sample reads every sensor once.
func Sample(s gotechnic.Sensors) SensorSample {
	return SensorSample{
		PressurePercent: s.PressurePercent(),
		Color:           s.Color(),
		PitchDegrees:    s.PitchDegrees(),
	}
}

// Map computes the full motor target for a sample.
func Map(sample SensorSample, params Params) MotorTarget {
	return MotorTarget{
		EnginePower:   EnginePower(sample.PressurePercent, IsInverted(sample.Color, params.InvertColor)),
		ServoPosition: ServoPosition(sample.PitchDegrees, params.PosMax),
		Gauge:         GaugeIndex(sample.PressurePercent),
	}
}

// IsInverted reports whether the sensed color selects reverse.
func IsInverted(sensed, invert gotechnic.Color) bool {
	return invert != gotechnic.ColorNone && sensed == invert
}

// EnginePower maps a pressure percentage to engine power. Reverse is (256 - p) mod 256,
// which the hub reads as the signed byte -p.
func EnginePower(pressurePercent int, inverted bool) int8 {
	p := mathx.Clamp(pressurePercent, 0, 100)
	if inverted {
		return int8(uint8((256 - p) % 256))
	}
	return int8(p)
}

// ServoPosition maps a pitch angle to a servo position in [-posMax, posMax]. The division
// rounds toward negative infinity.
func ServoPosition(pitchDegrees int, posMax int32) int32 {
	if posMax <= 0 {
		return 0
	}
	pitch := int64(mathx.Clamp(pitchDegrees, -MaxPitch, MaxPitch))
	pos := mathx.FloorDiv(pitch*int64(posMax), MaxPitch)
	return int32(mathx.Clamp(pos, -int64(posMax), int64(posMax)))
}

// gaugeBreakpoints are the lowest pressures of gauge steps 1 to 10.
var gaugeBreakpoints = []int{25, 32, 39, 46, 53, 60, 68, 76, 84, 92}

// GaugeIndex maps a pressure percentage to one of the 11 gauge steps.
func GaugeIndex(pressurePercent int) int {
	// first breakpoint strictly greater than p is the step count below it
	return sort.Search(len(gaugeBreakpoints), func(i int) bool {
		return gaugeBreakpoints[i] > pressurePercent
	})
}
