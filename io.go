package gotechnic

import "strings"

// Sensors is the controller's sensor bank. Reads are cheap and never cached by callers.
type Sensors interface {
	// PressurePercent returns the force sensor reading, 0..100.
	PressurePercent() int
	// Color returns the label currently reported by the color sensor.
	Color() Color
	// PitchDegrees returns the controller's pitch angle, -90..90.
	PitchDegrees() int
}

// Display shows operator feedback. Show is fire-and-forget.
type Display interface {
	Show(Symbol)
}

// Operator is polled once per control tick for a stop request.
type Operator interface {
	StopRequested() bool
}

// Color is a color sensor label.
type Color string

const (
	ColorNone   Color = ""
	ColorBlack  Color = "black"
	ColorViolet Color = "violet"
	ColorBlue   Color = "blue"
	ColorCyan   Color = "cyan"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
	ColorWhite  Color = "white"
)

// Colors lists every label a color sensor can report, ColorNone excluded.
var Colors = []Color{ColorBlack, ColorViolet, ColorBlue, ColorCyan, ColorGreen, ColorYellow, ColorRed, ColorWhite}

// ParseColor maps a label to a Color. The second value is false for unknown labels.
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return ColorNone, true
	}
	for _, c := range Colors {
		if string(c) == s {
			return c, true
		}
	}
	return ColorNone, false
}

// Symbol is an image shown on the controller's display.
type Symbol string

// Rotating arrow shown while searching for a hub.
const (
	ArrowN Symbol = "ARROW_N"
	ArrowE Symbol = "ARROW_E"
	ArrowS Symbol = "ARROW_S"
	ArrowW Symbol = "ARROW_W"
)

// SearchingSymbols is one full turn of the searching indicator.
var SearchingSymbols = [4]Symbol{ArrowN, ArrowE, ArrowS, ArrowW}

// GaugeSymbols are the throttle gauge images, lowest first. A clock hand sweeping from ten
// to eight o'clock.
var GaugeSymbols = [11]Symbol{
	"CLOCK10", "CLOCK11", "CLOCK12", "CLOCK1", "CLOCK2", "CLOCK3",
	"CLOCK4", "CLOCK5", "CLOCK6", "CLOCK7", "CLOCK8",
}

// GaugeSymbol returns the gauge image for index, clamped to the available range.
func GaugeSymbol(index int) Symbol {
	if index < 0 {
		index = 0
	}
	if index >= len(GaugeSymbols) {
		index = len(GaugeSymbols) - 1
	}
	return GaugeSymbols[index]
}
