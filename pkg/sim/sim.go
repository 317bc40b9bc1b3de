// Package sim provides controller peripherals without controller hardware: sensors that
// follow a fixed drive cycle, a display that logs, and an operator that is told when to stop.
package sim

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/mlsorensen/gotechnic"
)

// DefaultCycle is the length of one simulated drive cycle.
const DefaultCycle = 10 * time.Second

// Sensors replays a drive cycle: pressure ramps up and down once, the controller tilts
// left then right, and the color sensor sees reverseColor during the last quarter.
type Sensors struct {
	clock        clock.Clock
	start        time.Time
	cycle        time.Duration
	reverseColor gotechnic.Color
}

// NewSensors starts a drive cycle of length cycle now.
func NewSensors(clk clock.Clock, cycle time.Duration, reverseColor gotechnic.Color) *Sensors {
	if clk == nil {
		clk = clock.New()
	}
	if cycle <= 0 {
		cycle = DefaultCycle
	}
	return &Sensors{clock: clk, start: clk.Now(), cycle: cycle, reverseColor: reverseColor}
}

// phase is the position in the current cycle, in [0, 1).
func (s *Sensors) phase() float64 {
	elapsed := s.clock.Since(s.start) % s.cycle
	return float64(elapsed) / float64(s.cycle)
}

// PressurePercent implements gotechnic.Sensors.
func (s *Sensors) PressurePercent() int {
	p := s.phase()
	if p < 0.5 {
		return int(math.Round(p * 200))
	}
	return int(math.Round((1 - p) * 200))
}

// Color implements gotechnic.Sensors.
func (s *Sensors) Color() gotechnic.Color {
	if s.phase() >= 0.75 {
		return s.reverseColor
	}
	return gotechnic.ColorBlack
}

// PitchDegrees implements gotechnic.Sensors.
func (s *Sensors) PitchDegrees() int {
	return int(math.Round(90 * math.Sin(2*math.Pi*s.phase())))
}

// Display logs every change of symbol.
type Display struct {
	logger *zap.SugaredLogger
	last   atomic.String
}

// NewDisplay creates a display logging to logger.
func NewDisplay(logger *zap.SugaredLogger) *Display {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Display{logger: logger}
}

// Show implements gotechnic.Display.
func (d *Display) Show(symbol gotechnic.Symbol) {
	if d.last.Swap(string(symbol)) != string(symbol) {
		d.logger.Debugw("display", "symbol", symbol)
	}
}

// Last returns the symbol on display.
func (d *Display) Last() gotechnic.Symbol {
	return gotechnic.Symbol(d.last.Load())
}

// Operator requests a stop once Stop has been called.
type Operator struct {
	stop atomic.Bool
}

// Stop asks the control loop to stop at its next poll.
func (o *Operator) Stop() {
	o.stop.Store(true)
}

// StopAfter calls Stop once d has elapsed on clk.
func (o *Operator) StopAfter(clk clock.Clock, d time.Duration) *clock.Timer {
	if clk == nil {
		clk = clock.New()
	}
	return clk.AfterFunc(d, o.Stop)
}

// StopRequested implements gotechnic.Operator.
func (o *Operator) StopRequested() bool {
	return o.stop.Load()
}
