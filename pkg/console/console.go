// Package console is a desktop stand-in for the controller: sliders for the force and tilt
// sensors, a color picker, the indicator and throttle gauge, and a Stop button.
package console

import (
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/atomic"

	"github.com/mlsorensen/gotechnic"
)

const noColor = "none"

// Console implements gotechnic.Sensors, gotechnic.Display and gotechnic.Operator on top
// of fyne widgets. Sensor reads are safe from any goroutine.
type Console struct {
	pressure  binding.Float
	pitch     binding.Float
	color     binding.String
	indicator binding.String
	gauge     binding.Float
	status    binding.String

	stop atomic.Bool

	stopButton *widget.Button
}

var (
	_ gotechnic.Sensors  = (*Console)(nil)
	_ gotechnic.Display  = (*Console)(nil)
	_ gotechnic.Operator = (*Console)(nil)
)

// New creates a console with the engine idle, the servo centered and no color sensed.
func New() *Console {
	c := &Console{
		pressure:  binding.NewFloat(),
		pitch:     binding.NewFloat(),
		color:     binding.NewString(),
		indicator: binding.NewString(),
		gauge:     binding.NewFloat(),
		status:    binding.NewString(),
	}
	_ = c.color.Set(noColor)
	c.stopButton = widget.NewButton("Stop", c.Stop)
	return c
}

// Content builds the window content.
func (c *Console) Content() fyne.CanvasObject {
	pressure := widget.NewSliderWithData(0, 100, c.pressure)
	pressure.Step = 1
	pitch := widget.NewSliderWithData(-90, 90, c.pitch)
	pitch.Step = 1

	options := []string{noColor}
	for _, color := range gotechnic.Colors {
		options = append(options, string(color))
	}
	color := widget.NewSelect(options, func(s string) {
		_ = c.color.Set(s)
	})
	color.SetSelected(noColor)

	gauge := widget.NewProgressBarWithData(c.gauge)
	gauge.TextFormatter = func() string { return "" }

	return container.NewVBox(
		widget.NewLabelWithData(c.status),
		widget.NewForm(
			widget.NewFormItem("Throttle", pressure),
			widget.NewFormItem("Steering", pitch),
			widget.NewFormItem("Color", color),
		),
		widget.NewLabelWithData(c.indicator),
		gauge,
		c.stopButton,
	)
}

// PressurePercent implements gotechnic.Sensors.
func (c *Console) PressurePercent() int {
	v, _ := c.pressure.Get()
	return int(math.Round(v))
}

// PitchDegrees implements gotechnic.Sensors.
func (c *Console) PitchDegrees() int {
	v, _ := c.pitch.Get()
	return int(math.Round(v))
}

// Color implements gotechnic.Sensors.
func (c *Console) Color() gotechnic.Color {
	s, _ := c.color.Get()
	color, _ := gotechnic.ParseColor(s)
	return color
}

// Show implements gotechnic.Display. Gauge symbols also move the progress bar.
func (c *Console) Show(symbol gotechnic.Symbol) {
	fyne.Do(func() {
		_ = c.indicator.Set(string(symbol))
		if i := gaugeIndex(symbol); i >= 0 {
			_ = c.gauge.Set(float64(i) / float64(len(gotechnic.GaugeSymbols)-1))
		}
	})
}

// SetStatus replaces the status line.
func (c *Console) SetStatus(msg string) {
	fyne.Do(func() {
		_ = c.status.Set(msg)
	})
}

// Stop requests a stop and disables the button.
func (c *Console) Stop() {
	c.stop.Store(true)
	fyne.Do(c.stopButton.Disable)
}

// StopRequested implements gotechnic.Operator.
func (c *Console) StopRequested() bool {
	return c.stop.Load()
}

func gaugeIndex(symbol gotechnic.Symbol) int {
	for i, s := range gotechnic.GaugeSymbols {
		if s == symbol {
			return i
		}
	}
	return -1
}
