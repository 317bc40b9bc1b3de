package sim

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/mlsorensen/gotechnic"
)

func TestSensorsCycle(t *testing.T) {
	clk := clock.NewMock()
	s := NewSensors(clk, 8*time.Second, gotechnic.ColorWhite)

	test.That(t, s.PressurePercent(), test.ShouldEqual, 0)
	test.That(t, s.PitchDegrees(), test.ShouldEqual, 0)
	test.That(t, s.Color(), test.ShouldEqual, gotechnic.ColorBlack)

	clk.Add(2 * time.Second)
	test.That(t, s.PressurePercent(), test.ShouldEqual, 50)
	test.That(t, s.PitchDegrees(), test.ShouldEqual, 90)

	clk.Add(2 * time.Second)
	test.That(t, s.PressurePercent(), test.ShouldEqual, 100)
	test.That(t, s.PitchDegrees(), test.ShouldEqual, 0)

	clk.Add(2 * time.Second)
	test.That(t, s.PressurePercent(), test.ShouldEqual, 50)
	test.That(t, s.PitchDegrees(), test.ShouldEqual, -90)
	test.That(t, s.Color(), test.ShouldEqual, gotechnic.ColorWhite)

	// the cycle repeats
	clk.Add(2 * time.Second)
	test.That(t, s.PressurePercent(), test.ShouldEqual, 0)
	test.That(t, s.Color(), test.ShouldEqual, gotechnic.ColorBlack)
}

func TestSensorsInRange(t *testing.T) {
	clk := clock.NewMock()
	s := NewSensors(clk, 0, gotechnic.ColorRed)
	for i := 0; i < 200; i++ {
		clk.Add(73 * time.Millisecond)
		test.That(t, s.PressurePercent(), test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, s.PressurePercent(), test.ShouldBeLessThanOrEqualTo, 100)
		test.That(t, s.PitchDegrees(), test.ShouldBeGreaterThanOrEqualTo, -90)
		test.That(t, s.PitchDegrees(), test.ShouldBeLessThanOrEqualTo, 90)
	}
}

func TestDisplay(t *testing.T) {
	d := NewDisplay(zaptest.NewLogger(t).Sugar())
	test.That(t, d.Last(), test.ShouldEqual, gotechnic.Symbol(""))
	d.Show(gotechnic.ArrowN)
	d.Show(gotechnic.ArrowN)
	d.Show(gotechnic.ArrowE)
	test.That(t, d.Last(), test.ShouldEqual, gotechnic.ArrowE)
}

func TestOperator(t *testing.T) {
	clk := clock.NewMock()
	o := &Operator{}
	test.That(t, o.StopRequested(), test.ShouldBeFalse)

	o.StopAfter(clk, time.Second)
	clk.Add(999 * time.Millisecond)
	test.That(t, o.StopRequested(), test.ShouldBeFalse)
	clk.Add(time.Millisecond)
	waitFor(t, o.StopRequested)
	test.That(t, o.StopRequested(), test.ShouldBeTrue)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
