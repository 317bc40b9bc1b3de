// Package control drives a ready hub from the controller's sensors.
package control

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/pkg/lwp"
	"github.com/mlsorensen/gotechnic/pkg/mapper"
)

// Link is the part of a hub session the driver needs. *hub.Machine implements it.
type Link interface {
	Start() error
	Send(body []byte) error
	Disconnect(ctx context.Context) error
	Done() <-chan struct{}
}

// IO bundles the controller's peripherals.
type IO struct {
	Sensors  gotechnic.Sensors
	Display  gotechnic.Display
	Operator gotechnic.Operator
}

// Driver runs the fixed cadence control loop.
type Driver struct {
	cfg    gotechnic.Config
	params mapper.Params
	link   Link
	io     IO
	clock  clock.Clock
	logger *zap.SugaredLogger
}

// NewDriver creates a driver for link.
func NewDriver(cfg gotechnic.Config, link Link, io IO, clk clock.Clock, logger *zap.SugaredLogger) *Driver {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Driver{
		cfg:    cfg,
		params: mapper.ParamsFromConfig(cfg),
		link:   link,
		io:     io,
		clock:  clk,
		logger: logger,
	}
}

// Run drives the hub until the operator asks to stop or ctx is canceled, then disconnects.
// Each tick writes the engine power, waits half a tick, writes the servo position and
// waits the other half. A hub that goes away returns ErrDisconnected.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.link.Start(); err != nil {
		return err
	}
	d.logger.Info("Driving")

	half := d.cfg.TickInterval / 2
	for ticks := 0; ; ticks++ {
		select {
		case <-d.link.Done():
			d.logger.Warnw("hub went away", "ticks", ticks)
			return gotechnic.ErrDisconnected
		case <-ctx.Done():
			return d.stop(ctx, "canceled")
		default:
		}

		d.sendPower()
		if !d.sleep(ctx, half) {
			continue
		}
		d.sendPosition()
		if !d.sleep(ctx, half) {
			continue
		}

		if d.io.Operator.StopRequested() {
			return d.stop(ctx, "operator")
		}
	}
}

func (d *Driver) sendPower() {
	pressure := d.io.Sensors.PressurePercent()
	inverted := mapper.IsInverted(d.io.Sensors.Color(), d.params.InvertColor)

	d.io.Display.Show(gotechnic.GaugeSymbol(mapper.GaugeIndex(pressure)))
	d.send(lwp.BuildPowerCommand(d.cfg.EnginePort, mapper.EnginePower(pressure, inverted)))
}

func (d *Driver) sendPosition() {
	position := mapper.ServoPosition(d.io.Sensors.PitchDegrees(), d.params.PosMax)
	d.send(lwp.BuildPositionCommand(d.cfg.ServoPort, position))
}

func (d *Driver) send(body []byte) {
	if err := d.link.Send(body); err != nil {
		d.logger.Debugw("command not sent", "error", err)
	}
}

// sleep waits d on the driver's clock. It reports false if the wait was cut short.
func (d *Driver) sleep(ctx context.Context, dur time.Duration) bool {
	timer := d.clock.Timer(dur)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-d.link.Done():
		return false
	}
}

func (d *Driver) stop(ctx context.Context, reason string) error {
	d.logger.Infow("Stopping", "reason", reason)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.DisconnectTimeout)
	defer cancel()
	if err := d.link.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "disconnect")
	}
	return nil
}
