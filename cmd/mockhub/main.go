// Command mockhub drives a hub from simulated sensors without a window. By default the hub
// is simulated too, which makes it a quick end to end check of the control stack.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/internal/cliconfig"
	"github.com/mlsorensen/gotechnic/internal/logging"
	"github.com/mlsorensen/gotechnic/pkg/control"
	"github.com/mlsorensen/gotechnic/pkg/sim"
	"github.com/mlsorensen/gotechnic/pkg/transports/mock"

	_ "github.com/mlsorensen/gotechnic/pkg/transports/all"
)

const (
	flagDuration = "duration"
	flagCycle    = "cycle"
)

func main() {
	def := gotechnic.DefaultConfig()
	def.Transport = "mock"

	app := &cli.App{
		Name:  "mockhub",
		Usage: "drive a hub from simulated sensors",
		Flags: append(cliconfig.Flags(def),
			&cli.DurationFlag{
				Name:    flagDuration,
				Usage:   "stop after this long, 0 runs until interrupted",
				EnvVars: []string{"GOTECHNIC_DURATION"},
			},
			&cli.DurationFlag{
				Name:    flagCycle,
				Usage:   "length of one simulated drive cycle",
				Value:   sim.DefaultCycle,
				EnvVars: []string{"GOTECHNIC_CYCLE"},
			},
		),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := cliconfig.FromContext(c)
	if err != nil {
		return err
	}
	logger, err := logging.New("mockhub", cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	transport, err := gotechnic.NewTransport(cfg.Transport, logger.Named(cfg.Transport))
	if err != nil {
		return err
	}

	operator := &sim.Operator{}
	if d := c.Duration(flagDuration); d > 0 {
		operator.StopAfter(nil, d)
	}

	// The first signal stops gracefully, which disconnects from the hub.
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		logger.Info("Shutdown signal received. Disconnecting...")
		operator.Stop()
	}()

	io := control.IO{
		Sensors:  sim.NewSensors(nil, c.Duration(flagCycle), cfg.InvertColor),
		Display:  sim.NewDisplay(logger.Named("display")),
		Operator: operator,
	}
	start := time.Now()
	if err := control.Run(c.Context, cfg, transport, io, nil, logger); err != nil {
		return err
	}

	if hub, ok := transport.(*mock.Transport); ok {
		logger.Infow("simulated hub",
			"engine", hub.Motor(cfg.EnginePort),
			"servo", hub.Motor(cfg.ServoPort),
			"frames", len(hub.Writes()),
		)
	}
	logger.Infof("Finished after %s", time.Since(start).Round(time.Millisecond))
	return nil
}
