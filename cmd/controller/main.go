// Command controller drives a Technic hub from a desktop window standing in for the
// controller's sensors.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/urfave/cli/v2"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/internal/cliconfig"
	"github.com/mlsorensen/gotechnic/internal/logging"
	"github.com/mlsorensen/gotechnic/pkg/console"
	"github.com/mlsorensen/gotechnic/pkg/control"

	// This tells the Go compiler to include the package, which runs its init()
	// function. The init() function, in turn, calls gotechnic.Register().
	_ "github.com/mlsorensen/gotechnic/pkg/transports/all"
)

func main() {
	cliApp := &cli.App{
		Name:   "controller",
		Usage:  "drive a Technic hub with throttle, steering and reverse",
		Flags:  cliconfig.Flags(gotechnic.DefaultConfig()),
		Action: run,
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := cliconfig.FromContext(c)
	if err != nil {
		return err
	}
	logger, err := logging.New("controller", cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	transport, err := gotechnic.NewTransport(cfg.Transport, logger.Named(cfg.Transport))
	if err != nil {
		return err
	}

	a := app.New()
	w := a.NewWindow("gotechnic")
	pad := console.New()
	w.SetContent(pad.Content())

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		pad.SetStatus("Searching for a hub...")
		err := control.Run(ctx, cfg, transport, control.IO{Sensors: pad, Display: pad, Operator: pad}, nil, logger)
		if err != nil {
			logger.Errorw("controller stopped", "error", err)
		}
		done <- err
		fyne.Do(a.Quit)
	}()

	w.ShowAndRun()
	// window closed or run finished
	pad.Stop()
	cancel()
	return <-done
}
