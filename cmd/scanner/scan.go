// Command scanner lists the hubs in range.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"tinygo.org/x/bluetooth"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/internal/cliconfig"
	"github.com/mlsorensen/gotechnic/internal/logging"
	"github.com/mlsorensen/gotechnic/pkg/hub"
	"github.com/mlsorensen/gotechnic/pkg/transports/ble"
)

func main() {
	def := gotechnic.DefaultConfig()
	def.ScanTimeout = 15 * time.Second

	app := &cli.App{
		Name:   "scanner",
		Usage:  "list LEGO hubs in range",
		Flags:  cliconfig.Flags(def),
		Action: scan,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func scan(c *cli.Context) error {
	cfg, err := cliconfig.FromContext(c)
	if err != nil {
		return err
	}
	logger, err := logging.New("scanner", cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Turn on your hub now.")
	hubs, err := ble.ScanHubs(c.Context, bluetooth.DefaultAdapter, logger, cfg.ScanTimeout, hub.TargetFromConfig(cfg).Matches)
	if err != nil {
		return err
	}

	if len(hubs) == 0 {
		logger.Info("Scan complete. No hubs found.")
		logger.Info("Tip: Make sure the hub is on and its light is blinking.")
		return nil
	}
	fmt.Println("\n--- Found Hubs ---")
	for i, h := range hubs {
		fmt.Printf("%d: Name: %s\n", i+1, h.Name)
		fmt.Printf("   ID:   %s\n", h.ID)
		fmt.Printf("   RSSI: %d\n\n", h.RSSI)
	}
	fmt.Println("------------------")
	return nil
}
