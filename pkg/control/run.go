package control

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/pkg/hub"
)

// Run connects to a hub through transport and drives it until the operator stops, the hub
// disconnects or ctx is canceled. The transport is closed before Run returns.
func Run(ctx context.Context, cfg gotechnic.Config, transport gotechnic.Transport, io IO, clk clock.Clock, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	m := hub.NewMachine(cfg, transport, clk, logger.Named("hub"))
	driver := NewDriver(cfg, m, io, clk, logger.Named("control"))

	group, gctx := errgroup.WithContext(ctx)
	group.Go(m.Run)
	group.Go(func() error {
		defer m.Abort()
		if err := m.Connect(gctx, io.Display); err != nil {
			return err
		}
		return driver.Run(gctx)
	})

	err := group.Wait()
	return multierr.Append(err, transport.Close())
}
