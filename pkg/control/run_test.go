package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/mlsorensen/gotechnic"
	"github.com/mlsorensen/gotechnic/pkg/transports/mock"
)

func TestRunAgainstMockHub(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	tr := mock.New(logger)
	display := &fakeDisplay{}
	io := IO{
		Sensors:  newFakeSensors(40, 45, gotechnic.ColorWhite),
		Display:  display,
		Operator: &stopAfter{n: 5},
	}

	test.That(t, Run(context.Background(), fastConfig(), tr, io, nil, logger), test.ShouldBeNil)

	test.That(t, tr.Motor(1).AccelerationMs, test.ShouldEqual, uint16(500))
	test.That(t, tr.Motor(1).Position, test.ShouldEqual, int32(75))
	test.That(t, tr.Motor(3).Power, test.ShouldEqual, int8(-40))
	test.That(t, tr.Motor(3).Commands, test.ShouldEqual, 5)

	requests := tr.Requests()
	test.That(t, requests[len(requests)-1].Op, test.ShouldEqual, "disconnect")
	test.That(t, display.Shown()[0], test.ShouldEqual, gotechnic.ArrowN)
	test.That(t, display.Shown()[len(display.Shown())-1], test.ShouldEqual, gotechnic.Symbol("CLOCK1"))

	// the event stream is closed with the transport
	_, ok := <-tr.Events()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRunHubUnplugged(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	tr := mock.New(logger)
	io := IO{
		Sensors:  newFakeSensors(60, 0, gotechnic.ColorNone),
		Display:  &fakeDisplay{},
		Operator: &stopAfter{n: 1 << 30},
	}

	go func() {
		for tr.Motor(3).Commands < 3 {
			time.Sleep(time.Millisecond)
		}
		tr.Unplug()
	}()

	err := Run(context.Background(), fastConfig(), tr, io, nil, logger)
	test.That(t, err, test.ShouldEqual, gotechnic.ErrDisconnected)
	test.That(t, tr.Motor(3).Power, test.ShouldEqual, int8(60))
}

func TestRunNoHub(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	tr := mock.New(logger, mock.WithPeripherals(mock.DefaultPeripherals()[0]))
	cfg := fastConfig()
	cfg.ScanTimeout = 20 * time.Millisecond
	io := IO{
		Sensors:  newFakeSensors(0, 0, gotechnic.ColorNone),
		Display:  &fakeDisplay{},
		Operator: &stopAfter{n: 1},
	}

	err := Run(context.Background(), cfg, tr, io, nil, logger)
	test.That(t, errors.Is(err, gotechnic.ErrDiscoveryTimeout), test.ShouldBeTrue)
	test.That(t, tr.Writes(), test.ShouldBeEmpty)
}

func TestRunCanceled(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	tr := mock.New(logger)
	io := IO{
		Sensors:  newFakeSensors(30, 10, gotechnic.ColorNone),
		Display:  &fakeDisplay{},
		Operator: &stopAfter{n: 1 << 30},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for tr.Motor(3).Commands < 2 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	test.That(t, Run(ctx, fastConfig(), tr, io, nil, logger), test.ShouldBeNil)
	requests := tr.Requests()
	test.That(t, requests[len(requests)-1].Op, test.ShouldEqual, "disconnect")
}
