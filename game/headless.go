package game

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// HeadlessOptions controls a run without a window.
type HeadlessOptions struct {
	MaxTicks int // Stop after this many steps (0 = until ctx is done)

	// Synthetic pointer: circles the screen center at OrbitRadius (NDC),
	// advancing OrbitStep radians every DriverInterval.
	OrbitRadius    float32
	OrbitStep      float64
	DriverInterval time.Duration
}

// DefaultHeadlessOptions returns a slow orbit that sweeps the dense center.
func DefaultHeadlessOptions(maxTicks int) HeadlessOptions {
	return HeadlessOptions{
		MaxTicks:       maxTicks,
		OrbitRadius:    0.35,
		OrbitStep:      0.02,
		DriverInterval: 16 * time.Millisecond,
	}
}

// RunHeadless runs the frame loop and a synthetic pointer driver concurrently
// until MaxTicks is reached or ctx is cancelled. Cancellation is a normal stop.
func RunHeadless(ctx context.Context, g *Game, opts HeadlessOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	// Frame loop; the driver stops when this returns
	eg.Go(func() error {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				slog.Info("headless run stopped", "tick", g.Tick())
				return nil
			default:
			}

			g.UpdateUntil(int32(opts.MaxTicks))

			if opts.MaxTicks > 0 && int(g.Tick()) >= opts.MaxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return nil
			}
		}
	})

	// Pointer driver
	eg.Go(func() error {
		interval := opts.DriverInterval
		if interval <= 0 {
			interval = 16 * time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var angle float64
		for {
			sin, cos := math.Sincos(angle)
			g.SetPointer(opts.OrbitRadius*float32(cos), opts.OrbitRadius*float32(sin))
			angle += opts.OrbitStep

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	return eg.Wait()
}
