package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pthm-cable/pointfield/config"
	"github.com/pthm-cable/pointfield/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testYAML = `
field:
  count: 3000
parallel:
  workers: 4
  threshold: 1024
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(testYAML))
	require.NoError(t, err)
	return cfg
}

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	if opts.Config == nil {
		opts.Config = testConfig(t)
	}
	g, err := NewGameWithOptions(opts)
	require.NoError(t, err)
	t.Cleanup(g.Unload)
	return g
}

func TestNewGameRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Field.Count = 0

	g, err := NewGameWithOptions(Options{Config: cfg})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestConfigChangesTakeEffect(t *testing.T) {
	cfg := testConfig(t)
	cfg.Field.Range = 0.5
	cfg.Field.Colors = []string{"#ffffff"}

	g := newTestGame(t, Options{Config: cfg, Seed: 4})
	assert.Equal(t, float32(0.5), g.integrator.Params().Range)
	for i := 0; i < g.Field().Len(); i++ {
		require.Equal(t, config.RGB{R: 1, G: 1, B: 1}, g.Field().Color(i))
	}

	bad := testConfig(t)
	bad.Field.Colors = []string{"not-a-color"}
	g, err := NewGameWithOptions(Options{Config: bad})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestIdlePointerLeavesFieldAtRest(t *testing.T) {
	g := newTestGame(t, Options{Seed: 1})
	f := g.Field()
	rest := append([]float32(nil), f.Rest...)

	for i := 0; i < 30; i++ {
		g.Update()
	}

	assert.Equal(t, int32(30), g.Tick())
	assert.Equal(t, int64(1), g.Seed())
	assert.Equal(t, rest, f.Positions, "no particle moves without a pointer")
	assert.Zero(t, g.LastStep().Repelled)

	_, hit := g.PointerPoint()
	assert.False(t, hit)

	// Drift is presentation only
	assert.InDelta(t, 30*0.0003, g.Scene().CloudRotation(), 1e-6)
	assert.True(t, f.TakeDirty())
}

func TestPointerAtCenterRepels(t *testing.T) {
	g := newTestGame(t, Options{Seed: 2})
	g.SetPointer(0, 0)

	for i := 0; i < 80; i++ {
		g.Update()
	}

	p, hit := g.PointerPoint()
	require.True(t, hit)
	assert.InDelta(t, 0, p.Z(), 1e-3, "hit lies on the tracking plane")
	assert.Positive(t, g.LastStep().Repelled)

	moved := 0
	f := g.Field()
	for i := range f.Positions {
		if f.Positions[i] != f.Rest[i] {
			moved++
		}
	}
	assert.Positive(t, moved)
}

func TestSameSeedSameRun(t *testing.T) {
	run := func(seed int64) []float32 {
		g := newTestGame(t, Options{Seed: seed})
		for i := 0; i < 60; i++ {
			if i == 10 {
				g.SetPointer(0.1, -0.1)
			}
			g.Update()
		}
		return append([]float32(nil), g.Field().Positions...)
	}

	a := run(7)
	b := run(7)
	c := run(8)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPauseStopsUpdates(t *testing.T) {
	g := newTestGame(t, Options{})
	g.Update()
	g.TogglePause()
	require.True(t, g.Paused())

	g.Update()
	g.Update()
	assert.Equal(t, int32(1), g.Tick())

	g.TogglePause()
	g.Update()
	assert.Equal(t, int32(2), g.Tick())
}

func TestStepsPerUpdate(t *testing.T) {
	g := newTestGame(t, Options{StepsPerUpdate: 3})
	g.Update()
	assert.Equal(t, int32(3), g.Tick())
}

func TestSetViewport(t *testing.T) {
	g := newTestGame(t, Options{})
	before := g.Scene().Plane()

	g.SetViewport(1000, 1000)
	assert.InDelta(t, 1, g.Camera().Aspect(), 1e-6)

	// Plane still faces the camera from the same place
	assert.Equal(t, before.Center, g.Scene().Plane().Center)

	// Invalid sizes are ignored
	g.SetViewport(0, 500)
	assert.InDelta(t, 1, g.Camera().Aspect(), 1e-6)

	// Pixel input maps through the new viewport: screen center is NDC origin
	g.SetPointerScreen(500, 500)
	for i := 0; i < 200; i++ {
		g.Update()
	}
	p, hit := g.PointerPoint()
	require.True(t, hit)
	assert.InDelta(t, 0, p.X(), 1e-3)
	assert.InDelta(t, 0, p.Y(), 1e-3)

	g.ResetPointer()
	for i := 0; i < 200; i++ {
		g.Update()
	}
	_, hit = g.PointerPoint()
	assert.False(t, hit)
}

func TestStatsWindowsAndOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	var windows []telemetry.WindowStats

	g, err := NewGameWithOptions(Options{
		Config:         testConfig(t),
		Seed:           3,
		OutputDir:      dir,
		StatsWindowSec: 0.5,
		StatsCallback: func(s telemetry.WindowStats) {
			windows = append(windows, s)
		},
	})
	require.NoError(t, err)

	g.SetPointer(0, 0)
	for i := 0; i < 65; i++ {
		g.Update()
	}
	g.Unload()

	require.Len(t, windows, 2)
	assert.Equal(t, int32(30), windows[0].WindowEndTick)
	assert.Equal(t, int32(60), windows[1].WindowEndTick)
	assert.Equal(t, 3000, windows[1].Particles)
	assert.Positive(t, windows[1].PointerHitRate)

	for _, name := range []string{"config.yaml", "stats.csv", "perf.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunHeadlessStopsAtMaxTicks(t *testing.T) {
	g := newTestGame(t, Options{Seed: 9, Headless: true})

	err := RunHeadless(context.Background(), g, DefaultHeadlessOptions(50))
	require.NoError(t, err)
	assert.Equal(t, int32(50), g.Tick())
}

func TestUpdateUntilStopsAtLimit(t *testing.T) {
	g := newTestGame(t, Options{StepsPerUpdate: 4})
	g.UpdateUntil(6)
	g.UpdateUntil(6)
	assert.Equal(t, int32(6), g.Tick())

	g.UpdateUntil(6)
	assert.Equal(t, int32(6), g.Tick(), "no steps once the limit is reached")
}

func TestRunHeadlessMaxTicksWithBatchedSteps(t *testing.T) {
	g := newTestGame(t, Options{Seed: 11, StepsPerUpdate: 3})

	require.NoError(t, RunHeadless(context.Background(), g, DefaultHeadlessOptions(10)))
	assert.Equal(t, int32(10), g.Tick())
}

func TestRunHeadlessStopsOnCancel(t *testing.T) {
	g := newTestGame(t, Options{Seed: 10, Headless: true})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	opts := DefaultHeadlessOptions(0)
	opts.DriverInterval = time.Millisecond
	require.NoError(t, RunHeadless(ctx, g, opts))
	assert.Positive(t, g.Tick())
}
