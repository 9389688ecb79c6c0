package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/pointfield/config"
	"github.com/pthm-cable/pointfield/field"
)

func testField() *field.Field {
	f := field.Alloc(2)
	f.SetParticle(0, field.Particle{
		Position:   field.Vec3{X: 3, Y: 4},
		Velocity:   field.Vec3{X: 0.3, Y: 0.4},
		Influenced: true,
	})
	f.SetParticle(1, field.Particle{
		Position: field.Vec3{Z: 1},
		Rest:     field.Vec3{Z: 1},
	})
	return f
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(3, 1.0/60)
	assert.Equal(t, int32(3), c.WindowDurationTicks())

	c.RecordStep(10, true)
	c.RecordStep(0, false)
	c.RecordStep(20, true)
	c.RecordStep(6, true)

	assert.False(t, c.ShouldFlush(2))
	assert.True(t, c.ShouldFlush(3))

	s := c.Flush(4, testField())
	assert.Equal(t, int32(0), s.WindowStartTick)
	assert.Equal(t, int32(4), s.WindowEndTick)
	assert.InDelta(t, 4.0/60, s.SimTimeSec, 1e-6)
	assert.Equal(t, 2, s.Particles)
	assert.Equal(t, 1, s.Influenced)
	assert.InDelta(t, 9, s.RepelledMean, 1e-9)
	assert.Equal(t, 20, s.RepelledPeak)
	assert.InDelta(t, 0.75, s.PointerHitRate, 1e-9)

	// Particle 0 is 5 from rest moving at 0.5; particle 1 is at rest
	assert.InDelta(t, 0.25, s.SpeedMean, 1e-6)
	assert.InDelta(t, 0.5, s.SpeedMax, 1e-6)
	assert.InDelta(t, 2.5, s.DisplacementMean, 1e-6)
	assert.InDelta(t, 5, s.DisplacementMax, 1e-6)

	// Counters reset, window advances
	assert.False(t, c.ShouldFlush(6))
	assert.True(t, c.ShouldFlush(7))
	s = c.Flush(7, testField())
	assert.Equal(t, int32(4), s.WindowStartTick)
	assert.Zero(t, s.RepelledPeak)
	assert.Zero(t, s.PointerHitRate)
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0, 1)
	assert.Equal(t, int32(1), c.WindowDurationTicks())
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// Nil manager accepts every call
	assert.NoError(t, om.WriteStats(WindowStats{}))
	assert.NoError(t, om.WritePerf(PerfStats{}, 0))
	assert.NoError(t, om.WriteConfig(config.Default()))
	assert.NoError(t, om.Close())
	assert.Empty(t, om.Dir())
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, om.Dir())

	require.NoError(t, om.WriteConfig(config.Default()))
	require.NoError(t, om.WriteStats(WindowStats{WindowEndTick: 600, Particles: 30000}))
	require.NoError(t, om.WriteStats(WindowStats{WindowEndTick: 1200, Particles: 30000}))
	require.NoError(t, om.WritePerf(PerfStats{NsPerParticle: 4}, 600))
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "one header and two rows")
	assert.True(t, strings.HasPrefix(lines[0], "window_end,sim_time,particles"))
	assert.True(t, strings.HasPrefix(lines[1], "600,"))
	assert.True(t, strings.HasPrefix(lines[2], "1200,"))

	data, err = os.ReadFile(filepath.Join(dir, "perf.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "integrate_pct")
	assert.Contains(t, string(data), "ns_per_particle")

	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 30000, cfg.Field.Count)
}

func TestFieldSample(t *testing.T) {
	f := testField()
	speeds := make([]float64, 2)
	disps := make([]float64, 2)
	FieldSample(f, speeds, disps)

	assert.InDelta(t, 0.5, speeds[0], 1e-6)
	assert.InDelta(t, 5, disps[0], 1e-6)
	assert.Zero(t, speeds[1])
	assert.Zero(t, disps[1])
	assert.False(t, math.IsNaN(speeds[0]))
}
