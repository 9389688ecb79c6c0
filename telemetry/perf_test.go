package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(smooth, integrate time.Duration, repelled int) FrameSample {
	s := FrameSample{Total: smooth + integrate, Repelled: repelled}
	s.Phases[PhaseSmooth] = smooth
	s.Phases[PhaseIntegrate] = integrate
	return s
}

func TestPerfStatsFromSamples(t *testing.T) {
	pc := NewPerfCollector(10, 1000)
	pc.Add(sample(100*time.Microsecond, 900*time.Microsecond, 50))
	pc.Add(sample(300*time.Microsecond, 2700*time.Microsecond, 150))

	s := pc.Stats()
	assert.Equal(t, 2, s.Samples)
	assert.Equal(t, 2*time.Millisecond, s.AvgTickDuration)
	assert.Equal(t, time.Millisecond, s.MinTickDuration)
	assert.Equal(t, 3*time.Millisecond, s.MaxTickDuration)
	assert.Equal(t, 1800*time.Microsecond, s.PhaseAvg[PhaseIntegrate])

	assert.InDelta(t, 10, s.PhasePct[PhaseSmooth], 1e-9)
	assert.InDelta(t, 90, s.PhasePct[PhaseIntegrate], 1e-9)
	assert.Zero(t, s.PhasePct[PhaseDrift])

	// 2 steps in 4ms of step time
	assert.InDelta(t, 500, s.TicksPerSecond, 1e-6)
	// 200 repulsions in 4ms
	assert.InDelta(t, 50000, s.RepelledPerSec, 1e-6)
	// 1800us of integration over 1000 particles
	assert.InDelta(t, 1800, s.NsPerParticle, 1e-9)
}

func TestPerfWindowEvictsOldest(t *testing.T) {
	pc := NewPerfCollector(2, 10)
	pc.Add(sample(0, 10*time.Millisecond, 0))
	pc.Add(sample(0, time.Millisecond, 0))
	pc.Add(sample(0, 3*time.Millisecond, 0))

	s := pc.Stats()
	assert.Equal(t, 2, s.Samples)
	assert.Equal(t, 2*time.Millisecond, s.AvgTickDuration)
	assert.Equal(t, 3*time.Millisecond, s.MaxTickDuration)
}

func TestPerfEmptyWindow(t *testing.T) {
	s := NewPerfCollector(10, 100).Stats()
	assert.Zero(t, s.Samples)
	assert.Zero(t, s.AvgTickDuration)
	assert.Zero(t, s.NsPerParticle)
	assert.Zero(t, s.TicksPerSecond)
}

func TestPerfZeroParticles(t *testing.T) {
	pc := NewPerfCollector(4, 0)
	pc.Add(sample(0, time.Millisecond, 0))
	assert.Zero(t, pc.Stats().NsPerParticle)
}

func TestPerfLiveTimingRecordsPhases(t *testing.T) {
	pc := NewPerfCollector(4, 100)

	pc.StartTick()
	pc.StartPhase(PhaseSmooth)
	pc.StartPhase(PhaseIntegrate)
	pc.EndTick(7)

	require.Equal(t, 1, pc.filled)
	got := pc.ring[0]
	assert.Equal(t, 7, got.Repelled)

	var phases time.Duration
	for _, d := range got.Phases {
		assert.GreaterOrEqual(t, d, time.Duration(0))
		phases += d
	}
	assert.LessOrEqual(t, phases, got.Total, "phases never exceed the step")
	assert.Zero(t, got.Phases[PhaseDrift], "unvisited phase stays zero")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "integrate", PhaseIntegrate.String())
	assert.Equal(t, "telemetry", PhaseTelemetry.String())
	assert.Equal(t, "unknown", NumPhases.String())
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		NsPerParticle:   12.5,
		RepelledPerSec:  3000,
	}
	s.PhasePct[PhaseIntegrate] = 80
	s.PhasePct[PhaseDrift] = 1

	row := s.ToCSV(600)
	assert.Equal(t, int32(600), row.WindowEnd)
	assert.Equal(t, int64(1500), row.AvgTickUS)
	assert.Equal(t, 12.5, row.NsPerParticle)
	assert.Equal(t, 3000.0, row.RepelledPerSec)
	assert.Equal(t, 80.0, row.IntegratePct)
	assert.Equal(t, 1.0, row.DriftPct)
	assert.Zero(t, row.SmoothPct)
}
