package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/pointfield/field"
)

// WindowStats holds aggregated field statistics for a window of frames.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Particles  int `csv:"particles"`
	Influenced int `csv:"influenced"`

	// Pointer activity during the window
	RepelledMean   float64 `csv:"repelled_mean"`
	RepelledPeak   int     `csv:"repelled_peak"`
	PointerHitRate float64 `csv:"pointer_hit_rate"` // Fraction of frames the ray hit the plane

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Distance from rest (sampled at window end)
	DisplacementMean float64 `csv:"displacement_mean"`
	DisplacementP50  float64 `csv:"displacement_p50"`
	DisplacementP90  float64 `csv:"displacement_p90"`
	DisplacementMax  float64 `csv:"displacement_max"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P50, P90, Max float64
}

// ComputeDistribution sorts values in place and returns its summary.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	sort.Float64s(values)

	return Distribution{
		Mean: mean,
		Std:  std,
		P50:  Percentile(values, 0.50),
		P90:  Percentile(values, 0.90),
		Max:  floats.Max(values),
	}
}

// FieldSample fills speeds and displacements (each of length f.Len()) with
// per-particle |velocity| and |position - rest|.
func FieldSample(f *field.Field, speeds, displacements []float64) {
	pos, rest, vel := f.Positions, f.Rest, f.Velocities
	for i := 0; i < f.Len(); i++ {
		i3 := i * 3
		vx, vy, vz := float64(vel[i3]), float64(vel[i3+1]), float64(vel[i3+2])
		speeds[i] = math.Sqrt(vx*vx + vy*vy + vz*vz)

		dx := float64(pos[i3] - rest[i3])
		dy := float64(pos[i3+1] - rest[i3+1])
		dz := float64(pos[i3+2] - rest[i3+2])
		displacements[i] = math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("influenced", s.Influenced),
		slog.Float64("repelled_mean", s.RepelledMean),
		slog.Int("repelled_peak", s.RepelledPeak),
		slog.Float64("pointer_hit_rate", s.PointerHitRate),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("displacement_mean", s.DisplacementMean),
		slog.Float64("displacement_p50", s.DisplacementP50),
		slog.Float64("displacement_p90", s.DisplacementP90),
		slog.Float64("displacement_max", s.DisplacementMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"influenced", s.Influenced,
		"repelled_mean", s.RepelledMean,
		"repelled_peak", s.RepelledPeak,
		"pointer_hit_rate", s.PointerHitRate,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"speed_max", s.SpeedMax,
		"displacement_mean", s.DisplacementMean,
		"displacement_p90", s.DisplacementP90,
		"displacement_max", s.DisplacementMax,
	)
}
