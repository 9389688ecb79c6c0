package telemetry

import "github.com/pthm-cable/pointfield/field"

// Collector accumulates per-frame pointer activity within time windows and
// produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	// Counters for the current window
	frames       int
	repelledSum  int
	repelledPeak int
	hitFrames    int

	// Scratch reused across flushes
	speeds        []float64
	displacements []float64
}

// NewCollector creates a new stats collector.
// windowTicks: frames per window; dt: seconds per frame.
func NewCollector(windowTicks int, dt float32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int32(windowTicks),
		dt:                  dt,
	}
}

// RecordStep records one frame's repelled count and whether the pointer ray
// hit the tracking plane.
func (c *Collector) RecordStep(repelled int, pointerHit bool) {
	c.frames++
	c.repelledSum += repelled
	if repelled > c.repelledPeak {
		c.repelledPeak = repelled
	}
	if pointerHit {
		c.hitFrames++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush samples f, produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, f *field.Field) WindowStats {
	n := f.Len()
	if cap(c.speeds) < n {
		c.speeds = make([]float64, n)
		c.displacements = make([]float64, n)
	}
	c.speeds = c.speeds[:n]
	c.displacements = c.displacements[:n]

	FieldSample(f, c.speeds, c.displacements)
	speed := ComputeDistribution(c.speeds)
	disp := ComputeDistribution(c.displacements)

	var repelledMean, hitRate float64
	if c.frames > 0 {
		repelledMean = float64(c.repelledSum) / float64(c.frames)
		hitRate = float64(c.hitFrames) / float64(c.frames)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Particles:  n,
		Influenced: f.InfluencedCount(),

		RepelledMean:   repelledMean,
		RepelledPeak:   c.repelledPeak,
		PointerHitRate: hitRate,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP90:  speed.P90,
		SpeedMax:  speed.Max,

		DisplacementMean: disp.Mean,
		DisplacementP50:  disp.P50,
		DisplacementP90:  disp.P90,
		DisplacementMax:  disp.Max,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.frames = 0
	c.repelledSum = 0
	c.repelledPeak = 0
	c.hitFrames = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
