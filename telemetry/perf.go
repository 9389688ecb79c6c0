package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one stage of a simulation step.
type Phase int

// Phases of a simulation step, in execution order.
const (
	PhaseSmooth Phase = iota
	PhaseProject
	PhaseIntegrate
	PhaseDrift
	PhaseTelemetry

	NumPhases
)

var phaseNames = [NumPhases]string{"smooth", "project", "integrate", "drift", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// FrameSample is the cost of one simulation step.
type FrameSample struct {
	Total    time.Duration
	Phases   [NumPhases]time.Duration
	Repelled int
}

// PerfCollector keeps a ring of recent step samples and turns them into
// per-phase and per-particle costs.
type PerfCollector struct {
	particles int
	ring      []FrameSample
	next      int
	filled    int

	// In-flight step
	cur        FrameSample
	stepStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize steps of a
// field with the given particle count.
func NewPerfCollector(windowSize, particles int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		particles: particles,
		ring:      make([]FrameSample, windowSize),
	}
}

// StartTick begins timing a step.
func (p *PerfCollector) StartTick() {
	p.stepStart = time.Now()
	p.cur = FrameSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and opens ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = ph
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.Phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick closes the step and records it with the number of particles the
// integrator repelled.
func (p *PerfCollector) EndTick(repelled int) {
	now := time.Now()
	p.closePhase(now)
	p.cur.Total = now.Sub(p.stepStart)
	p.cur.Repelled = repelled
	p.Add(p.cur)
}

// Add records a finished sample, evicting the oldest once the window is full.
func (p *PerfCollector) Add(s FrameSample) {
	p.ring[p.next] = s
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

// RecordFrame marks a presented frame; the gap to the previous call is the
// frame time.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats aggregates the samples currently in the window.
type PerfStats struct {
	Samples int

	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // Share of step time

	NsPerParticle  float64 // Integrate phase cost per particle
	RepelledPerSec float64 // Repulsions applied per second of step time

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Samples:       p.filled,
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	var phaseSum [NumPhases]time.Duration
	repelled := 0
	for i, smp := range p.ring[:p.filled] {
		total += smp.Total
		if i == 0 || smp.Total < s.MinTickDuration {
			s.MinTickDuration = smp.Total
		}
		s.MaxTickDuration = max(s.MaxTickDuration, smp.Total)
		for ph, d := range smp.Phases {
			phaseSum[ph] += d
		}
		repelled += smp.Repelled
	}

	n := time.Duration(p.filled)
	s.AvgTickDuration = total / n
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if total > 0 {
			s.PhasePct[ph] = float64(phaseSum[ph]) / float64(total) * 100
		}
	}

	if total > 0 {
		s.TicksPerSecond = float64(p.filled) / total.Seconds()
		s.RepelledPerSec = float64(repelled) / total.Seconds()
	}
	if p.particles > 0 {
		s.NsPerParticle = float64(s.PhaseAvg[PhaseIntegrate].Nanoseconds()) / float64(p.particles)
	}
	return s
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("samples", s.Samples),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("ns_per_particle", s.NsPerParticle),
		slog.Float64("repelled_per_sec", s.RepelledPerSec),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph := Phase(0); ph < NumPhases; ph++ {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	NsPerParticle  float64 `csv:"ns_per_particle"`
	RepelledPerSec float64 `csv:"repelled_per_sec"`
	FPS            float64 `csv:"fps"`
	SmoothPct      float64 `csv:"smooth_pct"`
	ProjectPct     float64 `csv:"project_pct"`
	IntegratePct   float64 `csv:"integrate_pct"`
	DriftPct       float64 `csv:"drift_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		MinTickUS:      s.MinTickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		NsPerParticle:  s.NsPerParticle,
		RepelledPerSec: s.RepelledPerSec,
		FPS:            s.FPS,
		SmoothPct:      s.PhasePct[PhaseSmooth],
		ProjectPct:     s.PhasePct[PhaseProject],
		IntegratePct:   s.PhasePct[PhaseIntegrate],
		DriftPct:       s.PhasePct[PhaseDrift],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
