// Package game wires the particle field, pointer, integrator and scene into a
// frame loop driven by the caller.
package game

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pointfield/camera"
	"github.com/pthm-cable/pointfield/config"
	"github.com/pthm-cable/pointfield/field"
	"github.com/pthm-cable/pointfield/pointer"
	"github.com/pthm-cable/pointfield/scene"
	"github.com/pthm-cable/pointfield/systems"
	"github.com/pthm-cable/pointfield/telemetry"
)

// seedStream is the PCG stream selector paired with the user seed.
const seedStream = 0x9e3779b97f4a7c15

// Options configures a new game.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // empty = no CSV output
	Headless       bool
	StepsPerUpdate int // Simulation steps per Update call (min 1)

	// Called with every flushed stats window, if set.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the simulation state.
type Game struct {
	cfg  *config.Config
	seed int64

	field      *field.Field
	camera     *camera.Camera
	tracker    *pointer.Tracker
	pool       *systems.WorkerPool
	integrator *systems.Integrator
	scene      *scene.Scene
	influenced int

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	paused         bool
	stepsPerUpdate int
	tick           int32
	lastStep       systems.StepStats
}

// NewGameWithOptions builds the field and every collaborator from config.
// The config is validated and its derived values recomputed, so fields set by
// the caller take effect. Configuration errors are returned before anything is
// allocated.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if err := cfg.Prepare(); err != nil {
		return nil, err
	}

	params, err := systems.IntegratorParamsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("integrator: %w", err)
	}

	src := rand.NewPCG(uint64(opts.Seed), seedStream)
	f, err := field.New(field.ParamsFromConfig(cfg), src)
	if err != nil {
		return nil, fmt.Errorf("building field: %w", err)
	}

	w, h := float32(cfg.Screen.Width), float32(cfg.Screen.Height)
	cam := camera.New(w, h,
		float32(cfg.Camera.Distance),
		float32(cfg.Camera.FovY),
		float32(cfg.Camera.Near),
		float32(cfg.Camera.Far),
	)

	tracker := pointer.New(
		float32(cfg.Pointer.Smoothing),
		float32(cfg.Pointer.Sentinel),
		float32(cfg.Pointer.MissPoint),
	)
	tracker.SetViewport(w, h)

	pool := systems.NewWorkerPool(cfg.Parallel.Workers, cfg.Parallel.Threshold)

	statsFrames := cfg.Derived.StatsFrames
	if opts.StatsWindowSec > 0 {
		statsFrames = int(opts.StatsWindowSec * float64(cfg.Screen.TargetFPS))
	}
	dt := float32(1.0 / 60)
	if cfg.Screen.TargetFPS > 0 {
		dt = 1 / float32(cfg.Screen.TargetFPS)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:            cfg,
		seed:           opts.Seed,
		field:          f,
		camera:         cam,
		tracker:        tracker,
		pool:           pool,
		integrator:     systems.NewIntegrator(params, pool),
		influenced:     f.InfluencedCount(),
		scene:          scene.New(float32(cfg.Scene.DriftRate), camera.FacingCamera(cam, float32(cfg.Camera.PlaneSize))),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow, f.Len()),
		collector:      telemetry.NewCollector(statsFrames, dt),
		outputManager:  om,
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		stepsPerUpdate: steps,
	}

	slog.Info("field initialized",
		"count", f.Len(),
		"influenced", g.influenced,
		"seed", opts.Seed,
		"kernel", params.Kernel.String(),
		"workers", pool.Workers(),
		"headless", opts.Headless,
	)

	return g, nil
}

// Update advances the simulation by StepsPerUpdate frames unless paused.
// Must be called from a single goroutine.
func (g *Game) Update() {
	g.UpdateUntil(0)
}

// UpdateUntil is Update, but never runs the tick count past limit.
// A limit of 0 means no limit.
func (g *Game) UpdateUntil(limit int32) {
	if g.paused {
		return
	}
	steps := g.stepsPerUpdate
	if limit > 0 {
		steps = min(steps, int(limit-g.tick))
	}
	for i := 0; i < steps; i++ {
		g.simulationStep()
	}
}

// simulationStep runs one frame: smoothing, projection, integration, then drift.
func (g *Game) simulationStep() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseSmooth)
	g.tracker.Smooth()

	g.perfCollector.StartPhase(telemetry.PhaseProject)
	point, hit := g.tracker.Project(g.camera, g.scene.Plane())

	g.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	g.lastStep = g.integrator.Step(g.field, point)
	g.field.MarkDirty()

	g.perfCollector.StartPhase(telemetry.PhaseDrift)
	g.scene.Update()

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordStep(g.lastStep.Repelled, hit)
	g.flushTelemetry()

	g.perfCollector.EndTick(g.lastStep.Repelled)
}

// SetPointer records a raw pointer position in normalized device coordinates.
// Safe to call from any goroutine.
func (g *Game) SetPointer(x, y float32) {
	g.tracker.SetRaw(x, y)
}

// SetPointerScreen records a raw pointer position in window pixels.
// Safe to call from any goroutine.
func (g *Game) SetPointerScreen(px, py float32) {
	g.tracker.SetRawFromScreen(px, py)
}

// ResetPointer sends the pointer target back off screen.
func (g *Game) ResetPointer() {
	g.tracker.Reset()
}

// SetViewport updates the camera aspect, pixel normalization and tracking
// plane after a resize. Frame-loop goroutine only.
func (g *Game) SetViewport(w, h float32) {
	if w <= 0 || h <= 0 {
		return
	}
	g.camera.Resize(w, h)
	g.tracker.SetViewport(w, h)
	g.scene.SetPlane(camera.FacingCamera(g.camera, float32(g.cfg.Camera.PlaneSize)))
}

// TogglePause flips the paused state.
func (g *Game) TogglePause() {
	g.paused = !g.paused
}

// Paused reports whether Update is a no-op.
func (g *Game) Paused() bool {
	return g.paused
}

// Field returns the particle buffers for presentation.
func (g *Game) Field() *field.Field {
	return g.field
}

// Camera returns the camera used for pointer projection.
func (g *Game) Camera() *camera.Camera {
	return g.camera
}

// Scene returns the presentation entities.
func (g *Game) Scene() *scene.Scene {
	return g.scene
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// PointerPoint returns the last projected pointer point and whether it hit.
func (g *Game) PointerPoint() (mgl32.Vec3, bool) {
	return g.tracker.Point()
}

// LastStep returns the stats of the most recent integration step.
func (g *Game) LastStep() systems.StepStats {
	return g.lastStep
}

// Influenced returns how many particles react to the pointer. Fixed at build.
func (g *Game) Influenced() int {
	return g.influenced
}

// PerfStats returns the rolling frame phase breakdown.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// RecordFrame feeds render-loop frame timing to the perf collector.
func (g *Game) RecordFrame() {
	g.perfCollector.RecordFrame()
}

// Unload stops the worker pool and closes output files.
func (g *Game) Unload() {
	g.pool.Stop()

	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// Tick returns the number of simulation steps run so far.
func (g *Game) Tick() int32 {
	return g.tick
}

// Seed returns the RNG seed the field was built from.
func (g *Game) Seed() int64 {
	return g.seed
}
