package systems

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pointfield/config"
	"github.com/pthm-cable/pointfield/field"
)

// Kernel selects the integration implementation.
type Kernel uint8

const (
	// KernelScalar updates each particle in one pass, chunked across workers.
	KernelScalar Kernel = iota
	// KernelBLAS applies the linear terms as whole-buffer blas32 passes.
	KernelBLAS
)

// ParseKernel maps a config name to a Kernel.
func ParseKernel(name string) (Kernel, error) {
	switch name {
	case "scalar", "":
		return KernelScalar, nil
	case "blas":
		return KernelBLAS, nil
	}
	return 0, fmt.Errorf("unknown kernel %q", name)
}

func (k Kernel) String() string {
	if k == KernelBLAS {
		return "blas"
	}
	return "scalar"
}

// Force coefficient defaults.
const (
	DefaultRepulsion = 0.04
	DefaultRestore   = 0.012
	DefaultFriction  = 0.88
)

// IntegratorParams holds the per-frame force coefficients.
type IntegratorParams struct {
	Range     float32 // Pointer influence radius
	Repulsion float32 // Scale applied to the raw offset from the pointer
	Restore   float32 // Spring coefficient toward the rest position
	Friction  float32 // Velocity multiplier applied after forces
	Kernel    Kernel
}

// DefaultIntegratorParams returns the standard coefficients for a given range.
func DefaultIntegratorParams(r float32) IntegratorParams {
	return IntegratorParams{
		Range:     r,
		Repulsion: DefaultRepulsion,
		Restore:   DefaultRestore,
		Friction:  DefaultFriction,
	}
}

// IntegratorParamsFromConfig builds params from the loaded config.
func IntegratorParamsFromConfig(cfg *config.Config) (IntegratorParams, error) {
	kernel, err := ParseKernel(cfg.Physics.Kernel)
	if err != nil {
		return IntegratorParams{}, err
	}
	return IntegratorParams{
		Range:     cfg.Derived.Range32,
		Repulsion: float32(cfg.Physics.Repulsion),
		Restore:   float32(cfg.Physics.Restore),
		Friction:  float32(cfg.Physics.Friction),
		Kernel:    kernel,
	}, nil
}

// StepStats summarizes one integration step.
type StepStats struct {
	Repelled int // Particles inside the pointer range that received repulsion
}

// Integrator advances particle velocities and positions by one frame.
type Integrator struct {
	params  IntegratorParams
	rangeSq float32
	pool    *WorkerPool
}

// NewIntegrator creates an integrator. pool may be nil for single-threaded use.
func NewIntegrator(params IntegratorParams, pool *WorkerPool) *Integrator {
	if params.Range <= 0 {
		panic(fmt.Sprintf("systems: integrator range must be > 0, got %f", params.Range))
	}
	return &Integrator{
		params:  params,
		rangeSq: params.Range * params.Range,
		pool:    pool,
	}
}

// Params returns the integrator coefficients.
func (in *Integrator) Params() IntegratorParams {
	return in.params
}

// Step applies repulsion, restoring force, friction and integration to every
// particle exactly once. Particles are independent; each row reads only itself
// and the shared pointer point.
func (in *Integrator) Step(f *field.Field, pointer mgl32.Vec3) StepStats {
	f.CheckInvariants()

	if in.params.Kernel == KernelBLAS {
		return in.stepBLAS(f, pointer)
	}

	n := f.Len()
	px, py, pz := pointer[0], pointer[1], pointer[2]
	if in.pool == nil {
		return StepStats{Repelled: in.stepRange(f, 0, n, px, py, pz)}
	}
	repelled := in.pool.Run(n, func(start, end int) int {
		return in.stepRange(f, start, end, px, py, pz)
	})
	return StepStats{Repelled: repelled}
}

// stepRange runs the full per-particle update for rows [i0, i1).
func (in *Integrator) stepRange(f *field.Field, i0, i1 int, px, py, pz float32) int {
	pos := f.Positions
	rest := f.Rest
	vel := f.Velocities
	influenced := f.Influenced

	r := in.params.Range
	rangeSq := in.rangeSq
	repulsion := in.params.Repulsion
	restore := in.params.Restore
	friction := in.params.Friction

	repelled := 0
	for i := i0; i < i1; i++ {
		i3 := i * 3
		x, y, z := pos[i3], pos[i3+1], pos[i3+2]
		vx, vy, vz := vel[i3], vel[i3+1], vel[i3+2]

		if influenced[i] {
			ix, iy, iz, ok := repulse(x-px, y-py, z-pz, r, rangeSq, repulsion)
			if ok {
				vx += ix
				vy += iy
				vz += iz
				repelled++
			}
		}

		// Pull back toward rest
		vx += (rest[i3] - x) * restore
		vy += (rest[i3+1] - y) * restore
		vz += (rest[i3+2] - z) * restore

		// Friction damps this frame's forces too
		vx *= friction
		vy *= friction
		vz *= friction

		vel[i3], vel[i3+1], vel[i3+2] = vx, vy, vz
		pos[i3], pos[i3+1], pos[i3+2] = x+vx, y+vy, z+vz
	}
	return repelled
}

// repulse returns the velocity impulse for a particle at offset d from the
// pointer. The force falls off linearly from 1 at the pointer to 0 at r and
// scales the raw offset, so a particle exactly on the pointer gets a zero
// impulse rather than a division by zero.
func repulse(dx, dy, dz, r, rangeSq, strength float32) (ix, iy, iz float32, ok bool) {
	distSq := dx*dx + dy*dy + dz*dz
	if distSq >= rangeSq {
		return 0, 0, 0, false
	}
	dist := float32(math.Sqrt(float64(distSq)))
	force := (r - dist) / r * strength
	return dx * force, dy * force, dz * force, true
}
