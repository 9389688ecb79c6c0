package systems

import (
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/pointfield/field"
)

// stepBLAS performs the same update as stepRange, reordered into whole-buffer
// passes. Repulsion reads pre-step positions, which the later passes leave
// untouched until the final Axpy, so the result matches the scalar kernel up
// to float rounding.
func (in *Integrator) stepBLAS(f *field.Field, pointer mgl32.Vec3) StepStats {
	n3 := 3 * f.Len()
	pos := blas32.Vector{N: n3, Inc: 1, Data: f.Positions}
	rest := blas32.Vector{N: n3, Inc: 1, Data: f.Rest}
	vel := blas32.Vector{N: n3, Inc: 1, Data: f.Velocities}

	// Pass 1: repulsion (influenced rows only)
	px, py, pz := pointer[0], pointer[1], pointer[2]
	repelChunk := func(start, end int) int {
		return in.repelRange(f, start, end, px, py, pz)
	}
	var repelled int
	if in.pool == nil {
		repelled = repelChunk(0, f.Len())
	} else {
		repelled = in.pool.Run(f.Len(), repelChunk)
	}

	// Pass 2: vel += restore*rest - restore*pos
	blas32.Axpy(in.params.Restore, rest, vel)
	blas32.Axpy(-in.params.Restore, pos, vel)

	// Pass 3: friction
	blas32.Scal(in.params.Friction, vel)

	// Pass 4: pos += vel
	blas32.Axpy(1, vel, pos)

	return StepStats{Repelled: repelled}
}

// repelRange adds the pointer impulse to influenced rows in [i0, i1).
func (in *Integrator) repelRange(f *field.Field, i0, i1 int, px, py, pz float32) int {
	pos := f.Positions
	vel := f.Velocities
	influenced := f.Influenced

	repelled := 0
	for i := i0; i < i1; i++ {
		if !influenced[i] {
			continue
		}
		i3 := i * 3
		ix, iy, iz, ok := repulse(pos[i3]-px, pos[i3+1]-py, pos[i3+2]-pz, in.params.Range, in.rangeSq, in.params.Repulsion)
		if !ok {
			continue
		}
		vel[i3] += ix
		vel[i3+1] += iy
		vel[i3+2] += iz
		repelled++
	}
	return repelled
}
