// Package field owns the particle buffers of the point cloud.
//
// Particles are rows in parallel structure-of-arrays buffers. Vector attributes
// are interleaved x,y,z so Positions can be handed to a renderer as-is.
package field

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/pointfield/config"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidParams is wrapped by every construction failure.
var ErrInvalidParams = errors.New("invalid field params")

// Distribution shape of rest positions.
const (
	BoxProbability  = 0.7
	BoxHalfX        = 7.5
	BoxHalfY        = 5.0
	BoxHalfZ        = 2.0
	SphereMaxRadius = 5.0
)

// Params configures field construction.
type Params struct {
	Count          int
	InfluenceRatio float64
	Palette        []config.RGB
}

// ParamsFromConfig extracts field params from the loaded config.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Count:          cfg.Field.Count,
		InfluenceRatio: cfg.Field.InfluenceRatio,
		Palette:        cfg.Derived.Palette,
	}
}

// Vec3 is one row of a vector buffer.
type Vec3 struct {
	X, Y, Z float32
}

// Particle is a copy of a single row across all buffers.
type Particle struct {
	Position   Vec3
	Rest       Vec3
	Velocity   Vec3
	Color      config.RGB
	Influenced bool
}

// Field holds N particles as parallel buffers of equal row count.
type Field struct {
	Positions  []float32 // 3N, mutated every frame
	Rest       []float32 // 3N, immutable after New
	Velocities []float32 // 3N, carried across frames
	Colors     []float32 // 3N, immutable after New
	Influenced []bool    // N, immutable after New

	n     int
	dirty bool
}

// New builds a field of params.Count particles sampled from src.
// The same source state always yields the same field.
func New(params Params, src rand.Source) (*Field, error) {
	if params.Count <= 0 {
		return nil, fmt.Errorf("particle count must be > 0, got %d: %w", params.Count, ErrInvalidParams)
	}
	if len(params.Palette) == 0 {
		return nil, fmt.Errorf("palette must not be empty: %w", ErrInvalidParams)
	}
	if params.InfluenceRatio < 0 || params.InfluenceRatio > 1 {
		return nil, fmt.Errorf("influence ratio must be in [0,1], got %g: %w", params.InfluenceRatio, ErrInvalidParams)
	}

	f := Alloc(params.Count)
	newSampler(params, src).fill(f)
	f.dirty = true
	return f, nil
}

// Alloc returns a zeroed field of n particles. Used by hosts that seed rows
// themselves via SetParticle.
func Alloc(n int) *Field {
	if n <= 0 {
		panic(fmt.Sprintf("field: Alloc(%d)", n))
	}
	return &Field{
		Positions:  make([]float32, 3*n),
		Rest:       make([]float32, 3*n),
		Velocities: make([]float32, 3*n),
		Colors:     make([]float32, 3*n),
		Influenced: make([]bool, n),
		n:          n,
	}
}

// Len returns the particle count.
func (f *Field) Len() int {
	return f.n
}

// CheckInvariants panics if any buffer disagrees with the particle count.
func (f *Field) CheckInvariants() {
	n3 := 3 * f.n
	if len(f.Positions) != n3 || len(f.Rest) != n3 || len(f.Velocities) != n3 ||
		len(f.Colors) != n3 || len(f.Influenced) != f.n {
		panic(fmt.Sprintf("field: buffer length mismatch (n=%d pos=%d rest=%d vel=%d col=%d infl=%d)",
			f.n, len(f.Positions), len(f.Rest), len(f.Velocities), len(f.Colors), len(f.Influenced)))
	}
}

// row returns the base offset of particle i in the vector buffers.
func (f *Field) row(i int) int {
	if i < 0 || i >= f.n {
		panic(fmt.Sprintf("field: index %d out of range [0,%d)", i, f.n))
	}
	return 3 * i
}

func vecAt(buf []float32, o int) Vec3 {
	return Vec3{buf[o], buf[o+1], buf[o+2]}
}

func setVec(buf []float32, o int, v Vec3) {
	buf[o], buf[o+1], buf[o+2] = v.X, v.Y, v.Z
}

// Position returns the current position of particle i.
func (f *Field) Position(i int) Vec3 { return vecAt(f.Positions, f.row(i)) }

// RestPosition returns the rest position of particle i.
func (f *Field) RestPosition(i int) Vec3 { return vecAt(f.Rest, f.row(i)) }

// Velocity returns the velocity of particle i.
func (f *Field) Velocity(i int) Vec3 { return vecAt(f.Velocities, f.row(i)) }

// Color returns the color of particle i.
func (f *Field) Color(i int) config.RGB {
	o := f.row(i)
	return config.RGB{R: f.Colors[o], G: f.Colors[o+1], B: f.Colors[o+2]}
}

// IsInfluenced reports whether pointer repulsion applies to particle i.
func (f *Field) IsInfluenced(i int) bool {
	f.row(i)
	return f.Influenced[i]
}

// Particle returns a copy of row i.
func (f *Field) Particle(i int) Particle {
	return Particle{
		Position:   f.Position(i),
		Rest:       f.RestPosition(i),
		Velocity:   f.Velocity(i),
		Color:      f.Color(i),
		Influenced: f.IsInfluenced(i),
	}
}

// SetParticle overwrites row i. Only meant for setup before the frame loop.
func (f *Field) SetParticle(i int, p Particle) {
	o := f.row(i)
	setVec(f.Positions, o, p.Position)
	setVec(f.Rest, o, p.Rest)
	setVec(f.Velocities, o, p.Velocity)
	f.Colors[o], f.Colors[o+1], f.Colors[o+2] = p.Color.R, p.Color.G, p.Color.B
	f.Influenced[i] = p.Influenced
	f.dirty = true
}

// InfluencedCount returns how many particles react to the pointer.
func (f *Field) InfluencedCount() int {
	count := 0
	for _, in := range f.Influenced {
		if in {
			count++
		}
	}
	return count
}

// MarkDirty flags Positions as changed since the last TakeDirty.
func (f *Field) MarkDirty() {
	f.dirty = true
}

// TakeDirty reports whether Positions changed and clears the flag.
func (f *Field) TakeDirty() bool {
	d := f.dirty
	f.dirty = false
	return d
}

// sampler draws rest positions, colors and influence flags.
type sampler struct {
	palette []config.RGB
	rng     *rand.Rand

	branch    distuv.Uniform
	boxX      distuv.Uniform
	boxY      distuv.Uniform
	boxZ      distuv.Uniform
	radius    distuv.Uniform
	azimuth   distuv.Uniform
	cosPolar  distuv.Uniform
	influence distuv.Bernoulli
}

func newSampler(params Params, src rand.Source) *sampler {
	return &sampler{
		palette:   params.Palette,
		rng:       rand.New(src),
		branch:    distuv.Uniform{Min: 0, Max: 1, Src: src},
		boxX:      distuv.Uniform{Min: -BoxHalfX, Max: BoxHalfX, Src: src},
		boxY:      distuv.Uniform{Min: -BoxHalfY, Max: BoxHalfY, Src: src},
		boxZ:      distuv.Uniform{Min: -BoxHalfZ, Max: BoxHalfZ, Src: src},
		radius:    distuv.Uniform{Min: 0, Max: SphereMaxRadius, Src: src},
		azimuth:   distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src},
		cosPolar:  distuv.Uniform{Min: -1, Max: 1, Src: src},
		influence: distuv.Bernoulli{P: params.InfluenceRatio, Src: src},
	}
}

func (s *sampler) fill(f *Field) {
	for i := 0; i < f.n; i++ {
		o := 3 * i
		rest := s.restPosition()
		setVec(f.Rest, o, rest)
		setVec(f.Positions, o, rest)

		c := s.palette[s.rng.IntN(len(s.palette))]
		f.Colors[o], f.Colors[o+1], f.Colors[o+2] = c.R, c.G, c.B

		f.Influenced[i] = s.influence.Rand() == 1
	}
}

// restPosition picks the wide box most of the time and the dense center
// sphere otherwise. The sphere radius is uniform, not cube-root scaled, so the
// sphere is denser toward its center.
func (s *sampler) restPosition() Vec3 {
	if s.branch.Rand() > 1-BoxProbability {
		return Vec3{
			X: float32(s.boxX.Rand()),
			Y: float32(s.boxY.Rand()),
			Z: float32(s.boxZ.Rand()),
		}
	}

	r := s.radius.Rand()
	theta := s.azimuth.Rand()
	phi := math.Acos(s.cosPolar.Rand())
	sinPhi := math.Sin(phi)
	return Vec3{
		X: float32(r * sinPhi * math.Cos(theta)),
		Y: float32(r * sinPhi * math.Sin(theta)),
		Z: float32(r * math.Cos(phi)),
	}
}
