// Package renderer draws the particle field with raylib.
package renderer

import (
	"errors"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pointfield/camera"
	"github.com/pthm-cable/pointfield/field"
)

// ErrWindowNotReady is returned when a renderer is created before InitWindow.
var ErrWindowNotReady = errors.New("raylib window is not ready")

// spriteSize is the edge length of the generated point sprite in pixels.
const spriteSize = 64

// PointRenderer draws every particle as an additive, camera-facing sprite.
type PointRenderer struct {
	sprite rl.Texture2D
	colors []rl.Color
	size   float32
	cam    rl.Camera3D

	// Rotated positions, rebuilt when the field or rotation changes
	points  []rl.Vector3
	lastRot float32

	initialized bool
}

// NewPointRenderer builds the point sprite and per-particle tints. Colors are
// read once; positions are re-read when the field is dirty. Requires an open
// window.
func NewPointRenderer(f *field.Field, size, opacity float32) (*PointRenderer, error) {
	if !rl.IsWindowReady() {
		return nil, ErrWindowNotReady
	}

	alpha := uint8(clamp01(opacity) * 255)
	colors := make([]rl.Color, f.Len())
	for i := range colors {
		c := f.Color(i)
		colors[i] = rl.Color{
			R: uint8(clamp01(c.R) * 255),
			G: uint8(clamp01(c.G) * 255),
			B: uint8(clamp01(c.B) * 255),
			A: alpha,
		}
	}

	r := &PointRenderer{
		colors: colors,
		size:   size,
		points: make([]rl.Vector3, f.Len()),
	}
	r.rebuild(f, 0)
	r.Init()
	return r, nil
}

// Init generates the radial-gradient sprite (opaque center fading to clear).
func (r *PointRenderer) Init() {
	if r.initialized {
		return
	}

	img := rl.GenImageGradientRadial(spriteSize, spriteSize, 0, rl.White, rl.Blank)
	r.sprite = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(r.sprite, rl.FilterBilinear)

	r.initialized = true
}

// SyncCamera copies the simulation camera so sprites face the same viewpoint
// the pointer is projected from.
func (r *PointRenderer) SyncCamera(c *camera.Camera) {
	r.cam = rl.Camera3D{
		Position:   rl.NewVector3(c.Position.X(), c.Position.Y(), c.Position.Z()),
		Target:     rl.NewVector3(c.Target.X(), c.Target.Y(), c.Target.Z()),
		Up:         rl.NewVector3(c.Up.X(), c.Up.Y(), c.Up.Z()),
		Fovy:       c.FovY,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the field rotated by rotY radians about the vertical axis. The
// rotation is applied to drawn positions only; the field is not modified.
func (r *PointRenderer) Draw(f *field.Field, rotY float32) {
	if !r.initialized {
		r.Init()
	}

	if f.TakeDirty() || rotY != r.lastRot {
		r.rebuild(f, rotY)
	}

	rl.BeginMode3D(r.cam)
	rl.BeginBlendMode(rl.BlendAdditive)
	for i, p := range r.points {
		rl.DrawBillboard(r.cam, r.sprite, p, r.size, r.colors[i])
	}
	rl.EndBlendMode()
	rl.EndMode3D()
}

// rebuild rotates the field's positions about Y into the draw buffer.
func (r *PointRenderer) rebuild(f *field.Field, rotY float32) {
	sin, cos := math.Sincos(float64(rotY))
	s, c := float32(sin), float32(cos)

	pos := f.Positions
	n := min(f.Len(), len(r.points))
	for i := 0; i < n; i++ {
		i3 := i * 3
		x, y, z := pos[i3], pos[i3+1], pos[i3+2]
		r.points[i] = rl.NewVector3(c*x+s*z, y, -s*x+c*z)
	}
	r.lastRot = rotY
}

// Unload frees resources.
func (r *PointRenderer) Unload() {
	if r.initialized {
		rl.UnloadTexture(r.sprite)
		r.initialized = false
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
