// Package camera provides the perspective camera and tracking plane used to
// turn a 2D pointer into a 3D interaction point.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera looking at Target from Position.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	// Vertical field of view in degrees
	FovY float32

	Near, Far float32

	// Viewport dimensions (screen size), used for aspect and pixel conversion
	ViewportW, ViewportH float32
}

// New creates a camera on the +Z axis at the given distance, looking at the origin.
func New(viewportW, viewportH, distance, fovY, near, far float32) *Camera {
	return &Camera{
		Position:  mgl32.Vec3{0, 0, distance},
		Target:    mgl32.Vec3{0, 0, 0},
		Up:        mgl32.Vec3{0, 1, 0},
		FovY:      fovY,
		Near:      near,
		Far:       far,
		ViewportW: viewportW,
		ViewportH: viewportH,
	}
}

// Aspect returns the viewport width over height.
func (c *Camera) Aspect() float32 {
	if c.ViewportH == 0 {
		return 1
	}
	return c.ViewportW / c.ViewportH
}

// Resize updates viewport dimensions. The projection follows on the next call.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW <= 0 || viewportH <= 0 {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect(), c.Near, c.Far)
}

// Ray is a half-line with a normalized direction.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Ray casts from the camera through a point in normalized device coordinates
// ([-1,1] on both axes, +Y up).
func (c *Camera) Ray(ndcX, ndcY float32) Ray {
	invViewProj := c.Projection().Mul4(c.View()).Inv()

	nearWorld := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	farWorld := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})

	// Perspective divide
	nearWorld = nearWorld.Mul(1 / nearWorld[3])
	farWorld = farWorld.Mul(1 / farWorld[3])

	origin := nearWorld.Vec3()
	return Ray{
		Origin: origin,
		Dir:    farWorld.Vec3().Sub(origin).Normalize(),
	}
}

// WorldToNDC projects a world point to normalized device coordinates.
// ok is false for points behind the camera.
func (c *Camera) WorldToNDC(p mgl32.Vec3) (x, y float32, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	return clip[0] / clip[3], clip[1] / clip[3], true
}

// ScreenToNDC converts window pixels (origin top-left, +Y down) to NDC.
func (c *Camera) ScreenToNDC(sx, sy float32) (x, y float32) {
	return ScreenToNDC(sx, sy, c.ViewportW, c.ViewportH)
}

// ScreenToNDC converts window pixels to NDC for a viewport of w x h.
func ScreenToNDC(sx, sy, w, h float32) (x, y float32) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return sx/w*2 - 1, -(sy/h)*2 + 1
}

// VisibleHalfExtents returns the half width and half height of the view
// frustum at the given distance in front of the camera.
func (c *Camera) VisibleHalfExtents(distance float32) (halfW, halfH float32) {
	halfH = distance * float32(math.Tan(float64(mgl32.DegToRad(c.FovY))/2))
	halfW = halfH * c.Aspect()
	return halfW, halfH
}
