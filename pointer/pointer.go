// Package pointer tracks the user's pointer and projects it into the world.
//
// Input handlers write the raw coordinate at any time from any goroutine. The
// frame loop reads it once per frame through Smooth, so the simulation never
// observes a half-written update.
package pointer

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pointfield/camera"
)

// Defaults used when no config is supplied.
const (
	DefaultSmoothing = 0.1
	DefaultSentinel  = -100
	DefaultMissPoint = -100
)

// Tracker holds the raw, smoothed and projected pointer state.
type Tracker struct {
	raw atomic.Uint64 // packed float32 x (high) and y (low)

	// Viewport for pixel-to-NDC conversion, written by SetViewport
	viewport atomic.Uint64

	smoothX, smoothY float32
	alpha            float32

	point    mgl32.Vec3
	hit      bool
	miss     mgl32.Vec3
	sentinel float32
}

// New creates a tracker whose raw and smoothed coordinates start at
// (sentinel, sentinel), far outside the visible range.
func New(alpha, sentinel, missPoint float32) *Tracker {
	t := &Tracker{
		smoothX:  sentinel,
		smoothY:  sentinel,
		alpha:    alpha,
		miss:     mgl32.Vec3{missPoint, missPoint, missPoint},
		sentinel: sentinel,
	}
	t.point = t.miss
	t.SetRaw(sentinel, sentinel)
	return t
}

// NewDefault creates a tracker with the default smoothing and sentinels.
func NewDefault() *Tracker {
	return New(DefaultSmoothing, DefaultSentinel, DefaultMissPoint)
}

func pack(x, y float32) uint64 {
	return uint64(math.Float32bits(x))<<32 | uint64(math.Float32bits(y))
}

func unpack(v uint64) (x, y float32) {
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}

// SetRaw records the latest pointer position in normalized device coordinates.
// Safe to call concurrently with the frame loop.
func (t *Tracker) SetRaw(x, y float32) {
	t.raw.Store(pack(x, y))
}

// SetViewport records the window size used by SetRawFromScreen.
func (t *Tracker) SetViewport(w, h float32) {
	if w <= 0 || h <= 0 {
		return
	}
	t.viewport.Store(pack(w, h))
}

// SetRawFromScreen records a pointer position in window pixels. It is a no-op
// until SetViewport has been called.
func (t *Tracker) SetRawFromScreen(px, py float32) {
	w, h := unpack(t.viewport.Load())
	if w <= 0 || h <= 0 {
		return
	}
	t.SetRaw(camera.ScreenToNDC(px, py, w, h))
}

// Reset moves the raw target back to the off-screen sentinel. The smoothed
// coordinate trails it like any other input.
func (t *Tracker) Reset() {
	t.SetRaw(t.sentinel, t.sentinel)
}

// Raw returns the latest raw coordinate.
func (t *Tracker) Raw() (x, y float32) {
	return unpack(t.raw.Load())
}

// Smoothed returns the filtered coordinate.
func (t *Tracker) Smoothed() (x, y float32) {
	return t.smoothX, t.smoothY
}

// Smooth advances the low-pass filter by one frame. It never overshoots and
// never lands exactly on the raw target.
func (t *Tracker) Smooth() {
	rx, ry := t.Raw()
	t.smoothX += (rx - t.smoothX) * t.alpha
	t.smoothY += (ry - t.smoothY) * t.alpha
}

// Project casts the smoothed coordinate through cam onto plane. On a miss the
// stored point becomes the miss sentinel so no particle is in range.
func (t *Tracker) Project(cam *camera.Camera, plane camera.Plane) (mgl32.Vec3, bool) {
	hit, ok := plane.Intersect(cam.Ray(t.smoothX, t.smoothY))
	if !ok {
		hit = t.miss
	}
	t.point = hit
	t.hit = ok
	return hit, ok
}

// Point returns the last projected point and whether it was a real hit.
func (t *Tracker) Point() (mgl32.Vec3, bool) {
	return t.point, t.hit
}
