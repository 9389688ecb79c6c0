package camera

import "github.com/go-gl/mathgl/mgl32"

// parallelEpsilon is the smallest |dir·normal| treated as a crossing.
const parallelEpsilon = 1e-6

// Plane is a bounded square plane used as the pointer tracking surface.
type Plane struct {
	Center   mgl32.Vec3
	Normal   mgl32.Vec3 // Unit length
	U, V     mgl32.Vec3 // Unit in-plane axes
	HalfSize float32
}

// NewPlane creates a square plane of the given edge length.
func NewPlane(center, normal mgl32.Vec3, size float32) Plane {
	n := normal.Normalize()

	ref := mgl32.Vec3{0, 1, 0}
	if absf(n.Dot(ref)) > 0.99 {
		ref = mgl32.Vec3{1, 0, 0}
	}
	u := ref.Cross(n).Normalize()
	v := n.Cross(u)

	return Plane{
		Center:   center,
		Normal:   n,
		U:        u,
		V:        v,
		HalfSize: size / 2,
	}
}

// FacingCamera creates a plane through the camera target, perpendicular to the
// view direction.
func FacingCamera(c *Camera, size float32) Plane {
	return NewPlane(c.Target, c.Position.Sub(c.Target), size)
}

// Intersect returns where the ray crosses the plane. Both faces count. ok is
// false when the ray is parallel, points away, or crosses outside the bounds.
func (p Plane) Intersect(r Ray) (hit mgl32.Vec3, ok bool) {
	denom := p.Normal.Dot(r.Dir)
	if absf(denom) < parallelEpsilon {
		return mgl32.Vec3{}, false
	}

	t := p.Normal.Dot(p.Center.Sub(r.Origin)) / denom
	if t < 0 {
		return mgl32.Vec3{}, false
	}

	hit = r.At(t)
	local := hit.Sub(p.Center)
	if absf(local.Dot(p.U)) > p.HalfSize || absf(local.Dot(p.V)) > p.HalfSize {
		return mgl32.Vec3{}, false
	}
	return hit, true
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
