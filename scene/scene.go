// Package scene holds the presentation entities: the particle cloud with its
// slow drift, and the tracking plane the pointer is projected onto.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pointfield/camera"
	"github.com/pthm-cable/pointfield/components"
)

// DefaultDriftRate is the cloud's rotation per frame about the vertical axis.
const DefaultDriftRate = 0.0003

// Scene owns the ECS world and its two entities.
type Scene struct {
	world *ecs.World

	cloudMapper *ecs.Map3[components.Transform, components.Spin, components.Cloud]
	planeMapper *ecs.Map1[components.TrackingPlane]
	transMap    *ecs.Map1[components.Transform]
	spinMap     *ecs.Map1[components.Spin]

	spin *SpinSystem

	cloud ecs.Entity
	plane ecs.Entity
}

// New creates the world with a cloud entity drifting at driftRate and a
// tracking plane entity holding plane.
func New(driftRate float32, plane camera.Plane) *Scene {
	world := ecs.NewWorld()

	s := &Scene{
		world:       world,
		cloudMapper: ecs.NewMap3[components.Transform, components.Spin, components.Cloud](world),
		planeMapper: ecs.NewMap1[components.TrackingPlane](world),
		transMap:    ecs.NewMap1[components.Transform](world),
		spinMap:     ecs.NewMap1[components.Spin](world),
		spin:        NewSpinSystem(world),
	}

	trans := components.Transform{}
	spin := components.Spin{Rate: driftRate}
	s.cloud = s.cloudMapper.NewEntity(&trans, &spin, &components.Cloud{})

	tp := components.TrackingPlane{Plane: plane}
	s.plane = s.planeMapper.NewEntity(&tp)

	return s
}

// Update advances every spinning entity by one frame.
func (s *Scene) Update() {
	s.spin.Update()
}

// CloudRotation returns the cloud's current rotation in radians.
func (s *Scene) CloudRotation() float32 {
	return s.transMap.Get(s.cloud).RotY
}

// CloudMatrix returns the cloud's model matrix.
func (s *Scene) CloudMatrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(s.CloudRotation())
}

// CloudRotationDegrees is CloudRotation converted for rlgl-style APIs.
func (s *Scene) CloudRotationDegrees() float32 {
	return mgl32.RadToDeg(s.CloudRotation())
}

// SetDriftRate changes the cloud's spin. Zero stops the drift.
func (s *Scene) SetDriftRate(rate float32) {
	s.spinMap.Get(s.cloud).Rate = rate
}

// DriftRate returns the cloud's spin per frame.
func (s *Scene) DriftRate() float32 {
	return s.spinMap.Get(s.cloud).Rate
}

// ResetRotation returns the cloud to its initial orientation.
func (s *Scene) ResetRotation() {
	s.SetRotation(0)
}

// SetRotation sets the cloud's rotation in radians.
func (s *Scene) SetRotation(rad float32) {
	s.transMap.Get(s.cloud).RotY = wrapAngle(rad)
}

// Plane returns the current tracking plane.
func (s *Scene) Plane() camera.Plane {
	return s.planeMapper.Get(s.plane).Plane
}

// SetPlane replaces the tracking plane, e.g. after the camera moves.
func (s *Scene) SetPlane(p camera.Plane) {
	s.planeMapper.Get(s.plane).Plane = p
}

// wrapAngle keeps a rotation within [0, 2π) so float32 precision does not
// degrade over long runs.
func wrapAngle(a float32) float32 {
	const twoPi = 2 * math.Pi
	if a >= twoPi || a < 0 {
		a = float32(math.Mod(float64(a), twoPi))
		if a < 0 {
			a += twoPi
		}
	}
	return a
}
