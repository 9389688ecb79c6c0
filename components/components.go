// Package components defines ECS components for the scene.
package components

import "github.com/pthm-cable/pointfield/camera"

// Transform is an entity's presentation rotation about the vertical axis.
// Particle positions are never rotated; the renderer applies this on draw.
type Transform struct {
	RotY float32 // Radians
}

// Spin advances a Transform by a fixed amount every frame.
type Spin struct {
	Rate float32 // Radians per frame
}

// Cloud tags the particle field entity.
type Cloud struct{}

// TrackingPlane holds the plane the pointer ray is intersected with.
type TrackingPlane struct {
	Plane camera.Plane
}
