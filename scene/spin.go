package scene

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pointfield/components"
)

// SpinSystem rotates every entity that has both a Transform and a Spin.
type SpinSystem struct {
	filter *ecs.Filter2[components.Transform, components.Spin]
}

// NewSpinSystem creates a new spin system.
func NewSpinSystem(w *ecs.World) *SpinSystem {
	return &SpinSystem{
		filter: ecs.NewFilter2[components.Transform, components.Spin](w),
	}
}

// Update applies one frame of spin.
func (s *SpinSystem) Update() {
	query := s.filter.Query()
	for query.Next() {
		trans, spin := query.Get()
		trans.RotY = wrapAngle(trans.RotY + spin.Rate)
	}
}
