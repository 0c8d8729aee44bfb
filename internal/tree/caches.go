package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-tri/multibody/internal/spatial"
)

// PositionCache stores the world pose X_WB of every node, indexed by node.
// The world entry is always the identity.
type PositionCache struct {
	Poses []spatial.Transform
}

func NewPositionCache(numNodes int) *PositionCache {
	pc := &PositionCache{Poses: make([]spatial.Transform, numNodes)}
	for i := range pc.Poses {
		pc.Poses[i] = spatial.Identity()
	}
	return pc
}

// VelocityCache stores the spatial velocity V_WB of every node, indexed by
// node. The world entry is always zero.
type VelocityCache struct {
	Velocities []spatial.Velocity
}

func NewVelocityCache(numNodes int) *VelocityCache {
	return &VelocityCache{Velocities: make([]spatial.Velocity, numNodes)}
}

func (vc *VelocityCache) SetZero() {
	for i := range vc.Velocities {
		vc.Velocities[i] = spatial.Velocity{}
	}
}

// AccelerationCache stores the spatial acceleration A_WB of every node,
// indexed by node. The world entry is always zero.
type AccelerationCache struct {
	Accelerations []spatial.Acceleration
}

func NewAccelerationCache(numNodes int) *AccelerationCache {
	return &AccelerationCache{Accelerations: make([]spatial.Acceleration, numNodes)}
}

// ABICache stores the articulated-body inertia of every node as a 6x6 matrix
// about the node's body origin, expressed in world. The world entry is nil.
type ABICache struct {
	Inertias []*mat.Dense
}

func NewABICache(numNodes int) *ABICache {
	c := &ABICache{Inertias: make([]*mat.Dense, numNodes)}
	for i := 1; i < numNodes; i++ {
		c.Inertias[i] = mat.NewDense(6, 6, nil)
	}
	return c
}
