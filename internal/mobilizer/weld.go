package mobilizer

import "github.com/vladimir-tri/multibody/internal/spatial"

// Weld is a zero-dof mobilizer: the outboard frame is rigidly fixed to the
// inboard frame. Fixed offsets belong in the attachment transforms, so the
// across-mobilizer transform is the identity.
type Weld struct {
	name string
}

func NewWeld(name string) *Weld {
	return &Weld{name: name}
}

func (m *Weld) Name() string       { return m.name }
func (m *Weld) NumPositions() int  { return 0 }
func (m *Weld) NumVelocities() int { return 0 }

func (m *Weld) Transform(q []float64) spatial.Transform {
	return spatial.Identity()
}

func (m *Weld) HColumn(q []float64, i int) spatial.Velocity {
	panic(m.name + ": weld mobilizer has no hinge columns")
}

func (m *Weld) Velocity(q, v []float64) spatial.Velocity {
	return spatial.Velocity{}
}

func (m *Weld) Acceleration(q, v, vdot []float64) spatial.Acceleration {
	return spatial.Acceleration{}
}

func (m *Weld) MapVelocityToQDot(q, v, qdot []float64) {}
func (m *Weld) MapQDotToVelocity(q, qdot, v []float64) {}
func (m *Weld) ZeroConfiguration(q []float64)          {}
