package mobilizer

import "github.com/vladimir-tri/multibody/internal/spatial"

// Prismatic is a one-dof translational mobilizer along a fixed unit axis
// expressed in the inboard frame F.
type Prismatic struct {
	name string
	axis spatial.Vec3
}

func NewPrismatic(name string, axis spatial.Vec3) *Prismatic {
	return &Prismatic{name: name, axis: axis.Unit()}
}

func (m *Prismatic) Name() string       { return m.name }
func (m *Prismatic) NumPositions() int  { return 1 }
func (m *Prismatic) NumVelocities() int { return 1 }

func (m *Prismatic) Transform(q []float64) spatial.Transform {
	checkLen(m.name, len(q), 1)
	return spatial.Transform{R: spatial.IdentityMat3(), P: m.axis.Scale(q[0])}
}

func (m *Prismatic) HColumn(q []float64, i int) spatial.Velocity {
	checkLen(m.name, len(q), 1)
	if i != 0 {
		panic(m.name + ": hinge column out of range")
	}
	return spatial.Velocity{V: m.axis}
}

func (m *Prismatic) Velocity(q, v []float64) spatial.Velocity {
	checkLen(m.name, len(v), 1)
	return spatial.Velocity{V: m.axis.Scale(v[0])}
}

func (m *Prismatic) Acceleration(q, v, vdot []float64) spatial.Acceleration {
	checkLen(m.name, len(vdot), 1)
	return spatial.Acceleration{A: m.axis.Scale(vdot[0])}
}

func (m *Prismatic) MapVelocityToQDot(q, v, qdot []float64) {
	checkLen(m.name, len(qdot), 1)
	qdot[0] = v[0]
}

func (m *Prismatic) MapQDotToVelocity(q, qdot, v []float64) {
	checkLen(m.name, len(v), 1)
	v[0] = qdot[0]
}

func (m *Prismatic) ZeroConfiguration(q []float64) {
	checkLen(m.name, len(q), 1)
	q[0] = 0
}
