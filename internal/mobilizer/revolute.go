package mobilizer

import "github.com/vladimir-tri/multibody/internal/spatial"

// Revolute is a one-dof rotational mobilizer about a fixed unit axis
// expressed in the inboard frame F.
type Revolute struct {
	name string
	axis spatial.Vec3
}

func NewRevolute(name string, axis spatial.Vec3) *Revolute {
	return &Revolute{name: name, axis: axis.Unit()}
}

func (m *Revolute) Name() string       { return m.name }
func (m *Revolute) NumPositions() int  { return 1 }
func (m *Revolute) NumVelocities() int { return 1 }

func (m *Revolute) Transform(q []float64) spatial.Transform {
	checkLen(m.name, len(q), 1)
	return spatial.Transform{R: spatial.AxisAngle(m.axis, q[0])}
}

func (m *Revolute) HColumn(q []float64, i int) spatial.Velocity {
	checkLen(m.name, len(q), 1)
	if i != 0 {
		panic(m.name + ": hinge column out of range")
	}
	return spatial.Velocity{W: m.axis}
}

func (m *Revolute) Velocity(q, v []float64) spatial.Velocity {
	checkLen(m.name, len(v), 1)
	return spatial.Velocity{W: m.axis.Scale(v[0])}
}

// Acceleration has no Ḣ·v term: the hinge map is constant in F.
func (m *Revolute) Acceleration(q, v, vdot []float64) spatial.Acceleration {
	checkLen(m.name, len(vdot), 1)
	return spatial.Acceleration{Alpha: m.axis.Scale(vdot[0])}
}

func (m *Revolute) MapVelocityToQDot(q, v, qdot []float64) {
	checkLen(m.name, len(qdot), 1)
	qdot[0] = v[0]
}

func (m *Revolute) MapQDotToVelocity(q, qdot, v []float64) {
	checkLen(m.name, len(v), 1)
	v[0] = qdot[0]
}

func (m *Revolute) ZeroConfiguration(q []float64) {
	checkLen(m.name, len(q), 1)
	q[0] = 0
}
