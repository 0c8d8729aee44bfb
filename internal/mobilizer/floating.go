package mobilizer

import (
	"gonum.org/v1/gonum/num/quat"

	"github.com/vladimir-tri/multibody/internal/spatial"
)

// QuaternionFloating is a six-dof mobilizer granting a body full rigid motion
// relative to its parent. Positions are a unit quaternion q_FM followed by
// the position p_FM (7 coordinates); velocities are the angular velocity
// w_FM and the translational velocity v_FM, both expressed in F (6
// coordinates).
type QuaternionFloating struct {
	name string
}

func NewQuaternionFloating(name string) *QuaternionFloating {
	return &QuaternionFloating{name: name}
}

func (m *QuaternionFloating) Name() string       { return m.name }
func (m *QuaternionFloating) NumPositions() int  { return 7 }
func (m *QuaternionFloating) NumVelocities() int { return 6 }

func quatFromSlice(q []float64) quat.Number {
	return quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
}

func (m *QuaternionFloating) Transform(q []float64) spatial.Transform {
	checkLen(m.name, len(q), 7)
	qn := quatFromSlice(q)
	if a := quat.Abs(qn); a > 0 {
		qn = quat.Scale(1/a, qn)
	}
	return spatial.Transform{
		R: spatial.FromQuat(qn),
		P: spatial.Vec3{q[4], q[5], q[6]},
	}
}

// HColumn: the hinge map is the 6x6 identity for this parameterization.
func (m *QuaternionFloating) HColumn(q []float64, i int) spatial.Velocity {
	checkLen(m.name, len(q), 7)
	if i < 0 || i >= 6 {
		panic(m.name + ": hinge column out of range")
	}
	var h spatial.Velocity
	if i < 3 {
		h.W[i] = 1
	} else {
		h.V[i-3] = 1
	}
	return h
}

func (m *QuaternionFloating) Velocity(q, v []float64) spatial.Velocity {
	checkLen(m.name, len(v), 6)
	return spatial.Velocity{
		W: spatial.Vec3{v[0], v[1], v[2]},
		V: spatial.Vec3{v[3], v[4], v[5]},
	}
}

// Acceleration has no Ḣ·v term: the hinge map is the constant identity.
func (m *QuaternionFloating) Acceleration(q, v, vdot []float64) spatial.Acceleration {
	checkLen(m.name, len(vdot), 6)
	return spatial.Acceleration{
		Alpha: spatial.Vec3{vdot[0], vdot[1], vdot[2]},
		A:     spatial.Vec3{vdot[3], vdot[4], vdot[5]},
	}
}

// MapVelocityToQDot uses the quaternion kinematic equation q̇ = ½·ω⊗q with
// the angular velocity expressed in F.
func (m *QuaternionFloating) MapVelocityToQDot(q, v, qdot []float64) {
	checkLen(m.name, len(qdot), 7)
	wq := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	qd := quat.Scale(0.5, quat.Mul(wq, quatFromSlice(q)))
	qdot[0], qdot[1], qdot[2], qdot[3] = qd.Real, qd.Imag, qd.Jmag, qd.Kmag
	qdot[4], qdot[5], qdot[6] = v[3], v[4], v[5]
}

func (m *QuaternionFloating) MapQDotToVelocity(q, qdot, v []float64) {
	checkLen(m.name, len(v), 6)
	qd := quatFromSlice(qdot)
	wq := quat.Scale(2, quat.Mul(qd, quat.Inv(quatFromSlice(q))))
	v[0], v[1], v[2] = wq.Imag, wq.Jmag, wq.Kmag
	v[3], v[4], v[5] = qdot[4], qdot[5], qdot[6]
}

// ZeroConfiguration is the identity quaternion at the origin.
func (m *QuaternionFloating) ZeroConfiguration(q []float64) {
	checkLen(m.name, len(q), 7)
	for i := range q {
		q[i] = 0
	}
	q[0] = 1
}

// NormalizeConfiguration rescales the quaternion block to unit length.
// Numerical integration of q̇ lets the norm drift; the identity quaternion is
// restored if the block has collapsed to zero.
func (m *QuaternionFloating) NormalizeConfiguration(q []float64) {
	checkLen(m.name, len(q), 7)
	qn := quatFromSlice(q)
	a := quat.Abs(qn)
	if a == 0 {
		q[0], q[1], q[2], q[3] = 1, 0, 0, 0
		return
	}
	q[0], q[1], q[2], q[3] = q[0]/a, q[1]/a, q[2]/a, q[3]/a
}

// SetPose writes the configuration corresponding to X_FM into q.
func (m *QuaternionFloating) SetPose(x spatial.Transform, q []float64) {
	checkLen(m.name, len(q), 7)
	qn := spatial.ToQuat(x.R)
	q[0], q[1], q[2], q[3] = qn.Real, qn.Imag, qn.Jmag, qn.Kmag
	q[4], q[5], q[6] = x.P[0], x.P[1], x.P[2]
}

// SetVelocity writes the velocity coordinates for a relative spatial
// velocity V_FM expressed in F into v.
func (m *QuaternionFloating) SetVelocity(vel spatial.Velocity, v []float64) {
	checkLen(m.name, len(v), 6)
	v[0], v[1], v[2] = vel.W[0], vel.W[1], vel.W[2]
	v[3], v[4], v[5] = vel.V[0], vel.V[1], vel.V[2]
}
