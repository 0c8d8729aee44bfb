// Package mobilizer defines the joint-type contract of the multibody engine:
// the mapping between a node's generalized coordinates and the relative
// spatial motion across the node, from the inboard frame F fixed in the
// parent to the outboard frame M fixed in the body.
package mobilizer

import "github.com/vladimir-tri/multibody/internal/spatial"

// Mobilizer turns a node's generalized-coordinate slices into relative
// spatial quantities between the node's body and its parent. All slice
// arguments have exactly NumPositions/NumVelocities elements; violating that
// is a programmer error and panics.
type Mobilizer interface {
	Name() string
	NumPositions() int
	NumVelocities() int

	// Transform computes the across-mobilizer transform X_FM(q).
	Transform(q []float64) spatial.Transform

	// HColumn returns the i-th column of the hinge map H_FM(q): the spatial
	// velocity V_FM produced by a unit value of the i-th generalized
	// velocity, measured at Mo and expressed in F.
	HColumn(q []float64, i int) spatial.Velocity

	// Velocity computes V_FM = H_FM(q)·v.
	Velocity(q, v []float64) spatial.Velocity

	// Acceleration computes A_FM = H_FM(q)·v̇ + Ḣ_FM(q,v)·v, the across
	// mobilizer spatial acceleration including the hinge-map rate bias.
	Acceleration(q, v, vdot []float64) spatial.Acceleration

	// MapVelocityToQDot writes the time derivative of the position
	// coordinates induced by v into qdot. Position and velocity coordinates
	// may differ in count and meaning (e.g. quaternion vs angular velocity).
	MapVelocityToQDot(q, v, qdot []float64)

	// MapQDotToVelocity is the inverse mapping of MapVelocityToQDot.
	MapQDotToVelocity(q, qdot, v []float64)

	// ZeroConfiguration writes the default configuration into q.
	ZeroConfiguration(q []float64)
}

func checkLen(name string, got, want int) {
	if got != want {
		panic(name + ": coordinate slice has wrong length")
	}
}
