package spatial

// Inertia is the spatial inertia of a rigid body about a point O: total mass,
// center-of-mass offset p_OBcm, and the rotational inertia I about O. All
// quantities are expressed in a single frame; ReExpress rotates them together.
type Inertia struct {
	Mass float64
	Com  Vec3
	I    Mat3
}

// PointMass returns the spatial inertia of a point mass m located at p from
// the about-point.
func PointMass(m float64, p Vec3) Inertia {
	return Inertia{Mass: m, Com: p, I: shiftedMoment(m, p)}
}

// FromCentral builds the spatial inertia about a point O given the mass, the
// com offset p_OBcm, and the rotational inertia about the com (parallel axis
// theorem).
func FromCentral(m float64, com Vec3, icm Mat3) Inertia {
	return Inertia{Mass: m, Com: com, I: icm.Add(shiftedMoment(m, com))}
}

// shiftedMoment is the parallel-axis term m((p·p)E − p⊗p).
func shiftedMoment(m float64, p Vec3) Mat3 {
	pp := p.Dot(p)
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = -m * p[i] * p[j]
			if i == j {
				r[i][j] += m * pp
			}
		}
	}
	return r
}

// ReExpress rotates the inertia into a new frame: I' = R·I·Rᵀ, com' = R·com.
func (mi Inertia) ReExpress(r Mat3) Inertia {
	return Inertia{
		Mass: mi.Mass,
		Com:  r.MulVec(mi.Com),
		I:    r.Mul(mi.I).Mul(r.Transpose()),
	}
}

// Mul computes the spatial force M·A about the inertia's about-point:
// torque I·α + m·com×a and force m·(a + α×com).
func (mi Inertia) Mul(acc Acceleration) Force {
	return Force{
		Tau: mi.I.MulVec(acc.Alpha).Add(mi.Com.Cross(acc.A).Scale(mi.Mass)),
		F:   acc.A.Add(acc.Alpha.Cross(mi.Com)).Scale(mi.Mass),
	}
}

// BiasForce is the gyroscopic force w×(I·w), m·w×(w×com) appearing in the
// Newton-Euler balance at nonzero angular velocity.
func (mi Inertia) BiasForce(w Vec3) Force {
	return Force{
		Tau: w.Cross(mi.I.MulVec(w)),
		F:   w.Cross(w.Cross(mi.Com)).Scale(mi.Mass),
	}
}

// KineticEnergy evaluates ½·Vᵀ·M·V for a spatial velocity measured at the
// inertia's about-point.
func (mi Inertia) KineticEnergy(vel Velocity) float64 {
	return 0.5*vel.W.Dot(mi.I.MulVec(vel.W)) +
		0.5*mi.Mass*vel.V.Dot(vel.V) +
		mi.Mass*vel.W.Dot(mi.Com.Cross(vel.V))
}
