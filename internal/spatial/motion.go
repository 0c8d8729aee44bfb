package spatial

// Velocity is the spatial velocity of a frame: angular velocity W and the
// translational velocity V of the frame origin, expressed in a common frame.
type Velocity struct {
	W Vec3
	V Vec3
}

func (vel Velocity) Add(o Velocity) Velocity {
	return Velocity{vel.W.Add(o.W), vel.V.Add(o.V)}
}

func (vel Velocity) Sub(o Velocity) Velocity {
	return Velocity{vel.W.Sub(o.W), vel.V.Sub(o.V)}
}

func (vel Velocity) Scale(s float64) Velocity {
	return Velocity{vel.W.Scale(s), vel.V.Scale(s)}
}

// Shift rigidly shifts the measured-about point by p, the offset from the
// current origin to the new one, expressed in the same frame as vel.
func (vel Velocity) Shift(p Vec3) Velocity {
	return Velocity{vel.W, vel.V.Add(vel.W.Cross(p))}
}

// Rotate re-expresses vel in a new frame via the rotation R.
func (vel Velocity) Rotate(r Mat3) Velocity {
	return Velocity{r.MulVec(vel.W), r.MulVec(vel.V)}
}

// Acceleration is a spatial acceleration: angular acceleration Alpha and the
// translational acceleration A of the frame origin.
type Acceleration struct {
	Alpha Vec3
	A     Vec3
}

func (acc Acceleration) Add(o Acceleration) Acceleration {
	return Acceleration{acc.Alpha.Add(o.Alpha), acc.A.Add(o.A)}
}

// Shift rigidly shifts the measured-about point by p. Unlike the velocity
// shift it depends on the angular velocity w of the rigid body carrying both
// points, which contributes the centrifugal term w×(w×p).
func (acc Acceleration) Shift(p, w Vec3) Acceleration {
	return Acceleration{
		acc.Alpha,
		acc.A.Add(acc.Alpha.Cross(p)).Add(w.Cross(w.Cross(p))),
	}
}

// Rotate re-expresses acc in a new frame via the rotation R.
func (acc Acceleration) Rotate(r Mat3) Acceleration {
	return Acceleration{r.MulVec(acc.Alpha), r.MulVec(acc.A)}
}

// Force is a spatial force: a torque Tau about a point and a force F applied
// at that point, expressed in a common frame.
type Force struct {
	Tau Vec3
	F   Vec3
}

func (f Force) Add(o Force) Force {
	return Force{f.Tau.Add(o.Tau), f.F.Add(o.F)}
}

func (f Force) Sub(o Force) Force {
	return Force{f.Tau.Sub(o.Tau), f.F.Sub(o.F)}
}

// Shift re-expresses f about a new point, where p is the offset from the new
// about-point to the old one: Tau' = Tau + p×F.
func (f Force) Shift(p Vec3) Force {
	return Force{f.Tau.Add(p.Cross(f.F)), f.F}
}
