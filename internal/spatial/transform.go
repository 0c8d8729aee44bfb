package spatial

// Transform is a rigid transform X_AB: the pose of frame B in frame A.
// R is the rotation R_AB and P the position p_AoBo expressed in A.
type Transform struct {
	R Mat3
	P Vec3
}

func Identity() Transform {
	return Transform{R: IdentityMat3()}
}

// Mul composes transforms: X_AC = X_AB.Mul(X_BC).
func (x Transform) Mul(y Transform) Transform {
	return Transform{
		R: x.R.Mul(y.R),
		P: x.P.Add(x.R.MulVec(y.P)),
	}
}

// Inverse returns X_BA given X_AB.
func (x Transform) Inverse() Transform {
	rt := x.R.Transpose()
	return Transform{R: rt, P: rt.MulVec(x.P).Scale(-1)}
}

// Apply maps a point expressed in B to its coordinates in A.
func (x Transform) Apply(p Vec3) Vec3 {
	return x.R.MulVec(p).Add(x.P)
}
