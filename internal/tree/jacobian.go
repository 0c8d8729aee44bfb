package tree

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-tri/multibody/internal/spatial"
)

// CalcPointsGeometricJacobian fills jv, of size 3·len(pWQ) × nv, with the
// geometric Jacobian relating generalized velocities to the world-frame
// translational velocities of a set of points fixed to frameB. The points are
// given by their world positions pWQ (use CalcPointsPositions to obtain them).
func (t *Tree) CalcPointsGeometricJacobian(c *Context, frameB *Frame, pWQ []spatial.Vec3, jv *mat.Dense) error {
	if err := t.checkContext("CalcPointsGeometricJacobian", c); err != nil {
		return err
	}
	np := len(pWQ)
	if np == 0 {
		panic("tree: CalcPointsGeometricJacobian needs at least one point")
	}
	nv := t.NumVelocities()
	r, cols := jv.Dims()
	if r != 3*np || cols != nv {
		panic(fmt.Sprintf("tree: points Jacobian must be %d×%d, got %d×%d", 3*np, nv, r, cols))
	}
	jv.Zero()

	pc := c.PositionKinematics()
	h := make([]spatial.Velocity, nv)
	t.calcAcrossNodeJacobian(c.q, pc, h)

	// Only mobilities on the path from the world to B move points fixed in B.
	// Column j of the Jacobian for point Q is Hv_j + Hw_j × p_BkQ_W, with Bk
	// the body carrying mobility j.
	for _, ni := range t.topo.PathFromWorld(frameB.body.node)[1:] {
		n := t.nodes[ni]
		pBk := pc.Poses[n.index].P
		for i := 0; i < n.nv; i++ {
			col := n.vStart + i
			hc := h[col]
			for k, q := range pWQ {
				v := hc.V.Add(hc.W.Cross(q.Sub(pBk)))
				jv.Set(3*k+0, col, v[0])
				jv.Set(3*k+1, col, v[1])
				jv.Set(3*k+2, col, v[2])
			}
		}
	}
	return nil
}

// CalcFrameGeometricJacobian fills jwv, of size 6 × nv, with the geometric
// Jacobian for the frame obtained by shifting frameB to the point pBQ (given
// in frameB). Rows 0-2 are angular, rows 3-5 translational, both in world.
func (t *Tree) CalcFrameGeometricJacobian(c *Context, frameB *Frame, pBQ spatial.Vec3, jwv *mat.Dense) error {
	if err := t.checkContext("CalcFrameGeometricJacobian", c); err != nil {
		return err
	}
	nv := t.NumVelocities()
	r, cols := jwv.Dims()
	if r != 6 || cols != nv {
		panic(fmt.Sprintf("tree: frame Jacobian must be 6×%d, got %d×%d", nv, r, cols))
	}
	jwv.Zero()

	pc := c.PositionKinematics()
	h := make([]spatial.Velocity, nv)
	t.calcAcrossNodeJacobian(c.q, pc, h)

	xWB := pc.Poses[frameB.body.node].Mul(frameB.xBF)
	pWQ := xWB.Apply(pBQ)

	for _, ni := range t.topo.PathFromWorld(frameB.body.node)[1:] {
		n := t.nodes[ni]
		pBkQ := pWQ.Sub(pc.Poses[n.index].P)
		for i := 0; i < n.nv; i++ {
			col := n.vStart + i
			hc := h[col]
			v := hc.V.Add(hc.W.Cross(pBkQ))
			for k := 0; k < 3; k++ {
				jwv.Set(k, col, hc.W[k])
				jwv.Set(k+3, col, v[k])
			}
		}
	}
	return nil
}

// biasAccelerations computes the spatial accelerations for v̇ = 0, which
// isolates the velocity-dependent (Coriolis and centrifugal) part J̇·v.
func (t *Tree) biasAccelerations(c *Context) []spatial.Acceleration {
	aWB := make([]spatial.Acceleration, t.topo.NumNodes())
	vdot := make([]float64, t.NumVelocities())
	t.calcSpatialAccelerations(c.q, c.v, vdot, c.PositionKinematics(), c.VelocityKinematics(), aWB)
	return aWB
}

// pointBias shifts a body's bias spatial acceleration to a point fixed in it:
// a_Q = a_Bo + α×p + w×(w×p).
func pointBias(a spatial.Acceleration, w, p spatial.Vec3) spatial.Vec3 {
	return a.A.Add(a.Alpha.Cross(p)).Add(w.Cross(w.Cross(p)))
}

// CalcBiasForPointsGeometricJacobian fills dst, in point order, with the
// J̇·v term of each point's translational acceleration: the world-frame
// acceleration the points would have at the current state with v̇ = 0. The
// points are given by their world positions pWQ and must be fixed to frameB.
func (t *Tree) CalcBiasForPointsGeometricJacobian(c *Context, frameB *Frame, pWQ []spatial.Vec3, dst []spatial.Vec3) error {
	if err := t.checkContext("CalcBiasForPointsGeometricJacobian", c); err != nil {
		return err
	}
	if len(dst) != len(pWQ) {
		panic(fmt.Sprintf("tree: bias output has %d entries for %d points", len(dst), len(pWQ)))
	}
	aWB := t.biasAccelerations(c)
	pc := c.PositionKinematics()
	vc := c.VelocityKinematics()

	node := frameB.body.node
	aB := aWB[node]
	w := vc.Velocities[node].W
	pBo := pc.Poses[node].P
	for i, q := range pWQ {
		dst[i] = pointBias(aB, w, q.Sub(pBo))
	}
	return nil
}

// CalcBiasForFrameGeometricJacobian returns the J̇·v term of the spatial
// acceleration of the frame obtained by shifting frameB to pBQ (in frameB).
func (t *Tree) CalcBiasForFrameGeometricJacobian(c *Context, frameB *Frame, pBQ spatial.Vec3) (spatial.Acceleration, error) {
	if err := t.checkContext("CalcBiasForFrameGeometricJacobian", c); err != nil {
		return spatial.Acceleration{}, err
	}
	aWB := t.biasAccelerations(c)
	pc := c.PositionKinematics()
	vc := c.VelocityKinematics()

	node := frameB.body.node
	xWB := pc.Poses[node].Mul(frameB.xBF)
	pWQ := xWB.Apply(pBQ)

	aB := aWB[node]
	w := vc.Velocities[node].W
	return spatial.Acceleration{
		Alpha: aB.Alpha,
		A:     pointBias(aB, w, pWQ.Sub(pc.Poses[node].P)),
	}, nil
}
