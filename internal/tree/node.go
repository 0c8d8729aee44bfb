package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-tri/multibody/internal/mobilizer"
	"github.com/vladimir-tri/multibody/internal/spatial"
	"github.com/vladimir-tri/multibody/internal/topology"
)

// bodyNode pairs one body with its inboard mobilizer and parent link. It is
// the per-node unit of all tree recursions; each method assumes the caches of
// every ancestor are already populated for the same evaluation.
type bodyNode struct {
	index  topology.NodeIndex
	body   *Body
	mob    mobilizer.Mobilizer // nil only for the world node
	parent *bodyNode
	child  []*bodyNode

	// Fixed attachment transforms: the inboard frame F in the parent body
	// frame and the mobilized frame M in this body's frame (stored inverted
	// as X_MB for composition).
	xPF spatial.Transform
	xMB spatial.Transform

	qStart, nq int
	vStart, nv int
}

func (n *bodyNode) qSlice(q []float64) []float64 {
	return q[n.qStart : n.qStart+n.nq]
}

func (n *bodyNode) vSlice(v []float64) []float64 {
	return v[n.vStart : n.vStart+n.nv]
}

// calcPositionKinematics performs the base-to-tip position update:
// X_WB = X_WP · X_PF · X_FM(q) · X_MB.
func (n *bodyNode) calcPositionKinematics(q []float64, pc *PositionCache) {
	xFM := n.mob.Transform(n.qSlice(q))
	xPB := n.xPF.Mul(xFM).Mul(n.xMB)
	pc.Poses[n.index] = pc.Poses[n.parent.index].Mul(xPB)
}

// calcAcrossNodeJacobian fills this node's columns of the across-node
// Jacobian H_PB_W into h[vStart:vStart+nv]. Each column is the hinge column
// H_FM shifted from Mo to Bo and re-expressed in world; it depends only on
// this node's position kinematics, so nodes may be processed in any order.
func (n *bodyNode) calcAcrossNodeJacobian(q []float64, pc *PositionCache, h []spatial.Velocity) {
	qn := n.qSlice(q)
	xFM := n.mob.Transform(qn)
	rWF := pc.Poses[n.parent.index].R.Mul(n.xPF.R)
	pMB_F := xFM.R.MulVec(n.xMB.P)
	for i := 0; i < n.nv; i++ {
		hc := n.mob.HColumn(qn, i).Shift(pMB_F)
		h[n.vStart+i] = hc.Rotate(rWF)
	}
}

// velocityAcross evaluates V_PB_W = H_PB_W · v over this node's columns.
func (n *bodyNode) velocityAcross(v []float64, h []spatial.Velocity) spatial.Velocity {
	var vPB spatial.Velocity
	for i := 0; i < n.nv; i++ {
		vPB = vPB.Add(h[n.vStart+i].Scale(v[n.vStart+i]))
	}
	return vPB
}

// calcVelocityKinematics performs the base-to-tip velocity update: the
// parent's velocity rigidly shifted to Bo plus the mobility contribution
// H_PB_W · v.
func (n *bodyNode) calcVelocityKinematics(v []float64, pc *PositionCache, h []spatial.Velocity, vc *VelocityCache) {
	pPB_W := pc.Poses[n.index].P.Sub(pc.Poses[n.parent.index].P)
	vWPb := vc.Velocities[n.parent.index].Shift(pPB_W)
	vc.Velocities[n.index] = vWPb.Add(n.velocityAcross(v, h))
}

// calcSpatialAcceleration performs the base-to-tip acceleration update for a
// known generalized acceleration vdot:
//
//	A_WB = A_WP.Shift(p_PB_W, w_WP) + {w_WP×w_PB_W, 2·w_WP×v_PB_W} + A_PB_W
//
// where the middle term couples the parent's rotation with the relative
// motion and A_PB_W carries the mobilizer's H·v̇ and Ḣ·v contributions.
func (n *bodyNode) calcSpatialAcceleration(q, v, vdot []float64, pc *PositionCache, vc *VelocityCache, aWB []spatial.Acceleration) {
	qn, vn, vdn := n.qSlice(q), n.vSlice(v), n.vSlice(vdot)

	xFM := n.mob.Transform(qn)
	rWF := pc.Poses[n.parent.index].R.Mul(n.xPF.R)
	pMB_F := xFM.R.MulVec(n.xMB.P)

	vFM := n.mob.Velocity(qn, vn)
	aFM := n.mob.Acceleration(qn, vn, vdn)
	aPB_W := aFM.Shift(pMB_F, vFM.W).Rotate(rWF)

	pPB_W := pc.Poses[n.index].P.Sub(pc.Poses[n.parent.index].P)
	vWP := vc.Velocities[n.parent.index]
	vPB_W := vc.Velocities[n.index].Sub(vWP.Shift(pPB_W))

	aWPb := aWB[n.parent.index].Shift(pPB_W, vWP.W)
	coupling := spatial.Acceleration{
		Alpha: vWP.W.Cross(vPB_W.W),
		A:     vWP.W.Cross(vPB_W.V).Scale(2),
	}
	aWB[n.index] = aWPb.Add(coupling).Add(aPB_W)
}

// calcInverseDynamics performs the tip-to-base Newton-Euler step: the net
// spatial force this node's mobilizer must supply about Bo,
//
//	F_BBo_W = M_B_W·A_WB + Fb(w) − Fapplied + Σ children's reactions,
//
// and its projection onto the node's generalized-force slice. The world node
// participates as the terminal accumulator and writes no generalized forces.
func (n *bodyNode) calcInverseDynamics(
	pc *PositionCache, vc *VelocityCache, aWB []spatial.Acceleration,
	fApplied spatial.Force, tauApplied []float64, h []spatial.Velocity,
	fBBo []spatial.Force, tau []float64,
) {
	xWB := pc.Poses[n.index]
	mBW := n.body.inertia.ReExpress(xWB.R)

	f := mBW.Mul(aWB[n.index]).Add(mBW.BiasForce(vc.Velocities[n.index].W))
	f = f.Sub(fApplied)
	for _, c := range n.child {
		pBC_W := pc.Poses[c.index].P.Sub(xWB.P)
		f = f.Add(fBBo[c.index].Shift(pBC_W))
	}
	fBBo[n.index] = f

	for i := 0; i < n.nv; i++ {
		hi := h[n.vStart+i]
		t := hi.W.Dot(f.Tau) + hi.V.Dot(f.F)
		if tauApplied != nil {
			t -= tauApplied[i]
		}
		tau[n.vStart+i] = t
	}
}

// calcArticulatedBodyInertia performs the tip-to-base composition: this
// node's rigid spatial inertia plus each child's articulated inertia
// projected through the child's mobilities,
//
//	P⁺ = P − P·H·(Hᵀ·P·H)⁻¹·Hᵀ·P,
//
// and shifted from the child origin to Bo.
func (n *bodyNode) calcArticulatedBodyInertia(pc *PositionCache, h []spatial.Velocity, abc *ABICache) {
	p := abc.Inertias[n.index]
	rigidInertiaMatrix(n.body.inertia.ReExpress(pc.Poses[n.index].R), p)

	var proj, shifted mat.Dense
	for _, c := range n.child {
		pc6 := c.projectArticulatedInertia(abc.Inertias[c.index], h, &proj)
		pBC_W := pc.Poses[c.index].P.Sub(pc.Poses[n.index].P)
		shiftABI(pc6, pBC_W, &shifted)
		p.Add(p, &shifted)
	}
}

// projectArticulatedInertia removes the force components a child's own
// mobilities can absorb. A zero-mobility (welded) child passes its inertia
// through unchanged.
func (n *bodyNode) projectArticulatedInertia(p *mat.Dense, h []spatial.Velocity, proj *mat.Dense) *mat.Dense {
	if n.nv == 0 {
		return p
	}
	hm := mat.NewDense(6, n.nv, nil)
	for i := 0; i < n.nv; i++ {
		hc := h[n.vStart+i]
		for k := 0; k < 3; k++ {
			hm.Set(k, i, hc.W[k])
			hm.Set(k+3, i, hc.V[k])
		}
	}

	var u mat.Dense // P·H, 6×m
	u.Mul(p, hm)
	var d mat.Dense // Hᵀ·P·H, m×m
	d.Mul(hm.T(), &u)
	var dinv mat.Dense
	if err := dinv.Inverse(&d); err != nil {
		panic("tree: articulated inertia hinge projection is singular: " + err.Error())
	}
	var ud mat.Dense
	ud.Mul(&u, &dinv)
	proj.Mul(&ud, u.T())
	proj.Sub(p, proj)
	return proj
}

// rigidInertiaMatrix writes the 6x6 matrix form of a spatial inertia about
// its about-point into dst: [[I, m·[c]x], [m·[c]xᵀ, m·E]].
func rigidInertiaMatrix(mi spatial.Inertia, dst *mat.Dense) {
	cx := spatial.CrossMat(mi.Com)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst.Set(i, j, mi.I[i][j])
			dst.Set(i, j+3, mi.Mass*cx[i][j])
			dst.Set(i+3, j, mi.Mass*cx[j][i])
			v := 0.0
			if i == j {
				v = mi.Mass
			}
			dst.Set(i+3, j+3, v)
		}
	}
}

// shiftABI shifts an articulated-body inertia from a point Co to Bo:
// P_Bo = Φ·P_Co·Φᵀ with Φ = [[E, [p]x], [0, E]] and p = p_BoCo.
func shiftABI(p *mat.Dense, pBC spatial.Vec3, dst *mat.Dense) {
	phi := mat.NewDense(6, 6, nil)
	cx := spatial.CrossMat(pBC)
	for i := 0; i < 3; i++ {
		phi.Set(i, i, 1)
		phi.Set(i+3, i+3, 1)
		for j := 0; j < 3; j++ {
			phi.Set(i, j+3, cx[i][j])
		}
	}
	var tmp mat.Dense
	tmp.Mul(phi, p)
	dst.Mul(&tmp, phi.T())
}
