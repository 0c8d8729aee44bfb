package tree

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-tri/multibody/internal/mobilizer"
	"github.com/vladimir-tri/multibody/internal/spatial"
)

// calcPositionKinematics runs the base-to-tip position sweep, level by
// level. Level 0 is the world and is never recomputed.
func (t *Tree) calcPositionKinematics(q []float64, pc *PositionCache) {
	for depth := 1; depth < len(t.levels); depth++ {
		for _, n := range t.levels[depth] {
			n.calcPositionKinematics(q, pc)
		}
	}
}

// calcAcrossNodeJacobian fills the across-node Jacobian array: one
// six-component column per generalized velocity, grouped by node. Columns
// depend only on each node's own position kinematics, so the loop order is
// free.
func (t *Tree) calcAcrossNodeJacobian(q []float64, pc *PositionCache, h []spatial.Velocity) {
	if len(h) != t.NumVelocities() {
		panic(fmt.Sprintf("tree: Jacobian array has %d columns, model has %d velocities", len(h), t.NumVelocities()))
	}
	for _, n := range t.nodes[1:] {
		n.calcAcrossNodeJacobian(q, pc, h)
	}
}

func (t *Tree) calcVelocityKinematics(q, v []float64, pc *PositionCache, vc *VelocityCache) {
	h := make([]spatial.Velocity, t.NumVelocities())
	t.calcAcrossNodeJacobian(q, pc, h)
	for depth := 1; depth < len(t.levels); depth++ {
		for _, n := range t.levels[depth] {
			n.calcVelocityKinematics(v, pc, h, vc)
		}
	}
}

// CalcPositionKinematics fills pc with the world pose of every node for the
// context's generalized positions.
func (t *Tree) CalcPositionKinematics(c *Context, pc *PositionCache) error {
	if err := t.checkContext("CalcPositionKinematics", c); err != nil {
		return err
	}
	if pc == nil || len(pc.Poses) != t.topo.NumNodes() {
		panic("tree: CalcPositionKinematics needs a cache sized to the model")
	}
	t.calcPositionKinematics(c.q, pc)
	return nil
}

// CalcVelocityKinematics fills vc with the spatial velocity of every node.
// pc must already hold the position kinematics of the same context.
func (t *Tree) CalcVelocityKinematics(c *Context, pc *PositionCache, vc *VelocityCache) error {
	if err := t.checkContext("CalcVelocityKinematics", c); err != nil {
		return err
	}
	if vc == nil || len(vc.Velocities) != t.topo.NumNodes() {
		panic("tree: CalcVelocityKinematics needs a cache sized to the model")
	}
	t.calcVelocityKinematics(c.q, c.v, pc, vc)
	return nil
}

// CalcAcrossNodeJacobian fills h with the across-node Jacobian H_PB_W, one
// column per generalized velocity in ascending velocity order.
func (t *Tree) CalcAcrossNodeJacobian(c *Context, h []spatial.Velocity) error {
	if err := t.checkContext("CalcAcrossNodeJacobian", c); err != nil {
		return err
	}
	t.calcAcrossNodeJacobian(c.q, c.PositionKinematics(), h)
	return nil
}

func (t *Tree) calcSpatialAccelerations(q, v, vdot []float64, pc *PositionCache, vc *VelocityCache, aWB []spatial.Acceleration) {
	if len(vdot) != t.NumVelocities() {
		panic(fmt.Sprintf("tree: vdot has %d coordinates, model has %d velocities", len(vdot), t.NumVelocities()))
	}
	if len(aWB) != t.topo.NumNodes() {
		panic("tree: acceleration array must be sized to the model")
	}
	// The world's spatial acceleration is always zero.
	aWB[0] = spatial.Acceleration{}
	for depth := 1; depth < len(t.levels); depth++ {
		for _, n := range t.levels[depth] {
			n.calcSpatialAcceleration(q, v, vdot, pc, vc, aWB)
		}
	}
}

// CalcSpatialAccelerations computes every node's spatial acceleration for a
// known generalized acceleration vdot, writing into aWB in node order.
func (t *Tree) CalcSpatialAccelerations(c *Context, pc *PositionCache, vc *VelocityCache, vdot []float64, aWB []spatial.Acceleration) error {
	if err := t.checkContext("CalcSpatialAccelerations", c); err != nil {
		return err
	}
	t.calcSpatialAccelerations(c.q, c.v, vdot, pc, vc, aWB)
	return nil
}

// CalcAccelerationKinematics fills ac from a known generalized acceleration.
func (t *Tree) CalcAccelerationKinematics(c *Context, pc *PositionCache, vc *VelocityCache, vdot []float64, ac *AccelerationCache) error {
	if err := t.checkContext("CalcAccelerationKinematics", c); err != nil {
		return err
	}
	t.calcSpatialAccelerations(c.q, c.v, vdot, pc, vc, ac.Accelerations)
	return nil
}

// CalcInverseDynamics returns the generalized forces required to achieve the
// generalized acceleration vdot under the applied forces. A nil forces value
// means no applied forces.
func (t *Tree) CalcInverseDynamics(c *Context, vdot []float64, applied *Forces) ([]float64, error) {
	if err := t.checkContext("CalcInverseDynamics", c); err != nil {
		return nil, err
	}
	nn := t.topo.NumNodes()
	aWB := make([]spatial.Acceleration, nn)
	fBBo := make([]spatial.Force, nn)
	tau := make([]float64, t.NumVelocities())

	var fApplied []spatial.Force
	var tauApplied []float64
	if applied != nil {
		fApplied = applied.Body
		tauApplied = applied.Generalized
	}
	err := t.CalcInverseDynamicsInto(c, c.PositionKinematics(), c.VelocityKinematics(),
		c.v, vdot, fApplied, tauApplied, aWB, fBBo, tau)
	if err != nil {
		return nil, err
	}
	return tau, nil
}

// CalcInverseDynamicsInto is the buffer-filling form of inverse dynamics.
// v must be the generalized velocities vc was computed from; a probe at rest
// hands in a zero vector together with a zero cache, whatever the context's
// own velocities. fApplied (per body, about each body origin, in world) and
// tauApplied may be empty, meaning no applied force of that kind. aWB and
// fBBo receive the spatial accelerations and mobilizer reaction forces; tau
// receives the generalized forces. fApplied and fBBo may alias the same
// array, as may tauApplied and tau: each node's applied contribution is
// copied before its output slot is written.
func (t *Tree) CalcInverseDynamicsInto(
	c *Context, pc *PositionCache, vc *VelocityCache, v, vdot []float64,
	fApplied []spatial.Force, tauApplied []float64,
	aWB []spatial.Acceleration, fBBo []spatial.Force, tau []float64,
) error {
	if err := t.checkContext("CalcInverseDynamicsInto", c); err != nil {
		return err
	}
	nn := t.topo.NumNodes()
	nv := t.NumVelocities()
	if len(v) != nv {
		panic(fmt.Sprintf("tree: velocity vector has %d coordinates, model has %d velocities", len(v), nv))
	}
	if len(fApplied) != 0 && len(fApplied) != nn {
		panic(fmt.Sprintf("tree: applied spatial force array has %d entries, model has %d bodies", len(fApplied), nn))
	}
	if len(tauApplied) != 0 && len(tauApplied) != nv {
		panic(fmt.Sprintf("tree: applied generalized force array has %d entries, model has %d velocities", len(tauApplied), nv))
	}
	if len(aWB) != nn || len(fBBo) != nn {
		panic("tree: inverse dynamics output arrays must be sized to the model")
	}
	if len(tau) != nv {
		panic(fmt.Sprintf("tree: generalized force output has %d entries, model has %d velocities", len(tau), nv))
	}

	t.calcSpatialAccelerations(c.q, v, vdot, pc, vc, aWB)

	h := make([]spatial.Velocity, nv)
	t.calcAcrossNodeJacobian(c.q, pc, h)

	// Tip-to-base, world included as the terminal accumulator. The current
	// node's applied contributions are copied out first so the applied and
	// output arrays may alias.
	scratch := make([]float64, 6)
	for depth := len(t.levels) - 1; depth >= 0; depth-- {
		for _, n := range t.levels[depth] {
			var fApp spatial.Force
			if len(fApplied) != 0 {
				fApp = fApplied[n.index]
			}
			var tauApp []float64
			if len(tauApplied) != 0 {
				tauApp = scratch[:n.nv]
				copy(tauApp, tauApplied[n.vStart:n.vStart+n.nv])
			}
			n.calcInverseDynamics(pc, vc, aWB, fApp, tauApp, h, fBBo, tau)
		}
	}
	return nil
}

// CalcMassMatrix fills the nv×nv mass matrix via inverse-dynamics probing:
// column j is the generalized force for a unit v̇_j at zero velocity. O(n)
// per probe and O(n) probes; exact, if not the fastest possible algorithm.
func (t *Tree) CalcMassMatrix(c *Context, m *mat.Dense) error {
	if err := t.checkContext("CalcMassMatrix", c); err != nil {
		return err
	}
	nv := t.NumVelocities()
	r, cols := m.Dims()
	if r != nv || cols != nv {
		panic(fmt.Sprintf("tree: mass matrix must be %d×%d, got %d×%d", nv, nv, r, cols))
	}

	pc := c.PositionKinematics()
	vc := NewVelocityCache(t.topo.NumNodes())

	nn := t.topo.NumNodes()
	vZero := make([]float64, nv)
	vdot := make([]float64, nv)
	tau := make([]float64, nv)
	aWB := make([]spatial.Acceleration, nn)
	fBBo := make([]spatial.Force, nn)

	for j := 0; j < nv; j++ {
		for i := range vdot {
			vdot[i] = 0
		}
		vdot[j] = 1
		if err := t.CalcInverseDynamicsInto(c, pc, vc, vZero, vdot, nil, nil, aWB, fBBo, tau); err != nil {
			return err
		}
		for i := 0; i < nv; i++ {
			m.Set(i, j, tau[i])
		}
	}
	return nil
}

// CalcBiasTerm fills cv with the velocity-dependent generalized forces
// C(q,v)·v, isolated by a single inverse-dynamics probe at v̇ = 0.
func (t *Tree) CalcBiasTerm(c *Context, cv []float64) error {
	if err := t.checkContext("CalcBiasTerm", c); err != nil {
		return err
	}
	nv := t.NumVelocities()
	if len(cv) != nv {
		panic(fmt.Sprintf("tree: bias term output has %d entries, model has %d velocities", len(cv), nv))
	}
	nn := t.topo.NumNodes()
	vdot := make([]float64, nv)
	aWB := make([]spatial.Acceleration, nn)
	fBBo := make([]spatial.Force, nn)
	return t.CalcInverseDynamicsInto(c, c.PositionKinematics(), c.VelocityKinematics(),
		c.v, vdot, nil, nil, aWB, fBBo, cv)
}

// CalcArticulatedBodyInertias fills abc with every node's articulated-body
// inertia by a tip-to-base composition, skipping the world.
func (t *Tree) CalcArticulatedBodyInertias(c *Context, abc *ABICache) error {
	if err := t.checkContext("CalcArticulatedBodyInertias", c); err != nil {
		return err
	}
	if abc == nil || len(abc.Inertias) != t.topo.NumNodes() {
		panic("tree: CalcArticulatedBodyInertias needs a cache sized to the model")
	}
	pc := c.PositionKinematics()
	h := make([]spatial.Velocity, t.NumVelocities())
	t.calcAcrossNodeJacobian(c.q, pc, h)
	for depth := len(t.levels) - 1; depth > 0; depth-- {
		for _, n := range t.levels[depth] {
			n.calcArticulatedBodyInertia(pc, h, abc)
		}
	}
	return nil
}

// MapVelocityToQDot writes the time derivative of the generalized positions
// induced by v into qdot.
func (t *Tree) MapVelocityToQDot(c *Context, v, qdot []float64) error {
	if err := t.checkContext("MapVelocityToQDot", c); err != nil {
		return err
	}
	if len(v) != t.NumVelocities() || len(qdot) != t.NumPositions() {
		panic("tree: MapVelocityToQDot buffer sizes do not match the model")
	}
	for _, n := range t.nodes[1:] {
		n.mob.MapVelocityToQDot(n.qSlice(c.q), v[n.vStart:n.vStart+n.nv], qdot[n.qStart:n.qStart+n.nq])
	}
	return nil
}

// MapQDotToVelocity is the inverse of MapVelocityToQDot.
func (t *Tree) MapQDotToVelocity(c *Context, qdot, v []float64) error {
	if err := t.checkContext("MapQDotToVelocity", c); err != nil {
		return err
	}
	if len(qdot) != t.NumPositions() || len(v) != t.NumVelocities() {
		panic("tree: MapQDotToVelocity buffer sizes do not match the model")
	}
	for _, n := range t.nodes[1:] {
		n.mob.MapQDotToVelocity(n.qSlice(c.q), qdot[n.qStart:n.qStart+n.nq], v[n.vStart:n.vStart+n.nv])
	}
	return nil
}

// NormalizePositions restores the unit-norm invariant of every quaternion
// block in q, in place. Other coordinates are untouched.
func (t *Tree) NormalizePositions(q []float64) error {
	if err := t.mustBeFinalized("NormalizePositions"); err != nil {
		return err
	}
	if len(q) != t.NumPositions() {
		panic(fmt.Sprintf("tree: NormalizePositions got %d coordinates, model has %d", len(q), t.NumPositions()))
	}
	for _, n := range t.nodes[1:] {
		if qf, ok := n.mob.(*mobilizer.QuaternionFloating); ok {
			qf.NormalizeConfiguration(n.qSlice(q))
		}
	}
	return nil
}

// CalcAllBodyPosesInWorld writes the world pose of every body, in body-index
// order, into dst.
func (t *Tree) CalcAllBodyPosesInWorld(c *Context, dst []spatial.Transform) error {
	if err := t.checkContext("CalcAllBodyPosesInWorld", c); err != nil {
		return err
	}
	if len(dst) != t.NumBodies() {
		panic(fmt.Sprintf("tree: pose output has %d entries, model has %d bodies", len(dst), t.NumBodies()))
	}
	pc := c.PositionKinematics()
	for _, b := range t.bodies {
		dst[b.index] = pc.Poses[b.node]
	}
	return nil
}

// CalcAllBodySpatialVelocitiesInWorld writes the spatial velocity of every
// body, in body-index order, into dst.
func (t *Tree) CalcAllBodySpatialVelocitiesInWorld(c *Context, dst []spatial.Velocity) error {
	if err := t.checkContext("CalcAllBodySpatialVelocitiesInWorld", c); err != nil {
		return err
	}
	if len(dst) != t.NumBodies() {
		panic(fmt.Sprintf("tree: velocity output has %d entries, model has %d bodies", len(dst), t.NumBodies()))
	}
	vc := c.VelocityKinematics()
	for _, b := range t.bodies {
		dst[b.index] = vc.Velocities[b.node]
	}
	return nil
}

// CalcRelativeTransform returns X_AB, the pose of frame B in frame A.
func (t *Tree) CalcRelativeTransform(c *Context, frameA, frameB *Frame) (spatial.Transform, error) {
	if err := t.checkContext("CalcRelativeTransform", c); err != nil {
		return spatial.Transform{}, err
	}
	pc := c.PositionKinematics()
	xWA := pc.Poses[frameA.body.node].Mul(frameA.xBF)
	xWB := pc.Poses[frameB.body.node].Mul(frameB.xBF)
	return xWA.Inverse().Mul(xWB), nil
}

// CalcPointsPositions re-expresses points given in frame B into frame A,
// writing into dst in input order.
func (t *Tree) CalcPointsPositions(c *Context, frameB *Frame, pBQ []spatial.Vec3, frameA *Frame, dst []spatial.Vec3) error {
	if len(dst) != len(pBQ) {
		panic(fmt.Sprintf("tree: CalcPointsPositions output has %d entries for %d points", len(dst), len(pBQ)))
	}
	xAB, err := t.CalcRelativeTransform(c, frameA, frameB)
	if err != nil {
		return err
	}
	for i, p := range pBQ {
		dst[i] = xAB.Apply(p)
	}
	return nil
}
