package tree

import (
	"fmt"

	"github.com/vladimir-tri/multibody/internal/spatial"
)

// Context holds the generalized state of one evaluation of a finalized model
// and memoizes the kinematics caches computed from it. Each context is owned
// by a single caller; concurrent evaluations of the same Tree use separate
// contexts.
type Context struct {
	tree *Tree
	q    []float64
	v    []float64

	pc      *PositionCache
	pcValid bool
	vc      *VelocityCache
	vcValid bool
}

// CreateDefaultContext returns a context holding every mobilizer's zero
// configuration and zero velocity.
func (t *Tree) CreateDefaultContext() (*Context, error) {
	if err := t.mustBeFinalized("CreateDefaultContext"); err != nil {
		return nil, err
	}
	c := &Context{
		tree: t,
		q:    make([]float64, t.NumPositions()),
		v:    make([]float64, t.NumVelocities()),
		pc:   NewPositionCache(t.topo.NumNodes()),
		vc:   NewVelocityCache(t.topo.NumNodes()),
	}
	for _, n := range t.nodes[1:] {
		n.mob.ZeroConfiguration(n.qSlice(c.q))
	}
	return c, nil
}

// Positions returns the generalized-position vector. The slice is owned by
// the context; mutate it only through SetPositions.
func (c *Context) Positions() []float64 { return c.q }

// Velocities returns the generalized-velocity vector. The slice is owned by
// the context; mutate it only through SetVelocities.
func (c *Context) Velocities() []float64 { return c.v }

// SetPositions replaces the generalized positions and invalidates every
// position-dependent cache.
func (c *Context) SetPositions(q []float64) {
	if len(q) != len(c.q) {
		panic(fmt.Sprintf("tree: SetPositions got %d coordinates, model has %d", len(q), len(c.q)))
	}
	copy(c.q, q)
	c.pcValid = false
	c.vcValid = false
}

// SetVelocities replaces the generalized velocities and invalidates the
// velocity cache.
func (c *Context) SetVelocities(v []float64) {
	if len(v) != len(c.v) {
		panic(fmt.Sprintf("tree: SetVelocities got %d coordinates, model has %d", len(v), len(c.v)))
	}
	copy(c.v, v)
	c.vcValid = false
}

// PositionKinematics returns the memoized position cache, recomputing it if
// the positions changed since the last evaluation.
func (c *Context) PositionKinematics() *PositionCache {
	if !c.pcValid {
		c.tree.calcPositionKinematics(c.q, c.pc)
		c.pcValid = true
	}
	return c.pc
}

// VelocityKinematics returns the memoized velocity cache, recomputing it
// (and the position cache it depends on) as needed.
func (c *Context) VelocityKinematics() *VelocityCache {
	if !c.vcValid {
		c.tree.calcVelocityKinematics(c.q, c.v, c.PositionKinematics(), c.vc)
		c.vcValid = true
	}
	return c.vc
}

// SetFreeBodyPose sets the pose X_WB of a free floating body attached
// directly to the world.
func (t *Tree) SetFreeBodyPose(c *Context, body *Body, xWB spatial.Transform) error {
	if err := t.checkContext("SetFreeBodyPose", c); err != nil {
		return err
	}
	qf, err := t.FreeBodyMobilizer(body)
	if err != nil {
		return err
	}
	n := t.nodes[body.node]
	if n.parent.index != 0 {
		return fmt.Errorf("%w: body %q does not float relative to the world", ErrNotFreeBody, body.name)
	}
	// X_FM = X_PF⁻¹ · X_PB · X_MB⁻¹ with X_PB = X_WB for a world parent.
	xFM := n.xPF.Inverse().Mul(xWB).Mul(n.xMB.Inverse())
	qf.SetPose(xFM, n.qSlice(c.q))
	c.pcValid = false
	c.vcValid = false
	return nil
}

// SetFreeBodySpatialVelocity sets the spatial velocity V_WB of a free
// floating body attached directly to the world.
func (t *Tree) SetFreeBodySpatialVelocity(c *Context, body *Body, vWB spatial.Velocity) error {
	if err := t.checkContext("SetFreeBodySpatialVelocity", c); err != nil {
		return err
	}
	qf, err := t.FreeBodyMobilizer(body)
	if err != nil {
		return err
	}
	n := t.nodes[body.node]
	if n.parent.index != 0 {
		return fmt.Errorf("%w: body %q does not float relative to the world", ErrNotFreeBody, body.name)
	}
	// Map V_WB to the mobilizer's V_FM: rotate into F and shift from Bo to Mo.
	xFM := n.mob.Transform(n.qSlice(c.q))
	rFW := n.xPF.R.Transpose()
	vFB := vWB.Rotate(rFW)
	pBM_F := xFM.R.MulVec(n.xMB.P).Scale(-1)
	qf.SetVelocity(vFB.Shift(pBM_F), n.vSlice(c.v))
	c.vcValid = false
	return nil
}
