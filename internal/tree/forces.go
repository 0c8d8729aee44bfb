package tree

import (
	"fmt"

	"github.com/vladimir-tri/multibody/internal/spatial"
)

// Forces accumulates applied forces on a model: one spatial force per body
// about the body origin, expressed in world, plus a generalized-force vector.
type Forces struct {
	Body        []spatial.Force
	Generalized []float64
}

// NewForces returns a zeroed accumulator sized to the finalized model.
func (t *Tree) NewForces() *Forces {
	if err := t.mustBeFinalized("NewForces"); err != nil {
		panic(err)
	}
	return &Forces{
		Body:        make([]spatial.Force, t.topo.NumNodes()),
		Generalized: make([]float64, t.NumVelocities()),
	}
}

func (f *Forces) SetZero() {
	for i := range f.Body {
		f.Body[i] = spatial.Force{}
	}
	for i := range f.Generalized {
		f.Generalized[i] = 0
	}
}

// ForceElement contributes forces to every evaluation, such as gravity.
// Conservative elements also report potential energy and its rate of change.
type ForceElement interface {
	Name() string
	AddForceContribution(t *Tree, c *Context, f *Forces)
	PotentialEnergy(t *Tree, c *Context) float64
	ConservativePower(t *Tree, c *Context) float64
}

// UniformGravity applies m·g to every body at its center of mass.
type UniformGravity struct {
	g spatial.Vec3
}

// AddUniformGravity registers a uniform gravity field with acceleration g
// expressed in world, e.g. (0, 0, -9.81).
func (t *Tree) AddUniformGravity(g spatial.Vec3) (*UniformGravity, error) {
	if t.finalized {
		return nil, fmt.Errorf("%w: AddUniformGravity", ErrFinalized)
	}
	e := &UniformGravity{g: g}
	t.elements = append(t.elements, e)
	return e, nil
}

func (e *UniformGravity) Name() string { return "uniform_gravity" }

// GravityVector returns the field's acceleration in world.
func (e *UniformGravity) GravityVector() spatial.Vec3 { return e.g }

// AddForceContribution accumulates each body's weight, shifted from the
// center of mass to the body origin.
func (e *UniformGravity) AddForceContribution(t *Tree, c *Context, f *Forces) {
	pc := c.PositionKinematics()
	for _, n := range t.nodes[1:] {
		mi := n.body.inertia
		if mi.Mass == 0 {
			continue
		}
		fg := e.g.Scale(mi.Mass)
		pBoBcm_W := pc.Poses[n.index].R.MulVec(mi.Com)
		f.Body[n.index] = f.Body[n.index].Add(spatial.Force{
			Tau: pBoBcm_W.Cross(fg),
			F:   fg,
		})
	}
}

// PotentialEnergy is −Σ m·g·p_WBcm, zero at the world origin.
func (e *UniformGravity) PotentialEnergy(t *Tree, c *Context) float64 {
	pc := c.PositionKinematics()
	pe := 0.0
	for _, n := range t.nodes[1:] {
		mi := n.body.inertia
		if mi.Mass == 0 {
			continue
		}
		pWBcm := pc.Poses[n.index].Apply(mi.Com)
		pe -= mi.Mass * e.g.Dot(pWBcm)
	}
	return pe
}

// ConservativePower is −dV/dt = Σ m·g·v_WBcm.
func (e *UniformGravity) ConservativePower(t *Tree, c *Context) float64 {
	pc := c.PositionKinematics()
	vc := c.VelocityKinematics()
	p := 0.0
	for _, n := range t.nodes[1:] {
		mi := n.body.inertia
		if mi.Mass == 0 {
			continue
		}
		pBoBcm_W := pc.Poses[n.index].R.MulVec(mi.Com)
		v := vc.Velocities[n.index]
		vBcm := v.V.Add(v.W.Cross(pBoBcm_W))
		p += mi.Mass * e.g.Dot(vBcm)
	}
	return p
}

// CalcForceElementsContribution accumulates every registered force element
// plus joint viscous damping into f. The accumulator is zeroed first.
func (t *Tree) CalcForceElementsContribution(c *Context, f *Forces) error {
	if err := t.checkContext("CalcForceElementsContribution", c); err != nil {
		return err
	}
	if len(f.Body) != t.topo.NumNodes() || len(f.Generalized) != t.NumVelocities() {
		panic("tree: force accumulator is not sized to the model")
	}
	f.SetZero()
	for _, e := range t.elements {
		e.AddForceContribution(t, c, f)
	}
	for _, e := range t.mobilizers {
		if e.damping == 0 {
			continue
		}
		n := t.nodes[e.node]
		for i := 0; i < n.nv; i++ {
			f.Generalized[n.vStart+i] -= e.damping * c.v[n.vStart+i]
		}
	}
	return nil
}

// CalcGravityGeneralizedForces returns τ_g, the projection of gravity onto
// the generalized forces. Zero when no gravity field is registered.
func (t *Tree) CalcGravityGeneralizedForces(c *Context) ([]float64, error) {
	if err := t.checkContext("CalcGravityGeneralizedForces", c); err != nil {
		return nil, err
	}
	nn := t.topo.NumNodes()
	nv := t.NumVelocities()
	tau := make([]float64, nv)

	fg := make([]spatial.Force, nn)
	any := false
	for _, e := range t.elements {
		if g, ok := e.(*UniformGravity); ok {
			acc := &Forces{Body: fg, Generalized: make([]float64, nv)}
			g.AddForceContribution(t, c, acc)
			any = true
		}
	}
	if !any {
		return tau, nil
	}

	// τ_g = −ID(v = 0, v̇ = 0, applied = gravity): a pure static projection,
	// run at rest regardless of the context's velocities.
	vZero := make([]float64, nv)
	vdot := make([]float64, nv)
	vc := NewVelocityCache(nn)
	aWB := make([]spatial.Acceleration, nn)
	fBBo := make([]spatial.Force, nn)
	if err := t.CalcInverseDynamicsInto(c, c.PositionKinematics(), vc, vZero, vdot, fg, nil, aWB, fBBo, tau); err != nil {
		return nil, err
	}
	for i := range tau {
		tau[i] = -tau[i]
	}
	return tau, nil
}
