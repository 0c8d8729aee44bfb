package tree

// CalcKineticEnergy returns ½·vᵀ·M(q)·v, accumulated body by body from the
// velocity kinematics.
func (t *Tree) CalcKineticEnergy(c *Context) (float64, error) {
	if err := t.checkContext("CalcKineticEnergy", c); err != nil {
		return 0, err
	}
	pc := c.PositionKinematics()
	vc := c.VelocityKinematics()
	ke := 0.0
	for _, n := range t.nodes[1:] {
		mBW := n.body.inertia.ReExpress(pc.Poses[n.index].R)
		ke += mBW.KineticEnergy(vc.Velocities[n.index])
	}
	return ke, nil
}

// CalcPotentialEnergy sums the potential energy of every registered force
// element.
func (t *Tree) CalcPotentialEnergy(c *Context) (float64, error) {
	if err := t.checkContext("CalcPotentialEnergy", c); err != nil {
		return 0, err
	}
	pe := 0.0
	for _, e := range t.elements {
		pe += e.PotentialEnergy(t, c)
	}
	return pe, nil
}

// CalcConservativePower sums −dV/dt over every registered force element; a
// positive value means conservative elements are adding kinetic energy.
func (t *Tree) CalcConservativePower(c *Context) (float64, error) {
	if err := t.checkContext("CalcConservativePower", c); err != nil {
		return 0, err
	}
	p := 0.0
	for _, e := range t.elements {
		p += e.ConservativePower(t, c)
	}
	return p, nil
}
