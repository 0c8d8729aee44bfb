package integrators

import "github.com/vladimir-tri/multibody/internal/sim"

// RK4 is the classical fourth-order Runge-Kutta method. Scratch buffers are
// reused across steps; an RK4 value is therefore not safe for concurrent use.
type RK4 struct {
	scratch sim.State
}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(sys sim.System, t float64, x sim.State, dt float64) (sim.State, error) {
	n := len(x)
	if len(r.scratch) != n {
		r.scratch = make(sim.State, n)
	}

	k1, err := sys.Derive(t, x)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2, err := sys.Derive(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3, err := sys.Derive(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*k3[i]
	}
	k4, err := sys.Derive(t+dt, r.scratch)
	if err != nil {
		return nil, err
	}

	next := make(sim.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		next[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return next, nil
}
