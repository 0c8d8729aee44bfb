package integrators

import "github.com/vladimir-tri/multibody/internal/sim"

// Euler is the explicit first-order method. Cheap, and accurate enough for
// short horizons and small steps; prefer RK4 otherwise.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(sys sim.System, t float64, x sim.State, dt float64) (sim.State, error) {
	xdot, err := sys.Derive(t, x)
	if err != nil {
		return nil, err
	}
	next := make(sim.State, len(x))
	for i := range x {
		next[i] = x[i] + dt*xdot[i]
	}
	return next, nil
}
