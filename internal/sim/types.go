package sim

import "fmt"

// State is the full continuous state of a system: the generalized positions
// followed by the generalized velocities.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, x := range s {
		if x != x || x > maxAbsState || x < -maxAbsState {
			return false
		}
	}
	return true
}

// maxAbsState bounds finite state entries; beyond it the run has diverged.
const maxAbsState = 1e12

// System is a first-order ODE ẋ = f(t, x) over a State of nq positions and
// nv velocities. Derive must not retain x or the returned slice across calls.
type System interface {
	NumPositions() int
	NumVelocities() int
	Derive(t float64, x State) (State, error)
	// Normalize restores state invariants that integration erodes, such as
	// unit quaternion norms. Called after every accepted step.
	Normalize(x State)
}

// Integrator advances a System by one step of size dt.
type Integrator interface {
	Name() string
	Step(sys System, t float64, x State, dt float64) (State, error)
}

// Observer is notified after every accepted step.
type Observer interface {
	OnStep(t float64, x State)
}

// Config controls a simulation run.
type Config struct {
	Dt       float64
	Duration float64
}

func (cfg Config) validate() error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("sim: duration must be positive, got %g", cfg.Duration)
	}
	return nil
}

// Result holds the recorded trajectory of one run.
type Result struct {
	Times  []float64
	States []State

	// EnergyDrift is |E(T) − E(0)| / |E(0)| when the system reports energy,
	// zero otherwise.
	EnergyDrift float64
	StepsTaken  int
}

// EnergyReporter is implemented by systems that can evaluate their total
// mechanical energy, enabling drift accounting.
type EnergyReporter interface {
	Energy(x State) float64
}

// SimError reports a failure at a specific step of a run.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("sim: step %d (t=%.6g): %s", e.Step, e.Time, e.Message)
}
