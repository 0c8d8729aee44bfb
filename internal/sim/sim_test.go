package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/vladimir-tri/multibody/internal/mobilizer"
	"github.com/vladimir-tri/multibody/internal/spatial"
	"github.com/vladimir-tri/multibody/internal/tree"
)

// harmonic is a unit-mass oscillator ẍ = -ω²x with known closed-form
// solution, used to exercise the simulator without a full model.
type harmonic struct {
	omega float64
}

func (h harmonic) NumPositions() int  { return 1 }
func (h harmonic) NumVelocities() int { return 1 }

func (h harmonic) Derive(t float64, x State) (State, error) {
	return State{x[1], -h.omega * h.omega * x[0]}, nil
}

func (h harmonic) Normalize(x State) {}

func (h harmonic) Energy(x State) float64 {
	return 0.5*x[1]*x[1] + 0.5*h.omega*h.omega*x[0]*x[0]
}

// eulerStep is a minimal in-package integrator for driving the simulator.
type eulerStep struct{}

func (eulerStep) Name() string { return "euler" }

func (eulerStep) Step(sys System, t float64, x State, dt float64) (State, error) {
	xdot, err := sys.Derive(t, x)
	if err != nil {
		return nil, err
	}
	next := make(State, len(x))
	for i := range x {
		next[i] = x[i] + dt*xdot[i]
	}
	return next, nil
}

func TestRunRecordsTrajectory(t *testing.T) {
	s := New(harmonic{omega: 2}, eulerStep{})
	res, err := s.Run(context.Background(), State{1, 0}, Config{Dt: 0.01, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.StepsTaken != 100 {
		t.Errorf("steps = %d, want 100", res.StepsTaken)
	}
	if len(res.Times) != 101 || len(res.States) != 101 {
		t.Errorf("recorded %d times, %d states, want 101 each", len(res.Times), len(res.States))
	}
	if res.Times[0] != 0 || math.Abs(res.Times[100]-1) > 1e-9 {
		t.Errorf("time span [%g, %g], want [0, 1]", res.Times[0], res.Times[100])
	}
	if res.States[0][0] != 1 || res.States[0][1] != 0 {
		t.Errorf("initial state not recorded verbatim: %v", res.States[0])
	}
}

func TestRunDoesNotMutateInitialState(t *testing.T) {
	x0 := State{0.5, -0.25}
	s := New(harmonic{omega: 1}, eulerStep{})
	if _, err := s.Run(context.Background(), x0, Config{Dt: 0.01, Duration: 0.1}); err != nil {
		t.Fatal(err)
	}
	if x0[0] != 0.5 || x0[1] != -0.25 {
		t.Errorf("x0 mutated: %v", x0)
	}
}

func TestRunConfigValidation(t *testing.T) {
	s := New(harmonic{omega: 1}, eulerStep{})
	if _, err := s.Run(context.Background(), State{1, 0}, Config{Dt: 0, Duration: 1}); err == nil {
		t.Error("zero dt accepted")
	}
	if _, err := s.Run(context.Background(), State{1, 0}, Config{Dt: 0.01, Duration: -1}); err == nil {
		t.Error("negative duration accepted")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(harmonic{omega: 1}, eulerStep{})
	res, err := s.Run(ctx, State{1, 0}, Config{Dt: 0.01, Duration: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if res == nil || res.StepsTaken != 0 {
		t.Errorf("cancelled run took steps: %+v", res)
	}
}

// diverging drives the state to NaN on the first derivative evaluation.
type diverging struct{ harmonic }

func (diverging) Derive(t float64, x State) (State, error) {
	return State{math.NaN(), math.NaN()}, nil
}

func TestRunDetectsDivergence(t *testing.T) {
	s := New(diverging{}, eulerStep{})
	_, err := s.Run(context.Background(), State{1, 0}, Config{Dt: 0.01, Duration: 1})
	var se SimError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want SimError", err)
	}
	if se.Step != 0 {
		t.Errorf("diverged at step %d, want 0", se.Step)
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	s := New(harmonic{omega: 1}, eulerStep{})
	calls := 0
	err := s.RunWithCallback(context.Background(), State{1, 0}, Config{Dt: 0.01, Duration: 10},
		func(t float64, x State) bool {
			calls++
			return calls < 5
		})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 5 {
		t.Errorf("callback ran %d times, want 5", calls)
	}
}

func TestObserverSeesEveryStep(t *testing.T) {
	s := New(harmonic{omega: 1}, eulerStep{})
	seen := 0
	s.AddObserver(observerFunc(func(t float64, x State) { seen++ }))
	res, err := s.Run(context.Background(), State{1, 0}, Config{Dt: 0.1, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if seen != res.StepsTaken {
		t.Errorf("observer saw %d steps, simulator took %d", seen, res.StepsTaken)
	}
}

type observerFunc func(t float64, x State)

func (f observerFunc) OnStep(t float64, x State) { f(t, x) }

func TestStateIsValid(t *testing.T) {
	if !(State{0, 1, -2}).IsValid() {
		t.Error("finite state reported invalid")
	}
	if (State{math.NaN()}).IsValid() {
		t.Error("NaN state reported valid")
	}
	if (State{2e12}).IsValid() {
		t.Error("unbounded state reported valid")
	}
}

// hangingPendulum is a single link whose mass hangs straight down at q = 0,
// a stable equilibrium under gravity.
func hangingPendulum(t *testing.T) *tree.Tree {
	t.Helper()
	m := tree.New()
	mi := spatial.PointMass(1.0, spatial.Vec3{0, 0, -0.5})
	b, err := m.AddBody("link", mi)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddMobilizer(mobilizer.NewRevolute("pin", spatial.Vec3{0, 1, 0}),
		m.WorldBody(), b, spatial.Identity(), spatial.Identity()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddUniformGravity(spatial.Vec3{0, 0, -9.81}); err != nil {
		t.Fatal(err)
	}
	if err := m.Finalize(); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestTreeSystemEquilibrium(t *testing.T) {
	sys, err := NewTreeSystem(hangingPendulum(t))
	if err != nil {
		t.Fatal(err)
	}
	xdot, err := sys.Derive(0, sys.DefaultState())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range xdot {
		if math.Abs(v) > 1e-10 {
			t.Errorf("xdot[%d] = %g at a stable equilibrium, want 0", i, v)
		}
	}
}

func TestTreeSystemAccelerationMatchesGravity(t *testing.T) {
	// A point-mass pendulum of length l obeys q̈ = -(g/l)·sin(q).
	sys, err := NewTreeSystem(hangingPendulum(t))
	if err != nil {
		t.Fatal(err)
	}
	q := 1.1
	x := State{q, 0}
	xdot, err := sys.Derive(0, x)
	if err != nil {
		t.Fatal(err)
	}
	g, l := 9.81, 0.5
	want := -(g / l) * math.Sin(q)
	if math.Abs(xdot[1]-want) > 1e-9 {
		t.Errorf("qddot = %.12g, want %.12g", xdot[1], want)
	}
	if math.Abs(xdot[0]-x[1]) > 1e-12 {
		t.Errorf("qdot = %g, want %g", xdot[0], x[1])
	}
}

func TestEnsembleMatchesSerialRuns(t *testing.T) {
	sys, err := NewTreeSystem(hangingPendulum(t))
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Dt: 0.005, Duration: 0.5}
	x0s := []State{{0.2, 0}, {0.8, 0}, {1.5, -1}}

	ens := NewEnsemble(sys, func() Integrator { return eulerStep{} })
	parallel, err := ens.Run(context.Background(), x0s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(parallel) != len(x0s) {
		t.Fatalf("got %d results, want %d", len(parallel), len(x0s))
	}

	for i, x0 := range x0s {
		clone, err := sys.Clone()
		if err != nil {
			t.Fatal(err)
		}
		serial, err := New(clone, eulerStep{}).Run(context.Background(), x0, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if serial.StepsTaken != parallel[i].StepsTaken {
			t.Fatalf("run %d: %d steps parallel, %d serial", i, parallel[i].StepsTaken, serial.StepsTaken)
		}
		last := len(serial.States) - 1
		for j := range serial.States[last] {
			if serial.States[last][j] != parallel[i].States[last][j] {
				t.Errorf("run %d diverges from serial at state entry %d", i, j)
			}
		}
	}
}
