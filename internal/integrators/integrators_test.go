package integrators

import (
	"context"
	"math"
	"testing"

	"github.com/vladimir-tri/multibody/internal/mobilizer"
	"github.com/vladimir-tri/multibody/internal/sim"
	"github.com/vladimir-tri/multibody/internal/spatial"
	"github.com/vladimir-tri/multibody/internal/tree"
)

// harmonic is ẍ = -x, solution x(t) = cos(t) from x(0) = 1, ẋ(0) = 0.
type harmonic struct{}

func (harmonic) NumPositions() int  { return 1 }
func (harmonic) NumVelocities() int { return 1 }

func (harmonic) Derive(t float64, x sim.State) (sim.State, error) {
	return sim.State{x[1], -x[0]}, nil
}

func (harmonic) Normalize(x sim.State) {}

func integrateTo(t *testing.T, ig sim.Integrator, dt, tEnd float64) sim.State {
	t.Helper()
	x := sim.State{1, 0}
	for tm := 0.0; tm < tEnd-dt/2; tm += dt {
		next, err := ig.Step(harmonic{}, tm, x, dt)
		if err != nil {
			t.Fatal(err)
		}
		x = next
	}
	return x
}

func TestEulerFirstOrderConvergence(t *testing.T) {
	tEnd := 1.0
	want := math.Cos(tEnd)
	errCoarse := math.Abs(integrateTo(t, NewEuler(), 0.01, tEnd)[0] - want)
	errFine := math.Abs(integrateTo(t, NewEuler(), 0.005, tEnd)[0] - want)
	ratio := errCoarse / errFine
	if ratio < 1.8 || ratio > 2.2 {
		t.Errorf("halving dt scaled the error by %g, want about 2", ratio)
	}
}

func TestRK4FourthOrderConvergence(t *testing.T) {
	tEnd := 1.0
	want := math.Cos(tEnd)
	errCoarse := math.Abs(integrateTo(t, NewRK4(), 0.02, tEnd)[0] - want)
	errFine := math.Abs(integrateTo(t, NewRK4(), 0.01, tEnd)[0] - want)
	ratio := errCoarse / errFine
	if ratio < 12 || ratio > 20 {
		t.Errorf("halving dt scaled the error by %g, want about 16", ratio)
	}
}

func TestRK4Accuracy(t *testing.T) {
	x := integrateTo(t, NewRK4(), 0.01, 2.0)
	if math.Abs(x[0]-math.Cos(2)) > 1e-8 {
		t.Errorf("x(2) = %.12g, want %.12g", x[0], math.Cos(2))
	}
	if math.Abs(x[1]+math.Sin(2)) > 1e-8 {
		t.Errorf("v(2) = %.12g, want %.12g", x[1], -math.Sin(2))
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	for _, ig := range []sim.Integrator{NewEuler(), NewRK4()} {
		x := sim.State{1, 0}
		if _, err := ig.Step(harmonic{}, 0, x, 0.1); err != nil {
			t.Fatal(err)
		}
		if x[0] != 1 || x[1] != 0 {
			t.Errorf("%s mutated its input state: %v", ig.Name(), x)
		}
	}
}

func undampedPendulum(t *testing.T) *tree.Tree {
	t.Helper()
	m := tree.New()
	b, err := m.AddBody("link", spatial.PointMass(1.0, spatial.Vec3{0, 0, -1}))
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

func TestRK4ConservesPendulumEnergy(t *testing.T) {
	sys, err := sim.NewTreeSystem(undampedPendulum(t))
	if err != nil {
		t.Fatal(err)
	}
	res, err := sim.New(sys, NewRK4()).Run(context.Background(),
		sim.State{1.2, 0}, sim.Config{Dt: 0.001, Duration: 5})
	if err != nil {
		t.Fatal(err)
	}
	if res.EnergyDrift > 1e-6 {
		t.Errorf("relative energy drift = %g over 5 s, want < 1e-6", res.EnergyDrift)
	}
}

func TestEulerDriftExceedsRK4(t *testing.T) {
	run := func(ig sim.Integrator) float64 {
		sys, err := sim.NewTreeSystem(undampedPendulum(t))
		if err != nil {
			t.Fatal(err)
		}
		res, err := sim.New(sys, ig).Run(context.Background(),
			sim.State{1.0, 0}, sim.Config{Dt: 0.002, Duration: 2})
		if err != nil {
			t.Fatal(err)
		}
		return res.EnergyDrift
	}
	if euler, rk4 := run(NewEuler()), run(NewRK4()); euler <= rk4 {
		t.Errorf("euler drift %g not worse than rk4 drift %g", euler, rk4)
	}
}
