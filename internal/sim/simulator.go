package sim

import (
	"context"
	"math"
)

// Simulator advances a System with a fixed-step Integrator, recording the
// trajectory and notifying observers.
type Simulator struct {
	sys        System
	integrator Integrator
	observers  []Observer
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{sys: sys, integrator: integrator}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 over cfg.Duration, recording every step. The run
// stops early on context cancellation or when the state stops being finite.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Times:  make([]float64, 0, steps+1),
		States: make([]State, 0, steps+1),
	}

	x := x0.Clone()
	t := 0.0
	result.Times = append(result.Times, t)
	result.States = append(result.States, x.Clone())

	initialEnergy := 0.0
	er, hasEnergy := s.sys.(EnergyReporter)
	if hasEnergy {
		initialEnergy = er.Energy(x)
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		next, err := s.integrator.Step(s.sys, t, x, cfg.Dt)
		if err != nil {
			return result, err
		}
		s.sys.Normalize(next)
		if !next.IsValid() {
			return result, SimError{Time: t, Step: i, Message: "state is no longer finite"}
		}

		x = next
		t += cfg.Dt
		result.StepsTaken++
		result.Times = append(result.Times, t)
		result.States = append(result.States, x.Clone())

		for _, o := range s.observers {
			o.OnStep(t, x)
		}
	}

	if hasEnergy && initialEnergy != 0 {
		result.EnergyDrift = math.Abs(er.Energy(x)-initialEnergy) / math.Abs(initialEnergy)
	}
	return result, nil
}

// RunWithCallback integrates without recording; callback returning false
// stops the run. Used by live views.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(t float64, x State) bool) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	x := x0.Clone()
	t := 0.0
	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !callback(t, x) {
			return nil
		}
		next, err := s.integrator.Step(s.sys, t, x, cfg.Dt)
		if err != nil {
			return err
		}
		s.sys.Normalize(next)
		if !next.IsValid() {
			return SimError{Time: t, Step: int(t / cfg.Dt), Message: "state is no longer finite"}
		}
		x = next
		t += cfg.Dt
	}
	return nil
}
