package sim

import (
	"context"
	"sync"
)

// Cloner is implemented by systems that can produce independent instances
// over shared immutable structure, enabling concurrent ensemble runs.
type Cloner interface {
	Clone() (*TreeSystem, error)
}

// Ensemble runs the same configuration from many initial states in parallel.
// The underlying model is shared; each run gets its own cloned system, so the
// runs never share mutable state.
type Ensemble struct {
	sys           Cloner
	newIntegrator func() Integrator
}

func NewEnsemble(sys Cloner, newIntegrator func() Integrator) *Ensemble {
	return &Ensemble{sys: sys, newIntegrator: newIntegrator}
}

// Run integrates every initial state concurrently and returns the results in
// input order. The first failed run's error is returned.
func (e *Ensemble) Run(ctx context.Context, x0s []State, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(x0s))
	errs := make([]error, len(x0s))

	var wg sync.WaitGroup
	for i, x0 := range x0s {
		wg.Add(1)
		go func(idx int, x0 State) {
			defer wg.Done()
			sys, err := e.sys.Clone()
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = New(sys, e.newIntegrator()).Run(ctx, x0, cfg)
		}(i, x0)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
