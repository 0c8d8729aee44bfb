package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-tri/multibody/internal/tree"
)

// TreeSystem adapts an articulated rigid-body model to the System interface.
// Each instance owns one evaluation context and is used by a single
// goroutine; Clone produces independent instances for concurrent runs over
// the same finalized model.
type TreeSystem struct {
	model *tree.Tree
	ctx   *tree.Context

	forces *tree.Forces
	mass   *mat.Dense
	chol   mat.Cholesky
	rhs    *mat.VecDense
	vdot   *mat.VecDense
}

// NewTreeSystem wraps a finalized model. Applied forces come from the
// model's registered force elements (gravity, joint damping).
func NewTreeSystem(model *tree.Tree) (*TreeSystem, error) {
	ctx, err := model.CreateDefaultContext()
	if err != nil {
		return nil, err
	}
	nv := model.NumVelocities()
	return &TreeSystem{
		model:  model,
		ctx:    ctx,
		forces: model.NewForces(),
		mass:   mat.NewDense(nv, nv, nil),
		rhs:    mat.NewVecDense(nv, nil),
		vdot:   mat.NewVecDense(nv, nil),
	}, nil
}

// Clone returns an independent system over the same model, for ensemble runs.
func (s *TreeSystem) Clone() (*TreeSystem, error) {
	return NewTreeSystem(s.model)
}

func (s *TreeSystem) Model() *tree.Tree { return s.model }

func (s *TreeSystem) NumPositions() int  { return s.model.NumPositions() }
func (s *TreeSystem) NumVelocities() int { return s.model.NumVelocities() }

// DefaultState returns the model's zero configuration at rest.
func (s *TreeSystem) DefaultState() State {
	x := make(State, s.NumPositions()+s.NumVelocities())
	copy(x, s.ctx.Positions())
	return x
}

// Derive evaluates the equations of motion: q̇ from the kinematic map and v̇
// from M(q)·v̇ = −ID(q, v, 0) with the element forces applied. The mass
// matrix is symmetric positive definite, so the solve is a Cholesky
// factorization.
func (s *TreeSystem) Derive(t float64, x State) (State, error) {
	nq, nv := s.NumPositions(), s.NumVelocities()
	if len(x) != nq+nv {
		panic(fmt.Sprintf("sim: state has %d entries, system has %d", len(x), nq+nv))
	}
	s.ctx.SetPositions(x[:nq])
	s.ctx.SetVelocities(x[nq:])

	if err := s.model.CalcForceElementsContribution(s.ctx, s.forces); err != nil {
		return nil, err
	}
	tau, err := s.model.CalcInverseDynamics(s.ctx, make([]float64, nv), s.forces)
	if err != nil {
		return nil, err
	}
	if err := s.model.CalcMassMatrix(s.ctx, s.mass); err != nil {
		return nil, err
	}

	sym := mat.NewSymDense(nv, nil)
	for i := 0; i < nv; i++ {
		for j := i; j < nv; j++ {
			sym.SetSym(i, j, s.mass.At(i, j))
		}
	}
	if ok := s.chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("sim: mass matrix is not positive definite at t=%.6g", t)
	}
	for i := 0; i < nv; i++ {
		s.rhs.SetVec(i, -tau[i])
	}
	if err := s.chol.SolveVecTo(s.vdot, s.rhs); err != nil {
		return nil, fmt.Errorf("sim: forward dynamics solve: %w", err)
	}

	xdot := make(State, nq+nv)
	if err := s.model.MapVelocityToQDot(s.ctx, x[nq:], xdot[:nq]); err != nil {
		return nil, err
	}
	for i := 0; i < nv; i++ {
		xdot[nq+i] = s.vdot.AtVec(i)
	}
	return xdot, nil
}

// Normalize restores unit quaternion norms on any floating-base blocks.
func (s *TreeSystem) Normalize(x State) {
	nq := s.NumPositions()
	if err := s.model.NormalizePositions(x[:nq]); err != nil {
		panic(err)
	}
}

// Energy reports kinetic plus potential energy for drift accounting.
func (s *TreeSystem) Energy(x State) float64 {
	nq := s.NumPositions()
	s.ctx.SetPositions(x[:nq])
	s.ctx.SetVelocities(x[nq:])
	ke, err := s.model.CalcKineticEnergy(s.ctx)
	if err != nil {
		return 0
	}
	pe, err := s.model.CalcPotentialEnergy(s.ctx)
	if err != nil {
		return 0
	}
	return ke + pe
}
