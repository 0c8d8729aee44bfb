package chain

import (
	"math"
	"testing"

	"github.com/vladimir-tri/multibody/internal/config"
)

func doubleModel() config.ModelConfig {
	return config.ModelConfig{
		Name:    "double",
		Gravity: 9.81,
		Links: []config.LinkConfig{
			{Name: "upper", Mass: 1.0, Length: 1.0},
			{Name: "lower", Mass: 0.5, Length: 0.6},
		},
	}
}

func TestBuildDoublePendulum(t *testing.T) {
	tr, err := Build(doubleModel())
	if err != nil {
		t.Fatal(err)
	}
	if tr.NumPositions() != 2 || tr.NumVelocities() != 2 {
		t.Fatalf("nq=%d nv=%d, want 2, 2", tr.NumPositions(), tr.NumVelocities())
	}
	if tr.NumBodies() != 3 {
		t.Errorf("bodies = %d, want 3 (world included)", tr.NumBodies())
	}
}

func TestBuildRejectsEmptyModel(t *testing.T) {
	if _, err := Build(config.ModelConfig{Name: "empty"}); err == nil {
		t.Error("empty model accepted")
	}
}

func TestTipPositionsAtZeroConfiguration(t *testing.T) {
	cfg := doubleModel()
	tr, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c, err := tr.CreateDefaultContext()
	if err != nil {
		t.Fatal(err)
	}

	tips, err := TipPositions(tr, c, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(tips) != 2 {
		t.Fatalf("got %d tips, want 2", len(tips))
	}
	// The chain hangs straight down at q = 0.
	want := []float64{-1.0, -1.6}
	for i, tip := range tips {
		if math.Abs(tip[0]) > 1e-12 || math.Abs(tip[1]) > 1e-12 {
			t.Errorf("tip %d off the vertical: %v", i, tip)
		}
		if math.Abs(tip[2]-want[i]) > 1e-12 {
			t.Errorf("tip %d z = %g, want %g", i, tip[2], want[i])
		}
	}
}

func TestTipPositionsSwingInXZPlane(t *testing.T) {
	cfg := doubleModel()
	tr, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c, err := tr.CreateDefaultContext()
	if err != nil {
		t.Fatal(err)
	}
	q1 := math.Pi / 2
	c.SetPositions([]float64{q1, 0})

	tips, err := TipPositions(tr, c, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Rotating +pi/2 about +y carries -z onto -x.
	if math.Abs(tips[0][0]+1) > 1e-12 || math.Abs(tips[0][2]) > 1e-12 {
		t.Errorf("first tip = %v, want (-1, 0, 0)", tips[0])
	}
	if math.Abs(tips[1][0]+1.6) > 1e-12 || math.Abs(tips[1][2]) > 1e-12 {
		t.Errorf("second tip = %v, want (-1.6, 0, 0)", tips[1])
	}
	for i, tip := range tips {
		if math.Abs(tip[1]) > 1e-12 {
			t.Errorf("tip %d left the x-z plane: %v", i, tip)
		}
	}
}

func TestHangingConfigurationIsEquilibrium(t *testing.T) {
	tr, err := Build(doubleModel())
	if err != nil {
		t.Fatal(err)
	}
	c, err := tr.CreateDefaultContext()
	if err != nil {
		t.Fatal(err)
	}
	tau, err := tr.CalcGravityGeneralizedForces(c)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range tau {
		if math.Abs(v) > 1e-12 {
			t.Errorf("gravity torque %d = %g while hanging, want 0", i, v)
		}
	}
}

func TestCustomComShiftsEquilibriumTorque(t *testing.T) {
	cfg := config.ModelConfig{
		Name:    "offset",
		Gravity: 9.81,
		Links: []config.LinkConfig{
			{Name: "link", Mass: 2.0, Length: 1.0, Com: 0.25},
		},
	}
	tr, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c, err := tr.CreateDefaultContext()
	if err != nil {
		t.Fatal(err)
	}
	q1 := math.Pi / 2
	c.SetPositions([]float64{q1})
	tau, err := tr.CalcGravityGeneralizedForces(c)
	if err != nil {
		t.Fatal(err)
	}
	// Horizontal link: the restoring torque about +y is m·g·com.
	want := 2.0 * 9.81 * 0.25
	if math.Abs(math.Abs(tau[0])-want) > 1e-10 {
		t.Errorf("|tau| = %g, want %g", math.Abs(tau[0]), want)
	}
}

func TestZeroGravityModelHasNoGravityTorque(t *testing.T) {
	cfg := doubleModel()
	cfg.Gravity = 0
	tr, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c, err := tr.CreateDefaultContext()
	if err != nil {
		t.Fatal(err)
	}
	c.SetPositions([]float64{1.0, -0.5})
	tau, err := tr.CalcGravityGeneralizedForces(c)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range tau {
		if v != 0 {
			t.Errorf("tau[%d] = %g with no gravity field", i, v)
		}
	}
}
