package storage

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/vladimir-tri/multibody/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Times: []float64{0, 0.01, 0.02},
		States: []sim.State{
			{0.5, 0},
			{0.499, -0.05},
			{0.496, -0.1},
		},
		StepsTaken:  2,
		EnergyDrift: 1.5e-9,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	id, err := s.Save("pendulum", "rk4", 0.01, 0.02, 1, 1, sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	meta, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Model != "pendulum" || meta.Integrator != "rk4" {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.StepsTaken != 2 || meta.NumPositions != 1 || meta.NumVelocities != 1 {
		t.Errorf("run shape lost: %+v", meta)
	}
	if meta.EnergyDrift != 1.5e-9 {
		t.Errorf("energy drift = %g, want 1.5e-9", meta.EnergyDrift)
	}

	states, times, err := s.LoadStates(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 3 || len(times) != 3 {
		t.Fatalf("got %d states, %d times, want 3 each", len(states), len(times))
	}
	// The CSV carries six decimal places.
	if math.Abs(states[1][0]-0.499) > 1e-6 || math.Abs(states[1][1]+0.05) > 1e-6 {
		t.Errorf("state row 1 = %v", states[1])
	}
	if math.Abs(times[2]-0.02) > 1e-6 {
		t.Errorf("time row 2 = %g", times[2])
	}
}

func TestListSkipsForeignEntries(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("a", "euler", 0.01, 1, 1, 1, sampleResult()); err != nil {
		t.Fatal(err)
	}
	// Noise that List must ignore: a bare file and a directory without
	// metadata.
	if err := os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "not_a_run"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("listed %d runs, want 1", len(runs))
	}
	if runs[0].Model != "a" {
		t.Errorf("listed run = %+v", runs[0])
	}
}

func TestListOnMissingBaseDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never_created"))
	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("listed %d runs from a missing directory", len(runs))
	}
}

func TestLoadUnknownRun(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Load("absent"); err == nil {
		t.Error("unknown run id accepted")
	}
	if _, _, err := s.LoadStates("absent"); err == nil {
		t.Error("unknown run id accepted by LoadStates")
	}
}

func TestSaveEmptyResult(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	id, err := s.Save("empty", "rk4", 0.01, 0, 1, 1, &sim.Result{})
	if err != nil {
		t.Fatal(err)
	}
	states, times, err := s.LoadStates(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 0 || len(times) != 0 {
		t.Errorf("empty run yielded %d states, %d times", len(states), len(times))
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, "pendulum", "rk4", 0.01, 0.02, sampleResult()); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.Model != "pendulum" || data.Steps != 2 {
		t.Errorf("exported run = %+v", data)
	}
	if len(data.Times) != 3 || len(data.States) != 3 {
		t.Errorf("exported %d times, %d states, want 3 each", len(data.Times), len(data.States))
	}
	if data.States[2][1] != -0.1 {
		t.Errorf("state row 2 = %v", data.States[2])
	}
}
