package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/vladimir-tri/multibody/internal/sim"
)

// ExportData is the JSON shape of an exported run.
type ExportData struct {
	Model       string      `json:"model"`
	Integrator  string      `json:"integrator"`
	Dt          float64     `json:"dt"`
	Duration    float64     `json:"duration"`
	Steps       int         `json:"steps"`
	EnergyDrift float64     `json:"energy_drift"`
	Times       []float64   `json:"times"`
	States      [][]float64 `json:"states"`
}

// ExportJSON writes a run as indented JSON to path, or to stdout when path
// is "-".
func ExportJSON(path, model, integrator string, dt, duration float64, result *sim.Result) error {
	data := ExportData{
		Model:       model,
		Integrator:  integrator,
		Dt:          dt,
		Duration:    duration,
		Steps:       result.StepsTaken,
		EnergyDrift: result.EnergyDrift,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
	}
	for i, s := range result.States {
		data.States[i] = s
	}

	var w io.Writer = os.Stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
