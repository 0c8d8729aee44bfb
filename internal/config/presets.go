package config

import "sort"

// Presets are ready-made scenarios keyed by name.
var Presets = map[string]*Config{
	"pendulum": {
		Model: ModelConfig{
			Name:    "pendulum",
			Gravity: DefaultGravity,
			Links: []LinkConfig{
				{Name: "link", Mass: 1.0, Length: 1.0},
			},
		},
		Integrator: "rk4",
		Dt:         0.002,
		Duration:   20.0,
		InitState:  []JointState{{Angle: 0.5}},
	},
	"double_pendulum": {
		Model: ModelConfig{
			Name:    "double_pendulum",
			Gravity: DefaultGravity,
			Links: []LinkConfig{
				{Name: "upper", Mass: 1.0, Length: 1.0},
				{Name: "lower", Mass: 1.0, Length: 1.0},
			},
		},
		Integrator: "rk4",
		Dt:         0.001,
		Duration:   30.0,
		InitState:  []JointState{{Angle: 1.5}, {Angle: 1.5}},
	},
	"double_pendulum_chaos": {
		Model: ModelConfig{
			Name:    "double_pendulum",
			Gravity: DefaultGravity,
			Links: []LinkConfig{
				{Name: "upper", Mass: 1.0, Length: 1.0},
				{Name: "lower", Mass: 1.0, Length: 1.0},
			},
		},
		Integrator: "rk4",
		Dt:         0.001,
		Duration:   60.0,
		InitState:  []JointState{{Angle: 3.0}, {Angle: 3.0}},
	},
	"damped_chain": {
		Model: ModelConfig{
			Name:    "damped_chain",
			Gravity: DefaultGravity,
			Links: []LinkConfig{
				{Name: "link1", Mass: 1.0, Length: 0.5, Damping: 0.1},
				{Name: "link2", Mass: 0.8, Length: 0.5, Damping: 0.1},
				{Name: "link3", Mass: 0.6, Length: 0.5, Damping: 0.1},
				{Name: "link4", Mass: 0.4, Length: 0.5, Damping: 0.1},
			},
		},
		Integrator: "rk4",
		Dt:         0.002,
		Duration:   20.0,
		InitState:  []JointState{{Angle: 1.2}},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
