package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.002
	DefaultDuration = 10.0
	DefaultGravity  = 9.81
	DefaultMass     = 1.0
	DefaultLength   = 1.0
)

// Config is a complete simulation scenario: the articulated model, the
// integration settings, and the initial joint state.
type Config struct {
	Model      ModelConfig `yaml:"model"`
	Integrator string      `yaml:"integrator"`
	Dt         float64     `yaml:"dt"`
	Duration   float64     `yaml:"duration"`

	// InitState holds one angle and one rate per link, in radians and
	// radians per second. Missing trailing entries default to zero.
	InitState []JointState `yaml:"init_state"`
}

// ModelConfig describes a serial chain of rigid links joined by revolute
// joints, hanging under uniform gravity.
type ModelConfig struct {
	Name    string       `yaml:"name"`
	Gravity float64      `yaml:"gravity"`
	Links   []LinkConfig `yaml:"links"`
}

// LinkConfig is one rigid link. Com is the center-of-mass distance from the
// inboard joint along the link; zero means the midpoint. Damping is a viscous
// joint coefficient in N·m·s/rad.
type LinkConfig struct {
	Name    string  `yaml:"name"`
	Mass    float64 `yaml:"mass"`
	Length  float64 `yaml:"length"`
	Com     float64 `yaml:"com,omitempty"`
	Damping float64 `yaml:"damping,omitempty"`
}

type JointState struct {
	Angle float64 `yaml:"angle"`
	Rate  float64 `yaml:"rate"`
}

func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Name:    "pendulum",
			Gravity: DefaultGravity,
			Links: []LinkConfig{
				{Name: "link", Mass: DefaultMass, Length: DefaultLength},
			},
		},
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		InitState:  []JointState{{Angle: 0.5}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if len(c.Model.Links) == 0 {
		return fmt.Errorf("config: model %q has no links", c.Model.Name)
	}
	for i, l := range c.Model.Links {
		if l.Mass <= 0 {
			return fmt.Errorf("config: link %d mass must be positive, got %g", i, l.Mass)
		}
		if l.Length <= 0 {
			return fmt.Errorf("config: link %d length must be positive, got %g", i, l.Length)
		}
		if l.Com < 0 || l.Com > l.Length {
			return fmt.Errorf("config: link %d com %g is outside [0, %g]", i, l.Com, l.Length)
		}
		if l.Damping < 0 {
			return fmt.Errorf("config: link %d damping must not be negative, got %g", i, l.Damping)
		}
	}
	if len(c.InitState) > len(c.Model.Links) {
		return fmt.Errorf("config: %d initial joint states for %d links", len(c.InitState), len(c.Model.Links))
	}
	return nil
}

// InitialState returns the angles followed by the rates, one per link, with
// unspecified joints at rest.
func (c *Config) InitialState() (q, v []float64) {
	n := len(c.Model.Links)
	q = make([]float64, n)
	v = make([]float64, n)
	for i, s := range c.InitState {
		q[i] = s.Angle
		v[i] = s.Rate
	}
	return q, v
}
