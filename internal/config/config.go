// Package config loads and validates run configuration for the simulator.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTemperature = 300.0    // K
	DefaultPressure    = 101325.0 // Pa, 1 atm
	DefaultDt          = 1e-15    // s
	DefaultDuration    = 1e-11    // s
	DefaultCopies      = 50
	DefaultFrameSkip   = 10
	DefaultMode        = "analytic"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Topology    string  `yaml:"topology"`
	Temperature float64 `yaml:"temperature"`
	Pressure    float64 `yaml:"pressure"`
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	Copies      int     `yaml:"copies"`
	FrameSkip   int     `yaml:"frameskip"`
	Mode        string  `yaml:"mode"` // analytic | numerical
	Seed        int64   `yaml:"seed"`
	Minimize    bool    `yaml:"minimize"`
	Workers     int     `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Temperature: DefaultTemperature,
		Pressure:    DefaultPressure,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Copies:      DefaultCopies,
		FrameSkip:   DefaultFrameSkip,
		Mode:        DefaultMode,
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
	if c.Temperature <= 0 {
		return fmt.Errorf("%w: temperature must be positive, got %v", ErrInvalid, c.Temperature)
	}
	if c.Pressure <= 0 {
		return fmt.Errorf("%w: pressure must be positive, got %v", ErrInvalid, c.Pressure)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalid, c.Dt)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: duration must be non-negative, got %v", ErrInvalid, c.Duration)
	}
	if c.Copies < 1 {
		return fmt.Errorf("%w: copies must be at least 1, got %d", ErrInvalid, c.Copies)
	}
	if c.FrameSkip < 0 {
		return fmt.Errorf("%w: frameskip must be non-negative, got %d", ErrInvalid, c.FrameSkip)
	}
	if c.Mode != "analytic" && c.Mode != "numerical" {
		return fmt.Errorf("%w: mode must be analytic or numerical, got %q", ErrInvalid, c.Mode)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalid, c.Workers)
	}
	return nil
}
