package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/parallelphysics/internal/formula"
	"github.com/san-kum/parallelphysics/internal/sim"
)

const (
	DefaultDt      = 0.016
	DefaultFrames  = 300
	DefaultObjects = 8
	DefaultMass    = 10.0
	DefaultEnergy  = 50.0
	DefaultJitter  = 0.1
	DefaultSpacing = 1.0
)

type Config struct {
	Name       string         `yaml:"name"`
	Dt         float64        `yaml:"dt"`
	Frames     int            `yaml:"frames"`
	Workers    int            `yaml:"workers"`
	Seed       int64          `yaml:"seed"`
	Sample     int            `yaml:"sample_every"`
	StopOnErr  bool           `yaml:"stop_on_error"`
	Population PopulationSpec `yaml:"population"`
	Formula    formula.Engine `yaml:"formula"`
}

type PopulationSpec struct {
	Objects int     `yaml:"objects"`
	Mass    float64 `yaml:"mass"`
	Energy  float64 `yaml:"energy"`
	Jitter  float64 `yaml:"jitter"`
	Spacing float64 `yaml:"spacing"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:   "default",
		Dt:     DefaultDt,
		Frames: DefaultFrames,
		Sample: 1,
		Population: PopulationSpec{
			Objects: DefaultObjects,
			Mass:    DefaultMass,
			Energy:  DefaultEnergy,
			Jitter:  DefaultJitter,
			Spacing: DefaultSpacing,
		},
		Formula: formula.DefaultEngine,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
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
	return c.RunConfig().Validate()
}

// RunConfig converts the file representation into runner settings.
func (c *Config) RunConfig() sim.RunConfig {
	return sim.RunConfig{
		Objects:     c.Population.Objects,
		Frames:      c.Frames,
		Dt:          c.Dt,
		Workers:     c.Workers,
		Mass:        c.Population.Mass,
		Energy:      c.Population.Energy,
		Jitter:      c.Population.Jitter,
		Seed:        c.Seed,
		Spacing:     c.Population.Spacing,
		SampleEvery: c.Sample,
		StopOnError: c.StopOnErr,
		Engine:      c.Formula,
	}
}
