package config

import (
	"sort"

	"github.com/san-kum/parallelphysics/internal/formula"
)

var Presets = map[string]*Config{
	"probe": {
		Name: "probe", Dt: 0.016, Frames: 5, Sample: 1,
		Population: PopulationSpec{Objects: 1, Mass: 10, Energy: 50},
		Formula:    formula.DefaultEngine,
	},
	"swarm": {
		Name: "swarm", Dt: 0.016, Frames: 600, Sample: 10,
		Population: PopulationSpec{Objects: 256, Mass: 10, Energy: 50, Jitter: 0.25, Spacing: 0.5},
		Formula:    formula.DefaultEngine,
	},
	"heavy": {
		Name: "heavy", Dt: 0.016, Frames: 300, Sample: 5,
		Population: PopulationSpec{Objects: 16, Mass: 100, Energy: 500, Jitter: 0.1, Spacing: 2},
		Formula:    formula.DefaultEngine,
	},
	"burn": {
		Name: "burn", Dt: 0.1, Frames: 500, Sample: 10,
		Population: PopulationSpec{Objects: 32, Mass: 5, Energy: 400, Jitter: 0.5, Spacing: 1},
		Formula:    formula.Engine{DecayRate: 0.5, CorrelationScale: 10, MassConversion: 1e-2},
	},
	"frozen": {
		Name: "frozen", Dt: 0.016, Frames: 120, Sample: 1,
		Population: PopulationSpec{Objects: 4, Mass: 10, Energy: 50, Spacing: 1},
		Formula:    formula.Engine{DecayRate: 0, CorrelationScale: 10, MassConversion: 0},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
