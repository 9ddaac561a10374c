package metrics

import (
	"math"

	"github.com/san-kum/parallelphysics/internal/dynamo"
	"github.com/san-kum/parallelphysics/internal/formula"
)

// DispersionEntropy is the normalized Shannon entropy of the energy shares of
// the latest frame: 1 when energy is spread evenly, towards 0 when one object
// holds all of it.
type DispersionEntropy struct {
	name   string
	engine formula.Engine
	value  float64
}

func NewDispersionEntropy(eng formula.Engine) *DispersionEntropy {
	return &DispersionEntropy{name: "dispersion_entropy", engine: engineOrDefault(eng), value: 1}
}

func (d *DispersionEntropy) Name() string { return d.name }

func (d *DispersionEntropy) Observe(frame int, t float64, objects []dynamo.Snapshot) {
	if len(objects) < 2 {
		d.value = 1
		return
	}

	energies := make([]float64, len(objects))
	for i, o := range objects {
		energies[i] = o.Energy
	}
	shares, err := d.engine.Disperse(energies)
	if err != nil {
		d.value = math.NaN()
		return
	}

	h := 0.0
	for _, p := range shares {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	d.value = h / math.Log(float64(len(shares)))
}

func (d *DispersionEntropy) Value() float64 { return d.value }

func (d *DispersionEntropy) Reset() { d.value = 1 }

// Survival is the mean survival score of the latest frame, taking each
// object's energy as its needs and its energy-mass correlation as its
// adaptability.
type Survival struct {
	name   string
	engine formula.Engine
	value  float64
}

func NewSurvival(eng formula.Engine) *Survival {
	return &Survival{name: "survival", engine: engineOrDefault(eng)}
}

func (s *Survival) Name() string { return s.name }

func (s *Survival) Observe(frame int, t float64, objects []dynamo.Snapshot) {
	if len(objects) == 0 {
		s.value = 0
		return
	}

	sum := 0.0
	for _, o := range objects {
		adapt, err := s.engine.Correlation(o.Energy, o.Mass)
		if err != nil {
			s.value = math.NaN()
			return
		}
		score, err := s.engine.Survival(o.Energy, adapt)
		if err != nil {
			s.value = math.NaN()
			return
		}
		sum += score
	}
	s.value = sum / float64(len(objects))
}

func (s *Survival) Value() float64 { return s.value }

func (s *Survival) Reset() { s.value = 0 }

func engineOrDefault(eng formula.Engine) formula.Engine {
	if eng == (formula.Engine{}) {
		return formula.DefaultEngine
	}
	return eng
}

// Default returns the metrics recorded for every run, evaluating formulas
// with eng.
func Default(eng formula.Engine) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewMassGrowth(),
		NewDisplacement(),
		NewDispersionEntropy(eng),
		NewSurvival(eng),
		NewStability(10),
	}
}
