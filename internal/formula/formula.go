package formula

import (
	"math"

	"github.com/san-kum/parallelphysics/internal/dynamo"
)

const (
	DefaultDecayRate        = 0.05
	DefaultCorrelationScale = 10.0
	DefaultMassConversion   = 1e-3

	// SpeedOfLight in m/s.
	SpeedOfLight = 299792458.0
)

// Engine holds the tunable constants of the formula library.
type Engine struct {
	DecayRate        float64 `yaml:"decay_rate"`
	CorrelationScale float64 `yaml:"correlation_scale"`
	MassConversion   float64 `yaml:"mass_conversion"`
}

// DefaultEngine backs the package-level functions.
var DefaultEngine = Engine{
	DecayRate:        DefaultDecayRate,
	CorrelationScale: DefaultCorrelationScale,
	MassConversion:   DefaultMassConversion,
}

// Validate checks the constants themselves.
func (e Engine) Validate() error {
	if e.DecayRate < 0 || !dynamo.IsFinite(e.DecayRate) {
		return dynamo.Domainf("decay rate %v", e.DecayRate)
	}
	if e.CorrelationScale <= 0 || !dynamo.IsFinite(e.CorrelationScale) {
		return dynamo.Domainf("correlation scale %v", e.CorrelationScale)
	}
	if e.MassConversion < 0 || !dynamo.IsFinite(e.MassConversion) {
		return dynamo.Domainf("mass conversion %v", e.MassConversion)
	}
	return nil
}

// Balance maps a mass onto its balanced mass for the given constant.
func (Engine) Balance(mass, c float64) (float64, error) {
	if err := nonNegative("balance", "mass", mass); err != nil {
		return 0, err
	}
	if err := positive("balance", "const", c); err != nil {
		return 0, err
	}
	v := c * math.Log1p(mass/c)
	return v, dynamo.CheckFinite("balance", v)
}

// Correlation is the dimensionless energy-mass relation in [0, 1).
func (e Engine) Correlation(energy, mass float64) (float64, error) {
	if err := nonNegative("correlation", "energy", energy); err != nil {
		return 0, err
	}
	if err := positive("correlation", "mass", mass); err != nil {
		return 0, err
	}
	v := math.Tanh(energy / (mass * e.CorrelationScale))
	return v, dynamo.CheckFinite("correlation", v)
}

// Evolve returns energy decayed over an elapsed time. Evolve(e, 0) == e.
func (e Engine) Evolve(energy, timeStep float64) (float64, error) {
	if err := nonNegative("evolve", "energy", energy); err != nil {
		return 0, err
	}
	if err := nonNegative("evolve", "time step", timeStep); err != nil {
		return 0, err
	}
	if timeStep == 0 {
		return energy, nil
	}
	v := energy * math.Exp(-e.DecayRate*timeStep)
	return v, dynamo.CheckFinite("evolve", v)
}

// Transform rotates state by angle force in each coordinate plane
// (i, i+1) in turn, so the norm is kept and force 0 is the identity. A
// single-component state has no plane to rotate in and comes back unchanged.
// The input is not modified.
func (Engine) Transform(state dynamo.State, force float64) (dynamo.State, error) {
	if len(state) == 0 {
		return nil, dynamo.Domainf("transform: empty state")
	}
	if !state.IsValid() {
		return nil, dynamo.Domainf("transform: non-finite state %v", []float64(state))
	}
	if !dynamo.IsFinite(force) {
		return nil, dynamo.Domainf("transform: force %v", force)
	}

	sin, cos := math.Sincos(force)
	out := state.Clone()
	for i := 0; i+1 < len(out); i++ {
		a, b := out[i], out[i+1]
		out[i] = a*cos + b*sin
		out[i+1] = b*cos - a*sin
	}

	if !out.IsValid() {
		return nil, dynamo.Domainf("transform produced non-finite state")
	}
	return out, nil
}

// ActionPotential scores an initial value raised by potential as action grows.
func (Engine) ActionPotential(initial, potential, action float64) (float64, error) {
	if err := nonNegative("action potential", "action", action); err != nil {
		return 0, err
	}
	v := initial + potential*(1-math.Exp(-action))
	return v, dynamo.CheckFinite("action potential", initial, potential, v)
}

// Survival blends linear and square-root need satisfaction by adaptability.
func (Engine) Survival(needs, adaptability float64) (float64, error) {
	if err := nonNegative("survival", "needs", needs); err != nil {
		return 0, err
	}
	if adaptability < 0 || adaptability > 1 || math.IsNaN(adaptability) {
		return 0, dynamo.Domainf("survival: adaptability %v outside [0, 1]", adaptability)
	}
	v := adaptability*needs + (1-adaptability)*math.Sqrt(needs)
	return v, dynamo.CheckFinite("survival", v)
}

// Disperse returns each component's share of the total energy. An all-zero
// map disperses evenly.
func (Engine) Disperse(energyMap []float64) ([]float64, error) {
	out := make([]float64, len(energyMap))
	if len(energyMap) == 0 {
		return out, nil
	}

	total := 0.0
	for i, v := range energyMap {
		if v < 0 || !dynamo.IsFinite(v) {
			return nil, dynamo.Domainf("disperse: component %d is %v", i, v)
		}
		total += v
	}
	if !dynamo.IsFinite(total) {
		return nil, dynamo.Domainf("disperse: total energy overflow")
	}

	if total == 0 {
		share := 1 / float64(len(energyMap))
		for i := range out {
			out[i] = share
		}
		return out, nil
	}

	for i, v := range energyMap {
		out[i] = v / total
	}
	return out, nil
}

// IncreaseMass converts energy into additional mass. The result is never
// below mass.
func (e Engine) IncreaseMass(energy, mass float64) (float64, error) {
	if err := nonNegative("increase mass", "energy", energy); err != nil {
		return 0, err
	}
	if err := positive("increase mass", "mass", mass); err != nil {
		return 0, err
	}
	v := mass + energy*e.MassConversion
	return v, dynamo.CheckFinite("increase mass", v)
}

// EMC2 is energy relative to the rest energy of mass.
func (Engine) EMC2(energy, mass float64) (float64, error) {
	if err := nonNegative("emc2", "energy", energy); err != nil {
		return 0, err
	}
	if err := positive("emc2", "mass", mass); err != nil {
		return 0, err
	}
	v := energy / (mass * SpeedOfLight * SpeedOfLight)
	return v, dynamo.CheckFinite("emc2", v)
}

// FieldMapping maps user input onto a quantum state scalar.
func (Engine) FieldMapping(userInput, quantumState float64) (float64, error) {
	v := quantumState * math.Tanh(userInput)
	return v, dynamo.CheckFinite("field mapping", userInput, quantumState, v)
}

// InputForce reduces an input vector to its magnitude.
func (Engine) InputForce(vector []float64) (float64, error) {
	v := dynamo.State(vector).Norm()
	return v, dynamo.CheckFinite("input force", v)
}

func nonNegative(fn, name string, v float64) error {
	if v < 0 || !dynamo.IsFinite(v) {
		return dynamo.Domainf("%s: %s %v must be finite and >= 0", fn, name, v)
	}
	return nil
}

func positive(fn, name string, v float64) error {
	if v <= 0 || !dynamo.IsFinite(v) {
		return dynamo.Domainf("%s: %s %v must be finite and > 0", fn, name, v)
	}
	return nil
}
