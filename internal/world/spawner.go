package world

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"
)

// Body is the initial condition of one spawned physics object.
type Body struct {
	Object *Object
	Mass   float64
	Energy float64
}

// SpawnConfig controls how initial mass and energy vary between objects.
type SpawnConfig struct {
	Count   int
	Mass    float64
	Energy  float64
	Jitter  float64 // relative spread, in [0, 1)
	Seed    int64
	Spacing float64 // distance between objects along x
}

// Spawner places objects on a line and perturbs their mass and energy with
// fractal noise so runs are varied but reproducible from the seed.
type Spawner struct {
	massNoise   opensimplex.Noise
	energyNoise opensimplex.Noise
}

func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		massNoise:   opensimplex.NewNormalized(seed),
		energyNoise: opensimplex.NewNormalized(seed + 1),
	}
}

func (s *Spawner) Spawn(cfg SpawnConfig) ([]Body, error) {
	if cfg.Count < 0 {
		return nil, fmt.Errorf("spawn: negative count %d", cfg.Count)
	}
	if cfg.Mass <= 0 || cfg.Energy < 0 {
		return nil, fmt.Errorf("spawn: mass %v must be > 0 and energy %v >= 0", cfg.Mass, cfg.Energy)
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return nil, fmt.Errorf("spawn: jitter %v outside [0, 1)", cfg.Jitter)
	}

	bodies := make([]Body, cfg.Count)
	for i := range bodies {
		x := float64(i) * 0.37
		obj := NewObject(fmt.Sprintf("object_%d", i))
		obj.Position[0] = float64(i) * cfg.Spacing

		bodies[i] = Body{
			Object: obj,
			Mass:   cfg.Mass * (1 + cfg.Jitter*signed(octaveNoise(s.massNoise, x, 0, 3, 1.0, 0.5))),
			Energy: cfg.Energy * (1 + cfg.Jitter*signed(octaveNoise(s.energyNoise, x, 0, 3, 1.0, 0.5))),
		}
	}
	return bodies, nil
}

// signed maps a normalized [0, 1] noise sample onto [-1, 1].
func signed(v float64) float64 {
	return 2*v - 1
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
