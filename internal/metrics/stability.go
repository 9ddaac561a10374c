package metrics

import (
	"math"

	"github.com/san-kum/parallelphysics/internal/dynamo"
)

// Stability is the fraction of frames in which every object's state vector
// stayed within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(frame int, t float64, objects []dynamo.Snapshot) {
	s.samples++
	for _, o := range objects {
		if violates(o.State, s.threshold) {
			s.violations++
			return
		}
	}
}

func violates(x dynamo.State, threshold float64) bool {
	for _, val := range x {
		if math.Abs(val) > threshold || !dynamo.IsFinite(val) {
			return true
		}
	}
	return false
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
