package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a position or velocity in world space. Index 2 is z.
type Vec3 = mgl64.Vec3

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckFinite returns ErrNumericDomain naming the first non-finite value.
func CheckFinite(name string, values ...float64) error {
	for _, v := range values {
		if !IsFinite(v) {
			return Domainf("%s produced non-finite value %v", name, v)
		}
	}
	return nil
}

// Snapshot is a copy of one physics object's state after a frame.
type Snapshot struct {
	Mass     float64 `json:"mass"`
	Energy   float64 `json:"energy"`
	State    State   `json:"state"`
	Position Vec3    `json:"position"`
}

// Metric accumulates a scalar over the frames of a run.
type Metric interface {
	Name() string
	Observe(frame int, t float64, objects []Snapshot)
	Value() float64
	Reset()
}
