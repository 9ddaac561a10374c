package physics

import (
	"fmt"

	"github.com/san-kum/parallelphysics/internal/dynamo"
	"github.com/san-kum/parallelphysics/internal/formula"
	"github.com/san-kum/parallelphysics/internal/world"
)

// StateDim is the length of the default internal state vector.
const StateDim = 3

// DefaultSeed is the internal state every Quantum starts from.
var DefaultSeed = dynamo.State{1, 1, 1}

// Quantum is the mutable physics state of a single object.
type Quantum struct {
	obj    world.Locatable
	engine formula.Engine
	mass   float64
	energy float64
	state  dynamo.State
	frames int
}

type Option func(*Quantum)

// WithEngine replaces the formula constants.
func WithEngine(e formula.Engine) Option {
	return func(q *Quantum) { q.engine = e }
}

// WithSeed starts from a custom state vector. Its length is fixed for the
// lifetime of the Quantum.
func WithSeed(seed dynamo.State) Option {
	return func(q *Quantum) { q.state = seed.Clone() }
}

func New(obj world.Locatable, mass, energy float64, opts ...Option) (*Quantum, error) {
	if obj == nil || locate(obj) == nil {
		return nil, fmt.Errorf("physics: %w: nil world object", dynamo.ErrCapability)
	}
	if mass <= 0 || !dynamo.IsFinite(mass) {
		return nil, dynamo.Domainf("physics: mass %v must be finite and > 0", mass)
	}
	if energy < 0 || !dynamo.IsFinite(energy) {
		return nil, dynamo.Domainf("physics: energy %v must be finite and >= 0", energy)
	}

	q := &Quantum{
		obj:    obj,
		engine: formula.DefaultEngine,
		mass:   mass,
		energy: energy,
		state:  DefaultSeed.Clone(),
	}
	for _, opt := range opts {
		opt(q)
	}

	if len(q.state) == 0 || !q.state.IsValid() {
		return nil, dynamo.Domainf("physics: invalid seed state %v", []float64(q.state))
	}
	if err := q.engine.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdatePhysics advances the object by one frame of dt seconds. Mass grows
// from the current energy before the energy itself evolves; the transformed
// state then drives the world object's z position. Nothing is committed
// unless every step succeeds.
func (q *Quantum) UpdatePhysics(dt float64) error {
	if dt < 0 || !dynamo.IsFinite(dt) {
		return q.stepErr("timestep", dynamo.Domainf("timestep %v must be finite and >= 0", dt))
	}

	mass, err := q.engine.IncreaseMass(q.energy, q.mass)
	if err != nil {
		return q.stepErr("mass increase", err)
	}

	energy, err := q.engine.Evolve(q.energy, dt)
	if err != nil {
		return q.stepErr("energy evolution", err)
	}

	force, err := q.engine.Correlation(energy, mass)
	if err != nil {
		return q.stepErr("force", err)
	}

	state, err := q.engine.Transform(q.state, force)
	if err != nil {
		return q.stepErr("transform", err)
	}
	if len(state) != len(q.state) {
		return q.stepErr("transform", dynamo.ErrDimensionMismatch)
	}

	pos := q.obj.Location()
	z := pos[2] + state[0]*dt
	if err := dynamo.CheckFinite("position", z); err != nil {
		return q.stepErr("position", err)
	}

	q.mass = mass
	q.energy = energy
	q.state = state
	pos[2] = z
	q.frames++
	return nil
}

// locate tolerates typed-nil objects whose Location dereferences nil.
func locate(obj world.Locatable) (loc *dynamo.Vec3) {
	defer func() {
		if recover() != nil {
			loc = nil
		}
	}()
	return obj.Location()
}

func (q *Quantum) stepErr(step string, err error) error {
	return &dynamo.StepError{Step: step, Frame: q.frames + 1, Wrapped: err}
}

func (q *Quantum) Mass() float64   { return q.mass }
func (q *Quantum) Energy() float64 { return q.energy }
func (q *Quantum) Frames() int     { return q.frames }

// State returns a copy of the internal state vector.
func (q *Quantum) State() dynamo.State { return q.state.Clone() }

// Object returns the world object this state moves.
func (q *Quantum) Object() world.Locatable { return q.obj }

func (q *Quantum) Snapshot() dynamo.Snapshot {
	return dynamo.Snapshot{
		Mass:     q.mass,
		Energy:   q.energy,
		State:    q.state.Clone(),
		Position: *q.obj.Location(),
	}
}

func (q *Quantum) String() string {
	return fmt.Sprintf("mass=%.4f energy=%.4f state=%v z=%.4f", q.mass, q.energy, []float64(q.state), q.obj.Location()[2])
}
