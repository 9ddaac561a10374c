// Package physics provides the per-object physics state.
//
// A [Quantum] owns one object's mass, energy and internal state vector and
// moves a world object it does not own:
//
//	obj := world.NewObject("probe")
//	q, err := physics.New(obj, 10.0, 50.0)
//	for frame := 0; frame < 5; frame++ {
//	    if err := q.UpdatePhysics(0.016); err != nil {
//	        return err
//	    }
//	}
//
// # Ownership
//
// The world object passed to [New] must outlive the Quantum and must not be
// handed to any other physics object. Updates mutate it without locking.
package physics
