// Package dynamo provides the shared primitives of the physics engine.
//
// The package defines the small vocabulary every other package speaks:
//
//   - [State]: fixed-length internal state vector of a physics object
//   - [Vec3]: three component position/velocity, an alias of mgl64.Vec3
//   - [ErrNumericDomain], [ErrCapability], [ErrClosed]: error kinds
//   - [StepError], [FrameError]: errors carrying update context
//
// # Example
//
//	obj := world.NewObject("probe")
//	q, _ := physics.New(obj, 10, 50)
//	proc, _ := sim.New([]sim.Updater{q})
//	defer proc.Close()
//	err := proc.ProcessAll(ctx, 0.016)
//
// # Thread Safety
//
// Values in this package carry no locks. A [State] belongs to exactly one
// physics object and must not be shared between goroutines.
package dynamo
