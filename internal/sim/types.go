package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/parallelphysics/internal/dynamo"
)

// Updater is a physics-bearing object: anything that advances itself by one
// frame of dt seconds.
type Updater interface {
	UpdatePhysics(dt float64) error
}

// UpdaterFunc adapts a plain function to Updater.
type UpdaterFunc func(dt float64) error

func (f UpdaterFunc) UpdatePhysics(dt float64) error { return f(dt) }

// CapabilityError reports objects that cannot be dispatched.
type CapabilityError struct {
	Indices []int
	Types   []string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%v: objects %v (%v)", dynamo.ErrCapability, e.Indices, e.Types)
}

func (e *CapabilityError) Unwrap() error { return dynamo.ErrCapability }

// FrameStats describes one completed ProcessAll call.
type FrameStats struct {
	Frame   int
	Dt      float64
	Objects int
	Failed  int
	Elapsed time.Duration
}

// FrameObserver is notified after every frame, on the caller's goroutine.
type FrameObserver interface {
	OnFrame(stats FrameStats)
}

type FrameObserverFunc func(stats FrameStats)

func (f FrameObserverFunc) OnFrame(stats FrameStats) { f(stats) }

type Option func(*Processor)

// WithWorkers sets the worker pool size. Values below 1 select the default.
func WithWorkers(n int) Option {
	return func(p *Processor) { p.workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.log = l }
}

func WithObserver(o FrameObserver) Option {
	return func(p *Processor) { p.observers = append(p.observers, o) }
}
