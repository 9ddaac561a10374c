package sim

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/san-kum/parallelphysics/internal/dynamo"
)

// Processor advances a fixed collection of physics objects one frame at a
// time, running their updates concurrently on a bounded worker pool.
//
// Each object must exclusively own the state its update mutates; two
// objects sharing a world object is undefined behaviour.
type Processor struct {
	objects   []Updater
	workers   int
	log       *slog.Logger
	observers []FrameObserver

	mu     sync.Mutex
	pool   *workerPool
	frame  int
	closed bool
}

// New builds a processor over objects and starts its worker pool. The slice
// is copied; adding or removing objects later is not supported.
func New(objects []Updater, opts ...Option) (*Processor, error) {
	var bad CapabilityError
	for i, obj := range objects {
		if isNil(obj) {
			bad.Indices = append(bad.Indices, i)
			bad.Types = append(bad.Types, fmt.Sprintf("%T", obj))
		}
	}
	if len(bad.Indices) > 0 {
		return nil, &bad
	}

	p := &Processor{
		objects: append([]Updater(nil), objects...),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.workers = poolSize(p.workers, len(p.objects))
	p.pool = newWorkerPool(p.workers)

	p.log.Debug("physics processor started", "objects", len(p.objects), "workers", p.workers)
	return p, nil
}

// FromAny checks at construction that every value implements Updater.
func FromAny(objects []any, opts ...Option) (*Processor, error) {
	updaters := make([]Updater, len(objects))
	var bad CapabilityError
	for i, obj := range objects {
		u, ok := obj.(Updater)
		if !ok || isNil(u) {
			bad.Indices = append(bad.Indices, i)
			bad.Types = append(bad.Types, fmt.Sprintf("%T", obj))
			continue
		}
		updaters[i] = u
	}
	if len(bad.Indices) > 0 {
		return nil, &bad
	}
	return New(updaters, opts...)
}

// poolSize defaults to the hardware parallelism, capped at the object count
// and never below one.
func poolSize(requested, objects int) int {
	n := requested
	if n < 1 {
		n = runtime.NumCPU()
	}
	if n > objects {
		n = objects
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ProcessAll runs UpdatePhysics(dt) on every object and returns once all of
// them have finished. Calls are serialized, so every update of one frame
// completes before any update of the next begins.
//
// Failed objects are reported together in a *dynamo.FrameError; the updates
// of the other objects stand. When ctx is done, objects not yet dispatched
// are skipped and report ctx.Err(), but dispatched updates are still awaited.
func (p *Processor) ProcessAll(ctx context.Context, dt float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return dynamo.ErrClosed
	}

	start := time.Now()
	frame := p.frame + 1
	errs := make([]error, len(p.objects))

	var done sync.WaitGroup
	for i, obj := range p.objects {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		done.Add(1)
		select {
		case p.pool.jobs <- job{obj: obj, dt: dt, err: &errs[i], done: &done}:
		case <-ctx.Done():
			done.Done()
			errs[i] = ctx.Err()
		}
	}
	done.Wait()
	p.frame = frame

	var frameErr *dynamo.FrameError
	for i, err := range errs {
		if err == nil {
			continue
		}
		if frameErr == nil {
			frameErr = &dynamo.FrameError{Frame: frame}
		}
		frameErr.Objects = append(frameErr.Objects, dynamo.ObjectError{Index: i, Err: err})
	}

	stats := FrameStats{
		Frame:   frame,
		Dt:      dt,
		Objects: len(p.objects),
		Elapsed: time.Since(start),
	}
	if frameErr != nil {
		stats.Failed = len(frameErr.Objects)
		p.log.Warn("physics frame had failures", "frame", frame, "failed", stats.Failed, "objects", stats.Objects, "error", frameErr)
	}
	for _, o := range p.observers {
		o.OnFrame(stats)
	}

	if frameErr != nil {
		return frameErr
	}
	return nil
}

// Close releases the worker pool. It waits for a running frame and is safe to
// call more than once.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.pool.close()
	p.log.Debug("physics processor stopped", "frames", p.frame)
	return nil
}

// Frame returns the number of frames processed so far.
func (p *Processor) Frame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

func (p *Processor) Len() int     { return len(p.objects) }
func (p *Processor) Workers() int { return p.workers }
