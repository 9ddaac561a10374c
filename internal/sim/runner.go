package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/parallelphysics/internal/dynamo"
	"github.com/san-kum/parallelphysics/internal/formula"
	"github.com/san-kum/parallelphysics/internal/physics"
	"github.com/san-kum/parallelphysics/internal/world"
)

type RunConfig struct {
	Objects     int
	Frames      int
	Dt          float64
	Workers     int
	Mass        float64
	Energy      float64
	Jitter      float64
	Seed        int64
	Spacing     float64
	SampleEvery int
	StopOnError bool
	Engine      formula.Engine
}

func (c RunConfig) Validate() error {
	if c.Objects < 1 {
		return fmt.Errorf("objects must be positive, got %d", c.Objects)
	}
	if c.Frames < 0 {
		return fmt.Errorf("frames must be non-negative, got %d", c.Frames)
	}
	if c.Dt < 0 || !dynamo.IsFinite(c.Dt) {
		return fmt.Errorf("dt must be finite and non-negative, got %f", c.Dt)
	}
	return c.Engine.Validate()
}

// FrameRecord is the state of every object after a frame. Frame 0 is the
// initial condition.
type FrameRecord struct {
	Frame   int               `json:"frame"`
	Time    float64           `json:"time"`
	Objects []dynamo.Snapshot `json:"objects"`
}

type Result struct {
	Records    []FrameRecord      `json:"records"`
	Metrics    map[string]float64 `json:"metrics"`
	FramesRun  int                `json:"frames_run"`
	Errors     []error            `json:"-"`
	Elapsed    time.Duration      `json:"elapsed"`
	WorkerPool int                `json:"workers"`
}

// Runner spawns a population of physics objects and drives them through a
// processor for a fixed number of frames.
type Runner struct {
	cfg       RunConfig
	metrics   []dynamo.Metric
	observers []FrameObserver
	log       *slog.Logger
}

func NewRunner(cfg RunConfig, metrics []dynamo.Metric) *Runner {
	if cfg.SampleEvery < 1 {
		cfg.SampleEvery = 1
	}
	if cfg.Engine == (formula.Engine{}) {
		cfg.Engine = formula.DefaultEngine
	}
	return &Runner{cfg: cfg, metrics: metrics, log: slog.Default()}
}

func (r *Runner) AddObserver(o FrameObserver) { r.observers = append(r.observers, o) }

func (r *Runner) SetLogger(l *slog.Logger) { r.log = l }

// Population builds the world objects and their physics states.
func (r *Runner) Population() ([]*world.Object, []*physics.Quantum, error) {
	bodies, err := world.NewSpawner(r.cfg.Seed).Spawn(world.SpawnConfig{
		Count:   r.cfg.Objects,
		Mass:    r.cfg.Mass,
		Energy:  r.cfg.Energy,
		Jitter:  r.cfg.Jitter,
		Seed:    r.cfg.Seed,
		Spacing: r.cfg.Spacing,
	})
	if err != nil {
		return nil, nil, err
	}

	objs := make([]*world.Object, len(bodies))
	qs := make([]*physics.Quantum, len(bodies))
	for i, b := range bodies {
		q, err := physics.New(b.Object, b.Mass, b.Energy, physics.WithEngine(r.cfg.Engine))
		if err != nil {
			return nil, nil, fmt.Errorf("object %d: %w", i, err)
		}
		objs[i] = b.Object
		qs[i] = q
	}
	return objs, qs, nil
}

func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	_, qs, err := r.Population()
	if err != nil {
		return nil, err
	}

	updaters := make([]Updater, len(qs))
	for i, q := range qs {
		updaters[i] = q
	}

	opts := []Option{WithWorkers(r.cfg.Workers), WithLogger(r.log)}
	for _, o := range r.observers {
		opts = append(opts, WithObserver(o))
	}
	proc, err := New(updaters, opts...)
	if err != nil {
		return nil, err
	}
	defer proc.Close()

	result := &Result{
		Records:    make([]FrameRecord, 0, r.cfg.Frames/r.cfg.SampleEvery+2),
		Metrics:    make(map[string]float64),
		WorkerPool: proc.Workers(),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	start := time.Now()
	r.observe(result, 0, qs, true)

	for frame := 1; frame <= r.cfg.Frames; frame++ {
		err := proc.ProcessAll(ctx, r.cfg.Dt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Elapsed = time.Since(start)
			r.finish(result)
			return result, ctxErr
		}
		result.FramesRun++

		if err != nil {
			result.Errors = append(result.Errors, err)
			var frameErr *dynamo.FrameError
			if r.cfg.StopOnError || !errors.As(err, &frameErr) {
				r.observe(result, frame, qs, true)
				break
			}
		}

		r.observe(result, frame, qs, frame%r.cfg.SampleEvery == 0 || frame == r.cfg.Frames)
	}

	result.Elapsed = time.Since(start)
	r.finish(result)
	return result, nil
}

func (r *Runner) observe(result *Result, frame int, qs []*physics.Quantum, record bool) {
	snaps := make([]dynamo.Snapshot, len(qs))
	for i, q := range qs {
		snaps[i] = q.Snapshot()
	}
	t := float64(frame) * r.cfg.Dt

	for _, m := range r.metrics {
		m.Observe(frame, t, snaps)
	}
	if record {
		result.Records = append(result.Records, FrameRecord{Frame: frame, Time: t, Objects: snaps})
	}
}

func (r *Runner) finish(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
