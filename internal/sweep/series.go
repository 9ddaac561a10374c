package sweep

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/parallelphysics/internal/formula"
	"github.com/san-kum/parallelphysics/internal/physics"
	"github.com/san-kum/parallelphysics/internal/world"
)

// DispersionMaps are the energy distributions compared by the disperse plan,
// from fully concentrated to even.
var DispersionMaps = [][]float64{
	{100, 0, 0},
	{50, 50, 0},
	{60, 30, 10},
	{40, 40, 40},
}

// Dispersion disperses every energy map concurrently. Each series holds the
// shares by component index.
func Dispersion(ctx context.Context, eng formula.Engine, maps [][]float64, limit int) (*Result, error) {
	result := &Result{
		Formula: "disperse",
		XLabel:  "component",
		Series:  make([]Series, len(maps)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, m := range maps {
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			shares, err := eng.Disperse(m)
			if err != nil {
				return fmt.Errorf("sweep disperse %v: %w", m, err)
			}
			x := make([]float64, len(shares))
			for k := range x {
				x[k] = float64(k + 1)
			}
			result.Series[i] = Series{Label: fmt.Sprint(m), X: x, Y: shares}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Evolution runs a single object for frames updates of dt and returns its
// mass, energy, z and state[0] per frame. z is scaled by 100 and state[0]
// by 1/10 so the series share one chart.
func Evolution(eng formula.Engine, mass, energy, dt float64, frames int) (*Result, error) {
	if frames < 1 {
		return nil, fmt.Errorf("sweep: need at least 1 frame, got %d", frames)
	}
	obj := world.NewObject("evolution")
	q, err := physics.New(obj, mass, energy, physics.WithEngine(eng))
	if err != nil {
		return nil, err
	}

	labels := []string{"mass", "energy", "z*100", "s0/10"}
	series := make([]Series, len(labels))
	for i := range series {
		series[i] = Series{Label: labels[i], X: make([]float64, frames), Y: make([]float64, frames)}
	}

	for f := 0; f < frames; f++ {
		if err := q.UpdatePhysics(dt); err != nil {
			return nil, err
		}
		snap := q.Snapshot()
		ys := []float64{snap.Mass, snap.Energy, snap.Position[2] * 100, snap.State[0] / 10}
		for i := range series {
			series[i].X[f] = float64(f)
			series[i].Y[f] = ys[i]
		}
	}

	return &Result{Formula: "quantum evolution", XLabel: "frame", Series: series}, nil
}

// Names lists every plan the sweep command accepts: the scalar plans plus
// disperse and evolution.
func Names() []string {
	return append(PlanNames(), "disperse", "evolution")
}
