// Package sweep samples scalar formulas across input ranges, one goroutine
// per series.
package sweep

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/parallelphysics/internal/formula"
)

// Plan sweeps one parameter of a formula while the others stay fixed.
type Plan struct {
	Formula string
	Param   int
	Min     float64
	Max     float64
	Samples int
	// Base holds the full argument list of each series; the swept slot is
	// overwritten per sample.
	Base   [][]float64
	Labels []string
}

type Series struct {
	Label string
	X     []float64
	Y     []float64
}

// Result is a sampled plan ready for plotting.
type Result struct {
	Formula string
	XLabel  string
	Series  []Series
}

var Plans = map[string]Plan{
	"balance": {
		Formula: "balance", Param: 0, Min: 1, Max: 100, Samples: 50,
		Base: [][]float64{{0, 1}, {0, 2}, {0, 5}}, Labels: []string{"const=1", "const=2", "const=5"},
	},
	"correlation": {
		Formula: "correlation", Param: 0, Min: 10, Max: 500, Samples: 50,
		Base: [][]float64{{0, 5}, {0, 10}, {0, 20}}, Labels: []string{"mass=5", "mass=10", "mass=20"},
	},
	"evolve": {
		Formula: "evolve", Param: 1, Min: 0, Max: 20, Samples: 50,
		Base: [][]float64{{50, 0}, {100, 0}, {200, 0}}, Labels: []string{"initial=50", "initial=100", "initial=200"},
	},
	"survival": {
		Formula: "survival", Param: 1, Min: 0.1, Max: 1, Samples: 50,
		Base: [][]float64{{10, 0}, {20, 0}, {50, 0}}, Labels: []string{"needs=10", "needs=20", "needs=50"},
	},
	"mass": {
		Formula: "mass", Param: 0, Min: 0, Max: 500, Samples: 50,
		Base:   [][]float64{{0, 5}, {0, 10}, {0, 20}, {0, 50}},
		Labels: []string{"mass=5", "mass=10", "mass=20", "mass=50"},
	},
	"emc2": {
		Formula: "emc2", Param: 0, Min: 10, Max: 500, Samples: 50,
		Base: [][]float64{{0, 5}, {0, 10}, {0, 20}}, Labels: []string{"mass=5", "mass=10", "mass=20"},
	},
	"field": {
		Formula: "field", Param: 0, Min: 0, Max: 2, Samples: 50,
		Base: [][]float64{{0, 10}}, Labels: []string{"state=10"},
	},
	"action": {
		Formula: "action", Param: 2, Min: 0, Max: 10, Samples: 50,
		Base:   [][]float64{{10, 5, 0}, {20, 10, 0}, {50, 25, 0}},
		Labels: []string{"10/5", "20/10", "50/25"},
	},
}

func PlanNames() []string {
	names := make([]string, 0, len(Plans))
	for name := range Plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run samples every series of plan concurrently, at most limit at a time
// (limit < 1 means unbounded). The first failing sample cancels the rest.
func Run(ctx context.Context, eng formula.Engine, plan Plan, limit int) (*Result, error) {
	entry, ok := eng.Catalog()[plan.Formula]
	if !ok {
		return nil, fmt.Errorf("sweep: unknown formula %q", plan.Formula)
	}
	if plan.Param < 0 || plan.Param >= len(entry.Params) {
		return nil, fmt.Errorf("sweep: %s has no parameter %d", plan.Formula, plan.Param)
	}
	if plan.Samples < 2 {
		return nil, fmt.Errorf("sweep: need at least 2 samples, got %d", plan.Samples)
	}
	if len(plan.Labels) != len(plan.Base) {
		return nil, fmt.Errorf("sweep: %d labels for %d series", len(plan.Labels), len(plan.Base))
	}

	result := &Result{
		Formula: plan.Formula,
		XLabel:  entry.Params[plan.Param],
		Series:  make([]Series, len(plan.Base)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	step := (plan.Max - plan.Min) / float64(plan.Samples-1)
	for i, base := range plan.Base {
		i, base := i, base
		g.Go(func() error {
			s := Series{
				Label: plan.Labels[i],
				X:     make([]float64, plan.Samples),
				Y:     make([]float64, plan.Samples),
			}
			args := append([]float64(nil), base...)
			for k := 0; k < plan.Samples; k++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				x := plan.Min + float64(k)*step
				if k == plan.Samples-1 {
					x = plan.Max
				}
				args[plan.Param] = x
				y, err := entry.Call(args...)
				if err != nil {
					return fmt.Errorf("sweep %s at %s=%g: %w", plan.Formula, result.XLabel, x, err)
				}
				s.X[k] = x
				s.Y[k] = y
			}
			result.Series[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
