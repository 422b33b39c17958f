package runner

import (
	"context"
	"fmt"

	"github.com/akmonengine/tabletop/sim"
	"golang.org/x/sync/errgroup"
)

// Scene builds an independent simulation for one batch run.
type Scene func() (*sim.Physics, error)

// Result is the final state of one batch run.
type Result struct {
	Index int
	Steps uint64
	Time  float64
	Hash  uint64
}

// RunBatch runs every scene for steps steps, at most workers at a time.
// Each run owns its Physics, so runs share nothing. The first error cancels
// the remaining runs.
func RunBatch(ctx context.Context, scenes []Scene, steps, workers int) ([]Result, error) {
	results := make([]Result, len(scenes))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, scene := range scenes {
		g.Go(func() error {
			p, err := scene()
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}

			for range steps {
				if err := ctx.Err(); err != nil {
					return err
				}
				p.Step()
			}

			results[i] = Result{
				Index: i,
				Steps: p.StepCount(),
				Time:  p.Time(),
				Hash:  p.StateHash(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
