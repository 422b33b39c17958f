// Package runner drives a sim.Physics in fixed steps, either paced on the
// wall clock with an independent display refresh, or as fast as possible.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akmonengine/tabletop/sim"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid loop config")

// Display receives the snapshots of the simulation. It is called from the
// loop goroutine and must not keep the snapshot slices beyond the call.
type Display interface {
	Show(snapshot sim.Snapshot) error
	// WantsShapes reports whether the next snapshot must describe the shapes.
	WantsShapes() bool
}

type Config struct {
	// Speed scales the wall clock: 2 runs twice as fast as real time.
	Speed float64 `yaml:"speed" json:"speed"`
	// DisplayRate is the display refresh, in frames per second.
	DisplayRate float64 `yaml:"display_rate" json:"display_rate"`
	// MaxCatchUp bounds the steps run for one wall clock tick. Late time
	// beyond it is dropped.
	MaxCatchUp int `yaml:"max_catch_up" json:"max_catch_up"`
	// Duration stops the loop after that much simulated time; 0 runs until
	// the context is done.
	Duration float64 `yaml:"duration" json:"duration"`
}

func DefaultConfig() Config {
	return Config{
		Speed:       1,
		DisplayRate: 30,
		MaxCatchUp:  10,
	}
}

func (c Config) Validate() error {
	if c.Speed <= 0 {
		return fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidConfig, c.Speed)
	}
	if c.DisplayRate <= 0 {
		return fmt.Errorf("%w: display_rate must be positive, got %v", ErrInvalidConfig, c.DisplayRate)
	}
	if c.MaxCatchUp < 1 {
		return fmt.Errorf("%w: max_catch_up must be at least 1, got %d", ErrInvalidConfig, c.MaxCatchUp)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %v", ErrInvalidConfig, c.Duration)
	}
	return nil
}

// Loop accumulates elapsed time into fixed physics steps.
type Loop struct {
	physics *sim.Physics
	display Display
	cfg     Config
	log     *zap.Logger

	accumulator time.Duration
	dropped     time.Duration
	// now is replaced in tests
	now func() time.Time
}

// New creates a loop; display may be nil.
func New(p *sim.Physics, display Display, cfg Config, log *zap.Logger) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		physics: p,
		display: display,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}, nil
}

func (l *Loop) Physics() *sim.Physics {
	return l.physics
}

func (l *Loop) step() time.Duration {
	return time.Duration(l.physics.Config().StepDt * float64(time.Second))
}

// Advance adds elapsed wall clock time, scaled by Speed, and runs the steps
// it covers, at most MaxCatchUp. It returns the number of steps run.
func (l *Loop) Advance(elapsed time.Duration) int {
	l.accumulator += time.Duration(float64(elapsed) * l.cfg.Speed)
	dt := l.step()

	steps := 0
	for l.accumulator >= dt && steps < l.cfg.MaxCatchUp {
		l.physics.Step()
		l.accumulator -= dt
		steps++
	}

	if l.accumulator >= dt {
		late := l.accumulator - l.accumulator%dt
		l.dropped += late
		l.accumulator -= late
		l.log.Debug("simulation behind real time, dropping steps",
			zap.Duration("dropped", late),
			zap.Float64("time", l.physics.Time()),
		)
	}
	return steps
}

// Dropped returns the wall clock time skipped because the loop was behind.
func (l *Loop) Dropped() time.Duration {
	return l.dropped
}

func (l *Loop) done() bool {
	return l.cfg.Duration > 0 && l.physics.Time() >= l.cfg.Duration
}

func (l *Loop) show() error {
	if l.display == nil {
		return nil
	}
	return l.display.Show(l.physics.Snapshot(l.display.WantsShapes()))
}

// Run paces the simulation on the wall clock until the context is done or
// Duration is reached. The display is refreshed at DisplayRate, on its own
// schedule.
func (l *Loop) Run(ctx context.Context) error {
	displayPeriod := time.Duration(float64(time.Second) / l.cfg.DisplayRate)

	last := l.now()
	nextDisplay := last
	for {
		now := l.now()
		l.Advance(now.Sub(last))
		last = now

		if !now.Before(nextDisplay) {
			if err := l.show(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
			nextDisplay = now.Add(displayPeriod)
		}

		if l.done() {
			return nil
		}

		wait := l.wait(now, nextDisplay)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// wait returns the wall clock time until the next step or frame, whichever
// comes first. The accumulator holds simulated time, scaled back by Speed.
func (l *Loop) wait(now, nextDisplay time.Time) time.Duration {
	untilStep := time.Duration(float64(l.step()-l.accumulator) / l.cfg.Speed)
	return min(untilStep, nextDisplay.Sub(now))
}

// RunSteps runs steps physics steps as fast as possible. The display, if
// any, is refreshed every DisplayRate of simulated time.
func (l *Loop) RunSteps(ctx context.Context, steps int) error {
	displayEvery := max(1, int(1/(l.cfg.DisplayRate*l.physics.Config().StepDt)))

	for i := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.physics.Step()

		if (i+1)%displayEvery == 0 {
			if err := l.show(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
		if l.done() {
			return nil
		}
	}
	return nil
}
