package robot

import "go.uber.org/zap"

// Strategy is the decision logic of a robot, resumed once per step. Resume
// returns false once the strategy is finished.
type Strategy interface {
	Resume(r *Robot) bool
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(r *Robot) bool

func (f StrategyFunc) Resume(r *Robot) bool {
	return f(r)
}

// Sequence runs its steps one after the other. A finished step hands over to
// the next one within the same resume.
type Sequence struct {
	steps []Strategy
	index int
}

func NewSequence(steps ...Strategy) *Sequence {
	return &Sequence{steps: steps}
}

func (s *Sequence) Resume(r *Robot) bool {
	for s.index < len(s.steps) {
		if s.steps[s.index].Resume(r) {
			return true
		}
		s.index++
	}
	return false
}

// Done reports whether every step finished.
func (s *Sequence) Done() bool {
	return s.index >= len(s.steps)
}

// Do runs fn once. An error is logged and ends the step.
func Do(fn func(r *Robot) error) Strategy {
	return StrategyFunc(func(r *Robot) bool {
		if err := fn(r); err != nil {
			r.log.Warn("strategy step failed", zap.Error(err))
		}
		return false
	})
}

// WaitDone waits for the position and angle orders to complete.
func WaitDone() Strategy {
	return StrategyFunc(func(r *Robot) bool {
		return !r.OrderDone()
	})
}

// Wait waits for duration seconds of simulation time, counted from its first
// resume.
func Wait(duration float64) Strategy {
	return &wait{duration: duration}
}

type wait struct {
	duration float64
	until    float64
	started  bool
}

func (w *wait) Resume(r *Robot) bool {
	now := r.Time()
	if !w.started {
		w.started = true
		w.until = now + w.duration
	}
	return now < w.until
}
