// Package quadramp generates trapezoidal velocity profiles: the velocity
// ramps up to a cruise speed, then down to an arrival speed once the
// remaining distance gets shorter than the braking distance.
package quadramp

import "math"

// Filter holds the current velocity of one axis between two steps.
// The zero value is a filter at rest with no speed.
type Filter struct {
	velocity float64

	speed    float64
	accel    float64
	decel    float64
	endSpeed float64
}

// New returns a filter at rest. Speeds are magnitudes; a non-positive
// acceleration or deceleration means an unbounded rate.
func New(speed, accel, decel, endSpeed float64) *Filter {
	f := &Filter{}
	f.SetParams(speed, accel, decel, endSpeed)
	return f
}

// SetParams changes the profile without touching the current velocity.
func (f *Filter) SetParams(speed, accel, decel, endSpeed float64) {
	f.speed = math.Abs(speed)
	f.accel = accel
	f.decel = decel
	f.endSpeed = math.Abs(endSpeed)
}

// Reset sets the current velocity, typically to a measured one.
func (f *Filter) Reset(velocity float64) {
	f.velocity = velocity
}

func (f *Filter) Velocity() float64 {
	return f.velocity
}

// StoppingDistance is the distance needed to go from the current velocity
// down to the arrival speed at the deceleration rate.
func (f *Filter) StoppingDistance() float64 {
	if f.decel <= 0 {
		return 0
	}
	dv := math.Abs(f.velocity) - f.endSpeed
	return 0.5 * dv * dv / f.decel
}

// Step advances the filter by dt toward a target d away and returns the new
// velocity. The sign of the velocity follows the sign of d.
func (f *Filter) Step(dt, d float64) float64 {
	if dt <= 0 {
		return f.velocity
	}

	target, rate := f.speed, f.accel
	if d == 0 || math.Abs(d) < f.StoppingDistance() {
		target, rate = f.endSpeed, f.decel
	}
	if d < 0 {
		target = -target
	}

	delta := target - f.velocity
	if rate > 0 {
		limit := rate * dt
		delta = math.Max(-limit, math.Min(limit, delta))
	}
	f.velocity += delta

	return f.velocity
}

// Brake ramps the velocity down to zero at the deceleration rate, whatever
// the arrival speed, and returns the new velocity.
func (f *Filter) Brake(dt float64) float64 {
	if dt <= 0 {
		return f.velocity
	}

	delta := -f.velocity
	if f.decel > 0 {
		limit := f.decel * dt
		delta = math.Max(-limit, math.Min(limit, delta))
	}
	f.velocity += delta

	return f.velocity
}
