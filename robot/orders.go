package robot

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// OrderXY sends the robot to (x, y). The heading target is kept.
func (r *Robot) OrderXY(x, y float64) {
	r.setCheckpoints([]mgl64.Vec2{{x, y}})
}

// OrderA turns the robot to angle, in radians.
func (r *Robot) OrderA(angle float64) {
	r.targetAngle = NormalizeAngle(angle)
	r.angular.Reset(r.angularVelocity)
	r.angularActive = true
	r.lastUpdate = r.physics.Time()

	r.log.Debug("angle order", zap.Float64("angle", r.targetAngle))
}

func (r *Robot) OrderXYA(x, y, angle float64) {
	r.OrderXY(x, y)
	r.OrderA(angle)
}

// OrderTrajectory sends the robot through points, in order.
func (r *Robot) OrderTrajectory(points []mgl64.Vec2) error {
	if len(points) == 0 {
		return ErrEmptyTrajectory
	}
	r.setCheckpoints(slices.Clone(points))
	return nil
}

// OrderStop brakes at the stop deceleration: the only checkpoint becomes the
// point where the robot comes to rest, and the heading target the current
// heading.
func (r *Robot) OrderStop() {
	stop := r.position
	if speed := r.velocity.Len(); speed > 1e-12 {
		r.applyLinearParams(r.params.Stop)
		r.linear.Reset(speed)
		stop = stop.Add(r.velocity.Mul(r.linear.StoppingDistance() / speed))
	}

	r.setCheckpoints([]mgl64.Vec2{stop})
	r.OrderA(r.angle)
}

func (r *Robot) setCheckpoints(points []mgl64.Vec2) {
	r.checkpoints = points
	r.cursor = 0

	if len(points) > 1 {
		r.applyLinearParams(r.params.Steering)
	} else {
		r.applyLinearParams(r.params.Stop)
	}
	r.linear.Reset(r.velocity.Len())
	if speed := r.velocity.Len(); speed > 1e-12 {
		r.direction = r.velocity.Mul(1 / speed)
	}
	r.linearActive = true
	r.lastUpdate = r.physics.Time()

	r.log.Debug("position order",
		zap.Int("checkpoints", len(points)),
		zap.Float64("x", points[len(points)-1].X()),
		zap.Float64("y", points[len(points)-1].Y()),
	)
}

// OrderXYDone is true when idle, or on the last checkpoint within the stop
// threshold.
func (r *Robot) OrderXYDone() bool {
	if len(r.checkpoints) == 0 {
		return true
	}
	return r.onLast() && r.position.Sub(r.checkpoints[r.cursor]).Len() < r.params.StopThreshold
}

func (r *Robot) OrderADone() bool {
	return math.Abs(NormalizeAngle(r.targetAngle-r.angle)) < r.params.AngleThreshold
}

func (r *Robot) OrderDone() bool {
	return r.OrderXYDone() && r.OrderADone()
}
