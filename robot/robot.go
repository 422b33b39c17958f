// Package robot drives a sim object along checkpoints with two ramp
// filters: one for the linear speed, one for the heading. A robot is
// ticked by sim.Physics once per step.
package robot

import (
	"math"
	"slices"

	"github.com/akmonengine/tabletop/quadramp"
	"github.com/akmonengine/tabletop/sim"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Robot is the closed loop controller of one object. It commands the body
// velocity in the table plane and its angular velocity around +Z.
type Robot struct {
	physics *sim.Physics
	object  *sim.Object
	params  Params
	log     *zap.Logger

	checkpoints  []mgl64.Vec2
	cursor       int
	direction    mgl64.Vec2
	linear       *quadramp.Filter
	linearActive bool

	targetAngle   float64
	angular       *quadramp.Filter
	angularActive bool

	lastUpdate float64

	// measured in Update
	position        mgl64.Vec2
	angle           float64
	velocity        mgl64.Vec2
	angularVelocity float64

	strategy Strategy
}

var _ sim.Robot = (*Robot)(nil)

// New creates an idle robot on an initialized dynamic object. The object
// joins the robot category. The robot still has to be added to p.
func New(p *sim.Physics, o *sim.Object, params Params) (*Robot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !o.Initialized() {
		return nil, sim.ErrNotInitialized
	}
	if o.IsStatic() {
		return nil, ErrStaticObject
	}

	category, _ := o.Category()
	if err := o.SetCategory(category.With(sim.CategoryRobot), sim.CategoryAll); err != nil {
		return nil, err
	}

	r := &Robot{
		physics: p,
		object:  o,
		params:  params,
		log:     p.Logger().With(zap.Stringer("robot", o.ID())),
		linear:  quadramp.New(params.Stop.Speed, params.Stop.Accel, params.Stop.Decel, params.Stop.EndSpeed),
		angular: quadramp.New(params.Angular.Speed, params.Angular.Accel, params.Angular.Decel, params.Angular.EndSpeed),
	}
	r.Update()
	r.targetAngle = r.angle
	r.lastUpdate = p.Time()

	return r, nil
}

// Update reads the pose and velocity of the body back.
func (r *Robot) Update() {
	body := r.object.Body()
	if body == nil {
		return
	}

	t := body.Transform
	r.position = mgl64.Vec2{t.Position.X(), t.Position.Y()}
	r.angle = t.Yaw()
	r.velocity = mgl64.Vec2{body.Velocity.X(), body.Velocity.Y()}
	r.angularVelocity = body.AngularVelocity.Z()
}

// Asserv computes the velocity commands for the time elapsed since the
// previous call and writes them to the body. Nothing is commanded when no
// time elapsed, nor while idle.
func (r *Robot) Asserv() {
	now := r.physics.Time()
	dt := now - r.lastUpdate
	r.lastUpdate = now
	if dt <= 0 {
		return
	}

	body := r.object.Body()
	if body == nil {
		return
	}

	if command, ok := r.asservPosition(dt); ok {
		body.SetVelocity(mgl64.Vec3{command.X(), command.Y(), body.Velocity.Z()})
	}
	if command, ok := r.asservAngle(dt); ok {
		w := body.AngularVelocity
		body.SetAngularVelocity(mgl64.Vec3{w.X(), w.Y(), command})
	}
}

func (r *Robot) asservPosition(dt float64) (mgl64.Vec2, bool) {
	if len(r.checkpoints) == 0 {
		return mgl64.Vec2{}, false
	}
	r.advance()

	delta := r.checkpoints[r.cursor].Sub(r.position)
	distance := delta.Len()

	if r.onLast() && distance < r.params.StopThreshold {
		if !r.linearActive {
			return mgl64.Vec2{}, false
		}
		// Arrived: brake to rest along the last direction, even with an arrival speed
		speed := math.Max(0, r.linear.Brake(dt))
		if speed == 0 {
			r.linearActive = false
		}
		return r.direction.Mul(speed), true
	}

	if distance > 1e-12 {
		r.direction = delta.Mul(1 / distance)
	}
	r.linearActive = true
	speed := math.Max(0, r.linear.Step(dt, distance))
	return r.direction.Mul(speed), true
}

// advance moves the cursor past every intermediate checkpoint already within
// the steering threshold.
func (r *Robot) advance() {
	for !r.onLast() && r.position.Sub(r.checkpoints[r.cursor]).Len() < r.params.SteeringThreshold {
		r.cursor++
		r.log.Debug("checkpoint passed", zap.Int("cursor", r.cursor), zap.Float64("time", r.physics.Time()))
		if r.onLast() {
			r.applyLinearParams(r.params.Stop)
		}
	}
}

func (r *Robot) asservAngle(dt float64) (float64, bool) {
	angleError := NormalizeAngle(r.targetAngle - r.angle)
	if math.Abs(angleError) < r.params.AngleThreshold {
		if !r.angularActive {
			return 0, false
		}
		r.angularActive = false
		r.angular.Reset(0)
		return 0, true
	}

	r.angularActive = true
	return r.angular.Step(dt, angleError), true
}

// Strategy resumes the strategy once. A finished strategy is dropped.
func (r *Robot) Strategy() {
	if r.strategy == nil {
		return
	}
	if !r.strategy.Resume(r) {
		r.log.Debug("strategy finished", zap.Float64("time", r.physics.Time()))
		r.strategy = nil
	}
}

// SetStrategy replaces the running strategy; nil stops it.
func (r *Robot) SetStrategy(s Strategy) {
	r.strategy = s
}

// Running reports whether a strategy is still being resumed.
func (r *Robot) Running() bool {
	return r.strategy != nil
}

func (r *Robot) onLast() bool {
	return r.cursor >= len(r.checkpoints)-1
}

func (r *Robot) applyLinearParams(p RampParams) {
	r.linear.SetParams(p.Speed, p.Accel, p.Decel, p.EndSpeed)
}

// NormalizeAngle wraps angle into [-π, π].
func NormalizeAngle(angle float64) float64 {
	return math.Remainder(angle, 2*math.Pi)
}

func (r *Robot) Object() *sim.Object {
	return r.object
}

func (r *Robot) Params() Params {
	return r.params
}

// SetParams changes the tuning. The ramp of the current order is updated.
func (r *Robot) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	r.params = params
	if len(r.checkpoints) > 1 && !r.onLast() {
		r.applyLinearParams(params.Steering)
	} else {
		r.applyLinearParams(params.Stop)
	}
	p := params.Angular
	r.angular.SetParams(p.Speed, p.Accel, p.Decel, p.EndSpeed)
	return nil
}

// Time returns the simulation time of the physics driving the robot.
func (r *Robot) Time() float64 {
	return r.physics.Time()
}

func (r *Robot) Position() mgl64.Vec2 {
	return r.position
}

// Angle returns the measured heading, in radians.
func (r *Robot) Angle() float64 {
	return r.angle
}

func (r *Robot) Velocity() mgl64.Vec2 {
	return r.velocity
}

func (r *Robot) AngularVelocity() float64 {
	return r.angularVelocity
}

func (r *Robot) TargetAngle() float64 {
	return r.targetAngle
}

// Checkpoints returns a copy of the current checkpoint list.
func (r *Robot) Checkpoints() []mgl64.Vec2 {
	return slices.Clone(r.checkpoints)
}

// Cursor returns the index of the checkpoint being reached.
func (r *Robot) Cursor() int {
	return r.cursor
}

// CurrentCheckpoint returns the checkpoint being reached, if any.
func (r *Robot) CurrentCheckpoint() (mgl64.Vec2, bool) {
	if len(r.checkpoints) == 0 {
		return mgl64.Vec2{}, false
	}
	return r.checkpoints[r.cursor], true
}
