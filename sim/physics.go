// Package sim hosts the table simulation: objects made of geoms, category
// based collision filtering, scheduled tasks and the robots driven once per
// fixed step.
package sim

import (
	"fmt"
	"slices"

	"github.com/akmonengine/tabletop"
	"github.com/akmonengine/tabletop/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Robot is driven by Physics once per step, after the tasks and tick
// callbacks, in registration order.
type Robot interface {
	// Update reads the body state back into the robot.
	Update()
	// Asserv computes and applies the velocity commands.
	Asserv()
	// Strategy resumes the decision logic.
	Strategy()
}

type geomPair struct {
	a, b *actor.Geom
}

// Physics owns the engine world, the object registry and the task queue.
// It is not safe for concurrent use, and callbacks must not call Step.
type Physics struct {
	cfg   Config
	log   *zap.Logger
	world *tabletop.World

	objects map[uuid.UUID]*Object
	order   []*Object
	bodies  map[*actor.RigidBody]*Object
	ticking []*Object
	robots  []Robot

	tasks    TaskQueue
	draining bool
	deferred []*Task

	time   float64
	steps  uint64
	paused bool

	// pairs whose cylinder substitution is out of its validity range, logged once
	limitLogged map[geomPair]bool
}

func NewPhysics(cfg Config, log *zap.Logger) (*Physics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := &Physics{
		cfg:         cfg,
		log:         log,
		world:       tabletop.NewWorld(),
		objects:     make(map[uuid.UUID]*Object),
		bodies:      make(map[*actor.RigidBody]*Object),
		limitLogged: make(map[geomPair]bool),
	}

	p.world.Gravity = cfg.GravityVec()
	p.world.Substeps = cfg.Substeps
	p.world.Workers = max(1, cfg.Workers)
	p.world.SpatialGrid = tabletop.NewSpatialGrid(cfg.CellSize, cfg.GridCells)
	p.world.DisableSleep = !cfg.AutoSleep
	p.world.NearCallback = p.nearCallback

	p.world.Events.Subscribe(tabletop.COLLISION_ENTER, p.logContact)
	p.world.Events.Subscribe(tabletop.COLLISION_EXIT, p.logContact)

	log.Debug("physics created",
		zap.Float64("step_dt", cfg.StepDt),
		zap.Int("substeps", cfg.Substeps),
		zap.Int("max_contacts", cfg.MaxContacts),
	)

	return p, nil
}

// Step advances the simulation by one fixed step, runs the due tasks, the
// tick callbacks, then every robot. It does nothing while paused.
func (p *Physics) Step() {
	if p.paused {
		return
	}

	p.world.Step(p.cfg.StepDt)
	p.steps++
	p.time = float64(p.steps) * p.cfg.StepDt

	p.runTasks()

	for _, o := range slices.Clone(p.ticking) {
		if o.tick != nil {
			o.tick(o)
		}
	}

	for _, r := range slices.Clone(p.robots) {
		r.Update()
		r.Asserv()
		r.Strategy()
	}
}

// dueTolerance is the fraction of a step under which a task counts as due,
// so that a task scheduled at now + k*dt runs after exactly k steps.
const dueTolerance = 1e-6

func (p *Physics) runTasks() {
	p.draining = true
	p.tasks.RunDue(p.time + p.cfg.StepDt*dueTolerance)
	p.draining = false

	// Tasks scheduled from a task wait for the next step
	for _, t := range p.deferred {
		p.tasks.Push(t.time, t)
	}
	clear(p.deferred)
	p.deferred = p.deferred[:0]
}

// ScheduleTask enqueues t at the absolute simulation time. A negative time
// runs it after the next step.
func (p *Physics) ScheduleTask(t *Task, time float64) {
	if time < 0 {
		time = p.time
	}
	if p.draining {
		t.time = time
		p.deferred = append(p.deferred, t)
		return
	}
	p.tasks.Push(time, t)
}

// Schedule runs fn once, delay seconds from now.
func (p *Physics) Schedule(fn func(), delay float64) *Task {
	t := NewTask(fn)
	p.ScheduleTask(t, p.time+delay)
	return t
}

// SchedulePeriodic runs fn delay seconds from now, then every period seconds.
func (p *Physics) SchedulePeriodic(fn func(), delay, period float64) *Task {
	t := NewPeriodicTask(fn, period)
	p.ScheduleTask(t, p.time+delay)
	return t
}

// PendingTasks returns the number of queued tasks, cancelled ones included.
func (p *Physics) PendingTasks() int {
	return p.tasks.Len() + len(p.deferred)
}

func (p *Physics) register(o *Object) {
	if _, ok := p.objects[o.id]; ok {
		return
	}
	p.objects[o.id] = o
	p.order = append(p.order, o)
	p.bodies[o.body] = o
}

func (p *Physics) unregister(o *Object) {
	delete(p.objects, o.id)
	delete(p.bodies, o.body)
	p.order = slices.DeleteFunc(p.order, func(other *Object) bool { return other == o })
	p.setTicking(o, false)
}

func (p *Physics) setTicking(o *Object, ticking bool) {
	idx := slices.Index(p.ticking, o)
	switch {
	case ticking && idx == -1:
		p.ticking = append(p.ticking, o)
	case !ticking && idx != -1:
		p.ticking = slices.Delete(p.ticking, idx, idx+1)
	}
}

// AddRobot registers a robot; adding it twice is a no-op.
func (p *Physics) AddRobot(r Robot) {
	if slices.Contains(p.robots, r) {
		return
	}
	p.robots = append(p.robots, r)
}

func (p *Physics) RemoveRobot(r Robot) {
	p.robots = slices.DeleteFunc(p.robots, func(other Robot) bool { return other == r })
}

func (p *Physics) Robots() []Robot {
	return p.robots
}

// Objs returns the registered objects in registration order.
func (p *Physics) Objs() []*Object {
	return p.order
}

func (p *Physics) Object(id uuid.UUID) (*Object, bool) {
	o, ok := p.objects[id]
	return o, ok
}

// ObjectOf returns the object owning body.
func (p *Physics) ObjectOf(body *actor.RigidBody) (*Object, bool) {
	o, ok := p.bodies[body]
	return o, ok
}

func (p *Physics) World() *tabletop.World {
	return p.world
}

func (p *Physics) Config() Config {
	return p.cfg
}

func (p *Physics) Logger() *zap.Logger {
	return p.log
}

// Time returns the simulation time, in seconds.
func (p *Physics) Time() float64 {
	return p.time
}

func (p *Physics) StepCount() uint64 {
	return p.steps
}

func (p *Physics) Pause() {
	p.paused = true
}

func (p *Physics) Resume() {
	p.paused = false
}

func (p *Physics) Paused() bool {
	return p.paused
}

func (p *Physics) logContact(event tabletop.Event) {
	var a, b *actor.RigidBody
	switch e := event.(type) {
	case tabletop.CollisionEnterEvent:
		a, b = e.BodyA, e.BodyB
	case tabletop.CollisionExitEvent:
		a, b = e.BodyA, e.BodyB
	default:
		return
	}

	p.log.Debug("contact",
		zap.Stringer("event", event.Type()),
		zap.String("a", p.bodyName(a)),
		zap.String("b", p.bodyName(b)),
		zap.Float64("time", p.time),
	)
}

func (p *Physics) bodyName(body *actor.RigidBody) string {
	if o, ok := p.bodies[body]; ok {
		return o.id.String()
	}
	return fmt.Sprintf("%p", body)
}
