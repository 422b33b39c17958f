package main

import (
	"math"

	"github.com/akmonengine/tabletop/actor"
	"github.com/akmonengine/tabletop/robot"
	"github.com/akmonengine/tabletop/sim"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

const (
	puckRadius = 0.035
	puckHeight = 0.02
	stackSize  = 4
)

type scene struct {
	ground    *sim.Object
	dispenser *sim.Object
	stack     []*sim.Object
	pucks     []*sim.Object
	robots    []*robot.Robot
}

// buildScene lays out the table: a dispenser holding a stack of pucks, a few
// loose pucks and two robots with their strategies.
func buildScene(p *sim.Physics, params robot.Params) (*scene, error) {
	s := &scene{}

	var err error
	if s.ground, err = sim.NewGround(p); err != nil {
		return nil, err
	}

	// The dispenser is a column the pucks slide down in
	s.dispenser = sim.NewObject(p)
	if _, err = s.dispenser.AddGeom(&actor.Box{HalfExtents: mgl64.Vec3{0.05, 0.05, 0.15}}, actor.NewTransform()); err != nil {
		return nil, err
	}
	if err = s.dispenser.Init(); err != nil {
		return nil, err
	}
	if err = s.dispenser.SetCategory(sim.CategoryDispenser, sim.CategoryAll); err != nil {
		return nil, err
	}
	if err = s.dispenser.SetPosition(mgl64.Vec3{0.6, 0.6, 0.15}); err != nil {
		return nil, err
	}
	if err = s.dispenser.AddToWorld(); err != nil {
		return nil, err
	}

	for i := range stackSize {
		puck, err := newPuck(p)
		if err != nil {
			return nil, err
		}
		z := p.Config().DropEpsilon + puckHeight/2 + float64(i)*(puckHeight+0.005)
		if err = puck.SetPosition(mgl64.Vec3{0.6, 0.6, z}); err != nil {
			return nil, err
		}
		if err = puck.AddToWorld(); err != nil {
			return nil, err
		}
		s.stack = append(s.stack, puck)
	}

	for i, position := range [][2]float64{{0, 0.3}, {0.2, -0.3}, {-0.4, 0.1}} {
		puck, err := newPuck(p)
		if err != nil {
			return nil, err
		}
		if err = puck.SetYaw(float64(i) * 0.4); err != nil {
			return nil, err
		}
		if err = puck.PlaceOnTable(position[0], position[1]); err != nil {
			return nil, err
		}
		if err = puck.AddToWorld(); err != nil {
			return nil, err
		}
		s.pucks = append(s.pucks, puck)
	}

	left, err := newRobot(p, params, -0.8, 0, 0)
	if err != nil {
		return nil, err
	}
	right, err := newRobot(p, params, 0.8, 0, math.Pi)
	if err != nil {
		return nil, err
	}
	s.robots = []*robot.Robot{left, right}

	left.SetStrategy(robot.NewSequence(
		robot.Do(func(r *robot.Robot) error {
			return r.OrderTrajectory([]mgl64.Vec2{{-0.5, 0.3}, {-0.2, 0.5}, {0.3, 0.5}})
		}),
		robot.WaitDone(),
		robot.Do(func(r *robot.Robot) error {
			r.OrderA(-math.Pi / 2)
			return nil
		}),
		robot.WaitDone(),
		robot.Wait(0.5),
		robot.Do(func(r *robot.Robot) error {
			r.OrderXYA(-0.8, 0, 0)
			return nil
		}),
		robot.WaitDone(),
	))

	right.SetStrategy(robot.NewSequence(
		robot.Wait(1),
		robot.Do(func(r *robot.Robot) error {
			r.OrderXY(0.2, -0.2)
			return nil
		}),
		robot.Wait(0.8),
		robot.Do(func(r *robot.Robot) error {
			r.OrderStop()
			return nil
		}),
		robot.WaitDone(),
		robot.Do(func(r *robot.Robot) error {
			r.OrderXYA(0.8, 0, math.Pi)
			return nil
		}),
		robot.WaitDone(),
	))

	for _, r := range s.robots {
		p.AddRobot(r)
	}

	p.SchedulePeriodic(func() {
		p.Logger().Info("table state",
			zap.Float64("time", p.Time()),
			zap.Uint64("hash", p.StateHash()),
			zap.Bool("left_done", left.OrderDone()),
			zap.Bool("right_done", right.OrderDone()),
		)
	}, 1, 1)

	return s, nil
}

func newPuck(p *sim.Physics) (*sim.Object, error) {
	puck := sim.NewObject(p)
	if _, err := puck.AddGeom(&actor.Cylinder{Radius: puckRadius, Height: puckHeight}, actor.NewTransform()); err != nil {
		return nil, err
	}
	if err := puck.SetMass(0.03); err != nil {
		return nil, err
	}
	if err := puck.Init(); err != nil {
		return nil, err
	}
	if err := puck.SetCategory(sim.CategoryElement|sim.CategoryDynamic, sim.CategoryAll); err != nil {
		return nil, err
	}
	if err := puck.SetMaterial(0.1, 0.5, 0.4); err != nil {
		return nil, err
	}
	return puck, nil
}

func newRobot(p *sim.Physics, params robot.Params, x, y, yaw float64) (*robot.Robot, error) {
	o := sim.NewObject(p)
	if _, err := o.AddGeom(&actor.Box{HalfExtents: mgl64.Vec3{0.1, 0.1, 0.05}}, actor.NewTransform()); err != nil {
		return nil, err
	}
	// Bumper in front of the chassis
	bumper := actor.NewTransformAt(mgl64.Vec3{0.11, 0, -0.02}, mgl64.QuatIdent())
	if _, err := o.AddGeom(&actor.Box{HalfExtents: mgl64.Vec3{0.01, 0.08, 0.01}}, bumper); err != nil {
		return nil, err
	}
	if err := o.SetMass(3); err != nil {
		return nil, err
	}
	if err := o.Init(); err != nil {
		return nil, err
	}
	if err := o.SetYaw(yaw); err != nil {
		return nil, err
	}
	if err := o.PlaceOnTable(x, y); err != nil {
		return nil, err
	}
	if err := o.AddToWorld(); err != nil {
		return nil, err
	}
	if err := o.SetDamping(0.5, 0.5); err != nil {
		return nil, err
	}
	return robot.New(p, o, params)
}
