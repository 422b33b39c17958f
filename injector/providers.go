// Package injector wires the application graph:
// config -> logger -> physics -> viewer -> loop.
package injector

import (
	"context"
	"errors"

	"github.com/akmonengine/tabletop/config"
	"github.com/akmonengine/tabletop/logging"
	"github.com/akmonengine/tabletop/runner"
	"github.com/akmonengine/tabletop/sim"
	"github.com/akmonengine/tabletop/viewer"
	"github.com/google/wire"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvidePhysics,
	ProvideViewer,
	ProvideDisplay,
	ProvideLoop,
	wire.Struct(new(App), "*"),
)

// App is the assembled application.
type App struct {
	Config  config.Config
	Log     *zap.Logger
	Physics *sim.Physics
	// Viewer is nil when disabled
	Viewer *viewer.Server
	Loop   *runner.Loop
}

func ProvideConfig(path string) (config.Config, error) {
	return config.Load(path)
}

func ProvideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

func ProvidePhysics(cfg config.Config, log *zap.Logger) (*sim.Physics, error) {
	return sim.NewPhysics(cfg.Physics, log.Named("physics"))
}

func ProvideViewer(cfg config.Config, log *zap.Logger) *viewer.Server {
	if !cfg.Viewer.Enabled {
		return nil
	}
	return viewer.New(cfg.Viewer, log.Named("viewer"))
}

// ProvideDisplay keeps a disabled viewer out of the loop as a nil interface.
func ProvideDisplay(server *viewer.Server) runner.Display {
	if server == nil {
		return nil
	}
	return server
}

func ProvideLoop(cfg config.Config, p *sim.Physics, display runner.Display, log *zap.Logger) (*runner.Loop, error) {
	return runner.New(p, display, cfg.Loop, log.Named("loop"))
}

// Run serves the viewer, if enabled, and paces the simulation until ctx is
// done or the configured duration is reached.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if a.Viewer != nil {
		g.Go(func() error {
			return a.Viewer.ListenAndServe(ctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		err := a.Loop.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return g.Wait()
}
