package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akmonengine/tabletop/injector"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	steps := flag.Int("steps", 0, "run that many steps as fast as possible instead of in real time")
	flag.Parse()

	if err := run(*configPath, *steps); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, steps int) error {
	app, cleanup, err := injector.InitializeApp(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err = buildScene(app.Physics, app.Config.Robot); err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if steps > 0 {
		err = app.Loop.RunSteps(ctx, steps)
	} else {
		err = app.Run(ctx)
	}
	if err != nil {
		return err
	}

	app.Log.Info("simulation finished",
		zap.Uint64("steps", app.Physics.StepCount()),
		zap.Float64("time", app.Physics.Time()),
		zap.Uint64("hash", app.Physics.StateHash()),
	)
	return nil
}
