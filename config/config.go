// Package config loads the application configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/akmonengine/tabletop/logging"
	"github.com/akmonengine/tabletop/robot"
	"github.com/akmonengine/tabletop/runner"
	"github.com/akmonengine/tabletop/sim"
	"github.com/akmonengine/tabletop/viewer"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Physics sim.Config     `yaml:"physics" json:"physics"`
	Robot   robot.Params   `yaml:"robot" json:"robot"`
	Loop    runner.Config  `yaml:"loop" json:"loop"`
	Viewer  viewer.Config  `yaml:"viewer" json:"viewer"`
	Log     logging.Config `yaml:"log" json:"log"`
}

func Default() Config {
	return Config{
		Physics: sim.DefaultConfig(),
		Robot:   robot.DefaultParams(),
		Loop:    runner.DefaultConfig(),
		Viewer:  viewer.DefaultConfig(),
		Log:     logging.DefaultConfig(),
	}
}

// Validate checks every section and reports all the failures at once.
func (c Config) Validate() error {
	var errs []error
	if err := c.Physics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("physics: %w", err))
	}
	if err := c.Robot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("robot: %w", err))
	}
	if err := c.Loop.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("loop: %w", err))
	}
	if err := c.Viewer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("viewer: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errors.Join(errs...)
}

// Load reads the file at path over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := LoadYAML(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadYAML decodes r over the defaults. Unknown keys are rejected.
func LoadYAML(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
