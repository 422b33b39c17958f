package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Config holds the physics parameters read once at startup.
type Config struct {
	// StepDt is the fixed simulation step, in seconds.
	StepDt   float64 `yaml:"step_dt" json:"step_dt"`
	Substeps int     `yaml:"substeps" json:"substeps"`
	// MaxContacts bounds the contact points kept per geom pair.
	MaxContacts int        `yaml:"max_contacts" json:"max_contacts"`
	Gravity     [3]float64 `yaml:"gravity" json:"gravity"`
	// DropEpsilon is the gap left under an object placed on the table.
	DropEpsilon float64 `yaml:"drop_epsilon" json:"drop_epsilon"`
	CellSize    float64 `yaml:"cell_size" json:"cell_size"`
	GridCells   int     `yaml:"grid_cells" json:"grid_cells"`
	AutoSleep   bool    `yaml:"auto_sleep" json:"auto_sleep"`
	Workers     int     `yaml:"workers" json:"workers"`
}

func DefaultConfig() Config {
	return Config{
		StepDt:      0.01,
		Substeps:    4,
		MaxContacts: 4,
		Gravity:     [3]float64{0, 0, -9.81},
		DropEpsilon: 0.001,
		CellSize:    0.25,
		GridCells:   1024,
		AutoSleep:   true,
		Workers:     1,
	}
}

func (c Config) Validate() error {
	if c.StepDt <= 0 {
		return fmt.Errorf("%w: step_dt must be positive, got %v", ErrInvalidConfig, c.StepDt)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be at least 1, got %d", ErrInvalidConfig, c.Substeps)
	}
	if c.MaxContacts < 1 {
		return fmt.Errorf("%w: max_contacts must be at least 1, got %d", ErrInvalidConfig, c.MaxContacts)
	}
	if c.DropEpsilon < 0 {
		return fmt.Errorf("%w: drop_epsilon must not be negative, got %v", ErrInvalidConfig, c.DropEpsilon)
	}
	if c.CellSize <= 0 {
		return fmt.Errorf("%w: cell_size must be positive, got %v", ErrInvalidConfig, c.CellSize)
	}
	if c.GridCells < 1 {
		return fmt.Errorf("%w: grid_cells must be at least 1, got %d", ErrInvalidConfig, c.GridCells)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c Config) GravityVec() mgl64.Vec3 {
	return mgl64.Vec3(c.Gravity)
}
