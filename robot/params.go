package robot

import "fmt"

// RampParams configures one ramp filter. Speeds are in m/s or rad/s,
// rates in m/s² or rad/s²; a non-positive rate is unbounded.
type RampParams struct {
	Speed    float64 `yaml:"speed" json:"speed"`
	Accel    float64 `yaml:"accel" json:"accel"`
	Decel    float64 `yaml:"decel" json:"decel"`
	EndSpeed float64 `yaml:"end_speed" json:"end_speed"`
}

// Params holds the controller tuning of a robot.
type Params struct {
	// Steering drives the robot through intermediate checkpoints.
	Steering RampParams `yaml:"steering" json:"steering"`
	// Stop drives the final approach of the last checkpoint.
	Stop    RampParams `yaml:"stop" json:"stop"`
	Angular RampParams `yaml:"angular" json:"angular"`

	// SteeringThreshold is the distance under which an intermediate
	// checkpoint counts as passed.
	SteeringThreshold float64 `yaml:"steering_threshold" json:"steering_threshold"`
	StopThreshold     float64 `yaml:"stop_threshold" json:"stop_threshold"`
	AngleThreshold    float64 `yaml:"angle_threshold" json:"angle_threshold"`
}

func DefaultParams() Params {
	return Params{
		Steering:          RampParams{Speed: 0.5, Accel: 1, Decel: 1, EndSpeed: 0.5},
		Stop:              RampParams{Speed: 0.5, Accel: 1, Decel: 1},
		Angular:           RampParams{Speed: 3, Accel: 6, Decel: 6},
		SteeringThreshold: 0.05,
		StopThreshold:     0.005,
		AngleThreshold:    0.01,
	}
}

func (p Params) Validate() error {
	ramps := []struct {
		name string
		ramp RampParams
	}{
		{"steering", p.Steering},
		{"stop", p.Stop},
		{"angular", p.Angular},
	}
	for _, r := range ramps {
		if r.ramp.Speed <= 0 {
			return fmt.Errorf("%w: %s speed must be positive, got %v", ErrInvalidParams, r.name, r.ramp.Speed)
		}
		if r.ramp.EndSpeed < 0 || r.ramp.EndSpeed > r.ramp.Speed {
			return fmt.Errorf("%w: %s end speed must be within [0, %v], got %v", ErrInvalidParams, r.name, r.ramp.Speed, r.ramp.EndSpeed)
		}
	}
	if p.SteeringThreshold <= 0 || p.StopThreshold <= 0 || p.AngleThreshold <= 0 {
		return fmt.Errorf("%w: thresholds must be positive", ErrInvalidParams)
	}
	return nil
}
