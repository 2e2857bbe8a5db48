package teleport

import (
	"errors"
	"fmt"
)

// Settings describe the player volume and movement limits used while
// walking a teleport path. Distances are in world units.
type Settings struct {
	// Radius of the player for obstacle detection.
	Radius float32 `yaml:"radius"`
	// CrouchHeight is the vertical space needed to pass along the path.
	CrouchHeight float32 `yaml:"crouch_height"`
	// StandHeight is the vertical space needed at the destination.
	StandHeight float32 `yaml:"stand_height"`

	// StepHeight is climbed for free on every step.
	StepHeight float32 `yaml:"step_height"`
	// MantleHeight is the tallest ledge that can be climbed.
	MantleHeight float32 `yaml:"mantle_height"`
	// MantleTolerance is how far above the target height a mantle may end.
	MantleTolerance float32 `yaml:"mantle_tolerance"`
	// MaxDropHeight is the deepest drop a step may land on.
	MaxDropHeight float32 `yaml:"max_drop_height"`
	// MaxGroundAngle is the steepest standable ground, in degrees.
	MaxGroundAngle float32 `yaml:"max_ground_angle"`

	// StepLength is the horizontal distance between path samples.
	StepLength float32 `yaml:"step_length"`
	// MaxDistance is the default horizontal travel limit.
	MaxDistance float32 `yaml:"max_distance"`
	// MaxIterations guards against a path that never terminates.
	MaxIterations int `yaml:"max_iterations"`

	// CheckHeadroom requires StandHeight of free space at the destination.
	CheckHeadroom bool `yaml:"check_headroom"`

	// UseCollisionRules filters traces with the world's collision rules for
	// Tags instead of skipping IgnoreTags.
	UseCollisionRules bool     `yaml:"use_collision_rules"`
	IgnoreTags        []string `yaml:"ignore_tags"`
	Tags              []string `yaml:"tags"`
}

// DefaultSettings returns the default teleport settings.
func DefaultSettings() Settings {
	return Settings{
		Radius:          8,
		CrouchHeight:    32,
		StandHeight:     73,
		StepHeight:      18,
		MantleHeight:    48,
		MantleTolerance: 8,
		MaxDropHeight:   512,
		MaxGroundAngle:  45,
		StepLength:      16,
		MaxDistance:     1024,
		MaxIterations:   4096,
		CheckHeadroom:   true,
		Tags:            []string{"player"},
	}
}

// Validate checks the settings for values the validator cannot use.
func (s Settings) Validate() error {
	var errs []error
	if s.Radius < 0 {
		errs = append(errs, fmt.Errorf("radius must not be negative, got %v", s.Radius))
	}
	if s.CrouchHeight <= 0 {
		errs = append(errs, fmt.Errorf("crouch_height must be positive, got %v", s.CrouchHeight))
	}
	if s.StandHeight < s.CrouchHeight {
		errs = append(errs, fmt.Errorf("stand_height %v is below crouch_height %v", s.StandHeight, s.CrouchHeight))
	}
	if s.StepLength <= 0 {
		errs = append(errs, fmt.Errorf("step_length must be positive, got %v", s.StepLength))
	}
	if s.MaxDistance <= 0 {
		errs = append(errs, fmt.Errorf("max_distance must be positive, got %v", s.MaxDistance))
	}
	if s.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be positive, got %d", s.MaxIterations))
	}
	if s.MantleHeight < s.StepHeight {
		errs = append(errs, fmt.Errorf("mantle_height %v is below step_height %v", s.MantleHeight, s.StepHeight))
	}
	if s.MaxGroundAngle <= 0 || s.MaxGroundAngle > 90 {
		errs = append(errs, fmt.Errorf("max_ground_angle must be in (0, 90], got %v", s.MaxGroundAngle))
	}
	return errors.Join(errs...)
}
