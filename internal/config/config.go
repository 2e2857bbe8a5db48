// Package config handles simulation configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/vr/pickup"
	"github.com/Faultbox/midgard-vr/internal/vr/player"
	"github.com/Faultbox/midgard-vr/internal/vr/teleport"
	"github.com/Faultbox/midgard-vr/internal/vr/tracking"
)

// Config holds all simulation settings.
type Config struct {
	Tracking    TrackingConfig    `yaml:"tracking"`
	Pickup      pickup.Settings   `yaml:"pickup"`
	Teleport    teleport.Settings `yaml:"teleport"`
	Player      PlayerConfig      `yaml:"player"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// TrackingConfig holds the physics hand controller settings. Held objects
// are configured under pickup.object.
type TrackingConfig struct {
	Hand     tracking.Settings `yaml:"hand"`
	HandMass float32           `yaml:"hand_mass"`
	Snap     SnapConfig        `yaml:"snap"`
}

// SnapConfig shapes the hand projection used while the player fake-moves.
type SnapConfig struct {
	HeadDrop float32 `yaml:"head_drop"`
	Radius   float32 `yaml:"radius"`
}

// PlayerConfig holds rig and aim settings.
type PlayerConfig struct {
	Aim           player.AimSettings `yaml:"aim"`
	GripThreshold float32            `yaml:"grip_threshold"`
	VR            bool               `yaml:"vr"`
}

// SimulationConfig holds scheduler timing.
type SimulationConfig struct {
	FixedRate int           `yaml:"fixed_rate"` // physics ticks per second
	FrameRate int           `yaml:"frame_rate"` // variable ticks per second
	Duration  time.Duration `yaml:"duration"`
}

// FixedDelta returns the fixed step in seconds.
func (s SimulationConfig) FixedDelta() float32 {
	return 1 / float32(s.FixedRate)
}

// FrameDelta returns the variable step in seconds.
func (s SimulationConfig) FrameDelta() float32 {
	return 1 / float32(s.FrameRate)
}

// DiagnosticsConfig toggles debug drawing. Nothing is drawn by default.
type DiagnosticsConfig struct {
	TeleportDebug bool `yaml:"teleport_debug"`
	Gizmos        bool `yaml:"gizmos"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Tracking: TrackingConfig{
			Hand:     tracking.HandSettings(),
			HandMass: 50,
			Snap: SnapConfig{
				HeadDrop: tracking.DefaultSnapHeadDrop,
				Radius:   tracking.DefaultSnapRadius,
			},
		},
		Pickup:   pickup.DefaultSettings(),
		Teleport: teleport.DefaultSettings(),
		Player: PlayerConfig{
			Aim:           player.DefaultAimSettings(),
			GripThreshold: input.DefaultGripThreshold,
			VR:            true,
		},
		Simulation: SimulationConfig{
			FixedRate: 50,
			FrameRate: 90,
			Duration:  5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every setting that would break the simulation.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Tracking.Hand.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracking.hand: %w", err))
	}
	if c.Tracking.HandMass <= 0 {
		errs = append(errs, fmt.Errorf("tracking.hand_mass must be positive, got %v", c.Tracking.HandMass))
	}
	if c.Tracking.Snap.HeadDrop < 0 || c.Tracking.Snap.Radius < 0 {
		errs = append(errs, errors.New("tracking.snap: head_drop and radius must not be negative"))
	}
	if err := c.Pickup.Object.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pickup.object: %w", err))
	}
	if c.Pickup.GrabRadius <= 0 {
		errs = append(errs, fmt.Errorf("pickup.grab_radius must be positive, got %v", c.Pickup.GrabRadius))
	}
	if err := c.Teleport.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("teleport: %w", err))
	}
	if c.Player.Aim.AimDistance <= 0 {
		errs = append(errs, fmt.Errorf("player.aim.aim_distance must be positive, got %v", c.Player.Aim.AimDistance))
	}
	if c.Player.GripThreshold < 0 || c.Player.GripThreshold > 1 {
		errs = append(errs, fmt.Errorf("player.grip_threshold must be in [0, 1], got %v", c.Player.GripThreshold))
	}
	if c.Simulation.FixedRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.fixed_rate must be positive, got %d", c.Simulation.FixedRate))
	}
	if c.Simulation.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.frame_rate must be positive, got %d", c.Simulation.FrameRate))
	}
	if c.Simulation.Duration < 0 {
		errs = append(errs, fmt.Errorf("simulation.duration must not be negative, got %v", c.Simulation.Duration))
	}
	return errors.Join(errs...)
}
