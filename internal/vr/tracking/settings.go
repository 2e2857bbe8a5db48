package tracking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a drive mode name is not recognized.
var ErrUnknownMode = errors.New("unknown drive mode")

// Mode selects how a controller drives its body.
type Mode uint8

const (
	// ModePD applies proportional-derivative force and torque.
	ModePD Mode = iota
	// ModePID adds a clamped position integral and error ceilings to PD.
	ModePID
	// ModeVelocity sets linear and angular velocity directly.
	ModeVelocity
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModePD:
		return "pd"
	case ModePID:
		return "pid"
	case ModeVelocity:
		return "velocity"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pd":
		return ModePD, nil
	case "pid":
		return ModePID, nil
	case "velocity":
		return ModeVelocity, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Gains are the controller coefficients. Rotation has no integral term.
type Gains struct {
	PosKp float32 `yaml:"pos_kp"`
	PosKi float32 `yaml:"pos_ki"`
	PosKd float32 `yaml:"pos_kd"`
	RotKp float32 `yaml:"rot_kp"`
	RotKd float32 `yaml:"rot_kd"`
}

// Limits bound the PID position terms. Zero disables a limit.
type Limits struct {
	MaxPosError     float32 `yaml:"max_pos_error"`
	MaxPrevPosError float32 `yaml:"max_prev_pos_error"`
	MaxIntegral     float32 `yaml:"max_integral"`
}

// VelocityFactors scale the errors in ModeVelocity.
type VelocityFactors struct {
	Position float32 `yaml:"position"`
	Rotation float32 `yaml:"rotation"`
}

// Settings configure one controller.
type Settings struct {
	Mode     Mode            `yaml:"mode"`
	Gains    Gains           `yaml:"gains"`
	Limits   Limits          `yaml:"limits"`
	Velocity VelocityFactors `yaml:"velocity"`
}

// HandSettings returns the defaults for a physics hand following its
// tracked controller.
func HandSettings() Settings {
	return Settings{
		Mode: ModePD,
		Gains: Gains{
			PosKp: 4000,
			PosKd: 400,
			RotKp: 600000,
			RotKd: 100000,
		},
		Velocity: VelocityFactors{Position: 3000, Rotation: 20},
	}
}

// ObjectSettings returns the defaults for a held object following the
// grip pose of its holders.
func ObjectSettings() Settings {
	return Settings{
		Mode: ModePID,
		Gains: Gains{
			PosKp: 300,
			PosKi: 0,
			PosKd: 120,
			RotKp: 60000,
			RotKd: 6000,
		},
		Limits: Limits{
			MaxPosError:     9,
			MaxPrevPosError: 5,
			MaxIntegral:     1000,
		},
		Velocity: VelocityFactors{Position: 3000, Rotation: 20},
	}
}

// Validate checks the settings for values the controller cannot use.
func (s Settings) Validate() error {
	if s.Mode > ModeVelocity {
		return fmt.Errorf("%w: %d", ErrUnknownMode, s.Mode)
	}
	if s.Limits.MaxPosError < 0 || s.Limits.MaxPrevPosError < 0 || s.Limits.MaxIntegral < 0 {
		return errors.New("limits must not be negative")
	}
	return nil
}
