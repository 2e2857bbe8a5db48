package player

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/debug"
	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/engine/physics"
	"github.com/Faultbox/midgard-vr/internal/vr/teleport"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// Default aim parameters.
const (
	DefaultAimDistance      = 512
	DefaultTeleportDistance = 1024
)

// AimSettings configure TeleportAim.
type AimSettings struct {
	// AimDistance is the reach of the aim ray from the head.
	AimDistance float32 `yaml:"aim_distance"`
	// MaxDistance is the horizontal travel limit of one teleport.
	MaxDistance float32 `yaml:"max_distance"`
}

// DefaultAimSettings returns the default aim settings.
func DefaultAimSettings() AimSettings {
	return AimSettings{
		AimDistance: DefaultAimDistance,
		MaxDistance: DefaultTeleportDistance,
	}
}

// TeleportAim previews a teleport while the teleport action is held and
// performs it on release. The aim follows the head's forward direction.
type TeleportAim struct {
	settings  AimSettings
	rig       *Rig
	src       input.Source
	validator *teleport.Validator
	tracer    physics.Tracer
	filter    physics.Filter
	overlay   debug.Overlay

	preview    teleport.Result
	hasPreview bool

	log *zap.Logger
}

// NewTeleportAim creates an aim behavior for rig.
func NewTeleportAim(rig *Rig, src input.Source, tracer physics.Tracer, v *teleport.Validator,
	settings AimSettings, filter physics.Filter, overlay debug.Overlay, log *zap.Logger) *TeleportAim {
	if overlay == nil {
		overlay = debug.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TeleportAim{
		settings:  settings,
		rig:       rig,
		src:       src,
		validator: v,
		tracer:    tracer,
		filter:    filter,
		overlay:   overlay,
		log:       log,
	}
}

// Preview returns the pending destination while aiming.
func (a *TeleportAim) Preview() (teleport.Result, bool) {
	return a.preview, a.hasPreview
}

// Update implements scheduler.Ticker.
func (a *TeleportAim) Update(float32) {
	if a.src.Down(input.ActionTeleport) {
		a.aim()
	}
	if a.src.Released(input.ActionTeleport) && a.hasPreview {
		a.hasPreview = false
		a.rig.Teleport(a.preview.EndPos)
	}
}

// OnDisabled implements scheduler.Disabler.
func (a *TeleportAim) OnDisabled() {
	a.hasPreview = false
}

func (a *TeleportAim) aim() {
	head, ok := a.rig.HeadPose()
	if !ok {
		a.hasPreview = false
		return
	}

	forward := head.Rotation.Rotate(math.Forward)
	end := head.Position.Add(forward.Scale(a.settings.AimDistance))
	dest := a.tracer.Trace(physics.NewTrace(head.Position, end, physics.Ray(), a.filter)).EndPosition
	a.overlay.Sphere(dest, 4, debug.White)

	res, err := a.validator.Validate(teleport.Request{
		Start:       a.rig.FeetPosition(),
		Target:      dest,
		MaxDistance: a.settings.MaxDistance,
	})
	if err != nil {
		a.log.Error("teleport aim failed", zap.Error(err))
		a.hasPreview = false
		return
	}
	a.preview = res
	a.hasPreview = true
}
