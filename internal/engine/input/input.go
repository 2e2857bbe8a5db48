// Package input turns VR controller state into discrete grab events.
package input

import (
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// Hand identifies a tracked controller.
type Hand uint8

const (
	HandLeft Hand = iota
	HandRight
)

// Hands lists every tracked hand in a stable order.
var Hands = [...]Hand{HandLeft, HandRight}

// String implements fmt.Stringer.
func (h Hand) String() string {
	switch h {
	case HandLeft:
		return "left"
	case HandRight:
		return "right"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so snapshots carry hand
// names rather than indices.
func (h Hand) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// Action names a digital input binding.
type Action string

const (
	ActionUse      Action = "use"
	ActionTeleport Action = "teleport"
)

// EventType is an edge produced from continuous input.
type EventType int

const (
	EventNone EventType = iota
	EventPressed
	EventReleased
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	switch e {
	case EventPressed:
		return "pressed"
	case EventReleased:
		return "released"
	default:
		return "none"
	}
}

// Source is the host's input and tracking state for the current frame.
type Source interface {
	// VR reports whether a headset is driving input.
	VR() bool
	// HeadPose returns the tracked HMD pose in room space.
	HeadPose() (math.Pose, bool)
	// HandPose returns the tracked controller pose in room space.
	HandPose(h Hand) (math.Pose, bool)
	// Grip returns the analog grip value in [0, 1].
	Grip(h Hand) float32
	// Pressed reports a press edge of action this frame.
	Pressed(a Action) bool
	// Released reports a release edge of action this frame.
	Released(a Action) bool
	// Down reports whether action is held.
	Down(a Action) bool
}

// DefaultGripThreshold is the analog grip value that counts as a grab.
const DefaultGripThreshold = 0.7

// GripDetector derives press/release edges from an analog grip value.
// grip >= Threshold presses; grip < Threshold releases.
type GripDetector struct {
	Threshold float32
	pressed   bool

	pendingRelease bool
}

// NewGripDetector creates a detector with the given threshold.
func NewGripDetector(threshold float32) *GripDetector {
	if threshold <= 0 {
		threshold = DefaultGripThreshold
	}
	return &GripDetector{Threshold: threshold}
}

// Update feeds the current grip value and returns the resulting edge.
func (g *GripDetector) Update(value float32) EventType {
	if g.pressed {
		if value < g.Threshold {
			g.pressed = false
			return EventReleased
		}
		return EventNone
	}
	if value >= g.Threshold {
		g.pressed = true
		return EventPressed
	}
	return EventNone
}

// Pressed reports whether the grip is currently held.
func (g *GripDetector) Pressed() bool {
	return g.pressed
}

// Reset forgets the held state without emitting an event.
func (g *GripDetector) Reset() {
	g.pressed = false
	g.pendingRelease = false
}

// PollGrab returns this frame's grab edge for hand: the grip threshold in VR,
// or the discrete use action otherwise. A press and a release in the same
// non-VR frame report the press; the release follows on the next poll.
func PollGrab(src Source, hand Hand, det *GripDetector) EventType {
	if src.VR() {
		return det.Update(src.Grip(hand))
	}

	if det.pendingRelease {
		det.pendingRelease = false
		det.pressed = false
		return EventReleased
	}

	pressed := src.Pressed(ActionUse)
	released := src.Released(ActionUse)
	switch {
	case pressed && !det.pressed:
		det.pressed = true
		det.pendingRelease = released
		return EventPressed
	case released && det.pressed:
		det.pressed = false
		return EventReleased
	}
	return EventNone
}
