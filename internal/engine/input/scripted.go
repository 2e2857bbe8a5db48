package input

import (
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// Scripted is a Source driven by code: headless runs and tests set poses,
// grip values and action edges directly. Edges last until EndFrame.
type Scripted struct {
	vr    bool
	head  *math.Pose
	hands map[Hand]math.Pose
	grip  map[Hand]float32

	down     map[Action]bool
	pressed  map[Action]bool
	released map[Action]bool
}

// NewScripted creates a scripted source. vr selects the analog grip path.
func NewScripted(vr bool) *Scripted {
	return &Scripted{
		vr:       vr,
		hands:    make(map[Hand]math.Pose),
		grip:     make(map[Hand]float32),
		down:     make(map[Action]bool),
		pressed:  make(map[Action]bool),
		released: make(map[Action]bool),
	}
}

func (s *Scripted) VR() bool { return s.vr }

func (s *Scripted) HeadPose() (math.Pose, bool) {
	if s.head == nil {
		return math.Pose{}, false
	}
	return *s.head, true
}

func (s *Scripted) HandPose(h Hand) (math.Pose, bool) {
	p, ok := s.hands[h]
	return p, ok
}

func (s *Scripted) Grip(h Hand) float32       { return s.grip[h] }
func (s *Scripted) Pressed(a Action) bool     { return s.pressed[a] }
func (s *Scripted) Released(a Action) bool    { return s.released[a] }
func (s *Scripted) Down(a Action) bool        { return s.down[a] }
func (s *Scripted) SetGrip(h Hand, v float32) { s.grip[h] = v }

// SetHeadPose sets the room-space HMD pose.
func (s *Scripted) SetHeadPose(p math.Pose) {
	s.head = &p
}

// SetHandPose sets a room-space controller pose.
func (s *Scripted) SetHandPose(h Hand, p math.Pose) {
	s.hands[h] = p
}

// LoseTracking drops a controller's pose.
func (s *Scripted) LoseTracking(h Hand) {
	delete(s.hands, h)
}

// Press holds action and records a press edge.
func (s *Scripted) Press(a Action) {
	if !s.down[a] {
		s.pressed[a] = true
	}
	s.down[a] = true
}

// Release lets go of action and records a release edge.
func (s *Scripted) Release(a Action) {
	if s.down[a] {
		s.released[a] = true
	}
	s.down[a] = false
}

// EndFrame clears this frame's edges.
func (s *Scripted) EndFrame() {
	clear(s.pressed)
	clear(s.released)
}
