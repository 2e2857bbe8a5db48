// Package scheduler drives behaviors through fixed-step and variable-step
// update phases.
//
// A behavior opts into a phase by implementing FixedTicker and/or Ticker.
// Fixed steps always receive the same dt, so derivative terms computed in
// FixedUpdate stay consistent regardless of frame rate.
package scheduler

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/handle"
)

// FixedTicker runs once per fixed physics step.
type FixedTicker interface {
	FixedUpdate(dt float32)
}

// Ticker runs once per frame with the variable frame delta.
type Ticker interface {
	Update(dt float32)
}

// Enabler is notified when a behavior becomes enabled.
type Enabler interface {
	OnEnabled()
}

// Disabler is notified when a behavior becomes disabled.
type Disabler interface {
	OnDisabled()
}

// Destroyer is notified when a behavior is removed.
type Destroyer interface {
	OnDestroy()
}

const defaultMaxSteps = 5

type entry struct {
	behavior any
	enabled  bool
}

// Scheduler owns registered behaviors and the fixed-step accumulator.
type Scheduler struct {
	fixedDt     float32
	maxSteps    int
	accumulator float32
	fixedTicks  uint64

	entries *handle.Arena[*entry]
	order   []handle.Handle

	log *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxSteps caps the fixed steps run per Advance call.
func WithMaxSteps(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// New creates a scheduler stepping physics at fixedDt seconds.
// fixedDt must be positive.
func New(fixedDt float32, opts ...Option) *Scheduler {
	if fixedDt <= 0 {
		panic("scheduler: fixed timestep must be positive")
	}
	s := &Scheduler{
		fixedDt:  fixedDt,
		maxSteps: defaultMaxSteps,
		entries:  handle.NewArena[*entry](),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FixedDelta returns the fixed physics timestep.
func (s *Scheduler) FixedDelta() float32 {
	return s.fixedDt
}

// FixedTicks returns the number of fixed steps run so far.
func (s *Scheduler) FixedTicks() uint64 {
	return s.fixedTicks
}

// Register adds a behavior in the enabled state and returns its handle.
// Behaviors run in registration order within each phase.
func (s *Scheduler) Register(behavior any) handle.Handle {
	h := s.entries.Insert(&entry{behavior: behavior, enabled: true})
	s.order = append(s.order, h)
	if e, ok := behavior.(Enabler); ok {
		e.OnEnabled()
	}
	return h
}

// SetEnabled toggles a behavior. Disabled behaviors receive no ticks.
// Returns false if h is not a live registration.
func (s *Scheduler) SetEnabled(h handle.Handle, enabled bool) bool {
	e, ok := s.entries.Get(h)
	if !ok {
		return false
	}
	if e.enabled == enabled {
		return true
	}
	e.enabled = enabled
	if enabled {
		if en, ok := e.behavior.(Enabler); ok {
			en.OnEnabled()
		}
	} else if dis, ok := e.behavior.(Disabler); ok {
		dis.OnDisabled()
	}
	return true
}

// Enabled reports whether h is live and enabled.
func (s *Scheduler) Enabled(h handle.Handle) bool {
	e, ok := s.entries.Get(h)
	return ok && e.enabled
}

// Destroy removes a behavior. Returns false if h was not live.
func (s *Scheduler) Destroy(h handle.Handle) bool {
	e, ok := s.entries.Get(h)
	if !ok {
		return false
	}
	if e.enabled {
		if dis, ok := e.behavior.(Disabler); ok {
			dis.OnDisabled()
		}
	}
	if d, ok := e.behavior.(Destroyer); ok {
		d.OnDestroy()
	}
	s.entries.Remove(h)
	for i, oh := range s.order {
		if oh == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Advance consumes frameDt seconds: runs as many fixed steps as the
// accumulator allows (capped), then one variable update.
// Returns the number of fixed steps run.
func (s *Scheduler) Advance(frameDt float32) int {
	if frameDt < 0 {
		frameDt = 0
	}
	s.accumulator += frameDt

	steps := 0
	for s.accumulator >= s.fixedDt {
		if steps >= s.maxSteps {
			// Falling behind; drop the backlog rather than spiral
			s.log.Debug("dropping fixed-step backlog",
				zap.Float32("backlog", s.accumulator),
				zap.Int("steps", steps),
			)
			s.accumulator = 0
			break
		}
		s.Step()
		s.accumulator -= s.fixedDt
		steps++
	}

	s.update(frameDt)
	return steps
}

// Step runs exactly one fixed step on every enabled FixedTicker.
func (s *Scheduler) Step() {
	s.fixedTicks++
	for _, h := range s.snapshot() {
		e, ok := s.entries.Get(h)
		if !ok || !e.enabled {
			continue
		}
		if f, ok := e.behavior.(FixedTicker); ok {
			f.FixedUpdate(s.fixedDt)
		}
	}
}

func (s *Scheduler) update(dt float32) {
	for _, h := range s.snapshot() {
		e, ok := s.entries.Get(h)
		if !ok || !e.enabled {
			continue
		}
		if t, ok := e.behavior.(Ticker); ok {
			t.Update(dt)
		}
	}
}

// snapshot copies the run order so behaviors may register or destroy
// others mid-phase.
func (s *Scheduler) snapshot() []handle.Handle {
	out := make([]handle.Handle, len(s.order))
	copy(out, s.order)
	return out
}
