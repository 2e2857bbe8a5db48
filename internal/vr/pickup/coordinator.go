// Package pickup coordinates which hands hold which objects.
//
// Each held object owns one tracking controller while it has at least one
// holder. The controller's target is the grip pose of the holders: with one
// holder it is that hand's pose adjusted by the offset cached at grab time,
// with several it is the average of every holder's adjusted pose.
package pickup

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/handle"
	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/engine/physics"
	"github.com/Faultbox/midgard-vr/internal/vr/tracking"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

var (
	ErrUnknownHand    = errors.New("hand not registered")
	ErrHandNotTracked = errors.New("hand has no tracked pose")
	ErrObjectGone     = errors.New("object no longer exists")
	ErrHandBusy       = errors.New("hand already holds another object")
	ErrNothingInReach = errors.New("no object in reach")
)

// Status is the outcome of a successful Grab call.
type Status uint8

const (
	StatusGrabbed Status = iota
	StatusAlreadyHeld
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusGrabbed:
		return "grabbed"
	case StatusAlreadyHeld:
		return "already held"
	default:
		return "unknown"
	}
}

// GrabRecord ties a hand to the object it holds. Offset is the hand pose in
// the object's frame at the moment of the grab.
type GrabRecord struct {
	Hand   input.Hand
	Object handle.Handle
	Offset math.Pose
}

// GrabResult is returned by Grab.
type GrabResult struct {
	Status Status
	Record GrabRecord
}

// Object is a pickupable rigid body.
type Object struct {
	// NetID identifies the object across peers.
	NetID uuid.UUID
	Name  string
	Body  physics.Body
	// Bounds are local to the body position.
	Bounds math.BBox

	holders    []input.Hand
	controller *tracking.Controller
}

// Holders returns the hands currently holding the object, in grab order.
func (o *Object) Holders() []input.Hand {
	return append([]input.Hand(nil), o.holders...)
}

func (o *Object) holds(h input.Hand) bool {
	for _, held := range o.holders {
		if held == h {
			return true
		}
	}
	return false
}

func (o *Object) removeHolder(h input.Hand) bool {
	for i, held := range o.holders {
		if held == h {
			o.holders = append(o.holders[:i], o.holders[i+1:]...)
			return true
		}
	}
	return false
}

type handState struct {
	pose   tracking.PoseSource
	record *GrabRecord
}

func (s *handState) worldPose() (math.Pose, bool) {
	if s.pose == nil {
		return math.Pose{}, false
	}
	return s.pose.Pose()
}

// Settings configure the coordinator.
type Settings struct {
	Object tracking.Settings `yaml:"object"`
	// GrabRadius is how far from a hand an object may be grabbed.
	GrabRadius float32 `yaml:"grab_radius"`
	// RequireVisible restricts grabbing to objects visible from the hand.
	RequireVisible bool `yaml:"require_visible"`
}

// DefaultSettings returns the default pickup settings.
func DefaultSettings() Settings {
	return Settings{
		Object:         tracking.ObjectSettings(),
		GrabRadius:     16,
		RequireVisible: true,
	}
}

// Coordinator owns grab records and holder sets.
type Coordinator struct {
	settings Settings
	objects  *handle.Arena[*Object]
	hands    map[input.Hand]*handState
	order    []input.Hand

	tracer physics.Tracer
	filter physics.Filter

	log *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTracer enables visibility checks for Nearest.
func WithTracer(t physics.Tracer, filter physics.Filter) Option {
	return func(c *Coordinator) {
		c.tracer = t
		c.filter = filter
	}
}

// New creates an empty coordinator.
func New(settings Settings, opts ...Option) *Coordinator {
	c := &Coordinator{
		settings: settings,
		objects:  handle.NewArena[*Object](),
		hands:    make(map[input.Hand]*handState),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddHand registers a hand and the source of its world pose.
func (c *Coordinator) AddHand(h input.Hand, pose tracking.PoseSource) {
	if _, ok := c.hands[h]; !ok {
		c.order = append(c.order, h)
	}
	c.hands[h] = &handState{pose: pose}
}

// AddObject registers a pickupable body and returns its handle.
func (c *Coordinator) AddObject(name string, body physics.Body, bounds math.BBox) handle.Handle {
	obj := &Object{
		NetID:  uuid.New(),
		Name:   name,
		Body:   body,
		Bounds: bounds,
	}
	h := c.objects.Insert(obj)
	c.log.Debug("pickup registered",
		zap.String("name", name),
		zap.Stringer("object", h),
		zap.Stringer("net_id", obj.NetID))
	return h
}

// RemoveObject drops the object from every hand and forgets it.
func (c *Coordinator) RemoveObject(h handle.Handle) bool {
	if _, ok := c.objects.Get(h); !ok {
		return false
	}
	c.Drop(h)
	return c.objects.Remove(h)
}

// Object returns the object for h if it is still registered.
func (c *Coordinator) Object(h handle.Handle) (*Object, bool) {
	return c.objects.Get(h)
}

// Held returns the grab record of hand, if it holds anything.
func (c *Coordinator) Held(h input.Hand) (GrabRecord, bool) {
	st, ok := c.hands[h]
	if !ok || st.record == nil {
		return GrabRecord{}, false
	}
	return *st.record, true
}

// Holders returns the hands holding obj.
func (c *Coordinator) Holders(obj handle.Handle) []input.Hand {
	o, ok := c.objects.Get(obj)
	if !ok {
		return nil
	}
	return o.Holders()
}

// Controller returns the tracking controller of obj, nil while it is not held.
func (c *Coordinator) Controller(obj handle.Handle) *tracking.Controller {
	o, ok := c.objects.Get(obj)
	if !ok {
		return nil
	}
	return o.controller
}

// Grab makes hand hold obj. Grabbing an object the hand already holds
// returns StatusAlreadyHeld with the existing record. A stale record on the
// hand is dropped with a warning before grabbing.
func (c *Coordinator) Grab(hand input.Hand, obj handle.Handle) (GrabResult, error) {
	st, ok := c.hands[hand]
	if !ok {
		return GrabResult{}, fmt.Errorf("grab with %s hand: %w", hand, ErrUnknownHand)
	}
	o, ok := c.objects.Get(obj)
	if !ok || o.Body == nil || !o.Body.IsValid() {
		return GrabResult{}, fmt.Errorf("grab %s: %w", obj, ErrObjectGone)
	}

	if st.record != nil && !c.dropStale(hand, st) {
		if st.record.Object == obj {
			return GrabResult{Status: StatusAlreadyHeld, Record: *st.record}, nil
		}
		return GrabResult{}, fmt.Errorf("grab %s with %s hand: %w", obj, hand, ErrHandBusy)
	}

	handPose, ok := st.worldPose()
	if !ok {
		return GrabResult{}, fmt.Errorf("grab %s with %s hand: %w", obj, hand, ErrHandNotTracked)
	}

	if o.controller == nil {
		o.controller = tracking.New(o.Body, c.targetSource(obj), c.settings.Object,
			tracking.WithLogger(c.log.With(zap.String("pickup", o.Name))))
	}

	objPose := math.NewPose(o.Body.Position(), o.Body.Rotation())
	rec := &GrabRecord{
		Hand:   hand,
		Object: obj,
		Offset: objPose.ToLocal(handPose),
	}
	st.record = rec
	o.holders = append(o.holders, hand)

	c.log.Debug("grabbed",
		zap.Stringer("hand", hand),
		zap.String("pickup", o.Name),
		zap.Int("holders", len(o.holders)))
	return GrabResult{Status: StatusGrabbed, Record: *rec}, nil
}

// GrabNearest grabs the closest object in reach of hand.
func (c *Coordinator) GrabNearest(hand input.Hand) (GrabResult, error) {
	st, ok := c.hands[hand]
	if !ok {
		return GrabResult{}, fmt.Errorf("grab with %s hand: %w", hand, ErrUnknownHand)
	}
	pose, ok := st.worldPose()
	if !ok {
		return GrabResult{}, fmt.Errorf("grab with %s hand: %w", hand, ErrHandNotTracked)
	}
	obj, ok := c.Nearest(pose.Position, c.settings.GrabRadius)
	if !ok {
		return GrabResult{}, ErrNothingInReach
	}
	return c.Grab(hand, obj)
}

// Release removes hand from obj's holders. The controller is destroyed when
// the last holder lets go.
func (c *Coordinator) Release(obj handle.Handle, hand input.Hand) bool {
	o, ok := c.objects.Get(obj)
	if !ok {
		return false
	}
	if st, ok := c.hands[hand]; ok && st.record != nil && st.record.Object == obj {
		st.record = nil
	}
	if !o.removeHolder(hand) {
		return false
	}
	c.log.Debug("released",
		zap.Stringer("hand", hand),
		zap.String("pickup", o.Name),
		zap.Int("holders", len(o.holders)))
	if len(o.holders) == 0 {
		c.destroyController(o)
	}
	return true
}

// ReleaseHand releases whatever hand is holding.
func (c *Coordinator) ReleaseHand(hand input.Hand) bool {
	rec, ok := c.Held(hand)
	if !ok {
		return false
	}
	if c.Release(rec.Object, hand) {
		return true
	}
	// The object no longer lists the hand; clear the record anyway.
	c.hands[hand].record = nil
	return true
}

// Drop force-releases every holder of obj.
func (c *Coordinator) Drop(obj handle.Handle) {
	o, ok := c.objects.Get(obj)
	if !ok {
		return
	}
	for _, hand := range o.Holders() {
		c.Release(obj, hand)
	}
	c.destroyController(o)
}

// Target returns the grip pose obj is being driven toward. ok is false when
// no holder has a tracked pose.
func (c *Coordinator) Target(obj handle.Handle) (math.Pose, bool) {
	o, ok := c.objects.Get(obj)
	if !ok {
		return math.Pose{}, false
	}

	poses := make([]math.Pose, 0, len(o.holders))
	for _, hand := range o.holders {
		st, ok := c.hands[hand]
		if !ok || st.record == nil || st.record.Object != obj {
			continue
		}
		handPose, ok := st.worldPose()
		if !ok {
			continue
		}
		poses = append(poses, handPose.ToWorld(st.record.Offset.Inverse()))
	}

	switch len(poses) {
	case 0:
		return math.Pose{}, false
	case 1:
		return poses[0], true
	}

	var sum math.Vec3
	rots := make([]math.Quat, len(poses))
	for i, p := range poses {
		sum = sum.Add(p.Position)
		rots[i] = p.Rotation
	}
	return math.NewPose(sum.Div(float32(len(poses))), math.AverageQuat(rots)), true
}

func (c *Coordinator) targetSource(obj handle.Handle) tracking.PoseSource {
	return tracking.PoseFunc(func() (math.Pose, bool) {
		return c.Target(obj)
	})
}

// Nearest returns the closest object whose body lies within radius of pos.
// With a tracer configured and RequireVisible set, hidden objects are skipped.
func (c *Coordinator) Nearest(pos math.Vec3, radius float32) (handle.Handle, bool) {
	best := handle.Nil
	bestDist := radius * radius
	c.objects.Each(func(h handle.Handle, o *Object) bool {
		if o.Body == nil || !o.Body.IsValid() {
			return true
		}
		center := o.Body.Position()
		d := center.DistanceSquared(pos)
		if d > bestDist {
			return true
		}
		if c.settings.RequireVisible && c.tracer != nil &&
			!physics.IsBoxVisible(c.tracer, pos, o.Bounds.Translate(center), c.filter) {
			return true
		}
		best, bestDist = h, d
		return true
	})
	return best, !best.IsNil()
}

// FixedUpdate implements scheduler.FixedTicker. It repairs inconsistent
// records, retires controllers without holders and ticks the rest.
func (c *Coordinator) FixedUpdate(dt float32) {
	c.reconcile()

	c.objects.Each(func(_ handle.Handle, o *Object) bool {
		if o.controller == nil {
			return true
		}
		if len(o.holders) == 0 {
			c.destroyController(o)
			return true
		}
		o.controller.Tick(dt)
		return true
	})
}

// ResetControllers clears the error history of every active controller.
// Call after the player rig moves discontinuously.
func (c *Coordinator) ResetControllers() {
	c.objects.Each(func(_ handle.Handle, o *Object) bool {
		if o.controller != nil {
			o.controller.Reset()
		}
		return true
	})
}

// reconcile force-drops grab records that disagree with holder sets.
func (c *Coordinator) reconcile() {
	for _, hand := range c.order {
		if st := c.hands[hand]; st.record != nil {
			c.dropStale(hand, st)
		}
	}

	c.objects.Each(func(h handle.Handle, o *Object) bool {
		for _, hand := range o.Holders() {
			st, ok := c.hands[hand]
			if ok && st.record != nil && st.record.Object == h {
				continue
			}
			c.log.Warn("holder has no matching grab record, dropping",
				zap.Stringer("hand", hand), zap.String("pickup", o.Name))
			c.Release(h, hand)
		}
		return true
	})
}

// dropStale force-drops the record of hand when the object it names is gone
// or no longer lists hand as a holder. It reports whether it dropped.
func (c *Coordinator) dropStale(hand input.Hand, st *handState) bool {
	objH := st.record.Object
	o, ok := c.objects.Get(objH)
	switch {
	case !ok:
		c.log.Warn("grab record references a removed object, dropping",
			zap.Stringer("hand", hand), zap.Stringer("object", objH))
	case o.Body == nil || !o.Body.IsValid():
		c.log.Warn("held object lost its body, dropping",
			zap.Stringer("hand", hand), zap.String("pickup", o.Name))
	case !o.holds(hand):
		c.log.Warn("hand holds an object that does not list it as holder, dropping",
			zap.Stringer("hand", hand), zap.String("pickup", o.Name))
	default:
		return false
	}

	st.record = nil
	if ok {
		c.Release(objH, hand)
		if len(o.holders) == 0 {
			c.destroyController(o)
		}
	}
	return true
}

func (c *Coordinator) destroyController(o *Object) {
	if o.controller == nil {
		return
	}
	o.controller = nil
	c.log.Debug("tracking controller destroyed", zap.String("pickup", o.Name))
}

// SyncEntry is the replicated state of one held object.
type SyncEntry struct {
	NetID   uuid.UUID    `yaml:"net_id"`
	Name    string       `yaml:"name"`
	Holders []input.Hand `yaml:"holders"`
}

// SyncState returns every held object and its holders. This is the state
// peers need to agree on.
func (c *Coordinator) SyncState() []SyncEntry {
	var out []SyncEntry
	c.objects.Each(func(_ handle.Handle, o *Object) bool {
		if len(o.holders) == 0 {
			return true
		}
		out = append(out, SyncEntry{NetID: o.NetID, Name: o.Name, Holders: o.Holders()})
		return true
	})
	return out
}
