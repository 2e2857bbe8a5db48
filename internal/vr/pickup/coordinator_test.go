package pickup

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-vr/internal/engine/handle"
	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/engine/physics"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

const fixedDt = float32(1.0 / 50.0)

func v(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }

type trackedHand struct {
	pose    math.Pose
	tracked bool
}

func (h *trackedHand) Pose() (math.Pose, bool) { return h.pose, h.tracked }

func hand(pos math.Vec3, rot math.Quat) *trackedHand {
	return &trackedHand{pose: math.NewPose(pos, rot), tracked: true}
}

type fixture struct {
	world *physics.World
	coord *Coordinator
	left  *trackedHand
	right *trackedHand
	box   *physics.RigidBody
	boxH  handle.Handle
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)

	f := &fixture{
		world: physics.NewWorld(nil),
		left:  hand(v(-5, 10, 40), math.QuatIdentity()),
		right: hand(v(5, 10, 40), math.QuatFromAxisAngle(math.Up, 0.3)),
		logs:  logs,
	}
	f.coord = New(DefaultSettings(), WithLogger(zap.New(core)), WithTracer(f.world, physics.Filter{}))
	f.coord.AddHand(input.HandLeft, f.left)
	f.coord.AddHand(input.HandRight, f.right)

	f.box = physics.NewRigidBody(math.NewPose(v(0, 12, 40), math.QuatIdentity()), 2)
	f.world.AddBody(f.box)
	f.boxH = f.coord.AddObject("crate", f.box, math.NewBBox(v(-2, -2, -2), v(2, 2, 2)))
	return f
}

func warnings(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}

func assertPoseNear(t *testing.T, want, got math.Pose) {
	t.Helper()
	assert.InDelta(t, want.Position.X, got.Position.X, 1e-3)
	assert.InDelta(t, want.Position.Y, got.Position.Y, 1e-3)
	assert.InDelta(t, want.Position.Z, got.Position.Z, 1e-3)
	assert.InDelta(t, 1, abs(want.Rotation.Dot(got.Rotation)), 1e-4)
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func TestGrab_OneHandTargetIsOffsetAdjustedPose(t *testing.T) {
	f := newFixture(t)

	res, err := f.coord.Grab(input.HandRight, f.boxH)
	require.NoError(t, err)
	assert.Equal(t, StatusGrabbed, res.Status)
	require.NotNil(t, f.coord.Controller(f.boxH))

	// At grab time the target is where the object already is
	target, ok := f.coord.Target(f.boxH)
	require.True(t, ok)
	assertPoseNear(t, f.box.Pose(), target)

	f.right.pose.Position = f.right.pose.Position.Add(v(10, 0, 0))
	target, ok = f.coord.Target(f.boxH)
	require.True(t, ok)

	want := f.right.pose.ToWorld(res.Record.Offset.Inverse())
	assert.Equal(t, want, target, "one holder gives that hand's pose exactly")
	assert.InDelta(t, 10, target.Position.X, 1e-3)
}

func TestGrab_TwoHandsAverage(t *testing.T) {
	f := newFixture(t)

	l, err := f.coord.Grab(input.HandLeft, f.boxH)
	require.NoError(t, err)
	r, err := f.coord.Grab(input.HandRight, f.boxH)
	require.NoError(t, err)
	assert.Equal(t, []input.Hand{input.HandLeft, input.HandRight}, f.coord.Holders(f.boxH))

	f.left.pose.Position = f.left.pose.Position.Add(v(0, 0, 6))
	f.right.pose.Position = f.right.pose.Position.Add(v(0, 0, -2))
	f.right.pose.Rotation = math.QuatFromAxisAngle(math.Up, 0.9)

	wantL := f.left.pose.ToWorld(l.Record.Offset.Inverse())
	wantR := f.right.pose.ToWorld(r.Record.Offset.Inverse())

	target, ok := f.coord.Target(f.boxH)
	require.True(t, ok)
	mean := wantL.Position.Add(wantR.Position).Scale(0.5)
	assert.InDelta(t, mean.X, target.Position.X, 1e-3)
	assert.InDelta(t, mean.Y, target.Position.Y, 1e-3)
	assert.InDelta(t, mean.Z, target.Position.Z, 1e-3)
	assert.InDelta(t, 1, target.Rotation.Dot(target.Rotation), 1e-4, "averaged rotation is unit length")
	wantRot := math.AverageQuat([]math.Quat{wantL.Rotation, wantR.Rotation})
	assert.InDelta(t, 1, abs(wantRot.Dot(target.Rotation)), 1e-4)
	assert.Less(t, abs(wantL.Rotation.Dot(target.Rotation)), float32(0.9999), "rotation is blended, not the left hand's")

	// An untracked holder falls out of the average
	f.left.tracked = false
	target, ok = f.coord.Target(f.boxH)
	require.True(t, ok)
	assert.Equal(t, wantR, target)
}

func TestGrab_SameHandTwiceIsAlreadyHeld(t *testing.T) {
	f := newFixture(t)

	first, err := f.coord.Grab(input.HandLeft, f.boxH)
	require.NoError(t, err)
	ctrl := f.coord.Controller(f.boxH)

	f.left.pose.Position = v(100, 100, 100)
	again, err := f.coord.Grab(input.HandLeft, f.boxH)
	require.NoError(t, err)

	assert.Equal(t, StatusAlreadyHeld, again.Status)
	assert.Equal(t, first.Record, again.Record, "offset is not recomputed")
	assert.Len(t, f.coord.Holders(f.boxH), 1)
	assert.Same(t, ctrl, f.coord.Controller(f.boxH))
}

func TestGrab_Errors(t *testing.T) {
	f := newFixture(t)
	other := physics.NewRigidBody(math.NewPose(v(0, 0, 0), math.QuatIdentity()), 1)
	f.world.AddBody(other)
	otherH := f.coord.AddObject("ball", other, math.BBox{})

	_, err := f.coord.Grab(input.Hand(7), f.boxH)
	assert.ErrorIs(t, err, ErrUnknownHand)

	_, err = f.coord.Grab(input.HandLeft, handle.Nil)
	assert.ErrorIs(t, err, ErrObjectGone)

	_, err = f.coord.Grab(input.HandLeft, f.boxH)
	require.NoError(t, err)
	_, err = f.coord.Grab(input.HandLeft, otherH)
	assert.ErrorIs(t, err, ErrHandBusy)

	f.right.tracked = false
	_, err = f.coord.Grab(input.HandRight, otherH)
	assert.ErrorIs(t, err, ErrHandNotTracked)
	assert.Nil(t, f.coord.Controller(otherH))
}

func TestRelease_LastHolderDestroysController(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Grab(input.HandLeft, f.boxH)
	require.NoError(t, err)
	_, err = f.coord.Grab(input.HandRight, f.boxH)
	require.NoError(t, err)

	f.left.pose.Position = f.left.pose.Position.Add(v(20, 0, 0))
	f.coord.FixedUpdate(fixedDt)
	assert.NotEqual(t, math.Vec3{}, f.box.AccumulatedForce())
	f.world.Step(fixedDt)

	require.True(t, f.coord.Release(f.boxH, input.HandLeft))
	assert.NotNil(t, f.coord.Controller(f.boxH), "one holder left")

	require.True(t, f.coord.ReleaseHand(input.HandRight))
	assert.Nil(t, f.coord.Controller(f.boxH))
	assert.Empty(t, f.coord.Holders(f.boxH))

	f.coord.FixedUpdate(fixedDt)
	assert.Equal(t, math.Vec3{}, f.box.AccumulatedForce(), "no force after the last release")
	assert.Equal(t, math.Vec3{}, f.box.AccumulatedTorque())

	assert.False(t, f.coord.ReleaseHand(input.HandRight))
}

func TestDrop_ReleasesEveryHolder(t *testing.T) {
	f := newFixture(t)
	_, _ = f.coord.Grab(input.HandLeft, f.boxH)
	_, _ = f.coord.Grab(input.HandRight, f.boxH)

	f.coord.Drop(f.boxH)

	assert.Empty(t, f.coord.Holders(f.boxH))
	assert.Nil(t, f.coord.Controller(f.boxH))
	_, held := f.coord.Held(input.HandLeft)
	assert.False(t, held)
	_, held = f.coord.Held(input.HandRight)
	assert.False(t, held)
}

func TestFixedUpdate_BodyDestroyedForcesDrop(t *testing.T) {
	f := newFixture(t)
	vase := physics.NewRigidBody(math.NewPose(v(0, 12, 40), math.QuatIdentity()), 1)
	bodyH := f.world.AddBody(vase)
	boxH := f.coord.AddObject("vase", vase, math.BBox{})

	_, err := f.coord.Grab(input.HandLeft, boxH)
	require.NoError(t, err)

	require.True(t, f.world.RemoveBody(bodyH))
	assert.NotPanics(t, func() { f.coord.FixedUpdate(fixedDt) })

	_, held := f.coord.Held(input.HandLeft)
	assert.False(t, held)
	assert.Nil(t, f.coord.Controller(boxH))
	assert.Equal(t, 1, warnings(f.logs))
}

func TestFixedUpdate_InconsistentHolderSetIsRepaired(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.Grab(input.HandLeft, f.boxH)
	require.NoError(t, err)
	_, err = f.coord.Grab(input.HandRight, f.boxH)
	require.NoError(t, err)

	obj, ok := f.coord.Object(f.boxH)
	require.True(t, ok)

	// The object forgets the left hand while the hand still believes it holds it
	obj.removeHolder(input.HandLeft)
	// and the right hand's record goes missing while the object still lists it
	f.coord.hands[input.HandRight].record = nil

	f.coord.FixedUpdate(fixedDt)

	_, held := f.coord.Held(input.HandLeft)
	assert.False(t, held)
	assert.Empty(t, f.coord.Holders(f.boxH))
	assert.Nil(t, f.coord.Controller(f.boxH))
	assert.Equal(t, 2, warnings(f.logs))
}

func TestGrab_StaleRecordIsDroppedFirst(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.Grab(input.HandLeft, f.boxH)
	require.NoError(t, err)

	other := physics.NewRigidBody(math.NewPose(v(-6, 12, 40), math.QuatIdentity()), 1)
	f.world.AddBody(other)
	otherH := f.coord.AddObject("barrel", other, math.NewBBox(v(-2, -2, -2), v(2, 2, 2)))

	// A valid record on another object still blocks the hand
	_, err = f.coord.Grab(input.HandLeft, otherH)
	assert.ErrorIs(t, err, ErrHandBusy)
	assert.Zero(t, warnings(f.logs))

	obj, ok := f.coord.Object(f.boxH)
	require.True(t, ok)
	obj.removeHolder(input.HandLeft)

	res, err := f.coord.Grab(input.HandLeft, otherH)
	require.NoError(t, err)
	assert.Equal(t, StatusGrabbed, res.Status)
	assert.Equal(t, otherH, res.Record.Object)
	assert.Equal(t, []input.Hand{input.HandLeft}, f.coord.Holders(otherH))
	assert.Empty(t, f.coord.Holders(f.boxH))
	assert.Nil(t, f.coord.Controller(f.boxH))
	assert.Equal(t, 1, f.logs.FilterMessage("hand holds an object that does not list it as holder, dropping").Len())

	// Regrabbing the same object through a stale record grabs it afresh
	obj, ok = f.coord.Object(otherH)
	require.True(t, ok)
	obj.removeHolder(input.HandLeft)

	res, err = f.coord.Grab(input.HandLeft, otherH)
	require.NoError(t, err)
	assert.Equal(t, StatusGrabbed, res.Status)
	assert.Equal(t, []input.Hand{input.HandLeft}, f.coord.Holders(otherH))
	assert.Equal(t, 2, warnings(f.logs))
}

func TestRemoveObject(t *testing.T) {
	f := newFixture(t)
	_, _ = f.coord.Grab(input.HandLeft, f.boxH)

	require.True(t, f.coord.RemoveObject(f.boxH))
	_, held := f.coord.Held(input.HandLeft)
	assert.False(t, held)
	assert.False(t, f.coord.RemoveObject(f.boxH))
	assert.Zero(t, warnings(f.logs))
}

func TestNearest_SkipsHiddenObjects(t *testing.T) {
	f := newFixture(t)

	got, ok := f.coord.Nearest(v(0, 0, 40), 16)
	require.True(t, ok)
	assert.Equal(t, f.boxH, got)

	_, ok = f.coord.Nearest(v(0, -20, 40), 16)
	assert.False(t, ok, "out of reach")

	f.world.AddSolid(math.NewBBox(v(-50, 5, 0), v(50, 6, 100)), "wall")
	_, ok = f.coord.Nearest(v(0, 0, 40), 16)
	assert.False(t, ok, "behind a wall")

	// The left hand is on the crate's side of the wall
	res, err := f.coord.GrabNearest(input.HandLeft)
	require.NoError(t, err)
	assert.Equal(t, f.boxH, res.Record.Object)

	f.coord.AddHand(input.HandRight, hand(v(0, 0, 40), math.QuatIdentity()))
	_, err = f.coord.GrabNearest(input.HandRight)
	assert.True(t, errors.Is(err, ErrNothingInReach))
}

func TestGrabNearest(t *testing.T) {
	f := newFixture(t)

	res, err := f.coord.GrabNearest(input.HandLeft)
	require.NoError(t, err)
	assert.Equal(t, f.boxH, res.Record.Object)
	assert.Equal(t, input.HandLeft, res.Record.Hand)
}

func TestSyncState(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.coord.SyncState())

	_, _ = f.coord.Grab(input.HandRight, f.boxH)
	state := f.coord.SyncState()

	require.Len(t, state, 1)
	obj, _ := f.coord.Object(f.boxH)
	assert.Equal(t, obj.NetID, state[0].NetID)
	assert.NotEqual(t, uuid.Nil, state[0].NetID)
	assert.Equal(t, "crate", state[0].Name)
	assert.Equal(t, []input.Hand{input.HandRight}, state[0].Holders)
}

func TestResetControllers(t *testing.T) {
	f := newFixture(t)
	_, _ = f.coord.Grab(input.HandLeft, f.boxH)
	f.left.pose.Position = f.left.pose.Position.Add(v(3, 0, 0))
	f.coord.FixedUpdate(fixedDt)

	ctrl := f.coord.Controller(f.boxH)
	require.NotEqual(t, math.Vec3{}, ctrl.PrevPositionError())

	f.coord.ResetControllers()
	assert.Equal(t, math.Vec3{}, ctrl.PrevPositionError())
}
