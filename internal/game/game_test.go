package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-vr/internal/config"
	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

func v(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }

func pose(p math.Vec3) math.Pose { return math.NewPose(p, math.QuatIdentity()) }

func newGame(t *testing.T, vr bool) (*Game, *input.Scripted, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)

	src := input.NewScripted(vr)
	src.SetHeadPose(pose(v(0, 0, 60)))
	src.SetHandPose(input.HandLeft, pose(v(5, -10, 40)))
	src.SetHandPose(input.HandRight, pose(v(5, 10, 40)))

	g, err := New(config.Default(), src, zap.New(core))
	require.NoError(t, err)
	g.AddSolid(math.NewBBox(v(-5000, -5000, -10), v(5000, 5000, 0)), "world")
	return g, src, logs
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.FixedRate = 0

	_, err := New(cfg, input.NewScripted(true), nil)
	assert.Error(t, err)
}

func TestGame_HandsStartAtControllers(t *testing.T) {
	g, _, _ := newGame(t, true)

	p, ok := g.Hand(input.HandRight).Pose()
	require.True(t, ok)
	assert.Equal(t, v(5, 10, 40), p.Position)
	assert.Nil(t, g.Hand(input.Hand(7)))
}

func TestGame_GripGrabsAndReleasesPickup(t *testing.T) {
	g, src, _ := newGame(t, true)
	crate := g.AddPickup("crate", pose(v(5, 14, 40)), 2, math.NewBBox(v(-2, -2, -2), v(2, 2, 2)))

	src.SetGrip(input.HandRight, 1)
	g.Frame(0.011)

	rec, ok := g.Pickups().Held(input.HandRight)
	require.True(t, ok)
	assert.Equal(t, crate, rec.Object)

	sync := g.Pickups().SyncState()
	require.Len(t, sync, 1)
	assert.Equal(t, "crate", sync[0].Name)
	assert.Equal(t, []input.Hand{input.HandRight}, sync[0].Holders)

	g.Frame(0.02)
	require.NotNil(t, g.Pickups().Controller(crate))

	src.SetGrip(input.HandRight, 0)
	g.Frame(0.011)

	_, ok = g.Pickups().Held(input.HandRight)
	assert.False(t, ok)
	assert.Nil(t, g.Pickups().Controller(crate))
	assert.Empty(t, g.Pickups().SyncState())
}

func TestGame_CloseReleasesEverything(t *testing.T) {
	g, src, _ := newGame(t, true)
	g.AddPickup("crate", pose(v(5, 14, 40)), 2, math.NewBBox(v(-2, -2, -2), v(2, 2, 2)))

	src.SetGrip(input.HandRight, 1)
	g.Frame(0.011)
	require.Len(t, g.Pickups().SyncState(), 1)

	g.Close()
	assert.Empty(t, g.Pickups().SyncState())
}

func TestGame_DesktopTeleportResetsControllers(t *testing.T) {
	g, src, logs := newGame(t, false)

	// Build some error history on the hands.
	g.Frame(0.02)
	src.SetHandPose(input.HandRight, pose(v(20, 10, 40)))
	g.Frame(0.02)
	require.NotEqual(t, math.Vec3{}, g.Hand(input.HandRight).Controller().PrevPositionError())

	src.Press(input.ActionTeleport)
	g.Frame(0.011)
	preview, ok := g.Aim().Preview()
	require.True(t, ok)
	assert.InDelta(t, 496, preview.EndPos.X, 0.01)

	src.Release(input.ActionTeleport)
	g.Frame(0.011)

	assert.InDelta(t, 496, g.Rig().FeetPosition().X, 0.01)
	assert.Equal(t, math.Vec3{}, g.Hand(input.HandRight).Controller().PrevPositionError())
	assert.Equal(t, 1, logs.FilterMessage("player teleported").Len())
}

func TestGame_MovePlayerSnapsHands(t *testing.T) {
	g, _, _ := newGame(t, true)

	g.MovePlayer(v(100, 0, 0))
	require.True(t, g.Rig().IsFakeMoving())
	steps := g.Frame(0.02)
	require.Equal(t, 1, steps)

	want, ok := g.Rig().HandPose(input.HandLeft)
	require.True(t, ok)
	got, ok := g.Hand(input.HandLeft).Pose()
	require.True(t, ok)
	assert.InDelta(t, want.Position.X, got.Position.X, 1e-3)
	assert.InDelta(t, want.Position.Y, got.Position.Y, 1e-3)
	assert.InDelta(t, want.Position.Z, got.Position.Z, 1e-3)
	assert.False(t, g.Rig().IsFakeMoving(), "cleared after the frame")
}

func TestGame_RunForDuration(t *testing.T) {
	g, _, _ := newGame(t, true)

	calls := 0
	err := g.Run(context.Background(), time.Second, func(*Game, time.Duration) { calls++ })
	require.NoError(t, err)

	assert.InDelta(t, 90, calls, 1)
	assert.InDelta(t, 50, float64(g.Scheduler().FixedTicks()), 1)
	assert.GreaterOrEqual(t, g.Elapsed(), time.Second)
}

func TestGame_RunStopsOnCancel(t *testing.T) {
	g, _, _ := newGame(t, true)
	ctx, cancel := context.WithCancel(context.Background())

	err := g.Run(ctx, time.Minute, func(_ *Game, now time.Duration) {
		if now > 100*time.Millisecond {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, g.Elapsed(), time.Second)
}
