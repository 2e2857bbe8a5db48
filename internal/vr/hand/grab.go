package hand

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/vr/pickup"
)

// GrabHand turns grip edges into pickup grabs and releases.
type GrabHand struct {
	hand     input.Hand
	src      input.Source
	detector *input.GripDetector
	coord    *pickup.Coordinator

	log *zap.Logger
}

// NewGrabHand creates grab logic for h. A non-positive threshold uses
// input.DefaultGripThreshold.
func NewGrabHand(h input.Hand, src input.Source, coord *pickup.Coordinator, threshold float32, log *zap.Logger) *GrabHand {
	if log == nil {
		log = zap.NewNop()
	}
	return &GrabHand{
		hand:     h,
		src:      src,
		detector: input.NewGripDetector(threshold),
		coord:    coord,
		log:      log.With(zap.Stringer("hand", h)),
	}
}

// Update implements scheduler.Ticker.
func (g *GrabHand) Update(float32) {
	switch input.PollGrab(g.src, g.hand, g.detector) {
	case input.EventPressed:
		g.grab()
	case input.EventReleased:
		g.coord.ReleaseHand(g.hand)
	}
}

// OnDisabled implements scheduler.Disabler. A disabled hand lets go.
func (g *GrabHand) OnDisabled() {
	g.detector.Reset()
	g.coord.ReleaseHand(g.hand)
}

func (g *GrabHand) grab() {
	res, err := g.coord.GrabNearest(g.hand)
	switch {
	case errors.Is(err, pickup.ErrNothingInReach):
		g.log.Debug("grab pressed with nothing in reach")
	case err != nil:
		g.log.Warn("grab failed", zap.Error(err))
	default:
		g.log.Debug("grab", zap.Stringer("status", res.Status), zap.Stringer("object", res.Record.Object))
	}
}
