package engine

import (
	"github.com/atmoscope/atmoscope/internal/core/model"
)

// ViewportState is one observation of the map camera.
type ViewportState struct {
	Bounds model.Bounds
	Center model.LatLng
	Zoom   float64
}

// viewportTracker holds the latest camera state and judges whether a move is
// big enough to justify prefetch work. The thresholds are heuristics carried
// as configuration; the distance is Euclidean in degrees, not geodesic, which
// is fine because it only gates prefetch aggressiveness.
type viewportTracker struct {
	cur         ViewportState
	observed    bool
	zoomDelta   float64
	centerDelta float64
}

func newViewportTracker(zoomDelta, centerDelta float64) *viewportTracker {
	if zoomDelta <= 0 {
		zoomDelta = 0.5
	}
	if centerDelta <= 0 {
		centerDelta = 0.2
	}
	return &viewportTracker{zoomDelta: zoomDelta, centerDelta: centerDelta}
}

// observe replaces the tracked state and reports whether the move was
// significant. The first observation is always significant.
func (t *viewportTracker) observe(next ViewportState) bool {
	prev, had := t.cur, t.observed
	t.cur = next
	t.observed = true
	if !had {
		return true
	}

	dz := next.Zoom - prev.Zoom
	if dz < 0 {
		dz = -dz
	}
	if dz > t.zoomDelta {
		return true
	}
	return next.Center.Distance(prev.Center) > t.centerDelta
}

func (t *viewportTracker) current() (ViewportState, bool) {
	return t.cur, t.observed
}
