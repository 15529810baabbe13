package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atmoscope/atmoscope/internal/core/model"
)

func vp(zoom, lat, lon float64) ViewportState {
	return ViewportState{
		Zoom:   zoom,
		Center: model.LatLng{Lat: lat, Lon: lon},
		Bounds: model.Bounds{West: lon - 1, South: lat - 1, East: lon + 1, North: lat + 1},
	}
}

func TestViewportTracker_FirstObservationIsSignificant(t *testing.T) {
	tr := newViewportTracker(0.5, 0.2)
	assert.True(t, tr.observe(vp(5, 55, 15)))

	cur, ok := tr.current()
	assert.True(t, ok)
	assert.Equal(t, 5.0, cur.Zoom)
}

func TestViewportTracker_Thresholds(t *testing.T) {
	cases := []struct {
		name        string
		next        ViewportState
		significant bool
	}{
		{"identical", vp(5, 55, 15), false},
		{"zoom at threshold", vp(5.5, 55, 15), false},
		{"zoom past threshold", vp(5.6, 55, 15), true},
		{"zoom out past threshold", vp(4.4, 55, 15), true},
		{"small pan", vp(5, 55.1, 15.1), false},
		{"pan past threshold", vp(5, 55.2, 15.2), true},
		{"pan in longitude only", vp(5, 55, 15.3), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newViewportTracker(0.5, 0.2)
			tr.observe(vp(5, 55, 15))
			assert.Equal(t, tc.significant, tr.observe(tc.next))
		})
	}
}

func TestViewportTracker_ComparesAgainstLatestState(t *testing.T) {
	tr := newViewportTracker(0.5, 0.2)
	tr.observe(vp(5, 55, 15))

	// three sub-threshold nudges in the same direction: each compares to the
	// one before it, so none is significant on its own
	assert.False(t, tr.observe(vp(5.4, 55, 15)))
	assert.False(t, tr.observe(vp(5.8, 55, 15)))
	assert.False(t, tr.observe(vp(6.2, 55, 15)))
}

func TestViewportTracker_ZeroConfigGetsDefaults(t *testing.T) {
	tr := newViewportTracker(0, 0)
	tr.observe(vp(5, 55, 15))
	assert.False(t, tr.observe(vp(5.5, 55, 15)))
	assert.True(t, tr.observe(vp(6.1, 55, 15)))
}
