// Package invalidation defines feed-update events published when an upstream
// weather feed refreshes, so cached entries can be dropped before their TTL.
package invalidation

import (
	"fmt"
	"time"

	"github.com/atmoscope/atmoscope/internal/cache/fingerprint"
)

// maxWildfireDays mirrors the widest acquisition window the API accepts.
const maxWildfireDays = 10

type Event struct {
	Version int       `json:"version"`
	Kind    string    `json:"kind"`
	Params  *Params   `json:"params,omitempty"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`
}

// Params narrows an event to a single cached entry. Without params the event
// invalidates every entry of its kind that can be derived.
type Params struct {
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
	Days *int     `json:"days,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Kind {
	case "current", "forecast":
		if e.Params == nil || e.Params.Lat == nil || e.Params.Lon == nil {
			return fmt.Errorf("%s event requires params.lat and params.lon", e.Kind)
		}
		if *e.Params.Lat < -90 || *e.Params.Lat > 90 {
			return fmt.Errorf("params.lat out of range")
		}
		if *e.Params.Lon < -180 || *e.Params.Lon > 180 {
			return fmt.Errorf("params.lon out of range")
		}
	case "hurricane", "disaster":
	case "wildfire":
		if e.Params != nil && e.Params.Days != nil {
			if d := *e.Params.Days; d < 1 || d > maxWildfireDays {
				return fmt.Errorf("params.days must be in [1,%d]", maxWildfireDays)
			}
		}
	default:
		return fmt.Errorf("kind must be current|forecast|hurricane|wildfire|disaster")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}

// Keys returns the cache fingerprints the event invalidates. Validate first.
func (e Event) Keys() []string {
	switch e.Kind {
	case "current":
		return []string{fingerprint.Current(*e.Params.Lat, *e.Params.Lon)}
	case "forecast":
		return []string{fingerprint.Forecast(*e.Params.Lat, *e.Params.Lon)}
	case "hurricane":
		return []string{fingerprint.Hurricanes()}
	case "disaster":
		return []string{fingerprint.Disasters()}
	case "wildfire":
		if e.Params != nil && e.Params.Days != nil {
			return []string{fingerprint.Wildfires(*e.Params.Days)}
		}
		keys := make([]string, 0, maxWildfireDays)
		for d := 1; d <= maxWildfireDays; d++ {
			keys = append(keys, fingerprint.Wildfires(d))
		}
		return keys
	default:
		return nil
	}
}
