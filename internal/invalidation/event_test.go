package invalidation

import (
	"strings"
	"testing"
	"time"

	"github.com/atmoscope/atmoscope/internal/cache/fingerprint"
)

func mustTS() time.Time { return time.Date(2026, 8, 30, 12, 30, 45, 0, time.UTC) }

func f64(v float64) *float64 { return &v }
func iptr(v int) *int        { return &v }

func TestEvent_Validate_CoordKindsRequireParams(t *testing.T) {
	ev := Event{Version: 1, Kind: "current", TS: mustTS()}
	if err := ev.Validate(); err == nil {
		t.Fatalf("expected error for current event without params")
	}

	ev.Params = &Params{Lat: f64(59.3), Lon: f64(18.1)}
	if err := ev.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestEvent_Validate_RejectsOutOfRangeCoords(t *testing.T) {
	ev := Event{Version: 1, Kind: "forecast", TS: mustTS(),
		Params: &Params{Lat: f64(95), Lon: f64(0)}}
	if err := ev.Validate(); err == nil {
		t.Fatalf("expected error for lat out of range")
	}
}

func TestEvent_Validate_GlobalKindsNeedNoParams(t *testing.T) {
	for _, kind := range []string{"hurricane", "disaster", "wildfire"} {
		ev := Event{Version: 1, Kind: kind, TS: mustTS()}
		if err := ev.Validate(); err != nil {
			t.Fatalf("%s: unexpected: %v", kind, err)
		}
	}
}

func TestEvent_Validate_RejectsUnknownKindAndVersion(t *testing.T) {
	if err := (Event{Version: 2, Kind: "current", TS: mustTS()}).Validate(); err == nil {
		t.Fatalf("expected error for version 2")
	}
	if err := (Event{Version: 1, Kind: "volcano", TS: mustTS()}).Validate(); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if err := (Event{Version: 1, Kind: "hurricane"}).Validate(); err == nil {
		t.Fatalf("expected error for zero ts")
	}
}

func TestEvent_Keys_MatchServiceFingerprints(t *testing.T) {
	ev := Event{Version: 1, Kind: "current", TS: mustTS(),
		Params: &Params{Lat: f64(10), Lon: f64(20)}}
	keys := ev.Keys()
	if len(keys) != 1 || keys[0] != fingerprint.Current(10, 20) {
		t.Fatalf("keys=%v want [%s]", keys, fingerprint.Current(10, 20))
	}

	ev = Event{Version: 1, Kind: "hurricane", TS: mustTS()}
	if keys := ev.Keys(); len(keys) != 1 || keys[0] != fingerprint.Hurricanes() {
		t.Fatalf("hurricane keys=%v", keys)
	}
}

func TestEvent_Keys_WildfireWithoutDaysCoversAllWindows(t *testing.T) {
	ev := Event{Version: 1, Kind: "wildfire", TS: mustTS()}
	keys := ev.Keys()
	if len(keys) != maxWildfireDays {
		t.Fatalf("keys=%d want %d", len(keys), maxWildfireDays)
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "wildfire:") {
			t.Fatalf("unexpected key %q", k)
		}
	}

	ev.Params = &Params{Days: iptr(3)}
	keys = ev.Keys()
	if len(keys) != 1 || keys[0] != fingerprint.Wildfires(3) {
		t.Fatalf("narrowed keys=%v", keys)
	}
}
