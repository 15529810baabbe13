package weather

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze the synthetic ids
// the hurricane and wildfire normalizers mint. Production uses the real clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
