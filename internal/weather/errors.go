package weather

import (
	"errors"
	"fmt"
)

// ErrMalformed wraps normalizer failures on input that decoded but violated a
// structural assumption.
var ErrMalformed = errors.New("malformed upstream payload")

// UpstreamError reports a failed upstream feed call: network error, non-2xx
// status, or an unreadable body.
type UpstreamError struct {
	Feed   string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s: status %d", e.Feed, e.Status)
	}
	return fmt.Sprintf("upstream %s: %v", e.Feed, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err is (or wraps) an upstream fetch failure.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
