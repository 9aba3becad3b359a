// Package timestamp produces the ISO-8601 instant strings attached to every
// order and fill. It is deliberately tiny: every call must allocate its own
// independently owned string (spec section 4.1), never share a cached one.
package timestamp

import "time"

const layout = "2006-01-02T15:04:05.0000Z"

// Unknown is returned in place of a timestamp when the clock cannot be
// read, i.e. when the Source's clock function panics. time.Now never fails
// on any platform Go supports, so with the real clock this is unreachable
// in practice.
const Unknown = "Unknown"

// Source produces timestamps. The default implementation wraps time.Now;
// tests may substitute a fixed clock.
type Source struct {
	Clock func() time.Time
}

// New returns a Source backed by the real system clock.
func New() Source {
	return Source{Clock: time.Now}
}

// Now returns a freshly formatted UTC instant string, or Unknown if the
// clock cannot be read.
func (s Source) Now() (ts string) {
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	defer func() {
		if recover() != nil {
			ts = Unknown
		}
	}()
	return clock().UTC().Format(layout)
}
