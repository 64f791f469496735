// Package clock supplies the current time as epoch seconds. The decision
// logic and both storage backends take a Clock so tests can pin time.
package clock

import "time"

// Clock returns the current time as Unix epoch seconds.
type Clock func() int64

// System reads the wall clock.
func System() int64 {
	return time.Now().Unix()
}

// Fixed returns a Clock frozen at ts.
func Fixed(ts int64) Clock {
	return func() int64 { return ts }
}
