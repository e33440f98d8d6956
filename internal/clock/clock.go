package clock

import "time"

// Clock abstracts time.Now so services can be tested with a fixed instant.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function into a Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

// NewSystem returns a Clock backed by time.Now, normalized to UTC.
func NewSystem() Clock {
	return Func(func() time.Time {
		return time.Now().UTC()
	})
}

// NewFixed returns a Clock pinned to the given instant, for tests.
func NewFixed(t time.Time) Clock {
	fixed := t.UTC()
	return Func(func() time.Time {
		return fixed
	})
}
