// Package clock supplies the time sources injected into the simulation
// loop so tests can drive it deterministically.
package clock

import "time"

// Clock reports the current wall-clock instant.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

// Now invokes the wrapped function.
func (f Func) Now() time.Time { return f() }

// System reads the process wall clock.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// Sleeper yields the processor for a bounded duration.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SystemSleeper blocks on the runtime timer.
type SystemSleeper struct{}

// Sleep calls time.Sleep.
func (SystemSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Manual is a hand-advanced clock for tests. Sleep advances the clock
// instead of blocking and records every requested duration.
type Manual struct {
	now   time.Time
	Slept []time.Duration
}

// NewManual returns a Manual clock positioned at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual instant.
func (m *Manual) Now() time.Time { return m.now }

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) { m.now = m.now.Add(d) }

// Sleep records the request and advances the clock by d.
func (m *Manual) Sleep(d time.Duration) {
	m.Slept = append(m.Slept, d)
	m.now = m.now.Add(d)
}

var (
	_ Clock   = System{}
	_ Clock   = Func(nil)
	_ Clock   = (*Manual)(nil)
	_ Sleeper = SystemSleeper{}
	_ Sleeper = (*Manual)(nil)
)
