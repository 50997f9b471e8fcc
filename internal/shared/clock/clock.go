// Package clock provides an injectable time source so probe timings and
// certificate expiry math can be exercised deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real is the wall clock.
type Real struct{}

// Now returns time.Now.
func (Real) Now() time.Time { return time.Now() }

// Since returns the time elapsed on c since t.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// OrReal returns c, or the wall clock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}

// Fixed always reports the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return time.Time(f) }

// Stepper advances by Step on every call to Now, starting at Start.
type Stepper struct {
	mu    sync.Mutex
	Start time.Time
	Step  time.Duration
	calls int
}

// NewStepper creates a Stepper beginning at start.
func NewStepper(start time.Time, step time.Duration) *Stepper {
	return &Stepper{Start: start, Step: step}
}

// Now returns Start + calls*Step and increments the call count.
func (s *Stepper) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.Start.Add(time.Duration(s.calls) * s.Step)
	s.calls++
	return t
}
