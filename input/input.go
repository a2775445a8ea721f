// Package input defines the collaborators the sampler reads from: a sample
// Source, a microsecond Clock and the registry of capture backends.
package input

import (
	"fmt"
	"time"
)

// Source yields one raw sample per call, blocking until the hardware (or the
// stream behind it) has one.
type Source interface {
	Acquire() (float64, error)
}

// Clock is a monotonic microsecond counter. Implementations may wrap; the
// sampler treats negative or very large deltas as outliers.
type Clock interface {
	Micros() int64
}

// Buffered is implemented by sources that read samples ahead in chunks, so
// that a single Acquire usually returns without waiting.
type Buffered interface {
	Buffered() bool
}

// Session is an open capture on one device.
type Session interface {
	Source
	Close() error
}

// Device is a capture device known to a backend.
type Device interface {
	fmt.Stringer
}

// SessionConfig configures a capture session.
type SessionConfig struct {
	// Device to capture from.
	Device Device
	// SampleRate requested from streamed backends. Hardware backends may
	// ignore it; the sampler measures the achieved rate either way.
	SampleRate float64
}

// MonotonicClock counts microseconds since it was created using the runtime
// monotonic clock.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock starts a clock at zero.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Micros returns the microseconds elapsed since the clock was created.
func (c *MonotonicClock) Micros() int64 {
	return time.Since(c.start).Microseconds()
}
