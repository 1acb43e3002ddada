// Package clock holds the Clock Delay Counter that stretches the bit-banged
// TCK, the mapping between that counter and a TCK frequency, and the
// cycle-delay capability the transport calls on each half cycle.
package clock

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Frequency limits accepted by SetFrequency.
const (
	MinFrequency = 100 * physic.Hertz
	MaxFrequency = 48 * physic.MegaHertz
)

var ErrFrequencyRange = errors.New("clock: frequency out of range")

// Calibration relates counter values to time. Base is the TCK rate reached
// with a zero counter; Step is what one delay iteration adds to each half
// cycle.
type Calibration struct {
	Base physic.Frequency
	Step time.Duration
}

// Clock is the shared delay counter. It has a single writer (frequency
// configuration) and is read once at the start of every transport operation.
type Clock struct {
	count atomic.Uint32
	cal   Calibration
}

// New returns a clock with a zero counter.
func New(cal Calibration) *Clock {
	return &Clock{cal: cal}
}

// Calibration returns the calibration the clock was built with.
func (c *Clock) Calibration() Calibration {
	return c.cal
}

// Count returns the current delay counter.
func (c *Clock) Count() uint32 {
	return c.count.Load()
}

// SetCount stores a raw delay counter.
func (c *Clock) SetCount(n uint32) {
	c.count.Store(n)
}

// SetFrequency recomputes the counter for the requested TCK rate. The
// resulting rate never exceeds the request. Out-of-range requests leave the
// counter untouched.
func (c *Clock) SetFrequency(f physic.Frequency) error {
	if f < MinFrequency || f > MaxFrequency {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrFrequencyRange, f, MinFrequency, MaxFrequency)
	}
	c.count.Store(c.countFor(f))
	return nil
}

// Frequency reports the TCK rate implied by the current counter.
func (c *Clock) Frequency() physic.Frequency {
	return c.frequencyFor(c.count.Load())
}

// Half periods are computed in picoseconds so 48 MHz still has resolution.
const psPerHalfHz = 500_000_000_000

func (c *Clock) baseHalf() int64 {
	hz := int64(c.cal.Base / physic.Hertz)
	if hz <= 0 {
		return 0
	}
	return psPerHalfHz / hz
}

func (c *Clock) stepPs() int64 {
	return c.cal.Step.Nanoseconds() * 1000
}

func (c *Clock) countFor(f physic.Frequency) uint32 {
	step := c.stepPs()
	if step <= 0 {
		return 0
	}
	hz := int64(f / physic.Hertz)
	extra := psPerHalfHz/hz - c.baseHalf()
	if extra <= 0 {
		return 0
	}
	n := (extra + step - 1) / step
	if n > int64(^uint32(0)) {
		n = int64(^uint32(0))
	}
	return uint32(n)
}

func (c *Clock) frequencyFor(n uint32) physic.Frequency {
	half := c.baseHalf() + int64(n)*c.stepPs()
	if half <= 0 {
		return c.cal.Base
	}
	return physic.Frequency(psPerHalfHz/half) * physic.Hertz
}
