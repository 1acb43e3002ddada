package clock

import (
	"sync/atomic"
	"time"
)

// Waiter inserts the per-half-cycle delay. It receives the counter value that
// was current when the operation started and is only called with count > 0.
type Waiter interface {
	Wait(count uint32)
}

// WaiterFunc adapts a function to Waiter.
type WaiterFunc func(count uint32)

func (f WaiterFunc) Wait(count uint32) { f(count) }

// NopWaiter returns immediately; tests run the exact edge sequence with no
// real-time delay.
type NopWaiter struct{}

func (NopWaiter) Wait(uint32) {}

// busyOverhead is the share of the counter consumed by loop entry/exit on the
// reference hardware.
const busyOverhead = 2

var spinSink atomic.Uint32

// BusyWaiter counts down count-2 iterations, matching the calibrated
// bit-banging loop of the probe firmware.
type BusyWaiter struct{}

func (BusyWaiter) Wait(count uint32) {
	for i := int64(count) - busyOverhead; i > 0; i-- {
		spinSink.Add(1)
	}
}

// SpinWaiter spins on the wall clock for count*Step. Host GPIO backends use it
// where iteration cost is not stable enough to calibrate.
type SpinWaiter struct {
	Step time.Duration
}

func (w SpinWaiter) Wait(count uint32) {
	d := time.Duration(count) * w.Step
	start := time.Now()
	for time.Since(start) < d {
	}
}
