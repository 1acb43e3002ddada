package clock

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
)

var testCal = Calibration{Base: 4 * physic.MegaHertz, Step: 25 * time.Nanosecond}

func TestSetFrequencyExact(t *testing.T) {
	c := New(testCal)
	if err := c.SetFrequency(physic.MegaHertz); err != nil {
		t.Fatalf("SetFrequency returned error: %v", err)
	}
	if c.Count() != 15 {
		t.Fatalf("Count = %d, want 15", c.Count())
	}
	if got := c.Frequency(); got != physic.MegaHertz {
		t.Fatalf("Frequency = %s, want 1MHz", got)
	}
}

func TestSetFrequencyNeverExceedsRequest(t *testing.T) {
	c := New(testCal)
	for _, f := range []physic.Frequency{
		100 * physic.Hertz,
		3 * physic.MegaHertz,
		1234567 * physic.Hertz,
		2 * physic.MegaHertz,
	} {
		if err := c.SetFrequency(f); err != nil {
			t.Fatalf("SetFrequency(%s) returned error: %v", f, err)
		}
		if got := c.Frequency(); got > f {
			t.Fatalf("SetFrequency(%s): actual %s exceeds request", f, got)
		}
	}
}

func TestFasterThanBaseClampsToZero(t *testing.T) {
	c := New(testCal)
	c.SetCount(99)
	if err := c.SetFrequency(48 * physic.MegaHertz); err != nil {
		t.Fatalf("SetFrequency returned error: %v", err)
	}
	if c.Count() != 0 {
		t.Fatalf("Count = %d, want 0", c.Count())
	}
	if got := c.Frequency(); got != testCal.Base {
		t.Fatalf("Frequency = %s, want base %s", got, testCal.Base)
	}
}

func TestSetFrequencyRange(t *testing.T) {
	c := New(testCal)
	c.SetCount(7)
	for _, f := range []physic.Frequency{99 * physic.Hertz, 49 * physic.MegaHertz, 0} {
		if err := c.SetFrequency(f); !errors.Is(err, ErrFrequencyRange) {
			t.Fatalf("SetFrequency(%s) = %v, want ErrFrequencyRange", f, err)
		}
	}
	if c.Count() != 7 {
		t.Fatalf("rejected request changed counter to %d", c.Count())
	}
}

func TestFrequencyMonotonic(t *testing.T) {
	c := New(testCal)
	prev := c.Frequency()
	for n := uint32(1); n < 2000; n += 7 {
		c.SetCount(n)
		got := c.Frequency()
		if got > prev {
			t.Fatalf("counter %d: %s faster than previous %s", n, got, prev)
		}
		prev = got
	}
}

func TestZeroStepCannotSlowDown(t *testing.T) {
	c := New(Calibration{Base: physic.MegaHertz})
	if err := c.SetFrequency(1000 * physic.Hertz); err != nil {
		t.Fatalf("SetFrequency returned error: %v", err)
	}
	if c.Count() != 0 {
		t.Fatalf("Count = %d, want 0", c.Count())
	}
}

func TestWaiters(t *testing.T) {
	var got []uint32
	w := WaiterFunc(func(n uint32) { got = append(got, n) })
	w.Wait(3)
	w.Wait(5)
	if len(got) != 2 || got[0] != 3 || got[1] != 5 {
		t.Fatalf("WaiterFunc calls = %v", got)
	}

	NopWaiter{}.Wait(10)

	before := spinSink.Load()
	BusyWaiter{}.Wait(12)
	if spun := spinSink.Load() - before; spun != 10 {
		t.Fatalf("BusyWaiter spun %d, want 10", spun)
	}
	before = spinSink.Load()
	BusyWaiter{}.Wait(2)
	if spun := spinSink.Load() - before; spun != 0 {
		t.Fatalf("BusyWaiter(2) spun %d, want 0", spun)
	}

	start := time.Now()
	SpinWaiter{Step: time.Millisecond}.Wait(2)
	if time.Since(start) < 2*time.Millisecond {
		t.Fatalf("SpinWaiter returned early")
	}
}
