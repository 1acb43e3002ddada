// Package jtagtap bit-bangs the JTAG TAP over four GPIO lines and brings an
// SWJ-DP into JTAG mode at startup.
package jtagtap

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/board"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/clock"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

var (
	ErrNoDriver = errors.New("jtagtap: no line driver")
	ErrNoClock  = errors.New("jtagtap: no clock")
)

// Transport is the set of TAP primitives higher protocol layers shift
// through. Calls are synchronous, must be serialized by the caller, and
// always run to completion.
type Transport interface {
	// Reset pulses TRST when the board has it enabled, then soft-resets the
	// TAP into Run-Test/Idle.
	Reset()
	// Next clocks one bit and returns TDO sampled while TCK was high.
	Next(tms, tdi bool) bool
	// TMSSeq clocks ticks bits of bits onto TMS, LSB first, with TDI high.
	TMSSeq(bits uint32, ticks int)
	// TDISeq clocks ticks bits of data onto TDI. TMS is low except on the
	// last bit, where it is finalTMS. data must hold at least
	// ceil(ticks/8) bytes; a shorter buffer panics.
	TDISeq(finalTMS bool, data []byte, ticks int)
	// TDITDOSeq is TDISeq that also samples TDO into out. A nil out skips
	// sampling; otherwise out, like in, must hold at least ceil(ticks/8)
	// bytes. Bytes past that are not touched.
	TDITDOSeq(out []byte, finalTMS bool, in []byte, ticks int)
}

// Engine is the GPIO bit-banging Transport.
type Engine struct {
	drv  line.Driver
	clk  *clock.Clock
	wait clock.Waiter

	trst      bool
	trstPulse uint32
}

var _ Transport = (*Engine)(nil)

// NewEngine builds an engine for a validated board profile. A nil waiter
// means BusyWaiter.
func NewEngine(drv line.Driver, prof board.Profile, clk *clock.Clock, w clock.Waiter) (*Engine, error) {
	if drv == nil {
		return nil, ErrNoDriver
	}
	if clk == nil {
		return nil, ErrNoClock
	}
	if err := prof.Validate(); err != nil {
		return nil, fmt.Errorf("jtagtap: %w", err)
	}
	if w == nil {
		w = clock.BusyWaiter{}
	}
	return &Engine{
		drv:       drv,
		clk:       clk,
		wait:      w,
		trst:      prof.Has(line.TRST) && prof.TRSTPulseEnabled,
		trstPulse: prof.TRSTPulse,
	}, nil
}

func (e *Engine) Reset() {
	if e.trst {
		e.drv.Set(line.TRST, line.Low)
		e.wait.Wait(e.trstPulse)
		e.drv.Set(line.TRST, line.High)
	}
	e.softReset()
}

func (e *Engine) softReset() {
	e.TMSSeq(tap.SoftResetTMS, tap.SoftResetTicks)
}

func (e *Engine) Next(tms, tdi bool) bool {
	delay := e.clk.Count()
	e.drv.Set(line.TMS, line.Level(tms))
	e.drv.Set(line.TDI, line.Level(tdi))
	e.drv.Set(line.TCK, line.High)
	e.halfCycle(delay)
	tdo := e.drv.Get(line.TDO)
	e.drv.Set(line.TCK, line.Low)
	e.halfCycle(delay)
	return bool(tdo)
}

func (e *Engine) TMSSeq(bits uint32, ticks int) {
	if ticks <= 0 {
		return
	}
	if ticks > 32 {
		ticks = 32
	}
	delay := e.clk.Count()
	e.drv.Set(line.TDI, line.High)
	for i := 0; i < ticks; i++ {
		e.drv.Set(line.TMS, line.Level(bits&(1<<uint(i)) != 0))
		e.drv.Set(line.TCK, line.High)
		e.halfCycle(delay)
		e.drv.Set(line.TCK, line.Low)
		e.halfCycle(delay)
	}
}

func (e *Engine) TDISeq(finalTMS bool, data []byte, ticks int) {
	e.shift(nil, finalTMS, data, ticks)
}

func (e *Engine) TDITDOSeq(out []byte, finalTMS bool, in []byte, ticks int) {
	e.shift(out, finalTMS, in, ticks)
}

// shift is the common data loop. TMS is written once low and again only
// before the last bit, so no earlier pulse can see finalTMS.
func (e *Engine) shift(out []byte, finalTMS bool, in []byte, ticks int) {
	if ticks <= 0 {
		return
	}
	delay := e.clk.Count()
	var res byte
	mask := byte(1)
	idx := 0

	e.drv.Set(line.TMS, line.Low)
	for i := 0; i < ticks; i++ {
		if i == ticks-1 && finalTMS {
			e.drv.Set(line.TMS, line.High)
		}
		e.drv.Set(line.TDI, line.Level(in[idx]&mask != 0))
		e.drv.Set(line.TCK, line.High)
		e.halfCycle(delay)
		if out != nil && e.drv.Get(line.TDO) == line.High {
			res |= mask
		}
		e.drv.Set(line.TCK, line.Low)
		e.halfCycle(delay)

		mask <<= 1
		if mask == 0 {
			if out != nil {
				out[idx] = res
			}
			res = 0
			mask = 1
			idx++
		}
	}
	if out != nil && mask != 1 {
		out[idx] = res
	}
}

func (e *Engine) halfCycle(delay uint32) {
	if delay > 0 {
		e.wait.Wait(delay)
	}
}
