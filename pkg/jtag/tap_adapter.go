package jtag

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/bitseq"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/board"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/clock"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/jtagtap"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

// TAPAdapter is an Adapter over the bit-banged TAP transport. It keeps its
// own copy of the TAP state so it can navigate when callers pass no TMS
// stream.
type TAPAdapter struct {
	mu   sync.Mutex
	t    jtagtap.Transport
	clk  *clock.Clock
	prof board.Profile
	sm   *tap.StateMachine
}

var _ Adapter = (*TAPAdapter)(nil)

// NewTAPAdapter wraps a transport that has just been through mode entry, so
// the TAP is assumed to sit in Run-Test/Idle.
func NewTAPAdapter(t jtagtap.Transport, clk *clock.Clock, prof board.Profile) *TAPAdapter {
	sm := tap.NewStateMachine()
	sm.Force(tap.StateRunTestIdle)
	return &TAPAdapter{t: t, clk: clk, prof: prof, sm: sm}
}

// State reports the tracked TAP state.
func (a *TAPAdapter) State() tap.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sm.State()
}

func (a *TAPAdapter) Info() (AdapterInfo, error) {
	top := a.clk.Calibration().Base
	if top > clock.MaxFrequency {
		top = clock.MaxFrequency
	}
	return AdapterInfo{
		Name:         "GPIO JTAG",
		Vendor:       "OpenTraceLab",
		Model:        a.prof.Name,
		MinFrequency: int(clock.MinFrequency / physic.Hertz),
		MaxFrequency: int(top / physic.Hertz),
		SupportsTRST: a.prof.Has(line.TRST) && a.prof.TRSTPulseEnabled,
		Notes:        fmt.Sprintf("TCK %s (delay %d)", a.clk.Frequency(), a.clk.Count()),
	}, nil
}

func (a *TAPAdapter) ShiftIR(tms, tdi []byte, bits int) ([]byte, error) {
	return a.shift(tap.StateShiftIR, tms, tdi, bits)
}

func (a *TAPAdapter) ShiftDR(tms, tdi []byte, bits int) ([]byte, error) {
	return a.shift(tap.StateShiftDR, tms, tdi, bits)
}

// ResetTAP soft resets through TMS. A hard reset also pulses TRST when the
// board has it; without TRST it degrades to the soft reset.
func (a *TAPAdapter) ResetTAP(hard bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if hard {
		a.t.Reset()
	} else {
		a.t.TMSSeq(tap.SoftResetTMS, tap.SoftResetTicks)
	}
	a.sm.Force(tap.StateRunTestIdle)
	return nil
}

func (a *TAPAdapter) SetSpeed(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("jtag: invalid speed %dHz", hz)
	}
	if err := a.clk.SetFrequency(physic.Frequency(hz) * physic.Hertz); err != nil {
		return fmt.Errorf("jtag: set speed %dHz: %w", hz, err)
	}
	return nil
}

func (a *TAPAdapter) shift(target tap.State, tms, tdi []byte, bits int) ([]byte, error) {
	required, err := ValidateShiftBuffers(tms, tdi, bits)
	if err != nil {
		return nil, err
	}
	in := tdi
	if len(in) == 0 {
		in = make([]byte, required)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(tms) > 0 {
		return a.stream(tms, in, bits), nil
	}

	if err := a.navigate(target); err != nil {
		return nil, err
	}
	tdo := make([]byte, required)
	a.t.TDITDOSeq(tdo, true, in, bits)
	a.sm.Force(tap.NextState(target, true))
	if err := a.navigate(tap.StateRunTestIdle); err != nil {
		return nil, err
	}
	return tdo, nil
}

// stream clocks a raw TMS/TDI stream one bit at a time.
func (a *TAPAdapter) stream(tms, tdi []byte, bits int) []byte {
	modes := bitseq.Unpack(tms, bits)
	data := bitseq.Unpack(tdi, bits)
	out := bitseq.New(bits)
	for i := 0; i < bits; i++ {
		out.Set(i, a.t.Next(modes[i], data[i]))
		a.sm.Clock(modes[i])
	}
	return out.Bytes()
}

func (a *TAPAdapter) navigate(to tap.State) error {
	seq, err := a.sm.GoTo(to)
	if err != nil {
		return err
	}
	if v, n := seq.Bits(); n > 0 {
		a.t.TMSSeq(v, n)
	}
	return nil
}
