package line

import (
	"errors"
	"testing"
)

type edgeCounter struct {
	rises, falls int
	lastTMS      bool
	lastTDI      bool
	out          bool
}

func (e *edgeCounter) Rise(tms, tdi bool) { e.rises++; e.lastTMS, e.lastTDI = tms, tdi }
func (e *edgeCounter) Fall()              { e.falls++ }
func (e *edgeCounter) TDO() bool          { return e.out }

func TestSimRecordsPulsesOnRisingEdgeOnly(t *testing.T) {
	s := NewSim()
	s.Set(TMS, High)
	s.Set(TDI, Low)
	s.Set(TCK, High)
	s.Set(TCK, High) // no edge
	s.Set(TCK, Low)
	s.Set(TCK, Low) // no edge

	pulses := s.Pulses()
	if len(pulses) != 1 {
		t.Fatalf("pulses = %d, want 1", len(pulses))
	}
	if !pulses[0].TMS || pulses[0].TDI || pulses[0].Sampled {
		t.Fatalf("unexpected pulse %+v", pulses[0])
	}
	if got := len(s.Events()); got != 6 {
		t.Fatalf("events = %d, want 6", got)
	}
}

func TestSimLoopback(t *testing.T) {
	s := NewLoopback()
	s.Set(TDI, High)
	s.Set(TCK, High)
	if s.Get(TDO) != High {
		t.Fatalf("loopback TDO = low, want high")
	}
	s.Set(TCK, Low)
	s.Set(TDI, Low)
	s.Set(TCK, High)
	if s.Get(TDO) != Low {
		t.Fatalf("loopback TDO = high, want low")
	}

	pulses := s.Pulses()
	if !pulses[0].Sampled || !pulses[0].TDO || !pulses[1].Sampled || pulses[1].TDO {
		t.Fatalf("unexpected samples %+v", pulses)
	}
}

func TestSimSampleOnlyWhileClockHigh(t *testing.T) {
	s := NewLoopback()
	s.Set(TCK, High)
	s.Set(TCK, Low)
	s.Get(TDO)
	if s.Pulses()[0].Sampled {
		t.Fatalf("TDO read with TCK low was recorded as a sample")
	}
}

func TestSimTarget(t *testing.T) {
	target := &edgeCounter{out: true}
	s := NewSim()
	s.Target = target

	s.Set(TMS, High)
	s.Set(TDI, High)
	s.Set(TCK, High)
	if s.Get(TDO) != High {
		t.Fatalf("TDO did not come from target")
	}
	s.Set(TCK, Low)

	if target.rises != 1 || target.falls != 1 {
		t.Fatalf("edges = %d/%d, want 1/1", target.rises, target.falls)
	}
	if !target.lastTMS || !target.lastTDI {
		t.Fatalf("target saw TMS=%v TDI=%v", target.lastTMS, target.lastTDI)
	}
}

func TestSimConfigureAndReset(t *testing.T) {
	boom := errors.New("boom")
	s := NewSim()
	s.FailConfigure = map[Signal]error{TRST: boom}

	if err := s.Configure(TDO, Input); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	if d, ok := s.DirectionOf(TDO); !ok || d != Input {
		t.Fatalf("DirectionOf(TDO) = %v,%v", d, ok)
	}
	if err := s.Configure(TRST, Output); !errors.Is(err, boom) {
		t.Fatalf("Configure(TRST) = %v, want injected error", err)
	}
	if err := s.Reset(TDO); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if _, ok := s.DirectionOf(TDO); ok {
		t.Fatalf("direction survived reset")
	}
	if s.ResetCount(TDO) != 1 {
		t.Fatalf("ResetCount = %d, want 1", s.ResetCount(TDO))
	}
}

func TestSignalString(t *testing.T) {
	if TCKTDIDir.String() != "TCK_TDI_DIR" {
		t.Fatalf("String = %q", TCKTDIDir.String())
	}
	if Signal(42).String() != "Signal(42)" {
		t.Fatalf("String = %q", Signal(42).String())
	}
}
