package jtagtap

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/board"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

// lineResetClocks clocks one past the minimum line reset.
const lineResetClocks = tap.LineResetTicks + 1

// Sequencer claims the debug lines, installs the engine, and forces the
// target's SWJ-DP into JTAG with a clean TAP.
type Sequencer struct {
	drv    line.Driver
	prof   board.Profile
	engine *Engine
	handle *Handle
	log    *log.Entry
}

// NewSequencer ties an engine to the handle it will be installed into.
func NewSequencer(drv line.Driver, prof board.Profile, engine *Engine, h *Handle) *Sequencer {
	return &Sequencer{
		drv:    drv,
		prof:   prof,
		engine: engine,
		handle: h,
		log:    log.WithField("prefix", "jtagtap"),
	}
}

// Run performs mode entry. It is safe to call again, for example after the
// target is power-cycled; the end state is the same regardless of where the
// TAP was.
func (s *Sequencer) Run() (Transport, error) {
	s.log.WithFields(log.Fields{
		"board": s.prof.Name,
		"tck":   s.engine.clk.Frequency(),
	}).Info("entering JTAG mode")

	if err := s.claimLines(); err != nil {
		return nil, err
	}

	s.handle.Install(s.engine)
	t := s.handle.Transport()
	s.log.Debug("transport installed")

	for i := 0; i < lineResetClocks; i++ {
		t.Next(true, false)
	}
	s.log.Debugf("line reset: %d clocks with TMS high", lineResetClocks)

	t.TMSSeq(tap.SWDToJTAG, tap.SWDToJTAGTicks)
	s.log.Debugf("SWD to JTAG select %#04x", tap.SWDToJTAG)

	s.engine.softReset()
	s.log.Info("TAP in Run-Test/Idle")
	return t, nil
}

func (s *Sequencer) claimLines() error {
	required := []struct {
		sig   line.Signal
		dir   line.Direction
		level line.Level
	}{
		{line.TDI, line.Output, line.High},
		{line.TDO, line.Input, line.Low},
		{line.TMS, line.Output, line.High},
		{line.TCK, line.Output, line.Low},
	}
	for _, r := range required {
		if err := s.claim(r.sig, r.dir); err != nil {
			return err
		}
		if r.dir == line.Output {
			s.drv.Set(r.sig, r.level)
		}
	}

	optional := []struct {
		sig   line.Signal
		level line.Level
	}{
		{line.TMSDir, line.Level(s.prof.TMSDirLevel)},
		{line.TCKTDIDir, line.Level(s.prof.TCKTDIDirLevel)},
		{line.TRST, line.High},
	}
	for _, o := range optional {
		if !s.prof.Has(o.sig) {
			continue
		}
		if err := s.claim(o.sig, line.Output); err != nil {
			return err
		}
		s.drv.Set(o.sig, o.level)
	}
	return nil
}

func (s *Sequencer) claim(sig line.Signal, dir line.Direction) error {
	if err := s.drv.Reset(sig); err != nil {
		return fmt.Errorf("jtagtap: reset %s: %w", sig, err)
	}
	if err := s.drv.Configure(sig, dir); err != nil {
		return fmt.Errorf("jtagtap: configure %s as %s: %w", sig, dir, err)
	}
	return nil
}

// Open validates the profile, builds the engine and sequencer, and runs mode
// entry once.
func Open(drv line.Driver, prof board.Profile, opts ...Option) (*Probe, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	clk := o.clock
	if clk == nil {
		clk = newClock(prof)
	}
	engine, err := NewEngine(drv, prof, clk, o.waiter)
	if err != nil {
		return nil, err
	}
	p := &Probe{Clock: clk, Profile: prof}
	p.seq = NewSequencer(drv, prof, engine, &p.Handle)
	if _, err := p.seq.Run(); err != nil {
		return nil, err
	}
	return p, nil
}
