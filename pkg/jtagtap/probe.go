package jtagtap

import (
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/board"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/clock"
)

// Probe bundles what a debug session needs after startup: the installed
// transport, the delay counter it reads, and the board it runs on.
type Probe struct {
	Handle  Handle
	Clock   *clock.Clock
	Profile board.Profile

	seq *Sequencer
}

// Transport returns the installed transport.
func (p *Probe) Transport() Transport {
	return p.Handle.Transport()
}

// Reenter reruns mode entry, e.g. after a target power cycle.
func (p *Probe) Reenter() error {
	_, err := p.seq.Run()
	return err
}

type options struct {
	clock  *clock.Clock
	waiter clock.Waiter
}

// Option customizes Open.
type Option func(*options)

// WithClock shares an existing delay counter instead of one built from the
// board calibration.
func WithClock(c *clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithWaiter replaces the busy-wait delay.
func WithWaiter(w clock.Waiter) Option {
	return func(o *options) { o.waiter = w }
}

func newClock(prof board.Profile) *clock.Clock {
	return clock.New(prof.Calibration.Clock())
}
