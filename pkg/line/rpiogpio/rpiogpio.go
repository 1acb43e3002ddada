// Package rpiogpio drives the debug lines on a Raspberry Pi through direct
// /dev/gpiomem access.
package rpiogpio

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/stianeikeland/go-rpio/v4"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/board"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line"
)

// Driver is a line.Driver over BCM GPIO numbers.
type Driver struct {
	pins map[line.Signal]rpio.Pin
}

var _ line.Driver = (*Driver)(nil)

// Open maps GPIO memory. Close releases it.
func Open(prof board.Profile) (*Driver, error) {
	if err := prof.Validate(); err != nil {
		return nil, fmt.Errorf("rpiogpio: %w", err)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpiogpio: open: %w", err)
	}
	d := &Driver{pins: make(map[line.Signal]rpio.Pin)}
	for sig, n := range prof.Pins() {
		d.pins[sig] = rpio.Pin(n)
	}
	log.WithField("prefix", "rpiogpio").Debugf("mapped %d lines for %s", len(d.pins), prof.Name)
	return d, nil
}

// Close unmaps GPIO memory.
func (d *Driver) Close() error {
	return rpio.Close()
}

func (d *Driver) Set(s line.Signal, l line.Level) {
	p, ok := d.pins[s]
	if !ok {
		return
	}
	if l {
		p.High()
	} else {
		p.Low()
	}
}

func (d *Driver) Get(s line.Signal) line.Level {
	p, ok := d.pins[s]
	if !ok {
		return line.Low
	}
	return p.Read() == rpio.High
}

func (d *Driver) Configure(s line.Signal, dir line.Direction) error {
	p, ok := d.pins[s]
	if !ok {
		return fmt.Errorf("rpiogpio: %s not assigned", s)
	}
	if dir == line.Output {
		p.Output()
	} else {
		p.Input()
	}
	return nil
}

// Reset leaves the pin as an input with pulls off.
func (d *Driver) Reset(s line.Signal) error {
	p, ok := d.pins[s]
	if !ok {
		return fmt.Errorf("rpiogpio: %s not assigned", s)
	}
	p.Input()
	p.PullOff()
	return nil
}
