// Package periphgpio drives the debug lines through periph.io, which covers
// the SoC GPIO controllers periph's host drivers know about.
package periphgpio

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/board"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line"
)

// Resolver finds a pin by its periph name or GPIO number.
type Resolver func(name string) gpio.PinIO

// Driver is a line.Driver over periph pins.
type Driver struct {
	pins map[line.Signal]gpio.PinIO
}

var _ line.Driver = (*Driver)(nil)

// Open initializes the periph host drivers and resolves every line the
// profile assigns.
func Open(prof board.Profile) (*Driver, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("periphgpio: host init: %w", err)
	}
	for _, f := range state.Failed {
		log.WithField("prefix", "periphgpio").Debugf("driver %s failed: %v", f.D, f.Err)
	}
	return New(prof, gpioreg.ByName)
}

// New resolves the profile's pins with r. It fails if any assigned pin is
// unknown.
func New(prof board.Profile, r Resolver) (*Driver, error) {
	if err := prof.Validate(); err != nil {
		return nil, fmt.Errorf("periphgpio: %w", err)
	}
	d := &Driver{pins: make(map[line.Signal]gpio.PinIO)}
	for sig, n := range prof.Pins() {
		p := r(strconv.Itoa(n))
		if p == nil {
			return nil, fmt.Errorf("periphgpio: %s: no GPIO%d on this host", sig, n)
		}
		d.pins[sig] = p
	}
	log.WithField("prefix", "periphgpio").Debugf("resolved %d lines for %s", len(d.pins), prof.Name)
	return d, nil
}

// Set ignores write errors: pins were validated by Configure, and the
// transport has no way to act on a failure mid-shift.
func (d *Driver) Set(s line.Signal, l line.Level) {
	if p, ok := d.pins[s]; ok {
		_ = p.Out(gpio.Level(l))
	}
}

func (d *Driver) Get(s line.Signal) line.Level {
	if p, ok := d.pins[s]; ok {
		return line.Level(p.Read())
	}
	return line.Low
}

func (d *Driver) Configure(s line.Signal, dir line.Direction) error {
	p, ok := d.pins[s]
	if !ok {
		return fmt.Errorf("periphgpio: %s not assigned", s)
	}
	var err error
	if dir == line.Output {
		err = p.Out(gpio.Low)
	} else {
		err = p.In(gpio.PullNoChange, gpio.NoEdge)
	}
	if err != nil {
		return fmt.Errorf("periphgpio: %s (%s): %w", s, p.Name(), err)
	}
	return nil
}

// Reset floats the pin as an input.
func (d *Driver) Reset(s line.Signal) error {
	p, ok := d.pins[s]
	if !ok {
		return fmt.Errorf("periphgpio: %s not assigned", s)
	}
	if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("periphgpio: reset %s (%s): %w", s, p.Name(), err)
	}
	return nil
}
