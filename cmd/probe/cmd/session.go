package cmd

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/board"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/clock"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/jtagtap"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line/periphgpio"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line/rpiogpio"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/tap"
)

var (
	// Simulator target
	simIDCode string
	simSWD    bool
)

// session is an opened probe plus whatever the driver needs released.
type session struct {
	probe *jtagtap.Probe
	sim   *line.Sim
	dp    *tap.SWJDP
	close func() error
}

func (s *session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&simIDCode, "sim-idcode", "0x4BA00477", "simulator: IDCODE of the simulated debug port")
	rootCmd.PersistentFlags().BoolVar(&simSWD, "sim-swd", true, "simulator: debug port starts in SWD mode")
}

func loadProfile() (board.Profile, error) {
	if boardFile != "" {
		return board.LoadFile(boardFile)
	}
	return board.Lookup(boardName)
}

func parseFrequency(s string) (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(s); err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", s, err)
	}
	return f, nil
}

func parseIDCode(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid IDCODE %q (expected hex like 0x4BA00477)", s)
	}
	return uint32(v), nil
}

// openSession opens the line driver and runs mode entry. With loopback the
// simulator wires TDI to TDO instead of attaching a debug port.
func openSession(loopback bool) (*session, error) {
	prof, err := loadProfile()
	if err != nil {
		return nil, err
	}

	clk := clock.New(prof.Calibration.Clock())
	if frequency != "" {
		f, err := parseFrequency(frequency)
		if err != nil {
			return nil, err
		}
		if err := clk.SetFrequency(f); err != nil {
			return nil, err
		}
	}

	s := &session{}
	var drv line.Driver
	switch driver {
	case "sim", "simulator":
		if loopback {
			s.sim = line.NewLoopback()
		} else {
			id, err := parseIDCode(simIDCode)
			if err != nil {
				return nil, err
			}
			start := tap.ModeJTAG
			if simSWD {
				start = tap.ModeSWD
			}
			s.dp = tap.NewSWJDP(id, start)
			s.sim = line.NewSim()
			s.sim.Target = s.dp
		}
		drv = s.sim
	case "periph":
		d, err := periphgpio.Open(prof)
		if err != nil {
			return nil, err
		}
		drv = d
	case "rpio":
		d, err := rpiogpio.Open(prof)
		if err != nil {
			return nil, err
		}
		drv = d
		s.close = d.Close
	default:
		return nil, fmt.Errorf("unknown driver: %s (supported: sim, periph, rpio)", driver)
	}

	log.WithField("prefix", "probe").Debugf("board %s, driver %s, TCK %s", prof.Name, driver, clk.Frequency())
	opts := []jtagtap.Option{jtagtap.WithClock(clk)}
	if w := waiterFor(driver, prof); w != nil {
		opts = append(opts, jtagtap.WithWaiter(w))
	}
	p, err := jtagtap.Open(drv, prof, opts...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("mode entry failed: %w", err)
	}
	s.probe = p
	return s, nil
}

// waiterFor picks the half-cycle delay for a driver. Host GPIO backends spin
// on the wall clock for the board's calibrated step; nil keeps the engine's
// busy loop.
func waiterFor(driver string, prof board.Profile) clock.Waiter {
	switch driver {
	case "periph", "rpio":
		return clock.SpinWaiter{Step: prof.Calibration.Step}
	}
	return nil
}
