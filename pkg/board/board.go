// Package board describes probe hardware variants as data: which GPIO drives
// each debug signal and which optional lines and features a board carries.
package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"periph.io/x/conn/v3/physic"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/clock"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line"
)

// NoPin marks an optional line the board does not have.
const NoPin = -1

// DefaultTRSTPulse is the TRST low time in delay iterations.
const DefaultTRSTPulse = 10000

var (
	ErrMissingPin     = errors.New("board: required pin not assigned")
	ErrDuplicatePin   = errors.New("board: pin assigned to more than one signal")
	ErrUnknownProfile = errors.New("board: unknown profile")
)

// Calibration relates the delay counter to wall-clock time on a board: Base
// is the bit rate the bit-banging loop reaches with a zero counter, Step the
// cost of one delay iteration.
type Calibration struct {
	BaseHz int64         `json:"base_hz"`
	Step   time.Duration `json:"step_ns"`
}

// Clock converts the calibration for the delay counter.
func (c Calibration) Clock() clock.Calibration {
	return clock.Calibration{Base: physic.Frequency(c.BaseHz) * physic.Hertz, Step: c.Step}
}

// Profile is one hardware variant.
type Profile struct {
	Name string `json:"name"`

	TDI int `json:"tdi"`
	TDO int `json:"tdo"`
	TMS int `json:"tms"`
	TCK int `json:"tck"`

	TRST      int `json:"trst"`
	TMSDir    int `json:"tms_dir"`
	TCKTDIDir int `json:"tck_tdi_dir"`

	// Level that makes each level shifter pass probe-to-target.
	TMSDirLevel    bool `json:"tms_dir_level"`
	TCKTDIDirLevel bool `json:"tck_tdi_dir_level"`

	// TRSTPulseEnabled gates the hardware reset pulse; early hardware
	// revisions are the only ones with TRST routed.
	TRSTPulseEnabled bool   `json:"trst_pulse"`
	TRSTPulse        uint32 `json:"trst_pulse_iterations"`

	VoltageSense bool `json:"voltage_sense"`

	Calibration Calibration `json:"calibration"`
}

// Blank returns a profile with every optional line absent and default
// timing, the base that JSON profiles are decoded over.
func Blank(name string) Profile {
	return Profile{
		Name:        name,
		TDI:         NoPin,
		TDO:         NoPin,
		TMS:         NoPin,
		TCK:         NoPin,
		TRST:        NoPin,
		TMSDir:      NoPin,
		TCKTDIDir:   NoPin,
		TMSDirLevel: true,
		TRSTPulse:   DefaultTRSTPulse,
		Calibration: Calibration{BaseHz: 4_000_000, Step: 25 * time.Nanosecond},
	}
}

// Has reports whether the board carries a line for s.
func (p Profile) Has(s line.Signal) bool {
	return p.pin(s) != NoPin
}

// Pin returns the GPIO number for s, or NoPin.
func (p Profile) Pin(s line.Signal) int {
	return p.pin(s)
}

func (p Profile) pin(s line.Signal) int {
	switch s {
	case line.TDI:
		return p.TDI
	case line.TDO:
		return p.TDO
	case line.TMS:
		return p.TMS
	case line.TCK:
		return p.TCK
	case line.TRST:
		return p.TRST
	case line.TMSDir:
		return p.TMSDir
	case line.TCKTDIDir:
		return p.TCKTDIDir
	}
	return NoPin
}

// Pins maps every present signal to its GPIO number.
func (p Profile) Pins() map[line.Signal]int {
	out := make(map[line.Signal]int)
	for _, s := range []line.Signal{line.TDI, line.TDO, line.TMS, line.TCK, line.TRST, line.TMSDir, line.TCKTDIDir} {
		if n := p.pin(s); n != NoPin {
			out[s] = n
		}
	}
	return out
}

// Validate checks that the four JTAG lines are assigned and that no GPIO is
// shared between signals.
func (p Profile) Validate() error {
	for _, s := range []line.Signal{line.TDI, line.TDO, line.TMS, line.TCK} {
		if p.pin(s) < 0 {
			return fmt.Errorf("%w: %s on %q", ErrMissingPin, s, p.Name)
		}
	}
	owner := make(map[int]line.Signal)
	pins := p.Pins()
	signals := make([]line.Signal, 0, len(pins))
	for s := range pins {
		signals = append(signals, s)
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i] < signals[j] })
	for _, s := range signals {
		n := pins[s]
		if prev, ok := owner[n]; ok {
			return fmt.Errorf("%w: GPIO%d used by %s and %s", ErrDuplicatePin, n, prev, s)
		}
		owner[n] = s
	}
	return nil
}

var builtins = map[string]Profile{}

func init() {
	fp := Blank("farpatch")
	fp.TDI, fp.TDO, fp.TMS, fp.TCK = 13, 15, 12, 14
	fp.TMSDir, fp.TCKTDIDir = 2, 4
	fp.TMSDirLevel, fp.TCKTDIDirLevel = true, false
	fp.VoltageSense = true
	fp.Calibration = Calibration{BaseHz: 8_000_000, Step: 12 * time.Nanosecond}
	register(fp)

	rpi := Blank("rpi")
	rpi.TDI, rpi.TDO, rpi.TMS, rpi.TCK, rpi.TRST = 10, 9, 25, 11, 7
	rpi.TRSTPulseEnabled = true
	rpi.Calibration = Calibration{BaseHz: 1_000_000, Step: 50 * time.Nanosecond}
	register(rpi)

	sim := Blank("sim")
	sim.TDI, sim.TDO, sim.TMS, sim.TCK = 0, 1, 2, 3
	register(sim)
}

func register(p Profile) {
	builtins[p.Name] = p
}

// Lookup returns a builtin profile.
func Lookup(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Names lists builtin profiles in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load decodes a JSON profile. Keys that are omitted keep Blank's values, so
// an absent optional line stays absent. The result is validated.
func Load(r io.Reader) (Profile, error) {
	p := Blank("custom")
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("board: decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	log.WithField("board", p.Name).Debugf("loaded profile %v", p.Pins())
	return p, nil
}

// LoadFile reads a JSON profile from disk.
func LoadFile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("board: open profile: %w", err)
	}
	defer f.Close()
	return Load(f)
}
