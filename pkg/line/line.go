// Package line defines the GPIO capability the JTAG transport drives: boolean
// set/get on a small fixed set of named signals, plus startup-time direction
// configuration.
package line

import "fmt"

// Signal names one of the probe's debug port lines.
type Signal uint8

const (
	TDI Signal = iota
	TDO
	TMS
	TCK
	// TRST is the optional active-low test reset.
	TRST
	// TMSDir selects the TMS/SWDIO level shifter direction.
	TMSDir
	// TCKTDIDir selects the TCK/TDI level shifter direction.
	TCKTDIDir
)

var signalNames = map[Signal]string{
	TDI:       "TDI",
	TDO:       "TDO",
	TMS:       "TMS",
	TCK:       "TCK",
	TRST:      "TRST",
	TMSDir:    "TMS_DIR",
	TCKTDIDir: "TCK_TDI_DIR",
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Signal(%d)", s)
}

// Level is a logic level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Direction is a line's drive direction.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Driver is the Line Driver collaborator. Set and Get sit on the bit-banging
// hot path and cannot fail; a broken connection shows up as wrong bits.
// Configure and Reset are startup operations and may fail.
type Driver interface {
	Set(s Signal, l Level)
	Get(s Signal) Level
	Configure(s Signal, d Direction) error
	// Reset returns the line to its hardware-default, tri-stated condition.
	Reset(s Signal) error
}
