// Package tap models the IEEE 1149.1 TAP controller state diagram and the
// fixed TMS patterns the probe sends to it.
package tap

import (
	"fmt"
)

// State represents one of the 16 defined IEEE 1149.1 TAP controller states.
type State uint8

const (
	StateTestLogicReset State = iota
	StateRunTestIdle
	StateSelectDRScan
	StateCaptureDR
	StateShiftDR
	StateExit1DR
	StatePauseDR
	StateExit2DR
	StateUpdateDR
	StateSelectIRScan
	StateCaptureIR
	StateShiftIR
	StateExit1IR
	StatePauseIR
	StateExit2IR
	StateUpdateIR

	numStates
)

// TMS patterns, shifted least-significant bit first.
const (
	// SoftResetTMS clocks five TMS=1 edges into Test-Logic-Reset, then one
	// TMS=0 edge into Run-Test/Idle.
	SoftResetTMS   uint32 = 0x1F
	SoftResetTicks        = 6

	// SWDToJTAG is the SWJ-DP select sequence that switches a port from SWD
	// to JTAG. It must follow a line reset.
	SWDToJTAG      uint32 = 0xE73C
	SWDToJTAGTicks        = 16

	// JTAGToSWD is the reverse switch.
	JTAGToSWD      uint32 = 0xE79E
	JTAGToSWDTicks        = 16

	// LineResetTicks is the minimum run of TMS/SWDIO=1 clocks that resets an
	// SWD line and guarantees Test-Logic-Reset on a JTAG TAP.
	LineResetTicks = 50
)

var stateNames = [numStates]string{
	StateTestLogicReset: "TestLogicReset",
	StateRunTestIdle:    "RunTestIdle",
	StateSelectDRScan:   "SelectDRScan",
	StateCaptureDR:      "CaptureDR",
	StateShiftDR:        "ShiftDR",
	StateExit1DR:        "Exit1DR",
	StatePauseDR:        "PauseDR",
	StateExit2DR:        "Exit2DR",
	StateUpdateDR:       "UpdateDR",
	StateSelectIRScan:   "SelectIRScan",
	StateCaptureIR:      "CaptureIR",
	StateShiftIR:        "ShiftIR",
	StateExit1IR:        "Exit1IR",
	StatePauseIR:        "PauseIR",
	StateExit2IR:        "Exit2IR",
	StateUpdateIR:       "UpdateIR",
}

func (s State) String() string {
	if s < numStates {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Valid reports whether s is one of the 16 controller states.
func (s State) Valid() bool {
	return s < numStates
}

// Sequence captures the TMS drive pattern and the sequence of states that result
// from applying that pattern to the TAP controller.
type Sequence struct {
	TMS    []bool
	States []State
}

// Bits packs the TMS pattern into a word, first clock in bit 0. Paths in the
// TAP diagram are at most 8 edges long, so they always fit.
func (s Sequence) Bits() (uint32, int) {
	var v uint32
	for i, bit := range s.TMS {
		if bit {
			v |= 1 << uint(i)
		}
	}
	return v, len(s.TMS)
}

// transitions[state] = {next on TMS=0, next on TMS=1}
var transitions = [numStates][2]State{
	StateTestLogicReset: {StateRunTestIdle, StateTestLogicReset},
	StateRunTestIdle:    {StateRunTestIdle, StateSelectDRScan},
	StateSelectDRScan:   {StateCaptureDR, StateSelectIRScan},
	StateCaptureDR:      {StateShiftDR, StateExit1DR},
	StateShiftDR:        {StateShiftDR, StateExit1DR},
	StateExit1DR:        {StatePauseDR, StateUpdateDR},
	StatePauseDR:        {StatePauseDR, StateExit2DR},
	StateExit2DR:        {StateShiftDR, StateUpdateDR},
	StateUpdateDR:       {StateRunTestIdle, StateSelectDRScan},
	StateSelectIRScan:   {StateCaptureIR, StateTestLogicReset},
	StateCaptureIR:      {StateShiftIR, StateExit1IR},
	StateShiftIR:        {StateShiftIR, StateExit1IR},
	StateExit1IR:        {StatePauseIR, StateUpdateIR},
	StatePauseIR:        {StatePauseIR, StateExit2IR},
	StateExit2IR:        {StateShiftIR, StateUpdateIR},
	StateUpdateIR:       {StateRunTestIdle, StateSelectDRScan},
}

// NextState returns the next TAP state after clocking TCK with the provided TMS
// value. It panics if an invalid state is supplied, which should never happen
// when interacting through the exported API.
func NextState(current State, tms bool) State {
	if !current.Valid() {
		panic(fmt.Sprintf("tap: unhandled state %d", current))
	}
	if tms {
		return transitions[current][1]
	}
	return transitions[current][0]
}

// Walk applies ticks TMS bits, LSB first, starting from s.
func Walk(s State, bits uint32, ticks int) State {
	for i := 0; i < ticks; i++ {
		s = NextState(s, bits&(1<<uint(i)) != 0)
	}
	return s
}

// StateMachine tracks the TAP controller state locally. It does not perform any
// I/O; instead it produces the sequences of TMS bits needed so the transport
// can be instructed separately.
type StateMachine struct {
	state State
}

// NewStateMachine creates a TAP state machine initialized to Test-Logic-Reset.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateTestLogicReset}
}

// State reports the current TAP state tracked by the machine.
func (m *StateMachine) State() State {
	return m.state
}

// Force overrides the tracked state after an operation the machine did not see.
func (m *StateMachine) Force(s State) {
	m.state = s
}

// Clock advances the machine one TCK cycle with the provided TMS bit and
// returns the new state.
func (m *StateMachine) Clock(tms bool) State {
	m.state = NextState(m.state, tms)
	return m.state
}

// Reset clocks five TMS=1 cycles, which reach Test-Logic-Reset from any
// state. The sequence is returned so it can be forwarded to the transport.
func (m *StateMachine) Reset() Sequence {
	return m.apply(SoftResetTMS, SoftResetTicks-1)
}

// GoTo moves the machine along the shortest path to target and returns the
// TMS pattern for that path.
func (m *StateMachine) GoTo(target State) (Sequence, error) {
	path, err := computePath(m.state, target)
	if err != nil {
		return Sequence{}, err
	}
	m.state = target
	return path, nil
}

func (m *StateMachine) apply(bits uint32, ticks int) Sequence {
	seq := Sequence{States: []State{m.state}}
	for i := 0; i < ticks; i++ {
		tms := bits&(1<<uint(i)) != 0
		seq.TMS = append(seq.TMS, tms)
		seq.States = append(seq.States, m.Clock(tms))
	}
	return seq
}

// computePath runs a breadth-first search over the state diagram, keeping
// the edge each state was first reached by, and walks those edges back from
// the target.
func computePath(from, to State) (Sequence, error) {
	if !from.Valid() {
		return Sequence{}, fmt.Errorf("tap: invalid start state %d", from)
	}
	if !to.Valid() {
		return Sequence{}, fmt.Errorf("tap: invalid target state %d", to)
	}

	type edge struct {
		prev State
		tms  bool
		seen bool
	}
	var via [numStates]edge
	via[from].seen = true

	queue := []State{from}
	for len(queue) > 0 && !via[to].seen {
		cur := queue[0]
		queue = queue[1:]
		for _, tms := range [2]bool{false, true} {
			next := NextState(cur, tms)
			if via[next].seen {
				continue
			}
			via[next] = edge{prev: cur, tms: tms, seen: true}
			queue = append(queue, next)
		}
	}
	if !via[to].seen {
		return Sequence{}, fmt.Errorf("tap: no path from %s to %s", from, to)
	}

	var rev []bool
	for s := to; s != from; s = via[s].prev {
		rev = append(rev, via[s].tms)
	}
	seq := Sequence{States: []State{from}}
	for i := len(rev) - 1; i >= 0; i-- {
		seq.TMS = append(seq.TMS, rev[i])
		seq.States = append(seq.States, NextState(seq.States[len(seq.States)-1], rev[i]))
	}
	return seq, nil
}
