package tap

// Mode is the protocol an SWJ-DP is currently listening to.
type Mode uint8

const (
	ModeJTAG Mode = iota
	ModeSWD
)

func (m Mode) String() string {
	if m == ModeSWD {
		return "SWD"
	}
	return "JTAG"
}

// ARM JTAG-DP instructions the simulator implements; any other IR value
// selects a 1-bit register like BYPASS.
const (
	IRLengthJTAGDP        = 4
	InstrIDCODE    uint32 = 0xE
	InstrBYPASS    uint32 = 0xF
)

// SWJDP simulates the target side of a dual-protocol debug port on a
// bit-banged cable. It follows TCK edges: the TAP acts and transitions on the
// rising edge, and TDO changes on the falling edge. In SWD mode the JTAG TAP
// is idle and TDO stays low; the only thing watched is the TMS/SWDIO stream
// for a line reset followed by a select sequence.
type SWJDP struct {
	IDCode uint32

	mode Mode
	sm   *StateMachine
	ir   uint32

	shift    uint64
	shiftLen int
	tdo      bool

	ones      int
	capturing bool
	captured  uint32
	capturedN int
	switches  int
}

// NewSWJDP returns a port holding idcode that starts in the given mode.
func NewSWJDP(idcode uint32, start Mode) *SWJDP {
	return &SWJDP{
		IDCode: idcode,
		mode:   start,
		sm:     NewStateMachine(),
		ir:     InstrIDCODE,
	}
}

// Mode reports the selected protocol.
func (d *SWJDP) Mode() Mode { return d.mode }

// State reports the JTAG TAP state.
func (d *SWJDP) State() State { return d.sm.State() }

// IR reports the active instruction.
func (d *SWJDP) IR() uint32 { return d.ir }

// Switches counts protocol changes since construction.
func (d *SWJDP) Switches() int { return d.switches }

// Rise handles a TCK rising edge.
func (d *SWJDP) Rise(tms, tdi bool) {
	d.watchSelect(tms)
	if d.mode != ModeJTAG {
		return
	}

	switch d.sm.State() {
	case StateTestLogicReset:
		d.ir = InstrIDCODE
	case StateCaptureDR:
		if d.ir == InstrIDCODE {
			d.load(uint64(d.IDCode), 32)
		} else {
			d.load(0, 1)
		}
	case StateCaptureIR:
		d.load(0x1, IRLengthJTAGDP)
	case StateShiftDR, StateShiftIR:
		d.shift >>= 1
		if tdi {
			d.shift |= 1 << uint(d.shiftLen-1)
		}
	case StateUpdateIR:
		d.ir = uint32(d.shift) & (1<<IRLengthJTAGDP - 1)
	}
	d.sm.Clock(tms)
}

// Fall handles a TCK falling edge.
func (d *SWJDP) Fall() {
	s := d.sm.State()
	d.tdo = d.mode == ModeJTAG && (s == StateShiftDR || s == StateShiftIR) && d.shift&1 != 0
}

// TDO reports the level driven toward the probe.
func (d *SWJDP) TDO() bool { return d.tdo }

func (d *SWJDP) load(v uint64, n int) {
	d.shift = v
	d.shiftLen = n
}

// watchSelect matches a 16-bit select sequence that starts on the first
// TMS=0 after at least LineResetTicks TMS=1 clocks.
func (d *SWJDP) watchSelect(tms bool) {
	if d.capturing {
		if tms {
			d.captured |= 1 << uint(d.capturedN)
		}
		d.capturedN++
		if d.capturedN == SWDToJTAGTicks {
			d.capturing = false
			d.selectMode(d.captured)
		}
	} else if !tms && d.ones >= LineResetTicks {
		d.capturing = true
		d.captured = 0
		d.capturedN = 1
	}

	if tms {
		d.ones++
	} else {
		d.ones = 0
	}
}

func (d *SWJDP) selectMode(seq uint32) {
	switch {
	case d.mode == ModeSWD && seq == SWDToJTAG:
		d.mode = ModeJTAG
		d.sm.Force(StateTestLogicReset)
		d.ir = InstrIDCODE
		d.tdo = false
		d.switches++
	case d.mode == ModeJTAG && seq == JTAGToSWD:
		d.mode = ModeSWD
		d.tdo = false
		d.switches++
	}
}
