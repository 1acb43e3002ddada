package jtag

import "fmt"

// ShiftRegion identifies whether a shift operation targets the instruction or
// data register.
type ShiftRegion uint8

const (
	ShiftRegionIR ShiftRegion = iota
	ShiftRegionDR
)

func (r ShiftRegion) String() string {
	if r == ShiftRegionIR {
		return "IR"
	}
	return "DR"
}

// ShiftHook allows the simulator to emulate device-specific TDO behavior.
type ShiftHook func(region ShiftRegion, tms, tdi []byte, bits int) ([]byte, error)

// ShiftOp captures one shift invocation for inspection within tests.
type ShiftOp struct {
	Region ShiftRegion
	TMS    []byte
	TDI    []byte
	Bits   int
}

// SimAdapter is an in-memory adapter for exercising code above the Adapter
// interface without a TAP. It records every shift and can provide TDO data
// via OnShift.
type SimAdapter struct {
	InfoData AdapterInfo
	SpeedHz  int

	OnShift ShiftHook

	shifts    []ShiftOp
	resets    int
	hardReset int
}

// NewSimAdapter constructs a simulator configured with the provided AdapterInfo.
func NewSimAdapter(info AdapterInfo) *SimAdapter {
	return &SimAdapter{InfoData: info}
}

// LastShift returns a copy of the most recent shift request.
func (s *SimAdapter) LastShift() ShiftOp {
	if len(s.shifts) == 0 {
		return ShiftOp{}
	}
	return s.shifts[len(s.shifts)-1]
}

// Shifts returns every shift seen so far, oldest first.
func (s *SimAdapter) Shifts() []ShiftOp {
	return append([]ShiftOp(nil), s.shifts...)
}

// ResetCounts reports how many resets have been requested (soft as total,
// hardReset as subset).
func (s *SimAdapter) ResetCounts() (soft, hard int) {
	return s.resets, s.hardReset
}

func (s *SimAdapter) Info() (AdapterInfo, error) {
	return s.InfoData, nil
}

func (s *SimAdapter) ShiftIR(tms, tdi []byte, bits int) ([]byte, error) {
	return s.shift(ShiftRegionIR, tms, tdi, bits)
}

func (s *SimAdapter) ShiftDR(tms, tdi []byte, bits int) ([]byte, error) {
	return s.shift(ShiftRegionDR, tms, tdi, bits)
}

func (s *SimAdapter) ResetTAP(hard bool) error {
	s.resets++
	if hard {
		s.hardReset++
	}
	return nil
}

func (s *SimAdapter) SetSpeed(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("jtag: invalid speed %dHz", hz)
	}
	s.SpeedHz = hz
	return nil
}

func (s *SimAdapter) shift(region ShiftRegion, tms, tdi []byte, bits int) ([]byte, error) {
	required, err := ValidateShiftBuffers(tms, tdi, bits)
	if err != nil {
		return nil, err
	}

	s.shifts = append(s.shifts, ShiftOp{
		Region: region,
		TMS:    append([]byte(nil), tms...),
		TDI:    append([]byte(nil), tdi...),
		Bits:   bits,
	})

	if s.OnShift != nil {
		return s.OnShift(region, tms, tdi, bits)
	}

	// Default: echo TDI to TDO to keep tests predictable.
	tdo := make([]byte, required)
	copy(tdo, tdi)
	return tdo, nil
}

// ChainHook makes DR shifts behave like a chain in IDCODE reset state: each
// nonzero id contributes its 32 bits, a zero id a single BYPASS bit, and TDI
// follows after the last device. IR shifts return zeros.
func ChainHook(ids ...uint32) ShiftHook {
	return func(region ShiftRegion, _, tdi []byte, bits int) ([]byte, error) {
		tdo := make([]byte, (bits+7)/8)
		if region != ShiftRegionDR {
			return tdo, nil
		}
		var prefix []bool
		for _, id := range ids {
			if id == 0 {
				prefix = append(prefix, false)
				continue
			}
			for i := 0; i < 32; i++ {
				prefix = append(prefix, id&(1<<uint(i)) != 0)
			}
		}
		for i := 0; i < bits; i++ {
			var bit bool
			if i < len(prefix) {
				bit = prefix[i]
			} else if j := i - len(prefix); len(tdi) > 0 {
				bit = tdi[j/8]&(1<<uint(j%8)) != 0
			}
			if bit {
				tdo[i/8] |= 1 << uint(i%8)
			}
		}
		return tdo, nil
	}
}
