// Package jtag exposes register-level JTAG access (instruction and data
// register shifts, TAP reset, TCK speed) and the IDCODE chain scan built on it.
package jtag

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/bitseq"
)

// AdapterInfo describes what an adapter reports about itself.
type AdapterInfo struct {
	Name         string
	Vendor       string
	Model        string
	SerialNumber string
	Firmware     string
	MinFrequency int // Hertz
	MaxFrequency int // Hertz
	SupportsSRST bool
	SupportsTRST bool
	Notes        string
}

// Adapter abstracts a JTAG Test Access Port adapter. ShiftIR and ShiftDR
// take the TMS stream bit for bit when tms is given; adapters that track the
// TAP state themselves accept a nil tms and handle navigation.
type Adapter interface {
	Info() (AdapterInfo, error)
	ShiftIR(tms, tdi []byte, bits int) (tdo []byte, err error)
	ShiftDR(tms, tdi []byte, bits int) (tdo []byte, err error)
	ResetTAP(hard bool) error
	SetSpeed(hz int) error
}

var (
	// ErrNotImplemented marks a capability the backend does not have.
	ErrNotImplemented = errors.New("jtag: not implemented")
	// ErrNoDevices is returned by ScanIDCodes when TDO returns only ones.
	ErrNoDevices = errors.New("jtag: no devices on chain")
	// ErrChainTooLong is returned by ScanIDCodes when no end marker shows up
	// within the requested device count.
	ErrChainTooLong = errors.New("jtag: chain longer than expected")
)

// ValidateShiftBuffers checks that any TMS or TDI buffer given covers bits
// and returns the byte length a buffer of bits needs. Empty buffers are
// allowed: a missing TDI shifts zeros and a missing TMS asks the adapter to
// navigate itself.
func ValidateShiftBuffers(tms, tdi []byte, bits int) (int, error) {
	if bits <= 0 {
		return 0, fmt.Errorf("jtag: bits must be positive, got %d", bits)
	}
	required := bitseq.ByteLen(bits)
	for _, b := range []struct {
		name string
		buf  []byte
	}{{"tms", tms}, {"tdi", tdi}} {
		if len(b.buf) > 0 && len(b.buf) < required {
			return 0, fmt.Errorf("jtag: %s buffer too short, need %d bytes for %d bits", b.name, required, bits)
		}
	}
	return required, nil
}
