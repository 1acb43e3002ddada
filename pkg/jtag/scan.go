package jtag

import (
	"bytes"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/bitseq"
)

// ChainEntry is one device found by ScanIDCodes, nearest TDO first.
type ChainEntry struct {
	Position int
	Bypass   bool // device has no IDCODE register and selected BYPASS
	ID       IDCodeInfo
}

func (e ChainEntry) String() string {
	if e.Bypass {
		return fmt.Sprintf("#%d BYPASS", e.Position)
	}
	return fmt.Sprintf("#%d %s", e.Position, e.ID)
}

// ScanIDCodes resets the TAP and shifts ones through DR. After reset every
// device has IDCODE or BYPASS selected, so TDO carries 32-bit words that
// start with a one and single zero bits, followed by the ones shifted in.
func ScanIDCodes(a Adapter, limit int) ([]ChainEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("jtag: max devices must be positive, got %d", limit)
	}
	if err := a.ResetTAP(false); err != nil && !errors.Is(err, ErrNotImplemented) {
		return nil, fmt.Errorf("jtag: reset: %w", err)
	}

	bits := (limit + 1) * 32
	tdo, err := a.ShiftDR(nil, bytes.Repeat([]byte{0xFF}, bitseq.ByteLen(bits)), bits)
	if err != nil {
		return nil, fmt.Errorf("jtag: shift DR: %w", err)
	}
	if len(tdo) < bitseq.ByteLen(bits) {
		return nil, fmt.Errorf("jtag: adapter returned %d bytes for %d bits", len(tdo), bits)
	}
	stream := bitseq.Unpack(tdo, bits)

	var entries []ChainEntry
	for pos := 0; ; {
		if pos+32 > bits {
			return nil, ErrChainTooLong
		}
		if !stream[pos] {
			if len(entries) == limit {
				return nil, ErrChainTooLong
			}
			entries = append(entries, ChainEntry{Position: len(entries), Bypass: true})
			pos++
			continue
		}
		word := bitseq.ToUint32(stream[pos : pos+32])
		if word == 0xFFFFFFFF {
			break
		}
		if len(entries) == limit {
			return nil, ErrChainTooLong
		}
		entries = append(entries, ChainEntry{Position: len(entries), ID: DecodeIDCode(word)})
		pos += 32
	}
	if len(entries) == 0 {
		return nil, ErrNoDevices
	}
	log.WithField("prefix", "jtag").Debugf("scan found %d device(s)", len(entries))
	return entries, nil
}
