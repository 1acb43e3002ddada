package jtag

import (
	"strings"
	"testing"
)

func TestDecodeIDCode(t *testing.T) {
	tests := []struct {
		raw     uint32
		version uint8
		part    uint16
		manuf   uint16
		name    string
		device  string
		bank    int
	}{
		{0x4BA00477, 4, 0xBA00, 0x23B, "ARM Ltd", "ARM JTAG-DP", 4},
		{0x06438041, 0, 0x6438, 0x020, "STMicroelectronics", "STM32F303/334", 0},
		{0x0362D093, 0, 0x362D, 0x049, "Xilinx", "", 0},
		{0x41111043, 4, 0x1111, 0x021, "Lattice Semiconductor", "", 0},
	}
	for _, tt := range tests {
		got := DecodeIDCode(tt.raw)
		if got.Version != tt.version || got.PartNumber != tt.part || got.Manufacturer != tt.manuf {
			t.Fatalf("DecodeIDCode(%#08x) = %+v", tt.raw, got)
		}
		if got.ManufName != tt.name || got.Device != tt.device {
			t.Fatalf("DecodeIDCode(%#08x) names = %q/%q, want %q/%q", tt.raw, got.ManufName, got.Device, tt.name, tt.device)
		}
		if got.Bank() != tt.bank {
			t.Fatalf("DecodeIDCode(%#08x).Bank() = %d, want %d", tt.raw, got.Bank(), tt.bank)
		}
		if !got.Valid() {
			t.Fatalf("DecodeIDCode(%#08x) reported invalid", tt.raw)
		}
	}
}

func TestIDCodeValidAndUnknown(t *testing.T) {
	if DecodeIDCode(0x4BA00476).Valid() {
		t.Fatalf("IDCODE with bit 0 clear reported valid")
	}
	if DecodeIDCode(0x000000FF).Valid() {
		t.Fatalf("reserved manufacturer 0x7F reported valid")
	}

	id := DecodeIDCode(0x12345FFF)
	if !strings.HasPrefix(id.ManufName, "Unknown") {
		t.Fatalf("unknown manufacturer named %q", id.ManufName)
	}
	if _, ok := LookupManufacturer(0x7FF); ok {
		t.Fatalf("LookupManufacturer(0x7FF) reported known")
	}
	if s := DecodeIDCode(0x4BA00477).String(); !strings.Contains(s, "0x4BA00477") || !strings.Contains(s, "ARM JTAG-DP") {
		t.Fatalf("String() = %q", s)
	}
}
