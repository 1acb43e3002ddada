package jtag

import "fmt"

// IDCodeInfo is a decoded IEEE 1149.1 IDCODE.
type IDCodeInfo struct {
	Raw          uint32
	Version      uint8  // [31:28]
	PartNumber   uint16 // [27:12]
	Manufacturer uint16 // [11:1], JEP106 bank<<7 | id
	ManufName    string
	Device       string // empty when the part is not known
}

// Manufacturer is a JEP106 entry as it appears in an IDCODE.
type Manufacturer struct {
	Code         uint16
	Name         string
	Abbreviation string
}

// manufacturers is keyed by IDCODE bits [11:1]: continuation count in the
// top four bits, the 7-bit id without parity below.
var manufacturers = map[uint16]Manufacturer{
	0x001: {Code: 0x001, Name: "AMD", Abbreviation: "AMD"},
	0x004: {Code: 0x004, Name: "Fujitsu", Abbreviation: "Fujitsu"},
	0x009: {Code: 0x009, Name: "Intel", Abbreviation: "Intel"},
	0x00E: {Code: 0x00E, Name: "Freescale (Motorola)", Abbreviation: "Freescale"},
	0x015: {Code: 0x015, Name: "NXP (Philips)", Abbreviation: "NXP"},
	0x017: {Code: 0x017, Name: "Texas Instruments", Abbreviation: "TI"},
	0x018: {Code: 0x018, Name: "Toshiba", Abbreviation: "Toshiba"},
	0x01F: {Code: 0x01F, Name: "Atmel", Abbreviation: "Atmel"},
	0x020: {Code: 0x020, Name: "STMicroelectronics", Abbreviation: "STM"},
	0x021: {Code: 0x021, Name: "Lattice Semiconductor", Abbreviation: "Lattice"},
	0x049: {Code: 0x049, Name: "Xilinx", Abbreviation: "Xilinx"},
	0x065: {Code: 0x065, Name: "Analog Devices", Abbreviation: "ADI"},
	0x06E: {Code: 0x06E, Name: "Altera", Abbreviation: "Altera"},
	0x144: {Code: 0x144, Name: "Nordic Semiconductor", Abbreviation: "Nordic"},
	0x23B: {Code: 0x23B, Name: "ARM Ltd", Abbreviation: "ARM"},
	0x3D1: {Code: 0x3D1, Name: "GigaDevice", Abbreviation: "GD"},
	0x489: {Code: 0x489, Name: "SiFive", Abbreviation: "SiFive"},
	0x656: {Code: 0x656, Name: "Espressif", Abbreviation: "Espressif"},
}

type partKey struct {
	manufacturer uint16
	part         uint16
}

var parts = map[partKey]string{
	{0x23B, 0xBA00}: "ARM JTAG-DP",
	{0x23B, 0xBA01}: "ARM SW-DP",
	{0x020, 0x6413}: "STM32F405/407",
	{0x020, 0x6438}: "STM32F303/334",
}

// LookupManufacturer returns the JEP106 entry for code. Unknown codes get a
// placeholder name and false.
func LookupManufacturer(code uint16) (Manufacturer, bool) {
	m, ok := manufacturers[code]
	if !ok {
		return Manufacturer{
			Code:         code,
			Name:         fmt.Sprintf("Unknown (0x%03X)", code),
			Abbreviation: "Unknown",
		}, false
	}
	return m, true
}

// DecodeIDCode splits a 32-bit IDCODE into its fields.
func DecodeIDCode(raw uint32) IDCodeInfo {
	id := IDCodeInfo{
		Raw:          raw,
		Version:      uint8((raw >> 28) & 0xF),
		PartNumber:   uint16((raw >> 12) & 0xFFFF),
		Manufacturer: uint16((raw >> 1) & 0x7FF),
	}
	m, _ := LookupManufacturer(id.Manufacturer)
	id.ManufName = m.Name
	id.Device = parts[partKey{id.Manufacturer, id.PartNumber}]
	return id
}

// Valid reports whether raw looks like an IDCODE: bit 0 set and a
// manufacturer id other than the reserved 0x7F.
func (i IDCodeInfo) Valid() bool {
	return i.Raw&1 == 1 && i.Manufacturer&0x7F != 0x7F
}

// Bank is the JEP106 continuation count.
func (i IDCodeInfo) Bank() int {
	return int(i.Manufacturer >> 7)
}

// String returns a formatted string representation of the IDCODE.
func (i IDCodeInfo) String() string {
	s := fmt.Sprintf("0x%08X (Mfg: %s, Part: 0x%04X, Ver: %d)",
		i.Raw, i.ManufName, i.PartNumber, i.Version)
	if i.Device != "" {
		s += " " + i.Device
	}
	return s
}
