package cart

import (
	"fmt"
	"strconv"
)

// The cartridge header occupies 0x100-0x14F in the ROM address space.
// Operations read exactly this range; ParseHeader takes the 0x50-byte block.
const (
	HeaderStart  = 0x100
	HeaderLength = 0x50
)

// ROM banks are 16 KiB; save RAM banks are 8 KiB except for the MBC2's
// internal 512-byte RAM.
const (
	ROMBankSize = 0x4000
	RAMBankSize = 0x2000
	mbc2RAMSize = 512
)

// MBCKind is the cartridge's memory-bank-controller family, resolved once
// from the header type code. It selects the bank-switch algorithm and the
// save-RAM unlock sequence.
type MBCKind int

const (
	MBCNone MBCKind = iota
	MBC1
	MBC2
	MBCOther
)

func (k MBCKind) String() string {
	switch k {
	case MBCNone:
		return "none"
	case MBC1:
		return "MBC1"
	case MBC2:
		return "MBC2"
	default:
		return "other"
	}
}

// cartridge type code (header offset 0x147) -> human-readable name.
// Source: GB CPU Manual.
var cartTypeNames = map[byte]string{
	0x00: "ROM ONLY",
	0x01: "ROM+MBC1",
	0x02: "ROM+MBC1+RAM",
	0x03: "ROM+MBC1+RAM+BATT",
	0x05: "ROM+MBC2",
	0x06: "ROM+MBC2+BATTERY",
	0x08: "ROM+RAM",
	0x09: "ROM+RAM+BATTERY",
	0x0B: "ROM+MMM01",
	0x0C: "ROM+MMM01+SRAM",
	0x0D: "ROM+MMM01+SRAM+BATT",
	0x0F: "ROM+MBC3+TIMER+BATT",
	0x10: "ROM+MBC3+TIMER+RAM+BATT",
	0x11: "ROM+MBC3",
	0x12: "ROM+MBC3+RAM",
	0x13: "ROM+MBC3+RAM+BATT",
	0x19: "ROM+MBC5",
	0x1A: "ROM+MBC5+RAM",
	0x1B: "ROM+MBC5+RAM+BATT",
	0x1C: "ROM+MBC5+RUMBLE",
	0x1D: "ROM+MBC5+RUMBLE+SRAM",
	0x1E: "ROM+MBC5+RUMBLE+SRAM+BATT",
}

// ROM size code (header offset 0x148) -> number of 16 KiB banks.
var romBankCounts = map[byte]int{
	0x00: 2,
	0x01: 4,
	0x02: 8,
	0x03: 16,
	0x04: 32,
	0x05: 64,
	0x06: 128,
	0x07: 256,
	0x08: 512,
	0x52: 72,
	0x53: 80,
	0x54: 96,
}

// RAM size code (header offset 0x149) -> total bytes.
var ramSizeBytes = map[byte]int{
	0x00: 0,
	0x01: 2048,
	0x02: 8192,
	0x03: 32768,
	0x04: 131072,
	0x05: 65536,
}

// Header is the decoded cartridge header. It is a read-only value: the
// driver consumes the MBC kind and the RAM geometry to pick bank-switch and
// unlock sequences; everything else is informational.
type Header struct {
	Title    string
	TypeID   byte
	ROMCode  byte
	RAMCode  byte
	Checksum byte

	// ChecksumValid reports whether the stored header checksum matches the
	// header bytes. A failed check usually means no cartridge is seated.
	ChecksumValid bool

	MBC MBCKind
}

func mbcKind(typeID byte) MBCKind {
	switch typeID {
	case 0x00, 0x08, 0x09:
		return MBCNone
	case 0x01, 0x02, 0x03:
		return MBC1
	case 0x05, 0x06:
		return MBC2
	default:
		return MBCOther
	}
}

// ParseHeader decodes the 0x50-byte header block read from HeaderStart.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderLength {
		return nil, fmt.Errorf("cart: header block too short: %d bytes", len(b))
	}

	h := &Header{
		TypeID:   b[0x47],
		ROMCode:  b[0x48],
		RAMCode:  b[0x49],
		Checksum: b[0x4D],
	}
	h.MBC = mbcKind(h.TypeID)

	// title: 0x134-0x143, stop at the first non-printable byte.
	title := make([]rune, 0, 16)
	for _, c := range b[0x34:0x44] {
		if !strconv.IsPrint(rune(c)) {
			break
		}
		title = append(title, rune(c))
	}
	h.Title = string(title)

	// header checksum covers 0x134-0x14C:
	sum := byte(0)
	for _, c := range b[0x34:0x4D] {
		sum = sum - c - 1
	}
	h.ChecksumValid = sum == h.Checksum

	return h, nil
}

// TypeName returns the header type code's conventional name.
func (h *Header) TypeName() string {
	if name, ok := cartTypeNames[h.TypeID]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN (0x%02X)", h.TypeID)
}

// ROMBanks is the number of 16 KiB ROM banks, 0 for an unknown size code.
func (h *Header) ROMBanks() int {
	return romBankCounts[h.ROMCode]
}

// ROMSize is the total ROM size in bytes.
func (h *Header) ROMSize() int {
	return h.ROMBanks() * ROMBankSize
}

// RAMSize is the total save-RAM size in bytes. The MBC2 has 512 bytes of
// internal RAM not declared by the RAM size code.
func (h *Header) RAMSize() int {
	if h.MBC == MBC2 {
		return mbc2RAMSize
	}
	return ramSizeBytes[h.RAMCode]
}

// RAMBankSize is the size of one switchable save-RAM bank.
func (h *Header) RAMBankSize() int {
	if h.MBC == MBC2 {
		return mbc2RAMSize
	}
	return RAMBankSize
}

// RAMBanks is the number of save-RAM banks.
func (h *Header) RAMBanks() int {
	size := h.RAMSize()
	if size == 0 {
		return 0
	}
	bank := h.RAMBankSize()
	if size < bank {
		return 1
	}
	return size / bank
}

func (h *Header) String() string {
	return fmt.Sprintf("%q %s rom=%dKB ram=%dB", h.Title, h.TypeName(), h.ROMSize()/1024, h.RAMSize())
}
