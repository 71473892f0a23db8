package gbxcart

import (
	"bytes"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
)

// fakePort emulates the adapter firmware well enough to exercise whole
// operations: it decodes the ASCII command stream, tracks the linear
// address and the MBC bank registers, streams 64-byte pages on demand and
// accepts data writes into its ROM/SRAM images.
type fakePort struct {
	rom         []byte
	sram        []byte
	ramBankSize int

	addr        int
	romBank     int
	ramBank     int
	ramEnabled  bool
	programMode bool

	// first half of a register-write pair (bus address), nil when idle
	pendingBusAddr *int

	// applied register writes in order, for sequence assertions
	regWrites [][2]int

	raw bytes.Buffer // every byte received from the host
	out bytes.Buffer // bytes pending for the host to read

	dtr    bool
	closed int32
}

func (p *fakePort) isClosed() bool { return atomic.LoadInt32(&p.closed) != 0 }

func (p *fakePort) SetDTR(dtr bool) error {
	p.dtr = dtr
	return nil
}

func (p *fakePort) Close() error {
	atomic.StoreInt32(&p.closed, 1)
	return nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.isClosed() {
		return 0, errors.New("fake port closed")
	}
	if p.out.Len() == 0 {
		return 0, errors.New("fake port: read with no pending data")
	}
	return p.out.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.isClosed() {
		return 0, errors.New("fake port closed")
	}
	p.raw.Write(b)

	switch b[0] {
	case cmdStart, cmdContinue:
		p.streamPage()
	case cmdStop:
		// nothing pending to cancel in the fake
	case programModeByte:
		p.programMode = true
	case cmdWrite:
		p.writeData(b[1:])
	case regReadAddress:
		p.addr = p.parseNumber(b, 16)
	case regBankWrite:
		if p.pendingBusAddr == nil {
			v := p.parseNumber(b, 16)
			p.pendingBusAddr = &v
		} else {
			p.applyRegister(*p.pendingBusAddr, p.parseNumber(b, 10))
			p.pendingBusAddr = nil
		}
	}
	return len(b), nil
}

func (p *fakePort) parseNumber(b []byte, radix int) int {
	s := string(b[1 : len(b)-1]) // strip command char and NUL
	v, err := strconv.ParseInt(s, radix, 32)
	if err != nil {
		panic("fakePort: bad number " + strconv.Quote(s))
	}
	return int(v)
}

func (p *fakePort) applyRegister(busAddr, value int) {
	p.regWrites = append(p.regWrites, [2]int{busAddr, value})
	switch {
	case busAddr < 0x2000:
		p.ramEnabled = value == 0x0A
	case busAddr < 0x3000:
		p.romBank = value
	case busAddr < 0x4000:
		if value == 1 {
			p.romBank |= 0x100
		}
	case busAddr < 0x6000:
		p.ramBank = value
	}
}

func (p *fakePort) streamPage() {
	for i := 0; i < pageSize; i++ {
		p.out.WriteByte(p.readByte(p.addr))
		p.addr++
	}
}

func (p *fakePort) readByte(addr int) byte {
	switch {
	case addr < 0x4000:
		if addr < len(p.rom) {
			return p.rom[addr]
		}
	case addr < 0x8000:
		off := p.romBank*0x4000 + (addr - 0x4000)
		if off < len(p.rom) {
			return p.rom[off]
		}
	case addr >= 0xA000 && addr < 0xC000:
		if !p.ramEnabled {
			return 0xFF
		}
		off := p.ramBank*p.ramBankSize + (addr - 0xA000)
		if off < len(p.sram) {
			return p.sram[off]
		}
	}
	return 0xFF
}

func (p *fakePort) writeData(data []byte) {
	for _, c := range data {
		switch {
		case p.addr < 0x8000 && p.programMode:
			off := p.addr
			if off >= 0x4000 {
				off = p.romBank*0x4000 + (p.addr - 0x4000)
			}
			if off < len(p.rom) {
				p.rom[off] = c
			}
		case p.addr >= 0xA000 && p.addr < 0xC000 && p.ramEnabled:
			off := p.ramBank*p.ramBankSize + (p.addr - 0xA000)
			if off < len(p.sram) {
				p.sram[off] = c
			}
		}
		p.addr++
	}
}

// buildROM assembles a ROM image with a valid header block.
func buildROM(t *testing.T, title string, typeID, romCode, ramCode byte) []byte {
	t.Helper()

	banks := map[byte]int{0x00: 2, 0x01: 4, 0x02: 8, 0x03: 16}[romCode]
	if banks == 0 {
		t.Fatalf("buildROM: unsupported ROM size code 0x%02X", romCode)
	}

	rom := make([]byte, banks*0x4000)
	for i := range rom {
		rom[i] = byte(i*7 + i>>8)
	}

	for i := 0x134; i < 0x144; i++ {
		rom[i] = 0
	}
	copy(rom[0x134:], title)
	rom[0x147] = typeID
	rom[0x148] = romCode
	rom[0x149] = ramCode

	sum := byte(0)
	for _, c := range rom[0x134:0x14D] {
		sum = sum - c - 1
	}
	rom[0x14D] = sum

	return rom
}
