package gbxcart

import (
	"strconv"
	"strings"
	"time"
)

// Command characters understood by the adapter firmware. The wire protocol
// is bare ASCII with no framing: the adapter streams one 64-byte page after
// cmdStart and after every cmdContinue, and stops on cmdStop.
const (
	cmdStart    = 'R'
	cmdStop     = '0'
	cmdContinue = '1'
	cmdWrite    = 'W'

	// register characters for SetAddress:
	regReadAddress = 'A' // linear read/write address
	regBankWrite   = 'B' // cartridge bus register write

	// raw byte switching the adapter into cartridge programming mode
	programModeByte = 'G'
)

// Settling delays required by the adapter/cartridge hardware. These are
// protocol invariants: shortening them causes silent bank-switch failures
// or corrupt leading bytes on real hardware.
const (
	settleDelay  = 250 * time.Microsecond  // after a bank/address register select
	ramModeDelay = 500 * time.Microsecond  // RAM-mode toggle
	sramBusDelay = 3000 * time.Microsecond // before the first SRAM byte of a bank
)

// pageSize is the fixed transfer granule: the adapter sends or accepts 64
// bytes, then waits for the next command.
const pageSize = 64

type commandKind int

const (
	kindStart commandKind = iota
	kindStop
	kindContinue
	kindSetAddress
	kindSleep
	kindWrite
)

// ReaderCommand is one step of the adapter's wire protocol. Commands carry
// no identity beyond their encoding and are never retried individually; a
// failed send aborts the enclosing operation.
type ReaderCommand struct {
	kind  commandKind
	reg   byte
	radix int
	value int
	delay time.Duration
	data  []byte
}

func Start() ReaderCommand    { return ReaderCommand{kind: kindStart} }
func Stop() ReaderCommand     { return ReaderCommand{kind: kindStop} }
func Continue() ReaderCommand { return ReaderCommand{kind: kindContinue} }

// SetAddress writes a number to one of the adapter's registers, formatted
// in the given radix (8, 10 or 16, uppercase) and null-terminated.
func SetAddress(reg byte, radix, value int) ReaderCommand {
	return ReaderCommand{kind: kindSetAddress, reg: reg, radix: radix, value: value}
}

// Sleep blocks the queue goroutine for the given number of microseconds
// before the next command is sent. Nothing goes over the wire; the delay
// satisfies adapter-side settling time.
func Sleep(micros uint32) ReaderCommand {
	return ReaderCommand{kind: kindSleep, delay: time.Duration(micros) * time.Microsecond}
}

func sleepFor(d time.Duration) ReaderCommand {
	return ReaderCommand{kind: kindSleep, delay: d}
}

// WriteBytes sends raw payload bytes to the current linear address. No
// terminator follows; the chunk length is the already-negotiated page size.
func WriteBytes(data []byte) ReaderCommand {
	return ReaderCommand{kind: kindWrite, data: data}
}

// Encode renders the command's wire bytes. Encoding is total; Sleep
// encodes to nothing.
func (c ReaderCommand) Encode() []byte {
	switch c.kind {
	case kindStart:
		return []byte{cmdStart}
	case kindStop:
		return []byte{cmdStop}
	case kindContinue:
		return []byte{cmdContinue}
	case kindSetAddress:
		num := strings.ToUpper(strconv.FormatInt(int64(c.value), c.radix))
		b := make([]byte, 0, len(num)+2)
		b = append(b, c.reg)
		b = append(b, num...)
		b = append(b, 0)
		return b
	case kindWrite:
		b := make([]byte, 0, len(c.data)+1)
		b = append(b, cmdWrite)
		b = append(b, c.data...)
		return b
	default: // kindSleep
		return nil
	}
}
