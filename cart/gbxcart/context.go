package gbxcart

import "gbrw/cart"

// transferContext is the per-transfer state machine. The transfer engine
// drives the four lifecycle events in order; each handler emits zero or
// more commands on the wire. Handlers run on the queue goroutine and block
// only for the protocol's mandated settling sleeps.
type transferContext interface {
	willBegin(t *transfer) error
	didBegin(t *transfer) error
	progress(t *transfer) error
	didComplete(t *transfer) error
}

// headerContext reads the fixed header range. RAM mode is switched off
// first so the header window is not shadowed by save RAM.
type headerContext struct{}

func (headerContext) willBegin(t *transfer) error {
	cmds := ramModeCommands(false)
	cmds = append(cmds, sleepFor(settleDelay), SetAddress(regReadAddress, 16, cart.HeaderStart))
	return t.q.send(cmds...)
}

func (headerContext) didBegin(t *transfer) error {
	return t.q.send(Start())
}

func (headerContext) progress(t *transfer) error {
	return t.q.send(Continue())
}

func (headerContext) didComplete(t *transfer) error {
	return t.q.send(Stop())
}

// bankContext reads one ROM bank. Bank 1 is read linearly from 0x0000 and
// covers the home bank too; banks >= 2 are read at the switchable window.
type bankContext struct {
	number int
}

func (c bankContext) willBegin(t *transfer) error {
	cmds := make([]ReaderCommand, 0, 12)
	cmds = append(cmds, Stop())
	cmds = append(cmds, bankSwitchCommands(c.number, t.hdr)...)
	addr := 0x0000
	if c.number > 1 {
		addr = 0x4000
	}
	cmds = append(cmds, sleepFor(settleDelay), SetAddress(regReadAddress, 16, addr))
	return t.q.send(cmds...)
}

func (c bankContext) didBegin(t *transfer) error {
	return t.q.send(Start())
}

func (c bankContext) progress(t *transfer) error {
	return t.q.send(Continue())
}

func (c bankContext) didComplete(t *transfer) error {
	// the enclosing cartridge operation stops the stream and closes
	return nil
}

// sramContext transfers one save-RAM bank in either direction. The 3000µs
// bus-timing sleep before the first byte is a hardware requirement; with a
// shorter delay the leading bytes of the bank come back corrupt.
type sramContext struct {
	bank int
}

func (c sramContext) willBegin(t *transfer) error {
	cmds := make([]ReaderCommand, 0, 6)
	cmds = append(cmds, Stop())
	cmds = append(cmds, ramBankSwitchCommands(c.bank)...)
	cmds = append(cmds, sleepFor(sramBusDelay), SetAddress(regReadAddress, 16, 0xA000))
	return t.q.send(cmds...)
}

func (c sramContext) didBegin(t *transfer) error {
	if t.writing {
		return t.q.send(WriteBytes(t.chunk()))
	}
	return t.q.send(Start())
}

func (c sramContext) progress(t *transfer) error {
	if t.writing {
		return t.q.send(WriteBytes(t.chunk()))
	}
	return t.q.send(Continue())
}

func (c sramContext) didComplete(t *transfer) error {
	// the enclosing save-file operation disables RAM, stops and closes
	return nil
}

// flashBankContext programs one ROM bank of a flash cartridge. The chip
// must already be erased and unlocked by the flash preparer.
type flashBankContext struct {
	number int
}

func (c flashBankContext) willBegin(t *transfer) error {
	return bankContext{number: c.number}.willBegin(t)
}

func (c flashBankContext) didBegin(t *transfer) error {
	return t.q.send(WriteBytes(t.chunk()))
}

func (c flashBankContext) progress(t *transfer) error {
	return t.q.send(WriteBytes(t.chunk()))
}

func (c flashBankContext) didComplete(t *transfer) error {
	return nil
}
