package gbxcart

import (
	"fmt"
	"gbrw/cart"
	"sync/atomic"
)

// operation is the embeddable cancellation handle. Cancel is cooperative:
// the transfer engine checks the flag at page boundaries; a command already
// on the wire always completes.
type operation struct {
	canceled int32
}

func (o *operation) Cancel() {
	atomic.StoreInt32(&o.canceled, 1)
}

func (o *operation) isCanceled() bool {
	return atomic.LoadInt32(&o.canceled) != 0
}

// enqueueOp submits an operation command followed by a CloseCommand: an
// operation owns the connection for its whole lifetime and releases it
// deterministically whether it succeeds, fails or is canceled.
func (q *Queue) enqueueOp(cmd cart.Command, completion cart.Completion) error {
	seq := cart.CommandSequence{
		{Command: cmd, Completion: completion},
		{Command: &cart.CloseCommand{}},
	}
	return seq.EnqueueTo(q)
}

// readHeaderBlock runs the header transfer and decodes the result.
func (q *Queue) readHeaderBlock(canceled func() bool) (*cart.Header, error) {
	buf := make([]byte, cart.HeaderLength)
	t := &transfer{
		q:        q,
		buf:      buf,
		total:    int64(len(buf)),
		canceled: canceled,
	}
	if err := t.run(headerContext{}); err != nil {
		return nil, err
	}
	return cart.ParseHeader(buf)
}

// warmUpRead performs the fixed read-and-discard that MBC1/MBC2 cartridges
// need before save-RAM access is reliable. Root cause undocumented; without
// it the first SRAM page comes back stale.
func (q *Queue) warmUpRead() error {
	if err := q.send(SetAddress(regReadAddress, 16, 0x0000), Start()); err != nil {
		return err
	}
	page := make([]byte, pageSize)
	if err := q.recv(page); err != nil {
		return err
	}
	return q.send(Stop())
}

// beginSaveAccess prepares the cartridge for SRAM transfers.
func (q *Queue) beginSaveAccess(hdr *cart.Header) error {
	if hdr.MBC == cart.MBC1 || hdr.MBC == cart.MBC2 {
		if err := q.warmUpRead(); err != nil {
			return err
		}
	}
	if hdr.MBC == cart.MBC1 {
		if err := q.send(ramUnlockCommands()...); err != nil {
			return err
		}
	}
	return q.send(ramModeCommands(true)...)
}

// endSaveAccess re-locks SRAM and stops the stream.
func (q *Queue) endSaveAccess() error {
	cmds := ramModeCommands(false)
	cmds = append(cmds, Stop())
	return q.send(cmds...)
}

func queueOf(queue cart.Queue) (*Queue, error) {
	q, ok := queue.(*Queue)
	if !ok {
		return nil, fmt.Errorf("gbxcart: queue is not of expected internal type")
	}
	return q, nil
}

// ---- read header ----

type readHeaderOp struct {
	operation
	hdr *cart.Header
}

func (c *readHeaderOp) Execute(queue cart.Queue) error {
	q, err := queueOf(queue)
	if err != nil {
		return err
	}
	c.hdr, err = q.readHeaderBlock(c.isCanceled)
	return err
}

func (q *Queue) ReadHeader(complete cart.HeaderCompletion) (cart.Operation, error) {
	op := &readHeaderOp{}
	err := q.enqueueOp(op, func(_ cart.Command, err error) {
		if complete != nil {
			complete(op.hdr, err)
		}
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// ---- read cartridge ----

type readCartridgeOp struct {
	operation
	progress cart.ProgressFunc

	rom []byte
	hdr *cart.Header
}

func (c *readCartridgeOp) Execute(queue cart.Queue) error {
	q, err := queueOf(queue)
	if err != nil {
		return err
	}

	hdr, err := q.readHeaderBlock(c.isCanceled)
	if err != nil {
		return err
	}
	banks := hdr.ROMBanks()
	if banks < 2 {
		return &cart.UnsupportedCartridgeError{TypeID: hdr.TypeID, Reason: "unknown ROM size code"}
	}

	rom := make([]byte, hdr.ROMSize())
	total := int64(len(rom))
	for bank := 1; bank < banks; bank++ {
		// bank 1 is read linearly from 0x0000 and covers the home bank too
		base := int64(bank) * cart.ROMBankSize
		length := int64(cart.ROMBankSize)
		if bank == 1 {
			base = 0
			length = 2 * cart.ROMBankSize
		}
		t := &transfer{
			q:           q,
			hdr:         hdr,
			buf:         rom[base : base+length],
			total:       length,
			canceled:    c.isCanceled,
			report:      c.progress,
			reportBase:  base,
			reportTotal: total,
		}
		if err := t.run(bankContext{number: bank}); err != nil {
			return err
		}
	}

	if err := q.send(Stop()); err != nil {
		return err
	}
	c.rom, c.hdr = rom, hdr
	return nil
}

func (q *Queue) ReadCartridge(progress cart.ProgressFunc, complete cart.ImageCompletion) (cart.Operation, error) {
	op := &readCartridgeOp{progress: progress}
	err := q.enqueueOp(op, func(_ cart.Command, err error) {
		if complete != nil {
			complete(op.rom, op.hdr, err)
		}
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// ---- save-RAM transfers ----

// runSaveTransfer moves the whole save-RAM region in the given direction,
// one bank at a time.
func (q *Queue) runSaveTransfer(hdr *cart.Header, data []byte, writing bool, canceled func() bool, report cart.ProgressFunc) error {
	if err := q.beginSaveAccess(hdr); err != nil {
		return err
	}

	total := int64(len(data))
	bankSize := hdr.RAMBankSize()
	for bank := 0; bank < hdr.RAMBanks(); bank++ {
		start := bank * bankSize
		end := start + bankSize
		if end > len(data) {
			end = len(data)
		}
		t := &transfer{
			q:           q,
			hdr:         hdr,
			writing:     writing,
			total:       int64(end - start),
			canceled:    canceled,
			report:      report,
			reportBase:  int64(start),
			reportTotal: total,
		}
		if writing {
			t.out = data[start:end]
		} else {
			t.buf = data[start:end]
		}
		if err := t.run(sramContext{bank: bank}); err != nil {
			return err
		}
	}

	return q.endSaveAccess()
}

type readSaveFileOp struct {
	operation
	progress cart.ProgressFunc

	sav []byte
}

func (c *readSaveFileOp) Execute(queue cart.Queue) error {
	q, err := queueOf(queue)
	if err != nil {
		return err
	}

	hdr, err := q.readHeaderBlock(c.isCanceled)
	if err != nil {
		return err
	}
	if hdr.RAMSize() == 0 {
		return &cart.UnsupportedCartridgeError{TypeID: hdr.TypeID, Reason: "no save RAM"}
	}

	sav := make([]byte, hdr.RAMSize())
	if err := q.runSaveTransfer(hdr, sav, false, c.isCanceled, c.progress); err != nil {
		return err
	}
	c.sav = sav
	return nil
}

func (q *Queue) ReadSaveFile(progress cart.ProgressFunc, complete cart.SaveDataCompletion) (cart.Operation, error) {
	op := &readSaveFileOp{progress: progress}
	err := q.enqueueOp(op, func(_ cart.Command, err error) {
		if complete != nil {
			complete(op.sav, err)
		}
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

type writeSaveFileOp struct {
	operation
	progress cart.ProgressFunc

	sav []byte
}

func (c *writeSaveFileOp) Execute(queue cart.Queue) error {
	q, err := queueOf(queue)
	if err != nil {
		return err
	}

	hdr, err := q.readHeaderBlock(c.isCanceled)
	if err != nil {
		return err
	}
	if hdr.RAMSize() == 0 {
		return &cart.UnsupportedCartridgeError{TypeID: hdr.TypeID, Reason: "no save RAM"}
	}
	if len(c.sav) != hdr.RAMSize() {
		return &cart.UnsupportedCartridgeError{
			TypeID: hdr.TypeID,
			Reason: fmt.Sprintf("save data is %d bytes, cartridge RAM is %d", len(c.sav), hdr.RAMSize()),
		}
	}

	return q.runSaveTransfer(hdr, c.sav, true, c.isCanceled, c.progress)
}

func (q *Queue) WriteSaveFile(sav []byte, progress cart.ProgressFunc, complete cart.WriteCompletion) (cart.Operation, error) {
	op := &writeSaveFileOp{sav: sav, progress: progress}
	err := q.enqueueOp(op, func(_ cart.Command, err error) {
		if complete != nil {
			complete(err)
		}
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// ---- flash write ----

type writeFlashImageOp struct {
	operation
	progress cart.ProgressFunc

	rom []byte
}

func (c *writeFlashImageOp) Execute(queue cart.Queue) error {
	q, err := queueOf(queue)
	if err != nil {
		return err
	}

	if len(c.rom) < cart.HeaderStart+cart.HeaderLength {
		return &cart.UnsupportedCartridgeError{Reason: "image too short to carry a header"}
	}
	hdr, err := cart.ParseHeader(c.rom[cart.HeaderStart : cart.HeaderStart+cart.HeaderLength])
	if err != nil {
		return err
	}
	banks := hdr.ROMBanks()
	if banks < 2 || hdr.ROMSize() != len(c.rom) {
		return &cart.UnsupportedCartridgeError{
			TypeID: hdr.TypeID,
			Reason: fmt.Sprintf("image is %d bytes, header declares %d", len(c.rom), hdr.ROMSize()),
		}
	}

	// programming mode first, then gate on chip support before any unlock
	// byte goes out.
	if err := sendSerial(q.f, []byte{programModeByte}); err != nil {
		return &cart.TransportError{Op: "send", Err: err}
	}
	chip, ok := flashChipFor(hdr)
	if !ok {
		return &cart.UnsupportedFlashChipError{TypeID: hdr.TypeID}
	}
	if err := chip.prepareForWrite(q); err != nil {
		return err
	}

	total := int64(len(c.rom))
	for bank := 1; bank < banks; bank++ {
		base := int64(bank) * cart.ROMBankSize
		length := int64(cart.ROMBankSize)
		if bank == 1 {
			base = 0
			length = 2 * cart.ROMBankSize
		}
		t := &transfer{
			q:           q,
			hdr:         hdr,
			writing:     true,
			out:         c.rom[base : base+length],
			total:       length,
			canceled:    c.isCanceled,
			report:      c.progress,
			reportBase:  base,
			reportTotal: total,
		}
		if err := t.run(flashBankContext{number: bank}); err != nil {
			return err
		}
	}

	return q.send(Stop())
}

func (q *Queue) WriteFlashImage(rom []byte, progress cart.ProgressFunc, complete cart.WriteCompletion) (cart.Operation, error) {
	op := &writeFlashImageOp{rom: rom, progress: progress}
	err := q.enqueueOp(op, func(_ cart.Command, err error) {
		if complete != nil {
			complete(err)
		}
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}
