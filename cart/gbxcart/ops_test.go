package gbxcart

import (
	"bytes"
	"errors"
	"gbrw/cart"
	"gbrw/util"
	"log"
	"os"
	"testing"
	"time"
)

func newTestQueue(f *fakePort) *Queue {
	q := &Queue{f: f}
	q.BaseInit(driverName, q)
	return q
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("operation did not complete")
		return nil
	}
}

func waitClosed(t *testing.T, f *fakePort) {
	t.Helper()
	for i := 0; i < 500; i++ {
		if f.isClosed() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("port was not closed after the operation")
}

func TestReadHeader(t *testing.T) {
	log.SetOutput(util.NewTestingLogger(t))
	defer log.SetOutput(os.Stderr)

	f := &fakePort{rom: buildROM(t, "ZELDA", 0x1B, 0x01, 0x03)}
	q := newTestQueue(f)

	var hdr *cart.Header
	done := make(chan error, 1)
	_, err := q.ReadHeader(func(h *cart.Header, err error) {
		hdr = h
		done <- err
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}

	if hdr.Title != "ZELDA" {
		t.Errorf("Title = %q, want %q", hdr.Title, "ZELDA")
	}
	if hdr.MBC != cart.MBCOther {
		t.Errorf("MBC = %v, want other", hdr.MBC)
	}
	if hdr.ROMBanks() != 4 {
		t.Errorf("ROMBanks = %d, want 4", hdr.ROMBanks())
	}
	if hdr.RAMSize() != 32768 {
		t.Errorf("RAMSize = %d, want 32768", hdr.RAMSize())
	}
	if !hdr.ChecksumValid {
		t.Error("header checksum should verify")
	}

	// the operation must terminate the stream and release the port
	raw := f.raw.Bytes()
	if raw[len(raw)-1] != cmdStop {
		t.Errorf("last wire byte = %q, want Stop", raw[len(raw)-1])
	}
	waitClosed(t, f)
}

func TestReadCartridge(t *testing.T) {
	rom := buildROM(t, "METROID II", 0x19, 0x02, 0x00)
	f := &fakePort{rom: rom}
	q := newTestQueue(f)

	var got []byte
	var last int64
	done := make(chan error, 1)
	_, err := q.ReadCartridge(
		func(completed, total int64) {
			if completed < last {
				t.Errorf("progress went backwards: %d after %d", completed, last)
			}
			last = completed
			if total != int64(len(rom)) {
				t.Errorf("progress total = %d, want %d", total, len(rom))
			}
		},
		func(data []byte, hdr *cart.Header, err error) {
			got = data
			done <- err
		})
	if err != nil {
		t.Fatal(err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(got, rom) {
		t.Fatal("dumped image differs from the cartridge ROM")
	}
	if last != int64(len(rom)) {
		t.Errorf("final progress = %d, want %d", last, len(rom))
	}
	waitClosed(t, f)
}

func TestSaveFileRoundTrip(t *testing.T) {
	rom := buildROM(t, "POKEMON RED", 0x1B, 0x01, 0x03)

	sav := make([]byte, 32768)
	for i := range sav {
		sav[i] = byte(i*13 + 5)
	}

	f := &fakePort{rom: rom, sram: make([]byte, len(sav)), ramBankSize: 0x2000}

	// write the save, then read it back over a fresh connection
	q := newTestQueue(f)
	done := make(chan error, 1)
	_, err := q.WriteSaveFile(sav, nil, func(err error) { done <- err })
	if err != nil {
		t.Fatal(err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}
	waitClosed(t, f)
	if !bytes.Equal(f.sram, sav) {
		t.Fatal("cartridge RAM differs from written save data")
	}

	f.closed = 0
	q = newTestQueue(f)
	var got []byte
	done = make(chan error, 1)
	_, err = q.ReadSaveFile(nil, func(data []byte, err error) {
		got = data
		done <- err
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(got, sav) {
		t.Fatal("read save differs from written save")
	}
}

func TestSaveFileMBC1Sequence(t *testing.T) {
	rom := buildROM(t, "MBC1 GAME", 0x03, 0x00, 0x02)
	f := &fakePort{rom: rom, sram: make([]byte, 8192), ramBankSize: 0x2000}
	q := newTestQueue(f)

	done := make(chan error, 1)
	_, err := q.ReadSaveFile(nil, func(_ []byte, err error) { done <- err })
	if err != nil {
		t.Fatal(err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}
	waitClosed(t, f)

	var sawUnlock, sawEnable bool
	for _, w := range f.regWrites {
		if w == [2]int{0x6000, 1} {
			sawUnlock = true
		}
		if w == [2]int{0x0000, 0x0A} {
			if !sawUnlock {
				t.Fatal("RAM enabled before the MBC1 unlock")
			}
			sawEnable = true
		}
	}
	if !sawUnlock || !sawEnable {
		t.Fatalf("missing unlock/enable writes: %v", f.regWrites)
	}

	// RAM must be locked again when the operation completes
	lastRAMMode := [2]int{}
	for _, w := range f.regWrites {
		if w[0] == 0x0000 {
			lastRAMMode = w
		}
	}
	if lastRAMMode != [2]int{0x0000, 0x00} {
		t.Errorf("final RAM mode write = %v, want disable", lastRAMMode)
	}
}

func TestReadSaveFileNoRAM(t *testing.T) {
	f := &fakePort{rom: buildROM(t, "NO RAM", 0x00, 0x00, 0x00)}
	q := newTestQueue(f)

	done := make(chan error, 1)
	_, err := q.ReadSaveFile(nil, func(_ []byte, err error) { done <- err })
	if err != nil {
		t.Fatal(err)
	}
	err = waitDone(t, done)

	var uce *cart.UnsupportedCartridgeError
	if !errors.As(err, &uce) {
		t.Fatalf("err = %v, want UnsupportedCartridgeError", err)
	}
	waitClosed(t, f)
}

func TestWriteFlashImage(t *testing.T) {
	image := buildROM(t, "HOMEBREW", 0x19, 0x01, 0x00)

	// factory-fresh chip reads back erased
	f := &fakePort{rom: bytes.Repeat([]byte{0xFF}, len(image))}
	q := newTestQueue(f)

	done := make(chan error, 1)
	_, err := q.WriteFlashImage(image, nil, func(err error) { done <- err })
	if err != nil {
		t.Fatal(err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}
	waitClosed(t, f)

	if !f.programMode {
		t.Error("adapter was never switched into programming mode")
	}
	if !bytes.Equal(f.rom, image) {
		t.Fatal("flashed chip differs from the image")
	}
}

func TestWriteFlashImageUnsupportedChip(t *testing.T) {
	// MBC3 cartridges are not a known flash chip
	image := buildROM(t, "UNSUPPORTED", 0x11, 0x01, 0x00)
	f := &fakePort{rom: bytes.Repeat([]byte{0xFF}, len(image))}
	q := newTestQueue(f)

	done := make(chan error, 1)
	_, err := q.WriteFlashImage(image, nil, func(err error) { done <- err })
	if err != nil {
		t.Fatal(err)
	}
	err = waitDone(t, done)

	var ufe *cart.UnsupportedFlashChipError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %v, want UnsupportedFlashChipError", err)
	}
	waitClosed(t, f)

	// no unlock byte may reach the cartridge: the mode switch must be the
	// only wire traffic
	if got := f.raw.String(); got != string(programModeByte) {
		t.Errorf("wire traffic = %q, want just the mode byte", got)
	}
	if len(f.regWrites) != 0 {
		t.Errorf("register writes reached the cartridge: %v", f.regWrites)
	}
}

func TestCancelMidTransfer(t *testing.T) {
	rom := buildROM(t, "CANCEL MID", 0x19, 0x02, 0x00)
	f := &fakePort{rom: rom}
	q := newTestQueue(f)

	// the progress callback runs on the queue goroutine; gate it until the
	// operation handle is assigned
	ready := make(chan struct{})

	var op cart.Operation
	var lastProgress int64
	rawAtCancel := -1
	completions := 0
	done := make(chan error, 2)
	op, err := q.ReadCartridge(
		func(completed, total int64) {
			<-ready
			lastProgress = completed
			if completed >= 256 && rawAtCancel < 0 {
				op.Cancel()
				rawAtCancel = f.raw.Len()
			}
		},
		func(_ []byte, _ *cart.Header, err error) {
			completions++
			done <- err
		})
	if err != nil {
		t.Fatal(err)
	}
	close(ready)

	if err := waitDone(t, done); !errors.Is(err, cart.ErrCanceled) {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}
	waitClosed(t, f)

	if completions != 1 {
		t.Errorf("completion fired %d times, want once", completions)
	}
	if rawAtCancel < 0 {
		t.Fatal("cancel point was never reached")
	}
	if got := f.raw.Len(); got != rawAtCancel {
		t.Errorf("wire traffic continued after cancel: %d bytes, had %d", got, rawAtCancel)
	}
	if lastProgress%pageSize != 0 || lastProgress >= int64(len(rom)) {
		t.Errorf("transfer stopped at %d, want a page boundary short of %d", lastProgress, len(rom))
	}
}

func TestCanceledOperationSendsNothing(t *testing.T) {
	f := &fakePort{rom: buildROM(t, "CANCELED", 0x1B, 0x01, 0x03)}
	q := newTestQueue(f)

	op := &readHeaderOp{}
	op.Cancel()
	if err := op.Execute(q); !errors.Is(err, cart.ErrCanceled) {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}
	if f.raw.Len() != 0 {
		t.Errorf("canceled operation sent %q", f.raw.String())
	}
}
