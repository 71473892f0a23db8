package cart

import (
	"errors"
	"fmt"
)

// ErrCanceled is delivered to an operation's completion callback when the
// operation was canceled before finishing. The queue proceeds to the next
// command; the partial transfer is discarded.
var ErrCanceled = errors.New("cart: operation canceled")

// TerminalError wraps an error that ends the adapter connection. The queue
// closes after delivering it; enqueued commands behind it are dropped.
type TerminalError struct {
	wrapped error
}

func (e *TerminalError) Unwrap() error { return e.wrapped }
func (e *TerminalError) Error() string {
	if e.wrapped == nil {
		return "cart: adapter terminal error"
	}
	return fmt.Sprintf("cart: adapter terminal error: %v", e.wrapped)
}

// TransportError is a failed send or receive on the wire. The protocol is
// stateful, so a partial operation cannot be resumed; transport failures are
// always terminal.
type TransportError struct {
	Op  string // "send" or "recv"
	Err error
}

func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Error() string {
	return fmt.Sprintf("cart: transport %s failed: %v", e.Op, e.Err)
}

// UnsupportedCartridgeError reports an operation that does not fit the
// attached cartridge, e.g. a save-RAM transfer on a cartridge with no RAM.
// It cancels the one operation; the queue continues.
type UnsupportedCartridgeError struct {
	TypeID byte
	Reason string
}

func (e *UnsupportedCartridgeError) Error() string {
	return fmt.Sprintf("cart: unsupported cartridge type 0x%02X: %s", e.TypeID, e.Reason)
}

// UnsupportedFlashChipError reports a flash write declined during
// preparation, before any unlock byte was sent. The target cartridge is
// untouched.
type UnsupportedFlashChipError struct {
	TypeID byte
}

func (e *UnsupportedFlashChipError) Error() string {
	return fmt.Sprintf("cart: no flash write support for cartridge type 0x%02X", e.TypeID)
}
