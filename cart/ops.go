package cart

// Completion callbacks for the cartridge operations. Each operation yields
// exactly once: success with its payload, or a non-nil error (ErrCanceled
// when the caller canceled it).
type (
	HeaderCompletion   func(hdr *Header, err error)
	ImageCompletion    func(rom []byte, hdr *Header, err error)
	SaveDataCompletion func(sav []byte, err error)
	WriteCompletion    func(err error)
)

// ProgressFunc reports transfer progress. It is invoked from the queue
// goroutine once per page received or sent and must not block.
type ProgressFunc func(completed, total int64)

// Operation is a handle to an enqueued operation. Cancel is cooperative:
// the transfer stops at the next page boundary and no further commands are
// issued; a command already on the wire always completes.
type Operation interface {
	Cancel()
}

// HeaderReader is implemented by queues that can read the cartridge header.
type HeaderReader interface {
	ReadHeader(complete HeaderCompletion) (Operation, error)
}

// CartridgeReader is implemented by queues that can dump the full ROM.
type CartridgeReader interface {
	ReadCartridge(progress ProgressFunc, complete ImageCompletion) (Operation, error)
}

// SaveFileReader is implemented by queues that can dump battery-backed RAM.
type SaveFileReader interface {
	ReadSaveFile(progress ProgressFunc, complete SaveDataCompletion) (Operation, error)
}

// SaveFileWriter is implemented by queues that can restore battery-backed RAM.
type SaveFileWriter interface {
	WriteSaveFile(sav []byte, progress ProgressFunc, complete WriteCompletion) (Operation, error)
}

// FlashWriter is implemented by queues attached to adapters that can program
// flash cartridges. Queues without this capability cannot be asked to flash.
type FlashWriter interface {
	WriteFlashImage(rom []byte, progress ProgressFunc, complete WriteCompletion) (Operation, error)
}
