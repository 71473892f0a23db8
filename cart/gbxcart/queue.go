package gbxcart

import (
	"errors"
	"fmt"
	"gbrw/cart"
	"log"
)

type Queue struct {
	cart.BaseQueue

	// must be only accessed via Command.Execute
	f serialPort
}

// compile-time capability checks
var (
	_ cart.HeaderReader    = (*Queue)(nil)
	_ cart.CartridgeReader = (*Queue)(nil)
	_ cart.SaveFileReader  = (*Queue)(nil)
	_ cart.SaveFileWriter  = (*Queue)(nil)
	_ cart.FlashWriter     = (*Queue)(nil)
)

func (q *Queue) Close() (err error) {
	// Clear DTR (ignore any errors since we're closing):
	log.Println("gbxcart: clear DTR")
	q.f.SetDTR(false)

	// Close the port:
	log.Println("gbxcart: close port")
	err = q.f.Close()
	if err != nil {
		return fmt.Errorf("gbxcart: could not close serial port: %w", err)
	}

	return
}

// IsTerminalError reports whether err ends the connection. Any transport
// failure does: the protocol is stateful and timing-sensitive, so nothing
// can be resumed on a wire in an unknown state.
func (q *Queue) IsTerminalError(err error) bool {
	if err == nil {
		return false
	}
	var te *cart.TransportError
	return errors.As(err, &te)
}
