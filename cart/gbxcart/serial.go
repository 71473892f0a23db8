package gbxcart

import (
	"fmt"
	"gbrw/cart"
	"io"
	"time"
)

// serialPort is the slice of go.bug.st/serial.Port the driver needs. Tests
// substitute an in-memory fake adapter.
type serialPort interface {
	io.ReadWriteCloser
	SetDTR(dtr bool) error
}

func sendSerial(f serialPort, buf []byte) error {
	sent := 0
	for sent < len(buf) {
		n, e := f.Write(buf[sent:])
		if e != nil {
			return e
		}
		sent += n
	}
	return nil
}

func recvSerial(f serialPort, rsp []byte, expected int) error {
	o := 0
	for o < expected {
		n, err := f.Read(rsp[o:expected])
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("recvSerial: Read returned %d", n)
		}
		o += n
	}
	return nil
}

// send encodes and transmits commands in order. Sleep commands block here,
// on the queue goroutine, because the adapter needs wall-clock settling
// time between register writes.
func (q *Queue) send(cmds ...ReaderCommand) error {
	for _, cmd := range cmds {
		if cmd.kind == kindSleep {
			time.Sleep(cmd.delay)
			continue
		}
		if err := sendSerial(q.f, cmd.Encode()); err != nil {
			return &cart.TransportError{Op: "send", Err: err}
		}
	}
	return nil
}

// recv fills buf from the adapter.
func (q *Queue) recv(buf []byte) error {
	if err := recvSerial(q.f, buf, len(buf)); err != nil {
		return &cart.TransportError{Op: "recv", Err: err}
	}
	return nil
}
