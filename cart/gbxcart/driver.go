package gbxcart

import (
	"errors"
	"fmt"
	"gbrw/cart"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const driverName = "gbxcart"

type Driver struct{}

type DeviceDescriptor struct {
	Port string
	Baud *int
	VID  string
	PID  string
}

func (d DeviceDescriptor) Equals(other cart.DeviceDescriptor) bool {
	otherd, ok := other.(DeviceDescriptor)
	if !ok {
		return false
	}
	return d.Port == otherd.Port
}

func (d DeviceDescriptor) DisplayName() string {
	return fmt.Sprintf("%s (%s:%s)", d.Port, d.VID, d.PID)
}

var (
	ErrNoDeviceFound = errors.New("gbxcart: no adapter found among serial ports")

	baudRates = []int{
		1000000, // the adapter's native rate
		460800,
		230400,
		115200,
		57600,
		38400,
		9600,
	}
)

// DetectDevice scans USB serial ports for the adapter's CH340 bridge.
func DetectDevice() (devs []DeviceDescriptor, err error) {
	var ports []*enumerator.PortDetails

	ports, err = enumerator.GetDetailedPortsList()
	if err != nil {
		return
	}

	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		if port.VID == "1A86" && port.PID == "7523" {
			devs = append(devs, DeviceDescriptor{
				Port: port.Name,
				VID:  port.VID,
				PID:  port.PID,
			})
		}
	}

	return
}

func (d *Driver) Detect() ([]cart.DeviceDescriptor, error) {
	devs, err := DetectDevice()
	if err != nil {
		return nil, err
	}
	descs := make([]cart.DeviceDescriptor, 0, len(devs))
	for _, dev := range devs {
		descs = append(descs, dev)
	}
	return descs, nil
}

func (d *Driver) Empty() cart.DeviceDescriptor {
	return DeviceDescriptor{}
}

func (d *Driver) Open(desc cart.DeviceDescriptor) (cart.Queue, error) {
	dd, ok := desc.(DeviceDescriptor)
	if !ok {
		return nil, fmt.Errorf("gbxcart: open: descriptor is not of expected type")
	}

	portName := dd.Port
	if portName == "" {
		devs, err := DetectDevice()
		if err != nil {
			return nil, err
		}
		if len(devs) == 0 {
			return nil, ErrNoDeviceFound
		}
		portName = devs[0].Port
	}

	baudRequest := baudRates[0]
	if dd.Baud != nil {
		baudRequest = *dd.Baud
	}

	// Try the common baud rates in descending order:
	var err error
	f := serial.Port(nil)
	for _, baud := range baudRates {
		if baud > baudRequest {
			continue
		}

		f, err = serial.Open(portName, &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("gbxcart: failed to open serial port at any baud rate: %w", err)
	}

	// set DTR:
	if err = f.SetDTR(true); err != nil {
		f.Close()
		return nil, fmt.Errorf("gbxcart: failed to set DTR: %w", err)
	}

	q := &Queue{f: f}
	q.BaseInit(driverName, q)

	return q, nil
}

func init() {
	cart.Register(driverName, &Driver{})
}
