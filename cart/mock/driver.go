package mock

import "gbrw/cart"

const driverName = "mock"

type Driver struct{}

type DeviceDescriptor struct{}

func (m DeviceDescriptor) Equals(other cart.DeviceDescriptor) bool {
	_, ok := other.(DeviceDescriptor)
	return ok
}

func (m DeviceDescriptor) DisplayName() string {
	return "Mock"
}

func (d *Driver) Detect() ([]cart.DeviceDescriptor, error) {
	return []cart.DeviceDescriptor{
		DeviceDescriptor{},
	}, nil
}

func (d *Driver) Empty() cart.DeviceDescriptor {
	return DeviceDescriptor{}
}

func (d *Driver) Open(desc cart.DeviceDescriptor) (cart.Queue, error) {
	q := &Queue{}
	q.BaseInit(driverName, q)
	return q, nil
}

func init() {
	cart.Register(driverName, &Driver{})
}
