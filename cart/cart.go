package cart

import (
	"fmt"
	"sort"
	"sync"
)

// DeviceDescriptor identifies a specific attachable adapter, e.g. a serial
// port name with an optional baud override. Descriptors are produced by
// Driver.Detect and passed back to Driver.Open.
type DeviceDescriptor interface {
	Equals(other DeviceDescriptor) bool
	DisplayName() string
}

type Driver interface {
	// Detect enumerates attached adapters this driver can open.
	Detect() ([]DeviceDescriptor, error)

	// Empty returns a zero-value descriptor for manual configuration.
	Empty() DeviceDescriptor

	// Open connects to the adapter and starts its operation queue.
	Open(desc DeviceDescriptor) (Queue, error)
}

// Queue is a strictly serial operation queue bound to one adapter
// connection. At most one command executes at a time; commands own the
// underlying transport exclusively for their whole execution.
type Queue interface {
	Enqueue(cmd CommandWithCompletion) error
	Close() error
	IsTerminalError(err error) bool
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes an adapter driver available by the provided name.
// If Register is called twice with the same name or if driver is nil,
// it panics.
func Register(name string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("cart: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("cart: Register called twice for driver " + name)
	}
	drivers[name] = driver
}

// Drivers returns a sorted list of the names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for name := range drivers {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

// DriverByName looks up a registered driver.
func DriverByName(name string) (Driver, bool) {
	driversMu.RLock()
	d, ok := drivers[name]
	driversMu.RUnlock()
	return d, ok
}

func Open(driverName string, desc DeviceDescriptor) (Queue, error) {
	driversMu.RLock()
	driveri, ok := drivers[driverName]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cart: unknown driver %q (forgotten import?)", driverName)
	}

	return driveri.Open(desc)
}
