package gbxcart

import (
	"fmt"
	"gbrw/cart"
	"time"
)

// adapterBusVoltage is what the adapter drives on the cartridge bus. Chips
// wanting a different voltage class are declined before any unlock byte is
// sent.
const adapterBusVoltage = 5

const (
	eraseMaxPolls  = 120
	erasePollDelay = 500 * time.Millisecond
)

// flashChip describes a flash cartridge family the adapter can program.
// The set is closed: a cartridge type not in the table must fail the write
// rather than guess at an unlock sequence.
type flashChip struct {
	name    string
	voltage int
}

// flash cartridges present as MBC5-class types in their header.
var flashChips = map[byte]*flashChip{
	0x19: {name: "AM29F016", voltage: 5},
	0x1A: {name: "AM29F016", voltage: 5},
	0x1B: {name: "AM29F016", voltage: 5},
}

func flashChipFor(hdr *cart.Header) (*flashChip, bool) {
	chip, ok := flashChips[hdr.TypeID]
	if !ok || chip.voltage != adapterBusVoltage {
		return nil, false
	}
	return chip, true
}

// jedecErase is the standard unlock + chip-erase register sequence.
var jedecErase = [][2]int{
	{0x555, 0xAA},
	{0x2AA, 0x55},
	{0x555, 0x80},
	{0x555, 0xAA},
	{0x2AA, 0x55},
	{0x555, 0x10},
}

// prepareForWrite unlocks and erases the chip, then data-polls until the
// first byte reads back erased. The adapter firmware handles the per-byte
// program unlock once in programming mode; the host only streams data.
func (c *flashChip) prepareForWrite(q *Queue) error {
	cmds := make([]ReaderCommand, 0, len(jedecErase)*3)
	for _, w := range jedecErase {
		cmds = append(cmds, writeRegister(w[0], w[1])...)
	}
	if err := q.send(cmds...); err != nil {
		return err
	}
	return c.waitErased(q)
}

func (c *flashChip) waitErased(q *Queue) error {
	page := make([]byte, pageSize)
	for attempt := 0; attempt < eraseMaxPolls; attempt++ {
		if attempt > 0 {
			time.Sleep(erasePollDelay)
		}
		if err := q.send(SetAddress(regReadAddress, 16, 0x0000), Start()); err != nil {
			return err
		}
		if err := q.recv(page); err != nil {
			return err
		}
		if err := q.send(Stop()); err != nil {
			return err
		}
		if page[0] == 0xFF {
			return nil
		}
	}
	return fmt.Errorf("gbxcart: %s erase did not complete", c.name)
}
