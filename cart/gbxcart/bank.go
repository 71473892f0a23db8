package gbxcart

import "gbrw/cart"

// writeRegister emits one cartridge bus register write: select the bus
// address (hex), settle, then the value (decimal). The settle between the
// two is mandatory; without it the cartridge latches garbage.
func writeRegister(busAddr, value int) []ReaderCommand {
	return []ReaderCommand{
		SetAddress(regBankWrite, 16, busAddr),
		sleepFor(settleDelay),
		SetAddress(regBankWrite, 10, value),
	}
}

// bankSwitchCommands computes the register writes that make the given ROM
// bank visible in the switchable window. The MBC1 splits the bank number
// across a 5-bit low field and a separately latched high group; everything
// else takes the full bank number at 0x2100, with 0x3000 selecting the
// upper page for banks >= 0x100.
func bankSwitchCommands(bank int, hdr *cart.Header) []ReaderCommand {
	switch hdr.MBC {
	case cart.MBC1:
		cmds := make([]ReaderCommand, 0, 9)
		cmds = append(cmds, writeRegister(0x6000, 0)...)
		cmds = append(cmds, writeRegister(0x4000, bank>>5)...)
		cmds = append(cmds, writeRegister(0x2000, bank&0x1F)...)
		return cmds
	default:
		cmds := writeRegister(0x2100, bank)
		if bank >= 0x100 {
			cmds = append(cmds, writeRegister(0x3000, 1)...)
		}
		return cmds
	}
}

// ramModeCommands toggles save-RAM access. 0x0A enables, 0x00 disables.
func ramModeCommands(enable bool) []ReaderCommand {
	value := 0x00
	if enable {
		value = 0x0A
	}
	return []ReaderCommand{
		SetAddress(regBankWrite, 16, 0x0000),
		sleepFor(ramModeDelay),
		SetAddress(regBankWrite, 10, value),
	}
}

// ramBankSwitchCommands selects the save-RAM bank mapped at 0xA000.
func ramBankSwitchCommands(bank int) []ReaderCommand {
	return writeRegister(0x4000, bank)
}

// ramUnlockCommands is the MBC1-only unlock that must precede RAM access.
func ramUnlockCommands() []ReaderCommand {
	return writeRegister(0x6000, 1)
}
