package emu

import (
	"math/bits"

	"github.com/sarchlab/arm7sim/insts"
)

// loadWord reads the aligned word containing addr and rotates it so the
// addressed byte lands in bits 7-0.
func (c *CPU) loadWord(addr uint32, access Access) uint32 {
	value := c.bus.Load32(addr&^3, access)
	return bits.RotateLeft32(value, -int(addr&3)*8)
}

// loadHalf reads the aligned halfword containing addr. An odd address
// rotates the result by eight bits.
func (c *CPU) loadHalf(addr uint32, access Access) uint32 {
	value := uint32(c.bus.Load16(addr&^1, access))
	return bits.RotateLeft32(value, -int(addr&1)*8)
}

func (c *CPU) loadSignedByte(addr uint32, access Access) uint32 {
	return uint32(int32(int8(c.bus.Load8(addr, access))))
}

// loadSignedHalf sign-extends a halfword. An odd address loads the single
// byte and sign-extends that instead.
func (c *CPU) loadSignedHalf(addr uint32, access Access) uint32 {
	if addr&1 == 1 {
		return c.loadSignedByte(addr, access)
	}
	return uint32(int32(int16(c.bus.Load16(addr, access))))
}

// finishLoad writes a loaded value to rd, branching when rd is the PC.
func (c *CPU) finishLoad(rd uint8, value uint32) Action {
	c.idle(1)
	if rd == PC {
		c.branchTo(value)
		return PipelineFlush
	}
	c.setReg(rd, value)
	return Advance(NonSequential)
}

// storedValue returns the value STR stores for rd. R15 is stored as the
// instruction address plus 12.
func (c *CPU) storedValue(rd uint8) uint32 {
	if rd == PC {
		return c.reg(PC) + 4
	}
	return c.reg(rd)
}

// indexedAddress applies offset to base. It returns the transfer address and
// the updated base for write-back.
func indexedAddress(base, offset uint32, pre, up bool) (addr, updated uint32) {
	updated = base - offset
	if up {
		updated = base + offset
	}
	if pre {
		return updated, updated
	}
	return base, updated
}

// writeBack commits a base update. A load into the base register wins, so
// the caller writes the loaded value afterwards.
func (c *CPU) writeBack(rn uint8, value uint32) {
	if rn != PC {
		c.setReg(rn, value)
	}
}

func (c *CPU) singleDataTransfer(i insts.SingleDataTransfer) Action {
	offset := i.Immediate()
	if i.RegisterOffset() {
		s := i.Offset()
		carry := c.cpsr.Carry()
		offset = Shift(s.ShiftType(), c.reg(s.Rm()), s.Amount(), &carry, true)
	}

	addr, updated := indexedAddress(c.reg(i.Rn()), offset, i.PreIndex(), i.Up())
	writeBack := !i.PreIndex() || i.WriteBack()

	if i.Load() {
		var value uint32
		if i.Byte() {
			value = uint32(c.bus.Load8(addr, NonSequential))
		} else {
			value = c.loadWord(addr, NonSequential)
		}
		if writeBack {
			c.writeBack(i.Rn(), updated)
		}
		return c.finishLoad(i.Rd(), value)
	}

	value := c.storedValue(i.Rd())
	if i.Byte() {
		c.bus.Store8(addr, uint8(value), NonSequential)
	} else {
		c.bus.Store32(addr&^3, value, NonSequential)
	}
	if writeBack {
		c.writeBack(i.Rn(), updated)
	}
	return Advance(NonSequential)
}

func (c *CPU) halfwordTransfer(i insts.HalfwordTransfer) Action {
	op := i.Op()
	// SH=00 belongs to the multiply and swap space; signed stores do not
	// exist on this core.
	if op == 0 || (!i.Load() && op != insts.HalfwordUnsigned) {
		return c.enterException(ExceptionUndefined, c.reg(PC)-4)
	}

	offset := i.Immediate()
	if !i.IsImmediate() {
		offset = c.reg(i.Rm())
	}

	addr, updated := indexedAddress(c.reg(i.Rn()), offset, i.PreIndex(), i.Up())
	writeBack := !i.PreIndex() || i.WriteBack()

	if !i.Load() {
		c.bus.Store16(addr&^1, uint16(c.storedValue(i.Rd())), NonSequential)
		if writeBack {
			c.writeBack(i.Rn(), updated)
		}
		return Advance(NonSequential)
	}

	var value uint32
	switch op {
	case insts.HalfwordUnsigned:
		value = c.loadHalf(addr, NonSequential)
	case insts.HalfwordSByte:
		value = c.loadSignedByte(addr, NonSequential)
	default:
		value = c.loadSignedHalf(addr, NonSequential)
	}
	if writeBack {
		c.writeBack(i.Rn(), updated)
	}
	return c.finishLoad(i.Rd(), value)
}

// blockTransfer describes one LDM/STM, PUSH/POP or Thumb LDMIA/STMIA.
type blockTransfer struct {
	rn        uint8
	list      uint16
	pre       bool
	up        bool
	load      bool
	writeBack bool
	// bank is the mode whose registers are transferred.
	bank Mode
}

// transferBlock moves the listed registers in ascending order, lowest
// register at the lowest address. The first access is NonSequential and
// the rest Sequential. Write-back is committed after the last transfer
// unless a load overwrote the base. An empty list transfers R15 and moves
// the base by 0x40.
func (c *CPU) transferBlock(t blockTransfer) Action {
	base := c.reg(t.rn)
	list := t.list
	size := uint32(bits.OnesCount16(list)) * 4
	if list == 0 {
		list = 1 << PC
		size = 0x40
	}

	var start, final uint32
	if t.up {
		start, final = base, base+size
		if t.pre {
			start += 4
		}
	} else {
		start, final = base-size, base-size
		if !t.pre {
			start += 4
		}
	}

	addr := start
	access := NonSequential
	var pcValue uint32
	for r := uint8(0); r < 16; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		if t.load {
			value := c.bus.Load32(addr&^3, access)
			if r == PC {
				pcValue = value
			} else {
				c.regs.Write(r, t.bank, value)
			}
		} else {
			value := c.regs.Read(r, t.bank)
			if r == PC {
				value += 4
			}
			c.bus.Store32(addr&^3, value, access)
		}
		access = Sequential
		addr += 4
	}

	if t.writeBack && !(t.load && list&(1<<t.rn) != 0) {
		c.writeBack(t.rn, final)
	}

	if !t.load {
		return Advance(NonSequential)
	}

	c.idle(1)
	if list&(1<<PC) != 0 {
		c.branchTo(pcValue)
		return PipelineFlush
	}
	return Advance(NonSequential)
}

func (c *CPU) blockDataTransfer(i insts.BlockDataTransfer) (Action, error) {
	list := i.RegisterList()
	// An empty list transfers R15.
	if i.ForceUser() && i.Load() && (list == 0 || list&(1<<PC) != 0) {
		return Advance(NonSequential), ErrUnsupportedForceUserLoad
	}

	bank := c.Mode()
	if i.ForceUser() {
		bank = ModeUser
	}

	return c.transferBlock(blockTransfer{
		rn:        i.Rn(),
		list:      list,
		pre:       i.PreIndex(),
		up:        i.Up(),
		load:      i.Load(),
		writeBack: i.WriteBack(),
		bank:      bank,
	}), nil
}

// singleDataSwap reads the old value before writing the new one; Rm is
// sampled before Rd is written.
func (c *CPU) singleDataSwap(i insts.SingleDataSwap) Action {
	addr := c.reg(i.Rn())
	source := c.reg(i.Rm())

	var old uint32
	if i.Byte() {
		old = uint32(c.bus.Load8(addr, NonSequential))
		c.bus.Store8(addr, uint8(source), NonSequential)
	} else {
		old = c.loadWord(addr, NonSequential)
		c.bus.Store32(addr&^3, source, NonSequential)
	}

	c.idle(1)
	c.setReg(i.Rd(), old)
	return Advance(NonSequential)
}
