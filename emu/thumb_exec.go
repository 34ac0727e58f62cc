package emu

import (
	"fmt"

	"github.com/sarchlab/arm7sim/insts"
)

// executeThumb runs a decoded Thumb instruction. Only the conditional
// branch can fail to execute.
func (c *CPU) executeThumb(inst insts.ThumbInstruction) (Action, bool) {
	switch i := inst.(type) {
	case insts.MoveShiftedRegister:
		carry := c.cpsr.Carry()
		value := Shift(i.ShiftType(), c.reg(i.Rs()), i.Amount(), &carry, true)
		c.setReg(i.Rd(), c.alu.Logical(value, carry, true))
	case insts.AddSubtract:
		c.thumbAddSubtract(i)
	case insts.MoveCompareAddSubtractImmediate:
		c.thumbImmediate(i)
	case insts.ALUOperation:
		return c.thumbALU(i), true
	case insts.HiRegisterOperation:
		return c.thumbHiRegister(i), true
	case insts.PCRelativeLoad:
		// Bit 1 of the PC is ignored so the base is word aligned.
		addr := c.reg(PC)&^2 + i.Offset()
		return c.finishLoad(i.Rd(), c.bus.Load32(addr, NonSequential)), true
	case insts.LoadStoreRegisterOffset:
		return c.thumbTransfer(i.Load(), i.Byte(), i.Rd(), c.reg(i.Rb())+c.reg(i.Ro())), true
	case insts.LoadStoreImmediateOffset:
		return c.thumbTransfer(i.Load(), i.Byte(), i.Rd(), c.reg(i.Rb())+i.Offset()), true
	case insts.SPRelativeLoadStore:
		return c.thumbTransfer(i.Load(), false, i.Rd(), c.reg(SP)+i.Offset()), true
	case insts.LoadStoreSignExtended:
		return c.thumbSignExtended(i), true
	case insts.LoadStoreHalfword:
		addr := c.reg(i.Rb()) + i.Offset()
		if i.Load() {
			return c.finishLoad(i.Rd(), c.loadHalf(addr, NonSequential)), true
		}
		c.bus.Store16(addr&^1, uint16(c.reg(i.Rd())), NonSequential)
		return Advance(NonSequential), true
	case insts.LoadAddress:
		base := c.reg(PC) &^ 2
		if i.FromSP() {
			base = c.reg(SP)
		}
		c.setReg(i.Rd(), base+i.Offset())
	case insts.AddOffsetToSP:
		c.setReg(SP, uint32(int32(c.reg(SP))+i.Offset()))
	case insts.PushPopRegisters:
		return c.thumbPushPop(i), true
	case insts.MultipleLoadStore:
		return c.transferBlock(blockTransfer{
			rn:        i.Rb(),
			list:      uint16(i.RegisterList()),
			up:        true,
			load:      i.Load(),
			writeBack: true,
			bank:      c.Mode(),
		}), true
	case insts.ConditionalBranch:
		return c.conditionalBranch(i)
	case insts.ThumbSWI:
		return c.enterException(ExceptionSoftwareInterrupt, c.reg(PC)-2), true
	case insts.UnconditionalBranch:
		return c.unconditionalBranch(i), true
	case insts.LongBranchWithLink:
		return c.longBranchWithLink(i), true
	case insts.ThumbUndefinedInstruction:
		return c.enterException(ExceptionUndefined, c.reg(PC)-2), true
	default:
		panic(fmt.Sprintf("unhandled thumb instruction kind %s", inst.Kind()))
	}

	return Advance(Sequential), true
}

func (c *CPU) thumbAddSubtract(i insts.AddSubtract) {
	operand := uint32(i.Rn())
	if !i.IsImmediate() {
		operand = c.reg(i.Rn())
	}

	var result uint32
	if i.Subtract() {
		result = c.alu.Sub(c.reg(i.Rs()), operand, true, true)
	} else {
		result = c.alu.Add(c.reg(i.Rs()), operand, false, true)
	}
	c.setReg(i.Rd(), result)
}

func (c *CPU) thumbImmediate(i insts.MoveCompareAddSubtractImmediate) {
	rd, imm := i.Rd(), i.Immediate()
	switch i.Op() {
	case insts.ImmMOV:
		c.setReg(rd, c.alu.Logical(imm, c.cpsr.Carry(), true))
	case insts.ImmCMP:
		c.alu.Sub(c.reg(rd), imm, true, true)
	case insts.ImmADD:
		c.setReg(rd, c.alu.Add(c.reg(rd), imm, false, true))
	case insts.ImmSUB:
		c.setReg(rd, c.alu.Sub(c.reg(rd), imm, true, true))
	}
}

var thumbShiftTypes = map[insts.ALUOp]insts.ShiftType{
	insts.ALULSL: insts.ShiftLSL,
	insts.ALULSR: insts.ShiftLSR,
	insts.ALUASR: insts.ShiftASR,
	insts.ALUROR: insts.ShiftROR,
}

func (c *CPU) thumbALU(i insts.ALUOperation) Action {
	rd := i.Rd()
	a, b := c.reg(rd), c.reg(i.Rs())
	carry := c.cpsr.Carry()

	switch op := i.Op(); op {
	case insts.ALUAND:
		c.setReg(rd, c.alu.Logical(a&b, carry, true))
	case insts.ALUEOR:
		c.setReg(rd, c.alu.Logical(a^b, carry, true))
	case insts.ALUORR:
		c.setReg(rd, c.alu.Logical(a|b, carry, true))
	case insts.ALUBIC:
		c.setReg(rd, c.alu.Logical(a&^b, carry, true))
	case insts.ALUMVN:
		c.setReg(rd, c.alu.Logical(^b, carry, true))
	case insts.ALUTST:
		c.alu.Logical(a&b, carry, true)
	case insts.ALULSL, insts.ALULSR, insts.ALUASR, insts.ALUROR:
		value := Shift(thumbShiftTypes[op], a, b&0xFF, &carry, false)
		c.setReg(rd, c.alu.Logical(value, carry, true))
		c.idle(1)
	case insts.ALUADC:
		c.setReg(rd, c.alu.Add(a, b, carry, true))
	case insts.ALUSBC:
		c.setReg(rd, c.alu.Sub(a, b, carry, true))
	case insts.ALUNEG:
		c.setReg(rd, c.alu.Sub(0, b, true, true))
	case insts.ALUCMP:
		c.alu.Sub(a, b, true, true)
	case insts.ALUCMN:
		c.alu.Add(a, b, false, true)
	case insts.ALUMUL:
		result := a * b
		c.setReg(rd, result)
		c.alu.SetMultiplyFlags(result>>31 == 1, result == 0)
		c.idle(multiplierCycles(a, true))
		return Advance(NonSequential)
	}

	return Advance(Sequential)
}

// thumbHiRegister covers ADD, CMP and MOV across all sixteen registers, and
// BX. Only CMP sets flags.
func (c *CPU) thumbHiRegister(i insts.HiRegisterOperation) Action {
	rd, rs := i.Rd(), i.Rs()

	var result uint32
	switch i.Op() {
	case insts.HiADD:
		result = c.reg(rd) + c.reg(rs)
	case insts.HiCMP:
		c.alu.Sub(c.reg(rd), c.reg(rs), true, true)
		return Advance(Sequential)
	case insts.HiMOV:
		result = c.reg(rs)
	default:
		return c.branchAndExchange(rs)
	}

	if rd == PC {
		c.branchTo(result)
		return PipelineFlush
	}
	c.setReg(rd, result)
	return Advance(Sequential)
}

// thumbTransfer performs a word or byte LDR/STR.
func (c *CPU) thumbTransfer(load, byteWide bool, rd uint8, addr uint32) Action {
	if load {
		if byteWide {
			return c.finishLoad(rd, uint32(c.bus.Load8(addr, NonSequential)))
		}
		return c.finishLoad(rd, c.loadWord(addr, NonSequential))
	}

	if byteWide {
		c.bus.Store8(addr, uint8(c.reg(rd)), NonSequential)
	} else {
		c.bus.Store32(addr&^3, c.reg(rd), NonSequential)
	}
	return Advance(NonSequential)
}

func (c *CPU) thumbSignExtended(i insts.LoadStoreSignExtended) Action {
	addr := c.reg(i.Rb()) + c.reg(i.Ro())

	switch i.Op() {
	case insts.OpSTRH:
		c.bus.Store16(addr&^1, uint16(c.reg(i.Rd())), NonSequential)
		return Advance(NonSequential)
	case insts.OpLDSB:
		return c.finishLoad(i.Rd(), c.loadSignedByte(addr, NonSequential))
	case insts.OpLDRH:
		return c.finishLoad(i.Rd(), c.loadHalf(addr, NonSequential))
	default:
		return c.finishLoad(i.Rd(), c.loadSignedHalf(addr, NonSequential))
	}
}

// thumbPushPop is STMDB SP! with optional LR, or LDMIA SP! with optional PC.
func (c *CPU) thumbPushPop(i insts.PushPopRegisters) Action {
	list := uint16(i.RegisterList())
	if i.StoreLRLoadPC() {
		if i.Load() {
			list |= 1 << PC
		} else {
			list |= 1 << LR
		}
	}

	return c.transferBlock(blockTransfer{
		rn:        SP,
		list:      list,
		pre:       !i.Load(),
		up:        i.Load(),
		load:      i.Load(),
		writeBack: true,
		bank:      c.Mode(),
	})
}
