package emu

import (
	"fmt"

	"github.com/sarchlab/arm7sim/insts"
)

// executeARM runs a decoded ARM instruction whose condition passed.
func (c *CPU) executeARM(inst insts.Instruction) (Action, error) {
	switch i := inst.(type) {
	case insts.DataProcessing:
		return c.dataProcessing(i)
	case insts.Multiply:
		return c.multiply(i), nil
	case insts.MultiplyLong:
		return c.multiplyLong(i), nil
	case insts.PsrToRegister:
		return c.psrToRegister(i), nil
	case insts.RegisterToPsr:
		return c.registerToPsr(i)
	case insts.Branch:
		return c.branch(i), nil
	case insts.BranchAndExchange:
		return c.branchAndExchange(i.Rn()), nil
	case insts.SingleDataTransfer:
		return c.singleDataTransfer(i), nil
	case insts.HalfwordTransfer:
		return c.halfwordTransfer(i), nil
	case insts.BlockDataTransfer:
		return c.blockDataTransfer(i)
	case insts.SingleDataSwap:
		return c.singleDataSwap(i), nil
	case insts.SoftwareInterrupt:
		return c.enterException(ExceptionSoftwareInterrupt, c.reg(PC)-4), nil
	case insts.Undefined, insts.Coprocessor:
		return c.enterException(ExceptionUndefined, c.reg(PC)-4), nil
	default:
		panic(fmt.Sprintf("unhandled instruction kind %s", inst.Kind()))
	}
}

func (c *CPU) dataProcessing(i insts.DataProcessing) (Action, error) {
	carry := c.cpsr.Carry()

	var op2 uint32
	if i.IsImmediate() {
		op2 = rotatedImmediate(i.Immediate(), i.Rotate(), &carry)
	} else {
		s := i.Operand2()
		amount := s.Amount()
		if s.ByRegister() {
			if s.Rm() == PC || i.Rn() == PC {
				return Advance(Sequential), ErrRegisterShiftPC
			}
			amount = c.reg(s.Rs()) & 0xFF
			c.idle(1)
		}
		op2 = Shift(s.ShiftType(), c.reg(s.Rm()), amount, &carry, !s.ByRegister())
	}

	// Mode return: the saved status comes back with the PC. It is checked
	// before the ALU touches the flags so a rejection changes nothing.
	rd := i.Rd()
	var restore *StatusRegister
	if i.SetFlags() && rd == PC {
		if m := c.Mode(); m.HasSPSR() {
			saved, err := ParseStatusRegister(c.regs.SPSR(m).Value())
			if err != nil {
				return Advance(Sequential), fmt.Errorf("mode return from %s: %w", m, err)
			}
			restore = &saved
		}
	}

	result, writeBack := c.alu.Execute(i.Opcode(), c.reg(i.Rn()), op2, carry, i.SetFlags())

	stateChanged := false
	if restore != nil {
		stateChanged = restore.State() != c.cpsr.State()
		c.setCPSR(*restore)
	}

	if !writeBack {
		if stateChanged {
			// The prefetched words have the old width; refetch the next
			// instruction in the restored state.
			c.branchTo(c.reg(PC) - armPipelineLead/2)
			return PipelineFlush, nil
		}
		return Advance(Sequential), nil
	}

	if rd == PC {
		c.branchTo(result)
		return PipelineFlush, nil
	}
	c.setReg(rd, result)
	return Advance(Sequential), nil
}

// multiplierCycles returns the number of internal cycles the multiplier
// spends on rs: one per significant byte, where a byte of all zeros (or all
// ones, for signed forms) terminates early.
func multiplierCycles(rs uint32, signed bool) int {
	for m, mask := 1, uint32(0xFFFFFF00); m < 4; m, mask = m+1, mask<<8 {
		top := rs & mask
		if top == 0 || (signed && top == mask) {
			return m
		}
	}
	return 4
}

func (c *CPU) multiply(i insts.Multiply) Action {
	rs := c.reg(i.Rs())
	result := c.reg(i.Rm()) * rs
	cycles := multiplierCycles(rs, true)
	if i.Accumulate() {
		result += c.reg(i.Rn())
		cycles++
	}

	c.setReg(i.Rd(), result)
	if i.SetFlags() {
		c.alu.SetMultiplyFlags(result>>31 == 1, result == 0)
	}

	c.idle(cycles)
	return Advance(NonSequential)
}

func (c *CPU) multiplyLong(i insts.MultiplyLong) Action {
	rm, rs := c.reg(i.Rm()), c.reg(i.Rs())

	var result uint64
	if i.Signed() {
		result = uint64(int64(int32(rm)) * int64(int32(rs)))
	} else {
		result = uint64(rm) * uint64(rs)
	}

	cycles := multiplierCycles(rs, i.Signed()) + 1
	if i.Accumulate() {
		result += uint64(c.reg(i.RdHi()))<<32 | uint64(c.reg(i.RdLo()))
		cycles++
	}

	c.setReg(i.RdLo(), uint32(result))
	c.setReg(i.RdHi(), uint32(result>>32))
	if i.SetFlags() {
		c.alu.SetMultiplyFlags(result>>63 == 1, result == 0)
	}

	c.idle(cycles)
	return Advance(NonSequential)
}

// psrToRegister is MRS. Reading the SPSR in a mode without one yields the
// CPSR.
func (c *CPU) psrToRegister(i insts.PsrToRegister) Action {
	value := c.cpsr.Value()
	if i.SPSR() {
		if m := c.Mode(); m.HasSPSR() {
			value = c.regs.SPSR(m).Value()
		}
	}
	c.setReg(i.Rd(), value)
	return Advance(Sequential)
}

// registerToPsr is MSR. The field mask selects the flag byte and the control
// byte. Rejected writes leave every register untouched.
func (c *CPU) registerToPsr(i insts.RegisterToPsr) (Action, error) {
	var operand uint32
	if i.IsImmediate() {
		carry := c.cpsr.Carry()
		operand = rotatedImmediate(i.Immediate(), i.Rotate(), &carry)
	} else {
		operand = c.reg(i.Rm())
	}

	var mask uint32
	if i.WritesFlags() {
		mask |= PSRFlagsMask
	}
	if i.WritesControl() {
		mask |= PSRControlMask
	}

	mode := c.Mode()
	if i.SPSR() {
		if !mode.HasSPSR() {
			return Advance(Sequential), fmt.Errorf("MSR SPSR in %s mode: %w", mode, ErrNoSavedStatus)
		}
		old := c.regs.SPSR(mode)
		psr, err := ParseStatusRegister(old.Value()&^mask | operand&mask)
		if err != nil {
			return Advance(Sequential), fmt.Errorf("MSR SPSR: %w", err)
		}
		c.regs.SetSPSR(mode, psr)
		return Advance(Sequential), nil
	}

	if i.WritesControl() && !mode.Privileged() {
		return Advance(Sequential), ErrPrivilegedPSRWrite
	}

	// The state bit only changes through BX and exceptions.
	mask &^= 1 << psrT
	psr, err := ParseStatusRegister(c.cpsr.Value()&^mask | operand&mask)
	if err != nil {
		return Advance(Sequential), fmt.Errorf("MSR CPSR: %w", err)
	}
	c.setCPSR(psr)
	return Advance(Sequential), nil
}
