package emu

import "github.com/sarchlab/arm7sim/insts"

// ALU implements the ARM data-processing operations and their flag rules.
type ALU struct {
	psr *StatusRegister
}

// NewALU creates a new ALU that reads and updates the given status register.
func NewALU(psr *StatusRegister) *ALU {
	return &ALU{psr: psr}
}

// Execute performs a data-processing opcode. shifterCarry is the carry-out
// of the operand-2 shifter, used as C by the logical operations. writeBack
// is false for the comparison forms, which only update flags.
func (a *ALU) Execute(op insts.Opcode, op1, op2 uint32, shifterCarry, setFlags bool) (result uint32, writeBack bool) {
	switch op {
	case insts.OpAND, insts.OpTST:
		result = a.Logical(op1&op2, shifterCarry, setFlags)
	case insts.OpEOR, insts.OpTEQ:
		result = a.Logical(op1^op2, shifterCarry, setFlags)
	case insts.OpORR:
		result = a.Logical(op1|op2, shifterCarry, setFlags)
	case insts.OpMOV:
		result = a.Logical(op2, shifterCarry, setFlags)
	case insts.OpBIC:
		result = a.Logical(op1&^op2, shifterCarry, setFlags)
	case insts.OpMVN:
		result = a.Logical(^op2, shifterCarry, setFlags)
	case insts.OpSUB, insts.OpCMP:
		result = a.Sub(op1, op2, true, setFlags)
	case insts.OpRSB:
		result = a.Sub(op2, op1, true, setFlags)
	case insts.OpADD, insts.OpCMN:
		result = a.Add(op1, op2, false, setFlags)
	case insts.OpADC:
		result = a.Add(op1, op2, a.psr.Carry(), setFlags)
	case insts.OpSBC:
		result = a.Sub(op1, op2, a.psr.Carry(), setFlags)
	case insts.OpRSC:
		result = a.Sub(op2, op1, a.psr.Carry(), setFlags)
	}

	return result, !op.IsComparison()
}

// Logical returns result, updating N and Z from it and C from the shifter.
// V is left untouched.
func (a *ALU) Logical(result uint32, shifterCarry, setFlags bool) uint32 {
	if setFlags {
		a.setNZ(result)
		a.psr.SetCarry(shifterCarry)
	}
	return result
}

// Add computes op1 + op2 + carryIn. C is the unsigned carry out and V the
// signed overflow.
func (a *ALU) Add(op1, op2 uint32, carryIn, setFlags bool) uint32 {
	wide := uint64(op1) + uint64(op2)
	if carryIn {
		wide++
	}
	result := uint32(wide)

	if setFlags {
		a.setNZ(result)
		a.psr.SetCarry(wide>>32 != 0)
		a.psr.SetOverflow((op1^result)&(op2^result)>>31 == 1)
	}
	return result
}

// Sub computes op1 - op2 - !carryIn. C is set when no borrow occurs and V is
// the signed overflow.
func (a *ALU) Sub(op1, op2 uint32, carryIn, setFlags bool) uint32 {
	var borrow uint64
	if !carryIn {
		borrow = 1
	}
	result := uint32(uint64(op1) - uint64(op2) - borrow)

	if setFlags {
		a.setNZ(result)
		a.psr.SetCarry(uint64(op1) >= uint64(op2)+borrow)
		a.psr.SetOverflow((op1^op2)&(op1^result)>>31 == 1)
	}
	return result
}

// SetMultiplyFlags updates N and Z after a multiply. C and V are left as
// they were.
func (a *ALU) SetMultiplyFlags(negative, zero bool) {
	a.psr.SetNegative(negative)
	a.psr.SetZero(zero)
}

func (a *ALU) setNZ(result uint32) {
	a.psr.SetNegative(result>>31 == 1)
	a.psr.SetZero(result == 0)
}
