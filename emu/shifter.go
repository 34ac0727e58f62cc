package emu

import "github.com/sarchlab/arm7sim/insts"

// The shift functions implement the barrel shifter. Each returns the shifted
// value and writes the carry-out through carry. immediate selects the
// encoding-specific meaning of a zero amount: for immediate shifts LSR #0
// and ASR #0 mean a shift by 32 and ROR #0 means RRX; for register-specified
// shifts an amount of zero leaves both value and carry untouched.

// LSL performs a logical shift left.
func LSL(value, amount uint32, carry *bool) uint32 {
	switch {
	case amount == 0:
		return value
	case amount < 32:
		*carry = value>>(32-amount)&1 == 1
		return value << amount
	case amount == 32:
		*carry = value&1 == 1
		return 0
	default:
		*carry = false
		return 0
	}
}

// LSR performs a logical shift right.
func LSR(value, amount uint32, carry *bool, immediate bool) uint32 {
	if amount == 0 {
		if !immediate {
			return value
		}
		amount = 32
	}

	switch {
	case amount < 32:
		*carry = value>>(amount-1)&1 == 1
		return value >> amount
	case amount == 32:
		*carry = value>>31 == 1
		return 0
	default:
		*carry = false
		return 0
	}
}

// ASR performs an arithmetic shift right.
func ASR(value, amount uint32, carry *bool, immediate bool) uint32 {
	if amount == 0 {
		if !immediate {
			return value
		}
		amount = 32
	}

	if amount < 32 {
		*carry = value>>(amount-1)&1 == 1
		return uint32(int32(value) >> amount)
	}

	*carry = value>>31 == 1
	return uint32(int32(value) >> 31)
}

// ROR performs a rotate right, or RRX for an immediate amount of zero.
func ROR(value, amount uint32, carry *bool, immediate bool) uint32 {
	if amount == 0 {
		if !immediate {
			return value
		}
		// RRX: carry in becomes bit 31, bit 0 becomes carry out.
		var in uint32
		if *carry {
			in = 1 << 31
		}
		*carry = value&1 == 1
		return value>>1 | in
	}

	amount &= 31
	if amount == 0 {
		*carry = value>>31 == 1
		return value
	}

	result := value>>amount | value<<(32-amount)
	*carry = result>>31 == 1
	return result
}

// Shift applies the shift selected by shiftType.
func Shift(shiftType insts.ShiftType, value, amount uint32, carry *bool, immediate bool) uint32 {
	switch shiftType {
	case insts.ShiftLSL:
		return LSL(value, amount, carry)
	case insts.ShiftLSR:
		return LSR(value, amount, carry, immediate)
	case insts.ShiftASR:
		return ASR(value, amount, carry, immediate)
	default:
		return ROR(value, amount, carry, immediate)
	}
}

// rotatedImmediate expands an 8-bit immediate rotated right by twice rotate.
// A zero rotation leaves carry unchanged.
func rotatedImmediate(imm, rotate uint32, carry *bool) uint32 {
	return ROR(imm, rotate*2, carry, false)
}
