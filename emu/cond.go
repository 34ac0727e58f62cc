package emu

import (
	"fmt"

	"github.com/sarchlab/arm7sim/insts"
)

// CheckCondition evaluates a condition code against a status register's
// flags. The reserved NV encoding is rejected with ErrReservedCondition.
func CheckCondition(psr StatusRegister, cond insts.Cond) (bool, error) {
	n, z, c, v := psr.Negative(), psr.Zero(), psr.Carry(), psr.Overflow()

	switch cond {
	case insts.CondEQ:
		return z, nil
	case insts.CondNE:
		return !z, nil
	case insts.CondCS:
		return c, nil
	case insts.CondCC:
		return !c, nil
	case insts.CondMI:
		return n, nil
	case insts.CondPL:
		return !n, nil
	case insts.CondVS:
		return v, nil
	case insts.CondVC:
		return !v, nil
	case insts.CondHI:
		return c && !z, nil
	case insts.CondLS:
		return !c || z, nil
	case insts.CondGE:
		return n == v, nil
	case insts.CondLT:
		return n != v, nil
	case insts.CondGT:
		return !z && n == v, nil
	case insts.CondLE:
		return z || n != v, nil
	case insts.CondAL:
		return true, nil
	default:
		return false, fmt.Errorf("condition 0b%04b: %w", uint8(cond), ErrReservedCondition)
	}
}
