package emu

import "fmt"

// Register aliases.
const (
	SP = 13
	LR = 14
	PC = 15
)

// bank identifies a register bank. User and System share bankUser.
type bank uint8

const (
	bankUser bank = iota
	bankFiq
	bankIrq
	bankSupervisor
	bankAbort
	bankUndefined

	numBanks
)

func bankOf(m Mode) bank {
	switch m {
	case ModeUser, ModeSystem:
		return bankUser
	case ModeFiq:
		return bankFiq
	case ModeIrq:
		return bankIrq
	case ModeSupervisor:
		return bankSupervisor
	case ModeAbort:
		return bankAbort
	case ModeUndefined:
		return bankUndefined
	default:
		panic(fmt.Sprintf("register bank for invalid mode 0x%02X", uint8(m)))
	}
}

// Physical cell layout of the register arena:
//
//	0-7    R0-R7 (all modes)
//	8-12   R8-R12 (all modes but FIQ)
//	13-17  R8-R12 FIQ
//	18-29  R13/R14 pairs for USR, FIQ, IRQ, SVC, ABT, UND
//	30     R15
const (
	cellFiqHigh = 13
	cellBanked  = 18
	cellPC      = 30
	numCells    = 31
)

// cellIndex maps (bank, logical register) to a physical cell.
var cellIndex = func() (t [numBanks][16]uint8) {
	for b := bank(0); b < numBanks; b++ {
		for r := 0; r < 16; r++ {
			switch {
			case r < 8:
				t[b][r] = uint8(r)
			case r <= 12 && b == bankFiq:
				t[b][r] = uint8(cellFiqHigh + r - 8)
			case r <= 12:
				t[b][r] = uint8(r)
			case r <= 14:
				t[b][r] = uint8(cellBanked + 2*int(b) + r - 13)
			default:
				t[b][r] = cellPC
			}
		}
	}
	return t
}()

// RegFile represents the ARM7TDMI register file: sixteen logical registers
// over a fixed arena of physical cells, plus the saved status registers.
// It is pure storage; R15 pipeline semantics belong to the CPU.
type RegFile struct {
	cells [numCells]uint32
	spsr  [numBanks]StatusRegister
}

func checkIndex(index uint8) {
	if index > 15 {
		panic(fmt.Sprintf("register index R%d out of range", index))
	}
}

// Read returns logical register index as seen from mode.
func (r *RegFile) Read(index uint8, mode Mode) uint32 {
	checkIndex(index)
	return r.cells[cellIndex[bankOf(mode)][index]]
}

// Write stores value into logical register index as seen from mode.
func (r *RegFile) Write(index uint8, mode Mode, value uint32) {
	checkIndex(index)
	r.cells[cellIndex[bankOf(mode)][index]] = value
}

// SPSR returns the saved status register of mode. Asking for the saved
// register of User or System mode is a programming error.
func (r *RegFile) SPSR(mode Mode) StatusRegister {
	if !mode.HasSPSR() {
		panic(fmt.Sprintf("mode %s has no saved status register", mode))
	}
	return r.spsr[bankOf(mode)]
}

// SetSPSR replaces the saved status register of mode.
func (r *RegFile) SetSPSR(mode Mode, psr StatusRegister) {
	if !mode.HasSPSR() {
		panic(fmt.Sprintf("mode %s has no saved status register", mode))
	}
	r.spsr[bankOf(mode)] = psr
}
