package emu

import "errors"

var (
	// ErrInvalidMode is returned when a status register's mode field is not
	// one of the seven legal patterns.
	ErrInvalidMode = errors.New("invalid processor mode")

	// ErrReservedCondition is returned for the reserved condition encoding.
	ErrReservedCondition = errors.New("reserved condition code")

	// ErrUnsupportedForceUserLoad is returned for LDM with the S bit set and
	// R15 in the register list. The instruction has no effect.
	ErrUnsupportedForceUserLoad = errors.New("LDM with S bit and R15 in list is not supported")

	// ErrRegisterShiftPC is returned when R15 is an operand of a data
	// processing instruction whose shift amount comes from a register. The
	// instruction has no effect.
	ErrRegisterShiftPC = errors.New("R15 operand with register-specified shift is not supported")

	// ErrPrivilegedPSRWrite is returned when User mode code tries to write
	// the control byte of a status register. The instruction has no effect.
	ErrPrivilegedPSRWrite = errors.New("status register control write from User mode")

	// ErrNoSavedStatus is returned when an instruction writes the saved
	// status register in a mode that has none.
	ErrNoSavedStatus = errors.New("mode has no saved status register")
)
