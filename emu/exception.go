package emu

// Exception identifies an exception entry.
type Exception uint8

// Exceptions.
const (
	ExceptionReset Exception = iota
	ExceptionUndefined
	ExceptionSoftwareInterrupt
	ExceptionPrefetchAbort
	ExceptionDataAbort
	ExceptionIRQ
	ExceptionFIQ
)

var exceptionInfo = [...]struct {
	name   string
	vector uint32
	mode   Mode
}{
	ExceptionReset:             {"Reset", 0x00, ModeSupervisor},
	ExceptionUndefined:         {"Undefined", 0x04, ModeUndefined},
	ExceptionSoftwareInterrupt: {"SoftwareInterrupt", 0x08, ModeSupervisor},
	ExceptionPrefetchAbort:     {"PrefetchAbort", 0x0C, ModeAbort},
	ExceptionDataAbort:         {"DataAbort", 0x10, ModeAbort},
	ExceptionIRQ:               {"IRQ", 0x18, ModeIrq},
	ExceptionFIQ:               {"FIQ", 0x1C, ModeFiq},
}

func (e Exception) String() string { return exceptionInfo[e].name }

// Vector returns the exception's entry address.
func (e Exception) Vector() uint32 { return exceptionInfo[e].vector }

// Mode returns the mode the exception is taken in.
func (e Exception) Mode() Mode { return exceptionInfo[e].mode }

// enterException saves the CPSR into the target mode's SPSR, switches mode,
// forces ARM state, masks interrupts, sets the banked LR and jumps to the
// vector.
func (c *CPU) enterException(e Exception, returnAddr uint32) Action {
	mode := e.Mode()
	old := c.cpsr

	psr := old
	psr.SetMode(mode)
	psr.SetState(StateARM)
	psr.SetIRQDisable(true)
	if e == ExceptionFIQ || e == ExceptionReset {
		psr.SetFIQDisable(true)
	}

	c.regs.SetSPSR(mode, old)
	c.setCPSR(psr)
	c.setReg(LR, returnAddr)

	c.log.V(1).Info("exception", "kind", e.String(), "return", hex(returnAddr), "from", old.String())

	c.branchTo(e.Vector())
	return PipelineFlush
}

// nextInstruction returns the address of the instruction the next Step
// would execute.
func (c *CPU) nextInstruction() uint32 {
	if c.cpsr.State() == StateThumb {
		return c.reg(PC) - thumbPipelineLead
	}
	return c.reg(PC) - armPipelineLead
}

// RaiseIRQ takes the IRQ exception between instructions unless IRQs are
// masked. It reports whether the exception was taken. The handler returns
// with SUBS PC, LR, #4.
func (c *CPU) RaiseIRQ() bool {
	if c.cpsr.IRQDisable() {
		return false
	}
	c.enterException(ExceptionIRQ, c.nextInstruction()+4)
	return true
}

// RaiseFIQ takes the FIQ exception between instructions unless FIQs are
// masked.
func (c *CPU) RaiseFIQ() bool {
	if c.cpsr.FIQDisable() {
		return false
	}
	c.enterException(ExceptionFIQ, c.nextInstruction()+4)
	return true
}
