// Package emu provides functional ARM7TDMI emulation.
//
// The CPU type owns the register file and status registers and advances a
// two-slot prefetch pipeline one instruction per Step. All memory traffic
// goes through a Bus supplied by the host, tagged Sequential or
// NonSequential for the external timing model.
package emu

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/arm7sim/insts"
)

// ClockSpeed is the ARM7TDMI clock of the handheld console, in Hz.
const ClockSpeed = 16777216

// Reset values used when the boot firmware is skipped.
const (
	CartridgeEntry    = 0x08000000
	skipBIOSUserSP    = 0x03007F00
	skipBIOSIrqSP     = 0x03007FA0
	skipBIOSSvcSP     = 0x03007FE0
	armPipelineLead   = 8
	thumbPipelineLead = 4
)

// ActionKind tells the step loop how an executed instruction left the PC.
type ActionKind uint8

// Action kinds.
const (
	// ActionAdvance means the PC moves to the next instruction.
	ActionAdvance ActionKind = iota
	// ActionPipelineFlush means the PC was replaced and the pipeline refilled.
	ActionPipelineFlush
)

// Action is the control-flow and timing outcome of one instruction.
type Action struct {
	Kind ActionKind
	// Access is the classification of the next instruction fetch.
	Access Access
}

// Advance returns an Action that moves to the next instruction, fetching
// it with the given access classification.
func Advance(access Access) Action {
	return Action{Kind: ActionAdvance, Access: access}
}

// PipelineFlush is the Action of any instruction that replaced the PC.
var PipelineFlush = Action{Kind: ActionPipelineFlush, Access: NonSequential}

func (a Action) String() string {
	if a.Kind == ActionPipelineFlush {
		return "PipelineFlush"
	}
	return "Advance(" + a.Access.String() + ")"
}

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Action is how the instruction left the pipeline.
	Action Action

	// Executed is false when the condition check failed.
	Executed bool

	// Err is set when the instruction was one of the unsupported
	// combinations and was retired without effect. The step still
	// completed and consumed its pipeline slot.
	Err error
}

// CPU is an ARM7TDMI core.
type CPU struct {
	regs RegFile
	cpsr StatusRegister

	bus     Bus
	idler   IdleCycler
	decoder *insts.Decoder
	alu     *ALU

	pipeline   [2]uint32
	nextAccess Access

	log        logr.Logger
	clockSpeed uint32
	skipBIOS   bool

	instructionCount uint64
}

// Option is a functional option for configuring the CPU.
type Option func(*CPU)

// WithLogger sets the logger used for exception and trace output.
// V(1) logs exceptions and refills, V(2) logs every instruction.
func WithLogger(log logr.Logger) Option {
	return func(c *CPU) {
		c.log = log
	}
}

// WithClockSpeed overrides the nominal clock speed reported by ClockSpeed.
func WithClockSpeed(hz uint32) Option {
	return func(c *CPU) {
		c.clockSpeed = hz
	}
}

// WithSkipBIOS starts the CPU in the state the boot firmware leaves it in:
// System mode, IRQs enabled, stacks set up and the PC at the cartridge.
func WithSkipBIOS() Option {
	return func(c *CPU) {
		c.skipBIOS = true
	}
}

// NewCPU creates a CPU attached to bus and fills its pipeline.
func NewCPU(bus Bus, opts ...Option) *CPU {
	c := &CPU{
		bus:        bus,
		decoder:    insts.NewDecoder(),
		log:        logr.Discard(),
		clockSpeed: ClockSpeed,
		nextAccess: NonSequential,
	}
	c.alu = NewALU(&c.cpsr)

	if idler, ok := bus.(IdleCycler); ok {
		c.idler = idler
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Reset()
	return c
}

// Reset puts the CPU in its power-on state and refills the pipeline.
func (c *CPU) Reset() {
	c.regs = RegFile{}
	c.instructionCount = 0

	if c.skipBIOS {
		c.cpsr = NewStatusRegister(uint32(ModeSystem))
		c.regs.Write(SP, ModeSystem, skipBIOSUserSP)
		c.regs.Write(LR, ModeSystem, CartridgeEntry)
		c.regs.Write(SP, ModeSupervisor, skipBIOSSvcSP)
		c.regs.Write(SP, ModeIrq, skipBIOSIrqSP)
		c.regs.Write(PC, ModeSystem, CartridgeEntry)
	} else {
		c.cpsr = NewStatusRegister(uint32(ModeSupervisor))
		c.cpsr.SetIRQDisable(true)
		c.cpsr.SetFIQDisable(true)
	}

	// A mode return before any exception entry lands back in the reset state.
	for _, m := range savedStatusModes {
		c.regs.SetSPSR(m, c.cpsr)
	}

	c.RefillPipeline()
}

// ClockSpeed returns the nominal clock speed in Hz.
func (c *CPU) ClockSpeed() uint32 {
	return c.clockSpeed
}

// InstructionCount returns the number of pipeline steps taken, including
// instructions whose condition failed.
func (c *CPU) InstructionCount() uint64 {
	return c.instructionCount
}

// Mode returns the current processor mode.
func (c *CPU) Mode() Mode {
	m, err := c.cpsr.Mode()
	if err != nil {
		// Every CPSR write is validated, so this is a core bug.
		panic(fmt.Sprintf("CPSR corrupted: %v", err))
	}
	return m
}

// Register returns a register as seen from the current mode. R15 reads
// return the pipelined value: the executing instruction's address plus 8
// in ARM state or plus 4 in Thumb state.
func (c *CPU) Register(index uint8) uint32 {
	return c.regs.Read(index, c.Mode())
}

// SetRegister writes a register as seen from the current mode. Writing R15
// does not refill the pipeline; use SetProgramCounter for that.
func (c *CPU) SetRegister(index uint8, value uint32) {
	c.regs.Write(index, c.Mode(), value)
}

// UserRegister returns a register from the User/System bank regardless of
// the current mode.
func (c *CPU) UserRegister(index uint8) uint32 {
	return c.regs.Read(index, ModeUser)
}

// StatusRegister returns the current program status register.
func (c *CPU) StatusRegister() StatusRegister {
	return c.cpsr
}

// SetStatusRegister replaces the CPSR. The mode is validated first, and the
// register bank switches together with it. A change of the T bit takes
// effect after RefillPipeline.
func (c *CPU) SetStatusRegister(psr StatusRegister) error {
	if _, err := psr.Mode(); err != nil {
		return fmt.Errorf("set CPSR: %w", err)
	}
	c.setCPSR(psr)
	return nil
}

// SavedStatusRegister returns the SPSR of the current mode. ok is false in
// User and System mode, which have none.
func (c *CPU) SavedStatusRegister() (psr StatusRegister, ok bool) {
	m := c.Mode()
	if !m.HasSPSR() {
		return StatusRegister{}, false
	}
	return c.regs.SPSR(m), true
}

// SetProgramCounter moves execution to addr: the pipeline is refilled so
// the next Step executes the instruction at addr.
func (c *CPU) SetProgramCounter(addr uint32) {
	c.branchTo(addr)
}

// RefillPipeline discards the prefetched instructions and refetches from
// the PC. The first fetch is NonSequential, the second Sequential. Afterwards
// R15 runs two instructions ahead.
func (c *CPU) RefillPipeline() {
	mode := c.Mode()
	pc := c.regs.Read(PC, mode)

	if c.cpsr.State() == StateThumb {
		pc &^= 1
		c.pipeline[0] = uint32(c.bus.Load16(pc, NonSequential))
		c.pipeline[1] = uint32(c.bus.Load16(pc+2, Sequential))
		c.regs.Write(PC, mode, pc+thumbPipelineLead)
	} else {
		pc &^= 3
		c.pipeline[0] = c.bus.Load32(pc, NonSequential)
		c.pipeline[1] = c.bus.Load32(pc+4, Sequential)
		c.regs.Write(PC, mode, pc+armPipelineLead)
	}
	c.nextAccess = Sequential

	c.log.V(1).Info("pipeline refill", "pc", hex(pc), "state", c.cpsr.State().String())
}

// Step advances the pipeline by one instruction: the prefetch slots shift,
// the next instruction is fetched, and the instruction leaving the pipeline
// is decoded, condition-checked and executed.
func (c *CPU) Step() StepResult {
	if c.cpsr.State() == StateThumb {
		return c.stepThumb()
	}
	return c.stepARM()
}

func (c *CPU) stepARM() StepResult {
	pc := c.reg(PC)
	word := c.pipeline[0]
	c.pipeline[0] = c.pipeline[1]
	c.pipeline[1] = c.bus.Load32(pc&^3, c.nextAccess)
	c.instructionCount++

	inst := c.decoder.Decode(word, pc-armPipelineLead)
	if c.log.V(2).Enabled() {
		c.log.V(2).Info("execute", "inst", insts.Format(inst), "cpsr", c.cpsr.String())
	}

	// The reserved condition never executes.
	if passed, err := CheckCondition(c.cpsr, inst.Cond()); err != nil || !passed {
		c.advance(armPipelineLead / 2)
		c.nextAccess = NonSequential
		return StepResult{Action: Advance(NonSequential)}
	}

	action, err := c.executeARM(inst)
	c.retire(action, armPipelineLead/2)
	if err != nil {
		c.log.Error(err, "instruction retired without effect", "inst", insts.Format(inst))
	}

	return StepResult{Action: action, Executed: true, Err: err}
}

func (c *CPU) stepThumb() StepResult {
	pc := c.reg(PC)
	half := uint16(c.pipeline[0])
	c.pipeline[0] = c.pipeline[1]
	c.pipeline[1] = uint32(c.bus.Load16(pc&^1, c.nextAccess))
	c.instructionCount++

	inst := c.decoder.DecodeThumb(half, pc-thumbPipelineLead)
	if c.log.V(2).Enabled() {
		c.log.V(2).Info("execute", "inst", fmt.Sprintf("%s 0x%04X @0x%08X", inst.Kind(), half, inst.PC()),
			"cpsr", c.cpsr.String())
	}

	action, executed := c.executeThumb(inst)
	c.retire(action, thumbPipelineLead/2)

	return StepResult{Action: action, Executed: executed}
}

func (c *CPU) retire(action Action, width uint32) {
	if action.Kind == ActionAdvance {
		c.advance(width)
		c.nextAccess = action.Access
	}
}

func (c *CPU) advance(width uint32) {
	c.regs.Write(PC, c.Mode(), c.reg(PC)+width)
}

// branchTo replaces the PC and refills the pipeline.
func (c *CPU) branchTo(addr uint32) {
	c.regs.Write(PC, c.Mode(), addr)
	c.RefillPipeline()
}

// setCPSR is the single place the mode changes. Bank selection is derived
// from the CPSR, so the switch is atomic.
func (c *CPU) setCPSR(psr StatusRegister) {
	c.cpsr = psr
}

func (c *CPU) reg(index uint8) uint32 {
	return c.regs.Read(index, c.Mode())
}

func (c *CPU) setReg(index uint8, value uint32) {
	c.regs.Write(index, c.Mode(), value)
}

func (c *CPU) idle(cycles int) {
	if c.idler != nil && cycles > 0 {
		c.idler.Idle(cycles)
	}
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
