// Package core provides the cycle-accounting CPU core model.
// It wraps the functional CPU with a timed bus to provide a high-level
// interface for timing runs.
package core

import (
	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/timing/latency"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated, bus and idle.
	Cycles uint64
	// Instructions is the number of pipeline steps, including instructions
	// whose condition failed.
	Instructions uint64
	// Sequential is the number of S bus cycles.
	Sequential uint64
	// NonSequential is the number of N bus cycles.
	NonSequential uint64
	// Idle is the number of internal cycles.
	Idle uint64
	// Flushes is the number of pipeline refills caused by instructions.
	Flushes uint64
	// PrefetchHits is the number of loads served by the prefetch buffer.
	PrefetchHits uint64
}

// CPI returns the cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithLatencyTable sets the wait-state table. The default is the power-on
// timing.
func WithLatencyTable(table *latency.Table) Option {
	return func(c *Core) {
		c.table = table
	}
}

// WithCPUOptions passes options through to the wrapped CPU.
func WithCPUOptions(opts ...emu.Option) Option {
	return func(c *Core) {
		c.cpuOpts = append(c.cpuOpts, opts...)
	}
}

// WithMaxInstructions halts the core after n instructions. Zero means no
// limit.
func WithMaxInstructions(n uint64) Option {
	return func(c *Core) {
		c.maxInstructions = n
	}
}

// Core represents a cycle-accounting CPU core model.
type Core struct {
	// CPU is the underlying functional core.
	CPU *emu.CPU

	bus     *timedBus
	table   *latency.Table
	cpuOpts []emu.Option

	maxInstructions uint64
	instructions    uint64
	flushes         uint64

	halted   bool
	idleLoop bool
	lastErr  error
}

// NewCore creates a new Core whose CPU issues its accesses to bus.
func NewCore(bus emu.Bus, opts ...Option) *Core {
	c := &Core{}
	for _, opt := range opts {
		opt(c)
	}
	if c.table == nil {
		c.table = latency.NewTable()
	}

	c.bus = newTimedBus(bus, c.table)
	c.CPU = emu.NewCPU(c.bus, c.cpuOpts...)
	c.resetStats()

	return c
}

// SetPC moves execution to pc. The refill is charged like any other.
func (c *Core) SetPC(pc uint32) {
	c.CPU.SetProgramCounter(pc)
}

// PC returns the address of the next instruction to execute.
func (c *Core) PC() uint32 {
	lead := uint32(8)
	if c.CPU.StatusRegister().State() == emu.StateThumb {
		lead = 4
	}
	return c.CPU.Register(emu.PC) - lead
}

// Tick executes one instruction.
func (c *Core) Tick() emu.StepResult {
	if c.halted {
		return emu.StepResult{}
	}

	pc := c.PC()
	result := c.CPU.Step()
	c.instructions++
	if result.Err != nil {
		c.lastErr = result.Err
	}

	if result.Action.Kind == emu.ActionPipelineFlush {
		c.flushes++
		if c.PC() == pc {
			c.idleLoop = true
			c.halted = true
		}
	}
	if c.maxInstructions > 0 && c.instructions >= c.maxInstructions {
		c.halted = true
	}

	return result
}

// Halted returns true once the core reached an idle loop or the
// instruction limit.
func (c *Core) Halted() bool {
	return c.halted
}

// IdleLoop reports whether the core halted on a branch to itself.
func (c *Core) IdleLoop() bool {
	return c.idleLoop
}

// LastError returns the most recent unsupported-instruction error, if any.
func (c *Core) LastError() error {
	return c.lastErr
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	counters := c.bus.counters
	return Stats{
		Cycles:        counters.cycles,
		Instructions:  c.instructions,
		Sequential:    counters.sequential,
		NonSequential: counters.nonSequential,
		Idle:          counters.idle,
		Flushes:       c.flushes,
		PrefetchHits:  counters.prefetchHits,
	}
}

// Run executes the core until it halts.
func (c *Core) Run() Stats {
	for !c.halted {
		c.Tick()
	}
	return c.Stats()
}

// RunCycles executes the core until at least the specified number of
// cycles have elapsed. Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	target := c.bus.counters.cycles + cycles
	for c.bus.counters.cycles < target && !c.halted {
		c.Tick()
	}
	return !c.halted
}

// Reset puts the CPU back in its power-on state and clears all statistics.
func (c *Core) Reset() {
	c.CPU.Reset()
	c.resetStats()
}

func (c *Core) resetStats() {
	c.bus.reset()
	c.instructions = 0
	c.flushes = 0
	c.halted = false
	c.idleLoop = false
	c.lastErr = nil
}
