// Package main provides the entry point for arm7sim.
// arm7sim runs ARM7TDMI programs functionally or with cycle accounting.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/loader"
	"github.com/sarchlab/arm7sim/timing/core"
	"github.com/sarchlab/arm7sim/timing/latency"
)

var (
	timing     = flag.Bool("timing", false, "Enable timing simulation mode")
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	verbosity  = flag.Int("v", 0, "Log verbosity (1: exceptions and refills, 2: every instruction)")
	maxInstr   = flag.Uint64("max", 1000000, "Maximum instructions to execute (0 = unlimited)")
	baseAddr   = flag.String("base", "0x08000000", "Load address for raw images")
	skipBIOS   = flag.Bool("skip-bios", true, "Start in the state the boot firmware leaves the CPU in")
)

// runOptions is what both modes need besides the program.
type runOptions struct {
	log             logr.Logger
	maxInstructions uint64
	skipBIOS        bool
}

func (o runOptions) cpuOptions() []emu.Option {
	opts := []emu.Option{emu.WithLogger(o.log)}
	if o.skipBIOS {
		opts = append(opts, emu.WithSkipBIOS())
	}
	return opts
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: arm7sim [options] <program.elf|image.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	base, err := strconv.ParseUint(*baseAddr, 0, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -base: %v\n", err)
		os.Exit(1)
	}

	prog, err := loadProgram(programPath, uint32(base))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	opts := runOptions{
		log:             newLogger(*verbosity),
		maxInstructions: *maxInstr,
		skipBIOS:        *skipBIOS,
	}

	if *verbosity > 0 {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%08X (thumb=%t)\n", prog.EntryPoint, prog.Thumb)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	if *timing {
		timingConfig := latency.DefaultTimingConfig()
		if *configPath != "" {
			timingConfig, err = latency.LoadConfig(*configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
				os.Exit(1)
			}
		}
		if err := timingConfig.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid timing config: %v\n", err)
			os.Exit(1)
		}

		c := runTiming(prog, opts, timingConfig)
		printTimingReport(programPath, c, timingConfig)
		os.Exit(exitStatus(c.IdleLoop()))
	}

	result := runEmulation(prog, opts)
	fmt.Printf("\nProgram: %s\n", programPath)
	fmt.Printf("Instructions executed: %d\n", result.instructions)
	fmt.Printf("Stopped at: 0x%08X (idle loop: %t)\n", result.pc, result.idleLoop)
	printRegisters(result.cpu)
	os.Exit(exitStatus(result.idleLoop))
}

// exitStatus is 0 when the program reached its idle loop and 3 when it ran
// into the instruction limit.
func exitStatus(idleLoop bool) int {
	if idleLoop {
		return 0
	}
	return 3
}

func newLogger(verbosity int) logr.Logger {
	if verbosity <= 0 {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity}).WithName("arm7sim")
}

// loadProgram reads an ELF file, or a raw image placed at base.
func loadProgram(path string, base uint32) (*loader.Program, error) {
	isELF, err := loader.IsELF(path)
	if err != nil {
		return nil, err
	}
	if isELF {
		return loader.Load(path)
	}
	return loader.LoadBinary(path, base)
}

// boot copies prog into memory and points cpu at its entry.
func boot(cpu *emu.CPU, memory *emu.Memory, prog *loader.Program) {
	prog.LoadInto(memory)
	cpu.SetRegister(emu.SP, prog.InitialSP)

	if prog.Thumb {
		psr := cpu.StatusRegister()
		psr.SetState(emu.StateThumb)
		// The current mode is valid, so this cannot fail.
		_ = cpu.SetStatusRegister(psr)
	}
	cpu.SetProgramCounter(prog.EntryPoint)
}

// emulationResult is the outcome of a functional run.
type emulationResult struct {
	cpu          *emu.CPU
	instructions uint64
	pc           uint32
	idleLoop     bool
}

// runEmulation runs the program in functional emulation mode until it
// branches to itself or reaches the instruction limit.
func runEmulation(prog *loader.Program, opts runOptions) emulationResult {
	memory := emu.NewMemory()
	cpu := emu.NewCPU(memory, opts.cpuOptions()...)
	boot(cpu, memory, prog)

	result := emulationResult{cpu: cpu}
	for opts.maxInstructions == 0 || cpu.InstructionCount() < opts.maxInstructions {
		pc := currentInstruction(cpu)
		step := cpu.Step()
		if step.Action.Kind == emu.ActionPipelineFlush && currentInstruction(cpu) == pc {
			result.idleLoop = true
			break
		}
	}

	result.instructions = cpu.InstructionCount()
	result.pc = currentInstruction(cpu)
	return result
}

// currentInstruction is the address of the instruction the next Step
// executes.
func currentInstruction(cpu *emu.CPU) uint32 {
	if cpu.StatusRegister().State() == emu.StateThumb {
		return cpu.Register(emu.PC) - 4
	}
	return cpu.Register(emu.PC) - 8
}

// runTiming runs the program in timing simulation mode.
func runTiming(prog *loader.Program, opts runOptions, config *latency.TimingConfig) *core.Core {
	memory := emu.NewMemory()
	c := core.NewCore(memory,
		core.WithLatencyTable(latency.NewTableWithConfig(config)),
		core.WithMaxInstructions(opts.maxInstructions),
		core.WithCPUOptions(opts.cpuOptions()...),
	)
	boot(c.CPU, memory, prog)
	c.Run()
	return c
}

func printRegisters(cpu *emu.CPU) {
	for r := uint8(0); r < 16; r += 4 {
		fmt.Printf("R%-2d=%08X R%-2d=%08X R%-2d=%08X R%-2d=%08X\n",
			r, cpu.Register(r), r+1, cpu.Register(r+1),
			r+2, cpu.Register(r+2), r+3, cpu.Register(r+3))
	}
	fmt.Printf("CPSR=%s\n", cpu.StatusRegister())
}

func printTimingReport(programPath string, c *core.Core, config *latency.TimingConfig) {
	stats := c.Stats()

	totalCycles := stats.Cycles
	if totalCycles == 0 {
		totalCycles = 1 // Avoid division by zero
	}
	busCycles := stats.Cycles - stats.Idle

	fmt.Printf("\n")
	fmt.Printf("Program: %s\n", programPath)
	fmt.Printf("Stopped at: 0x%08X (idle loop: %t)\n", c.PC(), c.IdleLoop())
	fmt.Printf("Total Instructions: %d\n", stats.Instructions)
	fmt.Printf("Total Cycles: %d\n", stats.Cycles)
	fmt.Printf("CPI: %.2f\n", stats.CPI())
	fmt.Printf("Simulated time: %.3f ms\n", 1000*float64(stats.Cycles)/float64(config.ClockSpeed))
	fmt.Printf("\n")
	fmt.Printf("Breakdown:\n")
	fmt.Printf("  Bus cycles:  %6d cycles (%5.1f%%)\n",
		busCycles, 100.0*float64(busCycles)/float64(totalCycles))
	fmt.Printf("  Idle cycles: %6d cycles (%5.1f%%)\n",
		stats.Idle, 100.0*float64(stats.Idle)/float64(totalCycles))
	fmt.Printf("\n")
	fmt.Printf("Bus Events:\n")
	fmt.Printf("  S accesses:    %d\n", stats.Sequential)
	fmt.Printf("  N accesses:    %d\n", stats.NonSequential)
	fmt.Printf("  Flushes:       %d\n", stats.Flushes)
	fmt.Printf("  Prefetch hits: %d\n", stats.PrefetchHits)

	if err := c.LastError(); err != nil {
		fmt.Printf("\nLast unsupported instruction: %v\n", err)
	}
}
