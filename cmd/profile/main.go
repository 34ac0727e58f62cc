// Package main provides a profiling wrapper for arm7sim to identify performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/loader"
	"github.com/sarchlab/arm7sim/timing/core"
	"github.com/sarchlab/arm7sim/timing/latency"
)

var (
	timing      = flag.Bool("timing", false, "Enable timing simulation mode")
	waitcnt     = flag.String("waitcnt", "0", "WAITCNT value for timing mode")
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 1000000, "max instructions to execute (0 = unlimited)")
	baseAddr    = flag.String("base", "0x08000000", "Load address for raw images")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.elf|image.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := loadProgram(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%08X\n", prog.EntryPoint)

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	var instrCount, cycles uint64
	if *timing {
		instrCount, cycles, err = runTimingProfile(prog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		instrCount = runEmulationProfile(prog)
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Instructions executed: %d\n", instrCount)
	if *timing {
		fmt.Printf("Simulated cycles: %d\n", cycles)
	}
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}

func loadProgram(path string) (*loader.Program, error) {
	isELF, err := loader.IsELF(path)
	if err != nil {
		return nil, err
	}
	if isELF {
		return loader.Load(path)
	}

	base, err := strconv.ParseUint(*baseAddr, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid -base: %w", err)
	}
	return loader.LoadBinary(path, uint32(base))
}

// boot copies the program into memory and starts the CPU at its entry.
func boot(cpu *emu.CPU, memory *emu.Memory, prog *loader.Program) {
	prog.LoadInto(memory)
	cpu.SetRegister(emu.SP, prog.InitialSP)
	if prog.Thumb {
		psr := cpu.StatusRegister()
		psr.SetState(emu.StateThumb)
		_ = cpu.SetStatusRegister(psr)
	}
	cpu.SetProgramCounter(prog.EntryPoint)
}

// runEmulationProfile steps the functional CPU without any timing.
// Execution is bounded only by the instruction limit and the timeout.
func runEmulationProfile(prog *loader.Program) uint64 {
	memory := emu.NewMemory()
	cpu := emu.NewCPU(memory, emu.WithSkipBIOS())
	boot(cpu, memory, prog)

	for *instruction == 0 || cpu.InstructionCount() < *instruction {
		cpu.Step()
	}

	return cpu.InstructionCount()
}

// runTimingProfile runs the program on the cycle-counting core.
func runTimingProfile(prog *loader.Program) (uint64, uint64, error) {
	value, err := strconv.ParseUint(*waitcnt, 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -waitcnt: %w", err)
	}
	timingConfig := latency.DefaultTimingConfig()
	timingConfig.ApplyWAITCNT(uint16(value))

	memory := emu.NewMemory()
	c := core.NewCore(memory,
		core.WithLatencyTable(latency.NewTableWithConfig(timingConfig)),
		core.WithMaxInstructions(*instruction),
		core.WithCPUOptions(emu.WithSkipBIOS()),
	)
	boot(c.CPU, memory, prog)

	stats := c.Run()
	return stats.Instructions, stats.Cycles, nil
}
