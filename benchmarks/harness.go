package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/timing/core"
	"github.com/sarchlab/arm7sim/timing/latency"
)

// Load addresses for benchmark programs.
const (
	IWRAMBase     = 0x03000000
	CartridgeBase = emu.CartridgeEntry
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timed core
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// Instructions is the number of pipeline steps, the final idle-loop
	// branch included
	Instructions uint64 `json:"instructions"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// Sequential and NonSequential count bus cycles by kind
	Sequential    uint64 `json:"sequential"`
	NonSequential uint64 `json:"non_sequential"`

	// IdleCycles is the number of internal cycles
	IdleCycles uint64 `json:"idle_cycles"`

	// PipelineFlushes is the number of pipeline refills
	PipelineFlushes uint64 `json:"pipeline_flushes"`

	// PrefetchHits is the number of loads served by the prefetch buffer
	PrefetchHits uint64 `json:"prefetch_hits,omitempty"`

	// R0 is the result register after the run
	R0 uint32 `json:"r0"`

	// Passed is set when R0 matched the expected value and the core
	// reached its idle loop
	Passed bool `json:"passed"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the CPU state (e.g., initialize registers, memory)
	Setup func(cpu *emu.CPU, memory *emu.Memory)

	// Program is the machine code to execute, starting in ARM state
	Program []byte

	// ExpectedR0 is the expected result (for validation)
	ExpectedR0 uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// LoadAddress is where programs are placed and started.
	LoadAddress uint32

	// WAITCNT is the wait-state control value applied to the power-on
	// timing.
	WAITCNT uint16

	// MaxInstructions bounds every run in case a program never reaches
	// its idle loop.
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration: programs run from
// the cartridge with power-on wait states.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		LoadAddress:     CartridgeBase,
		WAITCNT:         0,
		MaxInstructions: 100000,
		Output:          os.Stdout,
		Verbose:         false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	config := latency.DefaultTimingConfig()
	config.ApplyWAITCNT(h.config.WAITCNT)

	memory := emu.NewMemory()
	c := core.NewCore(memory,
		core.WithLatencyTable(latency.NewTableWithConfig(config)),
		core.WithMaxInstructions(h.config.MaxInstructions),
		core.WithCPUOptions(emu.WithSkipBIOS()),
	)

	memory.LoadProgram(h.config.LoadAddress, bench.Program)
	if bench.Setup != nil {
		bench.Setup(c.CPU, memory)
	}
	c.SetPC(h.config.LoadAddress)

	start := time.Now()
	stats := c.Run()
	wallTime := time.Since(start)

	r0 := c.CPU.Register(0)
	result := BenchmarkResult{
		Name:            bench.Name,
		Description:     bench.Description,
		SimulatedCycles: stats.Cycles,
		Instructions:    stats.Instructions,
		CPI:             stats.CPI(),
		Sequential:      stats.Sequential,
		NonSequential:   stats.NonSequential,
		IdleCycles:      stats.Idle,
		PipelineFlushes: stats.Flushes,
		PrefetchHits:    stats.PrefetchHits,
		R0:              r0,
		Passed:          c.IdleLoop() && r0 == bench.ExpectedR0,
		WallTime:        wallTime,
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "ran %s: %d cycles\n", bench.Name, stats.Cycles)
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== ARM7 Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = "FAILED"
		}

		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Result: R0=%d (%s)\n", r.R0, status)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions:         %d\n", r.Instructions)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  S Cycles:             %d\n", r.Sequential)
		_, _ = fmt.Fprintf(h.config.Output, "  N Cycles:             %d\n", r.NonSequential)
		_, _ = fmt.Fprintf(h.config.Output, "  Idle Cycles:          %d\n", r.IdleCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Pipeline Flushes:     %d\n", r.PipelineFlushes)
		if r.PrefetchHits > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Prefetch Hits:        %d\n", r.PrefetchHits)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,sequential,non_sequential,idle,flushes,prefetch_hits,r0,passed")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.Instructions,
			r.CPI,
			r.Sequential,
			r.NonSequential,
			r.IdleCycles,
			r.PipelineFlushes,
			r.PrefetchHits,
			r.R0,
			r.Passed,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	LoadAddress uint32 `json:"load_address"`
	WAITCNT     uint16 `json:"waitcnt"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Failed is the number of benchmarks with a wrong result
	Failed int `json:"failed"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	failed := 0
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.Instructions
		totalWallTime += r.WallTime
		if !r.Passed {
			failed++
		}
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				LoadAddress: h.config.LoadAddress,
				WAITCNT:     h.config.WAITCNT,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			Failed:            failed,
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
