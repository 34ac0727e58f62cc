// Package benchmarks provides timing benchmark infrastructure for the
// ARM7TDMI core: small hand-assembled programs run through timing/core.
package benchmarks

import "github.com/sarchlab/arm7sim/emu"

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific CPU characteristic and ends in a branch
// to itself, which halts the timed core.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		countdownLoop(),
		memorySequential(),
		functionCalls(),
		multiplyChain(),
		blockTransfer(),
		thumbLoop(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, calls and Thumb code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		countdownLoop(),
		functionCalls(),
		thumbLoop(),
	}
}

// 1. Arithmetic Sequential - ALU throughput, every fetch Sequential
func arithmeticSequential() Benchmark {
	instrs := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		r := uint8(i % 5)
		instrs = append(instrs, EncodeADDImm(r, r, 1, false))
	}
	instrs = append(instrs, EncodeIdleLoop())

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 ADD immediates across 5 registers - measures S fetch cost",
		Program:     BuildProgram(instrs...),
		ExpectedR0:  4,
	}
}

// 2. Countdown Loop - a taken branch refills the pipeline every iteration
func countdownLoop() Benchmark {
	return Benchmark{
		Name:        "countdown_loop",
		Description: "50 iterations of ADD/SUBS/BNE - measures refill cost",
		Program: BuildProgram(
			EncodeMOVImm(0, 0),
			EncodeMOVImm(1, 50),
			EncodeADDImm(0, 0, 2, false), // loop:
			EncodeSUBImm(1, 1, 1, true),
			EncodeB(-8, CondNE),
			EncodeIdleLoop(),
		),
		ExpectedR0: 100,
	}
}

// 3. Memory Sequential - word stores and loads to on-board work RAM
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "4 STR then 4 LDR/ADD pairs on EWRAM - measures N data cycles and load idles",
		Setup: func(cpu *emu.CPU, _ *emu.Memory) {
			cpu.SetRegister(2, 0x02000000)
		},
		Program: BuildProgram(
			EncodeMOVImm(0, 7),
			EncodeSTR(0, 2, 0),
			EncodeSTR(0, 2, 4),
			EncodeSTR(0, 2, 8),
			EncodeSTR(0, 2, 12),
			EncodeLDR(1, 2, 0),
			EncodeADDReg(0, 0, 1, false),
			EncodeLDR(1, 2, 4),
			EncodeADDReg(0, 0, 1, false),
			EncodeLDR(1, 2, 8),
			EncodeADDReg(0, 0, 1, false),
			EncodeLDR(1, 2, 12),
			EncodeADDReg(0, 0, 1, false),
			EncodeIdleLoop(),
		),
		ExpectedR0: 35,
	}
}

// 4. Function Calls - BL/BX LR pairs
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "3 calls to a one-instruction function - measures call/return refills",
		Program: BuildProgram(
			EncodeMOVImm(0, 0),
			EncodeBL(16),
			EncodeBL(12),
			EncodeBL(8),
			EncodeIdleLoop(),
			EncodeADDImm(0, 0, 1, false), // f:
			EncodeBX(14),
		),
		ExpectedR0: 3,
	}
}

// 5. Multiply Chain - multiplier early termination and accumulate
func multiplyChain() Benchmark {
	return Benchmark{
		Name:        "multiply_chain",
		Description: "4 MUL and 1 MLA - measures multiplier idle cycles",
		Program: BuildProgram(
			EncodeMOVImm(0, 1),
			EncodeMOVImm(1, 3),
			EncodeMUL(2, 0, 1),
			EncodeMUL(0, 2, 1),
			EncodeMUL(2, 0, 1),
			EncodeMUL(0, 2, 1),
			EncodeMLA(0, 1, 1, 0),
			EncodeIdleLoop(),
		),
		ExpectedR0: 90,
	}
}

// 6. Block Transfer - STMDB/LDMIA through the stack
func blockTransfer() Benchmark {
	return Benchmark{
		Name:        "block_transfer",
		Description: "push and pop 4 registers - measures N then S data cycles",
		Program: BuildProgram(
			EncodeMOVImm(0, 1),
			EncodeMOVImm(1, 2),
			EncodeMOVImm(2, 3),
			EncodeMOVImm(3, 4),
			EncodeSTMDB(emu.SP, 0x000F),
			EncodeLDMIA(emu.SP, 0x00F0),
			EncodeADDReg(0, 4, 7, false),
			EncodeIdleLoop(),
		),
		ExpectedR0: 5,
	}
}

// 7. Thumb Loop - the countdown loop in Thumb state, halfword fetches
func thumbLoop() Benchmark {
	program := BuildProgram(
		EncodeADDImm(12, emu.PC, 1, false), // R12 = thumb code | 1
		EncodeBX(12),
	)
	program = append(program, BuildThumbProgram(
		EncodeThumbMOVImm(0, 0),
		EncodeThumbMOVImm(1, 50),
		EncodeThumbADDImm(0, 2), // loop:
		EncodeThumbSUBImm(1, 1),
		EncodeThumbBCond(-4, CondNE),
		EncodeThumbIdleLoop(),
	)...)

	return Benchmark{
		Name:        "thumb_loop",
		Description: "50 iterations of ADD/SUB/BNE in Thumb state - measures 16-bit fetches",
		Program:     program,
		ExpectedR0:  100,
	}
}
