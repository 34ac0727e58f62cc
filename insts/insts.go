// Package insts provides ARM7TDMI instruction definitions and decoding.
//
// This package classifies 32-bit ARM and 16-bit Thumb machine words into
// instruction kinds and exposes the operand fields of each kind through a
// dedicated view type. Fields are extracted lazily from the raw word, and a
// view only carries the accessors that are meaningful for its kind.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0xE3A00001, 0x08000000) // MOV R0, #1
//	if dp, ok := inst.(insts.DataProcessing); ok {
//		fmt.Printf("Op: %v, Rd: %d, Imm: %d\n", dp.Opcode(), dp.Rd(), dp.Immediate())
//	}
package insts
