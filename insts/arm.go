package insts

import "fmt"

// Instruction is a decoded ARM instruction. The concrete value is one of the
// per-kind view types in this file; use a type switch to reach the fields.
type Instruction interface {
	// Kind returns the classification tag.
	Kind() Kind
	// Word returns the raw 32-bit encoding.
	Word() uint32
	// PC returns the address the instruction was fetched from.
	PC() uint32
	// Cond returns the condition field (bits 31-28).
	Cond() Cond
}

type base struct {
	word uint32
	pc   uint32
}

func (b base) Word() uint32 { return b.word }
func (b base) PC() uint32   { return b.pc }
func (b base) Cond() Cond   { return Cond(b.word >> 28) }

func (b base) bit(n uint) bool {
	return b.word>>n&1 == 1
}

func (b base) field(lo, width uint) uint32 {
	return b.word >> lo & (1<<width - 1)
}

// Format renders an instruction for trace output.
func Format(inst Instruction) string {
	return fmt.Sprintf("%s%s 0x%08X @0x%08X", inst.Kind(), condSuffix(inst.Cond()), inst.Word(), inst.PC())
}

func condSuffix(c Cond) string {
	if c == CondAL {
		return ""
	}
	return "." + c.String()
}

// ShiftedRegister is a register operand passed through the barrel shifter,
// shared by data processing and single data transfer encodings.
type ShiftedRegister struct {
	word uint32
}

// Rm returns the register being shifted.
func (s ShiftedRegister) Rm() uint8 { return uint8(s.word & 0xF) }

// ShiftType returns the shift operation.
func (s ShiftedRegister) ShiftType() ShiftType { return ShiftType(s.word >> 5 & 0x3) }

// ByRegister reports whether the shift amount comes from Rs.
func (s ShiftedRegister) ByRegister() bool { return s.word>>4&1 == 1 }

// Amount returns the immediate shift amount (bits 11-7).
func (s ShiftedRegister) Amount() uint32 { return s.word >> 7 & 0x1F }

// Rs returns the register holding the shift amount.
func (s ShiftedRegister) Rs() uint8 { return uint8(s.word >> 8 & 0xF) }

// DataProcessing is an ALU operation with a shifted or rotated second operand.
type DataProcessing struct{ base }

func (DataProcessing) Kind() Kind { return KindDataProcessing }

// Opcode returns the ALU operation.
func (i DataProcessing) Opcode() Opcode { return Opcode(i.field(21, 4)) }

// SetFlags reports whether the S bit is set.
func (i DataProcessing) SetFlags() bool { return i.bit(20) }

// Rn returns the first operand register.
func (i DataProcessing) Rn() uint8 { return uint8(i.field(16, 4)) }

// Rd returns the destination register.
func (i DataProcessing) Rd() uint8 { return uint8(i.field(12, 4)) }

// IsImmediate reports whether operand 2 is a rotated immediate.
func (i DataProcessing) IsImmediate() bool { return i.bit(25) }

// Immediate returns the unrotated 8-bit immediate.
func (i DataProcessing) Immediate() uint32 { return i.field(0, 8) }

// Rotate returns the rotate field; the rotation applied is twice this value.
func (i DataProcessing) Rotate() uint32 { return i.field(8, 4) }

// Operand2 returns the shifted register form of operand 2.
func (i DataProcessing) Operand2() ShiftedRegister { return ShiftedRegister{i.word} }

// Branch is B or BL.
type Branch struct{ base }

func (Branch) Kind() Kind { return KindBranchAndBranchWithLink }

// Link reports whether this is BL.
func (i Branch) Link() bool { return i.bit(24) }

// Offset returns the sign-extended byte offset (24-bit word offset * 4).
func (i Branch) Offset() int32 {
	return int32(i.word<<8) >> 6
}

// BranchAndExchange is BX.
type BranchAndExchange struct{ base }

func (BranchAndExchange) Kind() Kind { return KindBranchAndExchange }

// Rn returns the register holding the target.
func (i BranchAndExchange) Rn() uint8 { return uint8(i.field(0, 4)) }

// Multiply is MUL or MLA.
type Multiply struct{ base }

func (Multiply) Kind() Kind { return KindMultiply }

// Accumulate reports whether this is MLA.
func (i Multiply) Accumulate() bool { return i.bit(21) }

// SetFlags reports whether the S bit is set.
func (i Multiply) SetFlags() bool { return i.bit(20) }

// Rd returns the destination register.
func (i Multiply) Rd() uint8 { return uint8(i.field(16, 4)) }

// Rn returns the accumulate register.
func (i Multiply) Rn() uint8 { return uint8(i.field(12, 4)) }

// Rs returns the multiplier register.
func (i Multiply) Rs() uint8 { return uint8(i.field(8, 4)) }

// Rm returns the multiplicand register.
func (i Multiply) Rm() uint8 { return uint8(i.field(0, 4)) }

// MultiplyLong is UMULL, UMLAL, SMULL or SMLAL.
type MultiplyLong struct{ base }

func (MultiplyLong) Kind() Kind { return KindMultiplyLong }

// Signed reports whether the operands are signed.
func (i MultiplyLong) Signed() bool { return i.bit(22) }

// Accumulate reports whether the 64-bit destination is accumulated into.
func (i MultiplyLong) Accumulate() bool { return i.bit(21) }

// SetFlags reports whether the S bit is set.
func (i MultiplyLong) SetFlags() bool { return i.bit(20) }

// RdHi returns the high destination register.
func (i MultiplyLong) RdHi() uint8 { return uint8(i.field(16, 4)) }

// RdLo returns the low destination register.
func (i MultiplyLong) RdLo() uint8 { return uint8(i.field(12, 4)) }

// Rs returns the multiplier register.
func (i MultiplyLong) Rs() uint8 { return uint8(i.field(8, 4)) }

// Rm returns the multiplicand register.
func (i MultiplyLong) Rm() uint8 { return uint8(i.field(0, 4)) }

// SingleDataTransfer is LDR, STR, LDRB or STRB.
type SingleDataTransfer struct{ base }

func (SingleDataTransfer) Kind() Kind { return KindSingleDataTransfer }

// RegisterOffset reports whether the offset is a shifted register.
// Note the I bit has the opposite sense to data processing.
func (i SingleDataTransfer) RegisterOffset() bool { return i.bit(25) }

// PreIndex reports whether the offset is applied before the transfer.
func (i SingleDataTransfer) PreIndex() bool { return i.bit(24) }

// Up reports whether the offset is added to the base.
func (i SingleDataTransfer) Up() bool { return i.bit(23) }

// Byte reports whether a byte is transferred.
func (i SingleDataTransfer) Byte() bool { return i.bit(22) }

// WriteBack reports whether the W bit is set.
func (i SingleDataTransfer) WriteBack() bool { return i.bit(21) }

// Load reports whether this is a load.
func (i SingleDataTransfer) Load() bool { return i.bit(20) }

// Rn returns the base register.
func (i SingleDataTransfer) Rn() uint8 { return uint8(i.field(16, 4)) }

// Rd returns the source or destination register.
func (i SingleDataTransfer) Rd() uint8 { return uint8(i.field(12, 4)) }

// Immediate returns the 12-bit immediate offset.
func (i SingleDataTransfer) Immediate() uint32 { return i.field(0, 12) }

// Offset returns the shifted register offset.
func (i SingleDataTransfer) Offset() ShiftedRegister { return ShiftedRegister{i.word} }

// HalfwordTransfer is LDRH, STRH, LDRSB or LDRSH.
type HalfwordTransfer struct {
	base
	immediate bool
}

func (i HalfwordTransfer) Kind() Kind {
	if i.immediate {
		return KindHalfwordTransferImmediate
	}
	return KindHalfwordTransferRegister
}

// HalfwordOp selects the transfer width and signedness (SH bits).
type HalfwordOp uint8

// Halfword transfer operations.
const (
	HalfwordUnsigned HalfwordOp = 0b01 // LDRH / STRH
	HalfwordSByte    HalfwordOp = 0b10 // LDRSB
	HalfwordSigned   HalfwordOp = 0b11 // LDRSH
)

// PreIndex reports whether the offset is applied before the transfer.
func (i HalfwordTransfer) PreIndex() bool { return i.bit(24) }

// Up reports whether the offset is added to the base.
func (i HalfwordTransfer) Up() bool { return i.bit(23) }

// IsImmediate reports whether the offset is an 8-bit immediate.
func (i HalfwordTransfer) IsImmediate() bool { return i.immediate }

// WriteBack reports whether the W bit is set.
func (i HalfwordTransfer) WriteBack() bool { return i.bit(21) }

// Load reports whether this is a load.
func (i HalfwordTransfer) Load() bool { return i.bit(20) }

// Rn returns the base register.
func (i HalfwordTransfer) Rn() uint8 { return uint8(i.field(16, 4)) }

// Rd returns the source or destination register.
func (i HalfwordTransfer) Rd() uint8 { return uint8(i.field(12, 4)) }

// Op returns the SH field.
func (i HalfwordTransfer) Op() HalfwordOp { return HalfwordOp(i.field(5, 2)) }

// Immediate returns the split 8-bit offset.
func (i HalfwordTransfer) Immediate() uint32 {
	return i.field(8, 4)<<4 | i.field(0, 4)
}

// Rm returns the offset register.
func (i HalfwordTransfer) Rm() uint8 { return uint8(i.field(0, 4)) }

// BlockDataTransfer is LDM or STM.
type BlockDataTransfer struct{ base }

func (BlockDataTransfer) Kind() Kind { return KindBlockDataTransfer }

// PreIndex reports whether the address is stepped before each transfer.
func (i BlockDataTransfer) PreIndex() bool { return i.bit(24) }

// Up reports whether addresses increase from the base.
func (i BlockDataTransfer) Up() bool { return i.bit(23) }

// ForceUser reports whether the S bit is set.
func (i BlockDataTransfer) ForceUser() bool { return i.bit(22) }

// WriteBack reports whether the W bit is set.
func (i BlockDataTransfer) WriteBack() bool { return i.bit(21) }

// Load reports whether this is LDM.
func (i BlockDataTransfer) Load() bool { return i.bit(20) }

// Rn returns the base register.
func (i BlockDataTransfer) Rn() uint8 { return uint8(i.field(16, 4)) }

// RegisterList returns the 16-bit register mask.
func (i BlockDataTransfer) RegisterList() uint16 { return uint16(i.word) }

// Registers returns the listed registers in ascending order.
func (i BlockDataTransfer) Registers() []uint8 {
	return listRegisters(uint32(i.RegisterList()), 16)
}

func listRegisters(mask uint32, n uint8) []uint8 {
	regs := make([]uint8, 0, n)
	for r := uint8(0); r < n; r++ {
		if mask>>r&1 == 1 {
			regs = append(regs, r)
		}
	}
	return regs
}

// SingleDataSwap is SWP or SWPB.
type SingleDataSwap struct{ base }

func (SingleDataSwap) Kind() Kind { return KindSingleDataSwap }

// Byte reports whether a byte is swapped.
func (i SingleDataSwap) Byte() bool { return i.bit(22) }

// Rn returns the address register.
func (i SingleDataSwap) Rn() uint8 { return uint8(i.field(16, 4)) }

// Rd returns the destination register.
func (i SingleDataSwap) Rd() uint8 { return uint8(i.field(12, 4)) }

// Rm returns the source register.
func (i SingleDataSwap) Rm() uint8 { return uint8(i.field(0, 4)) }

// SoftwareInterrupt is SWI.
type SoftwareInterrupt struct{ base }

func (SoftwareInterrupt) Kind() Kind { return KindSoftwareInterrupt }

// Comment returns the 24-bit comment field.
func (i SoftwareInterrupt) Comment() uint32 { return i.field(0, 24) }

// Undefined is an architecturally undefined encoding.
type Undefined struct{ base }

func (Undefined) Kind() Kind { return KindUndefined }

// Coprocessor is a coprocessor data operation, register or data transfer.
// The core has no coprocessors attached, so these trap as undefined.
type Coprocessor struct{ base }

func (Coprocessor) Kind() Kind { return KindCoprocessor }

// CPNum returns the coprocessor number.
func (i Coprocessor) CPNum() uint8 { return uint8(i.field(8, 4)) }

// PsrToRegister is MRS.
type PsrToRegister struct{ base }

func (PsrToRegister) Kind() Kind { return KindPsrToRegister }

// SPSR reports whether the saved status register is the source.
func (i PsrToRegister) SPSR() bool { return i.bit(22) }

// Rd returns the destination register.
func (i PsrToRegister) Rd() uint8 { return uint8(i.field(12, 4)) }

// RegisterToPsr is MSR.
type RegisterToPsr struct{ base }

func (RegisterToPsr) Kind() Kind { return KindRegisterToPsr }

// SPSR reports whether the saved status register is the destination.
func (i RegisterToPsr) SPSR() bool { return i.bit(22) }

// IsImmediate reports whether the operand is a rotated immediate.
func (i RegisterToPsr) IsImmediate() bool { return i.bit(25) }

// FieldMask returns the fsxc field mask (bits 19-16).
func (i RegisterToPsr) FieldMask() uint8 { return uint8(i.field(16, 4)) }

// WritesFlags reports whether the flag byte is written.
func (i RegisterToPsr) WritesFlags() bool { return i.bit(19) }

// WritesControl reports whether the control byte is written.
func (i RegisterToPsr) WritesControl() bool { return i.bit(16) }

// Rm returns the source register.
func (i RegisterToPsr) Rm() uint8 { return uint8(i.field(0, 4)) }

// Immediate returns the unrotated 8-bit immediate.
func (i RegisterToPsr) Immediate() uint32 { return i.field(0, 8) }

// Rotate returns the rotate field; the rotation applied is twice this value.
func (i RegisterToPsr) Rotate() uint32 { return i.field(8, 4) }
