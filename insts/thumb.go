package insts

// ThumbKind classifies a 16-bit Thumb instruction word.
type ThumbKind uint8

// Thumb instruction formats.
const (
	ThumbMoveShiftedRegister ThumbKind = iota
	ThumbAddSubtract
	ThumbMoveCompareAddSubtractImmediate
	ThumbALUOperations
	ThumbHiRegisterOperations
	ThumbPCRelativeLoad
	ThumbLoadStoreRegisterOffset
	ThumbLoadStoreSignExtended
	ThumbLoadStoreImmediateOffset
	ThumbLoadStoreHalfword
	ThumbSPRelativeLoadStore
	ThumbLoadAddress
	ThumbAddOffsetToSP
	ThumbPushPopRegisters
	ThumbMultipleLoadStore
	ThumbConditionalBranch
	ThumbSoftwareInterrupt
	ThumbUnconditionalBranch
	ThumbLongBranchWithLink
	ThumbUndefined

	numThumbKinds
)

var thumbKindNames = [numThumbKinds]string{
	"MoveShiftedRegister",
	"AddSubtract",
	"MoveCompareAddSubtractImmediate",
	"ALUOperations",
	"HiRegisterOperations",
	"PCRelativeLoad",
	"LoadStoreRegisterOffset",
	"LoadStoreSignExtended",
	"LoadStoreImmediateOffset",
	"LoadStoreHalfword",
	"SPRelativeLoadStore",
	"LoadAddress",
	"AddOffsetToSP",
	"PushPopRegisters",
	"MultipleLoadStore",
	"ConditionalBranch",
	"SoftwareInterrupt",
	"UnconditionalBranch",
	"LongBranchWithLink",
	"Undefined",
}

func (k ThumbKind) String() string {
	if k >= numThumbKinds {
		return "ThumbKind(?)"
	}
	return thumbKindNames[k]
}

// ThumbPattern is one row of the Thumb classification table.
type ThumbPattern struct {
	Kind  ThumbKind
	Mask  uint16
	Value uint16
}

// Matches reports whether the halfword falls into this pattern.
func (p ThumbPattern) Matches(half uint16) bool {
	return half&p.Mask == p.Value
}

var thumbPatterns = [...]ThumbPattern{
	{ThumbSoftwareInterrupt, 0xFF00, 0xDF00},
	{ThumbUndefined, 0xFF00, 0xDE00},
	{ThumbConditionalBranch, 0xF000, 0xD000},
	{ThumbUnconditionalBranch, 0xF800, 0xE000},
	{ThumbLongBranchWithLink, 0xF000, 0xF000},
	{ThumbMultipleLoadStore, 0xF000, 0xC000},
	{ThumbAddOffsetToSP, 0xFF00, 0xB000},
	{ThumbPushPopRegisters, 0xF600, 0xB400},
	{ThumbLoadStoreHalfword, 0xF000, 0x8000},
	{ThumbSPRelativeLoadStore, 0xF000, 0x9000},
	{ThumbLoadAddress, 0xF000, 0xA000},
	{ThumbLoadStoreImmediateOffset, 0xE000, 0x6000},
	{ThumbLoadStoreRegisterOffset, 0xF200, 0x5000},
	{ThumbLoadStoreSignExtended, 0xF200, 0x5200},
	{ThumbPCRelativeLoad, 0xF800, 0x4800},
	{ThumbHiRegisterOperations, 0xFC00, 0x4400},
	{ThumbALUOperations, 0xFC00, 0x4000},
	{ThumbMoveCompareAddSubtractImmediate, 0xE000, 0x2000},
	{ThumbAddSubtract, 0xF800, 0x1800},
	{ThumbMoveShiftedRegister, 0xE000, 0x0000},
}

// ThumbPatterns returns a copy of the Thumb classification table in
// priority order. Halfwords matching no row are undefined.
func ThumbPatterns() []ThumbPattern {
	out := make([]ThumbPattern, len(thumbPatterns))
	copy(out, thumbPatterns[:])
	return out
}

// ClassifyThumb returns the format of a Thumb halfword. Like Classify, it is
// total.
func ClassifyThumb(half uint16) ThumbKind {
	for _, p := range thumbPatterns {
		if p.Matches(half) {
			return p.Kind
		}
	}
	return ThumbUndefined
}

// ThumbInstruction is a decoded Thumb instruction.
type ThumbInstruction interface {
	Kind() ThumbKind
	Half() uint16
	PC() uint32
}

type thumbBase struct {
	half uint16
	pc   uint32
}

func (b thumbBase) Half() uint16 { return b.half }
func (b thumbBase) PC() uint32   { return b.pc }

func (b thumbBase) bit(n uint) bool {
	return b.half>>n&1 == 1
}

func (b thumbBase) field(lo, width uint) uint16 {
	return b.half >> lo & (1<<width - 1)
}

// DecodeThumb classifies a Thumb halfword fetched from pc and returns the
// view for its format.
func (d *Decoder) DecodeThumb(half uint16, pc uint32) ThumbInstruction {
	b := thumbBase{half: half, pc: pc}

	switch ClassifyThumb(half) {
	case ThumbMoveShiftedRegister:
		return MoveShiftedRegister{b}
	case ThumbAddSubtract:
		return AddSubtract{b}
	case ThumbMoveCompareAddSubtractImmediate:
		return MoveCompareAddSubtractImmediate{b}
	case ThumbALUOperations:
		return ALUOperation{b}
	case ThumbHiRegisterOperations:
		return HiRegisterOperation{b}
	case ThumbPCRelativeLoad:
		return PCRelativeLoad{b}
	case ThumbLoadStoreRegisterOffset:
		return LoadStoreRegisterOffset{b}
	case ThumbLoadStoreSignExtended:
		return LoadStoreSignExtended{b}
	case ThumbLoadStoreImmediateOffset:
		return LoadStoreImmediateOffset{b}
	case ThumbLoadStoreHalfword:
		return LoadStoreHalfword{b}
	case ThumbSPRelativeLoadStore:
		return SPRelativeLoadStore{b}
	case ThumbLoadAddress:
		return LoadAddress{b}
	case ThumbAddOffsetToSP:
		return AddOffsetToSP{b}
	case ThumbPushPopRegisters:
		return PushPopRegisters{b}
	case ThumbMultipleLoadStore:
		return MultipleLoadStore{b}
	case ThumbConditionalBranch:
		return ConditionalBranch{b}
	case ThumbSoftwareInterrupt:
		return ThumbSWI{b}
	case ThumbUnconditionalBranch:
		return UnconditionalBranch{b}
	case ThumbLongBranchWithLink:
		return LongBranchWithLink{b}
	default:
		return ThumbUndefinedInstruction{b}
	}
}

// MoveShiftedRegister is LSL/LSR/ASR Rd, Rs, #Offset5.
type MoveShiftedRegister struct{ thumbBase }

func (MoveShiftedRegister) Kind() ThumbKind { return ThumbMoveShiftedRegister }

// ShiftType returns the shift operation.
func (i MoveShiftedRegister) ShiftType() ShiftType { return ShiftType(i.field(11, 2)) }

// Amount returns the immediate shift amount.
func (i MoveShiftedRegister) Amount() uint32 { return uint32(i.field(6, 5)) }

// Rs returns the source register.
func (i MoveShiftedRegister) Rs() uint8 { return uint8(i.field(3, 3)) }

// Rd returns the destination register.
func (i MoveShiftedRegister) Rd() uint8 { return uint8(i.field(0, 3)) }

// AddSubtract is ADD/SUB Rd, Rs, Rn|#Offset3.
type AddSubtract struct{ thumbBase }

func (AddSubtract) Kind() ThumbKind { return ThumbAddSubtract }

// IsImmediate reports whether the operand is a 3-bit immediate.
func (i AddSubtract) IsImmediate() bool { return i.bit(10) }

// Subtract reports whether this is SUB.
func (i AddSubtract) Subtract() bool { return i.bit(9) }

// Rn returns the operand register; with IsImmediate it is the immediate.
func (i AddSubtract) Rn() uint8 { return uint8(i.field(6, 3)) }

// Rs returns the source register.
func (i AddSubtract) Rs() uint8 { return uint8(i.field(3, 3)) }

// Rd returns the destination register.
func (i AddSubtract) Rd() uint8 { return uint8(i.field(0, 3)) }

// ImmediateOp selects MOV, CMP, ADD or SUB with an 8-bit immediate.
type ImmediateOp uint8

// Immediate operations.
const (
	ImmMOV ImmediateOp = iota
	ImmCMP
	ImmADD
	ImmSUB
)

// MoveCompareAddSubtractImmediate is MOV/CMP/ADD/SUB Rd, #Offset8.
type MoveCompareAddSubtractImmediate struct{ thumbBase }

func (MoveCompareAddSubtractImmediate) Kind() ThumbKind {
	return ThumbMoveCompareAddSubtractImmediate
}

// Op returns the operation.
func (i MoveCompareAddSubtractImmediate) Op() ImmediateOp { return ImmediateOp(i.field(11, 2)) }

// Rd returns the destination register.
func (i MoveCompareAddSubtractImmediate) Rd() uint8 { return uint8(i.field(8, 3)) }

// Immediate returns the 8-bit immediate.
func (i MoveCompareAddSubtractImmediate) Immediate() uint32 { return uint32(i.field(0, 8)) }

// ALUOp is a Thumb register-to-register ALU operation.
type ALUOp uint8

// Thumb ALU operations.
const (
	ALUAND ALUOp = iota
	ALUEOR
	ALULSL
	ALULSR
	ALUASR
	ALUADC
	ALUSBC
	ALUROR
	ALUTST
	ALUNEG
	ALUCMP
	ALUCMN
	ALUORR
	ALUMUL
	ALUBIC
	ALUMVN
)

// ALUOperation is the two-register ALU format.
type ALUOperation struct{ thumbBase }

func (ALUOperation) Kind() ThumbKind { return ThumbALUOperations }

// Op returns the operation.
func (i ALUOperation) Op() ALUOp { return ALUOp(i.field(6, 4)) }

// Rs returns the source register.
func (i ALUOperation) Rs() uint8 { return uint8(i.field(3, 3)) }

// Rd returns the destination register.
func (i ALUOperation) Rd() uint8 { return uint8(i.field(0, 3)) }

// HiOp selects the hi-register operation.
type HiOp uint8

// Hi-register operations.
const (
	HiADD HiOp = iota
	HiCMP
	HiMOV
	HiBX
)

// HiRegisterOperation is ADD/CMP/MOV on the full register set, or BX.
type HiRegisterOperation struct{ thumbBase }

func (HiRegisterOperation) Kind() ThumbKind { return ThumbHiRegisterOperations }

// Op returns the operation.
func (i HiRegisterOperation) Op() HiOp { return HiOp(i.field(8, 2)) }

// Rs returns the full source register index (H2 applied).
func (i HiRegisterOperation) Rs() uint8 {
	return uint8(i.field(3, 3)) | uint8(i.field(6, 1))<<3
}

// Rd returns the full destination register index (H1 applied).
func (i HiRegisterOperation) Rd() uint8 {
	return uint8(i.field(0, 3)) | uint8(i.field(7, 1))<<3
}

// PCRelativeLoad is LDR Rd, [PC, #Word8].
type PCRelativeLoad struct{ thumbBase }

func (PCRelativeLoad) Kind() ThumbKind { return ThumbPCRelativeLoad }

// Rd returns the destination register.
func (i PCRelativeLoad) Rd() uint8 { return uint8(i.field(8, 3)) }

// Offset returns the byte offset.
func (i PCRelativeLoad) Offset() uint32 { return uint32(i.field(0, 8)) << 2 }

// LoadStoreRegisterOffset is STR/STRB/LDR/LDRB Rd, [Rb, Ro].
type LoadStoreRegisterOffset struct{ thumbBase }

func (LoadStoreRegisterOffset) Kind() ThumbKind { return ThumbLoadStoreRegisterOffset }

// Load reports whether this is a load.
func (i LoadStoreRegisterOffset) Load() bool { return i.bit(11) }

// Byte reports whether a byte is transferred.
func (i LoadStoreRegisterOffset) Byte() bool { return i.bit(10) }

// Ro returns the offset register.
func (i LoadStoreRegisterOffset) Ro() uint8 { return uint8(i.field(6, 3)) }

// Rb returns the base register.
func (i LoadStoreRegisterOffset) Rb() uint8 { return uint8(i.field(3, 3)) }

// Rd returns the source or destination register.
func (i LoadStoreRegisterOffset) Rd() uint8 { return uint8(i.field(0, 3)) }

// SignExtendedOp selects STRH, LDSB, LDRH or LDSH.
type SignExtendedOp uint8

// Sign-extended transfer operations (H and S bits).
const (
	OpSTRH SignExtendedOp = iota
	OpLDSB
	OpLDRH
	OpLDSH
)

// LoadStoreSignExtended is STRH/LDRH/LDSB/LDSH Rd, [Rb, Ro].
type LoadStoreSignExtended struct{ thumbBase }

func (LoadStoreSignExtended) Kind() ThumbKind { return ThumbLoadStoreSignExtended }

// Op returns the operation from the H (bit 11) and S (bit 10) bits.
func (i LoadStoreSignExtended) Op() SignExtendedOp {
	return SignExtendedOp(i.field(11, 1)<<1 | i.field(10, 1))
}

// Ro returns the offset register.
func (i LoadStoreSignExtended) Ro() uint8 { return uint8(i.field(6, 3)) }

// Rb returns the base register.
func (i LoadStoreSignExtended) Rb() uint8 { return uint8(i.field(3, 3)) }

// Rd returns the source or destination register.
func (i LoadStoreSignExtended) Rd() uint8 { return uint8(i.field(0, 3)) }

// LoadStoreImmediateOffset is STR/LDR/STRB/LDRB Rd, [Rb, #Offset5].
type LoadStoreImmediateOffset struct{ thumbBase }

func (LoadStoreImmediateOffset) Kind() ThumbKind { return ThumbLoadStoreImmediateOffset }

// Byte reports whether a byte is transferred.
func (i LoadStoreImmediateOffset) Byte() bool { return i.bit(12) }

// Load reports whether this is a load.
func (i LoadStoreImmediateOffset) Load() bool { return i.bit(11) }

// Offset returns the byte offset, scaled by 4 for word transfers.
func (i LoadStoreImmediateOffset) Offset() uint32 {
	off := uint32(i.field(6, 5))
	if i.Byte() {
		return off
	}
	return off << 2
}

// Rb returns the base register.
func (i LoadStoreImmediateOffset) Rb() uint8 { return uint8(i.field(3, 3)) }

// Rd returns the source or destination register.
func (i LoadStoreImmediateOffset) Rd() uint8 { return uint8(i.field(0, 3)) }

// LoadStoreHalfword is STRH/LDRH Rd, [Rb, #Offset5*2].
type LoadStoreHalfword struct{ thumbBase }

func (LoadStoreHalfword) Kind() ThumbKind { return ThumbLoadStoreHalfword }

// Load reports whether this is a load.
func (i LoadStoreHalfword) Load() bool { return i.bit(11) }

// Offset returns the byte offset.
func (i LoadStoreHalfword) Offset() uint32 { return uint32(i.field(6, 5)) << 1 }

// Rb returns the base register.
func (i LoadStoreHalfword) Rb() uint8 { return uint8(i.field(3, 3)) }

// Rd returns the source or destination register.
func (i LoadStoreHalfword) Rd() uint8 { return uint8(i.field(0, 3)) }

// SPRelativeLoadStore is STR/LDR Rd, [SP, #Word8].
type SPRelativeLoadStore struct{ thumbBase }

func (SPRelativeLoadStore) Kind() ThumbKind { return ThumbSPRelativeLoadStore }

// Load reports whether this is a load.
func (i SPRelativeLoadStore) Load() bool { return i.bit(11) }

// Rd returns the source or destination register.
func (i SPRelativeLoadStore) Rd() uint8 { return uint8(i.field(8, 3)) }

// Offset returns the byte offset.
func (i SPRelativeLoadStore) Offset() uint32 { return uint32(i.field(0, 8)) << 2 }

// LoadAddress is ADD Rd, PC|SP, #Word8.
type LoadAddress struct{ thumbBase }

func (LoadAddress) Kind() ThumbKind { return ThumbLoadAddress }

// FromSP reports whether SP (rather than PC) is the source.
func (i LoadAddress) FromSP() bool { return i.bit(11) }

// Rd returns the destination register.
func (i LoadAddress) Rd() uint8 { return uint8(i.field(8, 3)) }

// Offset returns the byte offset.
func (i LoadAddress) Offset() uint32 { return uint32(i.field(0, 8)) << 2 }

// AddOffsetToSP is ADD SP, #±Imm7*4.
type AddOffsetToSP struct{ thumbBase }

func (AddOffsetToSP) Kind() ThumbKind { return ThumbAddOffsetToSP }

// Offset returns the signed byte offset.
func (i AddOffsetToSP) Offset() int32 {
	off := int32(i.field(0, 7)) << 2
	if i.bit(7) {
		return -off
	}
	return off
}

// PushPopRegisters is PUSH {Rlist, LR} or POP {Rlist, PC}.
type PushPopRegisters struct{ thumbBase }

func (PushPopRegisters) Kind() ThumbKind { return ThumbPushPopRegisters }

// Load reports whether this is POP.
func (i PushPopRegisters) Load() bool { return i.bit(11) }

// StoreLRLoadPC reports whether LR is pushed or PC popped.
func (i PushPopRegisters) StoreLRLoadPC() bool { return i.bit(8) }

// RegisterList returns the low-register mask.
func (i PushPopRegisters) RegisterList() uint8 { return uint8(i.half) }

// Registers returns the listed low registers in ascending order.
func (i PushPopRegisters) Registers() []uint8 {
	return listRegisters(uint32(i.RegisterList()), 8)
}

// MultipleLoadStore is STMIA/LDMIA Rb!, {Rlist}.
type MultipleLoadStore struct{ thumbBase }

func (MultipleLoadStore) Kind() ThumbKind { return ThumbMultipleLoadStore }

// Load reports whether this is LDMIA.
func (i MultipleLoadStore) Load() bool { return i.bit(11) }

// Rb returns the base register.
func (i MultipleLoadStore) Rb() uint8 { return uint8(i.field(8, 3)) }

// RegisterList returns the low-register mask.
func (i MultipleLoadStore) RegisterList() uint8 { return uint8(i.half) }

// Registers returns the listed low registers in ascending order.
func (i MultipleLoadStore) Registers() []uint8 {
	return listRegisters(uint32(i.RegisterList()), 8)
}

// ConditionalBranch is B<cond> label.
type ConditionalBranch struct{ thumbBase }

func (ConditionalBranch) Kind() ThumbKind { return ThumbConditionalBranch }

// Cond returns the condition field. The decoder never yields AL or NV here.
func (i ConditionalBranch) Cond() Cond { return Cond(i.field(8, 4)) }

// Offset returns the signed byte offset.
func (i ConditionalBranch) Offset() int32 { return int32(int8(i.half)) << 1 }

// ThumbSWI is SWI Value8.
type ThumbSWI struct{ thumbBase }

func (ThumbSWI) Kind() ThumbKind { return ThumbSoftwareInterrupt }

// Comment returns the 8-bit comment field.
func (i ThumbSWI) Comment() uint8 { return uint8(i.half) }

// UnconditionalBranch is B label.
type UnconditionalBranch struct{ thumbBase }

func (UnconditionalBranch) Kind() ThumbKind { return ThumbUnconditionalBranch }

// Offset returns the signed byte offset.
func (i UnconditionalBranch) Offset() int32 {
	return int32(uint32(i.half)<<21) >> 20
}

// LongBranchWithLink is one half of the BL pair.
type LongBranchWithLink struct{ thumbBase }

func (LongBranchWithLink) Kind() ThumbKind { return ThumbLongBranchWithLink }

// Low reports whether this is the second half (H = 1), which branches.
func (i LongBranchWithLink) Low() bool { return i.bit(11) }

// Offset returns the 11-bit offset field.
func (i LongBranchWithLink) Offset() uint32 { return uint32(i.field(0, 11)) }

// ThumbUndefinedInstruction is an undefined Thumb encoding.
type ThumbUndefinedInstruction struct{ thumbBase }

func (ThumbUndefinedInstruction) Kind() ThumbKind { return ThumbUndefined }
