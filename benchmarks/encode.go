package benchmarks

import "encoding/binary"

// Condition fields used by the benchmarks.
const (
	CondEQ uint8 = 0x0
	CondNE uint8 = 0x1
	CondAL uint8 = 0xE
)

// BuildProgram assembles ARM instruction words into a byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 0, len(instrs)*4)
	for _, inst := range instrs {
		program = binary.LittleEndian.AppendUint32(program, inst)
	}
	return program
}

// BuildThumbProgram assembles Thumb halfwords into a byte slice.
func BuildThumbProgram(halves ...uint16) []byte {
	program := make([]byte, 0, len(halves)*2)
	for _, h := range halves {
		program = binary.LittleEndian.AppendUint16(program, h)
	}
	return program
}

// EncodeMOVImm encodes MOV Rd, #imm8.
func EncodeMOVImm(rd uint8, imm uint8) uint32 {
	return 0xE3A00000 | uint32(rd&0xF)<<12 | uint32(imm)
}

// EncodeADDImm encodes ADD/ADDS Rd, Rn, #imm8.
func EncodeADDImm(rd, rn uint8, imm uint8, setFlags bool) uint32 {
	return 0xE2800000 | sBit(setFlags) | uint32(rn&0xF)<<16 | uint32(rd&0xF)<<12 | uint32(imm)
}

// EncodeSUBImm encodes SUB/SUBS Rd, Rn, #imm8.
func EncodeSUBImm(rd, rn uint8, imm uint8, setFlags bool) uint32 {
	return 0xE2400000 | sBit(setFlags) | uint32(rn&0xF)<<16 | uint32(rd&0xF)<<12 | uint32(imm)
}

// EncodeADDReg encodes ADD/ADDS Rd, Rn, Rm.
func EncodeADDReg(rd, rn, rm uint8, setFlags bool) uint32 {
	return 0xE0800000 | sBit(setFlags) | uint32(rn&0xF)<<16 | uint32(rd&0xF)<<12 | uint32(rm&0xF)
}

func sBit(setFlags bool) uint32 {
	if setFlags {
		return 1 << 20
	}
	return 0
}

// EncodeB encodes B<cond> to a target offset bytes away from the branch.
func EncodeB(offset int32, cond uint8) uint32 {
	return uint32(cond)<<28 | 0x0A000000 | uint32((offset-8)>>2)&0xFFFFFF
}

// EncodeBL encodes BL to a target offset bytes away from the branch.
func EncodeBL(offset int32) uint32 {
	return 0xEB000000 | uint32((offset-8)>>2)&0xFFFFFF
}

// EncodeBX encodes BX Rn.
func EncodeBX(rn uint8) uint32 {
	return 0xE12FFF10 | uint32(rn&0xF)
}

// EncodeIdleLoop encodes B to itself.
func EncodeIdleLoop() uint32 {
	return EncodeB(0, CondAL)
}

// EncodeLDR encodes LDR Rd, [Rn, #imm12].
func EncodeLDR(rd, rn uint8, imm uint16) uint32 {
	return 0xE5900000 | uint32(rn&0xF)<<16 | uint32(rd&0xF)<<12 | uint32(imm&0xFFF)
}

// EncodeSTR encodes STR Rd, [Rn, #imm12].
func EncodeSTR(rd, rn uint8, imm uint16) uint32 {
	return 0xE5800000 | uint32(rn&0xF)<<16 | uint32(rd&0xF)<<12 | uint32(imm&0xFFF)
}

// EncodeMUL encodes MUL Rd, Rm, Rs.
func EncodeMUL(rd, rm, rs uint8) uint32 {
	return 0xE0000090 | uint32(rd&0xF)<<16 | uint32(rs&0xF)<<8 | uint32(rm&0xF)
}

// EncodeMLA encodes MLA Rd, Rm, Rs, Rn.
func EncodeMLA(rd, rm, rs, rn uint8) uint32 {
	return 0xE0200090 | uint32(rd&0xF)<<16 | uint32(rn&0xF)<<12 | uint32(rs&0xF)<<8 | uint32(rm&0xF)
}

// EncodeSTMDB encodes STMDB Rn!, {list}.
func EncodeSTMDB(rn uint8, list uint16) uint32 {
	return 0xE9200000 | uint32(rn&0xF)<<16 | uint32(list)
}

// EncodeLDMIA encodes LDMIA Rn!, {list}.
func EncodeLDMIA(rn uint8, list uint16) uint32 {
	return 0xE8B00000 | uint32(rn&0xF)<<16 | uint32(list)
}

// Thumb encodings.

// EncodeThumbMOVImm encodes MOV Rd, #imm8.
func EncodeThumbMOVImm(rd uint8, imm uint8) uint16 {
	return 0x2000 | uint16(rd&7)<<8 | uint16(imm)
}

// EncodeThumbADDImm encodes ADD Rd, #imm8.
func EncodeThumbADDImm(rd uint8, imm uint8) uint16 {
	return 0x3000 | uint16(rd&7)<<8 | uint16(imm)
}

// EncodeThumbSUBImm encodes SUB Rd, #imm8.
func EncodeThumbSUBImm(rd uint8, imm uint8) uint16 {
	return 0x3800 | uint16(rd&7)<<8 | uint16(imm)
}

// EncodeThumbBCond encodes B<cond> to a target offset bytes away from the
// branch.
func EncodeThumbBCond(offset int32, cond uint8) uint16 {
	return 0xD000 | uint16(cond&0xF)<<8 | uint16((offset-4)>>1)&0xFF
}

// EncodeThumbIdleLoop encodes B to itself.
func EncodeThumbIdleLoop() uint16 {
	return 0xE7FE
}
