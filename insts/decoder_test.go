package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	DescribeTable("Classify",
		func(word uint32, kind insts.Kind) {
			Expect(insts.Classify(word)).To(Equal(kind))
			Expect(decoder.Decode(word, 0).Kind()).To(Equal(kind))
		},
		Entry("BX R0", uint32(0xE12FFF10), insts.KindBranchAndExchange),
		Entry("LDMIA SP!, {R0,R4,PC}", uint32(0xE8BD8011), insts.KindBlockDataTransfer),
		Entry("B +0", uint32(0xEA000000), insts.KindBranchAndBranchWithLink),
		Entry("BL -8", uint32(0xEBFFFFFE), insts.KindBranchAndBranchWithLink),
		Entry("SWI 0x42", uint32(0xEF000042), insts.KindSoftwareInterrupt),
		Entry("undefined space", uint32(0xE7F000F0), insts.KindUndefined),
		Entry("LDR R0, [R1, #4]", uint32(0xE5910004), insts.KindSingleDataTransfer),
		Entry("SWP R0, R1, [R2]", uint32(0xE1020091), insts.KindSingleDataSwap),
		Entry("MUL R0, R1, R2", uint32(0xE0000291), insts.KindMultiply),
		Entry("UMULL R0, R1, R2, R3", uint32(0xE0810392), insts.KindMultiplyLong),
		Entry("LDRH R0, [R1, R2]", uint32(0xE19100B2), insts.KindHalfwordTransferRegister),
		Entry("LDRH R0, [R0, #2]", uint32(0xE1D000B2), insts.KindHalfwordTransferImmediate),
		Entry("MRS R0, CPSR", uint32(0xE10F0000), insts.KindPsrToRegister),
		Entry("MSR CPSR_fc, R0", uint32(0xE129F000), insts.KindRegisterToPsr),
		Entry("MSR CPSR_f, #imm", uint32(0xE328F20F), insts.KindRegisterToPsr),
		Entry("MCR", uint32(0xEE000010), insts.KindCoprocessor),
		Entry("LDC", uint32(0xEC000000), insts.KindCoprocessor),
		Entry("MOV R0, #1", uint32(0xE3A00001), insts.KindDataProcessing),
		Entry("ADD R0, R1, R2", uint32(0xE0810002), insts.KindDataProcessing),
		Entry("zero word", uint32(0x00000000), insts.KindDataProcessing),
	)

	Describe("priority", func() {
		It("should prefer BX over the data-processing space it sits in", func() {
			Expect(insts.Classify(0x012FFF1E)).To(Equal(insts.KindBranchAndExchange))
		})

		It("should prefer SWP over halfword transfers", func() {
			Expect(insts.Classify(0xE1420091)).To(Equal(insts.KindSingleDataSwap))
		})

		It("should prefer SWI over coprocessor space", func() {
			Expect(insts.Classify(0xFF000000)).To(Equal(insts.KindSoftwareInterrupt))
		})

		It("should keep coprocessor space out of data processing", func() {
			for _, word := range []uint32{0xEC000000, 0xED1F0000, 0xEE000010, 0x0E000000} {
				Expect(insts.Classify(word)).To(Equal(insts.KindCoprocessor))
			}
			Expect(insts.Classify(0xEF000000)).To(Equal(insts.KindSoftwareInterrupt))
			Expect(insts.Classify(0xE0000000)).To(Equal(insts.KindDataProcessing))
		})

		It("should classify the same word identically on every call", func() {
			for i := 0; i < 3; i++ {
				Expect(insts.Classify(0xE8BD8011)).To(Equal(insts.KindBlockDataTransfer))
			}
		})

		It("should expose the table without the catch-all", func() {
			patterns := insts.Patterns()
			Expect(patterns[0].Kind).To(Equal(insts.KindBranchAndExchange))
			for _, p := range patterns {
				Expect(p.Kind).NotTo(Equal(insts.KindDataProcessing))
			}

			patterns[0].Kind = insts.KindUndefined
			Expect(insts.Patterns()[0].Kind).To(Equal(insts.KindBranchAndExchange))
		})
	})

	Describe("Decode", func() {
		It("should keep the raw word, address and condition", func() {
			inst := decoder.Decode(0x03A00001, 0x08000010)

			Expect(inst.Word()).To(Equal(uint32(0x03A00001)))
			Expect(inst.PC()).To(Equal(uint32(0x08000010)))
			Expect(inst.Cond()).To(Equal(insts.CondEQ))
		})

		It("should decode MOV R0, #1", func() {
			inst, ok := decoder.Decode(0xE3A00001, 0).(insts.DataProcessing)
			Expect(ok).To(BeTrue())

			Expect(inst.Opcode()).To(Equal(insts.OpMOV))
			Expect(inst.SetFlags()).To(BeFalse())
			Expect(inst.IsImmediate()).To(BeTrue())
			Expect(inst.Rd()).To(Equal(uint8(0)))
			Expect(inst.Immediate()).To(Equal(uint32(1)))
			Expect(inst.Rotate()).To(Equal(uint32(0)))
		})

		It("should decode a register-specified shift", func() {
			// MOV R0, R1, LSL R2
			inst := decoder.Decode(0xE1A00211, 0).(insts.DataProcessing)
			op2 := inst.Operand2()

			Expect(inst.IsImmediate()).To(BeFalse())
			Expect(op2.ByRegister()).To(BeTrue())
			Expect(op2.ShiftType()).To(Equal(insts.ShiftLSL))
			Expect(op2.Rs()).To(Equal(uint8(2)))
			Expect(op2.Rm()).To(Equal(uint8(1)))
		})

		It("should decode MOVS R0, R1, RRX", func() {
			inst := decoder.Decode(0xE1B00061, 0).(insts.DataProcessing)
			op2 := inst.Operand2()

			Expect(inst.SetFlags()).To(BeTrue())
			Expect(op2.ByRegister()).To(BeFalse())
			Expect(op2.ShiftType()).To(Equal(insts.ShiftROR))
			Expect(op2.Amount()).To(Equal(uint32(0)))
		})

		It("should sign-extend branch offsets", func() {
			b := decoder.Decode(0xEBFFFFFE, 0).(insts.Branch)
			Expect(b.Link()).To(BeTrue())
			Expect(b.Offset()).To(Equal(int32(-8)))

			b = decoder.Decode(0xEA000010, 0).(insts.Branch)
			Expect(b.Link()).To(BeFalse())
			Expect(b.Offset()).To(Equal(int32(0x40)))
		})

		It("should decode LDMIA SP!, {R0,R4,PC}", func() {
			inst := decoder.Decode(0xE8BD8011, 0).(insts.BlockDataTransfer)

			Expect(inst.Load()).To(BeTrue())
			Expect(inst.WriteBack()).To(BeTrue())
			Expect(inst.Up()).To(BeTrue())
			Expect(inst.PreIndex()).To(BeFalse())
			Expect(inst.ForceUser()).To(BeFalse())
			Expect(inst.Rn()).To(Equal(uint8(13)))
			Expect(inst.Registers()).To(Equal([]uint8{0, 4, 15}))
		})

		It("should decode LDR R0, [R1, #4]", func() {
			inst := decoder.Decode(0xE5910004, 0).(insts.SingleDataTransfer)

			Expect(inst.Load()).To(BeTrue())
			Expect(inst.PreIndex()).To(BeTrue())
			Expect(inst.Up()).To(BeTrue())
			Expect(inst.Byte()).To(BeFalse())
			Expect(inst.RegisterOffset()).To(BeFalse())
			Expect(inst.Rn()).To(Equal(uint8(1)))
			Expect(inst.Rd()).To(Equal(uint8(0)))
			Expect(inst.Immediate()).To(Equal(uint32(4)))
		})

		It("should decode multiply register roles", func() {
			inst := decoder.Decode(0xE0000291, 0).(insts.Multiply)

			Expect(inst.Rd()).To(Equal(uint8(0)))
			Expect(inst.Rs()).To(Equal(uint8(2)))
			Expect(inst.Rm()).To(Equal(uint8(1)))
			Expect(inst.Accumulate()).To(BeFalse())

			long := decoder.Decode(0xE0810392, 0).(insts.MultiplyLong)
			Expect(long.RdHi()).To(Equal(uint8(1)))
			Expect(long.RdLo()).To(Equal(uint8(0)))
			Expect(long.Rs()).To(Equal(uint8(3)))
			Expect(long.Rm()).To(Equal(uint8(2)))
			Expect(long.Signed()).To(BeFalse())
		})

		It("should decode halfword transfers", func() {
			imm := decoder.Decode(0xE1D000B2, 0).(insts.HalfwordTransfer)
			Expect(imm.IsImmediate()).To(BeTrue())
			Expect(imm.Immediate()).To(Equal(uint32(2)))
			Expect(imm.Op()).To(Equal(insts.HalfwordUnsigned))

			reg := decoder.Decode(0xE19100B2, 0).(insts.HalfwordTransfer)
			Expect(reg.IsImmediate()).To(BeFalse())
			Expect(reg.Rn()).To(Equal(uint8(1)))
			Expect(reg.Rm()).To(Equal(uint8(2)))
		})

		It("should decode SWP", func() {
			inst := decoder.Decode(0xE1020091, 0).(insts.SingleDataSwap)

			Expect(inst.Byte()).To(BeFalse())
			Expect(inst.Rn()).To(Equal(uint8(2)))
			Expect(inst.Rd()).To(Equal(uint8(0)))
			Expect(inst.Rm()).To(Equal(uint8(1)))
		})

		It("should decode PSR transfers", func() {
			mrs := decoder.Decode(0xE14F0000, 0).(insts.PsrToRegister)
			Expect(mrs.SPSR()).To(BeTrue())

			msr := decoder.Decode(0xE129F000, 0).(insts.RegisterToPsr)
			Expect(msr.SPSR()).To(BeFalse())
			Expect(msr.IsImmediate()).To(BeFalse())
			Expect(msr.WritesFlags()).To(BeTrue())
			Expect(msr.WritesControl()).To(BeTrue())

			flags := decoder.Decode(0xE328F20F, 0).(insts.RegisterToPsr)
			Expect(flags.IsImmediate()).To(BeTrue())
			Expect(flags.WritesControl()).To(BeFalse())
			Expect(flags.Immediate()).To(Equal(uint32(0x0F)))
			Expect(flags.Rotate()).To(Equal(uint32(2)))
		})

		It("should decode the SWI comment field", func() {
			inst := decoder.Decode(0xEF000042, 0).(insts.SoftwareInterrupt)
			Expect(inst.Comment()).To(Equal(uint32(0x42)))
		})

		It("should format instructions for tracing", func() {
			Expect(insts.Format(decoder.Decode(0x03A00001, 0x100))).
				To(Equal("DataProcessing.EQ 0x03A00001 @0x00000100"))
		})
	})
})
