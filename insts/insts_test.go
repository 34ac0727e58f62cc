package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7sim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should name every kind", func() {
		for k := insts.KindBranchAndExchange; k <= insts.KindDataProcessing; k++ {
			Expect(k.String()).NotTo(Equal("Kind(?)"))
		}
		for k := insts.ThumbMoveShiftedRegister; k <= insts.ThumbUndefined; k++ {
			Expect(k.String()).NotTo(Equal("ThumbKind(?)"))
		}
	})

	It("should group the comparison opcodes", func() {
		Expect(insts.OpTST.IsComparison()).To(BeTrue())
		Expect(insts.OpCMN.IsComparison()).To(BeTrue())
		Expect(insts.OpORR.IsComparison()).To(BeFalse())
		Expect(insts.OpSUB.IsComparison()).To(BeFalse())
	})

	It("should group the logical opcodes", func() {
		Expect(insts.OpMVN.IsLogical()).To(BeTrue())
		Expect(insts.OpTEQ.IsLogical()).To(BeTrue())
		Expect(insts.OpADC.IsLogical()).To(BeFalse())
		Expect(insts.OpCMP.IsLogical()).To(BeFalse())
	})

	It("should print mnemonics", func() {
		Expect(insts.OpRSC.String()).To(Equal("RSC"))
		Expect(insts.CondLE.String()).To(Equal("LE"))
		Expect(insts.ShiftASR.String()).To(Equal("ASR"))
	})
})
