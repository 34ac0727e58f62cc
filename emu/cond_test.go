package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/insts"
)

// reference evaluates a condition straight from the architecture manual.
func reference(cond insts.Cond, n, z, c, v bool) bool {
	switch cond {
	case insts.CondEQ:
		return z
	case insts.CondNE:
		return !z
	case insts.CondCS:
		return c
	case insts.CondCC:
		return !c
	case insts.CondMI:
		return n
	case insts.CondPL:
		return !n
	case insts.CondVS:
		return v
	case insts.CondVC:
		return !v
	case insts.CondHI:
		return c && !z
	case insts.CondLS:
		return !c || z
	case insts.CondGE:
		return n == v
	case insts.CondLT:
		return n != v
	case insts.CondGT:
		return !z && n == v
	case insts.CondLE:
		return z || n != v
	default:
		return true
	}
}

var _ = Describe("CheckCondition", func() {
	It("should match the truth table for every flag combination", func() {
		for nzcv := uint8(0); nzcv < 16; nzcv++ {
			var psr emu.StatusRegister
			psr.SetFlags(nzcv)
			n, z, c, v := nzcv&8 != 0, nzcv&4 != 0, nzcv&2 != 0, nzcv&1 != 0

			for cond := insts.CondEQ; cond <= insts.CondAL; cond++ {
				passed, err := emu.CheckCondition(psr, cond)
				Expect(err).NotTo(HaveOccurred())
				Expect(passed).To(Equal(reference(cond, n, z, c, v)),
					"cond %s flags %04b", cond, nzcv)
			}
		}
	})

	DescribeTable("examples",
		func(nzcv uint8, cond insts.Cond, want bool) {
			var psr emu.StatusRegister
			psr.SetFlags(nzcv)
			Expect(emu.CheckCondition(psr, cond)).To(Equal(want))
		},
		Entry("HI with C and not Z", uint8(0b0010), insts.CondHI, true),
		Entry("HI with C and Z", uint8(0b0110), insts.CondHI, false),
		Entry("GE with N and V", uint8(0b1001), insts.CondGE, true),
		Entry("LT with N only", uint8(0b1000), insts.CondLT, true),
		Entry("GT with Z", uint8(0b0100), insts.CondGT, false),
		Entry("LE with N only", uint8(0b1000), insts.CondLE, true),
	)

	It("should reject the reserved condition", func() {
		_, err := emu.CheckCondition(emu.StatusRegister{}, insts.CondNV)
		Expect(err).To(MatchError(emu.ErrReservedCondition))
	})
})
