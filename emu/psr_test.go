package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7sim/emu"
)

var _ = Describe("StatusRegister", func() {
	It("should force the reserved bits to zero", func() {
		psr := emu.NewStatusRegister(0xFFFFFFFF)
		Expect(psr.Value()).To(Equal(uint32(0xF00000FF)))

		psr.Set(0x0FFFFF00)
		Expect(psr.Value()).To(Equal(uint32(0)))
	})

	It("should round-trip the flag nibble without touching other bits", func() {
		psr := emu.NewStatusRegister(uint32(emu.ModeIrq) | 0x80)

		for nzcv := uint8(0); nzcv < 16; nzcv++ {
			psr.SetFlags(nzcv)
			Expect(psr.Flags()).To(Equal(nzcv))
			Expect(psr.Value() & 0xFF).To(Equal(uint32(0x92)))
		}

		psr.SetFlags(0xF5)
		Expect(psr.Flags()).To(Equal(uint8(0x5)))
	})

	It("should expose each flag", func() {
		var psr emu.StatusRegister
		psr.SetNegative(true)
		psr.SetCarry(true)

		Expect(psr.Negative()).To(BeTrue())
		Expect(psr.Zero()).To(BeFalse())
		Expect(psr.Carry()).To(BeTrue())
		Expect(psr.Overflow()).To(BeFalse())
		Expect(psr.Value()).To(Equal(uint32(0xA0000000)))
	})

	It("should decode the control byte", func() {
		psr := emu.NewStatusRegister(0xF3)

		Expect(psr.IRQDisable()).To(BeTrue())
		Expect(psr.FIQDisable()).To(BeTrue())
		Expect(psr.State()).To(Equal(emu.StateThumb))
		mode, err := psr.Mode()
		Expect(err).NotTo(HaveOccurred())
		Expect(mode).To(Equal(emu.ModeSupervisor))
	})

	DescribeTable("mode validation",
		func(bits uint32, valid bool) {
			_, err := emu.NewStatusRegister(bits).Mode()
			if valid {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(emu.ErrInvalidMode))
			}
		},
		Entry("User", uint32(0x10), true),
		Entry("Fiq", uint32(0x11), true),
		Entry("Irq", uint32(0x12), true),
		Entry("Supervisor", uint32(0x13), true),
		Entry("Abort", uint32(0x17), true),
		Entry("Undefined", uint32(0x1B), true),
		Entry("System", uint32(0x1F), true),
		Entry("0x15", uint32(0x15), false),
		Entry("0x00", uint32(0x00), false),
		Entry("0x1C", uint32(0x1C), false),
	)

	It("should reject an invalid mode when parsing", func() {
		_, err := emu.ParseStatusRegister(0x15)
		Expect(err).To(MatchError(emu.ErrInvalidMode))

		psr, err := emu.ParseStatusRegister(0xFFFFFF1F)
		Expect(err).NotTo(HaveOccurred())
		Expect(psr.Value()).To(Equal(uint32(0xF000001F)))
	})

	It("should know which modes are privileged and banked", func() {
		Expect(emu.ModeUser.Privileged()).To(BeFalse())
		Expect(emu.ModeSystem.Privileged()).To(BeTrue())
		Expect(emu.ModeUser.HasSPSR()).To(BeFalse())
		Expect(emu.ModeSystem.HasSPSR()).To(BeFalse())
		Expect(emu.ModeFiq.HasSPSR()).To(BeTrue())
		Expect(emu.ModeUndefined.HasSPSR()).To(BeTrue())
	})
})
