package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7sim/emu"
)

var _ = Describe("CPU in Thumb state", func() {
	const origin = 0x100

	var (
		bus *recordingBus
		cpu *emu.CPU
	)

	// boot loads a Thumb program at origin and starts executing it.
	boot := func(halves ...uint16) {
		writeHalves(bus.Memory, origin, halves...)
		cpu = emu.NewCPU(bus)
		psr := cpu.StatusRegister()
		psr.SetState(emu.StateThumb)
		Expect(cpu.SetStatusRegister(psr)).To(Succeed())
		cpu.SetProgramCounter(origin)
	}

	BeforeEach(func() {
		bus = newRecordingBus()
	})

	It("should read R15 as the instruction address plus 4", func() {
		boot(0x4678) // MOV R0, PC
		stepN(cpu, 1)

		Expect(cpu.Register(0)).To(Equal(uint32(origin + 4)))
		Expect(cpu.Register(emu.PC)).To(Equal(uint32(origin + 6)))
	})

	It("should fetch halfwords sequentially", func() {
		boot(0x2005, 0x1C41)
		bus.log = nil
		stepN(cpu, 2)

		Expect(bus.log).To(Equal([]busAccess{
			{addr: origin + 4, access: emu.Sequential},
			{addr: origin + 6, access: emu.Sequential},
		}))
	})

	It("should move, add and compare immediates", func() {
		boot(
			0x2005, // MOV R0, #5
			0x1C41, // ADD R1, R0, #1
			0x2805, // CMP R0, #5
		)
		stepN(cpu, 3)

		Expect(cpu.Register(0)).To(Equal(uint32(5)))
		Expect(cpu.Register(1)).To(Equal(uint32(6)))
		Expect(cpu.StatusRegister().Zero()).To(BeTrue())
		Expect(cpu.StatusRegister().Carry()).To(BeTrue())
	})

	It("should shift by an immediate", func() {
		boot(0x0088) // LSL R0, R1, #2
		cpu.SetRegister(1, 0xC0000003)
		stepN(cpu, 1)

		Expect(cpu.Register(0)).To(Equal(uint32(0x0000000C)))
		Expect(cpu.StatusRegister().Carry()).To(BeTrue())
	})

	It("should run register ALU operations", func() {
		boot(
			0x4348, // MUL R0, R1
			0x424A, // NEG R2, R1
		)
		cpu.SetRegister(0, 6)
		cpu.SetRegister(1, 7)
		stepN(cpu, 2)

		Expect(cpu.Register(0)).To(Equal(uint32(42)))
		Expect(cpu.Register(2)).To(Equal(uint32(0xFFFFFFF9)))
		Expect(cpu.StatusRegister().Negative()).To(BeTrue())
	})

	It("should reach the high registers", func() {
		boot(0x4680) // MOV R8, R0
		cpu.SetRegister(0, 0x1234)
		stepN(cpu, 1)

		Expect(cpu.Register(8)).To(Equal(uint32(0x1234)))
	})

	It("should execute BL as two halves", func() {
		boot(0xF000, 0xF802) // BL origin+8
		Expect(cpu.Step().Action).To(Equal(emu.Advance(emu.Sequential)))
		Expect(cpu.Step().Action).To(Equal(emu.PipelineFlush))

		Expect(cpu.Register(emu.LR)).To(Equal(uint32(origin + 4 + 1)))
		Expect(cpu.Register(emu.PC)).To(Equal(uint32(origin + 8 + 4)))
	})

	It("should return to ARM state with BX", func() {
		boot(0x4770) // BX LR
		cpu.SetRegister(emu.LR, 0x200)
		stepN(cpu, 1)

		Expect(cpu.StatusRegister().State()).To(Equal(emu.StateARM))
		Expect(cpu.Register(emu.PC)).To(Equal(uint32(0x208)))
	})

	It("should push and pop", func() {
		boot(
			0xB510, // PUSH {R4, LR}
			0x2400, // MOV R4, #0
			0xBD10, // POP {R4, PC}
		)
		cpu.SetRegister(emu.SP, 0x1000)
		cpu.SetRegister(4, 0x44)
		cpu.SetRegister(emu.LR, 0x301)
		stepN(cpu, 1)

		Expect(bus.Read32(0xFF8)).To(Equal(uint32(0x44)))
		Expect(bus.Read32(0xFFC)).To(Equal(uint32(0x301)))
		Expect(cpu.Register(emu.SP)).To(Equal(uint32(0xFF8)))

		stepN(cpu, 1)
		result := cpu.Step()

		Expect(result.Action).To(Equal(emu.PipelineFlush))
		Expect(cpu.Register(4)).To(Equal(uint32(0x44)))
		Expect(cpu.Register(emu.SP)).To(Equal(uint32(0x1000)))
		Expect(cpu.StatusRegister().State()).To(Equal(emu.StateThumb))
		Expect(cpu.Register(emu.PC)).To(Equal(uint32(0x304)))
	})

	It("should store multiple registers with write-back", func() {
		boot(0xC303) // STMIA R3!, {R0, R1}
		cpu.SetRegister(0, 0xA)
		cpu.SetRegister(1, 0xB)
		cpu.SetRegister(3, 0x2000)
		stepN(cpu, 1)

		Expect(bus.Read32(0x2000)).To(Equal(uint32(0xA)))
		Expect(bus.Read32(0x2004)).To(Equal(uint32(0xB)))
		Expect(cpu.Register(3)).To(Equal(uint32(0x2008)))
	})

	It("should load relative to the word-aligned PC", func() {
		bus.Write32(origin+8, 0xDEADBEEF)
		boot(0x4801) // LDR R0, [PC, #4]
		stepN(cpu, 1)

		Expect(cpu.Register(0)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should adjust and read the stack pointer", func() {
		boot(
			0xB082, // SUB SP, #8
			0xA801, // ADD R0, SP, #4
		)
		cpu.SetRegister(emu.SP, 0x1000)
		stepN(cpu, 2)

		Expect(cpu.Register(emu.SP)).To(Equal(uint32(0xFF8)))
		Expect(cpu.Register(0)).To(Equal(uint32(0xFFC)))
	})

	It("should load halfwords and sign-extended bytes", func() {
		bus.Write32(0x1000, 0x8081F0F1)
		boot(
			0x8848, // LDRH R0, [R1, #2]
			0x568B, // LDSB R3, [R1, R2]
		)
		cpu.SetRegister(1, 0x1000)
		cpu.SetRegister(2, 1)
		stepN(cpu, 2)

		Expect(cpu.Register(0)).To(Equal(uint32(0x8081)))
		Expect(cpu.Register(3)).To(Equal(uint32(0xFFFFFFF0)))
	})

	Describe("conditional branch", func() {
		It("should fall through when the condition fails", func() {
			boot(0xD0FE) // BEQ origin
			result := cpu.Step()

			Expect(result.Executed).To(BeFalse())
			Expect(result.Action).To(Equal(emu.Advance(emu.NonSequential)))
			Expect(cpu.Register(emu.PC)).To(Equal(uint32(origin + 6)))
		})

		It("should branch when the condition passes", func() {
			boot(0xD0FE)
			psr := cpu.StatusRegister()
			psr.SetZero(true)
			Expect(cpu.SetStatusRegister(psr)).To(Succeed())
			result := cpu.Step()

			Expect(result.Executed).To(BeTrue())
			Expect(result.Action).To(Equal(emu.PipelineFlush))
			Expect(cpu.Register(emu.PC)).To(Equal(uint32(origin + 4)))
		})
	})

	Describe("exceptions", func() {
		It("should enter Supervisor mode in ARM state on SWI", func() {
			boot(0xDF12)
			stepN(cpu, 1)

			Expect(cpu.Mode()).To(Equal(emu.ModeSupervisor))
			Expect(cpu.StatusRegister().State()).To(Equal(emu.StateARM))
			Expect(cpu.Register(emu.LR)).To(Equal(uint32(origin + 2)))
			Expect(cpu.Register(emu.PC)).To(Equal(uint32(0x08 + 8)))

			spsr, ok := cpu.SavedStatusRegister()
			Expect(ok).To(BeTrue())
			Expect(spsr.State()).To(Equal(emu.StateThumb))
		})

		It("should trap undefined halfwords", func() {
			boot(0xDE00)
			stepN(cpu, 1)

			Expect(cpu.Mode()).To(Equal(emu.ModeUndefined))
			Expect(cpu.Register(emu.LR)).To(Equal(uint32(origin + 2)))
		})

		It("should return an IRQ to the next Thumb instruction", func() {
			cpu = emu.NewCPU(bus, emu.WithSkipBIOS())
			psr := cpu.StatusRegister()
			psr.SetState(emu.StateThumb)
			Expect(cpu.SetStatusRegister(psr)).To(Succeed())
			cpu.SetProgramCounter(origin)

			Expect(cpu.RaiseIRQ()).To(BeTrue())
			Expect(cpu.Register(emu.LR)).To(Equal(uint32(origin + 4)))
		})
	})
})
