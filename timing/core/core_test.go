package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/timing/core"
	"github.com/sarchlab/arm7sim/timing/latency"
)

const (
	iwram = 0x03000000
	rom   = 0x08000000
)

func writeProgram(memory *emu.Memory, addr uint32, words ...uint32) {
	for i, w := range words {
		memory.Write32(addr+uint32(4*i), w)
	}
}

var _ = Describe("Core", func() {
	var (
		memory *emu.Memory
		c      *core.Core
	)

	// MOV R0, #1; ADD R0, R0, #1; B .
	countToTwo := []uint32{0xE3A00001, 0xE2800001, 0xEAFFFFFE}

	BeforeEach(func() {
		memory = emu.NewMemory()
		c = core.NewCore(memory)
	})

	It("should create a core with a CPU", func() {
		Expect(c).NotTo(BeNil())
		Expect(c.CPU).NotTo(BeNil())
		Expect(c.Stats()).To(Equal(core.Stats{}))
	})

	It("should set and get PC", func() {
		c.SetPC(0x1000)
		Expect(c.PC()).To(Equal(uint32(0x1000)))
	})

	It("should not be halted initially", func() {
		Expect(c.Halted()).To(BeFalse())
	})

	It("should execute instructions through tick", func() {
		writeProgram(memory, iwram, countToTwo...)
		c.SetPC(iwram)

		result := c.Tick()
		Expect(result.Executed).To(BeTrue())
		Expect(c.CPU.Register(0)).To(Equal(uint32(1)))
		Expect(c.PC()).To(Equal(uint32(iwram + 4)))
	})

	It("should run until the idle loop and count every bus cycle", func() {
		writeProgram(memory, iwram, countToTwo...)
		c.SetPC(iwram)

		stats := c.Run()

		Expect(c.Halted()).To(BeTrue())
		Expect(c.IdleLoop()).To(BeTrue())
		Expect(c.CPU.Register(0)).To(Equal(uint32(2)))
		Expect(c.PC()).To(Equal(uint32(iwram + 8)))
		Expect(stats).To(Equal(core.Stats{
			Cycles:        7,
			Instructions:  3,
			Sequential:    5,
			NonSequential: 2,
			Flushes:       1,
		}))
		Expect(stats.CPI()).To(BeNumerically("~", 7.0/3.0, 1e-9))
	})

	It("should charge cartridge wait states", func() {
		writeProgram(memory, rom, countToTwo...)
		c.SetPC(rom)

		stats := c.Run()

		Expect(stats.Cycles).To(Equal(uint64(46)))
		Expect(stats.Instructions).To(Equal(uint64(3)))
	})

	It("should use a custom latency table", func() {
		config := latency.DefaultTimingConfig()
		config.ApplyWAITCNT(0x0014) // WS0 3/1
		c = core.NewCore(memory, core.WithLatencyTable(latency.NewTableWithConfig(config)))
		writeProgram(memory, rom, countToTwo...)
		c.SetPC(rom)

		// Refills cost 2 N words of 6 and 2 S words of 4, three fetches 4 each.
		Expect(c.Run().Cycles).To(Equal(uint64(32)))
	})

	It("should count internal cycles", func() {
		writeProgram(memory, iwram,
			0xE0020190, // MUL R2, R0, R1
			0xE5921000, // LDR R1, [R2]
		)
		c.SetPC(iwram)
		c.CPU.SetRegister(0, 0x1000)
		c.CPU.SetRegister(1, 3)
		before := c.Stats()

		c.Tick()
		c.Tick()
		stats := c.Stats()

		Expect(stats.Idle - before.Idle).To(Equal(uint64(2)))
		// Two fetches, the load and two internal cycles.
		Expect(stats.Cycles - before.Cycles).To(Equal(uint64(5)))
		Expect(c.CPU.Register(2)).To(Equal(uint32(0x3000)))
	})

	It("should stop at the instruction limit", func() {
		c = core.NewCore(memory, core.WithMaxInstructions(5))
		c.SetPC(iwram)

		stats := c.Run()

		Expect(c.Halted()).To(BeTrue())
		Expect(c.IdleLoop()).To(BeFalse())
		Expect(stats.Instructions).To(Equal(uint64(5)))
	})

	It("should run for specified cycles and return running status", func() {
		c.SetPC(iwram)

		Expect(c.RunCycles(10)).To(BeTrue())
		Expect(c.Stats().Cycles).To(Equal(uint64(12)))
		Expect(c.Stats().Instructions).To(Equal(uint64(10)))
	})

	It("should stop running cycles when halted", func() {
		writeProgram(memory, iwram, countToTwo...)
		c.SetPC(iwram)

		Expect(c.RunCycles(1000)).To(BeFalse())
		Expect(c.Stats().Instructions).To(Equal(uint64(3)))

		c.Tick()
		Expect(c.Stats().Instructions).To(Equal(uint64(3)))
	})

	It("should keep the last unsupported-instruction error", func() {
		writeProgram(memory, iwram, 0xE1A0011F) // MOV R0, PC, LSL R1
		c.SetPC(iwram)

		result := c.Tick()
		Expect(result.Err).To(MatchError(emu.ErrRegisterShiftPC))
		Expect(c.LastError()).To(MatchError(emu.ErrRegisterShiftPC))
	})

	It("should pass options to the CPU", func() {
		c = core.NewCore(memory, core.WithCPUOptions(emu.WithSkipBIOS()))
		Expect(c.CPU.Mode()).To(Equal(emu.ModeSystem))
		Expect(c.PC()).To(Equal(uint32(emu.CartridgeEntry)))
	})

	It("should reset core state", func() {
		writeProgram(memory, iwram, countToTwo...)
		c.SetPC(iwram)
		c.Run()

		c.Reset()

		Expect(c.Halted()).To(BeFalse())
		Expect(c.Stats()).To(Equal(core.Stats{}))
		Expect(c.CPU.Mode()).To(Equal(emu.ModeSupervisor))
		Expect(c.PC()).To(Equal(uint32(0)))
	})
})
