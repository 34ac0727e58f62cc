package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/timing/latency"
)

var _ = Describe("Latency", func() {
	var table *latency.Table

	BeforeEach(func() {
		table = latency.NewTable()
	})

	Describe("Default Timing Values", func() {
		It("should match the power-on WAITCNT", func() {
			config := table.Config()
			Expect(config.ClockSpeed).To(Equal(uint32(16777216)))
			Expect(config.EWRAMWaitStates).To(Equal(uint64(2)))
			Expect(config.SRAMWaitStates).To(Equal(uint64(4)))
			Expect(config.ROMWaitStates).To(Equal([3]latency.WaitStates{
				{NonSequential: 4, Sequential: 2},
				{NonSequential: 4, Sequential: 4},
				{NonSequential: 4, Sequential: 8},
			}))
			Expect(config.PrefetchEnabled).To(BeFalse())
		})
	})

	DescribeTable("RegionOf",
		func(addr uint32, region latency.Region) {
			Expect(latency.RegionOf(addr)).To(Equal(region))
		},
		Entry("BIOS", uint32(0x00000000), latency.RegionBIOS),
		Entry("gap", uint32(0x01000000), latency.RegionUnmapped),
		Entry("EWRAM", uint32(0x02000100), latency.RegionEWRAM),
		Entry("IWRAM", uint32(0x03007F00), latency.RegionIWRAM),
		Entry("IO", uint32(0x04000200), latency.RegionIO),
		Entry("palette", uint32(0x05000000), latency.RegionPalette),
		Entry("VRAM", uint32(0x06010000), latency.RegionVRAM),
		Entry("OAM", uint32(0x07000000), latency.RegionOAM),
		Entry("ROM0 mirror", uint32(0x09FFFFFE), latency.RegionROM0),
		Entry("ROM1", uint32(0x0A000000), latency.RegionROM1),
		Entry("ROM2", uint32(0x0D000000), latency.RegionROM2),
		Entry("SRAM", uint32(0x0E000000), latency.RegionSRAM),
		Entry("above 256 MiB", uint32(0x10000000), latency.RegionUnmapped),
	)

	Describe("AccessCycles", func() {
		DescribeTable("default wait states",
			func(addr uint32, width latency.Width, access emu.Access, cycles uint64) {
				Expect(table.AccessCycles(addr, width, access)).To(Equal(cycles))
			},
			Entry("IWRAM word", uint32(0x03000000), latency.Width32, emu.NonSequential, uint64(1)),
			Entry("EWRAM halfword", uint32(0x02000000), latency.Width16, emu.NonSequential, uint64(3)),
			Entry("EWRAM word", uint32(0x02000000), latency.Width32, emu.Sequential, uint64(6)),
			Entry("ROM0 N halfword", uint32(0x08000004), latency.Width16, emu.NonSequential, uint64(5)),
			Entry("ROM0 S halfword", uint32(0x08000004), latency.Width16, emu.Sequential, uint64(3)),
			Entry("ROM0 N word", uint32(0x08000004), latency.Width32, emu.NonSequential, uint64(8)),
			Entry("ROM0 S word", uint32(0x08000004), latency.Width32, emu.Sequential, uint64(6)),
			Entry("ROM1 S halfword", uint32(0x0A000002), latency.Width16, emu.Sequential, uint64(5)),
			Entry("ROM2 S halfword", uint32(0x0C000002), latency.Width16, emu.Sequential, uint64(9)),
			Entry("SRAM byte", uint32(0x0E000000), latency.Width8, emu.Sequential, uint64(5)),
			Entry("unmapped", uint32(0x10000000), latency.Width32, emu.NonSequential, uint64(1)),
		)

		It("should force a NonSequential access at a cartridge page boundary", func() {
			Expect(table.AccessCycles(0x08020000, latency.Width16, emu.Sequential)).
				To(Equal(uint64(5)))
			Expect(table.AccessCycles(0x08020002, latency.Width16, emu.Sequential)).
				To(Equal(uint64(3)))
		})

		It("should report bus widths", func() {
			Expect(latency.BusWidth(latency.RegionROM1)).To(Equal(latency.Width16))
			Expect(latency.BusWidth(latency.RegionSRAM)).To(Equal(latency.Width8))
			Expect(latency.BusWidth(latency.RegionIWRAM)).To(Equal(latency.Width32))
		})
	})

	Describe("Custom Configuration", func() {
		It("should use custom config values", func() {
			config := latency.DefaultTimingConfig()
			config.IWRAMWaitStates = 3
			config.ROMWaitStates[0] = latency.WaitStates{NonSequential: 2, Sequential: 1}

			custom := latency.NewTableWithConfig(config)
			Expect(custom.AccessCycles(0x03000000, latency.Width32, emu.Sequential)).
				To(Equal(uint64(4)))
			Expect(custom.AccessCycles(0x08000100, latency.Width32, emu.NonSequential)).
				To(Equal(uint64(5)))
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			Expect(latency.DefaultTimingConfig().Validate()).To(Succeed())
		})
	})

	Describe("ApplyWAITCNT", func() {
		It("should decode every cartridge field", func() {
			config := latency.DefaultTimingConfig()
			config.ApplyWAITCNT(0x4317)

			Expect(config.SRAMWaitStates).To(Equal(uint64(8)))
			Expect(config.ROMWaitStates[0]).To(Equal(latency.WaitStates{NonSequential: 3, Sequential: 1}))
			Expect(config.ROMWaitStates[1]).To(Equal(latency.WaitStates{NonSequential: 4, Sequential: 4}))
			Expect(config.ROMWaitStates[2]).To(Equal(latency.WaitStates{NonSequential: 8, Sequential: 8}))
			Expect(config.PrefetchEnabled).To(BeTrue())
		})

		It("should restore the power-on values", func() {
			config := latency.DefaultTimingConfig()
			config.ApplyWAITCNT(0x4317)
			config.ApplyWAITCNT(0)

			Expect(config).To(Equal(latency.DefaultTimingConfig()))
		})
	})

	Describe("Validation", func() {
		It("should reject a zero clock speed", func() {
			config := latency.DefaultTimingConfig()
			config.ClockSpeed = 0
			Expect(config.Validate()).To(MatchError(ContainSubstring("clock_speed")))
		})

		It("should reject zero cartridge wait states", func() {
			config := latency.DefaultTimingConfig()
			config.ROMWaitStates[1].Sequential = 0
			Expect(config.Validate()).To(MatchError(ContainSubstring("rom_wait_states[1].s")))
		})

		It("should reject an empty prefetch buffer when enabled", func() {
			config := latency.DefaultTimingConfig()
			config.PrefetchEnabled = true
			config.PrefetchDepth = 0
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()
			clone.ROMWaitStates[0].NonSequential = 2

			Expect(original.ROMWaitStates[0].NonSequential).To(Equal(uint64(4)))
			Expect(clone.ROMWaitStates[0].NonSequential).To(Equal(uint64(2)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := latency.DefaultTimingConfig()
			original.EWRAMWaitStates = 1
			original.ApplyWAITCNT(0x4317)

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for fields missing from the file", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"iwram_wait_states": 1}`), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.IWRAMWaitStates).To(Equal(uint64(1)))
			Expect(loaded.EWRAMWaitStates).To(Equal(uint64(2)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
