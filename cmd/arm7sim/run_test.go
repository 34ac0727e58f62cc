package main

import (
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7sim/benchmarks"
	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/loader"
	"github.com/sarchlab/arm7sim/timing/core"
	"github.com/sarchlab/arm7sim/timing/latency"
)

const iwram = 0x03000000

var _ = Describe("arm7sim", func() {
	var (
		tempDir string
		opts    runOptions
	)

	// MOV R0, #1; ADD R0, R0, #1; B .
	countToTwo := benchmarks.BuildProgram(
		benchmarks.EncodeMOVImm(0, 1),
		benchmarks.EncodeADDImm(0, 0, 1, false),
		benchmarks.EncodeIdleLoop(),
	)

	writeImage := func(data []byte) string {
		path := filepath.Join(tempDir, "image.bin")
		Expect(os.WriteFile(path, data, 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		opts = runOptions{
			log:             logr.Discard(),
			maxInstructions: 1000,
			skipBIOS:        true,
		}
	})

	Describe("loadProgram", func() {
		It("should load a raw image at the requested base", func() {
			prog, err := loadProgram(writeImage(countToTwo), iwram)
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.EntryPoint).To(Equal(uint32(iwram)))
			Expect(prog.Thumb).To(BeFalse())
			Expect(prog.InitialSP).To(Equal(uint32(loader.DefaultStackTop)))
		})

		It("should fail for a missing file", func() {
			_, err := loadProgram(filepath.Join(tempDir, "missing.bin"), iwram)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("functional mode", func() {
		It("should run until the idle loop", func() {
			prog, err := loadProgram(writeImage(countToTwo), iwram)
			Expect(err).NotTo(HaveOccurred())

			result := runEmulation(prog, opts)

			Expect(result.idleLoop).To(BeTrue())
			Expect(result.instructions).To(Equal(uint64(3)))
			Expect(result.pc).To(Equal(uint32(iwram + 8)))
			Expect(result.cpu.Register(0)).To(Equal(uint32(2)))
			Expect(result.cpu.Register(emu.SP)).To(Equal(uint32(loader.DefaultStackTop)))
			Expect(result.cpu.Mode()).To(Equal(emu.ModeSystem))
		})

		It("should stop at the instruction limit", func() {
			prog, err := loadProgram(writeImage(countToTwo), iwram)
			Expect(err).NotTo(HaveOccurred())
			opts.maxInstructions = 2

			result := runEmulation(prog, opts)

			Expect(result.idleLoop).To(BeFalse())
			Expect(result.instructions).To(Equal(uint64(2)))
			Expect(result.pc).To(Equal(uint32(iwram + 8)))
		})

		It("should start Thumb programs in Thumb state", func() {
			code := benchmarks.BuildThumbProgram(
				benchmarks.EncodeThumbMOVImm(0, 7),
				benchmarks.EncodeThumbIdleLoop(),
			)
			prog := &loader.Program{
				EntryPoint: iwram,
				Thumb:      true,
				InitialSP:  loader.DefaultStackTop,
				Segments: []loader.Segment{{
					VirtAddr: iwram,
					Data:     code,
					MemSize:  uint32(len(code)),
				}},
			}

			result := runEmulation(prog, opts)

			Expect(result.idleLoop).To(BeTrue())
			Expect(result.pc).To(Equal(uint32(iwram + 2)))
			Expect(result.cpu.Register(0)).To(Equal(uint32(7)))
			Expect(result.cpu.StatusRegister().State()).To(Equal(emu.StateThumb))
		})
	})

	Describe("timing mode", func() {
		It("should count the cycles of on-chip code", func() {
			prog, err := loadProgram(writeImage(countToTwo), iwram)
			Expect(err).NotTo(HaveOccurred())

			c := runTiming(prog, opts, latency.DefaultTimingConfig())

			Expect(c.IdleLoop()).To(BeTrue())
			Expect(c.CPU.Register(0)).To(Equal(uint32(2)))
			Expect(c.Stats()).To(Equal(core.Stats{
				Cycles:        7,
				Instructions:  3,
				Sequential:    5,
				NonSequential: 2,
				Flushes:       1,
			}))
		})

		It("should make cartridge code slower", func() {
			prog, err := loadProgram(writeImage(countToTwo), benchmarks.CartridgeBase)
			Expect(err).NotTo(HaveOccurred())

			c := runTiming(prog, opts, latency.DefaultTimingConfig())

			Expect(c.IdleLoop()).To(BeTrue())
			Expect(c.Stats().Cycles).To(Equal(uint64(46)))
		})

		It("should honour a timing config file", func() {
			config := latency.DefaultTimingConfig()
			config.ApplyWAITCNT(0x0014)
			path := filepath.Join(tempDir, "timing.json")
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			prog, err := loadProgram(writeImage(countToTwo), benchmarks.CartridgeBase)
			Expect(err).NotTo(HaveOccurred())

			c := runTiming(prog, opts, loaded)

			Expect(c.Stats().Cycles).To(Equal(uint64(32)))
		})
	})

	Describe("newLogger", func() {
		It("should discard everything at verbosity zero", func() {
			Expect(newLogger(0).Enabled()).To(BeFalse())
		})

		It("should enable levels up to the verbosity", func() {
			log := newLogger(1)
			Expect(log.V(1).Enabled()).To(BeTrue())
			Expect(log.V(2).Enabled()).To(BeFalse())
		})
	})

	It("should map the idle loop to a zero exit status", func() {
		Expect(exitStatus(true)).To(Equal(0))
		Expect(exitStatus(false)).To(Equal(3))
	})
})
