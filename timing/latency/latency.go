// Package latency provides the memory timing model of the handheld console.
//
// Every bus cycle the CPU issues is tagged Sequential or NonSequential. The
// Table turns an address, a transfer width and that tag into a cycle count
// using the wait states held in a TimingConfig.
package latency

import (
	"github.com/sarchlab/arm7sim/emu"
)

// Region is a memory region selected by the top byte of an address.
type Region uint8

// Memory regions.
const (
	RegionBIOS Region = iota
	RegionEWRAM
	RegionIWRAM
	RegionIO
	RegionPalette
	RegionVRAM
	RegionOAM
	RegionROM0
	RegionROM1
	RegionROM2
	RegionSRAM
	RegionUnmapped
)

var regionNames = [...]string{
	"BIOS", "EWRAM", "IWRAM", "IO", "Palette", "VRAM", "OAM",
	"ROM0", "ROM1", "ROM2", "SRAM", "Unmapped",
}

func (r Region) String() string { return regionNames[r] }

// IsROM reports whether r is one of the cartridge ROM mirrors.
func (r Region) IsROM() bool {
	return r >= RegionROM0 && r <= RegionROM2
}

var regionByPage = [16]Region{
	0x0: RegionBIOS,
	0x1: RegionUnmapped,
	0x2: RegionEWRAM,
	0x3: RegionIWRAM,
	0x4: RegionIO,
	0x5: RegionPalette,
	0x6: RegionVRAM,
	0x7: RegionOAM,
	0x8: RegionROM0,
	0x9: RegionROM0,
	0xA: RegionROM1,
	0xB: RegionROM1,
	0xC: RegionROM2,
	0xD: RegionROM2,
	0xE: RegionSRAM,
	0xF: RegionSRAM,
}

// RegionOf returns the region addr falls into.
func RegionOf(addr uint32) Region {
	if addr>>28 != 0 {
		return RegionUnmapped
	}
	return regionByPage[addr>>24]
}

// Width is a transfer size in bytes.
type Width uint8

// Transfer widths.
const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

// romPageMask selects the offset inside a 128 KiB cartridge page. The first
// access of every page is NonSequential regardless of the CPU's tag.
const romPageMask = 0x1FFFF

// Table provides memory access latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with the power-on timing.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// waitStates returns the wait states of one access to r.
func (t *Table) waitStates(r Region, access emu.Access) uint64 {
	c := t.config
	switch r {
	case RegionBIOS:
		return c.BIOSWaitStates
	case RegionEWRAM:
		return c.EWRAMWaitStates
	case RegionIWRAM:
		return c.IWRAMWaitStates
	case RegionIO:
		return c.IOWaitStates
	case RegionPalette:
		return c.PaletteWaitStates
	case RegionVRAM:
		return c.VRAMWaitStates
	case RegionOAM:
		return c.OAMWaitStates
	case RegionROM0, RegionROM1, RegionROM2:
		ws := c.ROMWaitStates[r-RegionROM0]
		if access == emu.Sequential {
			return ws.Sequential
		}
		return ws.NonSequential
	case RegionSRAM:
		return c.SRAMWaitStates
	default:
		return 0
	}
}

// BusWidth returns the data bus width of r.
func BusWidth(r Region) Width {
	switch r {
	case RegionEWRAM, RegionPalette, RegionVRAM, RegionROM0, RegionROM1, RegionROM2:
		return Width16
	case RegionSRAM:
		return Width8
	default:
		return Width32
	}
}

// AccessCycles returns the cycles one CPU access takes. A 32-bit access to
// a 16-bit region is split into two halves, the second always Sequential.
func (t *Table) AccessCycles(addr uint32, width Width, access emu.Access) uint64 {
	r := RegionOf(addr)
	if r.IsROM() && addr&romPageMask == 0 {
		access = emu.NonSequential
	}

	cycles := 1 + t.waitStates(r, access)
	if width == Width32 && BusWidth(r) == Width16 {
		cycles += 1 + t.waitStates(r, emu.Sequential)
	}
	return cycles
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
