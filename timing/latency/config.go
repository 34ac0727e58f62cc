package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// WaitStates holds the extra cycles of a first (NonSequential) and a
// following (Sequential) access to one memory region.
type WaitStates struct {
	NonSequential uint64 `json:"n"`
	Sequential    uint64 `json:"s"`
}

// TimingConfig holds the wait states of every memory region of the
// handheld console. An access costs one cycle plus the region's wait states.
type TimingConfig struct {
	// ClockSpeed is the CPU clock in Hz. Default: 16777216.
	ClockSpeed uint32 `json:"clock_speed"`

	// BIOSWaitStates applies to the boot ROM. Default: 0.
	BIOSWaitStates uint64 `json:"bios_wait_states"`

	// EWRAMWaitStates applies to the 256 KiB on-board work RAM, which sits
	// on a 16-bit bus. Default: 2.
	EWRAMWaitStates uint64 `json:"ewram_wait_states"`

	// IWRAMWaitStates applies to the 32 KiB on-chip work RAM. Default: 0.
	IWRAMWaitStates uint64 `json:"iwram_wait_states"`

	// IOWaitStates applies to the I/O registers. Default: 0.
	IOWaitStates uint64 `json:"io_wait_states"`

	// PaletteWaitStates applies to palette RAM (16-bit bus). Default: 0.
	PaletteWaitStates uint64 `json:"palette_wait_states"`

	// VRAMWaitStates applies to video RAM (16-bit bus). Default: 0.
	VRAMWaitStates uint64 `json:"vram_wait_states"`

	// OAMWaitStates applies to object attribute memory. Default: 0.
	OAMWaitStates uint64 `json:"oam_wait_states"`

	// ROMWaitStates holds the three cartridge ROM mirrors (WS0, WS1, WS2).
	// Default: N=4 for all, S=2, 4 and 8.
	ROMWaitStates [3]WaitStates `json:"rom_wait_states"`

	// SRAMWaitStates applies to cartridge save RAM (8-bit bus). Default: 4.
	SRAMWaitStates uint64 `json:"sram_wait_states"`

	// PrefetchEnabled turns on the cartridge prefetch buffer.
	// Default: false.
	PrefetchEnabled bool `json:"prefetch_enabled"`

	// PrefetchDepth is the number of halfwords the prefetch buffer holds.
	// Default: 8.
	PrefetchDepth int `json:"prefetch_depth"`
}

// DefaultTimingConfig returns the power-on timing, equivalent to a WAITCNT
// value of zero.
func DefaultTimingConfig() *TimingConfig {
	config := &TimingConfig{
		ClockSpeed:      16777216,
		EWRAMWaitStates: 2,
		PrefetchDepth:   8,
	}
	config.ApplyWAITCNT(0)
	return config
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes real hardware limits.
func (c *TimingConfig) Validate() error {
	if c.ClockSpeed == 0 {
		return fmt.Errorf("clock_speed must be > 0")
	}
	for i, ws := range c.ROMWaitStates {
		if ws.NonSequential == 0 {
			return fmt.Errorf("rom_wait_states[%d].n must be > 0", i)
		}
		if ws.Sequential == 0 {
			return fmt.Errorf("rom_wait_states[%d].s must be > 0", i)
		}
	}
	if c.PrefetchEnabled && c.PrefetchDepth <= 0 {
		return fmt.Errorf("prefetch_depth must be > 0 when prefetch is enabled")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}

// WAITCNT field encodings.
var (
	nonSequentialSetting = [4]uint64{4, 3, 2, 8}
	sequentialSetting    = [3][2]uint64{{2, 1}, {4, 1}, {8, 1}}
)

// ApplyWAITCNT decodes the console's wait-state control register into the
// cartridge fields of the configuration:
//
//	bits 1-0   SRAM wait
//	bits 3-2   WS0 first access   bit 4  WS0 second access
//	bits 6-5   WS1 first access   bit 7  WS1 second access
//	bits 9-8   WS2 first access   bit 10 WS2 second access
//	bit  14    prefetch buffer enable
func (c *TimingConfig) ApplyWAITCNT(value uint16) {
	c.SRAMWaitStates = nonSequentialSetting[value&3]

	for i := range c.ROMWaitStates {
		shift := 2 + 3*uint(i)
		c.ROMWaitStates[i] = WaitStates{
			NonSequential: nonSequentialSetting[value>>shift&3],
			Sequential:    sequentialSetting[i][value>>(shift+2)&1],
		}
	}

	c.PrefetchEnabled = value>>14&1 == 1
}
