package cache

import (
	"github.com/sarchlab/arm7sim/emu"
)

// BusBacking wraps an emu.Bus as a BackingStore. Reads are issued as
// Sequential accesses, which is how the prefetch unit walks the cartridge.
type BusBacking struct {
	bus emu.Bus
}

// NewBusBacking creates a new BusBacking adapter.
func NewBusBacking(bus emu.Bus) *BusBacking {
	return &BusBacking{bus: bus}
}

// Read fetches size bytes from the bus, a halfword at a time.
func (m *BusBacking) Read(addr uint32, size int) []byte {
	data := make([]byte, size)
	for i := 0; i+1 < size; i += 2 {
		v := m.bus.Load16(addr+uint32(i), emu.Sequential)
		data[i] = byte(v)
		data[i+1] = byte(v >> 8)
	}
	if size%2 == 1 {
		data[size-1] = m.bus.Load8(addr+uint32(size-1), emu.Sequential)
	}
	return data
}
