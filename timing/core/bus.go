package core

import (
	"github.com/sarchlab/arm7sim/emu"
	"github.com/sarchlab/arm7sim/timing/cache"
	"github.com/sarchlab/arm7sim/timing/latency"
)

// busCounters accumulates what the CPU did on the bus.
type busCounters struct {
	cycles        uint64
	sequential    uint64
	nonSequential uint64
	idle          uint64
	prefetchHits  uint64
}

// timedBus forwards every access to the wrapped bus and charges its cost
// from the latency table. With a prefetch buffer attached, cycles spent off
// the cartridge bus let the buffer run ahead of the last cartridge access.
type timedBus struct {
	inner    emu.Bus
	table    *latency.Table
	prefetch *cache.PrefetchBuffer

	// Next halfword the prefetch unit reads, and the cycles it has banked
	// toward that read. Inactive until the first cartridge access.
	prefetchActive bool
	prefetchNext   uint32
	prefetchCredit uint64

	counters busCounters
}

func newTimedBus(inner emu.Bus, table *latency.Table) *timedBus {
	b := &timedBus{inner: inner, table: table}

	config := table.Config()
	if config.PrefetchEnabled {
		b.prefetch = cache.NewPrefetchBuffer(cache.Config{
			Depth:      config.PrefetchDepth,
			HitLatency: 1,
		}, cache.NewBusBacking(inner))
	}

	return b
}

func (b *timedBus) reset() {
	b.counters = busCounters{}
	b.prefetchActive = false
	b.prefetchCredit = 0
	if b.prefetch != nil {
		b.prefetch.Reset()
		b.prefetch.ResetStats()
	}
}

// charge accounts one access that missed the prefetch buffer.
func (b *timedBus) charge(addr uint32, width latency.Width, access emu.Access) {
	if access == emu.Sequential {
		b.counters.sequential++
	} else {
		b.counters.nonSequential++
	}

	cycles := b.table.AccessCycles(addr, width, access)
	b.counters.cycles += cycles

	if b.prefetch == nil {
		return
	}
	if latency.RegionOf(addr).IsROM() {
		b.prefetch.Reset()
		b.prefetchActive = true
		w := uint32(max(width, latency.Width16))
		b.prefetchNext = addr&^(w-1) + w
		b.prefetchCredit = 0
		return
	}
	b.runPrefetch(cycles)
}

// prefetched serves a cartridge load from the buffer when every halfword
// it covers is there.
func (b *timedBus) prefetched(addr uint32, width latency.Width, access emu.Access) (uint32, bool) {
	if b.prefetch == nil || !latency.RegionOf(addr).IsROM() {
		return 0, false
	}

	base := addr &^ 1
	if width == latency.Width32 {
		base = addr &^ 3
		if !b.prefetch.Contains(base) || !b.prefetch.Contains(base+2) {
			return 0, false
		}
	} else if !b.prefetch.Contains(base) {
		return 0, false
	}

	lo, _ := b.prefetch.Read(base)
	value := uint32(lo)
	if width == latency.Width32 {
		hi, _ := b.prefetch.Read(base + 2)
		value |= uint32(hi) << 16
	}

	if access == emu.Sequential {
		b.counters.sequential++
	} else {
		b.counters.nonSequential++
	}
	b.counters.prefetchHits++
	b.counters.cycles += b.prefetch.Latency(int(width))

	return value, true
}

// runPrefetch lets the prefetch unit use cycles during which the CPU is not
// on the cartridge bus.
func (b *timedBus) runPrefetch(cycles uint64) {
	if !b.prefetchActive {
		return
	}

	b.prefetchCredit += cycles
	for !b.prefetch.Full() {
		cost := b.table.AccessCycles(b.prefetchNext, latency.Width16, emu.Sequential)
		if b.prefetchCredit < cost {
			return
		}
		b.prefetch.Fill(b.prefetchNext)
		b.prefetchNext += 2
		b.prefetchCredit -= cost
	}
	b.prefetchCredit = 0
}

// Load8 implements emu.Bus.
func (b *timedBus) Load8(addr uint32, access emu.Access) uint8 {
	if v, ok := b.prefetched(addr, latency.Width16, access); ok {
		return uint8(v >> (8 * (addr & 1)))
	}
	b.charge(addr, latency.Width8, access)
	return b.inner.Load8(addr, access)
}

// Load16 implements emu.Bus.
func (b *timedBus) Load16(addr uint32, access emu.Access) uint16 {
	if v, ok := b.prefetched(addr, latency.Width16, access); ok {
		return uint16(v)
	}
	b.charge(addr, latency.Width16, access)
	return b.inner.Load16(addr, access)
}

// Load32 implements emu.Bus.
func (b *timedBus) Load32(addr uint32, access emu.Access) uint32 {
	if v, ok := b.prefetched(addr, latency.Width32, access); ok {
		return v
	}
	b.charge(addr, latency.Width32, access)
	return b.inner.Load32(addr, access)
}

// Store8 implements emu.Bus.
func (b *timedBus) Store8(addr uint32, value uint8, access emu.Access) {
	b.charge(addr, latency.Width8, access)
	b.inner.Store8(addr, value, access)
}

// Store16 implements emu.Bus.
func (b *timedBus) Store16(addr uint32, value uint16, access emu.Access) {
	b.charge(addr, latency.Width16, access)
	b.inner.Store16(addr, value, access)
}

// Store32 implements emu.Bus.
func (b *timedBus) Store32(addr uint32, value uint32, access emu.Access) {
	b.charge(addr, latency.Width32, access)
	b.inner.Store32(addr, value, access)
}

// Idle implements emu.IdleCycler. The wrapped bus is told too when it
// wants to know.
func (b *timedBus) Idle(cycles int) {
	b.counters.cycles += uint64(cycles)
	b.counters.idle += uint64(cycles)
	b.runPrefetch(uint64(cycles))

	if idler, ok := b.inner.(emu.IdleCycler); ok {
		idler.Idle(cycles)
	}
}
