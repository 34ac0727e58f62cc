// Package cache models the cartridge prefetch buffer using Akita cache
// components.
//
// While the CPU runs from anywhere other than the cartridge bus, the
// console's prefetch unit keeps reading sequential ROM halfwords into a small
// buffer. A later instruction fetch that finds its halfword there completes
// in a single cycle instead of paying the cartridge wait states.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// halfword is the block size of the buffer.
const halfword = 2

// Config holds prefetch buffer configuration parameters.
type Config struct {
	// Depth is the number of halfwords the buffer holds.
	Depth int
	// HitLatency in cycles per halfword delivered from the buffer.
	HitLatency uint64
}

// DefaultConfig returns the configuration of the console's buffer: eight
// halfwords, one cycle per hit.
func DefaultConfig() Config {
	return Config{
		Depth:      8,
		HitLatency: 1,
	}
}

// Statistics holds prefetch buffer statistics.
type Statistics struct {
	Fills   uint64
	Lookups uint64
	Hits    uint64
	Misses  uint64
	// Discards counts halfwords dropped by Reset or by eviction.
	Discards uint64
}

// BackingStore is where the buffer reads cartridge halfwords from.
type BackingStore interface {
	Read(addr uint32, size int) []byte
}

// PrefetchBuffer is a fully associative halfword buffer. Each entry is
// consumed by the hit that reads it.
type PrefetchBuffer struct {
	config Config

	// Akita cache directory for tag/state management, one set of Depth ways.
	directory *akitacache.DirectoryImpl

	// Data storage, indexed by way.
	dataStore [][]byte

	valid   int
	stats   Statistics
	backing BackingStore
}

// NewPrefetchBuffer creates an empty buffer.
func NewPrefetchBuffer(config Config, backing BackingStore) *PrefetchBuffer {
	dataStore := make([][]byte, config.Depth)
	for i := range dataStore {
		dataStore[i] = make([]byte, halfword)
	}

	return &PrefetchBuffer{
		config: config,
		directory: akitacache.NewDirectory(
			1,
			config.Depth,
			halfword,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the buffer configuration.
func (b *PrefetchBuffer) Config() Config {
	return b.config
}

// Stats returns buffer statistics.
func (b *PrefetchBuffer) Stats() Statistics {
	return b.stats
}

// ResetStats clears buffer statistics.
func (b *PrefetchBuffer) ResetStats() {
	b.stats = Statistics{}
}

// Len returns the number of halfwords waiting in the buffer.
func (b *PrefetchBuffer) Len() int {
	return b.valid
}

// Full reports whether another Fill would evict an entry.
func (b *PrefetchBuffer) Full() bool {
	return b.valid >= b.config.Depth
}

func (b *PrefetchBuffer) lookup(addr uint32) *akitacache.Block {
	block := b.directory.Lookup(0, uint64(addr&^1))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

// Contains reports whether the halfword at addr is buffered, without
// consuming it.
func (b *PrefetchBuffer) Contains(addr uint32) bool {
	return b.lookup(addr) != nil
}

// Fill reads the halfword at addr from the backing store into the buffer,
// evicting the least recently filled entry when the buffer is full.
func (b *PrefetchBuffer) Fill(addr uint32) {
	tag := uint64(addr &^ 1)
	if b.lookup(addr) != nil {
		return
	}

	victim := b.directory.FindVictim(tag)
	if victim == nil {
		return
	}
	if victim.IsValid {
		b.stats.Discards++
		b.valid--
	}

	data := b.dataStore[victim.WayID]
	if b.backing != nil {
		copy(data, b.backing.Read(addr&^1, halfword))
	} else {
		data[0], data[1] = 0, 0
	}

	victim.Tag = tag
	victim.IsValid = true
	victim.IsDirty = false
	b.directory.Visit(victim)

	b.valid++
	b.stats.Fills++
}

// Read looks up the halfword at addr. On a hit the entry is consumed and
// its data returned.
func (b *PrefetchBuffer) Read(addr uint32) (uint16, bool) {
	b.stats.Lookups++

	block := b.lookup(addr)
	if block == nil {
		b.stats.Misses++
		return 0, false
	}

	b.stats.Hits++
	data := b.dataStore[block.WayID]
	block.IsValid = false
	b.valid--

	return uint16(data[0]) | uint16(data[1])<<8, true
}

// Hit is Read without the data.
func (b *PrefetchBuffer) Hit(addr uint32) bool {
	_, ok := b.Read(addr)
	return ok
}

// Latency returns the cycles a hit of size bytes takes.
func (b *PrefetchBuffer) Latency(size int) uint64 {
	return b.config.HitLatency * uint64((size+halfword-1)/halfword)
}

// Reset drops every buffered halfword. Statistics other than Discards are
// kept.
func (b *PrefetchBuffer) Reset() {
	b.stats.Discards += uint64(b.valid)
	b.directory.Reset()
	b.valid = 0
}
