package emu

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

// Memory is a sparse, flat, little-endian 32-bit address space. It
// implements Bus and ignores access classification, so it suits tests and
// the command-line runner. Unwritten bytes read as zero.
type Memory struct {
	pages map[uint32]*[pageSize]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*[pageSize]byte)}
}

func (m *Memory) page(addr uint32, create bool) *[pageSize]byte {
	p, ok := m.pages[addr>>pageBits]
	if !ok && create {
		p = new([pageSize]byte)
		m.pages[addr>>pageBits] = p
	}
	return p
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&pageMask]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) {
	m.page(addr, true)[addr&pageMask] = value
}

// Read16 reads a halfword from a halfword-aligned address.
func (m *Memory) Read16(addr uint32) uint16 {
	addr &^= 1
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write16 writes a halfword to a halfword-aligned address.
func (m *Memory) Write16(addr uint32, value uint16) {
	addr &^= 1
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
}

// Read32 reads a word from a word-aligned address.
func (m *Memory) Read32(addr uint32) uint32 {
	addr &^= 3
	return uint32(m.Read16(addr)) | uint32(m.Read16(addr+2))<<16
}

// Write32 writes a word to a word-aligned address.
func (m *Memory) Write32(addr uint32, value uint32) {
	addr &^= 3
	m.Write16(addr, uint16(value))
	m.Write16(addr+2, uint16(value>>16))
}

// LoadProgram copies program into memory starting at addr.
func (m *Memory) LoadProgram(addr uint32, program []byte) {
	for i, b := range program {
		m.Write8(addr+uint32(i), b)
	}
}

// Load8 implements Bus.
func (m *Memory) Load8(addr uint32, _ Access) uint8 { return m.Read8(addr) }

// Load16 implements Bus.
func (m *Memory) Load16(addr uint32, _ Access) uint16 { return m.Read16(addr) }

// Load32 implements Bus.
func (m *Memory) Load32(addr uint32, _ Access) uint32 { return m.Read32(addr) }

// Store8 implements Bus.
func (m *Memory) Store8(addr uint32, value uint8, _ Access) { m.Write8(addr, value) }

// Store16 implements Bus.
func (m *Memory) Store16(addr uint32, value uint16, _ Access) { m.Write16(addr, value) }

// Store32 implements Bus.
func (m *Memory) Store32(addr uint32, value uint32, _ Access) { m.Write32(addr, value) }
