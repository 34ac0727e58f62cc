package emu

// Access classifies a memory cycle relative to the previous one.
type Access uint8

// Access kinds.
const (
	NonSequential Access = iota
	Sequential
)

func (a Access) String() string {
	if a == Sequential {
		return "S"
	}
	return "N"
}

// Bus is the memory collaborator the core issues every instruction fetch
// and data transfer through. Implementations must not call back into the
// CPU.
type Bus interface {
	Load8(addr uint32, access Access) uint8
	Load16(addr uint32, access Access) uint16
	Load32(addr uint32, access Access) uint32
	Store8(addr uint32, value uint8, access Access)
	Store16(addr uint32, value uint16, access Access)
	Store32(addr uint32, value uint32, access Access)
}

// IdleCycler is optionally implemented by a Bus that wants to be told about
// internal cycles, such as multiplier iterations and register-specified
// shifts, during which the core does not use the bus.
type IdleCycler interface {
	Idle(cycles int)
}
