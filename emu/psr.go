package emu

import "fmt"

// Mode is the 5-bit processor mode field of a status register.
type Mode uint8

// Processor modes.
const (
	ModeUser       Mode = 0b10000
	ModeFiq        Mode = 0b10001
	ModeIrq        Mode = 0b10010
	ModeSupervisor Mode = 0b10011
	ModeAbort      Mode = 0b10111
	ModeUndefined  Mode = 0b11011
	ModeSystem     Mode = 0b11111
)

// Valid reports whether m is one of the seven legal mode patterns.
func (m Mode) Valid() bool {
	switch m {
	case ModeUser, ModeFiq, ModeIrq, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem:
		return true
	default:
		return false
	}
}

// Privileged reports whether the mode is anything but User.
func (m Mode) Privileged() bool {
	return m != ModeUser
}

// HasSPSR reports whether the mode owns a saved status register.
func (m Mode) HasSPSR() bool {
	return m.Valid() && m != ModeUser && m != ModeSystem
}

var savedStatusModes = [...]Mode{ModeFiq, ModeIrq, ModeSupervisor, ModeAbort, ModeUndefined}

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "USR"
	case ModeFiq:
		return "FIQ"
	case ModeIrq:
		return "IRQ"
	case ModeSupervisor:
		return "SVC"
	case ModeAbort:
		return "ABT"
	case ModeUndefined:
		return "UND"
	case ModeSystem:
		return "SYS"
	default:
		return fmt.Sprintf("Mode(0x%02X)", uint8(m))
	}
}

// State is the instruction set selected by the T bit.
type State uint8

// Instruction set states.
const (
	StateARM   State = 0
	StateThumb State = 1
)

func (s State) String() string {
	if s == StateThumb {
		return "Thumb"
	}
	return "ARM"
}

// Status register bit positions.
const (
	psrN = 31
	psrZ = 30
	psrC = 29
	psrV = 28
	psrI = 7
	psrF = 6
	psrT = 5

	psrModeMask = 0x1F
	psrFlagMask = 0xF0000000

	// psrWritable holds every architecturally defined bit.
	psrWritable = 0xF00000FF

	// PSRControlMask covers the I, F, T and mode bits (the c field).
	PSRControlMask = 0x000000FF
	// PSRFlagsMask covers N, Z, C and V (the f field).
	PSRFlagsMask = psrFlagMask
)

// StatusRegister is a packed program status register. Reserved bits 27-8
// always read as zero.
type StatusRegister struct {
	value uint32
}

// NewStatusRegister creates a status register from raw bits, forcing the
// reserved bits to zero. The mode field is not validated.
func NewStatusRegister(bits uint32) StatusRegister {
	return StatusRegister{value: bits & psrWritable}
}

// ParseStatusRegister creates a status register from untrusted bits and
// rejects an illegal mode field.
func ParseStatusRegister(bits uint32) (StatusRegister, error) {
	psr := NewStatusRegister(bits)
	if _, err := psr.Mode(); err != nil {
		return StatusRegister{}, err
	}
	return psr, nil
}

// Value returns the raw register bits.
func (p StatusRegister) Value() uint32 {
	return p.value
}

// Set rewrites all non-reserved bits.
func (p *StatusRegister) Set(value uint32) {
	p.value = value & psrWritable
}

// Flags returns N, Z, C and V packed as a nibble (N in bit 3).
func (p StatusRegister) Flags() uint8 {
	return uint8(p.value >> 28)
}

// SetFlags writes N, Z, C and V from the low nibble of nzcv, leaving every
// other bit untouched.
func (p *StatusRegister) SetFlags(nzcv uint8) {
	p.SetFlagBits(uint32(nzcv&0xF) << 28)
}

// SetFlagBits writes only the top four bits of value into the register.
func (p *StatusRegister) SetFlagBits(value uint32) {
	p.value = p.value&^psrFlagMask | value&psrFlagMask
}

func (p StatusRegister) bit(n uint) bool {
	return p.value>>n&1 == 1
}

func (p *StatusRegister) setBit(n uint, on bool) {
	if on {
		p.value |= 1 << n
	} else {
		p.value &^= 1 << n
	}
}

// Negative returns the N flag.
func (p StatusRegister) Negative() bool { return p.bit(psrN) }

// SetNegative sets the N flag.
func (p *StatusRegister) SetNegative(on bool) { p.setBit(psrN, on) }

// Zero returns the Z flag.
func (p StatusRegister) Zero() bool { return p.bit(psrZ) }

// SetZero sets the Z flag.
func (p *StatusRegister) SetZero(on bool) { p.setBit(psrZ, on) }

// Carry returns the C flag.
func (p StatusRegister) Carry() bool { return p.bit(psrC) }

// SetCarry sets the C flag.
func (p *StatusRegister) SetCarry(on bool) { p.setBit(psrC, on) }

// Overflow returns the V flag.
func (p StatusRegister) Overflow() bool { return p.bit(psrV) }

// SetOverflow sets the V flag.
func (p *StatusRegister) SetOverflow(on bool) { p.setBit(psrV, on) }

// IRQDisable returns the I bit.
func (p StatusRegister) IRQDisable() bool { return p.bit(psrI) }

// SetIRQDisable sets the I bit.
func (p *StatusRegister) SetIRQDisable(on bool) { p.setBit(psrI, on) }

// FIQDisable returns the F bit.
func (p StatusRegister) FIQDisable() bool { return p.bit(psrF) }

// SetFIQDisable sets the F bit.
func (p *StatusRegister) SetFIQDisable(on bool) { p.setBit(psrF, on) }

// State returns the instruction set selected by the T bit.
func (p StatusRegister) State() State {
	if p.bit(psrT) {
		return StateThumb
	}
	return StateARM
}

// SetState sets the T bit.
func (p *StatusRegister) SetState(s State) { p.setBit(psrT, s == StateThumb) }

// Mode returns the processor mode, or ErrInvalidMode if the field holds an
// illegal pattern.
func (p StatusRegister) Mode() (Mode, error) {
	m := Mode(p.value & psrModeMask)
	if !m.Valid() {
		return 0, fmt.Errorf("mode bits 0x%02X: %w", uint8(m), ErrInvalidMode)
	}
	return m, nil
}

// SetMode writes the mode field.
func (p *StatusRegister) SetMode(m Mode) {
	p.value = p.value&^psrModeMask | uint32(m)&psrModeMask
}

func (p StatusRegister) String() string {
	flag := func(on bool, c byte) byte {
		if on {
			return c
		}
		return '-'
	}
	return fmt.Sprintf("%c%c%c%c %c%c %s %s (0x%08X)",
		flag(p.Negative(), 'N'), flag(p.Zero(), 'Z'), flag(p.Carry(), 'C'), flag(p.Overflow(), 'V'),
		flag(p.IRQDisable(), 'I'), flag(p.FIQDisable(), 'F'),
		p.State(), Mode(p.value&psrModeMask), p.value)
}
