package insts

// Kind classifies a 32-bit ARM instruction word.
type Kind uint8

// ARM instruction kinds.
const (
	KindBranchAndExchange Kind = iota
	KindBlockDataTransfer
	KindBranchAndBranchWithLink
	KindSoftwareInterrupt
	KindUndefined
	KindSingleDataTransfer
	KindSingleDataSwap
	KindMultiply
	KindMultiplyLong
	KindHalfwordTransferRegister
	KindHalfwordTransferImmediate
	KindPsrToRegister
	KindRegisterToPsr
	KindCoprocessor
	KindDataProcessing

	numKinds
)

var kindNames = [numKinds]string{
	"BranchAndExchange",
	"BlockDataTransfer",
	"BranchAndBranchWithLink",
	"SoftwareInterrupt",
	"Undefined",
	"SingleDataTransfer",
	"SingleDataSwap",
	"Multiply",
	"MultiplyLong",
	"HalfwordTransferRegister",
	"HalfwordTransferImmediate",
	"PsrToRegister",
	"RegisterToPsr",
	"Coprocessor",
	"DataProcessing",
}

func (k Kind) String() string {
	if k >= numKinds {
		return "Kind(?)"
	}
	return kindNames[k]
}

// Pattern is one row of the classification table.
type Pattern struct {
	Kind  Kind
	Mask  uint32
	Value uint32
}

// Matches reports whether the word falls into this pattern.
func (p Pattern) Matches(word uint32) bool {
	return word&p.Mask == p.Value
}

// armPatterns is evaluated in order; ranges overlap, first match wins.
// Words matching none of them are data processing.
var armPatterns = [...]Pattern{
	{KindBranchAndExchange, 0x0FFFFFF0, 0x012FFF10},
	{KindBlockDataTransfer, 0x0E000000, 0x08000000},
	{KindBranchAndBranchWithLink, 0x0E000000, 0x0A000000},
	{KindSoftwareInterrupt, 0x0F000000, 0x0F000000},
	{KindUndefined, 0x0E000010, 0x06000010},
	{KindSingleDataTransfer, 0x0C000000, 0x04000000},
	{KindSingleDataSwap, 0x0FB00FF0, 0x01000090},
	{KindMultiply, 0x0F8000F0, 0x00000090},
	{KindMultiplyLong, 0x0F8000F0, 0x00800090},
	{KindHalfwordTransferRegister, 0x0E400F90, 0x00000090},
	{KindHalfwordTransferImmediate, 0x0E400090, 0x00400090},
	{KindPsrToRegister, 0x0FBF0000, 0x010F0000},
	{KindRegisterToPsr, 0x0DB0F000, 0x0120F000},
	{KindCoprocessor, 0x0C000000, 0x0C000000},
}

// Patterns returns a copy of the ARM classification table in priority order.
// The data-processing catch-all is not part of the table.
func Patterns() []Pattern {
	out := make([]Pattern, len(armPatterns))
	copy(out, armPatterns[:])
	return out
}

// Classify returns the kind of an ARM instruction word. It is total: every
// word has exactly one kind.
func Classify(word uint32) Kind {
	for _, p := range armPatterns {
		if p.Matches(word) {
			return p.Kind
		}
	}
	return KindDataProcessing
}

// Decoder decodes ARM and Thumb machine words into instruction views.
type Decoder struct{}

// NewDecoder creates a new ARM7TDMI instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode classifies a 32-bit ARM word fetched from pc and returns the view
// for its kind.
func (d *Decoder) Decode(word, pc uint32) Instruction {
	b := base{word: word, pc: pc}

	switch Classify(word) {
	case KindBranchAndExchange:
		return BranchAndExchange{b}
	case KindBlockDataTransfer:
		return BlockDataTransfer{b}
	case KindBranchAndBranchWithLink:
		return Branch{b}
	case KindSoftwareInterrupt:
		return SoftwareInterrupt{b}
	case KindUndefined:
		return Undefined{b}
	case KindSingleDataTransfer:
		return SingleDataTransfer{b}
	case KindSingleDataSwap:
		return SingleDataSwap{b}
	case KindMultiply:
		return Multiply{b}
	case KindMultiplyLong:
		return MultiplyLong{b}
	case KindHalfwordTransferRegister:
		return HalfwordTransfer{base: b, immediate: false}
	case KindHalfwordTransferImmediate:
		return HalfwordTransfer{base: b, immediate: true}
	case KindPsrToRegister:
		return PsrToRegister{b}
	case KindRegisterToPsr:
		return RegisterToPsr{b}
	case KindCoprocessor:
		return Coprocessor{b}
	default:
		return DataProcessing{b}
	}
}
