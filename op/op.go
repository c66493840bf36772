// Package op defines the opcode catalog consulted by the cocode assembler and
// disassembler.
//
// The catalog is data: each opcode has a numeric value, a mnemonic, an operand
// kind that tells the assembler which pool (if any) resolves the operand, a
// jump kind, and a stack effect. The numbering follows the classic stack
// machine layout where every opcode at or above HaveArgument carries a 16-bit
// operand.
package op

import "strings"

// Code is an integer opcode that indicates an operation to execute.
type Code uint8

// HaveArgument is the first opcode that carries an operand.
const HaveArgument Code = 90

const (
	Invalid Code = 0

	// Stack
	PopTop    Code = 1
	RotTwo    Code = 2
	RotThree  Code = 3
	DupTop    Code = 4
	DupTopTwo Code = 5
	Nop       Code = 9

	// Unary
	UnaryPositive Code = 10
	UnaryNegative Code = 11
	UnaryNot      Code = 12
	UnaryInvert   Code = 15

	// Binary
	BinaryPower       Code = 19
	BinaryMultiply    Code = 20
	BinaryModulo      Code = 22
	BinaryAdd         Code = 23
	BinarySubtract    Code = 24
	BinarySubscr      Code = 25
	BinaryFloorDivide Code = 26
	BinaryTrueDivide  Code = 27

	// Control
	ReturnValue Code = 83
	YieldValue  Code = 86

	// Names
	StoreName   Code = 90
	DeleteName  Code = 91
	StoreAttr   Code = 95
	StoreGlobal Code = 97
	LoadConst   Code = 100
	LoadName    Code = 101
	BuildTuple  Code = 102
	BuildList   Code = 103
	LoadAttr    Code = 106
	CompareOp   Code = 107

	// Jump
	JumpForward      Code = 110
	JumpIfFalseOrPop Code = 111
	JumpIfTrueOrPop  Code = 112
	JumpAbsolute     Code = 113
	PopJumpIfFalse   Code = 114
	PopJumpIfTrue    Code = 115

	LoadGlobal   Code = 116
	LoadFast     Code = 124
	StoreFast    Code = 125
	DeleteFast   Code = 126
	CallFunction Code = 131
)

// HasArg reports whether the opcode is encoded with an operand.
func (c Code) HasArg() bool {
	return c >= HaveArgument
}

// String returns the mnemonic of the opcode, or an empty string for opcodes
// that are not in the catalog.
func (c Code) String() string {
	return infos[c].Name
}

// OperandKind describes how the assembler resolves an opcode's operand.
type OperandKind uint8

const (
	// NoOperand opcodes are encoded as a single byte.
	NoOperand OperandKind = iota
	// ConstOperand values are registered in the constants pool.
	ConstOperand
	// NameOperand values are registered in the names pool.
	NameOperand
	// VarnameOperand values are registered in the varnames pool.
	VarnameOperand
	// IntOperand values are encoded as given.
	IntOperand
	// JumpOperand values are label names resolved to byte offsets.
	JumpOperand
)

func (k OperandKind) String() string {
	switch k {
	case NoOperand:
		return "none"
	case ConstOperand:
		return "const"
	case NameOperand:
		return "name"
	case VarnameOperand:
		return "varname"
	case IntOperand:
		return "int"
	case JumpOperand:
		return "jump"
	default:
		return ""
	}
}

// JumpKind describes how a jump opcode encodes its target.
type JumpKind uint8

const (
	// NotJump opcodes never transfer control to a label.
	NotJump JumpKind = iota
	// Absolute jumps encode the target byte offset.
	Absolute
	// Relative jumps encode the distance from the end of the jump instruction
	// to the target. Only forward distances are representable.
	Relative
)

// CompareOpType is the operand of CompareOp.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 0
	LessThanOrEqual    CompareOpType = 1
	Equal              CompareOpType = 2
	NotEqual           CompareOpType = 3
	GreaterThan        CompareOpType = 4
	GreaterThanOrEqual CompareOpType = 5
	In                 CompareOpType = 6
	NotIn              CompareOpType = 7
	Is                 CompareOpType = 8
	IsNot              CompareOpType = 9
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case In:
		return "in"
	case NotIn:
		return "not in"
	case Is:
		return "is"
	case IsNot:
		return "is not"
	default:
		return ""
	}
}

// LookupCompareOp returns the comparison with the given symbol, such as "<="
// or "not in".
func LookupCompareOp(symbol string) (CompareOpType, bool) {
	symbol = strings.Join(strings.Fields(symbol), " ")
	for cop := LessThan; cop <= IsNot; cop++ {
		if cop.String() == symbol {
			return cop, true
		}
	}
	return 0, false
}

// Info contains information about an opcode.
type Info struct {
	Code    Code
	Name    string
	Operand OperandKind
	Jump    JumpKind

	// Conditional jumps may fall through to the next instruction.
	Conditional bool

	// Terminal opcodes never fall through (returns).
	Terminal bool

	effect func(arg int, jump bool) int
}

// Width returns the encoded length of the opcode in bytes.
func (i Info) Width() int {
	if i.Code.HasArg() {
		return 3
	}
	return 1
}

// Known reports whether the opcode is part of the catalog.
func (i Info) Known() bool {
	return i.Name != ""
}

// StackEffect returns the net change in stack depth caused by executing the
// opcode with the given operand. For jumps, jump selects the effect when the
// branch is taken.
func (i Info) StackEffect(arg int, jump bool) int {
	if i.effect == nil {
		return 0
	}
	return i.effect(arg, jump)
}

var (
	infos  = make([]Info, 256)
	byName = map[string]Code{}
)

func fixed(n int) func(int, bool) int {
	return func(int, bool) int { return n }
}

func init() {
	type opInfo struct {
		op      Code
		name    string
		operand OperandKind
		effect  func(int, bool) int
	}
	ops := []opInfo{
		{PopTop, "POP_TOP", NoOperand, fixed(-1)},
		{RotTwo, "ROT_TWO", NoOperand, fixed(0)},
		{RotThree, "ROT_THREE", NoOperand, fixed(0)},
		{DupTop, "DUP_TOP", NoOperand, fixed(1)},
		{DupTopTwo, "DUP_TOP_TWO", NoOperand, fixed(2)},
		{Nop, "NOP", NoOperand, fixed(0)},
		{UnaryPositive, "UNARY_POSITIVE", NoOperand, fixed(0)},
		{UnaryNegative, "UNARY_NEGATIVE", NoOperand, fixed(0)},
		{UnaryNot, "UNARY_NOT", NoOperand, fixed(0)},
		{UnaryInvert, "UNARY_INVERT", NoOperand, fixed(0)},
		{BinaryPower, "BINARY_POWER", NoOperand, fixed(-1)},
		{BinaryMultiply, "BINARY_MULTIPLY", NoOperand, fixed(-1)},
		{BinaryModulo, "BINARY_MODULO", NoOperand, fixed(-1)},
		{BinaryAdd, "BINARY_ADD", NoOperand, fixed(-1)},
		{BinarySubtract, "BINARY_SUBTRACT", NoOperand, fixed(-1)},
		{BinarySubscr, "BINARY_SUBSCR", NoOperand, fixed(-1)},
		{BinaryFloorDivide, "BINARY_FLOOR_DIVIDE", NoOperand, fixed(-1)},
		{BinaryTrueDivide, "BINARY_TRUE_DIVIDE", NoOperand, fixed(-1)},
		{ReturnValue, "RETURN_VALUE", NoOperand, fixed(-1)},
		// Pops the yielded value and leaves the value sent back by the
		// caller in its place, so the net effect is zero.
		{YieldValue, "YIELD_VALUE", NoOperand, fixed(0)},
		{StoreName, "STORE_NAME", NameOperand, fixed(-1)},
		{DeleteName, "DELETE_NAME", NameOperand, fixed(0)},
		{StoreAttr, "STORE_ATTR", NameOperand, fixed(-2)},
		{StoreGlobal, "STORE_GLOBAL", NameOperand, fixed(-1)},
		{LoadConst, "LOAD_CONST", ConstOperand, fixed(1)},
		{LoadName, "LOAD_NAME", NameOperand, fixed(1)},
		{BuildTuple, "BUILD_TUPLE", IntOperand, func(arg int, _ bool) int { return 1 - arg }},
		{BuildList, "BUILD_LIST", IntOperand, func(arg int, _ bool) int { return 1 - arg }},
		{LoadAttr, "LOAD_ATTR", NameOperand, fixed(0)},
		{CompareOp, "COMPARE_OP", IntOperand, fixed(-1)},
		{JumpForward, "JUMP_FORWARD", JumpOperand, fixed(0)},
		{JumpIfFalseOrPop, "JUMP_IF_FALSE_OR_POP", JumpOperand, popUnlessJump},
		{JumpIfTrueOrPop, "JUMP_IF_TRUE_OR_POP", JumpOperand, popUnlessJump},
		{JumpAbsolute, "JUMP_ABSOLUTE", JumpOperand, fixed(0)},
		{PopJumpIfFalse, "POP_JUMP_IF_FALSE", JumpOperand, fixed(-1)},
		{PopJumpIfTrue, "POP_JUMP_IF_TRUE", JumpOperand, fixed(-1)},
		{LoadGlobal, "LOAD_GLOBAL", NameOperand, fixed(1)},
		{LoadFast, "LOAD_FAST", VarnameOperand, fixed(1)},
		{StoreFast, "STORE_FAST", VarnameOperand, fixed(-1)},
		{DeleteFast, "DELETE_FAST", VarnameOperand, fixed(0)},
		// The low byte counts positional arguments and the high byte counts
		// keyword pairs; the callable itself is replaced by the result.
		{CallFunction, "CALL_FUNCTION", IntOperand, func(arg int, _ bool) int {
			return -(arg & 0xff) - 2*((arg>>8)&0xff)
		}},
	}
	for _, o := range ops {
		info := Info{
			Code:    o.op,
			Name:    o.name,
			Operand: o.operand,
			effect:  o.effect,
		}
		switch o.op {
		case JumpForward:
			info.Jump = Relative
		case JumpAbsolute:
			info.Jump = Absolute
		case JumpIfFalseOrPop, JumpIfTrueOrPop, PopJumpIfFalse, PopJumpIfTrue:
			info.Jump = Absolute
			info.Conditional = true
		case ReturnValue:
			info.Terminal = true
		}
		infos[o.op] = info
		byName[o.name] = o.op
	}
}

func popUnlessJump(_ int, jump bool) int {
	if jump {
		return 0
	}
	return -1
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}

// Lookup returns the opcode with the given mnemonic. Matching is case
// insensitive.
func Lookup(name string) (Code, bool) {
	code, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return code, ok
}

// Names returns the mnemonics of all opcodes in the catalog, in opcode order.
func Names() []string {
	var names []string
	for _, info := range infos {
		if info.Known() {
			names = append(names, info.Name)
		}
	}
	return names
}
