package asm

import (
	"fmt"
	"strconv"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/op"
)

// MaxOperand is the largest value representable in an operand.
const MaxOperand = 0xFFFF

// Instruction is one opcode occurrence in an instruction sequence.
//
// Instructions are values: they carry no position. Positions are assigned per
// assembly run by a Layout, so the same sequence may be assembled many times,
// including concurrently.
type Instruction interface {
	// Opcode returns the opcode. Labels return op.Invalid.
	Opcode() op.Code

	// Len returns the encoded length in bytes.
	Len() int

	// Validate checks the shape of the instruction without consulting any
	// pool or label map.
	Validate() error

	// StackEffect returns the net stack depth change. For jumps, jump selects
	// the effect when the branch is taken.
	StackEffect(jump bool) int

	// Render appends the encoded instruction to the context's buffer.
	Render(ctx *Context) error
}

func checkKind(code op.Code, want op.OperandKind) error {
	info := op.GetInfo(code)
	if !info.Known() {
		return &InvalidOperandError{
			Index:  -1,
			Offset: -1,
			Opcode: code,
			Reason: fmt.Sprintf("unknown opcode %d", code),
		}
	}
	if info.Operand != want {
		return &InvalidOperandError{
			Index:  -1,
			Offset: -1,
			Opcode: code,
			Reason: fmt.Sprintf("%s takes a %s operand, not %s", info.Name, info.Operand, want),
		}
	}
	return nil
}

func invalidOperand(code op.Code, operand any, format string, args ...any) *InvalidOperandError {
	return &InvalidOperandError{
		Index:   -1,
		Offset:  -1,
		Opcode:  code,
		Operand: operand,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// Simple is an instruction without an operand.
type Simple struct {
	Code op.Code
}

func (s Simple) Opcode() op.Code { return s.Code }

func (s Simple) Len() int { return 1 }

func (s Simple) Validate() error { return checkKind(s.Code, op.NoOperand) }

func (s Simple) StackEffect(jump bool) int {
	return op.GetInfo(s.Code).StackEffect(0, jump)
}

func (s Simple) Render(ctx *Context) error {
	ctx.Emit(s.Code)
	return nil
}

func (s Simple) String() string { return s.Code.String() }

// Const loads a constant registered in the constants pool.
type Const struct {
	Code  op.Code
	Value any
}

func (c Const) Opcode() op.Code { return c.Code }

func (c Const) Len() int { return 3 }

func (c Const) Validate() error {
	if err := checkKind(c.Code, op.ConstOperand); err != nil {
		return err
	}
	if _, ok := bytecode.NormalizeConstant(c.Value); !ok {
		return invalidOperand(c.Code, c.Value, "constant of type %T is not representable", c.Value)
	}
	return nil
}

func (c Const) StackEffect(jump bool) int {
	return op.GetInfo(c.Code).StackEffect(0, jump)
}

func (c Const) Render(ctx *Context) error {
	index, err := ctx.RegisterConstant(c.Value)
	if err != nil {
		return err
	}
	return ctx.EmitArg(c.Code, index)
}

func (c Const) String() string {
	if s, ok := c.Value.(string); ok {
		return c.Code.String() + " " + strconv.Quote(s)
	}
	return fmt.Sprintf("%s %v", c.Code, c.Value)
}

// Name refers to a global, attribute or free name registered in the names
// pool.
type Name struct {
	Code op.Code
	Name string
}

func (n Name) Opcode() op.Code { return n.Code }

func (n Name) Len() int { return 3 }

func (n Name) Validate() error {
	if err := checkKind(n.Code, op.NameOperand); err != nil {
		return err
	}
	if n.Name == "" {
		return invalidOperand(n.Code, n.Name, "name must not be empty")
	}
	return nil
}

func (n Name) StackEffect(jump bool) int {
	return op.GetInfo(n.Code).StackEffect(0, jump)
}

func (n Name) Render(ctx *Context) error {
	return ctx.EmitArg(n.Code, ctx.RegisterName(n.Name))
}

func (n Name) String() string { return n.Code.String() + " " + n.Name }

// Fast refers to a local variable registered in the varnames pool.
type Fast struct {
	Code op.Code
	Name string
}

func (f Fast) Opcode() op.Code { return f.Code }

func (f Fast) Len() int { return 3 }

func (f Fast) Validate() error {
	if err := checkKind(f.Code, op.VarnameOperand); err != nil {
		return err
	}
	if f.Name == "" {
		return invalidOperand(f.Code, f.Name, "variable name must not be empty")
	}
	return nil
}

func (f Fast) StackEffect(jump bool) int {
	return op.GetInfo(f.Code).StackEffect(0, jump)
}

func (f Fast) Render(ctx *Context) error {
	return ctx.EmitArg(f.Code, ctx.RegisterVarname(f.Name))
}

func (f Fast) String() string { return f.Code.String() + " " + f.Name }

// Arg carries a raw integer operand.
type Arg struct {
	Code op.Code
	Arg  int
}

func (a Arg) Opcode() op.Code { return a.Code }

func (a Arg) Len() int { return 3 }

func (a Arg) Validate() error {
	if err := checkKind(a.Code, op.IntOperand); err != nil {
		return err
	}
	if a.Arg < 0 || a.Arg > MaxOperand {
		return invalidOperand(a.Code, a.Arg, "operand %d out of range [0, %d]", a.Arg, MaxOperand)
	}
	return nil
}

func (a Arg) StackEffect(jump bool) int {
	return op.GetInfo(a.Code).StackEffect(a.Arg, jump)
}

func (a Arg) Render(ctx *Context) error {
	return ctx.EmitArg(a.Code, a.Arg)
}

func (a Arg) String() string {
	if a.Code == op.CompareOp {
		return fmt.Sprintf("%s %d (%s)", a.Code, a.Arg, op.CompareOpType(a.Arg))
	}
	return fmt.Sprintf("%s %d", a.Code, a.Arg)
}

// Jump transfers control to a label. Absolute jumps encode the label's byte
// offset; relative jumps encode the distance from the end of the jump.
type Jump struct {
	Code  op.Code
	Label string
}

// Target returns the name of the label this jump refers to.
func (j Jump) Target() string { return j.Label }

func (j Jump) Opcode() op.Code { return j.Code }

func (j Jump) Len() int { return 3 }

func (j Jump) Validate() error {
	if err := checkKind(j.Code, op.JumpOperand); err != nil {
		return err
	}
	if j.Label == "" {
		return invalidOperand(j.Code, j.Label, "jump target must not be empty")
	}
	return nil
}

func (j Jump) StackEffect(jump bool) int {
	return op.GetInfo(j.Code).StackEffect(0, jump)
}

func (j Jump) Render(ctx *Context) error {
	target, ok := ctx.Offset(j.Label)
	if !ok {
		return &UnresolvedLabelError{
			Label:       j.Label,
			Index:       -1,
			Offset:      -1,
			Opcode:      j.Code,
			Suggestions: suggestLabels(j.Label, ctx.LabelNames()),
		}
	}
	if op.GetInfo(j.Code).Jump == op.Relative {
		delta := target - (ctx.Position() + j.Len())
		if delta < 0 {
			return invalidOperand(j.Code, j.Label,
				"label %q is %d bytes behind a forward-only jump", j.Label, -delta)
		}
		return ctx.EmitArg(j.Code, delta)
	}
	return ctx.EmitArg(j.Code, target)
}

func (j Jump) String() string { return j.Code.String() + " " + j.Label }

// Label marks a byte position that jumps may refer to. It occupies no space.
type Label struct {
	Name string
}

func (l Label) Opcode() op.Code { return op.Invalid }

func (l Label) Len() int { return 0 }

func (l Label) Validate() error {
	if l.Name == "" {
		return invalidOperand(op.Invalid, l.Name, "label name must not be empty")
	}
	return nil
}

func (l Label) StackEffect(bool) int { return 0 }

func (l Label) Render(*Context) error { return nil }

func (l Label) String() string { return l.Name + ":" }

// Make returns the instruction variant matching the opcode's operand kind.
// Opcodes without an operand require a nil operand; integer operands accept
// any Go integer type.
func Make(code op.Code, operand any) (Instruction, error) {
	info := op.GetInfo(code)
	if !info.Known() {
		return nil, invalidOperand(code, operand, "unknown opcode %d", code)
	}
	var instr Instruction
	switch info.Operand {
	case op.NoOperand:
		if operand != nil {
			return nil, invalidOperand(code, operand, "%s takes no operand", info.Name)
		}
		instr = Simple{Code: code}
	case op.ConstOperand:
		instr = Const{Code: code, Value: operand}
	case op.NameOperand, op.VarnameOperand, op.JumpOperand:
		s, ok := operand.(string)
		if !ok {
			return nil, invalidOperand(code, operand, "%s takes a %s operand, got %T", info.Name, info.Operand, operand)
		}
		switch info.Operand {
		case op.NameOperand:
			instr = Name{Code: code, Name: s}
		case op.VarnameOperand:
			instr = Fast{Code: code, Name: s}
		default:
			instr = Jump{Code: code, Label: s}
		}
	case op.IntOperand:
		n, ok := toInt(operand)
		if !ok {
			return nil, invalidOperand(code, operand, "%s takes an integer operand, got %T", info.Name, operand)
		}
		instr = Arg{Code: code, Arg: n}
	}
	if err := instr.Validate(); err != nil {
		return nil, err
	}
	return instr, nil
}

func toInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		if v > MaxOperand {
			return MaxOperand + 1, true
		}
		return int(v), true
	case op.CompareOpType:
		return int(v), true
	default:
		return 0, false
	}
}
