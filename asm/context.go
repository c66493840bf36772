package asm

import (
	"math"
	"math/cmplx"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/op"
)

// Context is the state an instruction consults while rendering: the pools,
// the resolved layout and the output buffer. A Context belongs to exactly one
// assembly run.
type Context struct {
	layout    *Layout
	constants *Pool[any]
	names     *Pool[string]
	varnames  *Pool[string]
	nans      map[nanKey]int
	buf       *Buffer
	index     int
}

// nanKey identifies a NaN constant by its bit pattern. NaN never equals
// itself, so the pool cannot deduplicate it by value.
type nanKey struct {
	complex bool
	re, im  uint64
}

func nanKeyOf(v any) (nanKey, bool) {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) {
			return nanKey{re: math.Float64bits(v)}, true
		}
	case complex128:
		if cmplx.IsNaN(v) {
			return nanKey{complex: true, re: math.Float64bits(real(v)), im: math.Float64bits(imag(v))}, true
		}
	}
	return nanKey{}, false
}

// NewContext returns a context rendering against the given layout. The
// varnames pool is seeded with params, in order.
func NewContext(layout *Layout, params []string) *Context {
	return &Context{
		layout:    layout,
		constants: NewPool[any](),
		names:     NewPool[string](),
		varnames:  NewPool(params...),
		nans:      map[nanKey]int{},
		buf:       NewBuffer(layout.Size()),
	}
}

// Index returns the sequence index of the instruction currently rendering.
func (c *Context) Index() int {
	return c.index
}

// Position returns the byte offset of the instruction currently rendering.
func (c *Context) Position() int {
	return c.layout.Position(c.index)
}

// Offset returns the byte offset of the named label.
func (c *Context) Offset(label string) (int, bool) {
	return c.layout.Offset(label)
}

// LabelNames returns the names of all labels in the sequence.
func (c *Context) LabelNames() []string {
	return c.layout.LabelNames()
}

// RegisterConstant registers a constant and returns its pool index. Go int
// values are registered as int64. NaN constants with the same bit pattern
// share an index.
func (c *Context) RegisterConstant(value any) (int, error) {
	normalized, ok := bytecode.NormalizeConstant(value)
	if !ok {
		return 0, invalidOperand(op.LoadConst, value, "constant of type %T is not representable", value)
	}
	key, isNaN := nanKeyOf(normalized)
	if !isNaN {
		return c.constants.Register(normalized), nil
	}
	if i, ok := c.nans[key]; ok {
		return i, nil
	}
	i := c.constants.Register(normalized)
	c.nans[key] = i
	return i, nil
}

// RegisterName registers a name and returns its pool index.
func (c *Context) RegisterName(name string) int {
	return c.names.Register(name)
}

// RegisterVarname registers a local variable name and returns its pool index.
func (c *Context) RegisterVarname(name string) int {
	return c.varnames.Register(name)
}

// Constants returns the constants pool.
func (c *Context) Constants() *Pool[any] { return c.constants }

// Names returns the names pool.
func (c *Context) Names() *Pool[string] { return c.names }

// Varnames returns the varnames pool.
func (c *Context) Varnames() *Pool[string] { return c.varnames }

// Buffer returns the output buffer.
func (c *Context) Buffer() *Buffer { return c.buf }

// Emit appends an opcode without an operand.
func (c *Context) Emit(code op.Code) {
	c.buf.Append(byte(code))
}

// EmitArg appends an opcode followed by its 16-bit little-endian operand.
func (c *Context) EmitArg(code op.Code, arg int) error {
	if arg < 0 || arg > MaxOperand {
		return invalidOperand(code, arg, "operand %d out of range [0, %d]", arg, MaxOperand)
	}
	c.buf.Append(byte(code), byte(arg), byte(arg>>8))
	return nil
}

func (c *Context) seek(index int) {
	c.index = index
}
