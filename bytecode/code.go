package bytecode

import (
	"sort"

	"github.com/gofrs/uuid"
)

// Default metadata for artifacts that are not given a name or filename.
const (
	DefaultName     = "<noname code object>"
	DefaultFilename = "<string>"
)

// Namespace is the UUID namespace under which artifact IDs are derived.
var Namespace = uuid.Must(uuid.FromString("0d6b9a3e-5c43-4f0e-9a7e-3f2c1b8d4e61"))

// Code is an assembled code artifact. It is immutable after creation and safe
// for concurrent use.
type Code struct {
	id string

	argCount       int
	kwOnlyArgCount int
	nlocals        int
	stackSize      int
	flags          Flags

	code      []byte
	constants []any
	names     []string
	varnames  []string

	filename    string
	name        string
	firstLineNo int
	lnotab      []byte

	// Label name to byte offset, kept for diagnostics and disassembly.
	labels map[string]int
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	ArgCount       int
	KwOnlyArgCount int
	StackSize      int
	Flags          Flags
	Code           []byte
	Constants      []any
	Names          []string
	Varnames       []string
	Filename       string
	Name           string
	FirstLineNo    int
	Lnotab         []byte
	Labels         map[string]int
}

// NewCode creates a new immutable Code from the given parameters. Input
// slices and maps are copied. The local count is the number of varnames.
// Constants must be nil, bool, int, int64, float64, string or complex128;
// int values are stored as int64.
func NewCode(params CodeParams) (*Code, error) {
	constants := copyAny(params.Constants)
	for i, c := range constants {
		normalized, ok := NormalizeConstant(c)
		if !ok {
			return nil, &ConstantError{Index: i, Value: c}
		}
		constants[i] = normalized
	}
	name := params.Name
	if name == "" {
		name = DefaultName
	}
	filename := params.Filename
	if filename == "" {
		filename = DefaultFilename
	}
	code := &Code{
		argCount:       params.ArgCount,
		kwOnlyArgCount: params.KwOnlyArgCount,
		nlocals:        len(params.Varnames),
		stackSize:      params.StackSize,
		flags:          params.Flags,
		code:           copyBytes(params.Code),
		constants:      constants,
		names:          copyStrings(params.Names),
		varnames:       copyStrings(params.Varnames),
		filename:       filename,
		name:           name,
		firstLineNo:    params.FirstLineNo,
		lnotab:         copyBytes(params.Lnotab),
		labels:         copyLabels(params.Labels),
	}
	digest, err := cborEncMode.Marshal(stateFromCode(code))
	if err != nil {
		return nil, err
	}
	code.id = uuid.NewV5(Namespace, string(digest)).String()
	return code, nil
}

// NormalizeConstant reports whether v can be stored in a constant pool and
// returns its canonical form.
func NormalizeConstant(v any) (any, bool) {
	switch v := v.(type) {
	case nil, bool, int64, float64, string, complex128:
		return v, true
	case int:
		return int64(v), true
	default:
		return nil, false
	}
}

// ID returns the content-derived identifier of this artifact.
func (c *Code) ID() string {
	return c.id
}

// ArgCount returns the number of positional arguments.
func (c *Code) ArgCount() int {
	return c.argCount
}

// KwOnlyArgCount returns the number of keyword-only arguments.
func (c *Code) KwOnlyArgCount() int {
	return c.kwOnlyArgCount
}

// NLocals returns the number of local variables, which is the size of the
// varname pool.
func (c *Code) NLocals() int {
	return c.nlocals
}

// StackSize returns the declared maximum stack depth.
func (c *Code) StackSize() int {
	return c.stackSize
}

// Flags returns the code flags.
func (c *Code) Flags() Flags {
	return c.flags
}

// Len returns the length of the byte sequence.
func (c *Code) Len() int {
	return len(c.code)
}

// ByteAt returns the byte at the given offset.
func (c *Code) ByteAt(offset int) byte {
	return c.code[offset]
}

// Bytes returns a copy of the byte sequence.
func (c *Code) Bytes() []byte {
	return copyBytes(c.code)
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of names.
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// VarnameCount returns the number of variable names.
func (c *Code) VarnameCount() int {
	return len(c.varnames)
}

// VarnameAt returns the variable name at the given index.
func (c *Code) VarnameAt(index int) string {
	return c.varnames[index]
}

// Constants returns a copy of the constant pool.
func (c *Code) Constants() []any {
	return copyAny(c.constants)
}

// Names returns a copy of the name pool.
func (c *Code) Names() []string {
	return copyStrings(c.names)
}

// Varnames returns a copy of the varname pool.
func (c *Code) Varnames() []string {
	return copyStrings(c.varnames)
}

// Filename returns the filename recorded in the artifact.
func (c *Code) Filename() string {
	return c.filename
}

// Name returns the display name of the artifact.
func (c *Code) Name() string {
	return c.name
}

// FirstLineNo returns the first source line number.
func (c *Code) FirstLineNo() int {
	return c.firstLineNo
}

// Lnotab returns a copy of the line number table.
func (c *Code) Lnotab() []byte {
	return copyBytes(c.lnotab)
}

// Label returns the byte offset of the named label.
func (c *Code) Label(name string) (int, bool) {
	offset, ok := c.labels[name]
	return offset, ok
}

// LabelCount returns the number of labels.
func (c *Code) LabelCount() int {
	return len(c.labels)
}

// LabelNames returns the label names ordered by offset, then by name.
func (c *Code) LabelNames() []string {
	names := make([]string, 0, len(c.labels))
	for name := range c.labels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, oj := c.labels[names[i]], c.labels[names[j]]
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}

// LabelsAt returns the names of all labels resolving to the given offset,
// sorted by name.
func (c *Code) LabelsAt(offset int) []string {
	var names []string
	for name, o := range c.labels {
		if o == offset {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Labels returns a copy of the label map.
func (c *Code) Labels() map[string]int {
	return copyLabels(c.labels)
}

// Stats returns statistics about this artifact.
func (c *Code) Stats() Stats {
	count := 0
	iter := NewInstructionIter(c)
	for {
		if _, ok := iter.Next(); !ok {
			break
		}
		count++
	}
	return Stats{
		Size:             len(c.code),
		InstructionCount: count,
		ConstantCount:    len(c.constants),
		NameCount:        len(c.names),
		VarnameCount:     len(c.varnames),
		LabelCount:       len(c.labels),
		StackSize:        c.stackSize,
	}
}
